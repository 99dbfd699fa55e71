package runtime

import (
	"sync"
	"time"

	"github.com/asynkron/applypatch/pkg/patch"
)

// Metrics collects statistics about processed patches.
type Metrics interface {
	// RecordPatch records one patch run with its duration, outcome and accumulated fuzz.
	RecordPatch(duration time.Duration, success bool, fuzz int)
	// RecordChange records one applied file change.
	RecordChange(kind patch.ActionKind)
	// GetSnapshot returns the current metrics snapshot.
	GetSnapshot() MetricsSnapshot
	// Reset clears all metrics (useful for testing).
	Reset()
}

// MetricsSnapshot contains a point-in-time view of collected metrics.
type MetricsSnapshot struct {
	Patches       PatchMetrics
	Changes       map[patch.ActionKind]int64
	FuzzyPatches  int64
	TotalFuzz     int64
	LastPatchTime time.Time
}

// PatchMetrics tracks patch run statistics.
type PatchMetrics struct {
	Total     int64
	Success   int64
	Failed    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// NoOpMetrics is a metrics collector that discards all metrics.
type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordPatch(_ time.Duration, _ bool, _ int) {}
func (n *NoOpMetrics) RecordChange(_ patch.ActionKind)            {}
func (n *NoOpMetrics) GetSnapshot() MetricsSnapshot               { return MetricsSnapshot{} }
func (n *NoOpMetrics) Reset()                                     {}

// InMemoryMetrics is a thread-safe in-memory metrics collector.
type InMemoryMetrics struct {
	mu            sync.RWMutex
	patches       PatchMetrics
	changes       map[patch.ActionKind]int64
	fuzzyPatches  int64
	totalFuzz     int64
	lastPatchTime time.Time
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{changes: make(map[patch.ActionKind]int64)}
}

func (m *InMemoryMetrics) RecordPatch(duration time.Duration, success bool, fuzz int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.patches.Total++
	if success {
		m.patches.Success++
	} else {
		m.patches.Failed++
	}
	m.patches.TotalTime += duration
	if m.patches.Total == 1 || duration < m.patches.MinTime {
		m.patches.MinTime = duration
	}
	if duration > m.patches.MaxTime {
		m.patches.MaxTime = duration
	}
	if fuzz > 0 {
		m.fuzzyPatches++
		m.totalFuzz += int64(fuzz)
	}
	m.lastPatchTime = time.Now()
}

func (m *InMemoryMetrics) RecordChange(kind patch.ActionKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes[kind]++
}

func (m *InMemoryMetrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		Patches:       m.patches,
		Changes:       make(map[patch.ActionKind]int64, len(m.changes)),
		FuzzyPatches:  m.fuzzyPatches,
		TotalFuzz:     m.totalFuzz,
		LastPatchTime: m.lastPatchTime,
	}
	for k, v := range m.changes {
		snapshot.Changes[k] = v
	}
	return snapshot
}

func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.patches = PatchMetrics{}
	m.changes = make(map[patch.ActionKind]int64)
	m.fuzzyPatches = 0
	m.totalFuzz = 0
	m.lastPatchTime = time.Time{}
}
