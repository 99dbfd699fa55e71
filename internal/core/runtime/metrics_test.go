package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/applypatch/pkg/patch"
)

func TestInMemoryMetricsRecordsPatches(t *testing.T) {
	m := NewInMemoryMetrics()

	m.RecordPatch(30*time.Millisecond, true, 0)
	m.RecordPatch(10*time.Millisecond, false, 0)
	m.RecordPatch(20*time.Millisecond, true, 101)
	m.RecordChange(patch.ActionAdd)
	m.RecordChange(patch.ActionAdd)
	m.RecordChange(patch.ActionUpdate)

	snapshot := m.GetSnapshot()
	require.Equal(t, int64(3), snapshot.Patches.Total)
	require.Equal(t, int64(2), snapshot.Patches.Success)
	require.Equal(t, int64(1), snapshot.Patches.Failed)
	require.Equal(t, 10*time.Millisecond, snapshot.Patches.MinTime)
	require.Equal(t, 30*time.Millisecond, snapshot.Patches.MaxTime)
	require.Equal(t, 60*time.Millisecond, snapshot.Patches.TotalTime)
	require.Equal(t, int64(1), snapshot.FuzzyPatches)
	require.Equal(t, int64(101), snapshot.TotalFuzz)
	require.Equal(t, int64(2), snapshot.Changes[patch.ActionAdd])
	require.Equal(t, int64(1), snapshot.Changes[patch.ActionUpdate])
	require.False(t, snapshot.LastPatchTime.IsZero())

	m.Reset()
	require.Equal(t, MetricsSnapshot{Changes: map[patch.ActionKind]int64{}}, m.GetSnapshot())
}

func TestInMemoryMetricsConcurrentUse(t *testing.T) {
	m := NewInMemoryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordPatch(time.Millisecond, true, 1)
			m.RecordChange(patch.ActionDelete)
			_ = m.GetSnapshot()
		}()
	}
	wg.Wait()

	snapshot := m.GetSnapshot()
	require.Equal(t, int64(20), snapshot.Patches.Total)
	require.Equal(t, int64(20), snapshot.Changes[patch.ActionDelete])
}
