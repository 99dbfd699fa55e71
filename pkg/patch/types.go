package patch

import "sort"

// ActionKind identifies the kind of change described by a patch directive.
type ActionKind string

const (
	// ActionAdd represents an "*** Add File" directive.
	ActionAdd ActionKind = "add"
	// ActionDelete represents an "*** Delete File" directive.
	ActionDelete ActionKind = "delete"
	// ActionUpdate represents an "*** Update File" directive.
	ActionUpdate ActionKind = "update"
)

// Status returns the single-letter status used in summaries (A, D or M).
func (k ActionKind) Status() string {
	switch k {
	case ActionAdd:
		return "A"
	case ActionDelete:
		return "D"
	default:
		return "M"
	}
}

// Chunk is one contiguous edit region inside a file being updated.
//
// OrigIndex is the zero-based line offset into the original file where the chunk
// begins. DelLines are removed at that position and InsLines inserted in their place.
type Chunk struct {
	OrigIndex int
	DelLines  []string
	InsLines  []string
}

// PatchAction is the parsed instruction for a single path.
type PatchAction struct {
	Kind ActionKind
	// NewFile holds the full content of an added file.
	NewFile *string
	// Chunks are ordered by increasing OrigIndex and only used for updates. An
	// empty slice is legal, e.g. for a pure rename.
	Chunks []Chunk
	// MovePath is the rename target of an update, or empty.
	MovePath string
}

// Patch is the parsed, not yet materialized representation of a patch text.
type Patch struct {
	Actions map[string]*PatchAction
	// Fuzz accumulates how much approximation was needed to locate every section.
	// Zero means all context matched exactly.
	Fuzz int
}

// Paths returns the patch paths in sorted order.
func (p *Patch) Paths() []string {
	if p == nil {
		return nil
	}
	return sortedKeys(p.Actions)
}

// Change is the resolved edit for one path.
type Change struct {
	Kind       ActionKind
	OldContent *string
	NewContent *string
	MovePath   string
}

// Commit maps paths to fully resolved changes. It is the only artifact callers need
// in order to apply a patch to storage.
type Commit struct {
	Changes map[string]Change
}

// Paths returns the commit paths in sorted order. Apply walks changes in this order.
func (c *Commit) Paths() []string {
	if c == nil {
		return nil
	}
	return sortedKeys(c.Changes)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func ptr(s string) *string {
	return &s
}
