package patch

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffSnapshots compares two complete path to content maps and returns a Commit with
// one Change for every path whose content differs. Paths present on both sides become
// updates, paths only in dest become adds and paths only in orig become deletes.
func DiffSnapshots(orig, dest map[string]string) (*Commit, error) {
	union := make(map[string]struct{}, len(orig)+len(dest))
	for path := range orig {
		union[path] = struct{}{}
	}
	for path := range dest {
		union[path] = struct{}{}
	}
	paths := make([]string, 0, len(union))
	for path := range union {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	commit := &Commit{Changes: make(map[string]Change)}
	for _, path := range paths {
		oldContent, inOrig := orig[path]
		newContent, inDest := dest[path]
		switch {
		case inOrig && inDest:
			if oldContent == newContent {
				continue
			}
			commit.Changes[path] = Change{Kind: ActionUpdate, OldContent: ptr(oldContent), NewContent: ptr(newContent)}
		case inDest:
			commit.Changes[path] = Change{Kind: ActionAdd, NewContent: ptr(newContent)}
		case inOrig:
			commit.Changes[path] = Change{Kind: ActionDelete, OldContent: ptr(oldContent)}
		default:
			return nil, newError(KindMaterialize, path, 0, "path %s is in neither snapshot", path)
		}
	}
	return commit, nil
}

// RenderPatch renders a Commit as patch text. Update bodies are emitted as a single
// full-context section computed from a line diff, so the result parses back against
// the original snapshot with zero fuzz.
func RenderPatch(c *Commit) (string, error) {
	if c == nil {
		return "", newError(KindMaterialize, "", 0, "nil commit")
	}
	out := []string{beginPatch}
	for _, path := range c.Paths() {
		change := c.Changes[path]
		switch change.Kind {
		case ActionDelete:
			out = append(out, deleteFilePrefix+path)
		case ActionAdd:
			out = append(out, addFilePrefix+path)
			if change.NewContent != nil && *change.NewContent != "" {
				for _, line := range strings.Split(*change.NewContent, "\n") {
					out = append(out, "+"+line)
				}
			}
		case ActionUpdate:
			if change.OldContent == nil || change.NewContent == nil {
				return "", newError(KindMaterialize, path, 0, "update for %s is missing old or new content", path)
			}
			out = append(out, updateFilePrefix+path)
			if change.MovePath != "" {
				out = append(out, moveToPrefix+change.MovePath)
			}
			if *change.OldContent != *change.NewContent {
				out = append(out, diffBody(*change.OldContent, *change.NewContent)...)
			}
		default:
			return "", newError(KindMaterialize, path, 0, "unsupported change for %s: %s", path, change.Kind)
		}
	}
	out = append(out, endPatch)
	return strings.Join(out, "\n") + "\n", nil
}

// diffBody produces " ", "-" and "+" prefixed lines describing how oldText becomes
// newText. Lines are split exactly the way the parser splits file content.
func diffBody(oldText, newText string) []string {
	table := newLineTable()
	oldRunes := table.encode(strings.Split(oldText, "\n"))
	newRunes := table.encode(strings.Split(newText, "\n"))

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)

	var body []string
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, r := range d.Text {
			body = append(body, prefix+table.decode(r))
		}
	}
	return body
}

// lineTable assigns every distinct line a rune so lines can be diffed as characters.
type lineTable struct {
	runes map[string]rune
	lines map[rune]string
}

func newLineTable() *lineTable {
	return &lineTable{runes: make(map[string]rune), lines: make(map[rune]string)}
}

func (t *lineTable) encode(lines []string) []rune {
	out := make([]rune, len(lines))
	for i, line := range lines {
		r, ok := t.runes[line]
		if !ok {
			r = indexRune(len(t.runes))
			t.runes[line] = r
			t.lines[r] = line
		}
		out[i] = r
	}
	return out
}

func (t *lineTable) decode(r rune) string {
	return t.lines[r]
}

// indexRune maps a line number to a rune that survives a round trip through a Go
// string, skipping the surrogate range.
func indexRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}
