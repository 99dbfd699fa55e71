package patch

import (
	"fmt"
	"strings"
)

// Materialize resolves a parsed patch into a Commit holding the final content of
// every touched path. It is all-or-nothing: any failure returns no Commit.
func Materialize(p *Patch, files map[string]string) (*Commit, error) {
	if p == nil {
		return nil, newError(KindMaterialize, "", 0, "nil patch")
	}
	commit := &Commit{Changes: make(map[string]Change, len(p.Actions))}
	for _, path := range p.Paths() {
		action := p.Actions[path]
		if action == nil {
			return nil, newError(KindMaterialize, path, 0, "missing action for %s", path)
		}
		switch action.Kind {
		case ActionDelete:
			original, ok := files[path]
			if !ok {
				return nil, newError(KindReference, path, 0, "delete file error: missing file: %s", path)
			}
			commit.Changes[path] = Change{Kind: ActionDelete, OldContent: ptr(original)}
		case ActionAdd:
			if action.NewFile == nil {
				return nil, newError(KindMaterialize, path, 0, "add file error: no content for %s", path)
			}
			commit.Changes[path] = Change{Kind: ActionAdd, NewContent: ptr(*action.NewFile)}
		case ActionUpdate:
			original, ok := files[path]
			if !ok {
				return nil, newError(KindReference, path, 0, "update file error: missing file: %s", path)
			}
			updated, err := updatedContent(path, original, action.Chunks)
			if err != nil {
				return nil, err
			}
			commit.Changes[path] = Change{
				Kind:       ActionUpdate,
				OldContent: ptr(original),
				NewContent: ptr(updated),
				MovePath:   action.MovePath,
			}
		default:
			return nil, newError(KindMaterialize, path, 0, "unsupported action for %s: %s", path, action.Kind)
		}
	}
	return commit, nil
}

// ParseAndMaterialize parses text against files and materializes the result.
func ParseAndMaterialize(text string, files map[string]string) (*Commit, *Patch, error) {
	p, err := Parse(text, files)
	if err != nil {
		return nil, nil, err
	}
	commit, err := Materialize(p, files)
	if err != nil {
		return nil, nil, err
	}
	return commit, p, nil
}

// updatedContent replays chunks against the original lines.
func updatedContent(path, original string, chunks []Chunk) (string, error) {
	origLines := strings.Split(original, "\n")
	destLines := make([]string, 0, len(origLines))
	origIndex, destIndex := 0, 0

	for _, chunk := range chunks {
		if chunk.OrigIndex > len(origLines) {
			return "", newError(KindMaterialize, path, 0, "%s: chunk index %d exceeds file length %d", path, chunk.OrigIndex, len(origLines))
		}
		if origIndex > chunk.OrigIndex {
			return "", newError(KindMaterialize, path, 0, "%s: chunk index %d precedes current position %d", path, chunk.OrigIndex, origIndex)
		}
		destLines = append(destLines, origLines[origIndex:chunk.OrigIndex]...)
		delta := chunk.OrigIndex - origIndex
		origIndex += delta
		destIndex += delta

		destLines = append(destLines, chunk.InsLines...)
		destIndex += len(chunk.InsLines)
		origIndex += len(chunk.DelLines)
	}

	if origIndex <= len(origLines) {
		tail := origLines[origIndex:]
		destLines = append(destLines, tail...)
		destIndex += len(tail)
		origIndex += len(tail)
	}
	if origIndex != len(origLines) || destIndex != len(destLines) {
		return "", &DiffError{
			Kind:    KindMaterialize,
			Path:    path,
			Message: fmt.Sprintf("%s: chunk accounting mismatch: consumed %d of %d original lines, wrote %d of %d destination lines", path, origIndex, len(origLines), destIndex, len(destLines)),
		}
	}
	return strings.Join(destLines, "\n"), nil
}
