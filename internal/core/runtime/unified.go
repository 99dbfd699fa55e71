package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	gitdiff "github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/asynkron/applypatch/pkg/patch"
)

// ErrUnsupportedDiff reports git diff features that have no patch equivalent.
var ErrUnsupportedDiff = errors.New("unsupported unified diff")

// ImportUnifiedDiff applies a git-style unified diff to the files it names and
// returns the equivalent commit, so it can be rendered as patch text with
// patch.RenderPatch. Original content is read through r.
func ImportUnifiedDiff(ctx context.Context, diffText string, r patch.Reader) (*patch.Commit, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(diffText))
	if err != nil {
		return nil, fmt.Errorf("parse unified diff: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: diff contains no files", ErrUnsupportedDiff)
	}

	orig := make(map[string]string)
	dest := make(map[string]string)
	moves := make(map[string]string)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file.IsBinary {
			return nil, fmt.Errorf("%w: binary change to %s", ErrUnsupportedDiff, displayName(file))
		}
		if file.IsCopy {
			return nil, fmt.Errorf("%w: copy of %s", ErrUnsupportedDiff, file.OldName)
		}

		var current string
		if !file.IsNew {
			if _, seen := orig[file.OldName]; seen {
				return nil, fmt.Errorf("%w: %s changed twice", ErrUnsupportedDiff, file.OldName)
			}
			current, err = r.Read(file.OldName)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", file.OldName, err)
			}
			orig[file.OldName] = current
		}

		var buf bytes.Buffer
		if err := gitdiff.Apply(&buf, strings.NewReader(current), file); err != nil {
			return nil, wrapGitDiffError(displayName(file), err)
		}

		switch {
		case file.IsDelete:
		case file.IsNew:
			dest[file.NewName] = buf.String()
		case file.IsRename:
			dest[file.OldName] = buf.String()
			moves[file.OldName] = file.NewName
		default:
			dest[file.OldName] = buf.String()
		}
	}

	commit, err := patch.DiffSnapshots(orig, dest)
	if err != nil {
		return nil, err
	}
	for from, to := range moves {
		change, ok := commit.Changes[from]
		if !ok {
			content := orig[from]
			change = patch.Change{Kind: patch.ActionUpdate, OldContent: &content, NewContent: &content}
		}
		change.MovePath = to
		commit.Changes[from] = change
	}
	return commit, nil
}

func displayName(file *gitdiff.File) string {
	if file.NewName != "" {
		return file.NewName
	}
	return file.OldName
}

func wrapGitDiffError(name string, err error) error {
	// ApplyError wraps conflicts, so they are matched first.
	if errors.Is(err, &gitdiff.Conflict{}) {
		return fmt.Errorf("unified diff does not match %s: %w", name, err)
	}
	var applyErr *gitdiff.ApplyError
	if errors.As(err, &applyErr) {
		return fmt.Errorf("apply unified diff to %s: %w", name, applyErr)
	}
	return err
}
