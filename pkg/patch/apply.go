package patch

import (
	"context"
	"fmt"
)

// WriteFunc writes content to path, creating parent directories as needed.
type WriteFunc func(path, content string) error

// DeleteFunc removes the file at path.
type DeleteFunc func(path string) error

// Reader returns the current content of a path and fails if it does not exist.
type Reader interface {
	Read(path string) (string, error)
}

// Workspace is the storage a patch is read from and applied to.
type Workspace interface {
	Reader
	Write(path, content string) error
	Delete(path string) error
}

// FileResult describes the outcome for a single path of an applied Commit.
type FileResult struct {
	Status   string
	Path     string
	MovePath string
}

// Result summarizes an applied patch.
type Result struct {
	Fuzz  int
	Files []FileResult
}

// Apply writes a Commit through the supplied collaborators, visiting paths in
// Commit.Paths order. Deletes call remove, adds and updates call write, and renamed
// updates write the move target before removing the original path. The first
// collaborator error stops the walk.
func Apply(c *Commit, write WriteFunc, remove DeleteFunc) error {
	if c == nil {
		return newError(KindMaterialize, "", 0, "nil commit")
	}
	if write == nil || remove == nil {
		return newError(KindMaterialize, "", 0, "apply requires write and delete functions")
	}
	for _, path := range c.Paths() {
		change := c.Changes[path]
		switch change.Kind {
		case ActionDelete:
			if err := remove(path); err != nil {
				return fmt.Errorf("delete %s: %w", path, err)
			}
		case ActionAdd, ActionUpdate:
			if change.NewContent == nil {
				return newError(KindMaterialize, path, 0, "%s change for %s has no content", change.Kind, path)
			}
			target := path
			if change.Kind == ActionUpdate && change.MovePath != "" {
				target = change.MovePath
			}
			if err := write(target, *change.NewContent); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			if target != path {
				if err := remove(path); err != nil {
					return fmt.Errorf("delete %s after move: %w", path, err)
				}
			}
		default:
			return newError(KindMaterialize, path, 0, "unsupported change for %s: %s", path, change.Kind)
		}
	}
	return nil
}

// LoadFiles reads every path referenced by an Update or Delete directive of text,
// once each. A failed read aborts with a reference error naming the path.
func LoadFiles(ctx context.Context, text string, r Reader) (map[string]string, error) {
	if r == nil {
		return nil, newError(KindReference, "", 0, "nil reader")
	}
	files := make(map[string]string)
	for _, path := range FilesReferenced(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := r.Read(path)
		if err != nil {
			return nil, &DiffError{Kind: KindReference, Path: path, Message: fmt.Sprintf("failed to read %s: %v", path, err)}
		}
		files[path] = content
	}
	return files, nil
}

// Prepare loads the referenced files from r, parses text and materializes the Commit
// without writing anything.
func Prepare(ctx context.Context, text string, r Reader) (*Commit, *Patch, error) {
	files, err := LoadFiles(ctx, text, r)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return ParseAndMaterialize(text, files)
}

// Process parses text against the workspace and applies the resulting Commit.
func Process(ctx context.Context, text string, ws Workspace) (*Result, error) {
	if ws == nil {
		return nil, newError(KindReference, "", 0, "nil workspace")
	}
	commit, p, err := Prepare(ctx, text, ws)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := Apply(commit, ws.Write, ws.Delete); err != nil {
		return nil, err
	}
	return Summarize(commit, p.Fuzz), nil
}

// Summarize describes a Commit as per-path results in Commit.Paths order.
func Summarize(c *Commit, fuzz int) *Result {
	result := &Result{Fuzz: fuzz}
	for _, path := range c.Paths() {
		change := c.Changes[path]
		result.Files = append(result.Files, FileResult{
			Status:   change.Kind.Status(),
			Path:     path,
			MovePath: change.MovePath,
		})
	}
	return result
}
