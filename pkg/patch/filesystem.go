package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ApplyFilesystemPatch parses a raw patch payload and applies it to the filesystem
// rooted at workingDir (the process working directory when empty).
func ApplyFilesystemPatch(ctx context.Context, patchBody, workingDir string) (*Result, error) {
	ws, err := NewFilesystemWorkspace(workingDir)
	if err != nil {
		return nil, err
	}
	return Process(ctx, patchBody, ws)
}

// FilesystemWorkspace reads and writes files relative to a working directory.
type FilesystemWorkspace struct {
	workingDir string
}

// NewFilesystemWorkspace returns a workspace rooted at workingDir.
func NewFilesystemWorkspace(workingDir string) (*FilesystemWorkspace, error) {
	workingDir = strings.TrimSpace(workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workingDir = wd
	}
	if abs, err := filepath.Abs(workingDir); err == nil {
		workingDir = abs
	}
	return &FilesystemWorkspace{workingDir: workingDir}, nil
}

// WorkingDir returns the absolute root of the workspace.
func (ws *FilesystemWorkspace) WorkingDir() string {
	return ws.workingDir
}

// Read returns the content of path.
func (ws *FilesystemWorkspace) Read(path string) (string, error) {
	abs, rel, err := ws.resolvePath(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: file does not exist", rel)
		}
		return "", fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", rel)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return string(content), nil
}

// Write stores content at path, creating parent directories and keeping the
// permissions of a file that already exists.
func (ws *FilesystemWorkspace) Write(path, content string) error {
	abs, rel, err := ws.resolvePath(path)
	if err != nil {
		return err
	}
	perm := fs.FileMode(0o644)
	if info, statErr := os.Stat(abs); statErr == nil {
		if info.IsDir() {
			return fmt.Errorf("cannot write %s: is a directory", rel)
		}
		if mode := info.Mode() & fs.ModePerm; mode != 0 {
			perm = mode
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Delete removes the file at path.
func (ws *FilesystemWorkspace) Delete(path string) error {
	abs, rel, err := ws.resolvePath(path)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		return fmt.Errorf("failed to delete file %s", rel)
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", rel, err)
	}
	return nil
}

func (ws *FilesystemWorkspace) resolvePath(relative string) (string, string, error) {
	rel := strings.TrimSpace(relative)
	if rel == "" {
		return "", "", errors.New("invalid patch path")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return cleaned, cleaned, nil
	}
	return filepath.Join(ws.workingDir, cleaned), cleaned, nil
}
