package patch

import (
	"context"
	"fmt"
)

// ApplyMemoryPatch parses a raw patch payload and applies it to an in-memory map of
// files. The provided map is copied before mutation and the updated snapshot is
// returned.
func ApplyMemoryPatch(ctx context.Context, patchBody string, files map[string]string) (map[string]string, *Result, error) {
	ws := NewMemoryWorkspace(files)
	result, err := Process(ctx, patchBody, ws)
	if err != nil {
		return nil, nil, err
	}
	return ws.Files(), result, nil
}

// MemoryWorkspace is a Workspace backed by a path to content map.
type MemoryWorkspace struct {
	files map[string]string
}

// NewMemoryWorkspace copies files into a new workspace.
func NewMemoryWorkspace(files map[string]string) *MemoryWorkspace {
	return &MemoryWorkspace{files: copyFiles(files)}
}

// Read returns the content stored at path.
func (ws *MemoryWorkspace) Read(path string) (string, error) {
	content, ok := ws.files[path]
	if !ok {
		return "", fmt.Errorf("%s: file does not exist", path)
	}
	return content, nil
}

// Write stores content at path.
func (ws *MemoryWorkspace) Write(path, content string) error {
	if path == "" {
		return fmt.Errorf("invalid patch path")
	}
	ws.files[path] = content
	return nil
}

// Delete removes path.
func (ws *MemoryWorkspace) Delete(path string) error {
	if _, ok := ws.files[path]; !ok {
		return fmt.Errorf("failed to delete file %s", path)
	}
	delete(ws.files, path)
	return nil
}

// Files returns a copy of the current contents.
func (ws *MemoryWorkspace) Files() map[string]string {
	return copyFiles(ws.files)
}

func copyFiles(files map[string]string) map[string]string {
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		snapshot[k] = v
	}
	return snapshot
}
