package patch

import (
	"context"
	"testing"
)

func TestApplyMemoryPatchCopiesInput(t *testing.T) {
	t.Parallel()

	initial := map[string]string{"file.txt": "alpha"}
	text := patchText("*** Update File: file.txt", "@@", "-alpha", "+beta")

	updated, result, err := ApplyMemoryPatch(context.Background(), text, initial)
	if err != nil {
		t.Fatalf("ApplyMemoryPatch returned error: %v", err)
	}
	if updated["file.txt"] != "beta" {
		t.Fatalf("unexpected updated value: %q", updated["file.txt"])
	}
	if initial["file.txt"] != "alpha" {
		t.Fatalf("initial map mutated: %q", initial["file.txt"])
	}
	if len(result.Files) != 1 || result.Files[0].Status != "M" {
		t.Fatalf("unexpected results: %#v", result.Files)
	}
}

func TestMemoryWorkspaceDeleteMissing(t *testing.T) {
	t.Parallel()

	ws := NewMemoryWorkspace(map[string]string{})
	if err := ws.Delete("missing.txt"); err == nil {
		t.Fatalf("expected error when deleting missing file")
	}
	if _, err := ws.Read("missing.txt"); err == nil {
		t.Fatalf("expected error when reading missing file")
	}
}

func TestMemoryWorkspaceFilesIsACopy(t *testing.T) {
	t.Parallel()

	ws := NewMemoryWorkspace(map[string]string{"a": "1"})
	snapshot := ws.Files()
	snapshot["a"] = "changed"
	if content, _ := ws.Read("a"); content != "1" {
		t.Fatalf("workspace mutated through snapshot: %q", content)
	}
	if err := ws.Write("", "x"); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
