package patch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestApplyFilesystemUpdatesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "foo.txt"), []byte("one\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	text := patchText(
		"*** Update File: foo.txt",
		"@@",
		"-one",
		"+two",
	)
	result, err := ApplyFilesystemPatch(context.Background(), text, dir)
	if err != nil {
		t.Fatalf("ApplyFilesystemPatch returned error: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Status != "M" {
		t.Fatalf("unexpected results: %#v", result.Files)
	}
	content, err := os.ReadFile(filepath.Join(dir, "foo.txt"))
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(content) != "two\n" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestApplyFilesystemAddsAndMovesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	text := patchText(
		"*** Add File: deep/dir/new.txt",
		"+fresh",
		"*** Update File: old.txt",
		"*** Move to: nested/moved.txt",
		"@@",
		"-hello",
		"+world",
	)
	result, err := ApplyFilesystemPatch(context.Background(), text, dir)
	if err != nil {
		t.Fatalf("ApplyFilesystemPatch returned error: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("unexpected results: %#v", result.Files)
	}
	if entry := result.Files[1]; entry.Path != "old.txt" || entry.MovePath != "nested/moved.txt" {
		t.Fatalf("unexpected result entry: %#v", entry)
	}

	content, err := os.ReadFile(filepath.Join(dir, "nested", "moved.txt"))
	if err != nil {
		t.Fatalf("failed to read moved file: %v", err)
	}
	if string(content) != "world" {
		t.Fatalf("unexpected moved content: %q", content)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected old.txt to be removed, stat err = %v", err)
	}
	added, err := os.ReadFile(filepath.Join(dir, "deep", "dir", "new.txt"))
	if err != nil {
		t.Fatalf("failed to read added file: %v", err)
	}
	if string(added) != "fresh" {
		t.Fatalf("unexpected added content: %q", added)
	}
}

func TestApplyFilesystemKeepsPermissions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(path, []byte("a"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	text := patchText("*** Update File: secret.txt", "@@", "-a", "+b")
	if _, err := ApplyFilesystemPatch(context.Background(), text, dir); err != nil {
		t.Fatalf("ApplyFilesystemPatch returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("permissions = %o, want 600", perm)
	}
}

func TestApplyFilesystemMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	text := patchText("*** Delete File: nope.txt")
	if _, err := ApplyFilesystemPatch(context.Background(), text, dir); !IsKind(err, KindReference) {
		t.Fatalf("expected reference error, got %v", err)
	}
}

func TestFilesystemWorkspaceRejectsDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	ws, err := NewFilesystemWorkspace(dir)
	if err != nil {
		t.Fatalf("NewFilesystemWorkspace returned error: %v", err)
	}
	if _, err := ws.Read("sub"); err == nil {
		t.Fatalf("expected error reading a directory")
	}
	if err := ws.Delete("sub"); err == nil {
		t.Fatalf("expected error deleting a directory")
	}
	if _, err := ws.Read("  "); err == nil {
		t.Fatalf("expected error for blank path")
	}
}
