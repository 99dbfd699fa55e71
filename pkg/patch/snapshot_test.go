package patch

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestDiffSnapshotsClassifiesPaths(t *testing.T) {
	t.Parallel()

	orig := map[string]string{"a.txt": "one", "gone.txt": "bye", "same.txt": "x", "empty.txt": ""}
	dest := map[string]string{"a.txt": "two", "new.txt": "hello", "same.txt": "x", "blank.txt": ""}

	commit, err := DiffSnapshots(orig, dest)
	if err != nil {
		t.Fatalf("DiffSnapshots returned error: %v", err)
	}
	if got, want := commit.Paths(), []string{"a.txt", "blank.txt", "empty.txt", "gone.txt", "new.txt"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("paths = %#v, want %#v", got, want)
	}

	kinds := map[string]ActionKind{
		"a.txt":     ActionUpdate,
		"blank.txt": ActionAdd,
		"empty.txt": ActionDelete,
		"gone.txt":  ActionDelete,
		"new.txt":   ActionAdd,
	}
	for path, kind := range kinds {
		if got := commit.Changes[path].Kind; got != kind {
			t.Fatalf("%s kind = %s, want %s", path, got, kind)
		}
	}
	if c := commit.Changes["a.txt"]; *c.OldContent != "one" || *c.NewContent != "two" {
		t.Fatalf("unexpected update change: %#v", c)
	}
}

func TestRenderPatchRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		orig map[string]string
		dest map[string]string
	}{
		{
			name: "mixed changes",
			orig: map[string]string{"a.txt": "one\ntwo\nthree\n", "gone.txt": "bye", "same.txt": "x"},
			dest: map[string]string{"a.txt": "one\n2\nthree\nfour\n", "new.txt": "hello\nworld", "same.txt": "x"},
		},
		{
			name: "empty to content",
			orig: map[string]string{"f": ""},
			dest: map[string]string{"f": "x"},
		},
		{
			name: "content to empty",
			orig: map[string]string{"f": "a\nb"},
			dest: map[string]string{"f": ""},
		},
		{
			name: "trailing newline added",
			orig: map[string]string{"f": "a\nb"},
			dest: map[string]string{"f": "a\nb\n"},
		},
		{
			name: "repeated and blank lines",
			orig: map[string]string{"f": "x\n\nx\n\nx\n"},
			dest: map[string]string{"f": "x\n\ny\n\nx\n\n"},
		},
		{
			name: "lines that look like directives",
			orig: map[string]string{"f": "*** End Patch\n@@ anchor\n+plus"},
			dest: map[string]string{"f": "@@ anchor\n-minus\n*** End Patch", "g": "*** Add File: nope\n"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			commit, err := DiffSnapshots(tc.orig, tc.dest)
			if err != nil {
				t.Fatalf("DiffSnapshots returned error: %v", err)
			}
			text, err := RenderPatch(commit)
			if err != nil {
				t.Fatalf("RenderPatch returned error: %v", err)
			}

			reparsed, p, err := ParseAndMaterialize(text, tc.orig)
			if err != nil {
				t.Fatalf("ParseAndMaterialize returned error: %v\n%s", err, text)
			}
			if p.Fuzz != 0 {
				t.Fatalf("fuzz = %d, want 0\n%s", p.Fuzz, text)
			}
			for path, change := range reparsed.Changes {
				if change.Kind == ActionDelete {
					continue
				}
				if got, want := *change.NewContent, tc.dest[path]; got != want {
					t.Fatalf("%s content = %q, want %q\n%s", path, got, want, text)
				}
			}

			applied, _, err := ApplyMemoryPatch(context.Background(), text, tc.orig)
			if err != nil {
				t.Fatalf("ApplyMemoryPatch returned error: %v", err)
			}
			if !reflect.DeepEqual(applied, tc.dest) {
				t.Fatalf("applied snapshot = %#v, want %#v", applied, tc.dest)
			}
		})
	}
}

func TestRenderPatchIncludesMove(t *testing.T) {
	t.Parallel()

	commit := &Commit{Changes: map[string]Change{
		"old.txt": {Kind: ActionUpdate, OldContent: ptr("a"), NewContent: ptr("a"), MovePath: "new.txt"},
	}}
	text, err := RenderPatch(commit)
	if err != nil {
		t.Fatalf("RenderPatch returned error: %v", err)
	}
	want := "*** Begin Patch\n*** Update File: old.txt\n*** Move to: new.txt\n*** End Patch\n"
	if text != want {
		t.Fatalf("RenderPatch() = %q, want %q", text, want)
	}
	if !strings.Contains(text, "*** Move to: new.txt") {
		t.Fatalf("missing move directive")
	}
}

func TestRenderPatchRequiresUpdateContent(t *testing.T) {
	t.Parallel()

	commit := &Commit{Changes: map[string]Change{"f": {Kind: ActionUpdate, NewContent: ptr("x")}}}
	if _, err := RenderPatch(commit); !IsKind(err, KindMaterialize) {
		t.Fatalf("expected materialize error, got %v", err)
	}
}
