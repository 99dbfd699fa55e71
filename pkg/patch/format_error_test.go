package patch

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatErrorIncludesLocationAndSection(t *testing.T) {
	t.Parallel()

	err := &DiffError{
		Kind:    KindResolution,
		Message: "could not find context in src/app.go",
		Path:    "src/app.go",
		Line:    7,
		Section: []string{"func main() {", "\tfmt.Println(1)"},
	}

	formatted := FormatError(err)
	for _, want := range []string{
		"could not find context in src/app.go",
		"At file ./src/app.go, patch line 7.",
		"Offending section:",
		"\tfmt.Println(1)",
	} {
		if !strings.Contains(formatted, want) {
			t.Fatalf("expected %q in:\n%s", want, formatted)
		}
	}
}

func TestFormatErrorMarksEndOfFileSections(t *testing.T) {
	t.Parallel()

	formatted := FormatError(&DiffError{Kind: KindResolution, Message: "x", Section: []string{"tail"}, EOF: true})
	if !strings.Contains(formatted, "anchored at end of file") {
		t.Fatalf("expected end of file marker in:\n%s", formatted)
	}
	if strings.Contains(formatted, "At ") {
		t.Fatalf("unexpected location in:\n%s", formatted)
	}
}

func TestFormatErrorFallbacks(t *testing.T) {
	t.Parallel()

	if got := FormatError(nil); got != "Unknown error occurred." {
		t.Fatalf("FormatError(nil) = %q", got)
	}
	if got := FormatError(errors.New("boom")); got != "boom" {
		t.Fatalf("FormatError(plain) = %q", got)
	}
}

func TestFormatErrorFromParse(t *testing.T) {
	t.Parallel()

	_, err := Parse(patchText("*** Update File: a.txt", "@@", "-nope", "+x"), map[string]string{"a.txt": "a"})
	formatted := FormatError(err)
	if !strings.Contains(formatted, "At file ./a.txt, patch line 4.") || !strings.Contains(formatted, "nope") {
		t.Fatalf("unexpected formatted error:\n%s", formatted)
	}
}
