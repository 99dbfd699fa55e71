package patch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a DiffError.
type ErrorKind string

const (
	// KindEnvelope reports missing or misplaced Begin/End sentinels.
	KindEnvelope ErrorKind = "envelope"
	// KindDirective reports unrecognized directive lines and duplicate paths.
	KindDirective ErrorKind = "directive"
	// KindReference reports Update/Delete directives naming a file that was not supplied.
	KindReference ErrorKind = "reference"
	// KindGrammar reports malformed Add File bodies and chunk sections.
	KindGrammar ErrorKind = "grammar"
	// KindResolution reports context that could not be located in the original file.
	KindResolution ErrorKind = "resolution"
	// KindMaterialize reports chunk accounting failures while building a Commit.
	KindMaterialize ErrorKind = "materialize"
)

// DiffError is the single failure type returned by the engine. Every failure aborts
// the current call; no partial Commit is ever produced.
type DiffError struct {
	Kind    ErrorKind
	Message string
	// Path is the file the failure relates to, when known.
	Path string
	// Line is the 1-based line of the patch text where the failure was detected,
	// or zero when the failure is not tied to a patch line.
	Line int
	// Section holds the context lines of a section that could not be resolved.
	Section []string
	// EOF reports whether the unresolved section was anchored at end of file.
	EOF bool
}

// Error implements the error interface.
func (e *DiffError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return "patch error"
}

func newError(kind ErrorKind, path string, line int, format string, args ...any) *DiffError {
	return &DiffError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
		Line:    line,
	}
}

// IsKind reports whether err is a *DiffError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DiffError
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == kind
}

// FormatError renders an error into a message suitable for surfacing to end users.
// DiffError values include their position and, for resolution failures, the section
// that could not be located.
func FormatError(err error) string {
	if err == nil {
		return "Unknown error occurred."
	}
	var de *DiffError
	if !errors.As(err, &de) {
		return err.Error()
	}
	message := de.Message
	if message == "" {
		message = "Unknown error occurred."
	}
	parts := []string{message}

	var location []string
	if de.Path != "" {
		displayPath := de.Path
		if !strings.HasPrefix(displayPath, "./") && !strings.HasPrefix(displayPath, "/") {
			displayPath = "./" + displayPath
		}
		location = append(location, "file "+displayPath)
	}
	if de.Line > 0 {
		location = append(location, fmt.Sprintf("patch line %d", de.Line))
	}
	if len(location) > 0 {
		parts = append(parts, "", fmt.Sprintf("At %s.", strings.Join(location, ", ")))
	}
	if len(de.Section) > 0 {
		header := "Offending section:"
		if de.EOF {
			header = "Offending section (anchored at end of file):"
		}
		parts = append(parts, "", header, strings.Join(de.Section, "\n"))
	}
	return strings.Join(parts, "\n")
}
