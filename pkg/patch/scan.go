package patch

import "strings"

type editMode int

const (
	modeKeep editMode = iota
	modeDelete
	modeInsert
)

// section is the result of scanning one chunk section of an Update body. Chunk
// offsets are relative to context until the section has been located in the file.
type section struct {
	context []string
	chunks  []Chunk
	next    int
	eof     bool
}

// sectionTerminators end a section without being consumed (except End of File,
// which the scanner consumes and records).
var sectionTerminators = []string{
	"@@",
	endPatch,
	updateFilePrefix,
	deleteFilePrefix,
	addFilePrefix,
	endOfFile,
}

// scanSection classifies patch lines starting at start until a terminator is reached.
// It never mutates shared state: the returned section carries the next index.
func scanSection(src source, start int) (section, error) {
	var (
		old     []string
		deleted []string
		added   []string
		chunks  []Chunk
		mode    = modeKeep
		index   = start
	)

	closeChunk := func() {
		if len(deleted) == 0 && len(added) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			OrigIndex: len(old) - len(deleted),
			DelLines:  deleted,
			InsLines:  added,
		})
		deleted = nil
		added = nil
	}

	for index < len(src.lines) {
		line := src.lines[index]
		if hasAnyPrefix(line, sectionTerminators) || line == "***" {
			break
		}
		if strings.HasPrefix(line, "***") {
			return section{}, newError(KindGrammar, "", src.lineNumber(index), "invalid line in update section: %q", line)
		}
		index++

		if line == "" {
			line = " "
		}
		lastMode := mode
		switch line[0] {
		case '+':
			mode = modeInsert
		case '-':
			mode = modeDelete
		case ' ':
			mode = modeKeep
		default:
			return section{}, newError(KindGrammar, "", src.lineNumber(index-1), "invalid line in update section: %q", line)
		}
		text := line[1:]

		if mode == modeKeep && lastMode != modeKeep {
			closeChunk()
		}
		switch mode {
		case modeDelete:
			deleted = append(deleted, text)
			old = append(old, text)
		case modeInsert:
			added = append(added, text)
		default:
			old = append(old, text)
		}
	}
	closeChunk()

	if index < len(src.lines) && src.lines[index] == endOfFile {
		return section{context: old, chunks: chunks, next: index + 1, eof: true}, nil
	}
	if index == start {
		at := ""
		if index < len(src.lines) {
			at = src.lines[index]
		}
		return section{}, newError(KindGrammar, "", src.lineNumber(index), "nothing in this section: %q", at)
	}
	return section{context: old, chunks: chunks, next: index}, nil
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
