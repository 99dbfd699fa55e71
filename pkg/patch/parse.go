package patch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const (
	beginPatch       = "*** Begin Patch"
	endPatch         = "*** End Patch"
	updateFilePrefix = "*** Update File: "
	deleteFilePrefix = "*** Delete File: "
	addFilePrefix    = "*** Add File: "
	moveToPrefix     = "*** Move to: "
	endOfFile        = "*** End of File"
	anchorPrefix     = "@@ "
	bareAnchor       = "@@"
)

var (
	updateTerminators = []string{endPatch, updateFilePrefix, deleteFilePrefix, addFilePrefix, endOfFile}
	addTerminators    = []string{endPatch, updateFilePrefix, deleteFilePrefix, addFilePrefix}
)

// source holds the patch lines together with the number of lines trimmed from the
// front of the original text, so errors can report positions in the caller's text.
type source struct {
	lines  []string
	offset int
}

func newSource(text string) source {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	left := strings.TrimLeftFunc(normalized, unicode.IsSpace)
	offset := strings.Count(normalized[:len(normalized)-len(left)], "\n")
	trimmed := strings.TrimRightFunc(left, unicode.IsSpace)
	return source{lines: strings.Split(trimmed, "\n"), offset: offset}
}

func (s source) lineNumber(index int) int {
	return s.offset + index + 1
}

// cursor is the parser position threaded through every parsing step.
type cursor struct {
	index int
	fuzz  int
}

// Parse converts the textual representation of a patch into a Patch, resolving every
// Update section against the matching entry of files. files must contain every path
// named by an Update or Delete directive; FilesReferenced lists them.
func Parse(text string, files map[string]string) (*Patch, error) {
	src := newSource(text)
	if len(src.lines) < 2 || src.lines[0] != beginPatch || src.lines[len(src.lines)-1] != endPatch {
		return nil, newError(KindEnvelope, "", 0, "invalid patch text: must start with %q and end with %q", beginPatch, endPatch)
	}
	if err := checkDuplicatePaths(src); err != nil {
		return nil, err
	}

	p := &Patch{Actions: make(map[string]*PatchAction)}
	cur := cursor{index: 1}
	for cur.index < len(src.lines) && !strings.HasPrefix(src.lines[cur.index], endPatch) {
		line := src.lines[cur.index]
		var err error
		switch {
		case strings.HasPrefix(line, updateFilePrefix):
			cur, err = parseUpdateDirective(src, cur, files, p)
		case strings.HasPrefix(line, deleteFilePrefix):
			cur, err = parseDeleteDirective(src, cur, files, p)
		case strings.HasPrefix(line, addFilePrefix):
			cur, err = parseAddDirective(src, cur, p)
		case strings.TrimSpace(line) == "":
			cur.index++
		default:
			err = newError(KindDirective, "", src.lineNumber(cur.index), "unknown line: %q", line)
		}
		if err != nil {
			return nil, err
		}
	}

	if cur.index >= len(src.lines) || !strings.HasPrefix(src.lines[cur.index], endPatch) {
		return nil, newError(KindEnvelope, "", src.lineNumber(cur.index), "missing %q", endPatch)
	}
	p.Fuzz = cur.fuzz
	return p, nil
}

// checkDuplicatePaths reports the first path named by two directives before any
// section is resolved.
func checkDuplicatePaths(src source) error {
	directives := []struct {
		prefix string
		kind   ActionKind
	}{
		{updateFilePrefix, ActionUpdate},
		{deleteFilePrefix, ActionDelete},
		{addFilePrefix, ActionAdd},
	}
	seen := make(map[string]struct{})
	for i := 1; i < len(src.lines) && !strings.HasPrefix(src.lines[i], endPatch); i++ {
		for _, d := range directives {
			if !strings.HasPrefix(src.lines[i], d.prefix) {
				continue
			}
			path := strings.TrimSpace(strings.TrimPrefix(src.lines[i], d.prefix))
			if path == "" {
				break
			}
			if _, exists := seen[path]; exists {
				return newError(KindDirective, path, src.lineNumber(i), "%s file error: duplicate path: %s", d.kind, path)
			}
			seen[path] = struct{}{}
			break
		}
	}
	return nil
}

func directivePath(src source, index int, prefix string, kind ActionKind, p *Patch) (string, error) {
	path := strings.TrimSpace(strings.TrimPrefix(src.lines[index], prefix))
	if path == "" {
		return "", newError(KindDirective, "", src.lineNumber(index), "%s file directive is missing a path", kind)
	}
	if _, exists := p.Actions[path]; exists {
		return "", newError(KindDirective, path, src.lineNumber(index), "%s file error: duplicate path: %s", kind, path)
	}
	return path, nil
}

func parseUpdateDirective(src source, cur cursor, files map[string]string, p *Patch) (cursor, error) {
	directiveLine := cur.index
	path, err := directivePath(src, cur.index, updateFilePrefix, ActionUpdate, p)
	if err != nil {
		return cur, err
	}
	cur.index++

	var movePath string
	if cur.index < len(src.lines) && strings.HasPrefix(src.lines[cur.index], moveToPrefix) {
		movePath = strings.TrimSpace(strings.TrimPrefix(src.lines[cur.index], moveToPrefix))
		cur.index++
	}

	content, ok := files[path]
	if !ok {
		return cur, newError(KindReference, path, src.lineNumber(directiveLine), "update file error: missing file: %s", path)
	}

	action, cur, err := parseUpdateBody(src, cur, path, content)
	if err != nil {
		return cur, err
	}
	action.MovePath = movePath
	p.Actions[path] = action
	return cur, nil
}

func parseDeleteDirective(src source, cur cursor, files map[string]string, p *Patch) (cursor, error) {
	path, err := directivePath(src, cur.index, deleteFilePrefix, ActionDelete, p)
	if err != nil {
		return cur, err
	}
	if _, ok := files[path]; !ok {
		return cur, newError(KindReference, path, src.lineNumber(cur.index), "delete file error: missing file: %s", path)
	}
	p.Actions[path] = &PatchAction{Kind: ActionDelete}
	cur.index++
	return cur, nil
}

func parseAddDirective(src source, cur cursor, p *Patch) (cursor, error) {
	path, err := directivePath(src, cur.index, addFilePrefix, ActionAdd, p)
	if err != nil {
		return cur, err
	}
	cur.index++

	var body []string
	for cur.index < len(src.lines) && !hasAnyPrefix(src.lines[cur.index], addTerminators) {
		line := src.lines[cur.index]
		if !strings.HasPrefix(line, "+") {
			return cur, newError(KindGrammar, path, src.lineNumber(cur.index), "invalid add file line: %q", line)
		}
		body = append(body, line[1:])
		cur.index++
	}
	p.Actions[path] = &PatchAction{Kind: ActionAdd, NewFile: ptr(strings.Join(body, "\n"))}
	return cur, nil
}

// parseUpdateBody scans every section of an Update directive and locates it in the
// original content. fileIndex is the absolute line cursor into the original file.
func parseUpdateBody(src source, cur cursor, path, content string) (*PatchAction, cursor, error) {
	action := &PatchAction{Kind: ActionUpdate, Chunks: []Chunk{}}
	lines := strings.Split(content, "\n")
	fileIndex := 0

	for cur.index < len(src.lines) && !hasAnyPrefix(src.lines[cur.index], updateTerminators) {
		line := src.lines[cur.index]
		var anchor string
		switch {
		case strings.HasPrefix(line, anchorPrefix):
			anchor = line[len(anchorPrefix):]
			cur.index++
		case line == bareAnchor:
			cur.index++
		default:
			if fileIndex != 0 {
				return nil, cur, newError(KindGrammar, path, src.lineNumber(cur.index), "invalid line: %q: sections after the first must start with %q", line, bareAnchor)
			}
		}

		var anchorFuzz int
		fileIndex, anchorFuzz = seekAnchor(lines, anchor, fileIndex)
		cur.fuzz += anchorFuzz

		sec, err := scanSection(src, cur.index)
		if err != nil {
			var de *DiffError
			if errors.As(err, &de) && de.Path == "" {
				de.Path = path
			}
			return nil, cur, err
		}

		index, fuzz := findContext(lines, sec.context, fileIndex, sec.eof)
		if index == -1 {
			label := "context"
			if sec.eof {
				label = "end-of-file context"
			}
			return nil, cur, &DiffError{
				Kind:    KindResolution,
				Message: fmt.Sprintf("could not find %s in %s", label, path),
				Path:    path,
				Line:    src.lineNumber(cur.index),
				Section: sec.context,
				EOF:     sec.eof,
			}
		}
		cur.fuzz += fuzz

		for _, chunk := range sec.chunks {
			chunk.OrigIndex += index
			action.Chunks = append(action.Chunks, chunk)
		}
		fileIndex = index + len(sec.context)
		cur.index = sec.next
	}
	return action, cur, nil
}

// FilesReferenced returns the sorted set of paths named by Update or Delete
// directives. Callers use it to load the minimal snapshot needed by Parse.
func FilesReferenced(text string) []string {
	return scanDirectivePaths(text, updateFilePrefix, deleteFilePrefix)
}

// FilesAdded returns the sorted set of paths named by Add directives.
func FilesAdded(text string) []string {
	return scanDirectivePaths(text, addFilePrefix)
}

func scanDirectivePaths(text string, prefixes ...string) []string {
	seen := make(map[string]struct{})
	for _, line := range newSource(text).lines {
		for _, prefix := range prefixes {
			if rest, ok := strings.CutPrefix(line, prefix); ok {
				if path := strings.TrimSpace(rest); path != "" {
					seen[path] = struct{}{}
				}
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
