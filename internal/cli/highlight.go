package cli

import (
	"bytes"
	"errors"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
)

// highlightPatch writes text with diff syntax highlighting for 256-color terminals.
// Nothing is written when highlighting fails.
func highlightPatch(w io.Writer, text string) error {
	lexer := lexers.Get("diff")
	if lexer == nil {
		return errors.New("diff lexer unavailable")
	}
	// Coalesce for better performance with consecutive tokens of the same type
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatters.TTY256.Format(&buf, chromastyles.Get("monokai"), iterator); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}
