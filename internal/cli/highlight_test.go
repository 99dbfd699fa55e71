package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHighlightPatch(t *testing.T) {
	var buf bytes.Buffer
	err := highlightPatch(&buf, "*** Begin Patch\n*** Update File: a.txt\n-two\n+2\n*** End Patch\n")
	require.NoError(t, err)
	require.Contains(t, buf.String(), "\x1b[")
	require.Contains(t, buf.String(), "Update File")
	require.Contains(t, buf.String(), "+2")
}
