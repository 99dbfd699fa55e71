package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	files, err := DecodeSnapshot([]byte(`{"a.txt": "one\ntwo", "dir/b.txt": ""}`))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a.txt": "one\ntwo", "dir/b.txt": ""}, files)

	files, err = DecodeSnapshot([]byte(`{}`))
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestDecodeSnapshotRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"array":         `["a.txt"]`,
		"number value":  `{"a.txt": 1}`,
		"empty path":    `{"": "x"}`,
		"padded path":   `{" a.txt": "x"}`,
		"nested object": `{"a.txt": {"content": "x"}}`,
	}
	for name, raw := range cases {
		_, err := DecodeSnapshot([]byte(raw))
		var validationErr SnapshotValidationError
		require.True(t, errors.As(err, &validationErr), "%s: unexpected error %v", name, err)
		require.NotEmpty(t, validationErr.Issues, name)
	}
}

func TestDecodeSnapshotRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"a.txt": `))
	require.Error(t, err)
}

func TestDecodeSnapshotYAML(t *testing.T) {
	raw := []byte("a.txt: |-\n  one\n  two\ndir/b.txt: \"\"\n")
	files, err := DecodeSnapshotYAML(raw)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a.txt": "one\ntwo", "dir/b.txt": ""}, files)

	_, err = DecodeSnapshotYAML([]byte("a.txt:\n  - one\n"))
	var validationErr SnapshotValidationError
	require.ErrorAs(t, err, &validationErr)
}
