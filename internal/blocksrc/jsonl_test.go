package blocksrc

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocks.jsonl")
	var content string
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenJSONLMissingFile(t *testing.T) {
	_, err := OpenJSONL(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
}

func TestNextDecodesEachLineInOrder(t *testing.T) {
	path := writeFixture(t,
		`{"Timestamp":1}`,
		`{"Timestamp":2}`,
	)
	r, err := OpenJSONL(path)
	require.NoError(t, err)
	defer r.Close()

	b1, err := r.Next()
	require.NoError(t, err)
	require.EqualValues(t, 1, b1.Timestamp)

	b2, err := r.Next()
	require.NoError(t, err)
	require.EqualValues(t, 2, b2.Timestamp)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestNextRejectsMalformedLine(t *testing.T) {
	path := writeFixture(t, `not json`)
	r, err := OpenJSONL(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.Error(t, err)
}

func TestNextOnEmptyFileReturnsEOFImmediately(t *testing.T) {
	path := writeFixture(t)
	r, err := OpenJSONL(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}
