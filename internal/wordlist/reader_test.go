package wordlist

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func TestReadPlainTextTrimsAndDropsEmpties(t *testing.T) {
	t.Parallel()

	data := []byte("  alpha  \n\nbeta\r\n\t\ngamma\n")
	res, err := Read(data, "words.txt")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, res.Candidates)
	require.Zero(t, res.Skipped)
}

func TestReadTextInline(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"one", "two"}, ReadText(" one \n\n two "))
	require.Empty(t, ReadText("\n  \n"))
}

func TestReadLatin1Fallback(t *testing.T) {
	t.Parallel()

	// 0xe9 is not valid standalone UTF-8; Latin-1 maps it to é.
	res, err := Read([]byte("caf\xe9\nbar\n"), "words.txt")
	require.NoError(t, err)
	require.Equal(t, []string{"café", "bar"}, res.Candidates)
}

func TestReadGzipStream(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("first\n second \n\nthird\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	res, err := Read(buf.Bytes(), "words.txt.gz")
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "third"}, res.Candidates)
}

func TestReadGzipFallsBackToRawText(t *testing.T) {
	t.Parallel()

	// Mislabeled plain text: the gzip header check fails, the raw
	// bytes are still readable as text.
	res, err := Read([]byte("plain\nlines\n"), "fake.gz")
	require.NoError(t, err)
	require.Equal(t, []string{"plain", "lines"}, res.Candidates)
}

func TestReadArchiveConcatenatesEntriesInOrder(t *testing.T) {
	t.Parallel()

	data := buildArchive(t)
	res, err := Read(data, "lists.zip")
	require.NoError(t, err)
	require.Equal(t, []string{
		"apple", "banana", "cherry",
		"delta", "echo", "foxtrot", "golf",
	}, res.Candidates)
	require.Equal(t, 1, res.Skipped)
}

func TestReadNoLinesIsUnreadable(t *testing.T) {
	t.Parallel()

	_, err := Read([]byte("   \n\n"), "empty.txt")
	require.ErrorIs(t, err, ErrUnreadableSource)

	_, err = Read(nil, "nothing.txt")
	require.ErrorIs(t, err, ErrUnreadableSource)

	// A zip that is not a zip at all yields nothing.
	_, err = Read([]byte("not an archive"), "broken.zip")
	require.ErrorIs(t, err, ErrUnreadableSource)
}

// unsupportedMethod marks an entry the reader has no decompressor for,
// so opening it fails deterministically.
const unsupportedMethod = 99

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// buildArchive produces a zip with two readable text entries (3 and 4
// non-empty lines, one blank line each), a directory entry, and one
// entry compressed with a method the reader cannot open.
func buildArchive(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(unsupportedMethod, func(w io.Writer) (io.WriteCloser, error) {
		return nopCloser{w}, nil
	})

	w, err := zw.Create("a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("apple\n\nbanana\ncherry\n"))
	require.NoError(t, err)

	_, err = zw.CreateHeader(&zip.FileHeader{Name: "nested/"})
	require.NoError(t, err)

	w, err = zw.CreateHeader(&zip.FileHeader{Name: "corrupt.bin", Method: unsupportedMethod})
	require.NoError(t, err)
	_, err = w.Write([]byte("unreachable\n"))
	require.NoError(t, err)

	w, err = zw.Create("b.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("delta\necho\n\nfoxtrot\ngolf\n"))
	require.NoError(t, err)

	require.NoError(t, zw.Close())

	// Sanity: the corrupt entry really is unreadable.
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == "corrupt.bin" {
			_, openErr := f.Open()
			require.True(t, errors.Is(openErr, zip.ErrAlgorithm))
		}
	}
	return buf.Bytes()
}
