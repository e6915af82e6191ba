// Package wordlist normalizes uploaded candidate sources into ordered
// candidate sequences. Plain text, gzip streams, and zip archives are
// supported; decoding is deliberately permissive because iteration
// order decides which duplicate candidate wins.
package wordlist

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnreadableSource reports a source from which no candidate lines
// could be extracted.
var ErrUnreadableSource = errors.New("no candidate lines could be extracted from source")

// Result carries the extracted candidates plus the number of archive
// entries that were skipped as unreadable.
type Result struct {
	Candidates []string
	Skipped    int
}

// Read extracts candidate lines from raw upload bytes. The container
// format is detected from the filename suffix: ".zip" for archives,
// ".gz" for gzip streams, anything else is treated as plain text.
func Read(data []byte, filename string) (Result, error) {
	var res Result
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".zip"):
		res = readArchive(data)
	case strings.HasSuffix(strings.ToLower(filename), ".gz"):
		res = Result{Candidates: readCompressed(data)}
	default:
		res = Result{Candidates: ReadText(decodeText(data))}
	}
	if len(res.Candidates) == 0 {
		return Result{Skipped: res.Skipped}, ErrUnreadableSource
	}
	return res, nil
}

// ReadText splits inline text into trimmed, non-empty candidate lines.
func ReadText(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// readArchive concatenates lines from every readable file entry in
// archive-listing order. Directory entries are skipped; entries that
// cannot be opened or read are skipped silently but counted.
func readArchive(data []byte) Result {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}
	}
	var res Result
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		raw, err := readEntry(entry)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Candidates = append(res.Candidates, ReadText(decodeText(raw))...)
	}
	return res
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// readCompressed decompresses a gzip stream and splits the text. A
// stream that cannot be decompressed falls back to decoding the raw
// bytes directly, matching the permissive upload contract.
func readCompressed(data []byte) []string {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return ReadText(decodeText(data))
	}
	defer gr.Close()
	plain, err := io.ReadAll(gr)
	if err != nil {
		return ReadText(decodeText(data))
	}
	return ReadText(decodeText(plain))
}

// decodeText decodes bytes as UTF-8 when valid, otherwise falls back
// to Latin-1, which maps every byte and therefore never fails.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
