// Package export writes chunks as tabular rows with the document metadata
// appended to every row.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/legalchunk/internal/chunker"
	"github.com/dgallion1/legalchunk/internal/metadata"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// ParseFormat accepts "csv" or "jsonl" in any case. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSONL, "json":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// BaseColumns are always written first, in this order.
var BaseColumns = []string{"content", "content_length", "chapter", "article"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns returns the header for meta: the base columns followed by the
// metadata keys that do not collide with a base column.
func Columns(meta *metadata.Metadata) []string {
	cols := append([]string(nil), BaseColumns...)
	for _, k := range meta.Keys() {
		if !isBaseColumn(k) {
			cols = append(cols, k)
		}
	}
	return cols
}

func isBaseColumn(k string) bool {
	for _, b := range BaseColumns {
		if b == k {
			return true
		}
	}
	return false
}

// Record returns the field values of c under Columns(meta).
func Record(c chunker.Chunk, meta *metadata.Metadata) []string {
	rec := []string{c.Content, strconv.Itoa(utf8.RuneCountInString(c.Content)), c.Chapter, c.Article}
	for _, k := range meta.Keys() {
		if isBaseColumn(k) {
			continue
		}
		v, _ := meta.Get(k)
		rec = append(rec, v)
	}
	return rec
}

// WriteCSV writes a UTF-8 CSV with a byte order mark so spreadsheet tools
// detect the encoding.
func WriteCSV(w io.Writer, chunks []chunker.Chunk, meta *metadata.Metadata) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(meta)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, c := range chunks {
		if err := cw.Write(Record(c, meta)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteJSONL writes one JSON object per chunk, keys in column order.
func WriteJSONL(w io.Writer, chunks []chunker.Chunk, meta *metadata.Metadata) error {
	cols := Columns(meta)
	for i, c := range chunks {
		line, err := encodeObject(cols, Record(c, meta))
		if err != nil {
			return fmt.Errorf("encode chunk %d: %w", i, err)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
	}
	return nil
}

// encodeObject renders an ordered object; content_length stays numeric.
func encodeObject(cols, vals []string) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, col := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		if col == "content_length" {
			b.WriteString(vals[i])
			continue
		}
		v, err := json.Marshal(vals[i])
		if err != nil {
			return nil, err
		}
		b.Write(v)
	}
	b.WriteString("}\n")
	return []byte(b.String()), nil
}

// Write encodes chunks in format f.
func Write(w io.Writer, f Format, chunks []chunker.Chunk, meta *metadata.Metadata) error {
	switch f {
	case FormatJSONL:
		return WriteJSONL(w, chunks, meta)
	case FormatCSV, "":
		return WriteCSV(w, chunks, meta)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteFile writes chunks to path, creating parent directories.
func WriteFile(path string, f Format, chunks []chunker.Chunk, meta *metadata.Metadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Write(out, f, chunks, meta); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DefaultPath derives "<dir>/<stem>_chunks.<ext>" from the input path.
func DefaultPath(input string, f Format) string {
	ext := ".csv"
	if f == FormatJSONL {
		ext = ".jsonl"
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), stem+"_chunks"+ext)
}
