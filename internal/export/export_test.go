package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/legalchunk/internal/chunker"
	"github.com/dgallion1/legalchunk/internal/metadata"
)

var sample = []chunker.Chunk{
	{Content: "Điều 1. Phạm vi\nNội dung, có dấu phẩy.", Chapter: "Chương I. Quy định chung", Article: "Điều 1. Phạm vi"},
	{Content: "Điều 2.\n\"Trích dẫn\"", Chapter: "", Article: "Điều 2."},
}

func sampleMeta(t *testing.T) *metadata.Metadata {
	t.Helper()
	m, err := metadata.Parse(strings.NewReader(`{"so_hieu": "01/2024", "chapter": "ignored", "nam": 2024}`))
	require.NoError(t, err)
	return m
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample, sampleMeta(t)))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "missing BOM")

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"content", "content_length", "chapter", "article", "so_hieu", "nam"}, records[0])
	assert.Equal(t, []string{sample[0].Content, "38", sample[0].Chapter, sample[0].Article, "01/2024", "2024"}, records[1])
	assert.Equal(t, "Điều 2.\n\"Trích dẫn\"", records[2][0])
	assert.Equal(t, "", records[2][2])
}

func TestWriteCSV_NoMetadata(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))
	assert.Equal(t, "\ufeffcontent,content_length,chapter,article\n", buf.String())
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, sample, sampleMeta(t)))

	sc := bufio.NewScanner(&buf)
	var rows []map[string]any
	for sc.Scan() {
		var row map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)

	assert.Equal(t, sample[0].Content, rows[0]["content"])
	assert.EqualValues(t, 38, rows[0]["content_length"])
	assert.Equal(t, sample[0].Chapter, rows[0]["chapter"])
	assert.Equal(t, "01/2024", rows[0]["so_hieu"])
	assert.Equal(t, "2024", rows[0]["nam"])
}

func TestJSONLKeyOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, sample[:1], sampleMeta(t)))
	line := buf.String()
	order := []string{`"content"`, `"content_length"`, `"chapter"`, `"article"`, `"so_hieu"`, `"nam"`}
	last := -1
	for _, k := range order {
		i := strings.Index(line, k+":")
		require.Greater(t, i, last, "key %s out of order in %s", k, line)
		last = i
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "jsonl": FormatJSONL, "json": FormatJSONL} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestWriteFile_CreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "law_chunks.csv")
	require.NoError(t, WriteFile(path, FormatCSV, sample, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("docs", "luat_chunks.csv"), DefaultPath(filepath.Join("docs", "luat.docx"), FormatCSV))
	assert.Equal(t, "luat_chunks.jsonl", DefaultPath("luat.docx", FormatJSONL))
}
