package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Body paragraphs are returned in order;
// table cells contribute their paragraphs row by row. A paragraph holding
// line breaks yields one entry per line. Drawings are skipped.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			paragraphs = append(paragraphs, splitLines(docxParagraphText(it))...)
		case *docx.Table:
			paragraphs = appendTable(paragraphs, it)
		}
	}
	return paragraphs, nil
}

func appendTable(paragraphs []string, t *docx.Table) []string {
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			for _, para := range cell.Paragraphs {
				paragraphs = append(paragraphs, splitLines(docxParagraphText(para))...)
			}
			for _, nested := range cell.Tables {
				paragraphs = appendTable(paragraphs, nested)
			}
		}
	}
	return paragraphs
}

// docxParagraphText concatenates the paragraph's runs. Tabs become "\t" and
// line or page breaks become "\n".
func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			writeRun(&buf, c)
		case *docx.Hyperlink:
			writeRun(&buf, &c.Run)
		}
	}
	return buf.String()
}

func writeRun(buf *strings.Builder, run *docx.Run) {
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		}
	}
}
