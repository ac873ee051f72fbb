package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. Text is read row by row so each printed line
// stays one paragraph. When the library fails or finds no text and
// FallbackPdftotext is set, pdftotext is tried if it is installed.
// Lines holding only a page number are dropped.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pages, err := pdfPages(data)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		if _, lookErr := exec.LookPath("pdftotext"); lookErr == nil {
			pages, err = pdftotextPages(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var paragraphs []string
	for _, page := range pages {
		for _, line := range page {
			if !isPageNumberLine(line) {
				paragraphs = append(paragraphs, line)
			}
		}
	}
	return paragraphs, nil
}

// pdfPages returns the text rows of every page, top to bottom.
func pdfPages(data []byte) ([][]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var pages [][]string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			var b strings.Builder
			for _, t := range row.Content {
				b.WriteString(t.S)
			}
			lines = append(lines, b.String())
		}
		pages = append(pages, lines)
	}
	return pages, nil
}

// pdftotextPages runs pdftotext on a spooled copy; it reads only from disk.
func pdftotextPages(data []byte) ([][]string, error) {
	tmp, err := os.CreateTemp("", "legalchunk-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	var pages [][]string
	for _, page := range strings.Split(string(out), "\f") {
		pages = append(pages, splitLines(page))
	}
	return pages, nil
}

func blank(pages [][]string) bool {
	for _, page := range pages {
		for _, line := range page {
			if strings.TrimSpace(line) != "" {
				return false
			}
		}
	}
	return true
}

// isPageNumberLine matches page furniture such as "7", "- 7 -" or "Trang 7".
func isPageNumberLine(line string) bool {
	s := strings.TrimSpace(line)
	s = strings.TrimSpace(strings.Trim(s, "-–"))
	for _, prefix := range []string{"Trang ", "Page "} {
		if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
