// Package parser decodes uploaded documents into raw paragraphs in
// document order. Paragraph text is returned as found; whitespace cleanup
// belongs to the chunker.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupported is returned for file types no parser handles, or when the
// content does not match the file extension.
var ErrUnsupported = errors.New("unsupported document type")

// Parser converts raw document bytes into paragraphs.
type Parser interface {
	Parse(r io.Reader, filename string) ([]string, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Detect picks a parser for filename and checks that the sniffed content
// type agrees with the extension. Text formats accept any text/* content.
func Detect(data []byte, filename string) (Parser, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}

	mime := mimetype.Detect(data).String()
	var ok bool
	switch p.(type) {
	case *DOCXParser:
		ok = strings.Contains(mime, "officedocument.wordprocessingml") || strings.HasPrefix(mime, "application/zip")
	case *PDFParser:
		ok = strings.HasPrefix(mime, "application/pdf")
	default:
		ok = strings.HasPrefix(mime, "text/")
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s content in %q", ErrUnsupported, mime, filename)
	}
	return p, nil
}

// ParseFile is ForFile followed by Parse.
func ParseFile(r io.Reader, filename string) ([]string, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(r, filename)
}

// splitLines breaks s at line feeds, dropping carriage returns.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
