package parser

import (
	"strings"
	"testing"
)

func TestIsPageNumberLine(t *testing.T) {
	cases := map[string]bool{
		"7":                  true,
		"  12 ":              true,
		"- 3 -":              true,
		"– 4 –":              true,
		"Trang 5":            true,
		"page 9":             true,
		"1. Khoản một":       false,
		"Điều 3.":            false,
		"":                   false,
		"-":                  false,
		"Trang chủ":          false,
		"2024/QH15":          false,
	}
	for line, want := range cases {
		if got := isPageNumberLine(line); got != want {
			t.Errorf("isPageNumberLine(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestPDFParser_Garbage(t *testing.T) {
	p := &PDFParser{FallbackPdftotext: false}
	if _, err := p.Parse(strings.NewReader("not a pdf"), "x.pdf"); err == nil {
		t.Fatal("expected error for non-pdf content")
	}
}

func TestBlank(t *testing.T) {
	if !blank(nil) || !blank([][]string{{"", "  "}}) {
		t.Error("expected blank pages")
	}
	if blank([][]string{{""}, {"x"}}) {
		t.Error("expected non-blank pages")
	}
}
