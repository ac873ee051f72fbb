package chunker

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestSplit_FitsWhole(t *testing.T) {
	s := Splitter{Threshold: 100}
	got := s.Split("Article 1. Scope", "Body text.", "Chapter I")
	want := []Chunk{{Content: "Article 1. Scope\nBody text.", Chapter: "Chapter I", Article: "Article 1. Scope"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSplit_EmptyBody(t *testing.T) {
	s := Splitter{Threshold: 100}
	got := s.Split("Article 2.", "", "")
	if len(got) != 1 || got[0].Content != "Article 2." {
		t.Errorf("expected header-only chunk, got %+v", got)
	}
}

func TestSplit_HeaderLongerThanThreshold(t *testing.T) {
	s := Splitter{Threshold: 10}
	got := s.Split("Article 1. A very long title", "x", "")
	if len(got) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(got))
	}
	if got[0].Content != "Article 1. A very long title\nx" {
		t.Errorf("unexpected content %q", got[0].Content)
	}
}

func TestSplit_CoalescesClauses(t *testing.T) {
	s := Splitter{Threshold: 40}
	got := s.Split("Article 1.", "1. First clause.\n2. Second one.\n3. Third.", "")
	want := []string{
		"Article 1.\n1. First clause.",
		"Article 1.\n2. Second one.\n3. Third.",
	}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("got %q, want %q", contents(got), want)
	}
	for _, c := range got {
		if c.Article != "Article 1." {
			t.Errorf("chunk article = %q", c.Article)
		}
	}
}

func TestSplit_ClauseTitleReinjected(t *testing.T) {
	s := Splitter{Threshold: 60}
	body := "1. Intro line.\nAlpha beta gamma. Delta epsilon zeta. Eta theta iota kappa."
	got := s.Split("Article 9. H", body, "")
	want := []string{
		"Article 9. H\n1. Intro line.\nAlpha beta gamma.",
		"Article 9. H\n1. Intro line.\nDelta epsilon zeta. Eta theta iota kappa.",
	}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("got %q, want %q", contents(got), want)
	}
}

func TestSplit_QuotedTitleReinjected(t *testing.T) {
	s := Splitter{Threshold: 110, Classifier: NewClassifier(English)}
	body := strings.Join([]string{
		"1. Article 5 is amended as follows:",
		"“Article 5. Scope",
		"This regulation applies to all persons. It covers every region and each sector.",
		"It takes effect immediately.”",
		"2. Done.",
	}, "\n")
	got := s.Split("Article 3. Amend", body, "Chapter II")
	want := []string{
		"Article 3. Amend\n1. Article 5 is amended as follows:\n“Article 5. Scope\nThis regulation applies to all persons.",
		"Article 3. Amend\n1. Article 5 is amended as follows:\n“Article 5. Scope\nIt covers every region and each sector.\nIt takes effect immediately.”",
		"Article 3. Amend\n2. Done.",
	}
	if !reflect.DeepEqual(contents(got), want) {
		t.Fatalf("got %q, want %q", contents(got), want)
	}
	for _, c := range got {
		if c.Chapter != "Chapter II" {
			t.Errorf("chunk chapter = %q", c.Chapter)
		}
	}
}

func TestSplit_QuotedTitleNeedsClassifier(t *testing.T) {
	s := Splitter{Threshold: 110}
	lines := strings.Split("x\n“Article 5. Scope\ny", "\n")
	if q := s.findQuotedTitle(lines, QuoteSpans(strings.Join(lines, "\n"))); q != "" {
		t.Errorf("expected no quoted title without a classifier, got %q", q)
	}

	lines = strings.Split("x\n“1. Nested clause\ny”", "\n")
	q := s.findQuotedTitle(lines, QuoteSpans(strings.Join(lines, "\n")))
	if q != "“1. Nested clause" {
		t.Errorf("expected quoted clause title, got %q", q)
	}
}

func TestClauseBlocks(t *testing.T) {
	got := clauseBlocks("Preamble text.\nmore\n1. One.\ncont\n2. Two.")
	want := []string{"Preamble text.\nmore", "1. One.\ncont", "2. Two."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplitParts(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []part
	}{
		{
			"period preferred",
			"One. Two. Three four",
			12,
			[]part{{0, "One. Two."}, {9, " Three four"}},
		},
		{
			"separator counts toward the next part",
			"AAA. BBBB",
			4,
			[]part{{0, "AAA."}, {4, " BBB"}, {8, "B"}},
		},
		{
			"newline fallback then hard cut",
			"abc def\nghi jkl mno",
			10,
			[]part{{0, "abc def\n"}, {8, "ghi jkl mn"}, {18, "o"}},
		},
		{"fits", "short", 10, []part{{0, "short"}}},
		{"blank", "   ", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitParts([]rune(tt.text), tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSplit_PartAfterPeriodCutKeepsSeparator(t *testing.T) {
	s := Splitter{Threshold: 30}
	body := strings.Repeat("A", 18) + ". " + strings.Repeat("B", 19)
	got := s.Split("Article 1.", body, "")
	want := []string{
		"Article 1.\n" + strings.Repeat("A", 18) + ".",
		"Article 1.\n" + strings.Repeat("B", 18),
		"Article 1.\nB",
	}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("got %q, want %q", contents(got), want)
	}
}

func TestSplit_PartStartingOnSpaceBeforeQuote(t *testing.T) {
	s := Splitter{Threshold: 61}
	body := "“1. Quoted title”\nFirst sentence goes here. “Second part runs on.”"
	got := s.Split("Article 1.", body, "")
	want := []string{
		"Article 1.\n“1. Quoted title”\nFirst sentence goes here.",
		"Article 1.\n“Second part runs on.”",
	}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("got %q, want %q", contents(got), want)
	}
}

func TestSplit_LongClauseTitleReinjectedVerbatim(t *testing.T) {
	sentences := make([]string, 6)
	for i := range sentences {
		sentences[i] = "Sentence number " + strconv.Itoa(i+1) + " of the opening line."
	}
	first := "1. " + strings.Join(sentences, " ")
	if runeLen(first) <= 200 {
		t.Fatalf("clause line too short for this case: %d runes", runeLen(first))
	}

	s := Splitter{Threshold: 260}
	got := s.Split("Article 2.", first+"\nTail one. Tail two.", "")
	want := []string{
		"Article 2.\n" + first + "\nTail one.",
		"Article 2.\n" + first + "\nTail two.",
	}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("got %q, want %q", contents(got), want)
	}
}
