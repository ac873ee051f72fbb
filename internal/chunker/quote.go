package chunker

import "sort"

// QuoteStyle identifies the quotation convention that produced a span.
type QuoteStyle int

const (
	QuoteCurly QuoteStyle = iota
	QuoteStraight
)

const (
	curlyOpen  = '“'
	curlyClose = '”'
	straight   = '"'
)

// QuoteSpan is a quoted region in rune offsets. Closed spans cover
// [Start, End); open spans run from Start to the end of the text.
type QuoteSpan struct {
	Start int
	End   int
	Open  bool
	Style QuoteStyle
}

// Contains reports whether the rune offset falls inside the span.
func (s QuoteSpan) Contains(off int) bool {
	if s.Open {
		return off >= s.Start
	}
	return off >= s.Start && off < s.End
}

// QuoteSpans computes the curly and straight quotation spans of text.
// The two conventions are tracked independently and never coalesced.
func QuoteSpans(text string) []QuoteSpan {
	return quoteSpans([]rune(text))
}

func quoteSpans(rs []rune) []QuoteSpan {
	var spans []QuoteSpan

	var stack []int
	for i, r := range rs {
		switch r {
		case curlyOpen:
			stack = append(stack, i)
		case curlyClose:
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans = append(spans, QuoteSpan{Start: open, End: i + 1, Style: QuoteCurly})
		}
	}
	for _, open := range stack {
		spans = append(spans, QuoteSpan{Start: open, Open: true, Style: QuoteCurly})
	}

	var marks []int
	for i, r := range rs {
		if r == straight {
			marks = append(marks, i)
		}
	}
	for i := 0; i+1 < len(marks); i += 2 {
		spans = append(spans, QuoteSpan{Start: marks[i], End: marks[i+1] + 1, Style: QuoteStraight})
	}
	if len(marks)%2 == 1 {
		spans = append(spans, QuoteSpan{Start: marks[len(marks)-1], Open: true, Style: QuoteStraight})
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// InsideQuote reports whether off lies within any of spans.
func InsideQuote(spans []QuoteSpan, off int) bool {
	for _, s := range spans {
		if s.Contains(off) {
			return true
		}
	}
	return false
}
