package chunker

import (
	"reflect"
	"testing"
)

func TestQuoteSpans(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []QuoteSpan
	}{
		{"none", "plain text", nil},
		{"curly closed", "a “bc” d", []QuoteSpan{{Start: 2, End: 6, Style: QuoteCurly}}},
		{"curly open", "a “bc", []QuoteSpan{{Start: 2, Open: true, Style: QuoteCurly}}},
		{"curly stray close", "a” b", nil},
		{
			"curly nested",
			"“a “b” c”",
			[]QuoteSpan{
				{Start: 0, End: 9, Style: QuoteCurly},
				{Start: 3, End: 6, Style: QuoteCurly},
			},
		},
		{"straight pair", `x "y" z`, []QuoteSpan{{Start: 2, End: 5, Style: QuoteStraight}}},
		{
			"straight odd",
			`"a" "b`,
			[]QuoteSpan{
				{Start: 0, End: 3, Style: QuoteStraight},
				{Start: 4, Open: true, Style: QuoteStraight},
			},
		},
		{
			"styles independent",
			`“a "b” c"`,
			[]QuoteSpan{
				{Start: 0, End: 6, Style: QuoteCurly},
				{Start: 3, End: 9, Style: QuoteStraight},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuoteSpans(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("QuoteSpans(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestInsideQuote(t *testing.T) {
	spans := QuoteSpans("ab “cd” ef “gh")
	// a=0 b=1 ' '=2 “=3 c=4 d=5 ”=6 ' '=7 e=8 f=9 ' '=10 “=11 g=12 h=13
	cases := map[int]bool{
		0:   false,
		3:   true,
		5:   true,
		6:   true,
		7:   false,
		11:  true,
		13:  true,
		100: true, // open span runs to the end
	}
	for off, want := range cases {
		if got := InsideQuote(spans, off); got != want {
			t.Errorf("InsideQuote(%d) = %v, want %v", off, got, want)
		}
	}
}
