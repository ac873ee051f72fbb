package chunker

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Kind tags a structural header line.
type Kind int

const (
	KindNone Kind = iota
	KindChapter
	KindArticle
)

func (k Kind) String() string {
	switch k {
	case KindChapter:
		return "chapter"
	case KindArticle:
		return "article"
	}
	return "none"
}

// Match is the result of classifying one line.
type Match struct {
	Kind   Kind
	Number string // roman or decimal for chapters, decimal for articles
	Title  string // inline title, possibly empty
}

// Classifier recognizes chapter and article header lines for a Profile.
// Matching is anchored at line start, ignores leading whitespace, folds case
// over the full Unicode range and compares in NFC.
type Classifier struct {
	chapterKeyword string
	articleKeyword string
	chapterRunes   []rune
	articleRunes   []rune
}

func NewClassifier(p Profile) *Classifier {
	ch := norm.NFC.String(p.ChapterKeyword)
	art := norm.NFC.String(p.ArticleKeyword)
	return &Classifier{
		chapterKeyword: ch,
		articleKeyword: art,
		chapterRunes:   []rune(ch),
		articleRunes:   []rune(art),
	}
}

// Classify returns the structural match for line, or a KindNone match.
// A line matches at most one of the two header kinds.
func (c *Classifier) Classify(line string) Match {
	rs := []rune(norm.NFC.String(line))
	if m, ok := c.matchChapter(rs); ok {
		return m
	}
	if m, ok := c.matchArticle(rs); ok {
		return m
	}
	return Match{}
}

// IsHeader reports whether line is a chapter or article header.
func (c *Classifier) IsHeader(line string) bool {
	return c.Classify(line).Kind != KindNone
}

// ArticleHeader synthesizes the canonical article header for m.
func (c *Classifier) ArticleHeader(m Match) string {
	h := c.articleKeyword + " " + m.Number + "."
	if m.Title != "" {
		h += " " + m.Title
	}
	return h
}

// ChapterName builds the chapter display name. Without an inline title the
// single next line is adopted as the title unless it is itself a header.
func (c *Classifier) ChapterName(m Match, next string, hasNext bool) string {
	label := c.chapterKeyword + " " + m.Number
	if m.Title != "" {
		return label + ". " + m.Title
	}
	if hasNext && next != "" && !c.IsHeader(next) {
		return label + ". " + next
	}
	return label
}

func (c *Classifier) matchChapter(rs []rune) (Match, bool) {
	i, ok := matchKeyword(rs, c.chapterRunes)
	if !ok {
		return Match{}, false
	}
	start := i
	switch {
	case i < len(rs) && isDecimal(rs[i]):
		for i < len(rs) && isDecimal(rs[i]) {
			i++
		}
	default:
		for i < len(rs) && isRoman(rs[i]) {
			i++
		}
	}
	if i == start {
		return Match{}, false
	}
	number := string(rs[start:i])
	if i < len(rs) && !unicode.IsSpace(rs[i]) && rs[i] != ':' && rs[i] != '.' {
		return Match{}, false
	}
	i = skipSpace(rs, i)
	if i < len(rs) && (rs[i] == ':' || rs[i] == '.') {
		i++
	}
	return Match{
		Kind:   KindChapter,
		Number: number,
		Title:  strings.TrimSpace(string(rs[i:])),
	}, true
}

func (c *Classifier) matchArticle(rs []rune) (Match, bool) {
	i, ok := matchKeyword(rs, c.articleRunes)
	if !ok {
		return Match{}, false
	}
	start := i
	for i < len(rs) && isDecimal(rs[i]) {
		i++
	}
	if i == start || i >= len(rs) || rs[i] != '.' {
		return Match{}, false
	}
	return Match{
		Kind:   KindArticle,
		Number: string(rs[start:i]),
		Title:  strings.TrimSpace(string(rs[i+1:])),
	}, true
}

// matchKeyword matches kw case-insensitively after leading whitespace and
// requires at least one whitespace rune after it. It returns the index of
// the first rune following that whitespace.
func matchKeyword(rs, kw []rune) (int, bool) {
	i := skipSpace(rs, 0)
	if len(kw) == 0 || len(rs)-i < len(kw) {
		return 0, false
	}
	for j, k := range kw {
		if !foldEqual(rs[i+j], k) {
			return 0, false
		}
	}
	i += len(kw)
	if i >= len(rs) || !unicode.IsSpace(rs[i]) {
		return 0, false
	}
	return skipSpace(rs, i), true
}

// foldEqual reports whether a and b are equal under simple Unicode case folding.
func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	return i
}

func isDecimal(r rune) bool { return r >= '0' && r <= '9' }

func isRoman(r rune) bool {
	switch r {
	case 'I', 'V', 'X', 'L', 'C', 'D', 'M':
		return true
	}
	return false
}

// isClauseLine reports whether s starts, after leading whitespace, with a
// "<integer>. " clause marker.
func isClauseLine(s string) bool {
	rs := []rune(s)
	i := skipSpace(rs, 0)
	start := i
	for i < len(rs) && isDecimal(rs[i]) {
		i++
	}
	if i == start || i+1 >= len(rs) || rs[i] != '.' {
		return false
	}
	return unicode.IsSpace(rs[i+1])
}
