package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Threshold is the default upper bound, in runes, on a chunk's content.
const Threshold = 1500

// Chunk is one emitted unit of retrieval text.
type Chunk struct {
	Content string `json:"content"`
	Chapter string `json:"chapter"`
	Article string `json:"article"`
}

// Splitter decomposes oversized articles into chunks that each begin with
// the article header.
type Splitter struct {
	Threshold  int
	Classifier *Classifier
}

func (s Splitter) threshold() int {
	if s.Threshold <= 0 {
		return Threshold
	}
	return s.Threshold
}

// Split turns one article into chunks. Articles whose full text fits the
// threshold come back as a single chunk.
func (s Splitter) Split(header, body, chapter string) []Chunk {
	t := s.threshold()
	full := header
	if body != "" {
		full += "\n" + body
	}
	if runeLen(full) <= t {
		return []Chunk{{Content: full, Chapter: chapter, Article: header}}
	}

	limit := t - runeLen(header) - 1
	if limit < 1 {
		return []Chunk{{Content: full, Chapter: chapter, Article: header}}
	}

	var out []Chunk
	var buf string
	bufLen := 0
	flush := func() {
		if buf == "" {
			return
		}
		out = append(out, Chunk{Content: header + "\n" + buf, Chapter: chapter, Article: header})
		buf, bufLen = "", 0
	}

	for _, block := range clauseBlocks(body) {
		n := runeLen(block)
		if n > limit {
			flush()
			out = append(out, s.splitBlock(header, block, chapter, limit)...)
			continue
		}
		cand, candLen := block, n
		if buf != "" {
			cand, candLen = buf+"\n"+block, bufLen+1+n
		}
		if candLen <= limit {
			buf, bufLen = cand, candLen
			continue
		}
		flush()
		buf, bufLen = block, n
	}
	flush()
	return out
}

// clauseBlocks partitions body at clause marker lines. Text before the
// first marker forms its own block.
func clauseBlocks(body string) []string {
	var blocks []string
	var cur []string
	for _, line := range strings.Split(body, "\n") {
		if isClauseLine(line) && len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}

type part struct {
	start int
	text  string
}

func (s Splitter) splitBlock(header, block, chapter string, limit int) []Chunk {
	rs := []rune(block)
	lines := strings.Split(block, "\n")

	var clauseTitle string
	if isClauseLine(lines[0]) {
		clauseTitle = lines[0]
	}
	spans := quoteSpans(rs)
	quoted := s.findQuotedTitle(lines, spans)

	var out []Chunk
	for _, p := range splitParts(rs, limit) {
		text := strings.TrimSpace(p.text)
		if text == "" {
			continue
		}
		content := []string{header}
		if len(out) > 0 && clauseTitle != "" {
			content = append(content, clauseTitle)
		}
		if quoted != "" && InsideQuote(spans, p.start) && firstLine(text) != quoted {
			content = append(content, quoted)
		}
		content = append(content, text)
		out = append(out, Chunk{Content: strings.Join(content, "\n"), Chapter: chapter, Article: header})
	}
	return out
}

// findQuotedTitle returns the first line that sits inside a quotation and
// reads like a nested article or clause title, or "" if there is none.
func (s Splitter) findQuotedTitle(lines []string, spans []QuoteSpan) string {
	off := 0
	for _, line := range lines {
		start := off
		off += runeLen(line) + 1

		trimmed := strings.TrimSpace(line)
		lead := start + runeLen(line) - runeLen(strings.TrimLeftFunc(line, unicode.IsSpace))
		opensQuote := strings.HasPrefix(trimmed, string(curlyOpen)) || strings.HasPrefix(trimmed, string(straight))
		if !opensQuote && !InsideQuote(spans, lead) {
			continue
		}
		inner := strings.TrimLeft(trimmed, string(curlyOpen)+string(straight)+" \t")
		if !isClauseLine(inner) && !s.isArticleLine(inner) {
			continue
		}
		return line
	}
	return ""
}

func (s Splitter) isArticleLine(line string) bool {
	if s.Classifier == nil {
		return false
	}
	return s.Classifier.Classify(line).Kind == KindArticle
}

// splitParts cuts rs into pieces of at most limit runes, each the largest
// prefix of the remainder that ends at the right-most period, else the
// right-most line break, else a hard cut. The remainder keeps the separator
// left by the previous cut; parts holding only whitespace are dropped.
func splitParts(rs []rune, limit int) []part {
	var parts []part
	for pos := 0; pos < len(rs); {
		rem := rs[pos:]
		cut := len(rem)
		if cut > limit {
			window := rem[:limit]
			cut = lastIndexRune(window, '.') + 1
			if cut == 0 {
				cut = lastIndexRune(window, '\n') + 1
			}
			if cut == 0 {
				cut = limit
			}
		}
		if text := string(rem[:cut]); strings.TrimSpace(text) != "" {
			parts = append(parts, part{start: pos, text: text})
		}
		pos += cut
	}
	return parts
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
