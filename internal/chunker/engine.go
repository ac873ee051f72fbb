// Package chunker segments legal documents into article-scoped chunks.
//
// Lines are walked once, in order. Chapter and article headers drive a small
// state machine; each completed article is handed to the Splitter, which keeps
// every chunk under the threshold while re-injecting the header (and, for
// deep splits, the clause and quoted titles) so every chunk stays traceable to
// its article.
package chunker

import (
	"errors"
	"strings"
)

var (
	// ErrNoLines is returned when the input has no non-empty lines.
	ErrNoLines = errors.New("no content lines")
	// ErrNoArticles is returned when no article header was recognized.
	ErrNoArticles = errors.New("no article headers found")
)

// ArticleRecord is an article being accumulated by the builder.
type ArticleRecord struct {
	Header  string
	Chapter string
	Body    []string
}

// State is the builder state between lines. Article is nil while idle.
// Step may mutate the open article in place, so a State must not be shared
// across goroutines.
type State struct {
	Chapter  string
	Article  *ArticleRecord
	Halted   bool
	Articles int // article headers seen so far
}

// Engine runs the segmentation pipeline for one Profile. An Engine holds no
// per-document state and is safe for concurrent use.
type Engine struct {
	classifier *Classifier
	splitter   Splitter
	sentinel   string
	observer   Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the observer notified of structural events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithThreshold overrides the chunk size bound (in runes).
func WithThreshold(n int) Option {
	return func(e *Engine) { e.splitter.Threshold = n }
}

func New(p Profile, opts ...Option) *Engine {
	c := NewClassifier(p)
	e := &Engine{
		classifier: c,
		splitter:   Splitter{Threshold: Threshold, Classifier: c},
		sentinel:   p.EndSentinel,
		observer:   NopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run normalizes raw paragraphs and segments them.
func (e *Engine) Run(raw []string) ([]Chunk, error) {
	return e.Segment(Normalize(raw))
}

// Segment walks normalized lines and returns the chunks in document order.
func (e *Engine) Segment(lines []string) ([]Chunk, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	var (
		st     State
		chunks []Chunk
		out    []Chunk
	)
	for i, line := range lines {
		var next string
		hasNext := i+1 < len(lines)
		if hasNext {
			next = lines[i+1]
		}
		st, out = e.Step(st, line, next, hasNext)
		chunks = append(chunks, out...)
		if st.Halted {
			break
		}
	}
	st, out = e.Finish(st)
	chunks = append(chunks, out...)

	if st.Articles == 0 {
		return nil, ErrNoArticles
	}
	return chunks, nil
}

// Step advances the state by one line. next is the following line, used
// only to name chapters that carry no inline title.
func (e *Engine) Step(st State, line, next string, hasNext bool) (State, []Chunk) {
	if st.Halted {
		return st, nil
	}

	switch m := e.classifier.Classify(line); m.Kind {
	case KindChapter:
		out := e.flush(st.Article)
		st.Article = nil
		st.Chapter = e.classifier.ChapterName(m, next, hasNext)
		e.observer.ChapterStarted(st.Chapter)
		return st, out

	case KindArticle:
		out := e.flush(st.Article)
		st.Article = &ArticleRecord{
			Header:  e.classifier.ArticleHeader(m),
			Chapter: st.Chapter,
		}
		st.Articles++
		return st, out
	}

	if st.Article == nil {
		return st, nil
	}

	if e.sentinel != "" {
		if strings.TrimSpace(line) == e.sentinel {
			return e.halt(st, line)
		}
		if i := strings.Index(line, e.sentinel); i >= 0 {
			if prefix := strings.TrimSpace(line[:i]); prefix != "" {
				st.Article.Body = append(st.Article.Body, prefix)
			}
			return e.halt(st, line)
		}
	}

	st.Article.Body = append(st.Article.Body, line)
	return st, nil
}

// Finish flushes any open article at end of input.
func (e *Engine) Finish(st State) (State, []Chunk) {
	out := e.flush(st.Article)
	st.Article = nil
	return st, out
}

func (e *Engine) halt(st State, line string) (State, []Chunk) {
	out := e.flush(st.Article)
	st.Article = nil
	st.Halted = true
	e.observer.Halted(line)
	return st, out
}

func (e *Engine) flush(rec *ArticleRecord) []Chunk {
	if rec == nil {
		return nil
	}
	body := strings.TrimSpace(strings.Join(rec.Body, "\n"))
	chunks := e.splitter.Split(rec.Header, body, rec.Chapter)
	e.observer.ArticleFlushed(rec.Header, chunks)
	return chunks
}
