package chunker

import "log/slog"

// Observer receives structural events from an Engine.
type Observer interface {
	ChapterStarted(name string)
	ArticleFlushed(article string, chunks []Chunk)
	Halted(line string)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) ChapterStarted(string)         {}
func (NopObserver) ArticleFlushed(string, []Chunk) {}
func (NopObserver) Halted(string)                 {}

// LogObserver reports events at debug level, and halts at info level.
type LogObserver struct {
	Log *slog.Logger
}

func (o LogObserver) ChapterStarted(name string) {
	o.Log.Debug("chapter", "name", name)
}

func (o LogObserver) ArticleFlushed(article string, chunks []Chunk) {
	o.Log.Debug("article flushed", "article", article, "chunks", len(chunks))
}

func (o LogObserver) Halted(line string) {
	o.Log.Info("end marker reached, remaining lines discarded", "line", line)
}

type multiObserver []Observer

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) ChapterStarted(name string) {
	for _, o := range m {
		o.ChapterStarted(name)
	}
}

func (m multiObserver) ArticleFlushed(article string, chunks []Chunk) {
	for _, o := range m {
		o.ArticleFlushed(article, chunks)
	}
}

func (m multiObserver) Halted(line string) {
	for _, o := range m {
		o.Halted(line)
	}
}
