package platform

import (
	"log/slog"

	"github.com/aretw0/synclist/pkg/dispatch"
)

// options holds the internal configuration of a synchronized list.
type options struct {
	logger        *slog.Logger
	name          string
	errorHandler  func(error)
	panicHandler  dispatch.PanicHandler
	journalDir    string
	journalFormat string
	after         uint64
}

// Option defines a functional option for configuring a synchronized list.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		logger:        nil,
		name:          "synclist",
		journalFormat: ".json",
	}
}

// WithLogger sets the logger used by the loop, the collection and the journal source.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithName names the owning loop (shown in worker state and diagrams).
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithErrorHandler registers a callback for rejected changes, observer panics
// and journal failures. Without one, they are logged at error level.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithPanicHandler overrides how panics escaping a task on the loop are reported.
func WithPanicHandler(fn dispatch.PanicHandler) Option {
	return func(o *options) {
		o.panicHandler = fn
	}
}

// WithJournal replays the journal in dir into the list and keeps following it
// for as long as the list is open.
func WithJournal(dir string) Option {
	return func(o *options) {
		o.journalDir = dir
	}
}

// WithJournalFormat selects the extension for new entries (".json", ".yaml").
// Entries of every supported format are read regardless.
func WithJournalFormat(ext string) Option {
	return func(o *options) {
		o.journalFormat = ext
	}
}

// WithJournalAfter skips journal entries up to and including seq.
func WithJournalAfter(seq uint64) Option {
	return func(o *options) {
		o.after = seq
	}
}
