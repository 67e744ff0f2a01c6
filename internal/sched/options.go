package sched

import (
	"log/slog"
)

var discardLogger = slog.New(slog.DiscardHandler)

// Options configures a Scheduler.
type Options struct {
	Logger   *slog.Logger
	Pacer    Pacer
	Producer Producer
	Hooks    []Hook
}

// NewOptions creates options with defaults.
func NewOptions(opts ...Option) Options {
	var options = Options{
		Logger: discardLogger,
		Pacer:  VirtualPacer{},
	}
	for _, opt := range opts {
		opt(&options)
	}

	return options
}

// Option is for setting options.
type Option func(*Options)

// WithLogger sets the logger. A nil logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger == nil {
			logger = discardLogger
		}
		o.Logger = logger
	}
}

// WithPacer sets how virtual time advances. A nil pacer is ignored.
func WithPacer(p Pacer) Option {
	return func(o *Options) {
		if p != nil {
			o.Pacer = p
		}
	}
}

// WithProducer sets the sample producer driven on every elapsed unit.
func WithProducer(p Producer) Option {
	return func(o *Options) {
		o.Producer = p
	}
}

// WithHook adds a status hook. Hooks run in the order they were added.
func WithHook(h Hook) Option {
	return func(o *Options) {
		if h != nil {
			o.Hooks = append(o.Hooks, h)
		}
	}
}
