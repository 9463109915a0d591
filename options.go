package trainlog

import (
	"github.com/trainlog/trainlog/config"
	"github.com/trainlog/trainlog/metric"
	"github.com/trainlog/trainlog/pkg/log"
)

// Built-in attribute defaults, the last step of the resolution order.
const (
	// DefaultStyle is the style applied when no layer binds one.
	DefaultStyle = "white"
	// DefaultWidth is the display width for numeric values when no layer
	// binds one. The decimal point counts as a character.
	DefaultWidth = 6
)

// Options configures a Logger instance. Styles, Sizes and Average occupy the
// default layer of attribute resolution; per-call overrides passed to Log
// occupy the log layer above them.
type Options struct {
	// NEpochs is the number of epochs. Required, positive.
	NEpochs int

	// NBatches is the number of batches per epoch. Zero means unknown: the
	// logger runs in indeterminate mode until the count is set or inferred
	// from the first completed epoch.
	NBatches int

	// LogInterval is the number of batches between renders. It affects
	// render cadence only, never aggregation. Zero means 1. The first and
	// last batch of an epoch always render.
	LogInterval int

	// Name labels the session (e.g. "Training", "Validation").
	Name string

	// NameStyle is the style token for the name.
	NameStyle string

	// Styles is the default style layer: scalar or pattern mapping.
	Styles config.Layer

	// Sizes is the default width layer: scalar or pattern mapping.
	Sizes config.Layer

	// Average is the default averaging-membership layer, usually built with
	// config.Keys.
	Average config.Layer

	// AverageScope picks the averaging window: per epoch or whole training.
	AverageScope metric.Scope

	// BoldKeys renders key names bold.
	BoldKeys bool

	// ShowBar and ShowTime are renderer hints carried on every Report.
	ShowBar  bool
	ShowTime bool

	// Silent suppresses rendering entirely; aggregation still runs.
	Silent bool

	// Diag receives structured diagnostics. Nil discards them.
	Diag log.Logger
}

// DefaultOptions returns Options with the library defaults filled in.
// Pass nBatches 0 when the per-epoch batch count is unknown.
func DefaultOptions(nEpochs, nBatches int) Options {
	return Options{
		NEpochs:     nEpochs,
		NBatches:    nBatches,
		LogInterval: 1,
		ShowBar:     true,
		ShowTime:    true,
	}
}

// OptionsFromFile loads defaults from a configuration file (and TRAINLOG_*
// environment variables) into Options. Values set in code afterwards win.
func OptionsFromFile(path string) (Options, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return Options{}, err
	}
	scope := metric.ScopeEpoch
	if cfg.AverageScope == "training" {
		scope = metric.ScopeTraining
	}
	return Options{
		NEpochs:      cfg.NEpochs,
		NBatches:     cfg.NBatches,
		LogInterval:  cfg.LogInterval,
		Name:         cfg.Name,
		NameStyle:    cfg.NameStyle,
		Styles:       cfg.StyleLayer(),
		Sizes:        cfg.SizeLayer(),
		Average:      cfg.AverageLayer(),
		AverageScope: scope,
		BoldKeys:     cfg.BoldKeys,
		ShowBar:      cfg.ShowBar,
		ShowTime:     cfg.ShowTime,
		Silent:       cfg.Silent,
	}, nil
}

// LogOption customizes a single Log call.
type LogOption func(*logCall)

type logCall struct {
	message string
	styles  config.Layer
	sizes   config.Layer
	average config.Layer
}

// WithMessage attaches a free-text message displayed verbatim under the rows.
func WithMessage(message string) LogOption {
	return func(c *logCall) { c.message = message }
}

// WithStyles sets the log-layer styles for this call.
func WithStyles(layer config.Layer) LogOption {
	return func(c *logCall) { c.styles = layer }
}

// WithSizes sets the log-layer widths for this call.
func WithSizes(layer config.Layer) LogOption {
	return func(c *logCall) { c.sizes = layer }
}

// WithAverage sets the log-layer averaging membership for this call.
func WithAverage(layer config.Layer) LogOption {
	return func(c *logCall) { c.average = layer }
}

// WithAverageKeys is shorthand for WithAverage(config.Keys(patterns...)).
func WithAverageKeys(patterns ...string) LogOption {
	return WithAverage(config.Keys(patterns...))
}
