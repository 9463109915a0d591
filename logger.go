package trainlog

import (
	"fmt"
	"sort"

	"github.com/trainlog/trainlog/config"
	"github.com/trainlog/trainlog/metric"
	"github.com/trainlog/trainlog/pkg/errors"
	"github.com/trainlog/trainlog/pkg/log"
	"github.com/trainlog/trainlog/progress"
)

// Row is one render-ready cell: a key with its formatted value and resolved
// display attributes.
type Row struct {
	Key   string
	Value string
	Style string
	Width int
	Bold  bool
}

// Report is what one Log call hands the renderer: ordered rows, a progress
// snapshot, and the display hints resolved for this call. The renderer
// consumes only this structure, never the logger's internals.
type Report struct {
	Name      string
	NameStyle string

	Rows     []Row
	Progress progress.Snapshot

	// Message is displayed verbatim under the rows when non-empty.
	Message string

	ShowBar  bool
	ShowTime bool

	// ShouldRender reflects the log-interval cadence. Aggregation already
	// happened either way.
	ShouldRender bool

	// FreshRegion tells the renderer to start a new live region instead of
	// repainting the previous one (after Detach or an epoch boundary).
	FreshRegion bool
}

// Logger orchestrates progress tracking, value aggregation and attribute
// resolution for one training session. It is not safe for concurrent use;
// run independent sessions on independent Logger instances instead.
type Logger struct {
	opts    Options
	tracker *progress.Tracker
	store   *metric.Store
	diag    log.Logger

	attached  bool
	batchKeys map[string]struct{}
}

// New creates a Logger. NEpochs must be positive; a zero LogInterval
// defaults to 1.
func New(opts Options) (*Logger, error) {
	if opts.LogInterval == 0 {
		opts.LogInterval = 1
	}
	if opts.LogInterval < 1 {
		return nil, errors.NewValidationError("log_interval", "must be at least 1", opts.LogInterval)
	}
	tracker, err := progress.NewTracker(opts.NEpochs, opts.NBatches)
	if err != nil {
		return nil, err
	}
	diag := opts.Diag
	if diag == nil {
		diag = log.Discard()
	}
	if opts.Name != "" {
		diag = diag.With(log.SessionKey, opts.Name)
	}
	return &Logger{
		opts:    opts,
		tracker: tracker,
		store:   metric.NewStore(opts.AverageScope),
		diag:    diag,
	}, nil
}

// Start records the training start time, for callers that construct the
// logger well before the loop begins. Optional: the first NewEpoch records
// it otherwise.
func (l *Logger) Start() {
	l.tracker.Start()
}

// NewEpoch starts the next epoch: the epoch counter advances, the batch
// counter resets, and epoch-scope running averages clear. The previous
// epoch's rendered block is left on screen and a fresh region begins.
func (l *Logger) NewEpoch() (err error) {
	defer errors.Recover(&err, "NewEpoch")
	if err := l.tracker.NewEpoch(); err != nil {
		return err
	}
	l.store.ResetWindow(metric.ScopeEpoch)
	l.batchKeys = nil
	l.attached = false
	l.diag.Debug("epoch started",
		log.OperationKey, "new_epoch",
		log.EpochKey, l.tracker.Epoch(),
		log.NEpochsKey, l.opts.NEpochs,
	)
	return nil
}

// NewBatch starts the next batch of the current epoch.
func (l *Logger) NewBatch() (err error) {
	defer errors.Recover(&err, "NewBatch")
	if err := l.tracker.NewBatch(); err != nil {
		return err
	}
	l.batchKeys = make(map[string]struct{})
	return nil
}

// SetNBatches fixes the per-epoch batch count mid-training, typically from
// an iterable's length. Once known the count cannot change.
func (l *Logger) SetNBatches(n int) error {
	if err := l.tracker.SetNBatches(n); err != nil {
		return err
	}
	l.diag.Debug("n_batches set",
		log.OperationKey, "set_n_batches",
		log.NBatchesKey, n,
	)
	return nil
}

// Log records values for the current batch and assembles the render report.
//
// Per key, the display attributes (style, width, averaging membership) are
// resolved fresh through the five-step precedence; nothing is cached across
// calls since layers may change call to call. Logging the same key again in
// the same batch overwrites its latest value and still counts once more
// toward the running average. Calls within one batch merge: the report
// carries every key logged since NewBatch.
func (l *Logger) Log(values map[string]interface{}, opts ...LogOption) (report *Report, err error) {
	defer errors.Recover(&err, "Log")

	state := l.tracker.State()
	if state == progress.StateFinished {
		return nil, errors.NewStateError("Log", state.String())
	}
	if l.tracker.Epoch() == 0 {
		return nil, errors.NewUsageError("Log", "NewEpoch must be called before logging")
	}
	if l.tracker.Batch() == 0 {
		return nil, errors.NewUsageError("Log", "NewBatch must be called before logging")
	}

	var call logCall
	for _, opt := range opts {
		opt(&call)
	}

	styles := config.Source{Attribute: "style", Log: call.styles, Default: l.opts.Styles, Builtin: DefaultStyle}
	widths := config.Source{Attribute: "width", Log: call.sizes, Default: l.opts.Sizes, Builtin: DefaultWidth}
	average := config.Source{Attribute: "average", Log: call.average, Default: l.opts.Average, Builtin: false}

	// Record in sorted key order so first-seen row order is deterministic
	// when several new keys arrive in one call.
	averagedByKey := make(map[string]bool, len(values))
	for _, key := range sortedKeys(values) {
		value := values[key]
		isAveraged := average.Bool(key)
		if isAveraged && !metric.IsNumeric(value) {
			errors.Warn(errors.NewConfigError("average", key,
				fmt.Sprintf("non-numeric value %T cannot be averaged, storing latest only", value)))
			l.diag.Debug("averaging skipped for non-numeric value",
				log.OperationKey, "log",
				log.MetricKey, key,
				log.AttributeKey, "average",
			)
			isAveraged = false
		}
		if err := l.store.Record(key, value, isAveraged); err != nil {
			return nil, err
		}
		averagedByKey[key] = isAveraged
		l.batchKeys[key] = struct{}{}
	}

	rows := make([]Row, 0, len(l.batchKeys))
	for _, stat := range l.store.Snapshot() {
		if _, inBatch := l.batchKeys[stat.Key]; !inBatch {
			continue
		}
		isAveraged, resolved := averagedByKey[stat.Key]
		if !resolved {
			// Key from an earlier call in this batch: membership resolves
			// fresh under this call's layers.
			isAveraged = average.Bool(stat.Key)
		}
		display := stat.Latest
		if isAveraged {
			display = stat.Mean
		}
		width := widths.Int(stat.Key)
		rows = append(rows, Row{
			Key:   stat.Key,
			Value: formatValue(display, width),
			Style: styles.String(stat.Key),
			Width: width,
			Bold:  l.opts.BoldKeys,
		})
	}

	snapshot := l.tracker.Snapshot()
	report = &Report{
		Name:         l.opts.Name,
		NameStyle:    l.opts.NameStyle,
		Rows:         rows,
		Progress:     snapshot,
		Message:      call.message,
		ShowBar:      l.opts.ShowBar,
		ShowTime:     l.opts.ShowTime,
		ShouldRender: l.shouldRender(snapshot),
		FreshRegion:  !l.attached,
	}
	l.attached = true

	if l.tracker.BatchLogged() {
		l.diag.Debug("training finished",
			log.OperationKey, "log",
			log.StateKey, l.tracker.State().String(),
			log.EpochKey, snapshot.Epoch,
			log.BatchKey, snapshot.Batch,
		)
	}
	return report, nil
}

// Detach releases the live render region without discarding any state.
// Plain output can be interleaved; the next Log begins a fresh region.
func (l *Logger) Detach() {
	l.attached = false
	l.diag.Debug("detached", log.OperationKey, "detach")
}

// Reset restarts the session from scratch: counters, elapsed history and
// every recorded value are dropped while configuration is kept.
func (l *Logger) Reset() error {
	tracker, err := progress.NewTracker(l.opts.NEpochs, l.opts.NBatches)
	if err != nil {
		return err
	}
	l.tracker = tracker
	l.store.Clear()
	l.batchKeys = nil
	l.attached = false
	l.diag.Debug("reset", log.OperationKey, "reset")
	return nil
}

// Snapshot returns the current progress view without logging anything.
func (l *Logger) Snapshot() progress.Snapshot {
	return l.tracker.Snapshot()
}

// Finished reports whether the session reached its terminal state.
func (l *Logger) Finished() bool {
	return l.tracker.State() == progress.StateFinished
}

// shouldRender implements the log-interval cadence: every LogInterval-th
// batch, plus always the first and the known last batch of an epoch.
func (l *Logger) shouldRender(s progress.Snapshot) bool {
	if l.opts.Silent {
		return false
	}
	if s.Batch%l.opts.LogInterval == 0 || s.Batch == 1 {
		return true
	}
	return s.HasNBatches && s.Batch == s.NBatches
}

// formatValue renders a value for display. Numeric values are truncated to
// width characters and right-padded so columns keep a stable width; strings
// and booleans pass through untouched.
func formatValue(v interface{}, width int) string {
	if !metric.IsNumeric(v) {
		return fmt.Sprintf("%v", v)
	}
	s := fmt.Sprintf("%v", v)
	runes := []rune(s)
	if len(runes) > width {
		runes = runes[:width]
	}
	for len(runes) < width {
		runes = append(runes, ' ')
	}
	return string(runes)
}

func sortedKeys(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
