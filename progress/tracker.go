// Package progress tracks epoch/batch position and estimates remaining time
// for a training loop. The tracker samples an injectable monotonic clock at
// call time; there are no background timers.
package progress

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/trainlog/trainlog/pkg/errors"
)

// State is the tracker's lifecycle position.
type State int

const (
	// StateNotStarted precedes the first NewEpoch.
	StateNotStarted State = iota
	// StateInEpoch accepts batches.
	StateInEpoch
	// StateBetweenEpochs means the epoch's batch budget is exhausted and the
	// next lifecycle call must be NewEpoch.
	StateBetweenEpochs
	// StateFinished is terminal: the last batch of the last epoch was logged.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateInEpoch:
		return "InEpoch"
	case StateBetweenEpochs:
		return "BetweenEpochs"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Snapshot is the render-ready view of progress at one instant. Fields with
// a Has twin are unavailable when the twin is false.
type Snapshot struct {
	State       State
	Epoch       int
	NEpochs     int
	Batch       int
	NBatches    int
	HasNBatches bool

	Fraction    float64
	HasFraction bool

	ElapsedTotal time.Duration
	ElapsedEpoch time.Duration

	EpochETA    time.Duration
	HasEpochETA bool

	GlobalETA    time.Duration
	HasGlobalETA bool

	// Phase advances once per batch across the whole training and drives the
	// cyclic indicator when no fraction is computable.
	Phase int
}

// Tracker owns the progress state for one logger instance. It is created at
// construction, mutated in place by lifecycle calls, and never reconstructed.
type Tracker struct {
	nEpochs  int
	nBatches int // 0 while unknown
	inferred bool

	state State
	epoch int // 1-based, 0 before the first epoch
	batch int // 1-based within the epoch, 0 before the first batch
	phase int

	trainStart time.Time
	epochStart time.Time
	history    []float64 // completed epoch durations, seconds

	now func() time.Time
}

// NewTracker creates a tracker for nEpochs epochs. Pass nBatches <= 0 when
// the number of batches per epoch is unknown; it can be supplied later via
// SetNBatches or inferred from the first completed epoch.
func NewTracker(nEpochs, nBatches int) (*Tracker, error) {
	if nEpochs < 1 {
		return nil, errors.NewValidationError("n_epochs", "must be positive", nEpochs)
	}
	if nBatches < 0 {
		nBatches = 0
	}
	return &Tracker{
		nEpochs:  nEpochs,
		nBatches: nBatches,
		now:      time.Now,
	}, nil
}

// SetClock replaces the time source. Tests use this to drive ETA math
// deterministically.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// State returns the current lifecycle state.
func (t *Tracker) State() State { return t.state }

// Epoch returns the 1-based current epoch, 0 before the first NewEpoch.
func (t *Tracker) Epoch() int { return t.epoch }

// Batch returns the 1-based current batch, 0 before the first NewBatch of
// each epoch.
func (t *Tracker) Batch() int { return t.batch }

// NEpochs returns the configured epoch count.
func (t *Tracker) NEpochs() int { return t.nEpochs }

// NBatches returns the per-epoch batch count and whether it is known.
func (t *Tracker) NBatches() (int, bool) { return t.nBatches, t.nBatches > 0 }

// Start records the global start time ahead of the first epoch, for callers
// that construct the logger long before the loop begins.
func (t *Tracker) Start() {
	t.trainStart = t.now()
}

// SetNBatches fixes the per-epoch batch count, typically from an iterable's
// length. Once known the count must not change mid-training.
func (t *Tracker) SetNBatches(n int) error {
	if n < 1 {
		return errors.NewValidationError("n_batches", "must be positive", n)
	}
	if t.nBatches > 0 && t.nBatches != n {
		return errors.NewUsageError("SetNBatches",
			fmt.Sprintf("n_batches is %d and cannot change mid-training", t.nBatches))
	}
	t.nBatches = n
	if t.state != StateNotStarted {
		t.inferred = true
	}
	return nil
}

// NewEpoch starts the next epoch. The first call records the training start
// time; later calls close out the finished epoch (appending its duration to
// the history and, when the batch count was unknown, inferring it from the
// finished epoch).
func (t *Tracker) NewEpoch() error {
	if t.state == StateFinished {
		return errors.NewStateError("NewEpoch", t.state.String())
	}
	now := t.now()
	if t.state == StateNotStarted {
		if t.trainStart.IsZero() {
			t.trainStart = now
		}
		t.epoch = 1
	} else {
		t.history = append(t.history, clampSeconds(now.Sub(t.epochStart)))
		if t.nBatches == 0 && t.batch > 0 {
			t.nBatches = t.batch
			t.inferred = true
		}
		t.epoch++
		t.batch = 0
	}
	t.epochStart = now
	t.state = StateInEpoch
	return nil
}

// NewBatch advances to the next batch of the current epoch. Calling it before
// any epoch, past the known batch count, or after completion is a usage
// error and leaves the counters untouched.
func (t *Tracker) NewBatch() error {
	switch t.state {
	case StateNotStarted:
		return errors.NewUsageError("NewBatch", "NewEpoch must be called before NewBatch")
	case StateFinished:
		return errors.NewStateError("NewBatch", t.state.String())
	case StateBetweenEpochs:
		return errors.NewUsageError("NewBatch",
			fmt.Sprintf("epoch %d already ran its %d batches, call NewEpoch", t.epoch, t.nBatches))
	}
	if t.nBatches > 0 && t.batch >= t.nBatches {
		return errors.NewUsageError("NewBatch",
			fmt.Sprintf("batch %d exceeds n_batches %d", t.batch+1, t.nBatches))
	}
	t.batch++
	t.phase++
	return nil
}

// BatchLogged tells the tracker the current batch was logged. When that was
// the last batch of the last epoch the tracker finishes; when it was the last
// batch of an intermediate epoch the tracker parks between epochs. Reports
// whether the terminal state was reached.
func (t *Tracker) BatchLogged() bool {
	if t.state != StateInEpoch || t.nBatches == 0 || t.batch != t.nBatches {
		return t.state == StateFinished
	}
	if t.epoch >= t.nEpochs {
		t.history = append(t.history, clampSeconds(t.now().Sub(t.epochStart)))
		t.state = StateFinished
		return true
	}
	t.state = StateBetweenEpochs
	return false
}

// Snapshot samples the clock and computes the render-ready progress view.
func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		State:   t.state,
		Epoch:   t.epoch,
		NEpochs: t.nEpochs,
		Batch:   t.batch,
		Phase:   t.phase,
	}
	if t.state == StateNotStarted {
		return s
	}
	now := t.now()
	s.ElapsedTotal = clampDuration(now.Sub(t.trainStart))
	s.ElapsedEpoch = clampDuration(now.Sub(t.epochStart))

	if t.nBatches > 0 {
		s.NBatches = t.nBatches
		s.HasNBatches = true
		s.Fraction = float64(t.batch) / float64(t.nBatches)
		if s.Fraction > 1 {
			s.Fraction = 1
		}
		s.HasFraction = true

		if t.batch > 0 {
			remaining := float64(s.ElapsedEpoch) * float64(t.nBatches-t.batch) / float64(t.batch)
			s.EpochETA = clampDuration(time.Duration(remaining))
			s.HasEpochETA = true
		} else if t.inferred && len(t.history) > 0 {
			// Before the first batch of an epoch the within-epoch formula is
			// undefined; with an inferred batch count the previous epoch's
			// duration serves as the baseline estimate.
			s.EpochETA = secondsToDuration(t.history[len(t.history)-1])
			s.HasEpochETA = true
		}
	}

	if len(t.history) > 0 {
		meanEpoch := stat.Mean(t.history, nil)
		remainingCurrent := secondsToDuration(meanEpoch)
		if s.HasEpochETA {
			remainingCurrent = s.EpochETA
		}
		fullEpochsLeft := t.nEpochs - t.epoch
		if fullEpochsLeft < 0 {
			fullEpochsLeft = 0
		}
		if t.state == StateFinished {
			remainingCurrent = 0
		}
		s.GlobalETA = remainingCurrent + time.Duration(fullEpochsLeft)*secondsToDuration(meanEpoch)
		s.HasGlobalETA = true
	}
	return s
}

// EpochDurations returns a copy of the completed epoch durations.
func (t *Tracker) EpochDurations() []time.Duration {
	out := make([]time.Duration, len(t.history))
	for i, sec := range t.history {
		out[i] = secondsToDuration(sec)
	}
	return out
}

func clampSeconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Seconds()
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
