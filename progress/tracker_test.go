package progress

import (
	"testing"
	"time"

	"github.com/trainlog/trainlog/pkg/errors"
)

// fakeClock drives the tracker deterministically.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(t *testing.T, nEpochs, nBatches int) (*Tracker, *fakeClock) {
	t.Helper()
	tr, err := NewTracker(nEpochs, nBatches)
	if err != nil {
		t.Fatal(err)
	}
	clock := newFakeClock()
	tr.SetClock(clock.now)
	return tr, clock
}

func TestNewTrackerValidation(t *testing.T) {
	if _, err := NewTracker(0, 10); err == nil {
		t.Error("n_epochs 0 should be rejected")
	}
	var valErr *errors.ValidationError
	_, err := NewTracker(-1, 10)
	if !errors.As(err, &valErr) {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestBatchBeforeEpochIsUsageError(t *testing.T) {
	tr, _ := newTestTracker(t, 3, 10)

	err := tr.NewBatch()
	if err == nil {
		t.Fatal("NewBatch before NewEpoch must fail")
	}
	var usageErr *errors.UsageError
	if !errors.As(err, &usageErr) {
		t.Errorf("expected *UsageError, got %T", err)
	}
	if tr.Batch() != 0 {
		t.Error("failed NewBatch must not increment the counter")
	}
}

func TestEpochAndBatchCounters(t *testing.T) {
	tr, _ := newTestTracker(t, 2, 3)

	if err := tr.NewEpoch(); err != nil {
		t.Fatal(err)
	}
	if tr.Epoch() != 1 || tr.Batch() != 0 {
		t.Errorf("after first NewEpoch: epoch=%d batch=%d", tr.Epoch(), tr.Batch())
	}
	for i := 1; i <= 3; i++ {
		if err := tr.NewBatch(); err != nil {
			t.Fatal(err)
		}
		if tr.Batch() != i {
			t.Errorf("batch = %d, want %d", tr.Batch(), i)
		}
	}
	if err := tr.NewEpoch(); err != nil {
		t.Fatal(err)
	}
	if tr.Epoch() != 2 || tr.Batch() != 0 {
		t.Errorf("after second NewEpoch: epoch=%d batch=%d, batch must reset", tr.Epoch(), tr.Batch())
	}
}

func TestBatchOverflowSurfacedNotCrashed(t *testing.T) {
	tr, _ := newTestTracker(t, 1, 2)
	_ = tr.NewEpoch()
	_ = tr.NewBatch()
	_ = tr.NewBatch()

	err := tr.NewBatch()
	if err == nil {
		t.Fatal("batch past n_batches must fail")
	}
	var usageErr *errors.UsageError
	if !errors.As(err, &usageErr) {
		t.Errorf("expected *UsageError, got %T", err)
	}
	if tr.Batch() != 2 {
		t.Errorf("batch = %d, the overflow must not increment", tr.Batch())
	}
}

func TestEpochETAKnownBatches(t *testing.T) {
	// Logging batch 4 of 20 after 2s in the epoch projects 8s remaining.
	tr, clock := newTestTracker(t, 3, 20)
	_ = tr.NewEpoch()
	for i := 0; i < 4; i++ {
		_ = tr.NewBatch()
	}
	clock.advance(2 * time.Second)

	s := tr.Snapshot()
	if !s.HasEpochETA {
		t.Fatal("epoch ETA should be available")
	}
	if s.EpochETA != 8*time.Second {
		t.Errorf("EpochETA = %v, want 8s", s.EpochETA)
	}
	if !s.HasFraction || s.Fraction != 0.2 {
		t.Errorf("Fraction = %v (%v), want 0.2", s.Fraction, s.HasFraction)
	}
	if s.HasGlobalETA {
		t.Error("global ETA must be unavailable before the first epoch completes")
	}
}

func TestEpochETAUndefinedAtBatchZero(t *testing.T) {
	tr, _ := newTestTracker(t, 3, 20)
	_ = tr.NewEpoch()
	s := tr.Snapshot()
	if s.HasEpochETA {
		t.Error("epoch ETA is undefined before the first batch")
	}
}

func TestGlobalETAAfterCompletedEpoch(t *testing.T) {
	tr, clock := newTestTracker(t, 3, 10)
	_ = tr.NewEpoch()
	for i := 0; i < 10; i++ {
		_ = tr.NewBatch()
	}
	clock.advance(10 * time.Second)
	_ = tr.NewEpoch() // closes epoch 1 at 10s

	for i := 0; i < 5; i++ {
		_ = tr.NewBatch()
	}
	clock.advance(5 * time.Second)

	s := tr.Snapshot()
	if !s.HasEpochETA || s.EpochETA != 5*time.Second {
		t.Errorf("EpochETA = %v (%v), want 5s", s.EpochETA, s.HasEpochETA)
	}
	if !s.HasGlobalETA {
		t.Fatal("global ETA should be available after a completed epoch")
	}
	// 5s left in epoch 2 plus one full epoch at the 10s historical mean.
	if s.GlobalETA != 15*time.Second {
		t.Errorf("GlobalETA = %v, want 15s", s.GlobalETA)
	}
}

func TestIndeterminateMode(t *testing.T) {
	tr, clock := newTestTracker(t, 2, 0)
	_ = tr.NewEpoch()
	for i := 0; i < 20; i++ {
		_ = tr.NewBatch()
	}
	clock.advance(10 * time.Second)

	s := tr.Snapshot()
	if s.HasNBatches || s.HasFraction || s.HasEpochETA || s.HasGlobalETA {
		t.Error("nothing is estimable before the first epoch completes")
	}
	if s.Phase != 20 {
		t.Errorf("Phase = %d, want 20", s.Phase)
	}

	// Completing epoch 1 infers n_batches and unlocks estimates.
	_ = tr.NewEpoch()
	n, known := tr.NBatches()
	if !known || n != 20 {
		t.Errorf("NBatches = %d (%v), want inferred 20", n, known)
	}

	s = tr.Snapshot()
	if !s.HasEpochETA || s.EpochETA != 10*time.Second {
		t.Errorf("EpochETA = %v (%v), want the 10s previous-epoch baseline", s.EpochETA, s.HasEpochETA)
	}
	if !s.HasFraction || s.Fraction != 0 {
		t.Errorf("Fraction = %v (%v), want 0 now that n_batches is known", s.Fraction, s.HasFraction)
	}
	if !s.HasGlobalETA || s.GlobalETA != 10*time.Second {
		t.Errorf("GlobalETA = %v (%v), want 10s for the one remaining epoch", s.GlobalETA, s.HasGlobalETA)
	}
}

func TestSetNBatches(t *testing.T) {
	tr, _ := newTestTracker(t, 2, 0)
	if err := tr.SetNBatches(15); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetNBatches(15); err != nil {
		t.Error("setting the same count again is allowed")
	}
	if err := tr.SetNBatches(16); err == nil {
		t.Error("n_batches must not change once known")
	}
	if err := tr.SetNBatches(0); err == nil {
		t.Error("non-positive n_batches is invalid")
	}
}

func TestFinishedIsTerminal(t *testing.T) {
	tr, clock := newTestTracker(t, 1, 2)
	_ = tr.NewEpoch()
	_ = tr.NewBatch()
	clock.advance(time.Second)
	if tr.BatchLogged() {
		t.Error("not finished after batch 1 of 2")
	}
	_ = tr.NewBatch()
	clock.advance(time.Second)
	if !tr.BatchLogged() {
		t.Error("last batch of last epoch must finish the tracker")
	}
	if tr.State() != StateFinished {
		t.Errorf("State = %v, want Finished", tr.State())
	}

	var stateErr *errors.StateError
	if err := tr.NewEpoch(); !errors.As(err, &stateErr) {
		t.Errorf("NewEpoch after Finished: expected *StateError, got %v", err)
	}
	if err := tr.NewBatch(); !errors.As(err, &stateErr) {
		t.Errorf("NewBatch after Finished: expected *StateError, got %v", err)
	}
}

func TestBetweenEpochsParking(t *testing.T) {
	tr, _ := newTestTracker(t, 2, 2)
	_ = tr.NewEpoch()
	_ = tr.NewBatch()
	_ = tr.NewBatch()
	tr.BatchLogged()

	if tr.State() != StateBetweenEpochs {
		t.Fatalf("State = %v, want BetweenEpochs after the epoch's last logged batch", tr.State())
	}
	var usageErr *errors.UsageError
	if err := tr.NewBatch(); !errors.As(err, &usageErr) {
		t.Errorf("NewBatch between epochs: expected *UsageError, got %v", err)
	}
	if err := tr.NewEpoch(); err != nil {
		t.Errorf("NewEpoch re-enters the loop: %v", err)
	}
	if tr.State() != StateInEpoch {
		t.Errorf("State = %v, want InEpoch", tr.State())
	}
}

func TestClockRegressionClampsToZero(t *testing.T) {
	tr, clock := newTestTracker(t, 2, 10)
	_ = tr.NewEpoch()
	_ = tr.NewBatch()
	clock.t = clock.t.Add(-time.Minute)

	s := tr.Snapshot()
	if s.ElapsedEpoch != 0 || s.ElapsedTotal != 0 {
		t.Errorf("elapsed = %v/%v, regressions must clamp to zero", s.ElapsedEpoch, s.ElapsedTotal)
	}
}

func TestEpochDurationsHistory(t *testing.T) {
	tr, clock := newTestTracker(t, 3, 1)
	_ = tr.NewEpoch()
	clock.advance(3 * time.Second)
	_ = tr.NewEpoch()
	clock.advance(5 * time.Second)
	_ = tr.NewEpoch()

	durations := tr.EpochDurations()
	if len(durations) != 2 {
		t.Fatalf("history length = %d, want 2", len(durations))
	}
	if durations[0] != 3*time.Second || durations[1] != 5*time.Second {
		t.Errorf("history = %v, want [3s 5s]", durations)
	}
}
