// Package metric holds per-batch logged values and the running sums behind
// epoch or whole-training averages. The store never drops a key once seen;
// boundaries only clear the running window.
package metric

import (
	"github.com/trainlog/trainlog/pkg/errors"
)

// Scope is the averaging window: reset every epoch or kept for the whole
// training. It is a construction-time choice consumed by ResetWindow.
type Scope int

const (
	// ScopeEpoch resets running averages at every epoch boundary.
	ScopeEpoch Scope = iota
	// ScopeTraining accumulates running averages across all epochs.
	ScopeTraining
)

func (s Scope) String() string {
	if s == ScopeTraining {
		return "training"
	}
	return "epoch"
}

// Entry is the running record for one logged key.
type Entry struct {
	Latest interface{}
	sum    float64
	count  int
}

// Mean returns the running mean and whether any averaged value was recorded
// in the current window.
func (e *Entry) Mean() (float64, bool) {
	if e.count == 0 {
		return 0, false
	}
	return e.sum / float64(e.count), true
}

// Count returns the number of averaged recordings in the current window.
func (e *Entry) Count() int { return e.count }

// KeyStat is one key's snapshot row: the latest value and the display value
// under averaging (the running mean when the window holds anything, the
// latest value otherwise, so division by zero cannot occur).
type KeyStat struct {
	Key    string
	Latest interface{}
	Mean   interface{}
}

// Store owns every MetricEntry for one logger instance. Keys keep their
// first-seen order so snapshot rows render deterministically.
type Store struct {
	horizon Scope
	entries map[string]*Entry
	order   []string
}

// NewStore creates a store averaging over the given horizon.
func NewStore(horizon Scope) *Store {
	return &Store{
		horizon: horizon,
		entries: make(map[string]*Entry),
	}
}

// Record stores value as the latest for key. When averaged is true the value
// joins the running window; a non-numeric value with averaging requested is a
// TypeKindError and nothing is mutated, not even the latest value, so the
// caller can retry without averaging.
func (s *Store) Record(key string, value interface{}, averaged bool) error {
	var num float64
	if averaged {
		n, ok := asFloat(value)
		if !ok {
			return errors.NewTypeKindError("Record", key, value, "numeric")
		}
		num = n
	}

	e, seen := s.entries[key]
	if !seen {
		e = &Entry{}
		s.entries[key] = e
		s.order = append(s.order, key)
	}
	e.Latest = value
	if averaged {
		e.sum += num
		e.count++
	}
	return nil
}

// Get returns the entry for key, if the key was ever logged.
func (s *Store) Get(key string) (*Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Snapshot returns one KeyStat per key ever seen, in first-seen order.
func (s *Store) Snapshot() []KeyStat {
	stats := make([]KeyStat, 0, len(s.order))
	for _, key := range s.order {
		e := s.entries[key]
		stat := KeyStat{Key: key, Latest: e.Latest, Mean: e.Latest}
		if mean, ok := e.Mean(); ok {
			stat.Mean = mean
		}
		stats = append(stats, stat)
	}
	return stats
}

// ResetWindow clears running sums for the given boundary. An epoch boundary
// is a no-op when the store averages over the whole training; a training
// boundary always clears. Latest values and the entries themselves persist.
func (s *Store) ResetWindow(boundary Scope) {
	if boundary == ScopeEpoch && s.horizon == ScopeTraining {
		return
	}
	for _, e := range s.entries {
		e.sum = 0
		e.count = 0
	}
}

// Clear drops every entry. Used by the orchestrator's Reset, which restarts
// the session from scratch rather than ending a window.
func (s *Store) Clear() {
	s.entries = make(map[string]*Entry)
	s.order = nil
}

// asFloat widens any numeric value to float64. Booleans and strings are not
// numeric: they are stored as latest values only.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// IsNumeric reports whether a value is eligible for averaging.
func IsNumeric(v interface{}) bool {
	_, ok := asFloat(v)
	return ok
}
