// Package log defines standard attribute keys for training instrumentation.
//
// Using these keys consistently makes the diagnostics stream filterable: every
// record about the same session, epoch, or metric key carries the same
// attribute names.

package log

// Session and lifecycle context.
const (
	// SessionKey identifies the logger instance (e.g. "train", "val").
	SessionKey = "session.name"

	// OperationKey names the lifecycle call being performed.
	// Standard values: "new_epoch", "new_batch", "log", "detach", "reset"
	OperationKey = "session.operation"

	// StateKey carries the tracker state at the time of the record.
	StateKey = "session.state"
)

// Progress context.
const (
	// EpochKey is the 1-based index of the current epoch.
	EpochKey = "progress.epoch"

	// BatchKey is the 1-based index of the current batch within the epoch.
	BatchKey = "progress.batch"

	// NEpochsKey is the configured number of epochs.
	NEpochsKey = "progress.n_epochs"

	// NBatchesKey is the number of batches per epoch, when known.
	NBatchesKey = "progress.n_batches"
)

// Metric and configuration context.
const (
	// MetricKey is the logged key a record refers to.
	MetricKey = "metric.key"

	// AttributeKey names the display attribute being resolved
	// ("style", "width", "average").
	AttributeKey = "config.attribute"
)
