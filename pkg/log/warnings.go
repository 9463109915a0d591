package log

import (
	stderrors "errors"
	"io"
	"os"

	"github.com/rs/zerolog"

	tlerrors "github.com/trainlog/trainlog/pkg/errors"
)

// InitWarnLogger routes the pkg/errors warning channel to a zerolog logger
// writing to w (stderr when nil). Error types implementing
// zerolog.LogObjectMarshaler are emitted as structured objects, so a
// ConfigError shows up with its attribute, key and reason as fields.
func InitWarnLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	tlerrors.SetZerologWarnFunc(func(warning error) {
		if obj := marshalerOf(warning); obj != nil {
			zl.Warn().EmbedObject(obj).Msg(warning.Error())
			return
		}
		zl.Warn().Err(warning).Msg("trainlog warning")
	})
	return zl
}

// marshalerOf walks the unwrap chain looking for a structured error,
// since constructors attach stack-trace wrappers around the concrete type.
func marshalerOf(err error) zerolog.LogObjectMarshaler {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if m, ok := e.(zerolog.LogObjectMarshaler); ok {
			return m
		}
	}
	return nil
}
