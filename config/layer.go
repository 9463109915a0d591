// Package config implements the layered, pattern-matched configuration scheme
// behind per-key display attributes. Each attribute kind (style, width,
// averaging membership) is described by two layers, a log-call override and a
// constructor default, plus a built-in fallback. A layer is either absent, a
// scalar applied to every key, or an ordered pattern-to-value mapping where
// entries double as exact keys and regular expressions.
package config

import (
	"regexp"

	"github.com/trainlog/trainlog/pkg/errors"
)

type layerKind int

const (
	kindAbsent layerKind = iota
	kindScalar
	kindMapping
)

// Entry binds one pattern to a value inside a mapping layer. The pattern is
// tried as an exact key first and as a regular expression otherwise.
type Entry struct {
	Pattern string
	Value   interface{}

	re *regexp.Regexp // nil when Pattern does not compile
}

// E is shorthand for a mapping entry.
func E(pattern string, value interface{}) Entry {
	return Entry{Pattern: pattern, Value: value}
}

// Layer is one configuration input level for a single attribute kind.
// The zero value is the absent layer: a caller that does not pass a layer is
// distinct from one that passes an empty mapping.
type Layer struct {
	kind    layerKind
	scalar  interface{}
	entries []Entry
}

// Absent returns the explicitly-absent layer.
func Absent() Layer {
	return Layer{}
}

// Scalar returns a layer applying v to every key.
func Scalar(v interface{}) Layer {
	return Layer{kind: kindScalar, scalar: v}
}

// Mapping builds a mapping layer. Entry order is declaration order and
// drives precedence: among regex matches the last one wins. A pattern that
// does not compile as a regular expression is kept as an exact-only literal
// and reported through the warning channel, never raised.
func Mapping(entries ...Entry) Layer {
	compiled := make([]Entry, len(entries))
	for i, e := range entries {
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			errors.Warn(errors.NewConfigError("pattern", e.Pattern,
				"not a valid regular expression, treated as literal"))
		} else {
			e.re = re
		}
		compiled[i] = e
	}
	return Layer{kind: kindMapping, entries: compiled}
}

// Keys builds a mapping layer marking every pattern true. This is the shape
// of the averaging-key set: membership resolution reuses the same precedence
// as value selection.
func Keys(patterns ...string) Layer {
	entries := make([]Entry, len(patterns))
	for i, p := range patterns {
		entries[i] = Entry{Pattern: p, Value: true}
	}
	return Mapping(entries...)
}

// IsAbsent reports whether the layer was not supplied.
func (l Layer) IsAbsent() bool { return l.kind == kindAbsent }

// IsScalar reports whether the layer holds a single value for every key.
func (l Layer) IsScalar() bool { return l.kind == kindScalar }

// IsMapping reports whether the layer holds an ordered pattern mapping.
func (l Layer) IsMapping() bool { return l.kind == kindMapping }
