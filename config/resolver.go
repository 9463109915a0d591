package config

import (
	"github.com/trainlog/trainlog/pkg/errors"
)

// Resolve applies the five-step precedence for one key:
//
//  1. log layer scalar
//  2. log layer mapping match
//  3. default layer scalar
//  4. default layer mapping match
//  5. built-in default
//
// An empty mapping matches nothing and falls through, unlike an absent layer
// which is skipped without consideration. Resolution is per key with no
// cross-key interaction.
func Resolve(key string, logLayer, defaultLayer Layer, builtin interface{}) interface{} {
	if logLayer.IsScalar() {
		return logLayer.scalar
	}
	if logLayer.IsMapping() {
		if v, ok := logLayer.Match(key); ok {
			return v
		}
	}
	if defaultLayer.IsScalar() {
		return defaultLayer.scalar
	}
	if defaultLayer.IsMapping() {
		if v, ok := defaultLayer.Match(key); ok {
			return v
		}
	}
	return builtin
}

// Source pairs the two layers and the built-in fallback for one attribute
// kind. Attribute names the kind for diagnostics only.
type Source struct {
	Attribute string
	Log       Layer
	Default   Layer
	Builtin   interface{}
}

// Resolve returns the value chosen for key under the five-step precedence.
func (s Source) Resolve(key string) interface{} {
	return Resolve(key, s.Log, s.Default, s.Builtin)
}

// String resolves key to a string attribute. A value of the wrong type is a
// configuration error: it is reported and the built-in default is used.
func (s Source) String(key string) string {
	v := s.Resolve(key)
	if str, ok := v.(string); ok {
		return str
	}
	s.warnType(key, v, "string")
	return s.Builtin.(string)
}

// Int resolves key to a positive integer attribute. Whole float values are
// accepted since decoded configuration files may carry them; non-positive
// values are a configuration error and fall back like wrong-typed ones.
func (s Source) Int(key string) int {
	switch v := s.Resolve(key).(type) {
	case int:
		return s.positive(key, v)
	case int64:
		return s.positive(key, int(v))
	case float64:
		if v == float64(int(v)) {
			return s.positive(key, int(v))
		}
		s.warnType(key, v, "int")
	default:
		s.warnType(key, v, "int")
	}
	return s.Builtin.(int)
}

func (s Source) positive(key string, v int) int {
	if v > 0 {
		return v
	}
	errors.Warn(errors.NewConfigError(s.Attribute, key,
		"resolved value must be positive, falling back to built-in default"))
	return s.Builtin.(int)
}

// Bool resolves key to a boolean attribute.
func (s Source) Bool(key string) bool {
	v := s.Resolve(key)
	if b, ok := v.(bool); ok {
		return b
	}
	s.warnType(key, v, "bool")
	return s.Builtin.(bool)
}

func (s Source) warnType(key string, v interface{}, want string) {
	if v == s.Builtin {
		return
	}
	errors.Warn(errors.NewConfigError(s.Attribute, key,
		"resolved value is not a "+want+", falling back to built-in default"))
}
