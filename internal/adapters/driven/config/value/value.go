// Package value converts loosely typed configuration values. TOML decoding
// yields int64, float64 and []any, settings written from the CLI arrive as
// Go ints and strings, and users sometimes quote numbers by hand. Both
// config stores read through these helpers so they agree on all of that.
package value

import (
	"math"
	"strconv"
	"strings"
)

// String returns v when it is a string, else "".
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int converts integers, whole floats and numeric strings. Anything else is 0.
func Int(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// Float converts numbers and numeric strings. Anything else is 0.
func Float(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

// Bool converts booleans and strconv.ParseBool strings. Anything else is false.
func Bool(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// Strings returns the string elements of an array, skipping the rest.
// Non-arrays give nil.
func Strings(v any) []string {
	switch v := v.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
