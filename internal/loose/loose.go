// Package loose classifies loosely-typed JSON values at the ingestion boundary.
//
// Manifests and snapshots are produced by external tools and may carry
// arbitrary values where strings, mappings or sequences are expected. Rather
// than coercing silently wherever a value is used, every field is classified
// exactly once into a Field that is either Valid (with a typed value) or
// Invalid, and scalars are turned into strings by the single explicit rule in
// String.
package loose

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Field is a classified value: Valid reports whether the raw JSON had the
// expected shape. An Invalid field always carries the zero Value.
type Field[T any] struct {
	Value T
	Valid bool
}

// ValidField wraps v as a Valid field.
func ValidField[T any](v T) Field[T] {
	return Field[T]{Value: v, Valid: true}
}

// Pair is one key/value entry of a string mapping.
type Pair struct {
	Key   string
	Value string
}

// String coerces any JSON value to its canonical string form:
//
//   - strings are returned unchanged
//   - integers keep their literal digits; other numbers use the shortest
//     float representation and always carry a fraction or an exponent
//     ("1.0" stays "1.0", "1.50" becomes "1.5", "1e3" becomes "1000.0")
//   - booleans become "true" or "false"
//   - null and missing values become ""
//   - objects and arrays become their compact JSON text
func String(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		if isIntegerLiteral(r.Raw) {
			return r.Raw
		}
		return formatFloat(r.Num)
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.JSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(r.Raw)); err != nil {
			return r.Raw
		}
		return buf.String()
	default:
		return ""
	}
}

// formatFloat renders f in fixed notation for magnitudes in [1e-4, 1e16) and
// in exponent notation otherwise. Fixed output keeps a ".0" for whole values
// so that a float never reads as an integer.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func isIntegerLiteral(raw string) bool {
	if raw == "" {
		return false
	}
	i := 0
	if raw[0] == '-' {
		i++
	}
	if i == len(raw) {
		return false
	}
	for ; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return false
		}
	}
	return true
}

// Pairs classifies r as a string mapping. Entries keep document order and
// every value is coerced with String. A key repeated in the source keeps its
// first position and its last value, as a JSON decoder would.
func Pairs(r gjson.Result) Field[[]Pair] {
	if !r.IsObject() {
		return Field[[]Pair]{}
	}
	pairs := []Pair{}
	index := map[string]int{}
	r.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if i, ok := index[k]; ok {
			pairs[i].Value = String(value)
			return true
		}
		index[k] = len(pairs)
		pairs = append(pairs, Pair{Key: k, Value: String(value)})
		return true
	})
	return ValidField(pairs)
}

// Strings classifies r as a sequence of strings. A lone string is a
// one-element sequence; array elements are coerced with String. Anything
// else, including a missing value, is Invalid.
func Strings(r gjson.Result) Field[[]string] {
	switch {
	case r.Type == gjson.String:
		return ValidField([]string{r.Str})
	case r.IsArray():
		out := []string{}
		r.ForEach(func(_, value gjson.Result) bool {
			out = append(out, String(value))
			return true
		})
		return ValidField(out)
	default:
		return Field[[]string]{}
	}
}

// Truthy reports whether r holds a non-empty value: a non-empty string,
// object or array, a non-zero number, or true. Missing values and null are
// not truthy.
func Truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		nonEmpty := false
		r.ForEach(func(_, _ gjson.Result) bool {
			nonEmpty = true
			return false
		})
		return nonEmpty
	default:
		return false
	}
}

// Object reports whether r is a JSON object with at least one member.
func Object(r gjson.Result) bool {
	if !r.IsObject() {
		return false
	}
	nonEmpty := false
	r.ForEach(func(_, _ gjson.Result) bool {
		nonEmpty = true
		return false
	})
	return nonEmpty
}
