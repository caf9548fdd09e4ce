// Package ref normalizes the heterogeneous record references accepted by the
// boundary (raw id strings, invoice numbers, decoded JSON wrappers) into one
// of two canonical forms: a 24-hex-character document id or an integer
// invoice number.
package ref

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the canonical forms a reference can normalize to.
type Kind int

const (
	KindInvalid Kind = iota
	KindID
	KindNumber
)

// Ref is a normalized record reference.
type Ref struct {
	Kind   Kind
	ID     string
	Number int64
}

var (
	idPattern       = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	idExtractOnce   = regexp.MustCompile(`[0-9a-fA-F]{24}`)
	allDigitPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Normalize converts an arbitrary reference value into a canonical Ref.
// The second return value is false when the input cannot be normalized;
// callers must reject the operation as an invalid reference.
func Normalize(v any) (Ref, bool) {
	switch val := v.(type) {
	case nil:
		return Ref{}, false
	case string:
		return normalizeString(val)
	case json.Number:
		return normalizeString(val.String())
	case int:
		return normalizeNumber(int64(val))
	case int32:
		return normalizeNumber(int64(val))
	case int64:
		return normalizeNumber(val)
	case float64:
		if val != math.Trunc(val) || val < 0 || val > math.MaxInt64 {
			return Ref{}, false
		}
		return normalizeNumber(int64(val))
	case map[string]any:
		return normalizeObject(val)
	}
	// A wrapper type whose string form carries the id (e.g. a debug print).
	if s, ok := v.(fmt.Stringer); ok {
		return normalizeString(s.String())
	}
	return Ref{}, false
}

func normalizeNumber(n int64) (Ref, bool) {
	if n < 0 {
		return Ref{}, false
	}
	return Ref{Kind: KindNumber, Number: n}, true
}

// normalizeString applies the string rules in precedence order: pure digits
// are an invoice number regardless of length, an exact 24-hex match passes
// through verbatim, and otherwise an embedded 24-hex run is extracted.
func normalizeString(s string) (Ref, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, false
	}
	if allDigitPattern.MatchString(s) {
		// Digits are always an invoice number, never an id, so a run of
		// digits too long for int64 fails normalization outright.
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Ref{}, false
		}
		return Ref{Kind: KindNumber, Number: n}, true
	}
	if idPattern.MatchString(s) {
		return Ref{Kind: KindID, ID: s}, true
	}
	if run := idExtractOnce.FindString(s); run != "" {
		return Ref{Kind: KindID, ID: run}, true
	}
	return Ref{}, false
}

// normalizeObject unwraps decoded JSON objects via their _id field, then id,
// recursively.
func normalizeObject(m map[string]any) (Ref, bool) {
	if inner, ok := m["_id"]; ok {
		if r, ok := Normalize(inner); ok {
			return r, true
		}
	}
	if inner, ok := m["id"]; ok {
		if r, ok := Normalize(inner); ok {
			return r, true
		}
	}
	return Ref{}, false
}

// IsID reports whether s is a syntactically valid 24-hex document id.
func IsID(s string) bool {
	return idPattern.MatchString(s)
}
