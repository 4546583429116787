// Package encoding implements the Canonical Encoder: the determinism
// primitive every other DNSC component builds on (spec.md §4.A). Given a
// value built from the small recursively-defined domain described below,
// Encode produces byte-identical output across runs, platforms, and
// insertion orders, and ContentHash wraps that output in SHA-256.
package encoding

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the closed set of domain value shapes the encoder accepts.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindComplex
	KindSeq
	KindSet
	KindMap
)

// Value is a node in the recursively-defined domain type the encoder
// canonicalizes: ordered mapping, ordered sequence, set, string, integer,
// finite real, boolean, tagged-complex {re, im}, or null.
type Value struct {
	kind Kind

	b      bool
	i      int64
	r      float64
	s      string
	re, im float64
	seq    []Value
	m      map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Real wraps a finite floating-point number. NaN and ±Inf are accepted
// here but rejected at Encode time with InvalidValueKind, so that callers
// building a Value tree never need to pre-validate every leaf.
func Real(f float64) Value { return Value{kind: KindReal, r: f} }

// String wraps a UTF-8 string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Complex wraps a tagged complex number, encoded as {"im": ..., "re": ...}.
func Complex(re, im float64) Value { return Value{kind: KindComplex, re: re, im: im} }

// Seq wraps an ordered sequence; element order is preserved verbatim.
func Seq(items ...Value) Value { return Value{kind: KindSeq, seq: items} }

// Set wraps an unordered collection; members are canonicalized and emitted
// in sorted order regardless of the order passed here.
func Set(items ...Value) Value { return Value{kind: KindSet, seq: items} }

// Map wraps an ordered mapping; keys are emitted in code-point-ascending
// order regardless of Go's randomized map iteration order.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

const realPrecision = 10

// InvalidValueKindError is returned by Encode when a value cannot be
// represented deterministically.
type InvalidValueKindError struct {
	Kind string
}

func (e *InvalidValueKindError) Error() string {
	return "invalid value kind for canonical encoding: " + e.Kind
}

// Encode serializes v into the canonical byte form: sorted map keys,
// sorted set members, preserved sequence order, reals rounded to 10
// fractional digits, LF newlines (none are emitted — the format is a
// single line), UTF-8 without BOM.
func Encode(v Value) ([]byte, error) {
	var buf strings.Builder
	if err := encodeInto(&buf, v); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

func encodeInto(buf *strings.Builder, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
		return nil
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
		return nil
	case KindReal:
		return encodeReal(buf, v.r)
	case KindString:
		encodeString(buf, v.s)
		return nil
	case KindComplex:
		if math.IsNaN(v.re) || math.IsInf(v.re, 0) || math.IsNaN(v.im) || math.IsInf(v.im, 0) {
			return &InvalidValueKindError{Kind: "complex"}
		}
		return encodeInto(buf, Map(map[string]Value{
			"re": Real(v.re),
			"im": Real(v.im),
		}))
	case KindSeq:
		buf.WriteByte('[')
		for idx, item := range v.seq {
			if idx > 0 {
				buf.WriteByte(',')
			}
			if err := encodeInto(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindSet:
		encoded := make([]string, 0, len(v.seq))
		for _, item := range v.seq {
			var sub strings.Builder
			if err := encodeInto(&sub, item); err != nil {
				return err
			}
			encoded = append(encoded, sub.String())
		}
		sort.Strings(encoded)
		buf.WriteByte('[')
		for idx, item := range encoded {
			if idx > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(item)
		}
		buf.WriteByte(']')
		return nil
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for idx, k := range keys {
			if idx > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encodeInto(buf, v.m[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return &InvalidValueKindError{Kind: fmt.Sprintf("unknown(%d)", v.kind)}
	}
}

func encodeReal(buf *strings.Builder, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &InvalidValueKindError{Kind: "real"}
	}
	rounded := roundTo(f, realPrecision)
	if rounded == 0 {
		rounded = 0 // normalize -0
	}
	buf.WriteString(strconv.FormatFloat(rounded, 'f', realPrecision, 64))
	return nil
}

func roundTo(f float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(f*pow) / pow
}

// encodeString writes s as a JSON-compatible quoted string with a minimal,
// stable escape set: control characters, the quote character, and the
// backslash. All other bytes, including multi-byte UTF-8 sequences, are
// emitted verbatim.
func encodeString(buf *strings.Builder, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
