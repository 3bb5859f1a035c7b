// Package document models the loosely typed JSON trees that flow through an
// ingest pipeline test: documents, their nested objects and arrays.
//
// A Value is a tagged union over the six JSON kinds. Objects are kept as an
// ordered Mapping so that iteration order is the order in which keys were
// decoded or inserted, never Go map order.
package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is one node of a JSON tree. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	m    *Mapping
	seq  []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a JSON number literal. The literal is kept verbatim so that
// integers and floating point numbers stay distinguishable.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// Int wraps an integer.
func Int(i int64) Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// Float wraps a floating point number.
func Float(f float64) Value {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return Number(json.Number(s))
}

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Map wraps a mapping. A nil mapping is treated as an empty one.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// Seq wraps an ordered sequence of values.
func Seq(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number literal held by v.
func (v Value) AsNumber() (json.Number, bool) { return v.num, v.kind == KindNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsMapping returns the mapping held by v. The mapping is shared, not copied.
func (v Value) AsMapping() (*Mapping, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.m, true
}

// AsSequence returns the items held by v. The slice is shared, not copied.
func (v Value) AsSequence() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	return v.seq, true
}

// Text renders a scalar the way it would appear in a JSON string field:
// strings verbatim, numbers as their literal, booleans as true/false and
// null as the empty string. Mappings and sequences render as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// DeepCopy returns a copy of v that shares no mappings or sequences with it.
func (v Value) DeepCopy() Value {
	switch v.kind {
	case KindMapping:
		return Map(v.m.DeepCopy())
	case KindSequence:
		items := make([]Value, len(v.seq))
		for i, item := range v.seq {
			items[i] = item.DeepCopy()
		}
		return Value{kind: KindSequence, seq: items}
	}
	return v
}

// Equal reports whether a and b are structurally equal. Comparison is strict
// and type-aware: 1 and "1" differ, and so do the integer 1 and the float 1.0.
// Mapping key order is not significant; sequence order is.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return numbersEqual(a.num, b.num)
	case KindString:
		return a.str == b.str
	case KindMapping:
		return a.m.Equal(b.m)
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func isIntegerLiteral(n json.Number) bool {
	return !strings.ContainsAny(string(n), ".eE")
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	aInt, bInt := isIntegerLiteral(a), isIntegerLiteral(b)
	if aInt != bInt {
		return false
	}
	if aInt {
		x, errA := a.Int64()
		y, errB := b.Int64()
		if errA != nil || errB != nil {
			// Out of int64 range: fall back to the canonical literal.
			return strings.TrimLeft(string(a), "+") == strings.TrimLeft(string(b), "+")
		}
		return x == y
	}
	x, errA := a.Float64()
	y, errB := b.Float64()
	if errA != nil || errB != nil {
		return false
	}
	return x == y
}
