package domain

import (
	"fmt"
	"strings"
)

// ValueKind enumerates the closed set of value types.
type ValueKind int

const (
	KindInteger ValueKind = iota + 1
	KindNumeric
	KindText
	KindDate
	KindDateTime
	KindBoolean
	KindRef
)

// ValueType is the canonical scalar/reference type of a field. The zero value
// is invalid; construct with Integer, Numeric, Text, Date, DateTime, Boolean
// or Ref.
type ValueType struct {
	kind       ValueKind
	dictionary string
}

func Integer() ValueType  { return ValueType{kind: KindInteger} }
func Numeric() ValueType  { return ValueType{kind: KindNumeric} }
func Text() ValueType     { return ValueType{kind: KindText} }
func Date() ValueType     { return ValueType{kind: KindDate} }
func DateTime() ValueType { return ValueType{kind: KindDateTime} }
func Boolean() ValueType  { return ValueType{kind: KindBoolean} }

// Ref is a foreign key into the named dictionary data source.
func Ref(dictionary string) ValueType {
	return ValueType{kind: KindRef, dictionary: dictionary}
}

// Kind returns the variant tag.
func (t ValueType) Kind() ValueKind { return t.kind }

// Dictionary returns the referenced dictionary for Ref types, "" otherwise.
func (t ValueType) Dictionary() string { return t.dictionary }

// IsZero reports whether t was never initialised.
func (t ValueType) IsZero() bool { return t.kind == 0 }

// IsNumeric reports whether t is Integer or Numeric.
func (t ValueType) IsNumeric() bool { return t.kind == KindInteger || t.kind == KindNumeric }

// IsTemporal reports whether t is Date or DateTime.
func (t ValueType) IsTemporal() bool { return t.kind == KindDate || t.kind == KindDateTime }

// IsRef reports whether t is a reference type.
func (t ValueType) IsRef() bool { return t.kind == KindRef }

// CanonicalName is stable and unique per variant.
func (t ValueType) CanonicalName() string {
	switch t.kind {
	case KindInteger:
		return "integer"
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindBoolean:
		return "boolean"
	case KindRef:
		return "ref:" + t.dictionary
	default:
		return ""
	}
}

func (t ValueType) String() string {
	if t.IsZero() {
		return "<invalid>"
	}
	return t.CanonicalName()
}

// ParseValueType is the inverse of CanonicalName.
func ParseValueType(name string) (ValueType, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "integer":
		return Integer(), nil
	case "numeric":
		return Numeric(), nil
	case "text":
		return Text(), nil
	case "date":
		return Date(), nil
	case "datetime":
		return DateTime(), nil
	case "boolean":
		return Boolean(), nil
	}
	if dict, ok := strings.CutPrefix(name, "ref:"); ok {
		if dict == "" {
			return ValueType{}, ErrValidation("ref value type requires a dictionary name")
		}
		return Ref(dict), nil
	}
	return ValueType{}, ErrValidation("unknown value type %q", name)
}

// MarshalText encodes t by its canonical name.
func (t ValueType) MarshalText() ([]byte, error) {
	if t.IsZero() {
		return nil, fmt.Errorf("marshal value type: zero value")
	}
	return []byte(t.CanonicalName()), nil
}

// UnmarshalText decodes a canonical name.
func (t *ValueType) UnmarshalText(b []byte) error {
	v, err := ParseValueType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Compatible reports whether values of a and b may be compared or combined.
// Integer/Numeric and Date/DateTime are mutually compatible; a Ref is only
// compatible with a Ref into the same dictionary.
func Compatible(a, b ValueType) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	switch {
	case a.IsNumeric():
		return b.IsNumeric()
	case a.IsTemporal():
		return b.IsTemporal()
	case a.kind == KindRef:
		return b.kind == KindRef && a.dictionary == b.dictionary
	default:
		return a.kind == b.kind
	}
}
