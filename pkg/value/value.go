// Package value encodes and decodes vCard property values (RFC 6350,
// section 4). Decode and Encode are exact inverses for every value Encode
// accepts: Equal(Decode(v.Kind(), Encode(v)), v) holds.
package value

import (
	"fmt"
	"slices"
)

// Value is a decoded property value. The set of implementations is closed.
type Value interface {
	Kind() Kind
	isValue()
}

// Text is a single text value.
type Text string

// TextList is a comma-separated list of text values.
type TextList []string

// StructuredText is a semicolon-separated sequence of components, each a
// comma-separated list. Used by N, ADR, ORG, GENDER and CLIENTPIDMAP.
type StructuredText [][]string

// URI is an unescaped URI value.
type URI string

// LanguageTag is a BCP 47 language tag.
type LanguageTag string

// IanaValuespec carries the raw text of a value whose VALUE type is not
// registered. It is passed through verbatim.
type IanaValuespec string

// Boolean is TRUE or FALSE.
type Boolean bool

// IntegerList holds one or more integers.
type IntegerList []int64

// FloatList holds one or more floats.
type FloatList []float64

// Temporal holds one of the date and time kinds. Scalar kinds carry exactly
// one DateTime.
type Temporal struct {
	Type   Kind
	Values []DateTime
}

// NewTemporal creates a Temporal of the given kind.
func NewTemporal(kind Kind, values ...DateTime) Temporal {
	return Temporal{Type: kind, Values: values}
}

func (Text) Kind() Kind           { return KindText }
func (TextList) Kind() Kind       { return KindTextList }
func (StructuredText) Kind() Kind { return KindStructuredText }
func (URI) Kind() Kind            { return KindURI }
func (LanguageTag) Kind() Kind    { return KindLanguageTag }
func (IanaValuespec) Kind() Kind  { return KindIanaValuespec }
func (Boolean) Kind() Kind        { return KindBoolean }
func (IntegerList) Kind() Kind    { return KindIntegerList }
func (FloatList) Kind() Kind      { return KindFloatList }
func (UTCOffset) Kind() Kind      { return KindUTCOffset }
func (t Temporal) Kind() Kind     { return t.Type }

func (Text) isValue()           {}
func (TextList) isValue()       {}
func (StructuredText) isValue() {}
func (URI) isValue()            {}
func (LanguageTag) isValue()    {}
func (IanaValuespec) isValue()  {}
func (Boolean) isValue()        {}
func (IntegerList) isValue()    {}
func (FloatList) isValue()      {}
func (UTCOffset) isValue()      {}
func (Temporal) isValue()       {}

// Component returns the i-th component of s, or nil when out of range.
func (s StructuredText) Component(i int) []string {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// First returns the first item of the i-th component, or "".
func (s StructuredText) First(i int) string {
	if c := s.Component(i); len(c) > 0 {
		return c[0]
	}
	return ""
}

// Equal reports whether a and b hold the same value. Nil and empty lists
// are equal; temporal values compare zones by offset.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case TextList:
		y, ok := b.(TextList)
		return ok && slices.Equal(x, y)
	case StructuredText:
		y, ok := b.(StructuredText)
		return ok && slices.EqualFunc(x, y, slices.Equal[[]string])
	case IntegerList:
		y, ok := b.(IntegerList)
		return ok && slices.Equal(x, y)
	case FloatList:
		y, ok := b.(FloatList)
		return ok && slices.Equal(x, y)
	case Temporal:
		y, ok := b.(Temporal)
		return ok && x.Type == y.Type && slices.EqualFunc(x.Values, y.Values, DateTime.Equal)
	}
	return a == b
}

// Error reports raw text that does not match its kind, or a value that
// cannot be encoded.
type Error struct {
	Kind   Kind
	Raw    string
	Reason string
}

func (e *Error) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("value: %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("value: %s %q: %s", e.Kind, e.Raw, e.Reason)
}

func newError(kind Kind, raw, reason string) *Error {
	return &Error{Kind: kind, Raw: raw, Reason: reason}
}
