// Package param decodes and encodes the parameter section of a vCard content
// line. Parameter values follow RFC 6350 quoting (no backslash escapes) and
// the RFC 6868 caret escapes.
package param

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coolbeans/vcard/pkg/contentline"
)

// Well-known parameter names (RFC 6350, section 5).
const (
	Language  = "LANGUAGE"
	Value     = "VALUE"
	Pref      = "PREF"
	AltID     = "ALTID"
	PID       = "PID"
	Type      = "TYPE"
	MediaType = "MEDIATYPE"
	CalScale  = "CALSCALE"
	SortAs    = "SORT-AS"
	Geo       = "GEO"
	TZ        = "TZ"
	Label     = "LABEL"
)

// Parameter is one name=value[,value...] occurrence. Name keeps its
// original case.
type Parameter struct {
	Name   string
	Values []string
}

// New creates a parameter.
func New(name string, values ...string) Parameter {
	return Parameter{Name: name, Values: values}
}

// Is reports whether the parameter has the given name, ignoring case.
func (p Parameter) Is(name string) bool {
	return strings.EqualFold(p.Name, name)
}

// String encodes the parameter.
func (p Parameter) String() string {
	var encoded strings.Builder
	encoded.WriteString(p.Name)
	encoded.WriteByte('=')
	for i, v := range p.Values {
		if i > 0 {
			encoded.WriteByte(',')
		}
		encoded.WriteString(encodeValue(v))
	}
	return encoded.String()
}

// Error reports a malformed parameter section.
type Error struct {
	Param  string
	Reason string
}

func (e *Error) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("param: %s", e.Reason)
	}
	return fmt.Sprintf("param: %q: %s", e.Param, e.Reason)
}

// Decode parses a raw parameter section (the text between the property name
// and the value colon, without the leading ";"). Every occurrence is kept in
// input order. An empty section is a dangling ';' and is rejected; callers
// with no parameter section must not call Decode.
func Decode(raw string) (List, error) {
	segments, err := splitOutsideQuotes(raw, ';')
	if err != nil {
		return nil, err
	}

	params := make(List, 0, len(segments))
	for _, segment := range segments {
		p, err := decodeParameter(segment)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func decodeParameter(segment string) (Parameter, error) {
	if segment == "" {
		return Parameter{}, &Error{Reason: "dangling ';'"}
	}

	eq := strings.IndexByte(segment, '=')
	if eq < 0 {
		return Parameter{}, &Error{Param: segment, Reason: "missing '='"}
	}
	name := segment[:eq]
	if !contentline.ValidName(name) {
		return Parameter{}, &Error{Param: segment, Reason: "invalid parameter name"}
	}
	rawValues := segment[eq+1:]
	if rawValues == "" {
		return Parameter{}, &Error{Param: name, Reason: "dangling '='"}
	}

	pieces, err := splitOutsideQuotes(rawValues, ',')
	if err != nil {
		return Parameter{}, &Error{Param: name, Reason: "unterminated quoted value"}
	}

	values := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		v, err := decodeValue(piece)
		if err != nil {
			return Parameter{}, &Error{Param: name, Reason: err.Error()}
		}
		values = append(values, v)
	}
	return Parameter{Name: name, Values: values}, nil
}

// splitOutsideQuotes splits s on sep, ignoring separators inside double
// quotes.
func splitOutsideQuotes(s string, sep byte) ([]string, error) {
	var pieces []string
	quoted := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case sep:
			if !quoted {
				pieces = append(pieces, s[start:i])
				start = i + 1
			}
		}
	}
	if quoted {
		return nil, &Error{Reason: "unterminated quoted value"}
	}
	return append(pieces, s[start:]), nil
}

func decodeValue(piece string) (string, error) {
	if strings.HasPrefix(piece, `"`) {
		if len(piece) < 2 || !strings.HasSuffix(piece, `"`) {
			return "", fmt.Errorf("text after closing quote")
		}
		inner := piece[1 : len(piece)-1]
		if strings.ContainsRune(inner, '"') {
			return "", fmt.Errorf("unexpected '\"' inside quoted value")
		}
		return decodeCaret(inner), nil
	}
	if i := strings.IndexAny(piece, "\";:"); i >= 0 {
		return "", fmt.Errorf("character %q requires quoting", piece[i])
	}
	return decodeCaret(piece), nil
}

// decodeCaret applies RFC 6868: ^n is a newline, ^^ a caret, ^' a double
// quote. Any other caret is literal.
func decodeCaret(s string) string {
	if !strings.Contains(s, "^") {
		return s
	}
	var decoded strings.Builder
	decoded.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '^' && i+1 < len(s) {
			switch s[i+1] {
			case 'n', 'N':
				decoded.WriteByte('\n')
				i++
				continue
			case '^':
				decoded.WriteByte('^')
				i++
				continue
			case '\'':
				decoded.WriteByte('"')
				i++
				continue
			}
		}
		decoded.WriteByte(s[i])
	}
	return decoded.String()
}

func encodeCaret(s string) string {
	if !strings.ContainsAny(s, "^\n\"") {
		return s
	}
	var encoded strings.Builder
	encoded.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '^':
			encoded.WriteString("^^")
		case '\n':
			encoded.WriteString("^n")
		case '"':
			encoded.WriteString("^'")
		default:
			encoded.WriteByte(s[i])
		}
	}
	return encoded.String()
}

func encodeValue(v string) string {
	v = encodeCaret(v)
	if v == "" || strings.ContainsAny(v, ":;,") {
		return `"` + v + `"`
	}
	return v
}

// Encode renders params as a parameter section without the leading ";".
func Encode(params List) string {
	encoded := make([]string, len(params))
	for i, p := range params {
		encoded[i] = p.String()
	}
	return strings.Join(encoded, ";")
}

// List is an ordered parameter sequence. Name lookups ignore case.
type List []Parameter

// Get returns the first value of the first parameter named name.
func (l List) Get(name string) (string, bool) {
	for _, p := range l {
		if p.Is(name) && len(p.Values) > 0 {
			return p.Values[0], true
		}
	}
	return "", false
}

// Values returns the values of every parameter named name, in order.
func (l List) Values(name string) []string {
	var values []string
	for _, p := range l {
		if p.Is(name) {
			values = append(values, p.Values...)
		}
	}
	return values
}

// Has reports whether a parameter named name is present.
func (l List) Has(name string) bool {
	for _, p := range l {
		if p.Is(name) {
			return true
		}
	}
	return false
}

// Types returns the lower-cased TYPE values.
func (l List) Types() []string {
	types := l.Values(Type)
	for i, t := range types {
		types[i] = strings.ToLower(t)
	}
	return types
}

// HasType reports whether TYPE contains t, ignoring case.
func (l List) HasType(t string) bool {
	for _, v := range l.Values(Type) {
		if strings.EqualFold(v, t) {
			return true
		}
	}
	return false
}

// Pref returns the PREF value when it is an integer between 1 and 100.
func (l List) Pref() (int, bool) {
	raw, ok := l.Get(Pref)
	if !ok {
		return 0, false
	}
	pref, err := strconv.Atoi(raw)
	if err != nil || pref < 1 || pref > 100 {
		return 0, false
	}
	return pref, true
}

// ValueType returns the lower-cased VALUE parameter, or "" when absent.
func (l List) ValueType() string {
	v, _ := l.Get(Value)
	return strings.ToLower(v)
}

// With returns a copy of l with p appended.
func (l List) With(p Parameter) List {
	out := l.Clone()
	return append(out, p)
}

// Clone returns a deep copy of l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, p := range l {
		out[i] = Parameter{Name: p.Name, Values: append([]string(nil), p.Values...)}
	}
	return out
}
