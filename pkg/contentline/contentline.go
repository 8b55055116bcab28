// Package contentline splits a logical vCard line into its group, name,
// raw parameter section and raw value, following the RFC 6350 grammar
//
//	contentline = [group "."] name *(";" param) ":" value
package contentline

import (
	"fmt"
	"strings"
)

// Line is one parsed content line. Group and Name keep their original case.
type Line struct {
	Group string
	Name  string

	// Params is the raw parameter section without its leading ";".
	// HasParams distinguishes "FN;:x" (empty section) from "FN:x".
	Params    string
	HasParams bool

	Value string
}

// Error reports a line that does not match the content-line grammar.
type Error struct {
	Offset int
	Reason string
	Line   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("contentline: %s at offset %d", e.Reason, e.Offset)
}

// Parse splits text into a Line.
func Parse(text string) (Line, error) {
	var line Line

	nameEnd := scanName(text, 0)
	if nameEnd == 0 {
		return Line{}, newError(text, 0, "missing property name")
	}
	line.Name = text[:nameEnd]

	pos := nameEnd
	if pos < len(text) && text[pos] == '.' {
		line.Group = line.Name
		nameStart := pos + 1
		nameEnd = scanName(text, nameStart)
		if nameEnd == nameStart {
			return Line{}, newError(text, nameStart, "missing property name after group")
		}
		line.Name = text[nameStart:nameEnd]
		pos = nameEnd
	}

	if pos >= len(text) {
		return Line{}, newError(text, pos, "missing ':' before value")
	}

	switch text[pos] {
	case ':':
		line.Value = text[pos+1:]
		return line, nil
	case ';':
		colon, err := scanParams(text, pos+1)
		if err != nil {
			return Line{}, err
		}
		line.Params = text[pos+1 : colon]
		line.HasParams = true
		line.Value = text[colon+1:]
		return line, nil
	default:
		return Line{}, newError(text, pos, fmt.Sprintf("unexpected character %q in name", text[pos]))
	}
}

// scanName returns the end of the name token starting at start.
func scanName(text string, start int) int {
	pos := start
	for pos < len(text) && IsNameChar(text[pos]) {
		pos++
	}
	return pos
}

// scanParams returns the index of the first ':' outside double quotes.
func scanParams(text string, start int) (int, error) {
	quoted := false
	quoteStart := 0
	for pos := start; pos < len(text); pos++ {
		switch text[pos] {
		case '"':
			if !quoted {
				quoteStart = pos
			}
			quoted = !quoted
		case ':':
			if !quoted {
				return pos, nil
			}
		}
	}
	if quoted {
		return 0, newError(text, quoteStart, "unterminated quoted parameter value")
	}
	return 0, newError(text, len(text), "missing ':' before value")
}

// IsNameChar reports whether c may appear in a group or property name.
func IsNameChar(c byte) bool {
	return c == '-' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// ValidName reports whether name is a non-empty group or property name.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !IsNameChar(name[i]) {
			return false
		}
	}
	return true
}

// String re-encodes the line. Params and Value must already be encoded.
func (l Line) String() string {
	var encoded strings.Builder
	encoded.Grow(len(l.Group) + len(l.Name) + len(l.Params) + len(l.Value) + 3)
	if l.Group != "" {
		encoded.WriteString(l.Group)
		encoded.WriteByte('.')
	}
	encoded.WriteString(l.Name)
	if l.HasParams || l.Params != "" {
		encoded.WriteByte(';')
		encoded.WriteString(l.Params)
	}
	encoded.WriteByte(':')
	encoded.WriteString(l.Value)
	return encoded.String()
}

func newError(text string, offset int, reason string) *Error {
	return &Error{Offset: offset, Reason: reason, Line: text}
}
