package value

import (
	"fmt"
	"strings"
)

// splitUnescaped splits s on every sep not preceded by an escaping
// backslash. The pieces keep their escapes.
func splitUnescaped(s string, sep byte) []string {
	var pieces []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			pieces = append(pieces, s[start:i])
			start = i + 1
		}
	}
	return append(pieces, s[start:])
}

// Unescape resolves the text escapes \\ \, \; and \n (or \N).
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var unescaped strings.Builder
	unescaped.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			unescaped.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("trailing backslash")
		}
		i++
		switch s[i] {
		case '\\', ',', ';':
			unescaped.WriteByte(s[i])
		case 'n', 'N':
			unescaped.WriteByte('\n')
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c", s[i])
		}
	}
	return unescaped.String(), nil
}

// Escape is the inverse of Unescape. CRLF and bare CR are written as \n.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\,;\n\r") {
		return s
	}
	var escaped strings.Builder
	escaped.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', ',', ';':
			escaped.WriteByte('\\')
			escaped.WriteByte(c)
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			escaped.WriteString(`\n`)
		case '\n':
			escaped.WriteString(`\n`)
		default:
			escaped.WriteByte(c)
		}
	}
	return escaped.String()
}

// decodeList splits raw on unescaped commas and unescapes every item. An
// empty raw value is an empty list.
func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	pieces := splitUnescaped(raw, ',')
	items := make([]string, len(pieces))
	for i, piece := range pieces {
		item, err := Unescape(piece)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

func encodeList(items []string) string {
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = Escape(item)
	}
	return strings.Join(escaped, ",")
}
