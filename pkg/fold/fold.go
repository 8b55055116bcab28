// Package fold converts between the folded physical lines of a vCard stream
// and the logical content lines they encode (RFC 6350, section 3.2).
package fold

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxLineOctets is the longest physical line Fold produces, excluding the
// CRLF terminator and including the leading space of a continuation line.
const MaxLineOctets = 75

// CRLF is the line terminator emitted on output.
const CRLF = "\r\n"

// Line is one logical (unfolded) line of input.
type Line struct {
	// Number is the 1-based number of the first physical line.
	Number int
	// Text is the unfolded content without any terminator.
	Text string
}

// Error reports a malformed continuation line.
type Error struct {
	Line   int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("fold: line %d: %s", e.Line, e.Reason)
}

// Reader yields logical lines from a stream of physical lines.
// Both CRLF and bare LF terminators are accepted.
type Reader struct {
	bufferedReader *bufio.Reader
	physicalCount  int

	peeked     bool
	peekText   string
	peekNumber int

	readErr error
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{bufferedReader: bufio.NewReader(r)}
}

// ReadLine returns the next logical line. It returns io.EOF once the input
// is exhausted and *Error when a continuation line has nothing to continue.
func (r *Reader) ReadLine() (Line, error) {
	firstText, firstNumber, err := r.readPhysical()
	if err != nil {
		return Line{}, err
	}
	if isContinuation(firstText) {
		return Line{}, &Error{Line: firstNumber, Reason: "continuation line has no preceding line"}
	}

	var logical strings.Builder
	logical.WriteString(firstText)
	for {
		nextText, nextNumber, err := r.readPhysical()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Line{}, err
		}
		if !isContinuation(nextText) {
			r.peeked = true
			r.peekText = nextText
			r.peekNumber = nextNumber
			break
		}
		if firstText == "" {
			return Line{}, &Error{Line: nextNumber, Reason: "continuation line follows a blank line"}
		}
		logical.WriteString(nextText[1:])
	}

	return Line{Number: firstNumber, Text: logical.String()}, nil
}

// readPhysical returns the next physical line with its terminator removed.
func (r *Reader) readPhysical() (string, int, error) {
	if r.peeked {
		r.peeked = false
		return r.peekText, r.peekNumber, nil
	}
	if r.readErr != nil {
		return "", 0, r.readErr
	}

	text, err := r.bufferedReader.ReadString('\n')
	if err != nil {
		r.readErr = err
		if err != io.EOF || text == "" {
			return "", 0, err
		}
	}

	r.physicalCount++
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, r.physicalCount, nil
}

func isContinuation(text string) bool {
	return len(text) > 0 && (text[0] == ' ' || text[0] == '\t')
}

// Unfold splits text into logical lines.
func Unfold(text string) ([]Line, error) {
	reader := NewReader(strings.NewReader(text))
	var lines []Line
	for {
		line, err := reader.ReadLine()
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
}

// Fold splits a logical line into physical lines joined by CRLF. The result
// carries no trailing terminator. Splits never fall inside a UTF-8 sequence
// or between a backslash and the character it escapes.
func Fold(line string) string {
	if len(line) <= MaxLineOctets {
		return line
	}

	var folded strings.Builder
	folded.Grow(len(line) + len(line)/MaxLineOctets*3)

	limit := MaxLineOctets
	for len(line) > limit {
		cut := splitPoint(line, limit)
		folded.WriteString(line[:cut])
		folded.WriteString(CRLF)
		folded.WriteByte(' ')
		line = line[cut:]
		limit = MaxLineOctets - 1
	}
	folded.WriteString(line)
	return folded.String()
}

// splitPoint picks the largest cut <= limit that keeps characters and
// escape sequences whole.
func splitPoint(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut > 0 && escapesNext(s[:cut]) {
		cut--
	}
	if cut <= 0 {
		return limit
	}
	return cut
}

// escapesNext reports whether s ends in an unpaired backslash.
func escapesNext(s string) bool {
	backslashes := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		backslashes++
	}
	return backslashes%2 == 1
}

// Writer writes folded, CRLF-terminated lines.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteLine folds line and writes it followed by CRLF.
func (w *Writer) WriteLine(line string) error {
	_, err := io.WriteString(w.w, Fold(line)+CRLF)
	return err
}
