// Package vcard parses and serializes vCard 4.0 (RFC 6350) cards.
//
// Parsing runs each logical line through the content-line grammar, the
// parameter decoder and the value codec, then feeds the resulting
// properties to a Builder that enforces the BEGIN/END envelope and the
// cardinality rules of the catalog. The first failure ends parsing with a
// *ParseError naming the line and the stage that rejected it.
package vcard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/contentline"
	"github.com/coolbeans/vcard/pkg/fold"
)

// Parser reads cards using a fixed catalog. It holds no other state and is
// safe for concurrent use.
type Parser struct {
	catalog *catalog.Catalog
}

// NewParser creates a Parser for cat, or the default catalog when cat is
// nil.
func NewParser(cat *catalog.Catalog) *Parser {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Parser{catalog: cat}
}

// Parse reads one card from r. Blank lines before BEGIN:VCARD are skipped
// and input after END:VCARD is not read.
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	lineReader := fold.NewReader(r)
	builder := NewBuilder(p.catalog)
	lastLine := 0

	for {
		line, err := lineReader.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var foldErr *fold.Error
			if errors.As(err, &foldErr) {
				return nil, &ParseError{Line: foldErr.Line, Component: ComponentFold, Err: err}
			}
			return nil, fmt.Errorf("vcard: read input: %w", err)
		}
		lastLine = line.Number

		if builder.State() == StateAwaitBegin && strings.TrimSpace(line.Text) == "" {
			continue
		}

		grammarLine, err := contentline.Parse(line.Text)
		if err != nil {
			return nil, &ParseError{Line: line.Number, Component: ComponentGrammar, Err: err}
		}

		prop, err := p.Assemble(grammarLine)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				parseErr.Line = line.Number
				return nil, parseErr
			}
			return nil, &ParseError{Line: line.Number, Component: ComponentValue, Property: grammarLine.Name, Err: err}
		}

		if err := builder.Add(prop); err != nil {
			return nil, &ParseError{Line: line.Number, Component: ComponentStructural, Property: grammarLine.Name, Err: err}
		}
		if builder.State() == StateDone {
			break
		}
	}

	doc, err := builder.Document()
	if err != nil {
		parseErr := &ParseError{Line: lastLine, Component: componentOf(err), Err: err}
		var cardinalityErr *CardinalityError
		if errors.As(err, &cardinalityErr) {
			parseErr.Property = string(cardinalityErr.Type)
		}
		return nil, parseErr
	}
	return doc, nil
}

// Parse reads one card from r using the default catalog.
func Parse(r io.Reader) (*Document, error) {
	return NewParser(nil).Parse(r)
}

// ParseString parses one card from text using the default catalog.
func ParseString(text string) (*Document, error) {
	return Parse(strings.NewReader(text))
}
