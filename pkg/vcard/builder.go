package vcard

import (
	"strings"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/value"
)

// State is the position of a Builder within the card envelope.
type State int

const (
	StateAwaitBegin State = iota
	StateInBody
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitBegin:
		return "await-begin"
	case StateInBody:
		return "in-body"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Builder accumulates properties between BEGIN:VCARD and END:VCARD. The
// first rejected property moves it to StateFailed, where every later call
// returns the same error.
type Builder struct {
	catalog    *catalog.Catalog
	state      State
	properties []Property
	err        error
}

// NewBuilder creates a Builder validating against cat, or the default
// catalog when cat is nil.
func NewBuilder(cat *catalog.Catalog) *Builder {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Builder{catalog: cat}
}

// State returns the current builder state.
func (b *Builder) State() State {
	return b.state
}

// Add feeds the next property. The errors are *StructuralError.
func (b *Builder) Add(prop Property) error {
	switch b.state {
	case StateFailed:
		return b.err

	case StateAwaitBegin:
		if prop.Type != catalog.Begin {
			return b.fail(structural("expected BEGIN:VCARD, found %s", prop.Type))
		}
		if !isVCardMarker(prop) {
			return b.fail(structural("BEGIN value must be VCARD"))
		}
		b.state = StateInBody

	case StateInBody:
		switch prop.Type {
		case catalog.Begin:
			return b.fail(structural("BEGIN inside an open vCard"))
		case catalog.End:
			if !isVCardMarker(prop) {
				return b.fail(structural("END value must be VCARD"))
			}
			b.state = StateDone
		default:
			b.properties = append(b.properties, prop)
		}

	case StateDone:
		return b.fail(structural("%s after END:VCARD", prop.Type))
	}
	return nil
}

// Document validates the collected properties and returns the card. It
// fails with *StructuralError when the envelope is incomplete and with
// *CardinalityError when a cardinality rule is broken.
func (b *Builder) Document() (*Document, error) {
	switch b.state {
	case StateFailed:
		return nil, b.err
	case StateAwaitBegin:
		return nil, structural("missing BEGIN:VCARD")
	case StateInBody:
		return nil, structural("missing END:VCARD")
	}
	return newDocument(b.catalog, b.properties)
}

func (b *Builder) fail(err error) error {
	b.state = StateFailed
	b.err = err
	return err
}

func isVCardMarker(prop Property) bool {
	text, ok := prop.Value.(value.Text)
	return ok && strings.EqualFold(string(text), "VCARD")
}

// validateCardinality checks every bounded type in cat against props and
// then the VERSION value.
func validateCardinality(cat *catalog.Catalog, props []Property) error {
	counts := make(map[catalog.PropertyType]int)
	for _, prop := range props {
		counts[prop.Type]++
	}
	for _, entry := range cat.Bounded() {
		if entry.Type == catalog.Begin || entry.Type == catalog.End {
			continue
		}
		if found := counts[entry.Type]; !entry.Cardinality.Allows(found) {
			return &CardinalityError{Type: entry.Type, Rule: entry.Cardinality, Found: found}
		}
	}
	for _, prop := range props {
		if prop.Type != catalog.Version {
			continue
		}
		if text, ok := prop.Value.(value.Text); !ok || string(text) != supportedVersion {
			return structural("unsupported VERSION %v, expected %s", prop.Value, supportedVersion)
		}
	}
	return nil
}
