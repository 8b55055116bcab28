package vcard

import (
	"github.com/google/uuid"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/param"
	"github.com/coolbeans/vcard/pkg/value"
)

// Property is one decoded content line.
type Property struct {
	// Group is the optional grouping label, in its original case.
	Group string
	// Name is the property name as written; Type is its upper-cased form.
	Name   string
	Type   catalog.PropertyType
	Params param.List
	Value  value.Value
}

// NewProperty creates a property named name with value v.
func NewProperty(name string, v value.Value, params ...param.Parameter) Property {
	return Property{
		Name:   name,
		Type:   catalog.TypeOf(name),
		Params: param.List(params).Clone(),
		Value:  v,
	}
}

// NewUID creates a UID property holding a random urn:uuid URI.
func NewUID() Property {
	return NewProperty(string(catalog.UID), value.URI(uuid.New().URN()))
}

// Text returns the value when it is plain text.
func (p Property) Text() (string, bool) {
	text, ok := p.Value.(value.Text)
	return string(text), ok
}

// InGroup returns a copy of p carrying group.
func (p Property) InGroup(group string) Property {
	p = p.clone()
	p.Group = group
	return p
}

func (p Property) clone() Property {
	p.Params = p.Params.Clone()
	return p
}
