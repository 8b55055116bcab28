package vcard

import (
	"strings"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/value"
)

const supportedVersion = "4.0"

// Document is a validated vCard 4.0 card. It is immutable: accessors return
// copies and every change builds a new, revalidated Document.
type Document struct {
	catalog    *catalog.Catalog
	properties []Property
}

// NewDocument validates props against the default catalog. BEGIN and END
// are implicit and must not be passed; VERSION:4.0 must be.
func NewDocument(props ...Property) (*Document, error) {
	return newDocument(catalog.Default(), props)
}

// NewDocumentIn is NewDocument for a custom catalog.
func NewDocumentIn(cat *catalog.Catalog, props ...Property) (*Document, error) {
	if cat == nil {
		cat = catalog.Default()
	}
	return newDocument(cat, props)
}

func newDocument(cat *catalog.Catalog, props []Property) (*Document, error) {
	properties := make([]Property, len(props))
	for i, prop := range props {
		if prop.Type == "" {
			prop.Type = catalog.TypeOf(prop.Name)
		}
		if prop.Name == "" {
			prop.Name = string(prop.Type)
		}
		if prop.Type == catalog.Begin || prop.Type == catalog.End {
			return nil, structural("%s is implicit in a document", prop.Type)
		}
		if err := checkProperty(cat, prop); err != nil {
			return nil, err
		}
		properties[i] = prop.clone()
	}
	if err := validateCardinality(cat, properties); err != nil {
		return nil, err
	}
	return &Document{catalog: cat, properties: properties}, nil
}

// Version returns the vCard version, always 4.0.
func (d *Document) Version() string {
	return supportedVersion
}

// Catalog returns the catalog the document was validated against.
func (d *Document) Catalog() *catalog.Catalog {
	return d.catalog
}

// Len returns the number of properties, VERSION included.
func (d *Document) Len() int {
	return len(d.properties)
}

// Properties returns a copy of every property in input order.
func (d *Document) Properties() []Property {
	properties := make([]Property, len(d.properties))
	for i, prop := range d.properties {
		properties[i] = prop.clone()
	}
	return properties
}

// Get returns copies of the properties of type t in input order.
func (d *Document) Get(t catalog.PropertyType) []Property {
	var matching []Property
	for _, prop := range d.properties {
		if prop.Type == t {
			matching = append(matching, prop.clone())
		}
	}
	return matching
}

// First returns the first property of type t.
func (d *Document) First(t catalog.PropertyType) (Property, bool) {
	for _, prop := range d.properties {
		if prop.Type == t {
			return prop.clone(), true
		}
	}
	return Property{}, false
}

// Group returns copies of the properties carrying group, ignoring case.
func (d *Document) Group(group string) []Property {
	var matching []Property
	for _, prop := range d.properties {
		if prop.Group != "" && strings.EqualFold(prop.Group, group) {
			matching = append(matching, prop.clone())
		}
	}
	return matching
}

// FormattedName returns the first FN value.
func (d *Document) FormattedName() string {
	fn, ok := d.First(catalog.FN)
	if !ok {
		return ""
	}
	text, _ := fn.Text()
	return text
}

// UID returns the UID value as text, whether it was written as a URI or as
// text.
func (d *Document) UID() (string, bool) {
	uid, ok := d.First(catalog.UID)
	if !ok {
		return "", false
	}
	switch v := uid.Value.(type) {
	case value.URI:
		return string(v), true
	case value.Text:
		return string(v), true
	}
	return "", false
}

// With returns a new document with props appended.
func (d *Document) With(props ...Property) (*Document, error) {
	combined := make([]Property, 0, len(d.properties)+len(props))
	combined = append(combined, d.properties...)
	combined = append(combined, props...)
	return newDocument(d.catalog, combined)
}

// Without returns a new document lacking every property of the given types.
func (d *Document) Without(types ...catalog.PropertyType) (*Document, error) {
	excluded := make(map[catalog.PropertyType]bool, len(types))
	for _, t := range types {
		excluded[catalog.TypeOf(string(t))] = true
	}
	remaining := make([]Property, 0, len(d.properties))
	for _, prop := range d.properties {
		if !excluded[prop.Type] {
			remaining = append(remaining, prop)
		}
	}
	return newDocument(d.catalog, remaining)
}
