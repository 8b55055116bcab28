// Package catalog declares the vCard 4.0 property types: their cardinality
// within a card, default value kind, permitted VALUE overrides and, for
// structured properties, the number of components.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/coolbeans/vcard/pkg/contentline"
	"github.com/coolbeans/vcard/pkg/value"
)

// PropertyType is an upper-cased property name.
type PropertyType string

// Property types defined by RFC 6350.
const (
	Begin        PropertyType = "BEGIN"
	End          PropertyType = "END"
	Source       PropertyType = "SOURCE"
	Kind         PropertyType = "KIND"
	XML          PropertyType = "XML"
	FN           PropertyType = "FN"
	N            PropertyType = "N"
	Nickname     PropertyType = "NICKNAME"
	Photo        PropertyType = "PHOTO"
	Bday         PropertyType = "BDAY"
	Anniversary  PropertyType = "ANNIVERSARY"
	Gender       PropertyType = "GENDER"
	Adr          PropertyType = "ADR"
	Tel          PropertyType = "TEL"
	Email        PropertyType = "EMAIL"
	IMPP         PropertyType = "IMPP"
	Lang         PropertyType = "LANG"
	TZ           PropertyType = "TZ"
	Geo          PropertyType = "GEO"
	Title        PropertyType = "TITLE"
	Role         PropertyType = "ROLE"
	Logo         PropertyType = "LOGO"
	Org          PropertyType = "ORG"
	Member       PropertyType = "MEMBER"
	Related      PropertyType = "RELATED"
	Categories   PropertyType = "CATEGORIES"
	Note         PropertyType = "NOTE"
	ProdID       PropertyType = "PRODID"
	Rev          PropertyType = "REV"
	Sound        PropertyType = "SOUND"
	UID          PropertyType = "UID"
	ClientPIDMap PropertyType = "CLIENTPIDMAP"
	URL          PropertyType = "URL"
	Version      PropertyType = "VERSION"
	Key          PropertyType = "KEY"
	FBURL        PropertyType = "FBURL"
	CalAdrURI    PropertyType = "CALADRURI"
	CalURI       PropertyType = "CALURI"
)

// TypeOf returns the property type for a name, ignoring case.
func TypeOf(name string) PropertyType {
	return PropertyType(strings.ToUpper(name))
}

// IsExtension reports whether t is not one of the RFC 6350 types.
func (t PropertyType) IsExtension() bool {
	_, standard := standardEntries[t]
	return !standard
}

func (t PropertyType) String() string {
	return string(t)
}

// Cardinality is how many times a property may occur in one card.
type Cardinality int

const (
	cardinalityUnset Cardinality = iota
	ExactlyOne
	AtMostOne
	AtLeastOne
	Arbitrary
)

var cardinalityNames = map[Cardinality]string{
	ExactlyOne: "ExactlyOne",
	AtMostOne:  "AtMostOne",
	AtLeastOne: "AtLeastOne",
	Arbitrary:  "Arbitrary",
}

func (c Cardinality) String() string {
	if name, ok := cardinalityNames[c]; ok {
		return name
	}
	return "Unset"
}

// Symbol returns the RFC 6350 notation: 1, *1, 1* or *.
func (c Cardinality) Symbol() string {
	switch c {
	case ExactlyOne:
		return "1"
	case AtMostOne:
		return "*1"
	case AtLeastOne:
		return "1*"
	case Arbitrary:
		return "*"
	}
	return "?"
}

// Allows reports whether count occurrences satisfy c.
func (c Cardinality) Allows(count int) bool {
	switch c {
	case ExactlyOne:
		return count == 1
	case AtMostOne:
		return count <= 1
	case AtLeastOne:
		return count >= 1
	case Arbitrary:
		return true
	}
	return false
}

// ParseCardinality accepts a cardinality name (any case) or its RFC symbol.
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "exactlyone", "exactly-one":
		return ExactlyOne, nil
	case "*1", "atmostone", "at-most-one":
		return AtMostOne, nil
	case "1*", "atleastone", "at-least-one":
		return AtLeastOne, nil
	case "*", "arbitrary", "":
		return Arbitrary, nil
	}
	return cardinalityUnset, fmt.Errorf("unknown cardinality %q", s)
}

// Shape bounds the component count of a structured value. Max < 0 means
// unbounded. The zero Shape marks an unstructured property.
type Shape struct {
	Min int
	Max int
}

// Structured reports whether s describes a structured value.
func (s Shape) Structured() bool {
	return s != Shape{}
}

// Accepts reports whether n components fit s.
func (s Shape) Accepts(n int) bool {
	return n >= s.Min && (s.Max < 0 || n <= s.Max)
}

func (s Shape) String() string {
	switch {
	case s.Max < 0:
		return fmt.Sprintf("at least %d", s.Min)
	case s.Min == s.Max:
		return fmt.Sprintf("exactly %d", s.Min)
	default:
		return fmt.Sprintf("%d to %d", s.Min, s.Max)
	}
}

// Entry describes one property type. A nil Allowed permits every kind.
type Entry struct {
	Type        PropertyType
	Cardinality Cardinality
	Default     value.Kind
	Allowed     []value.Kind
	Components  Shape
}

// Permits reports whether a value of kind k may be stored under e.
func (e Entry) Permits(k value.Kind) bool {
	if k == e.Default || e.Allowed == nil {
		return true
	}
	for _, allowed := range e.Allowed {
		if allowed == k {
			return true
		}
	}
	return false
}

// ResolveKind returns the kind a raw value must be decoded as given the
// property's VALUE parameter, or the default kind when valueParam is empty.
// A scalar token selects the list flavour when the default kind is a list;
// "text" keeps structured properties structured.
func (e Entry) ResolveKind(valueParam string) (value.Kind, error) {
	if valueParam == "" {
		return e.Default, nil
	}
	kind, _ := value.ParseKind(valueParam)
	switch {
	case e.Default == value.KindStructuredText && kind == value.KindText:
		kind = value.KindStructuredText
	case e.Default.IsList():
		kind = kind.List()
	}
	if !e.Permits(kind) {
		return value.KindInvalid, fmt.Errorf("%s does not permit VALUE=%s", e.Type, strings.ToLower(valueParam))
	}
	return kind, nil
}

// Catalog maps property names to entries. It is immutable once built and
// safe for concurrent use.
type Catalog struct {
	entries map[PropertyType]Entry
}

// Option configures a catalog under construction.
type Option func(*Catalog) error

// WithExtension declares an extension property. Unset fields take the
// extension defaults: Arbitrary cardinality and a text value.
func WithExtension(entry Entry) Option {
	return func(c *Catalog) error {
		if !contentline.ValidName(string(entry.Type)) {
			return fmt.Errorf("invalid extension property name %q", entry.Type)
		}
		entry.Type = TypeOf(string(entry.Type))
		if !entry.Type.IsExtension() {
			return fmt.Errorf("cannot redefine standard property %s", entry.Type)
		}
		if _, exists := c.entries[entry.Type]; exists {
			return fmt.Errorf("extension property %s already declared", entry.Type)
		}
		if entry.Cardinality == cardinalityUnset {
			entry.Cardinality = Arbitrary
		}
		if entry.Default == value.KindInvalid {
			entry.Default = value.KindText
		}
		if !entry.Default.Valid() {
			return fmt.Errorf("extension property %s: invalid default kind", entry.Type)
		}
		if entry.Default == value.KindStructuredText && !entry.Components.Structured() {
			entry.Components = Shape{Min: 1, Max: -1}
		}
		c.entries[entry.Type] = entry
		return nil
	}
}

// New builds a catalog holding the RFC 6350 properties plus any extensions
// declared by opts.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{entries: make(map[PropertyType]Entry, len(standardEntries)+len(opts))}
	for propertyType, entry := range standardEntries {
		c.entries[propertyType] = entry
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the shared catalog of RFC 6350 properties.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, _ = New()
	})
	return defaultCatalog
}

// Lookup returns the entry for name, ignoring case. Undeclared but
// syntactically valid names get an extension entry.
func (c *Catalog) Lookup(name string) (Entry, error) {
	if !contentline.ValidName(name) {
		return Entry{}, fmt.Errorf("invalid property name %q", name)
	}
	propertyType := TypeOf(name)
	if entry, ok := c.entries[propertyType]; ok {
		return entry, nil
	}
	return Entry{Type: propertyType, Cardinality: Arbitrary, Default: value.KindText}, nil
}

// Known reports whether name is declared in the catalog.
func (c *Catalog) Known(name string) bool {
	_, ok := c.entries[TypeOf(name)]
	return ok
}

// Types returns every declared property type in sorted order.
func (c *Catalog) Types() []PropertyType {
	propertyTypes := make([]PropertyType, 0, len(c.entries))
	for propertyType := range c.entries {
		propertyTypes = append(propertyTypes, propertyType)
	}
	sort.Slice(propertyTypes, func(i, j int) bool { return propertyTypes[i] < propertyTypes[j] })
	return propertyTypes
}

// Entries returns every declared entry ordered by type.
func (c *Catalog) Entries() []Entry {
	propertyTypes := c.Types()
	entries := make([]Entry, len(propertyTypes))
	for i, propertyType := range propertyTypes {
		entries[i] = c.entries[propertyType]
	}
	return entries
}

// Bounded returns the declared types whose cardinality limits the count in
// some way, in sorted order.
func (c *Catalog) Bounded() []Entry {
	var bounded []Entry
	for _, entry := range c.Entries() {
		if entry.Cardinality != Arbitrary {
			bounded = append(bounded, entry)
		}
	}
	return bounded
}
