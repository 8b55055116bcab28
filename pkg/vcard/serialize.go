package vcard

import (
	"fmt"
	"io"
	"strings"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/contentline"
	"github.com/coolbeans/vcard/pkg/fold"
	"github.com/coolbeans/vcard/pkg/param"
	"github.com/coolbeans/vcard/pkg/value"
)

// Encoder writes cards as folded, CRLF-terminated lines.
type Encoder struct {
	lineWriter *fold.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{lineWriter: fold.NewWriter(w)}
}

// Encode writes doc framed by BEGIN:VCARD and END:VCARD. Every line is built
// before anything is written, so a value that cannot be encoded leaves w
// untouched.
func (e *Encoder) Encode(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("vcard: encode nil document")
	}
	lines := make([]string, 0, len(doc.properties)+2)
	lines = append(lines, "BEGIN:VCARD")
	for _, prop := range doc.properties {
		line, err := encodeProperty(doc.catalog, prop)
		if err != nil {
			return fmt.Errorf("vcard: encode %s: %w", prop.Type, err)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "END:VCARD")

	for _, line := range lines {
		if err := e.lineWriter.WriteLine(line); err != nil {
			return fmt.Errorf("vcard: write: %w", err)
		}
	}
	return nil
}

// Serialize returns doc as vCard text.
func Serialize(doc *Document) (string, error) {
	var encoded strings.Builder
	if err := NewEncoder(&encoded).Encode(doc); err != nil {
		return "", err
	}
	return encoded.String(), nil
}

// encodeProperty renders one unfolded content line. A VALUE parameter is
// added when the value kind is not the catalog default and none is set.
func encodeProperty(cat *catalog.Catalog, prop Property) (string, error) {
	propertyName := prop.Name
	if propertyName == "" {
		propertyName = string(prop.Type)
	}
	entry, err := cat.Lookup(propertyName)
	if err != nil {
		return "", err
	}

	raw, err := value.Encode(prop.Value)
	if err != nil {
		return "", err
	}

	params := prop.Params
	kind := prop.Value.Kind()
	if kind != entry.Default && !params.Has(param.Value) {
		if token := kind.ParamName(); token != "" {
			params = params.With(param.New(param.Value, token))
		}
	}

	return contentline.Line{
		Group:     prop.Group,
		Name:      propertyName,
		Params:    param.Encode(params),
		HasParams: len(params) > 0,
		Value:     raw,
	}.String(), nil
}
