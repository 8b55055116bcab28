package vcard

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/vcard/pkg/value"
)

// DocumentView is a plain-data rendering of a Document for JSON and YAML
// output.
type DocumentView struct {
	Version    string         `json:"version" yaml:"version"`
	Properties []PropertyView `json:"properties" yaml:"properties"`
}

// PropertyView is one property in a DocumentView.
type PropertyView struct {
	Group     string      `json:"group,omitempty" yaml:"group,omitempty"`
	Name      string      `json:"name" yaml:"name"`
	Params    []ParamView `json:"params,omitempty" yaml:"params,omitempty"`
	ValueType string      `json:"value_type" yaml:"value_type"`
	Value     any         `json:"value" yaml:"value"`
}

// ParamView is one parameter occurrence in a PropertyView.
type ParamView struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// View returns the export view of d.
func (d *Document) View() (DocumentView, error) {
	view := DocumentView{
		Version:    d.Version(),
		Properties: make([]PropertyView, 0, len(d.properties)),
	}
	for _, prop := range d.properties {
		exported, err := exportValue(prop.Value)
		if err != nil {
			return DocumentView{}, fmt.Errorf("vcard: export %s: %w", prop.Type, err)
		}
		propertyView := PropertyView{
			Group:     prop.Group,
			Name:      string(prop.Type),
			ValueType: prop.Value.Kind().String(),
			Value:     exported,
		}
		for _, p := range prop.Params {
			propertyView.Params = append(propertyView.Params, ParamView{Name: p.Name, Values: append([]string(nil), p.Values...)})
		}
		view.Properties = append(view.Properties, propertyView)
	}
	return view, nil
}

// exportValue keeps text-like and numeric values native and renders the
// remaining kinds in their vCard form.
func exportValue(v value.Value) (any, error) {
	switch typed := v.(type) {
	case value.Text:
		return string(typed), nil
	case value.TextList:
		return []string(typed), nil
	case value.StructuredText:
		return [][]string(typed), nil
	case value.URI:
		return string(typed), nil
	case value.LanguageTag:
		return string(typed), nil
	case value.IanaValuespec:
		return string(typed), nil
	case value.Boolean:
		return bool(typed), nil
	case value.IntegerList:
		return []int64(typed), nil
	case value.FloatList:
		return []float64(typed), nil
	}
	return value.Encode(v)
}

// MarshalJSON renders the document's export view as indented JSON.
func MarshalJSON(doc *Document) ([]byte, error) {
	view, err := doc.View()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(view, "", "  ")
}

// MarshalYAML renders the document's export view as YAML.
func MarshalYAML(doc *Document) ([]byte, error) {
	view, err := doc.View()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(view)
}
