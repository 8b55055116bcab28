package vcard

import (
	"fmt"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/contentline"
	"github.com/coolbeans/vcard/pkg/param"
	"github.com/coolbeans/vcard/pkg/value"
)

// Assemble turns a grammatically valid content line into a Property: it
// decodes the parameters, resolves the value kind from the VALUE parameter
// or the catalog default, decodes the value and checks the component count
// of structured values. Errors are *ParseError without a line number.
func (p *Parser) Assemble(line contentline.Line) (Property, error) {
	propertyName := line.Name

	var params param.List
	if line.HasParams {
		decoded, err := param.Decode(line.Params)
		if err != nil {
			return Property{}, &ParseError{Component: ComponentParam, Property: propertyName, Err: err}
		}
		params = decoded
	}

	entry, err := p.catalog.Lookup(propertyName)
	if err != nil {
		return Property{}, &ParseError{Component: ComponentGrammar, Property: propertyName, Err: err}
	}

	valueParam, _ := params.Get(param.Value)
	kind, err := entry.ResolveKind(valueParam)
	if err != nil {
		return Property{}, &ParseError{
			Component: ComponentParam,
			Property:  propertyName,
			Err:       &param.Error{Param: param.Value, Reason: err.Error()},
		}
	}

	decoded, err := value.Decode(kind, line.Value)
	if err != nil {
		return Property{}, &ParseError{Component: ComponentValue, Property: propertyName, Err: err}
	}

	if err := checkComponents(entry, decoded); err != nil {
		return Property{}, &ParseError{Component: ComponentValue, Property: propertyName, Err: err}
	}

	return Property{
		Group:  line.Group,
		Name:   propertyName,
		Type:   entry.Type,
		Params: params,
		Value:  decoded,
	}, nil
}

// checkComponents enforces the catalog shape on structured values.
func checkComponents(entry catalog.Entry, v value.Value) error {
	structured, ok := v.(value.StructuredText)
	if !ok || !entry.Components.Structured() {
		return nil
	}
	if entry.Components.Accepts(len(structured)) {
		return nil
	}
	return &value.Error{
		Kind:   value.KindStructuredText,
		Reason: fmt.Sprintf("%s requires %s components, found %d", entry.Type, entry.Components, len(structured)),
	}
}

// checkProperty validates a property built in code against the catalog.
func checkProperty(cat *catalog.Catalog, prop Property) error {
	propertyName := prop.Name
	if propertyName == "" {
		propertyName = string(prop.Type)
	}
	if prop.Group != "" && !contentline.ValidName(prop.Group) {
		return structural("invalid group name %q", prop.Group)
	}
	entry, err := cat.Lookup(propertyName)
	if err != nil {
		return structural("%v", err)
	}
	if prop.Type != "" && prop.Type != entry.Type {
		return structural("property name %q does not match type %s", prop.Name, prop.Type)
	}
	if prop.Value == nil {
		return &value.Error{Kind: entry.Default, Reason: fmt.Sprintf("%s has no value", entry.Type)}
	}
	if !entry.Permits(prop.Value.Kind()) {
		return &value.Error{Kind: prop.Value.Kind(), Reason: fmt.Sprintf("%s does not permit %s values", entry.Type, prop.Value.Kind())}
	}
	return checkComponents(entry, prop.Value)
}
