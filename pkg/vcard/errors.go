package vcard

import (
	"fmt"

	"github.com/coolbeans/vcard/pkg/catalog"
)

// Component names the stage of the pipeline that rejected the input.
type Component string

const (
	ComponentFold        Component = "fold"
	ComponentGrammar     Component = "grammar"
	ComponentParam       Component = "param"
	ComponentValue       Component = "value"
	ComponentStructural  Component = "structural"
	ComponentCardinality Component = "cardinality"
)

// ParseError is returned by every parsing entry point. Err is one of
// *fold.Error, *contentline.Error, *param.Error, *value.Error,
// *StructuralError or *CardinalityError.
type ParseError struct {
	// Line is the 1-based physical line where the offending logical line
	// starts, or 0 when no line applies.
	Line      int
	Component Component
	// Property is the property name involved, if known.
	Property string
	Err      error
}

func (e *ParseError) Error() string {
	location := "vcard"
	if e.Line > 0 {
		location = fmt.Sprintf("vcard: line %d", e.Line)
	}
	if e.Property != "" {
		return fmt.Sprintf("%s: %s error in %s: %v", location, e.Component, e.Property, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", location, e.Component, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StructuralError reports a misplaced BEGIN or END, a missing envelope, or a
// VERSION other than 4.0.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return e.Reason
}

// CardinalityError reports a property type occurring a number of times its
// cardinality rule forbids.
type CardinalityError struct {
	Type  catalog.PropertyType
	Rule  catalog.Cardinality
	Found int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s: %s, found %d", e.Type, e.Rule, e.Found)
}

func structural(format string, args ...any) *StructuralError {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}

// componentOf classifies errors raised after assembly.
func componentOf(err error) Component {
	switch err.(type) {
	case *CardinalityError:
		return ComponentCardinality
	case *StructuralError:
		return ComponentStructural
	}
	return ComponentValue
}
