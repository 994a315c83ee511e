package weaver

import (
	"errors"
	"fmt"
)

// ErrAlreadyWoven is returned when a module already carries the woven stamp.
var ErrAlreadyWoven = errors.New("module already woven")

// StructuralError reports a module that cannot be woven as declared: a
// contract type without its event field, a member clashing with the helper,
// a malformed marker or an unresolvable runtime type.
type StructuralError struct {
	Type   string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Type == "" {
		return "structural error: " + e.Reason
	}
	return fmt.Sprintf("structural error in %s: %s", e.Type, e.Reason)
}

// DependencyResolutionError reports a DependsOn marker naming a property
// that is not declared on the same type.
type DependencyResolutionError struct {
	Type     string
	Property string
	Source   string
}

func (e *DependencyResolutionError) Error() string {
	return fmt.Sprintf("%s.%s depends on %q, which is not a property of %s", e.Type, e.Property, e.Source, e.Type)
}

// InstrumentationShapeError reports a setter whose body cannot be extended.
type InstrumentationShapeError struct {
	Type     string
	Property string
	Reason   string
}

func (e *InstrumentationShapeError) Error() string {
	return fmt.Sprintf("cannot instrument %s.%s: %s", e.Type, e.Property, e.Reason)
}
