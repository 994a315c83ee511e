package weaver

import (
	"errors"
	"fmt"

	"github.com/delaneyj/autonotify/module"
)

// Marker is a declarative annotation read from a property: SelfNotify or
// DependsOn.
type Marker interface {
	isMarker()
}

// SelfNotify announces the property's own changes.
type SelfNotify struct{}

// DependsOn announces the property whenever one of Sources changes.
type DependsOn struct {
	Sources []string
}

func (SelfNotify) isMarker() {}
func (DependsOn) isMarker()  {}

// MarkedProperty is a property carrying at least one marker.
type MarkedProperty struct {
	Property *module.Property
	Markers  []Marker
}

// SelfNotify reports whether the property carries the SelfNotify marker.
func (mp MarkedProperty) SelfNotify() bool {
	for _, m := range mp.Markers {
		if _, ok := m.(SelfNotify); ok {
			return true
		}
	}
	return false
}

// DependsOn returns the source names of every DependsOn marker in
// declaration order.
func (mp MarkedProperty) DependsOn() []string {
	var sources []string
	for _, m := range mp.Markers {
		if d, ok := m.(DependsOn); ok {
			sources = append(sources, d.Sources...)
		}
	}
	return sources
}

// ScannedType is a type implementing the notification contract together with
// its marked properties.
type ScannedType struct {
	Type   *module.Type
	Event  *module.Field
	Marked []MarkedProperty
}

// Scan selects the types implementing opts.Contract and classifies their
// properties. It does not modify the module. Errors from every selected type
// are joined.
func Scan(m *module.Module, opts Options) ([]ScannedType, error) {
	if m == nil {
		return nil, &StructuralError{Reason: "no module to scan"}
	}

	notify := markerNames(opts.NotifyMarker)
	dependsOn := markerNames(opts.DependsOnMarker)

	var (
		scanned []ScannedType
		errs    []error
	)
	for _, t := range m.Types {
		if !t.Implements(opts.Contract) {
			continue
		}
		st, err := scanType(t, opts, notify, dependsOn)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scanned = append(scanned, st)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return scanned, nil
}

func scanType(t *module.Type, opts Options, notify, dependsOn []string) (ScannedType, error) {
	event := t.Field(opts.EventName)
	if event == nil || !event.Event {
		return ScannedType{}, &StructuralError{
			Type:   t.Name,
			Reason: fmt.Sprintf("implements %s but declares no %s event", opts.Contract, opts.EventName),
		}
	}

	st := ScannedType{Type: t, Event: event}
	for _, p := range t.Properties {
		markers, err := classify(t, p, notify, dependsOn)
		if err != nil {
			return ScannedType{}, err
		}
		if len(markers) == 0 {
			continue
		}
		st.Marked = append(st.Marked, MarkedProperty{Property: p, Markers: markers})
	}
	return st, nil
}

func classify(t *module.Type, p *module.Property, notify, dependsOn []string) ([]Marker, error) {
	var markers []Marker
	for _, a := range p.Attributes {
		simple := module.SimpleName(a.Type)
		switch {
		case contains(notify, simple):
			markers = append(markers, SelfNotify{})
		case contains(dependsOn, simple):
			if len(a.Args) == 0 {
				return nil, &StructuralError{
					Type:   t.Name,
					Reason: fmt.Sprintf("%s on property %s names no source property", a.Type, p.Name),
				}
			}
			markers = append(markers, DependsOn{Sources: append([]string(nil), a.Args...)})
		}
	}
	return markers, nil
}

func isMarker(a module.Attribute, opts Options) bool {
	simple := module.SimpleName(a.Type)
	return contains(markerNames(opts.NotifyMarker), simple) || contains(markerNames(opts.DependsOnMarker), simple)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
