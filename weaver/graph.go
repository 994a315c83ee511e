package weaver

import (
	"errors"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/autonotify/module"
)

// Graph maps a source property to the properties announced when it changes.
// It is built per type and every name in it is a property of that type.
type Graph struct {
	Type  *module.Type
	edges map[string]mapset.Set[string]
}

// BuildGraph derives the dependency graph of one type. Self-notifying
// properties announce themselves, DependsOn markers add their property to
// each named source, and dependents of derived properties propagate to the
// sources those derive from. Sets absorb properties reached through several
// paths, so each is announced once per change.
func BuildGraph(t *module.Type, marked []MarkedProperty) (*Graph, error) {
	declared := mapset.NewThreadUnsafeSet[string]()
	for _, p := range t.Properties {
		declared.Add(p.Name)
	}

	direct := map[string]mapset.Set[string]{}
	var errs []error
	for _, mp := range marked {
		name := mp.Property.Name
		if mp.SelfNotify() {
			getOrAdd(direct, name).Add(name)
		}
		for _, source := range mp.DependsOn() {
			if !declared.Contains(source) {
				errs = append(errs, &DependencyResolutionError{
					Type:     t.Name,
					Property: name,
					Source:   source,
				})
				continue
			}
			getOrAdd(direct, source).Add(name)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	g := &Graph{
		Type:  t,
		edges: make(map[string]mapset.Set[string], len(direct)),
	}
	for source := range direct {
		g.edges[source] = reachable(direct, source)
	}
	return g, nil
}

// reachable walks the direct edges from source. Visiting each name once
// keeps cycles finite.
func reachable(direct map[string]mapset.Set[string], source string) mapset.Set[string] {
	seen := mapset.NewThreadUnsafeSet[string]()
	queue := direct[source].ToSlice()
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if !seen.Add(name) {
			continue
		}
		if next, ok := direct[name]; ok && name != source {
			queue = append(queue, next.ToSlice()...)
		}
	}
	return seen
}

func getOrAdd(edges map[string]mapset.Set[string], key string) mapset.Set[string] {
	s, ok := edges[key]
	if !ok {
		s = mapset.NewThreadUnsafeSet[string]()
		edges[key] = s
	}
	return s
}

// Sources lists the properties whose changes announce something, sorted.
func (g *Graph) Sources() []string {
	sources := make([]string, 0, len(g.edges))
	for s := range g.edges {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}

// Dependents lists the properties announced when source changes, sorted.
func (g *Graph) Dependents(source string) []string {
	s, ok := g.edges[source]
	if !ok {
		return nil
	}
	names := s.ToSlice()
	sort.Strings(names)
	return names
}

// Notifies reports whether a change to source announces name.
func (g *Graph) Notifies(source, name string) bool {
	s, ok := g.edges[source]
	return ok && s.Contains(name)
}

// Len is the number of sources.
func (g *Graph) Len() int {
	return len(g.edges)
}
