// Package samples ships module documents used by tests, benchmarks and the
// command line examples.
package samples

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/delaneyj/autonotify/module"
)

//go:embed modules/*.yaml
var modules embed.FS

const (
	Point          = "point"           // X, Y, Z and a Magnitude depending on all three
	Shapes         = "shapes"          // diamonds, guarded and throwing setters, an unmarked type
	Chain          = "chain"           // derived-of-derived properties and a dependency cycle
	Lookalike      = "lookalike"       // a foreign interface sharing the contract's simple name
	MissingSource  = "missing_source"  // DependsOn naming a property that does not exist
	EarlyReturn    = "early_return"    // a setter with two exits
	MissingEvent   = "missing_event"   // the contract without its event field
	ReadonlyNotify = "readonly_notify" // NotifyChanged on a getter-only property
	UnmarkedSource = "unmarked_source" // DependsOn naming a getter-only property with no markers
)

// Names lists the embedded modules.
func Names() []string {
	entries, err := fs.ReadDir(modules, "modules")
	if err != nil {
		panic(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Source returns the raw document of a sample.
func Source(name string) ([]byte, error) {
	src, err := modules.ReadFile("modules/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("sample %q: %w", name, err)
	}
	return src, nil
}

// Load decodes a fresh copy of a sample.
func Load(name string) (*module.Module, error) {
	src, err := Source(name)
	if err != nil {
		return nil, err
	}
	m, err := module.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("sample %q: %w", name, err)
	}
	return m, nil
}

// MustLoad is Load for samples known to decode.
func MustLoad(name string) *module.Module {
	m, err := Load(name)
	if err != nil {
		panic(err)
	}
	return m
}
