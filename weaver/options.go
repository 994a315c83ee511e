package weaver

import (
	"io"
	"log"
	"runtime"
	"strings"

	"github.com/delaneyj/autonotify/module"
)

const (
	DefaultContract        = "INotifyPropertyChanged"
	DefaultEventName       = "PropertyChanged"
	DefaultNotifyMarker    = "NotifyChangedAttribute"
	DefaultDependsOnMarker = "DependsOnAttribute"
	DefaultHelperName      = "<>OnPropertyChanged"
	DefaultMarkerReference = "AutoPropertyChanged"

	// WovenAttribute stamps a module after a successful pass.
	WovenAttribute = "AutoNotify.WovenAttribute"
)

// ResolvedReference is a library whose types are known without loading it.
type ResolvedReference struct {
	Name  string   `yaml:"name"`
	Types []string `yaml:"types"`
}

// Defines reports whether the library declares typeName.
func (r ResolvedReference) Defines(typeName string) bool {
	for _, t := range r.Types {
		if t == typeName {
			return true
		}
	}
	return false
}

var runtimeTypes = []string{
	module.NotifyPropertyChangedInterface,
	module.PropertyChangedEventHandler,
	module.PropertyChangedEventArgs,
	module.CompilerGeneratedAttribute,
	module.MathType,
}

// Options configures a weaving pass.
type Options struct {
	// Contract is the simple name of the notification interface.
	Contract  string
	EventName string

	// Marker simple names. Each also matches without its "Attribute"
	// suffix.
	NotifyMarker    string
	DependsOnMarker string

	HelperName string

	// Clean strips marker attributes from woven properties and drops
	// MarkerReference from the module references.
	Clean           bool
	MarkerReference string

	// ResolvedReferences are searched in order when importing the runtime
	// types woven code uses.
	ResolvedReferences []ResolvedReference

	// Workers bounds concurrent per-type planning.
	Workers int

	// Logger receives progress messages. Nil discards them.
	Logger *log.Logger
}

// DefaultOptions weaves INotifyPropertyChanged types against netstandard
// or mscorlib.
func DefaultOptions() Options {
	return Options{
		Contract:        DefaultContract,
		EventName:       DefaultEventName,
		NotifyMarker:    DefaultNotifyMarker,
		DependsOnMarker: DefaultDependsOnMarker,
		HelperName:      DefaultHelperName,
		Clean:           true,
		MarkerReference: DefaultMarkerReference,
		ResolvedReferences: []ResolvedReference{
			{Name: "netstandard", Types: runtimeTypes},
			{Name: "mscorlib", Types: runtimeTypes},
		},
		Workers: runtime.NumCPU(),
	}
}

func (o *Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}

func markerNames(name string) []string {
	if trimmed := strings.TrimSuffix(name, "Attribute"); trimmed != name && trimmed != "" {
		return []string{name, trimmed}
	}
	return []string{name}
}
