// Package weavertest runs woven modules in the vm and asserts on the
// notifications they raise.
package weavertest

import (
	"testing"

	"github.com/delaneyj/autonotify/module"
	"github.com/delaneyj/autonotify/samples"
	"github.com/delaneyj/autonotify/vm"
	"github.com/delaneyj/autonotify/weaver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Recorder collects the property names raised by one object.
type Recorder struct {
	names []string
}

// Record subscribes a recorder to obj until the test ends.
func Record(t testing.TB, obj *vm.Object) *Recorder {
	t.Helper()
	r := &Recorder{}
	unsubscribe, err := obj.Subscribe(weaver.DefaultEventName, func(_ *vm.Object, e *vm.PropertyChangedEventArgs) {
		r.names = append(r.names, e.PropertyName)
	})
	require.NoError(t, err)
	t.Cleanup(unsubscribe)
	return r
}

// Names returns the raised names in the order they were raised.
func (r *Recorder) Names() []string {
	return append([]string(nil), r.names...)
}

// Count returns how often name was raised.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, raised := range r.names {
		if raised == name {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.names = r.names[:0]
}

// RecordChanges returns the names raised while action runs.
func RecordChanges(t testing.TB, obj *vm.Object, action func()) []string {
	t.Helper()
	var names []string
	unsubscribe, err := obj.Subscribe(weaver.DefaultEventName, func(_ *vm.Object, e *vm.PropertyChangedEventArgs) {
		names = append(names, e.PropertyName)
	})
	require.NoError(t, err)
	defer unsubscribe()

	action()
	return names
}

// AssertChangesProperty asserts that action raises a notification for
// property.
func AssertChangesProperty(t testing.TB, obj *vm.Object, property string, action func()) bool {
	t.Helper()
	names := RecordChanges(t, obj, action)
	return assert.Contains(t, names, property, "expected a change notification for %s", property)
}

// Weave loads a sample and weaves it with the default options.
func Weave(t testing.TB, sample string) (*module.Module, *weaver.Report) {
	t.Helper()
	m, err := samples.Load(sample)
	require.NoError(t, err)

	report, err := weaver.Weave(m, weaver.DefaultOptions())
	require.NoError(t, err)
	return m, report
}

// NewObject instantiates typeName in a fresh vm over m.
func NewObject(t testing.TB, m *module.Module, typeName string) *vm.Object {
	t.Helper()
	obj, err := vm.New(m).NewObject(typeName)
	require.NoError(t, err)
	return obj
}

// Set assigns a property and fails the test on a fault.
func Set(t testing.TB, obj *vm.Object, property string, value any) {
	t.Helper()
	require.NoError(t, obj.Set(property, value))
}
