package weaver

import (
	"fmt"

	"github.com/delaneyj/autonotify/module"
)

const raiseLabel = "raise"

// SynthesizeHelper builds the per-type routine that raises the notification
// event for the property named by its single argument. It returns before
// building a payload when the event has no subscribers, and otherwise
// invokes every subscriber in registration order on the calling thread.
//
// The method is not attached to t; the weaving pass does that once the
// whole module has been planned.
func SynthesizeHelper(t *module.Type, event *module.Field, opts Options) (*module.Method, error) {
	if t.Method(opts.HelperName) != nil || t.Property(opts.HelperName) != nil || t.Field(opts.HelperName) != nil {
		return nil, &StructuralError{
			Type:   t.Name,
			Reason: fmt.Sprintf("already declares a member named %s", opts.HelperName),
		}
	}

	// stack: [handler] -> [handler handler] -> brtrue consumes one
	body := []module.Instruction{
		module.Ins(module.OpLdarg, "0"),
		module.Ins(module.OpLdfld, event.Name),
		module.Ins(module.OpDup),
		module.Ins(module.OpBrtrue, raiseLabel),
		module.Ins(module.OpPop),
		module.Ins(module.OpRet),
		{Label: raiseLabel, Op: module.OpLdarg, Operand: "0"},
		module.Ins(module.OpLdarg, "1"),
		module.Ins(module.OpNewobj, module.PropertyChangedEventArgs),
		module.Ins(module.OpCallvirt, module.PropertyChangedEventHandler+"::"+module.InvokeMethod),
		module.Ins(module.OpRet),
	}

	return &module.Method{
		Name:       opts.HelperName,
		Params:     1,
		Attributes: []module.Attribute{{Type: module.CompilerGeneratedAttribute}},
		Body:       body,
	}, nil
}

// importRuntimeTypes finds the reference that provides the types woven code
// uses. References the module already has are preferred; otherwise the first
// resolved reference defining every type is returned with added set.
func importRuntimeTypes(m *module.Module, opts Options) (ref string, added bool, err error) {
	needed := []string{module.PropertyChangedEventArgs, module.PropertyChangedEventHandler}
	definesAll := func(r ResolvedReference) bool {
		for _, n := range needed {
			if !r.Defines(n) {
				return false
			}
		}
		return true
	}

	for _, r := range opts.ResolvedReferences {
		if m.HasReference(r.Name) && definesAll(r) {
			return r.Name, false, nil
		}
	}
	for _, r := range opts.ResolvedReferences {
		if definesAll(r) {
			return r.Name, true, nil
		}
	}

	names := make([]string, len(opts.ResolvedReferences))
	for i, r := range opts.ResolvedReferences {
		names[i] = r.Name
	}
	return "", false, &StructuralError{
		Reason: fmt.Sprintf("none of the resolved references %v define %v", names, needed),
	}
}
