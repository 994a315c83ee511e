package weaver

import (
	"fmt"

	"github.com/delaneyj/autonotify/module"
)

// CheckSetterShape verifies that the property's setter can be extended: an
// instance method whose only normal exit is its final ret. It returns the
// index of that ret.
func CheckSetterShape(p *module.Property) (int, error) {
	fail := func(format string, args ...any) (int, error) {
		return -1, &InstrumentationShapeError{
			Type:     p.DeclaringType.Name,
			Property: p.Name,
			Reason:   fmt.Sprintf(format, args...),
		}
	}

	s := p.Setter
	switch {
	case s == nil:
		return fail("property has no setter")
	case s.Static:
		return fail("setter %s is static", s.Name)
	case len(s.Body) == 0:
		return fail("setter %s has no body", s.Name)
	}
	if _, err := module.Labels(s.Body); err != nil {
		return fail("setter %s is malformed: %v", s.Name, err)
	}

	tail := len(s.Body) - 1
	if s.Body[tail].Op != module.OpRet {
		return fail("setter %s does not end with ret", s.Name)
	}
	exits := 0
	for _, ins := range s.Body {
		if ins.Op == module.OpRet {
			exits++
		}
	}
	if exits > 1 {
		return fail("setter %s has %d exits, only a single trailing ret is supported", s.Name, exits)
	}
	return tail, nil
}

// InstrumentSetter appends one helper call per dependent to the setter, after
// the original body and before its final ret. Branches that targeted the ret
// land on the first appended call instead.
func InstrumentSetter(p *module.Property, helper *module.Method, dependents []string) error {
	tail, err := CheckSetterShape(p)
	if err != nil {
		return err
	}
	if len(dependents) == 0 {
		return nil
	}

	ref := p.DeclaringType.MethodRef(helper.Name)
	calls := make([]module.Instruction, 0, 3*len(dependents)+1)
	for _, name := range dependents {
		calls = append(calls,
			module.Ins(module.OpLdarg, "0"),
			module.Ins(module.OpLdstr, name),
			module.Ins(module.OpCall, ref),
		)
	}

	ret := p.Setter.Body[tail]
	calls[0].Label, ret.Label = ret.Label, ""
	calls = append(calls, ret)

	body := make([]module.Instruction, 0, tail+len(calls))
	body = append(body, p.Setter.Body[:tail]...)
	body = append(body, calls...)
	p.Setter.Body = body
	return nil
}
