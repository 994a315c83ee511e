// Package vm executes modules. It backs the tests and benchmarks of woven
// output: objects carry their field values and event chains, and property
// accessors run through a small stack interpreter.
//
// A Machine and its objects are not safe for concurrent use.
package vm

import (
	"fmt"
	"math"
	"strconv"

	"github.com/delaneyj/autonotify/module"
)

const defaultMaxDepth = 256

// Exception is a fault raised while executing a method.
type Exception struct {
	Type    string
	Message string
	Method  string
}

func (e *Exception) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s in %s: %s", e.Type, e.Method, e.Message)
}

// Exception types raised by the interpreter itself.
const (
	NullReference  = "NullReferenceException"
	InvalidProgram = "InvalidProgramException"
	MissingMember  = "MissingMemberException"
	StackOverflow  = "StackOverflowException"
	DivideByZero   = "DivideByZeroException"
	Thrown         = "Exception"
)

// Machine executes the methods of one module.
type Machine struct {
	mod      *module.Module
	types    map[string]*module.Type
	labels   map[*module.Method]map[string]int
	maxDepth int
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxDepth bounds the call depth before a StackOverflowException.
func WithMaxDepth(depth int) Option {
	return func(vm *Machine) {
		vm.maxDepth = depth
	}
}

// New returns a Machine over m.
func New(m *module.Module, opts ...Option) *Machine {
	vm := &Machine{
		mod:      m,
		types:    make(map[string]*module.Type, len(m.Types)),
		labels:   map[*module.Method]map[string]int{},
		maxDepth: defaultMaxDepth,
	}
	for _, t := range m.Types {
		vm.types[t.Name] = t
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Object is an instance of a module type.
type Object struct {
	vm     *Machine
	typ    *module.Type
	fields map[string]any
}

// NewObject allocates an instance with zeroed fields.
func (vm *Machine) NewObject(typeName string) (*Object, error) {
	t, ok := vm.types[typeName]
	if !ok {
		return nil, &Exception{Type: MissingMember, Message: fmt.Sprintf("type %q not declared", typeName)}
	}
	return vm.allocate(t), nil
}

func (vm *Machine) allocate(t *module.Type) *Object {
	o := &Object{
		vm:     vm,
		typ:    t,
		fields: make(map[string]any, len(t.Fields)),
	}
	for _, f := range t.Fields {
		o.fields[f.Name] = zeroValue(f.Type)
	}
	return o
}

func zeroValue(typeName string) any {
	switch typeName {
	case "int64", "int32", "int":
		return int64(0)
	case "float64", "double":
		return float64(0)
	case "string":
		return ""
	case "bool":
		return false
	}
	return nil
}

func (o *Object) Type() *module.Type {
	return o.typ
}

// Field returns the raw value of a field.
func (o *Object) Field(name string) any {
	return o.fields[name]
}

// Get runs the property getter.
func (o *Object) Get(property string) (any, error) {
	p := o.typ.Property(property)
	if p == nil || p.Getter == nil {
		return nil, &Exception{Type: MissingMember, Message: fmt.Sprintf("%s has no readable property %q", o.typ.Name, property)}
	}
	return o.vm.invoke(o.typ, p.Getter, []any{o}, 0)
}

// Set runs the property setter.
func (o *Object) Set(property string, value any) error {
	p := o.typ.Property(property)
	if p == nil || p.Setter == nil {
		return &Exception{Type: MissingMember, Message: fmt.Sprintf("%s has no writable property %q", o.typ.Name, property)}
	}
	_, err := o.vm.invoke(o.typ, p.Setter, []any{o, normalize(value)}, 0)
	return err
}

// Call runs an instance method by name.
func (o *Object) Call(method string, args ...any) (any, error) {
	m := o.typ.Method(method)
	if m == nil || m.Static {
		return nil, &Exception{Type: MissingMember, Message: fmt.Sprintf("%s has no instance method %q", o.typ.Name, method)}
	}
	if len(args) != m.Params {
		return nil, &Exception{Type: InvalidProgram, Message: fmt.Sprintf("%s.%s takes %d arguments, got %d", o.typ.Name, method, m.Params, len(args))}
	}
	frame := make([]any, 0, len(args)+1)
	frame = append(frame, o)
	for _, a := range args {
		frame = append(frame, normalize(a))
	}
	return o.vm.invoke(o.typ, m, frame, 0)
}

// Subscribe appends h to the event's handler chain. The returned func
// removes exactly this subscription.
func (o *Object) Subscribe(event string, h Handler) (unsubscribe func(), err error) {
	if err := o.checkEvent(event); err != nil {
		return nil, err
	}
	s := &subscription{fn: h}
	o.setDelegate(event, combine(o.delegate(event), s))
	return func() {
		o.setDelegate(event, remove(o.delegate(event), s))
	}, nil
}

// Subscribers counts the handlers attached to an event.
func (o *Object) Subscribers(event string) int {
	return o.delegate(event).Len()
}

func (o *Object) checkEvent(event string) error {
	f := o.typ.Field(event)
	if f == nil || !f.Event {
		return &Exception{Type: MissingMember, Message: fmt.Sprintf("%s has no event %q", o.typ.Name, event)}
	}
	return nil
}

func (o *Object) delegate(event string) *Delegate {
	d, _ := o.fields[event].(*Delegate)
	return d
}

func (o *Object) setDelegate(event string, d *Delegate) {
	if d == nil {
		o.fields[event] = nil
		return
	}
	o.fields[event] = d
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

func (vm *Machine) labelsOf(m *module.Method) (map[string]int, error) {
	if l, ok := vm.labels[m]; ok {
		return l, nil
	}
	l, err := module.Labels(m.Body)
	if err != nil {
		return nil, err
	}
	vm.labels[m] = l
	return l, nil
}

type intrinsic struct {
	params  int
	returns bool
	fn      func(args []any) (any, error)
}

var intrinsics = map[string]intrinsic{
	module.MathType + "::Sqrt": {
		params:  1,
		returns: true,
		fn: func(args []any) (any, error) {
			f, ok := toFloat(args[0])
			if !ok {
				return nil, fmt.Errorf("Sqrt of %T", args[0])
			}
			return math.Sqrt(f), nil
		},
	},
	// receiver, sender, payload
	module.PropertyChangedEventHandler + "::" + module.InvokeMethod: {
		params: 3,
		fn: func(args []any) (any, error) {
			d, _ := args[0].(*Delegate)
			if d == nil {
				return nil, &Exception{Type: NullReference, Message: "invoking an event with no subscribers"}
			}
			sender, _ := args[1].(*Object)
			e, ok := args[2].(*PropertyChangedEventArgs)
			if !ok {
				return nil, fmt.Errorf("event payload is %T", args[2])
			}
			d.invoke(sender, e)
			return nil, nil
		},
	},
}

// frame-local view of a running method, used for error reporting
type frame struct {
	typ    *module.Type
	method *module.Method
}

func (f frame) name() string {
	return f.typ.Name + "::" + f.method.Name
}

func (f frame) fault(kind, format string, args ...any) *Exception {
	return &Exception{Type: kind, Message: fmt.Sprintf(format, args...), Method: f.name()}
}

func (vm *Machine) invoke(t *module.Type, m *module.Method, args []any, depth int) (any, error) {
	fr := frame{typ: t, method: m}
	if depth >= vm.maxDepth {
		return nil, fr.fault(StackOverflow, "call depth %d exceeded", vm.maxDepth)
	}
	labels, err := vm.labelsOf(m)
	if err != nil {
		return nil, fr.fault(InvalidProgram, "%v", err)
	}

	var stack []any
	pop := func() (any, error) {
		if len(stack) == 0 {
			return nil, fr.fault(InvalidProgram, "stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	popN := func(n int) ([]any, error) {
		if len(stack) < n {
			return nil, fr.fault(InvalidProgram, "stack underflow")
		}
		vs := append([]any(nil), stack[len(stack)-n:]...)
		stack = stack[:len(stack)-n]
		return vs, nil
	}

	for pc := 0; pc < len(m.Body); pc++ {
		ins := m.Body[pc]
		switch ins.Op {
		case module.OpNop:

		case module.OpLdarg, module.OpStarg:
			n, _ := strconv.Atoi(ins.Operand)
			if n < 0 || n >= len(args) {
				return nil, fr.fault(InvalidProgram, "argument %d out of range", n)
			}
			if ins.Op == module.OpLdarg {
				stack = append(stack, args[n])
				continue
			}
			v, err := pop()
			if err != nil {
				return nil, err
			}
			args[n] = v

		case module.OpLdfld:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			obj, err := fr.object(v, ins)
			if err != nil {
				return nil, err
			}
			stack = append(stack, obj.fields[ins.Operand])

		case module.OpStfld:
			vs, err := popN(2)
			if err != nil {
				return nil, err
			}
			obj, err := fr.object(vs[0], ins)
			if err != nil {
				return nil, err
			}
			obj.fields[ins.Operand] = vs[1]

		case module.OpLdstr:
			stack = append(stack, ins.Operand)
		case module.OpLdc:
			n, _ := strconv.ParseInt(ins.Operand, 10, 64)
			stack = append(stack, n)
		case module.OpLdcr:
			f, _ := strconv.ParseFloat(ins.Operand, 64)
			stack = append(stack, f)
		case module.OpLdnull:
			stack = append(stack, nil)

		case module.OpDup:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			stack = append(stack, v, v)
		case module.OpPop:
			if _, err := pop(); err != nil {
				return nil, err
			}

		case module.OpAdd, module.OpSub, module.OpMul, module.OpDiv, module.OpCeq, module.OpClt, module.OpCgt:
			vs, err := popN(2)
			if err != nil {
				return nil, err
			}
			v, err := fr.binary(ins.Op, vs[0], vs[1])
			if err != nil {
				return nil, err
			}
			stack = append(stack, v)

		case module.OpNeg:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			switch x := v.(type) {
			case int64:
				stack = append(stack, -x)
			case float64:
				stack = append(stack, -x)
			default:
				return nil, fr.fault(InvalidProgram, "neg of %T", v)
			}

		case module.OpConvR8:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			f, ok := toFloat(v)
			if !ok {
				return nil, fr.fault(InvalidProgram, "conv.r8 of %T", v)
			}
			stack = append(stack, f)

		case module.OpBr:
			pc = labels[ins.Operand] - 1
		case module.OpBrtrue, module.OpBrfalse:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			if truthy(v) == (ins.Op == module.OpBrtrue) {
				pc = labels[ins.Operand] - 1
			}

		case module.OpCall, module.OpCallvirt:
			result, returns, err := vm.call(fr, ins, popN, depth)
			if err != nil {
				return nil, err
			}
			if returns {
				stack = append(stack, result)
			}

		case module.OpNewobj:
			if ins.Operand == module.PropertyChangedEventArgs {
				v, err := pop()
				if err != nil {
					return nil, err
				}
				name, _ := v.(string)
				stack = append(stack, &PropertyChangedEventArgs{PropertyName: name})
				continue
			}
			t, ok := vm.types[ins.Operand]
			if !ok {
				return nil, fr.fault(MissingMember, "type %q not declared", ins.Operand)
			}
			stack = append(stack, vm.allocate(t))

		case module.OpThrow:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			return nil, fr.fault(Thrown, "%v", v)

		case module.OpRet:
			if !m.Returns {
				return nil, nil
			}
			return pop()

		default:
			return nil, fr.fault(InvalidProgram, "unsupported opcode %s", ins.Op)
		}
	}
	return nil, fr.fault(InvalidProgram, "fell off the end of the body")
}

func (vm *Machine) call(fr frame, ins module.Instruction, popN func(int) ([]any, error), depth int) (any, bool, error) {
	if in, ok := intrinsics[ins.Operand]; ok {
		args, err := popN(in.params)
		if err != nil {
			return nil, false, err
		}
		result, err := in.fn(args)
		if err != nil {
			if ex, ok := err.(*Exception); ok {
				ex.Method = fr.name()
				return nil, false, ex
			}
			return nil, false, fr.fault(InvalidProgram, "%v", err)
		}
		return result, in.returns, nil
	}

	typeName, methodName, ok := module.SplitMethodRef(ins.Operand)
	if !ok {
		return nil, false, fr.fault(InvalidProgram, "bad method reference %q", ins.Operand)
	}
	t, ok := vm.types[typeName]
	if !ok {
		return nil, false, fr.fault(MissingMember, "type %q not declared", typeName)
	}
	callee := t.Method(methodName)
	if callee == nil {
		return nil, false, fr.fault(MissingMember, "method %q not declared", ins.Operand)
	}

	n := callee.Params
	if !callee.Static {
		n++
	}
	args, err := popN(n)
	if err != nil {
		return nil, false, err
	}
	if !callee.Static {
		if _, err := fr.object(args[0], ins); err != nil {
			return nil, false, err
		}
	}
	result, err := vm.invoke(t, callee, args, depth+1)
	if err != nil {
		return nil, false, err
	}
	return result, callee.Returns, nil
}

func (fr frame) object(v any, ins module.Instruction) (*Object, error) {
	obj, _ := v.(*Object)
	if obj == nil {
		return nil, fr.fault(NullReference, "%s on a null reference", ins)
	}
	if ins.Op == module.OpLdfld || ins.Op == module.OpStfld {
		if _, ok := obj.fields[ins.Operand]; !ok {
			return nil, fr.fault(MissingMember, "%s has no field %q", obj.typ.Name, ins.Operand)
		}
	}
	return obj, nil
}

func (fr frame) binary(op module.Opcode, a, b any) (any, error) {
	if op == module.OpCeq {
		return boolValue(equal(a, b)), nil
	}
	if op == module.OpAdd {
		if sa, ok := a.(string); ok {
			if sb, ok := b.(string); ok {
				return sa + sb, nil
			}
		}
	}

	ia, aInt := a.(int64)
	ib, bInt := b.(int64)
	if aInt && bInt {
		switch op {
		case module.OpAdd:
			return ia + ib, nil
		case module.OpSub:
			return ia - ib, nil
		case module.OpMul:
			return ia * ib, nil
		case module.OpDiv:
			if ib == 0 {
				return nil, fr.fault(DivideByZero, "integer division by zero")
			}
			return ia / ib, nil
		case module.OpClt:
			return boolValue(ia < ib), nil
		case module.OpCgt:
			return boolValue(ia > ib), nil
		}
	}

	fa, aOk := toFloat(a)
	fb, bOk := toFloat(b)
	if !aOk || !bOk {
		return nil, fr.fault(InvalidProgram, "%s of %T and %T", op, a, b)
	}
	switch op {
	case module.OpAdd:
		return fa + fb, nil
	case module.OpSub:
		return fa - fb, nil
	case module.OpMul:
		return fa * fb, nil
	case module.OpDiv:
		return fa / fb, nil
	case module.OpClt:
		return boolValue(fa < fb), nil
	case module.OpCgt:
		return boolValue(fa > fb), nil
	}
	return nil, fr.fault(InvalidProgram, "unsupported operator %s", op)
}

func equal(a, b any) bool {
	fa, aOk := toFloat(a)
	fb, bOk := toFloat(b)
	if aOk && bOk {
		return fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case int64:
		return x != 0
	case float64:
		return x != 0
	case bool:
		return x
	case *Delegate:
		return x != nil
	case *Object:
		return x != nil
	}
	return true
}
