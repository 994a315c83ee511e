// Package module models a compiled module: types, their fields, properties
// and methods, and the stack instructions that make up method bodies.
package module

import "strings"

// Module is the unit of weaving. Types keep declaration order.
type Module struct {
	Name       string
	References []string
	Attributes []Attribute
	Types      []*Type
}

// Type is a declared class with its members.
type Type struct {
	Name       string
	Interfaces []string
	Fields     []*Field
	Properties []*Property
	Methods    []*Method
}

// Field is an instance storage slot. Event fields hold a delegate chain.
type Field struct {
	Name  string
	Type  string
	Event bool
}

// Property pairs an accessor method set with its attributes. Either accessor
// may be nil.
type Property struct {
	Name          string
	DeclaringType *Type
	Getter        *Method
	Setter        *Method
	Attributes    []Attribute
}

// Method is an instance or static routine. Params does not count the
// receiver, which instance methods see as argument 0.
type Method struct {
	Name       string
	Params     int
	Returns    bool
	Static     bool
	Attributes []Attribute
	Body       []Instruction
}

// Attribute is a custom attribute usage: its type name and literal string
// arguments.
type Attribute struct {
	Type string
	Args []string
}

// SimpleName strips the namespace from a dotted type name.
func SimpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// FindType returns the type with the given full name.
func (m *Module) FindType(name string) *Type {
	for _, t := range m.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// HasAttribute reports whether the module carries an attribute of the given
// type.
func (m *Module) HasAttribute(typeName string) bool {
	for _, a := range m.Attributes {
		if a.Type == typeName {
			return true
		}
	}
	return false
}

// HasReference reports whether name is among the module references.
func (m *Module) HasReference(name string) bool {
	for _, r := range m.References {
		if r == name {
			return true
		}
	}
	return false
}

// RemoveReference drops name from the module references and reports whether
// it was present.
func (m *Module) RemoveReference(name string) bool {
	for i, r := range m.References {
		if r == name {
			m.References = append(m.References[:i], m.References[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (t *Type) Property(name string) *Property {
	for _, p := range t.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (t *Type) Method(name string) *Method {
	for _, m := range t.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// AddMethod appends a method to the type.
func (t *Type) AddMethod(m *Method) {
	t.Methods = append(t.Methods, m)
}

// Implements reports whether any declared interface has the given simple
// name. Namespaces are ignored, so unrelated interfaces sharing a simple
// name match alike.
func (t *Type) Implements(simpleName string) bool {
	for _, iface := range t.Interfaces {
		if SimpleName(iface) == simpleName {
			return true
		}
	}
	return false
}

// MethodRef is the operand form used by call instructions.
func (t *Type) MethodRef(method string) string {
	return t.Name + "::" + method
}

// SplitMethodRef splits a "Type::Method" operand.
func SplitMethodRef(ref string) (typeName, method string, ok bool) {
	typeName, method, ok = strings.Cut(ref, "::")
	if !ok || typeName == "" || method == "" {
		return "", "", false
	}
	return typeName, method, true
}

// AttributeNamed returns the first attribute whose simple type name is one
// of names.
func AttributeNamed(attrs []Attribute, names ...string) (Attribute, bool) {
	for _, a := range attrs {
		simple := SimpleName(a.Type)
		for _, n := range names {
			if simple == n {
				return a, true
			}
		}
	}
	return Attribute{}, false
}
