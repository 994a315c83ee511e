package module

import "fmt"

// BackingFieldName is the storage slot generated for an auto-implemented
// property.
func BackingFieldName(property string) string {
	return fmt.Sprintf("<%s>k__BackingField", property)
}

// AddAutoProperty declares a field-backed property with a plain getter and
// a single-exit setter, the shape a compiler emits for `{ get; set; }`.
func (t *Type) AddAutoProperty(name, fieldType string, attrs ...Attribute) *Property {
	field := BackingFieldName(name)
	t.Fields = append(t.Fields, &Field{Name: field, Type: fieldType})

	getter := &Method{
		Name:    "get_" + name,
		Returns: true,
		Body: []Instruction{
			Ins(OpLdarg, "0"),
			Ins(OpLdfld, field),
			Ins(OpRet),
		},
	}
	setter := &Method{
		Name:   "set_" + name,
		Params: 1,
		Body: []Instruction{
			Ins(OpLdarg, "0"),
			Ins(OpLdarg, "1"),
			Ins(OpStfld, field),
			Ins(OpRet),
		},
	}
	t.Methods = append(t.Methods, getter, setter)

	p := &Property{
		Name:          name,
		DeclaringType: t,
		Getter:        getter,
		Setter:        setter,
		Attributes:    attrs,
	}
	t.Properties = append(t.Properties, p)
	return p
}

// AddComputedProperty declares a read-only property whose getter runs body.
func (t *Type) AddComputedProperty(name string, body []Instruction, attrs ...Attribute) *Property {
	getter := &Method{
		Name:    "get_" + name,
		Returns: true,
		Body:    body,
	}
	t.Methods = append(t.Methods, getter)

	p := &Property{
		Name:          name,
		DeclaringType: t,
		Getter:        getter,
		Attributes:    attrs,
	}
	t.Properties = append(t.Properties, p)
	return p
}

// AddEvent declares an event field.
func (t *Type) AddEvent(name, delegateType string) *Field {
	f := &Field{Name: name, Type: delegateType, Event: true}
	t.Fields = append(t.Fields, f)
	return f
}
