package module

// Clone returns a deep copy of m. Property accessors point at the copied
// methods.
func (m *Module) Clone() *Module {
	c := &Module{
		Name:       m.Name,
		References: append([]string(nil), m.References...),
		Attributes: cloneAttributes(m.Attributes),
		Types:      make([]*Type, 0, len(m.Types)),
	}
	for _, t := range m.Types {
		c.Types = append(c.Types, t.clone())
	}
	return c
}

func (t *Type) clone() *Type {
	c := &Type{
		Name:       t.Name,
		Interfaces: append([]string(nil), t.Interfaces...),
	}
	for _, f := range t.Fields {
		fc := *f
		c.Fields = append(c.Fields, &fc)
	}
	methods := make(map[*Method]*Method, len(t.Methods))
	for _, mt := range t.Methods {
		mc := &Method{
			Name:       mt.Name,
			Params:     mt.Params,
			Returns:    mt.Returns,
			Static:     mt.Static,
			Attributes: cloneAttributes(mt.Attributes),
			Body:       append([]Instruction(nil), mt.Body...),
		}
		methods[mt] = mc
		c.Methods = append(c.Methods, mc)
	}
	for _, p := range t.Properties {
		c.Properties = append(c.Properties, &Property{
			Name:          p.Name,
			DeclaringType: c,
			Getter:        methods[p.Getter],
			Setter:        methods[p.Setter],
			Attributes:    cloneAttributes(p.Attributes),
		})
	}
	return c
}

func cloneAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	c := make([]Attribute, len(attrs))
	for i, a := range attrs {
		c[i] = Attribute{Type: a.Type, Args: append([]string(nil), a.Args...)}
	}
	return c
}
