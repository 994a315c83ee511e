package module

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the module's structure and instruction streams. Two
// modules with equal fingerprints encode to the same document.
func (m *Module) Fingerprint() uint64 {
	d := xxhash.New()
	w := func(parts ...string) {
		for _, p := range parts {
			d.WriteString(p)
			d.Write([]byte{0})
		}
	}
	attrs := func(as []Attribute) {
		w("attrs", strconv.Itoa(len(as)))
		for _, a := range as {
			w(a.Type, strconv.Itoa(len(a.Args)))
			w(a.Args...)
		}
	}

	w("module", m.Name, strconv.Itoa(len(m.References)))
	w(m.References...)
	attrs(m.Attributes)
	for _, t := range m.Types {
		w("type", t.Name, strconv.Itoa(len(t.Interfaces)))
		w(t.Interfaces...)
		for _, f := range t.Fields {
			w("field", f.Name, f.Type, strconv.FormatBool(f.Event))
		}
		for _, p := range t.Properties {
			w("property", p.Name, accessorName(p.Getter), accessorName(p.Setter))
			attrs(p.Attributes)
		}
		for _, mt := range t.Methods {
			w("method", mt.Name, strconv.Itoa(mt.Params), strconv.FormatBool(mt.Returns), strconv.FormatBool(mt.Static))
			attrs(mt.Attributes)
			for _, ins := range mt.Body {
				w(ins.Label, ins.Op.String(), ins.Operand)
			}
		}
	}
	return d.Sum64()
}

func accessorName(m *Method) string {
	if m == nil {
		return ""
	}
	return m.Name
}
