package module

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type moduleDoc struct {
	Name       string         `yaml:"name"`
	Checksum   string         `yaml:"checksum,omitempty"`
	References []string       `yaml:"references,omitempty,flow"`
	Attributes []attributeDoc `yaml:"attributes,omitempty"`
	Types      []typeDoc      `yaml:"types"`
}

type attributeDoc struct {
	Type string   `yaml:"type"`
	Args []string `yaml:"args,omitempty,flow"`
}

type typeDoc struct {
	Name       string        `yaml:"name"`
	Interfaces []string      `yaml:"interfaces,omitempty,flow"`
	Fields     []fieldDoc    `yaml:"fields,omitempty"`
	Properties []propertyDoc `yaml:"properties,omitempty"`
	Methods    []methodDoc   `yaml:"methods,omitempty"`
}

type fieldDoc struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Event bool   `yaml:"event,omitempty"`
}

type propertyDoc struct {
	Name       string         `yaml:"name"`
	Getter     string         `yaml:"get,omitempty"`
	Setter     string         `yaml:"set,omitempty"`
	Attributes []attributeDoc `yaml:"attributes,omitempty"`
}

type methodDoc struct {
	Name       string         `yaml:"name"`
	Params     int            `yaml:"params,omitempty"`
	Returns    bool           `yaml:"returns,omitempty"`
	Static     bool           `yaml:"static,omitempty"`
	Attributes []attributeDoc `yaml:"attributes,omitempty"`
	Body       []string       `yaml:"body"`
}

// Load decodes a module document. A checksum recorded in the document must
// match the decoded module's fingerprint.
func Load(r io.Reader) (*Module, error) {
	var doc moduleDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding module: %w", err)
	}

	m, err := fromDoc(&doc)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", doc.Name, err)
	}

	if doc.Checksum != "" {
		want, err := strconv.ParseUint(doc.Checksum, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("module %q: bad checksum %q: %w", doc.Name, doc.Checksum, err)
		}
		if got := m.Fingerprint(); got != want {
			return nil, fmt.Errorf("module %q: checksum mismatch: recorded %016x, computed %016x", doc.Name, want, got)
		}
	}
	return m, nil
}

// LoadFile reads a module document from path.
func LoadFile(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Parse decodes a module document held in memory.
func Parse(src []byte) (*Module, error) {
	return Load(bytes.NewReader(src))
}

// Save encodes m with its current fingerprint.
func Save(w io.Writer, m *Module) error {
	doc := toDoc(m)
	doc.Checksum = fmt.Sprintf("%016x", m.Fingerprint())

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding module %q: %w", m.Name, err)
	}
	return enc.Close()
}

// SaveFile writes m to path.
func SaveFile(path string, m *Module) error {
	var buf bytes.Buffer
	if err := Save(&buf, m); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func fromDoc(doc *moduleDoc) (*Module, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("missing module name")
	}
	m := &Module{
		Name:       doc.Name,
		References: doc.References,
		Attributes: fromAttributeDocs(doc.Attributes),
	}

	seenTypes := map[string]bool{}
	for i := range doc.Types {
		td := &doc.Types[i]
		if td.Name == "" {
			return nil, fmt.Errorf("type %d: missing name", i)
		}
		if seenTypes[td.Name] {
			return nil, fmt.Errorf("duplicate type %q", td.Name)
		}
		seenTypes[td.Name] = true

		t, err := typeFromDoc(td)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", td.Name, err)
		}
		m.Types = append(m.Types, t)
	}
	return m, nil
}

func typeFromDoc(td *typeDoc) (*Type, error) {
	t := &Type{
		Name:       td.Name,
		Interfaces: td.Interfaces,
	}

	for _, fd := range td.Fields {
		if t.Field(fd.Name) != nil {
			return nil, fmt.Errorf("duplicate field %q", fd.Name)
		}
		t.Fields = append(t.Fields, &Field{Name: fd.Name, Type: fd.Type, Event: fd.Event})
	}

	for _, md := range td.Methods {
		if t.Method(md.Name) != nil {
			return nil, fmt.Errorf("duplicate method %q", md.Name)
		}
		body := make([]Instruction, 0, len(md.Body))
		for j, line := range md.Body {
			ins, err := ParseInstruction(line)
			if err != nil {
				return nil, fmt.Errorf("method %q: instruction %d: %w", md.Name, j, err)
			}
			body = append(body, ins)
		}
		if _, err := Labels(body); err != nil {
			return nil, fmt.Errorf("method %q: %w", md.Name, err)
		}
		t.Methods = append(t.Methods, &Method{
			Name:       md.Name,
			Params:     md.Params,
			Returns:    md.Returns,
			Static:     md.Static,
			Attributes: fromAttributeDocs(md.Attributes),
			Body:       body,
		})
	}

	bound := map[*Method]string{}
	for _, pd := range td.Properties {
		if t.Property(pd.Name) != nil {
			return nil, fmt.Errorf("duplicate property %q", pd.Name)
		}
		p := &Property{
			Name:          pd.Name,
			DeclaringType: t,
			Attributes:    fromAttributeDocs(pd.Attributes),
		}
		if pd.Getter != "" {
			if p.Getter = t.Method(pd.Getter); p.Getter == nil {
				return nil, fmt.Errorf("property %q: getter %q not declared", pd.Name, pd.Getter)
			}
		}
		if pd.Setter != "" {
			if p.Setter = t.Method(pd.Setter); p.Setter == nil {
				return nil, fmt.Errorf("property %q: setter %q not declared", pd.Name, pd.Setter)
			}
		}
		for _, acc := range []*Method{p.Getter, p.Setter} {
			if acc == nil {
				continue
			}
			if owner, ok := bound[acc]; ok {
				return nil, fmt.Errorf("property %q: accessor %q already belongs to property %q", pd.Name, acc.Name, owner)
			}
			bound[acc] = pd.Name
		}
		t.Properties = append(t.Properties, p)
	}
	return t, nil
}

func fromAttributeDocs(docs []attributeDoc) []Attribute {
	if len(docs) == 0 {
		return nil
	}
	attrs := make([]Attribute, len(docs))
	for i, d := range docs {
		attrs[i] = Attribute{Type: d.Type, Args: d.Args}
	}
	return attrs
}

func toAttributeDocs(attrs []Attribute) []attributeDoc {
	if len(attrs) == 0 {
		return nil
	}
	docs := make([]attributeDoc, len(attrs))
	for i, a := range attrs {
		docs[i] = attributeDoc{Type: a.Type, Args: a.Args}
	}
	return docs
}

func toDoc(m *Module) *moduleDoc {
	doc := &moduleDoc{
		Name:       m.Name,
		References: m.References,
		Attributes: toAttributeDocs(m.Attributes),
	}
	for _, t := range m.Types {
		td := typeDoc{
			Name:       t.Name,
			Interfaces: t.Interfaces,
		}
		for _, f := range t.Fields {
			td.Fields = append(td.Fields, fieldDoc{Name: f.Name, Type: f.Type, Event: f.Event})
		}
		for _, p := range t.Properties {
			pd := propertyDoc{Name: p.Name, Attributes: toAttributeDocs(p.Attributes)}
			if p.Getter != nil {
				pd.Getter = p.Getter.Name
			}
			if p.Setter != nil {
				pd.Setter = p.Setter.Name
			}
			td.Properties = append(td.Properties, pd)
		}
		for _, mt := range t.Methods {
			md := methodDoc{
				Name:       mt.Name,
				Params:     mt.Params,
				Returns:    mt.Returns,
				Static:     mt.Static,
				Attributes: toAttributeDocs(mt.Attributes),
				Body:       make([]string, len(mt.Body)),
			}
			for i, ins := range mt.Body {
				md.Body[i] = ins.String()
			}
			td.Methods = append(td.Methods, md)
		}
		doc.Types = append(doc.Types, td)
	}
	return doc
}
