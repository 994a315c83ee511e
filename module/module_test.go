package module_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/delaneyj/autonotify/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterDoc = `
name: Counters
references: [netstandard]
types:
  - name: Counters.Counter
    interfaces: [System.ComponentModel.INotifyPropertyChanged]
    fields:
      - name: count
        type: int64
      - name: PropertyChanged
        type: System.ComponentModel.PropertyChangedEventHandler
        event: true
    properties:
      - name: Count
        get: get_Count
        set: set_Count
        attributes:
          - type: AutoPropertyChanged.NotifyChangedAttribute
    methods:
      - name: get_Count
        returns: true
        body:
          - ldarg 0
          - ldfld count
          - ret
      - name: set_Count
        params: 1
        body:
          - ldarg 1
          - ldc 0
          - clt
          - brtrue done
          - ldarg 0
          - ldarg 1
          - stfld count
          - "done: ret"
`

func TestParseInstruction(t *testing.T) {
	cases := []struct {
		text string
		want module.Instruction
	}{
		{"ret", module.Instruction{Op: module.OpRet}},
		{"ldarg 1", module.Instruction{Op: module.OpLdarg, Operand: "1"}},
		{"end: ret", module.Instruction{Label: "end", Op: module.OpRet}},
		{`ldstr "a b: c"`, module.Instruction{Op: module.OpLdstr, Operand: "a b: c"}},
		{"call A.B::get_X", module.Instruction{Op: module.OpCall, Operand: "A.B::get_X"}},
		{"ldcr 1.5", module.Instruction{Op: module.OpLdcr, Operand: "1.5"}},
	}
	for _, tc := range cases {
		got, err := module.ParseInstruction(tc.text)
		require.NoError(t, err, tc.text)
		assert.Equal(t, tc.want, got, tc.text)

		again, err := module.ParseInstruction(got.String())
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestParseInstructionErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"jump 3",
		"ret 1",
		"ldfld",
		"ldarg x",
		"ldstr unquoted",
		": ret",
	} {
		_, err := module.ParseInstruction(text)
		assert.Error(t, err, "%q", text)
	}
}

func TestLabels(t *testing.T) {
	body := module.MustParseBody(`
		// guard
		brtrue end
		nop
		end: ret
	`)
	labels, err := module.Labels(body)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"end": 2}, labels)

	_, err = module.Labels(module.MustParseBody("br missing\nret"))
	assert.ErrorContains(t, err, "undefined label")

	_, err = module.Labels(module.MustParseBody("a: nop\na: ret"))
	assert.ErrorContains(t, err, "duplicate label")
}

func TestLoadResolvesAccessors(t *testing.T) {
	m, err := module.Parse([]byte(counterDoc))
	require.NoError(t, err)

	typ := m.FindType("Counters.Counter")
	require.NotNil(t, typ)
	assert.True(t, typ.Implements("INotifyPropertyChanged"))

	p := typ.Property("Count")
	require.NotNil(t, p)
	assert.Same(t, typ, p.DeclaringType)
	assert.Same(t, typ.Method("set_Count"), p.Setter)
	assert.Same(t, typ.Method("get_Count"), p.Getter)
	assert.Equal(t, "done", p.Setter.Body[len(p.Setter.Body)-1].Label)
	assert.True(t, typ.Field("PropertyChanged").Event)
}

func TestLoadRejectsBrokenDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown accessor": strings.Replace(counterDoc, "set: set_Count", "set: set_Missing", 1),
		"bad opcode":       strings.Replace(counterDoc, "- ldfld count", "- loadfield count", 1),
		"dangling branch":  strings.Replace(counterDoc, "brtrue done", "brtrue nowhere", 1),
		"unknown key":      strings.Replace(counterDoc, "returns: true", "returns: true\n        inline: true", 1),
		"no name":          strings.Replace(counterDoc, "name: Counters\n", "", 1),
	}
	for name, doc := range cases {
		_, err := module.Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadRejectsSharedAccessors(t *testing.T) {
	doc := strings.Replace(counterDoc, "    methods:\n", "      - name: Total\n        set: set_Count\n    methods:\n", 1)
	_, err := module.Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `accessor "set_Count" already belongs to property "Count"`)
}

func TestSaveLoadKeepsFingerprint(t *testing.T) {
	m, err := module.Parse([]byte(counterDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, module.Save(&buf, m))
	assert.Contains(t, buf.String(), "checksum:")

	again, err := module.Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Fingerprint(), again.Fingerprint())
}

func TestLoadDetectsTampering(t *testing.T) {
	m, err := module.Parse([]byte(counterDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, module.Save(&buf, m))

	tampered := strings.Replace(buf.String(), "ldfld count", "ldfld PropertyChanged", 1)
	_, err = module.Parse([]byte(tampered))
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestCloneIsDeep(t *testing.T) {
	m, err := module.Parse([]byte(counterDoc))
	require.NoError(t, err)
	before := m.Fingerprint()

	c := m.Clone()
	assert.Equal(t, before, c.Fingerprint())

	ct := c.FindType("Counters.Counter")
	p := ct.Property("Count")
	assert.Same(t, ct.Method("set_Count"), p.Setter)
	assert.Same(t, ct, p.DeclaringType)

	p.Setter.Body = append(p.Setter.Body, module.Ins(module.OpNop))
	p.Attributes[0].Args = append(p.Attributes[0].Args, "x")
	c.References = append(c.References, "mscorlib")

	assert.Equal(t, before, m.Fingerprint())
	assert.NotEqual(t, before, c.Fingerprint())
}

func TestAddAutoProperty(t *testing.T) {
	typ := &module.Type{Name: "Shapes.Box"}
	p := typ.AddAutoProperty("Width", "int64")

	assert.Equal(t, "<Width>k__BackingField", typ.Fields[0].Name)
	assert.Equal(t, 1, p.Setter.Params)
	assert.Equal(t, module.OpRet, p.Setter.Body[len(p.Setter.Body)-1].Op)
	assert.True(t, p.Getter.Returns)

	c := typ.AddComputedProperty("Area", module.MustParseBody("ldc 0\nret"))
	assert.Nil(t, c.Setter)
}

func TestReferences(t *testing.T) {
	m := &module.Module{References: []string{"netstandard", "AutoPropertyChanged"}}
	assert.True(t, m.HasReference("AutoPropertyChanged"))
	assert.True(t, m.RemoveReference("AutoPropertyChanged"))
	assert.False(t, m.RemoveReference("AutoPropertyChanged"))
	assert.Equal(t, []string{"netstandard"}, m.References)
}

func TestSimpleName(t *testing.T) {
	assert.Equal(t, "INotifyPropertyChanged", module.SimpleName("System.ComponentModel.INotifyPropertyChanged"))
	assert.Equal(t, "Point", module.SimpleName("Point"))

	_, _, ok := module.SplitMethodRef("NoSeparator")
	assert.False(t, ok)
	typ, name, ok := module.SplitMethodRef("System.Math::Sqrt")
	assert.True(t, ok)
	assert.Equal(t, "System.Math", typ)
	assert.Equal(t, "Sqrt", name)
}
