package weaver

import (
	"errors"
	"testing"

	"github.com/delaneyj/autonotify/module"
	"github.com/delaneyj/autonotify/samples"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyText(body []module.Instruction) []string {
	lines := make([]string, len(body))
	for i, ins := range body {
		lines[i] = ins.String()
	}
	return lines
}

func TestSynthesizeHelper(t *testing.T) {
	m := samples.MustLoad(samples.Point)
	point := m.Types[0]

	helper, err := SynthesizeHelper(point, point.Field("PropertyChanged"), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, DefaultHelperName, helper.Name)
	assert.Equal(t, 1, helper.Params)
	assert.False(t, helper.Returns)
	assert.False(t, helper.Static)
	assert.Equal(t, []module.Attribute{{Type: module.CompilerGeneratedAttribute}}, helper.Attributes)
	assert.Equal(t, []string{
		"ldarg 0",
		"ldfld PropertyChanged",
		"dup",
		"brtrue raise",
		"pop",
		"ret",
		"raise: ldarg 0",
		"ldarg 1",
		"newobj System.ComponentModel.PropertyChangedEventArgs",
		"callvirt System.ComponentModel.PropertyChangedEventHandler::Invoke",
		"ret",
	}, bodyText(helper.Body))

	// not attached yet
	assert.Nil(t, point.Method(DefaultHelperName))
}

func TestSynthesizeHelperNameClash(t *testing.T) {
	m := samples.MustLoad(samples.Point)
	point := m.Types[0]
	point.AddMethod(&module.Method{Name: DefaultHelperName, Body: module.MustParseBody("ret")})

	_, err := SynthesizeHelper(point, point.Field("PropertyChanged"), DefaultOptions())
	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, "AssemblyToProcess.Point", structural.Type)
}

func TestImportRuntimeTypes(t *testing.T) {
	opts := DefaultOptions()

	ref, added, err := importRuntimeTypes(&module.Module{References: []string{"mscorlib"}}, opts)
	require.NoError(t, err)
	assert.Equal(t, "mscorlib", ref)
	assert.False(t, added)

	ref, added, err = importRuntimeTypes(&module.Module{}, opts)
	require.NoError(t, err)
	assert.Equal(t, "netstandard", ref)
	assert.True(t, added)

	opts.ResolvedReferences = []ResolvedReference{{Name: "System.Runtime", Types: []string{module.MathType}}}
	_, _, err = importRuntimeTypes(&module.Module{}, opts)
	var structural *StructuralError
	assert.ErrorAs(t, err, &structural)
}

func TestCheckSetterShape(t *testing.T) {
	cases := map[string]struct {
		setter *module.Method
		reason string
	}{
		"no setter": {nil, "no setter"},
		"static": {
			&module.Method{Name: "set_P", Static: true, Params: 1, Body: module.MustParseBody("ret")},
			"static",
		},
		"empty": {
			&module.Method{Name: "set_P", Params: 1},
			"no body",
		},
		"no trailing ret": {
			&module.Method{Name: "set_P", Params: 1, Body: module.MustParseBody("ldstr \"boom\"\nthrow")},
			"does not end with ret",
		},
		"early return": {
			&module.Method{Name: "set_P", Params: 1, Body: module.MustParseBody(`
				ldarg 1
				brtrue store
				ret
				store: ldarg 0
				ldarg 1
				stfld p
				ret
			`)},
			"2 exits",
		},
		"dangling branch": {
			&module.Method{Name: "set_P", Params: 1, Body: []module.Instruction{
				module.Ins(module.OpBr, "nowhere"),
				module.Ins(module.OpRet),
			}},
			"malformed",
		},
	}
	for name, tc := range cases {
		typ := &module.Type{Name: "Shapes.Odd"}
		p := &module.Property{Name: "P", DeclaringType: typ, Setter: tc.setter}

		_, err := CheckSetterShape(p)
		var shape *InstrumentationShapeError
		require.True(t, errors.As(err, &shape), "%s: got %v", name, err)
		assert.Equal(t, "Shapes.Odd", shape.Type, name)
		assert.Equal(t, "P", shape.Property, name)
		assert.Contains(t, shape.Reason, tc.reason, name)
	}
}

func TestInstrumentSetterAppendsBeforeRet(t *testing.T) {
	m := samples.MustLoad(samples.Point)
	point := m.Types[0]
	x := point.Property("X")
	getter := append([]module.Instruction(nil), x.Getter.Body...)
	helper := &module.Method{Name: DefaultHelperName, Params: 1}

	require.NoError(t, InstrumentSetter(x, helper, []string{"Magnitude", "X"}))

	assert.Equal(t, []string{
		"ldarg 0",
		"ldarg 1",
		"stfld <X>k__BackingField",
		"ldarg 0",
		`ldstr "Magnitude"`,
		"call AssemblyToProcess.Point::<>OnPropertyChanged",
		"ldarg 0",
		`ldstr "X"`,
		"call AssemblyToProcess.Point::<>OnPropertyChanged",
		"ret",
	}, bodyText(x.Setter.Body))
	assert.Equal(t, 1, x.Setter.Params)
	assert.Equal(t, getter, x.Getter.Body)
}

func TestInstrumentSetterRetargetsBranchesToTail(t *testing.T) {
	m := samples.MustLoad(samples.Shapes)
	thermostat := m.FindType("Shapes.Thermostat")
	celsius := thermostat.Property("Celsius")
	helper := &module.Method{Name: DefaultHelperName, Params: 1}

	require.NoError(t, InstrumentSetter(celsius, helper, []string{"Celsius"}))

	body := celsius.Setter.Body
	labels, err := module.Labels(body)
	require.NoError(t, err)
	done := labels["done"]
	assert.Equal(t, module.OpLdarg, body[done].Op)
	assert.Equal(t, module.OpLdstr, body[done+1].Op)
	assert.Equal(t, "Celsius", body[done+1].Operand)

	last := body[len(body)-1]
	assert.Equal(t, module.OpRet, last.Op)
	assert.Empty(t, last.Label)
}

func TestInstrumentSetterKeepsThrowPaths(t *testing.T) {
	m := samples.MustLoad(samples.Shapes)
	setpoint := m.FindType("Shapes.Thermostat").Property("Setpoint")
	before := bodyText(setpoint.Setter.Body)
	helper := &module.Method{Name: DefaultHelperName, Params: 1}

	require.NoError(t, InstrumentSetter(setpoint, helper, []string{"Setpoint"}))

	after := bodyText(setpoint.Setter.Body)
	assert.Equal(t, before[:len(before)-1], after[:len(before)-1])
	assert.Len(t, after, len(before)+3)
}

func TestInstrumentSetterRejectsEarlyReturn(t *testing.T) {
	m := samples.MustLoad(samples.EarlyReturn)
	balance := m.Types[0].Property("Balance")
	before := bodyText(balance.Setter.Body)

	err := InstrumentSetter(balance, &module.Method{Name: DefaultHelperName}, []string{"Balance"})
	var shape *InstrumentationShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, before, bodyText(balance.Setter.Body))
}

func TestVerifyCatchesSetterChangedAfterPlanning(t *testing.T) {
	m := samples.MustLoad(samples.Point)
	scanned, err := Scan(m, DefaultOptions())
	require.NoError(t, err)

	w := New(DefaultOptions())
	tp, err := w.plan(scanned[0])
	require.NoError(t, err)
	require.NoError(t, verify([]*typePlan{tp}))

	x := m.Types[0].Property("X")
	x.Setter.Body = append([]module.Instruction{module.Ins(module.OpRet)}, x.Setter.Body...)

	err = verify([]*typePlan{tp})
	var shape *InstrumentationShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "X", shape.Property)

	_, err = w.apply(tp)
	assert.ErrorAs(t, err, &shape)
}
