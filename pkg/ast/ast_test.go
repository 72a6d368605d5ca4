package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
- kind: def
  name: add
  params: ["x : Int32", y]
  body:
    kind: call
    obj: {kind: var, name: x}
    name: "+"
    args:
      - {kind: var, name: y}
- kind: assign
  target: {kind: var, name: a}
  value: {kind: int_literal, value: 1}
- kind: call
  name: add
  args:
    - {kind: var, name: a}
    - {kind: float_literal, value: "2.5"}
  block:
    kind: block
    params: [item]
    body: {kind: yield}
`

func TestDecode(t *testing.T) {
	root, err := Decode("sample.yml", []byte(sample))
	require.NoError(t, err)

	exprs, ok := root.(*Expressions)
	require.True(t, ok)
	require.Len(t, exprs.Body, 3)

	def := exprs.Body[0].(*Def)
	assert.Equal(t, "add", def.Name)
	require.Len(t, def.Params, 2)
	assert.Equal(t, "x", def.Params[0].Name)
	assert.Equal(t, "Int32", def.Params[0].Restriction.String())
	assert.Nil(t, def.Params[1].Restriction)

	assign := exprs.Body[1].(*Assign)
	assert.Equal(t, "1", assign.Value.(*IntLiteral).Value)
	loc := assign.Target.GetSourceLocation()
	require.NotNil(t, loc)
	assert.Equal(t, "sample.yml", loc.Filename)
	assert.Equal(t, 12, loc.Line)

	call := exprs.Body[2].(*Call)
	require.NotNil(t, call.Block)
	assert.Equal(t, "item", call.Block.Params[0].Name)
}

func TestDecodeErrors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown kind":  `{kind: frobnicate}`,
		"missing kind":  `{name: x}`,
		"unknown field": `{kind: var, nmae: x}`,
		"wrong child":   `{kind: class_def, name: Foo, superclass: {kind: int_literal, value: 1}}`,
		"bad type":      `{kind: is_a, obj: {kind: self}, type: "Array("}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode("bad.yml", []byte(src))
			var synErr *SyntaxError
			require.ErrorAs(t, err, &synErr)
			assert.Equal(t, "bad.yml", synErr.Loc.Filename)
		})
	}
}

func TestKindTags(t *testing.T) {
	for k := KindNop; k < kindCount; k++ {
		got, ok := KindForTag(k.Tag())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
		assert.Equal(t, k, New(k).Kind())
	}
	assert.Equal(t, "int_literal", KindIntLiteral.Tag())
	assert.Equal(t, "instance_var", KindInstanceVar.Tag())
}

func TestCloneAndWalk(t *testing.T) {
	root, err := Decode("sample.yml", []byte(sample))
	require.NoError(t, err)
	root.SetBinding(7)

	clone := Clone(root)
	assert.Zero(t, clone.Binding())
	assert.NotSame(t, root, clone)

	orig := root.(*Expressions).Body[1].(*Assign)
	copied := clone.(*Expressions).Body[1].(*Assign)
	assert.NotSame(t, orig.Value, copied.Value)
	assert.Same(t, orig.GetSourceLocation(), copied.GetSourceLocation())

	copied.Value.(*IntLiteral).Value = "2"
	assert.Equal(t, "1", orig.Value.(*IntLiteral).Value)

	var kinds []Kind
	Walk(root, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindDef
	})
	assert.Equal(t, []Kind{
		KindExpressions,
		KindDef,
		KindAssign, KindVar, KindIntLiteral,
		KindCall, KindVar, KindFloatLiteral, KindBlock, KindVar, KindYield,
	}, kinds)
}

func TestEncodeRoundTrip(t *testing.T) {
	root, err := Decode("sample.yml", []byte(sample))
	require.NoError(t, err)

	data, err := Encode(root)
	require.NoError(t, err)

	again, err := Decode("encoded.yml", data)
	require.NoError(t, err)
	data2, err := Encode(again)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(data2))
}

func TestParseType(t *testing.T) {
	for src, want := range map[string]string{
		"Int32":                   "Int32",
		"Int32|Nil":               "Int32 | Nil",
		"Pointer(Char)":           "Pointer(Char)",
		"Hash(String, Array(T))":  "Hash(String, Array(T))",
		"C::Point":                "C::Point",
		"self":                    "self",
		"UInt8*":                  "Pointer(UInt8)",
		"Char**":                  "Pointer(Pointer(Char))",
	} {
		te, err := ParseType(src)
		require.NoError(t, err, src)
		assert.Equal(t, want, te.String())
	}
	_, err := ParseType("Int32 Float64")
	assert.Error(t, err)
}

func TestOutParams(t *testing.T) {
	root, err := Decode("lib.yml", []byte(`
- kind: lib_def
  name: C
  body: [{kind: fun_def, name: div, params: ["n : Int32", "out rem : Int32"]}]
- {kind: call, obj: {kind: path, names: [C]}, name: div, args: [{kind: int_literal, value: "7"}, {kind: var, name: r, out: true}]}
`))
	require.NoError(t, err)
	body := root.(*Expressions).Body

	fun := body[0].(*LibDef).Body[0].(*FunDef)
	require.Len(t, fun.Params, 2)
	assert.False(t, fun.Params[0].Out)
	assert.True(t, fun.Params[1].Out)
	assert.Equal(t, "rem", fun.Params[1].Name)
	assert.Equal(t, "Int32", fun.Params[1].Restriction.String())

	arg := body[1].(*Call).Args[1].(*Var)
	assert.True(t, arg.Out)
}
