package prelude

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/config"
	"github.com/vito/quartz/pkg/infer"
)

func load(t *testing.T, cfg config.Config) *infer.Program {
	t.Helper()
	p := infer.New()
	require.NoError(t, Load(context.Background(), p, cfg))
	return p
}

func check(t *testing.T, p *infer.Program, src string) string {
	t.Helper()
	root, err := ast.Decode("test.yml", []byte(src))
	require.NoError(t, err)
	require.NoError(t, p.Infer(context.Background(), root))
	body := root.(*ast.Expressions).Body
	return p.Types.Name(p.TypeOf(body[len(body)-1]))
}

func TestNumeric(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want string
	}{
		{`[{kind: int_literal, value: "1"}]`, "Int32"},
		{`[{kind: float_literal, value: "1.5"}]`, "Float64"},
		{`[{kind: call, obj: {kind: int_literal, value: "1"}, name: "+", args: [{kind: int_literal, value: "2"}]}]`, "Int32"},
		{`[{kind: call, obj: {kind: int_literal, value: "1"}, name: "+", args: [{kind: float_literal, value: "2.5"}]}]`, "Float64"},
		{`[{kind: call, obj: {kind: int_literal, value: "1", suffix: Int64}, name: "*", args: [{kind: int_literal, value: "2"}]}]`, "Int64"},
		{`[{kind: call, obj: {kind: int_literal, value: "1"}, name: "<", args: [{kind: int_literal, value: "2", suffix: UInt8}]}]`, "Bool"},
		{`[{kind: call, obj: {kind: int_literal, value: "1"}, name: to_float32}]`, "Float32"},
		{`[{kind: call, obj: {kind: int_literal, value: "1"}, name: "-"}]`, "Int32"},
		{`[{kind: call, obj: {kind: int_literal, value: "1"}, name: "==", args: [{kind: nil_literal}]}]`, "Bool"},
		{`[{kind: call, obj: {kind: int_literal, value: "1"}, name: "!=", args: [{kind: int_literal, value: "2"}]}]`, "Bool"},
	} {
		t.Run(tc.src, func(t *testing.T) {
			p := load(t, config.Default())
			assert.Equal(t, tc.want, check(t, p, tc.src))
		})
	}
}

func TestUnionArithmetic(t *testing.T) {
	p := load(t, config.Default())
	got := check(t, p, `
- {kind: assign, target: {kind: var, name: a}, value: {kind: int_literal, value: "1"}}
- {kind: assign, target: {kind: var, name: a}, value: {kind: float_literal, value: "2.5"}}
- {kind: call, obj: {kind: int_literal, value: "1"}, name: "+", args: [{kind: var, name: a}]}
`)
	assert.Equal(t, "(Int32 | Float64)", got)
}

func TestConfiguredTower(t *testing.T) {
	cfg := config.Default()
	cfg.Numeric = config.Numeric{
		IntLiteral:   "Int",
		FloatLiteral: "Double",
		Kinds: []config.NumericKind{
			{Name: "Int", Size: 4, Signed: true},
			{Name: "Long", Size: 8, Signed: true},
			{Name: "Double", Size: 8, Float: true, Signed: true},
		},
		Promotions: []config.Promotion{
			{Left: "Int", Right: "Int", Result: "Long"},
		},
	}
	p := load(t, cfg)

	assert.Equal(t, "Int", check(t, p, `[{kind: int_literal, value: "1"}]`))
	assert.Equal(t, "Long", check(t, p, `[{kind: call, obj: {kind: int_literal, value: "1"}, name: "+", args: [{kind: int_literal, value: "2"}]}]`))
	assert.Equal(t, "Double", check(t, p, `[{kind: call, obj: {kind: int_literal, value: "1", suffix: Long}, name: "/", args: [{kind: float_literal, value: "2.0"}]}]`))
	_, ok := p.Types.Lookup("Int32")
	assert.False(t, ok)
}

func TestContainers(t *testing.T) {
	t.Run("arrays", func(t *testing.T) {
		p := load(t, config.Default())
		assert.Equal(t, "Int32", check(t, p, `
- {kind: assign, target: {kind: var, name: xs}, value: {kind: array_literal, elements: [{kind: char_literal, value: a}]}}
- {kind: call, obj: {kind: var, name: xs}, name: size}
`))
		assert.Equal(t, "Char", check(t, p, `
- {kind: assign, target: {kind: var, name: xs}, value: {kind: array_literal, of: Char}}
- {kind: call, obj: {kind: var, name: xs}, name: "<<", args: [{kind: char_literal, value: b}]}
- {kind: call, obj: {kind: var, name: xs}, name: "[]", args: [{kind: int_literal, value: "0"}]}
`))
		assert.Equal(t, "Bool", check(t, p, `
- {kind: call, obj: {kind: array_literal, of: Char}, name: "empty?"}
`))
	})

	t.Run("element writes are checked", func(t *testing.T) {
		p := load(t, config.Default())
		root, err := ast.Decode("test.yml", []byte(`
- {kind: assign, target: {kind: var, name: xs}, value: {kind: array_literal, elements: [{kind: int_literal, value: "1"}]}}
- {kind: call, obj: {kind: var, name: xs}, name: "[]=", args: [{kind: int_literal, value: "0"}, {kind: char_literal, value: c}]}
`))
		require.NoError(t, err)
		err = p.Infer(context.Background(), root)
		var mismatch *infer.TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "argument #2 to Array(Int32)#[]= must be Int32, not Char", mismatch.Error())
	})

	t.Run("each", func(t *testing.T) {
		p := load(t, config.Default())
		root, err := ast.Decode("test.yml", []byte(`
- kind: call
  obj: {kind: array_literal, elements: [{kind: float_literal, value: "1.5"}]}
  name: each
  block: {kind: block, params: [x], body: {kind: var, name: x}}
`))
		require.NoError(t, err)
		require.NoError(t, p.Infer(context.Background(), root))
		call := root.(*ast.Expressions).Body[0].(*ast.Call)
		assert.Equal(t, "Array(Float64)", p.Types.Name(p.TypeOf(call)))
		assert.Equal(t, "Float64", p.Types.Name(p.TypeOf(call.Block.Params[0])))
	})

	t.Run("pointers", func(t *testing.T) {
		p := load(t, config.Default())
		assert.Equal(t, "Int64", check(t, p, `
- kind: assign
  target: {kind: var, name: ptr}
  value: {kind: call, obj: {kind: path, names: [Pointer], type_args: [Int64]}, name: malloc, args: [{kind: int_literal, value: "4"}]}
- {kind: call, obj: {kind: call, obj: {kind: var, name: ptr}, name: "+", args: [{kind: int_literal, value: "1"}]}, name: value}
`))
		assert.Equal(t, "Pointer(Char)", check(t, p, `
- {kind: assign, target: {kind: var, name: c}, value: {kind: char_literal, value: c}}
- {kind: pointer_of, target: {kind: var, name: c}}
`))
	})
}

func TestExtraFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yml"), []byte(`
- {kind: def, name: answer, body: {kind: int_literal, value: "42"}}
`), 0o644))

	cfg := config.Default()
	cfg.Dir = dir
	cfg.Prelude = []string{"extra.yml"}
	p := load(t, cfg)
	assert.Equal(t, "Int32", check(t, p, `[{kind: call, name: answer}]`))

	t.Run("missing", func(t *testing.T) {
		cfg.Prelude = []string{"nope.yml"}
		err := Load(context.Background(), infer.New(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading prelude")
	})
}

func TestSource(t *testing.T) {
	root, err := ast.Decode(FileName, []byte(Source()))
	require.NoError(t, err)
	assert.NotEmpty(t, root.(*ast.Expressions).Body)
}

func TestStringsToForeignFunctions(t *testing.T) {
	p := load(t, config.Default())
	got := check(t, p, `
- kind: lib_def
  name: LibC
  body:
    - {kind: fun_def, name: strlen, params: ["s : UInt8*"], return: Int64}
- {kind: call, obj: {kind: path, names: [LibC]}, name: strlen, args: [{kind: string_literal, value: hello}]}
`)
	assert.Equal(t, "Int64", got)
}
