package compiler

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/infer"
	"github.com/vito/quartz/pkg/macro"
)

func dump(t *testing.T, res *Result) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, res))
	return buf.String()
}

func TestDumpGolden(t *testing.T) {
	res, err := CompileFile(context.Background(), "testdata/dispatch.yml")
	require.NoError(t, err)
	golden.Assert(t, dump(t, res), "dispatch.golden")
}

func TestDeterminism(t *testing.T) {
	ctx := context.Background()
	first, err := CompileFile(ctx, "testdata/shapes.yml")
	require.NoError(t, err)
	second, err := CompileFile(ctx, "testdata/shapes.yml")
	require.NoError(t, err)
	assert.Equal(t, dump(t, first), dump(t, second))

	var mangled []string
	for _, inst := range first.Instances() {
		mangled = append(mangled, inst.Mangled())
	}
	assert.IsNonDecreasing(t, mangled)
}

func TestHierarchyDispatch(t *testing.T) {
	res, err := CompileFile(context.Background(), "testdata/shapes.yml")
	require.NoError(t, err)
	body := res.Roots[0].(*ast.Expressions).Body
	call := body[len(body)-1]
	p := res.Program
	assert.Equal(t, "(Int32 | Float64)", p.Types.Name(p.TypeOf(call)))

	d, ok := infer.Dispatches(call.(*ast.Call))
	require.True(t, ok)
	assert.Len(t, d.Subcalls, 3)
}

func TestErrors(t *testing.T) {
	const path = "testdata/undefined.yml"
	_, err := CompileFile(context.Background(), path)
	require.Error(t, err)

	out := ansi.Strip(infer.FormatError(err, Sources(path)))
	assert.Contains(t, out, "Error: undefined local variable or method 'b' (in 'foo')")
	assert.Contains(t, out, "--> testdata/undefined.yml:3:9")
	assert.Contains(t, out, "while instantiating 'foo()'")
	assert.Contains(t, out, "--> testdata/undefined.yml:4:3")
}

func TestMacros(t *testing.T) {
	root, err := ast.Decode("macro.yml", []byte(`
- {kind: macro_def, name: double, params: [x], body: {kind: call, obj: {kind: var, name: x}, name: "+", args: [{kind: var, name: x}]}}
- {kind: call, name: double, args: [{kind: float_literal, value: "1.5"}]}
`))
	require.NoError(t, err)

	res, err := Compile(context.Background(), root, WithExpander(macro.Substitute))
	require.NoError(t, err)
	out := dump(t, res)
	assert.Contains(t, out, "call double : Float64")
	assert.Contains(t, out, "expanded:")
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CompileFile(ctx, "testdata/dispatch.yml")
	require.ErrorIs(t, err, context.Canceled)
}
