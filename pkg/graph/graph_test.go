package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/quartz/pkg/types"
)

func newTestGraph() (*Graph, types.ID, types.ID) {
	tab := types.NewTable()
	i32 := tab.DefinePrimitive("Int32", 4, tab.Numeric, &types.Numeric{Signed: true})
	f64 := tab.DefinePrimitive("Float64", 8, tab.Numeric, &types.Numeric{Float: true, Signed: true})
	return New(tab), i32, f64
}

func TestBindPropagates(t *testing.T) {
	g, i32, f64 := newTestGraph()

	one := g.NewNode("1")
	half := g.NewNode("2.5")
	a := g.NewNode("a")
	read := g.NewNode("a (read)")

	require.NoError(t, g.SetType(one, i32))
	require.NoError(t, g.Bind(a, one))
	require.NoError(t, g.Bind(read, a))
	assert.Equal(t, i32, g.Type(read))

	require.NoError(t, g.SetType(half, f64))
	require.NoError(t, g.Bind(a, half))
	assert.Equal(t, "(Int32 | Float64)", g.Types.Name(g.Type(a)))
	assert.Equal(t, g.Type(a), g.Type(read))
}

func TestCyclesConverge(t *testing.T) {
	g, i32, f64 := newTestGraph()

	a := g.NewNode("a")
	b := g.NewNode("b")
	require.NoError(t, g.Bind(a, b))
	require.NoError(t, g.Bind(b, a))
	assert.Equal(t, types.None, g.Type(a))

	lit := g.NewNode("1")
	require.NoError(t, g.SetType(lit, i32))
	require.NoError(t, g.Bind(a, lit))
	assert.Equal(t, i32, g.Type(a))
	assert.Equal(t, i32, g.Type(b))

	flt := g.NewNode("1.5")
	require.NoError(t, g.SetType(flt, f64))
	require.NoError(t, g.Bind(b, flt))
	assert.Equal(t, g.Type(a), g.Type(b))
	assert.Equal(t, "(Int32 | Float64)", g.Types.Name(g.Type(a)))
}

func TestFrozen(t *testing.T) {
	g, i32, f64 := newTestGraph()

	param := g.NewNode("putchar arg")
	g.Freeze(param, i32)

	ok := g.NewNode("1")
	require.NoError(t, g.SetType(ok, i32))
	require.NoError(t, g.Bind(param, ok))
	assert.Equal(t, i32, g.Type(param))

	bad := g.NewNode("2.5")
	require.NoError(t, g.SetType(bad, f64))
	err := g.Bind(param, bad)
	var frozen *FrozenTypeError
	require.ErrorAs(t, err, &frozen)
	assert.Equal(t, "Int32", frozen.Declared)
	assert.Equal(t, "(Int32 | Float64)", frozen.Got)
	assert.Equal(t, i32, g.Type(param))
}

func TestRecalc(t *testing.T) {
	g, i32, f64 := newTestGraph()

	arg := g.NewNode("x")
	call := g.NewNode("foo(x)")
	g.Watch(call, arg)

	var seen []types.ID
	g.Recalc = func(id ID) error {
		require.Equal(t, call, id)
		seen = append(seen, g.Type(arg))
		return nil
	}

	require.NoError(t, g.SetType(arg, i32))
	require.NoError(t, g.SetType(arg, f64))
	assert.Equal(t, []types.ID{i32, f64}, seen)
	assert.Equal(t, types.None, g.Type(call))
}

func TestMappings(t *testing.T) {
	g, i32, _ := newTestGraph()
	tab := g.Types

	v := g.NewNode("x")
	require.NoError(t, g.SetType(v, tab.Merge(i32, tab.Nil)))

	ptr := g.NewNode("pointerof(x)")
	g.SetMapping(ptr, PointerOf)
	require.NoError(t, g.Bind(ptr, v))
	assert.Equal(t, "Pointer((Nil | Int32))", tab.Name(g.Type(ptr)))

	arr := g.NewNode("[x]")
	g.SetMapping(arr, ArrayOf)
	require.NoError(t, g.Bind(arr, v))
	assert.Equal(t, "Array((Nil | Int32))", tab.Name(g.Type(arr)))

	filtered := g.NewNode("x (if x)")
	g.SetFilter(filtered, types.NotNil{})
	require.NoError(t, g.Bind(filtered, v))
	assert.Equal(t, i32, g.Type(filtered))
}

func TestWriteBack(t *testing.T) {
	g, i32, _ := newTestGraph()
	tab := g.Types
	foo := tab.DefineClass("Foo", tab.Object, nil)

	ivar := g.NewNode("@x")
	g.WriteBack(ivar, foo, "@x")
	lit := g.NewNode("1")
	require.NoError(t, g.SetType(lit, i32))
	require.NoError(t, g.Bind(ivar, lit))

	got, ok := tab.ObjectOf(foo).IVar("@x")
	require.True(t, ok)
	assert.Equal(t, i32, got)
}
