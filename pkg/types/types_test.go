package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	*Table
	Int32, Float64 ID
}

func newFixture() fixture {
	tab := NewTable()
	return fixture{
		Table:   tab,
		Int32:   tab.DefinePrimitive("Int32", 4, tab.Numeric, &Numeric{Signed: true}),
		Float64: tab.DefinePrimitive("Float64", 8, tab.Numeric, &Numeric{Float: true, Signed: true}),
	}
}

func TestMerge(t *testing.T) {
	f := newFixture()

	t.Run("commutative and idempotent", func(t *testing.T) {
		ab := f.Merge(f.Int32, f.Float64)
		assert.Equal(t, ab, f.Merge(f.Float64, f.Int32))
		assert.Equal(t, f.Int32, f.Merge(f.Int32, f.Int32))
		assert.Equal(t, ab, f.Merge(f.Int32, f.Float64, f.Int32))
		assert.Equal(t, "(Int32 | Float64)", f.Name(ab))
	})

	t.Run("flattens nested unions", func(t *testing.T) {
		ab := f.Merge(f.Int32, f.Float64)
		abc := f.Merge(ab, f.Char)
		u, ok := f.Get(abc).(*Union)
		require.True(t, ok)
		for _, m := range u.Members {
			assert.NotEqual(t, KindUnion, f.KindOf(m))
		}
		assert.Len(t, u.Members, 3)
		assert.Equal(t, abc, f.Merge(f.Char, f.Float64, f.Int32))
	})

	t.Run("ignores None and absorbs NoReturn", func(t *testing.T) {
		assert.Equal(t, None, f.Merge())
		assert.Equal(t, f.Int32, f.Merge(None, f.Int32))
		assert.Equal(t, f.Int32, f.Merge(f.NoReturn, f.Int32))
		assert.Equal(t, f.NoReturn, f.Merge(f.NoReturn, f.NoReturn))
	})

	t.Run("combines related classes into a hierarchy", func(t *testing.T) {
		foo := f.DefineClass("Foo", f.Object, nil)
		bar := f.DefineClass("Bar", foo, nil)
		baz := f.DefineClass("Baz", foo, nil)
		unrelated := f.DefineClass("Qux", f.Object, nil)

		assert.Equal(t, "Foo+", f.Name(f.Merge(bar, baz)))
		assert.Equal(t, "Foo+", f.Name(f.Merge(foo, bar)))
		assert.Equal(t, f.Merge(bar, baz), f.Merge(baz, bar, foo))
		assert.Equal(t, "(Foo | Qux)", f.Name(f.Merge(foo, unrelated)))
		assert.Equal(t, "(Bar | Baz)", f.Name(f.UnionOf(bar, baz)))
	})

	t.Run("dedups structurally equal objects", func(t *testing.T) {
		a := f.NewObject("Point", f.Object)
		b := f.NewObject("Point", f.Object)
		f.ObjectOf(a).SetIVar("@x", f.Int32)
		f.ObjectOf(b).SetIVar("@x", f.Int32)
		assert.Equal(t, a, f.Merge(b, a))
	})
}

func TestImplementsAndRestrict(t *testing.T) {
	f := newFixture()
	mod := f.DefineModule("Greeter")
	a := f.DefineClass("A", f.Object, nil)
	b := f.DefineClass("B", a, nil)
	c := f.DefineClass("C", a, nil)
	f.Include(b, mod)
	f.Include(c, mod)

	assert.True(t, f.Implements(f.Int32, f.Value))
	assert.True(t, f.Implements(f.Int32, f.Numeric))
	assert.False(t, f.Implements(f.Char, f.Numeric))
	assert.True(t, f.Implements(b, a))
	assert.True(t, f.Implements(b, mod))
	assert.True(t, f.Implements(f.Int32, f.Merge(f.Int32, f.Char)))
	assert.True(t, f.Implements(f.Merge(f.Int32, f.Float64), f.Numeric))

	num := f.Merge(f.Int32, f.Float64)
	assert.Equal(t, f.Int32, f.Restrict(num, f.Int32))
	assert.Equal(t, num, f.Restrict(num, f.Value))
	assert.Equal(t, None, f.Restrict(f.Char, f.Int32))
	assert.Equal(t, f.Int32, f.Restrict(f.Int32, f.TypeVarOf("T")))

	t.Run("hierarchy narrowed to module", func(t *testing.T) {
		got := f.Restrict(f.HierarchyOf(a), mod)
		assert.Equal(t, "(B+ | C+)", f.Name(got))
	})

	t.Run("hierarchy narrowed to subclass", func(t *testing.T) {
		assert.Equal(t, "B+", f.Name(f.Restrict(f.HierarchyOf(a), b)))
	})

	t.Run("filter by", func(t *testing.T) {
		u := f.Merge(f.Int32, f.Char, f.Nil)
		assert.Equal(t, f.Int32, f.FilterBy(u, f.Numeric))
		assert.Equal(t, f.Merge(f.Int32, f.Char), NotNil{}.Apply(f.Table, u))
		assert.Equal(t, None, f.FilterBy(f.Char, f.Numeric))
	})
}

func TestGenerics(t *testing.T) {
	f := newFixture()
	box := f.DefineClass("Box", f.Object, []string{"T"})

	i1, err := f.Instantiate(box, []ID{f.Int32})
	require.NoError(t, err)
	i2, err := f.Instantiate(box, []ID{f.Int32})
	require.NoError(t, err)
	assert.Equal(t, i1, i2)
	assert.Equal(t, "Box(Int32)", f.Name(i1))
	assert.True(t, f.Implements(i1, box))

	arg, ok := f.TypeArg(i1, "T")
	require.True(t, ok)
	assert.Equal(t, f.Int32, arg)

	ptr, err := f.Instantiate(f.Pointer, []ID{f.Char})
	require.NoError(t, err)
	assert.Equal(t, f.PointerOf(f.Char), ptr)
	assert.True(t, f.Implements(ptr, f.Pointer))

	_, err = f.Instantiate(box, nil)
	assert.Error(t, err)
}

func TestEqualSelfReferential(t *testing.T) {
	f := newFixture()
	a := f.NewObject("Node", f.Object)
	b := f.NewObject("Node", f.Object)
	f.ObjectOf(a).SetIVar("@next", f.Merge(a, f.Nil))
	f.ObjectOf(b).SetIVar("@next", f.Merge(b, f.Nil))

	assert.True(t, f.Equal(a, b))
	assert.Equal(t, f.Hash(a), f.Hash(b))

	c := f.NewObject("Node", f.Object)
	f.ObjectOf(c).SetIVar("@next", f.Int32)
	assert.False(t, f.Equal(a, c))
}

func TestEqualUnionTrials(t *testing.T) {
	f := newFixture()
	a1 := f.NewObject("A", f.Object)
	a2 := f.NewObject("A", f.Object)
	b := f.DefineClass("B", f.Object, nil)

	foo1 := f.NewObject("Foo", f.Object)
	f.ObjectOf(foo1).SetIVar("@u", f.UnionOf(a1, b))
	f.ObjectOf(foo1).SetIVar("@w", a1)
	foo2 := f.NewObject("Foo", f.Object)
	f.ObjectOf(foo2).SetIVar("@u", f.UnionOf(a2, b))
	f.ObjectOf(foo2).SetIVar("@w", b)

	assert.True(t, f.Equal(a1, a2))
	assert.True(t, f.Equal(f.UnionOf(a1, b), f.UnionOf(a2, b)))
	assert.False(t, f.Equal(a1, b))
	assert.False(t, f.Equal(foo1, foo2))
	assert.False(t, f.Equal(foo2, foo1))

	u, ok := f.Get(f.UnionOf(foo1, foo2)).(*Union)
	require.True(t, ok)
	assert.Len(t, u.Members, 2)
}

func TestHashIgnoresIVarOrder(t *testing.T) {
	f := newFixture()
	a := f.NewObject("Pair", f.Object)
	f.ObjectOf(a).SetIVar("@x", f.Char)
	f.ObjectOf(a).SetIVar("@y", f.Bool)
	b := f.NewObject("Pair", f.Object)
	f.ObjectOf(b).SetIVar("@y", f.Bool)
	f.ObjectOf(b).SetIVar("@x", f.Char)

	require.True(t, f.Equal(a, b))
	assert.Equal(t, f.Hash(a), f.Hash(b))
}
