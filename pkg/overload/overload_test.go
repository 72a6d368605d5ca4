package overload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/types"
)

type sig struct {
	label  string
	params []*ast.Param
	owner  types.ID
}

func (s *sig) Parameters() []*ast.Param { return s.params }
func (s *sig) Owner() types.ID          { return s.owner }

type tableResolver struct{ tab *types.Table }

func (r tableResolver) LookupType(owner types.ID, names []string) (types.ID, bool) {
	if len(names) == 1 {
		if arg, ok := r.tab.TypeArg(owner, names[0]); ok {
			return arg, true
		}
	}
	return r.tab.Lookup(strings.Join(names, "::"))
}

type env struct {
	tab            *types.Table
	r              Resolver
	i32, f64, char types.ID
}

func newEnv() env {
	tab := types.NewTable()
	return env{
		tab:  tab,
		r:    tableResolver{tab},
		i32:  tab.DefinePrimitive("Int32", 4, tab.Numeric, &types.Numeric{Signed: true}),
		f64:  tab.DefinePrimitive("Float64", 8, tab.Numeric, &types.Numeric{Float: true, Signed: true}),
		char: tab.Char,
	}
}

func (e env) sig(label string, restrictions ...string) *sig {
	s := &sig{label: label, owner: e.tab.Program}
	for i, r := range restrictions {
		p := &ast.Param{Name: string(rune('a' + i))}
		if r != "" {
			p.Restriction = ast.MustParseType(r)
		}
		s.params = append(s.params, p)
	}
	return s
}

func labels(cs Candidates) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.(*sig).label)
	}
	return out
}

func TestInsertOrdersBySpecificity(t *testing.T) {
	e := newEnv()
	var cs Candidates
	cs = cs.Insert(e.tab, e.r, e.sig("any", ""))
	cs = cs.Insert(e.tab, e.r, e.sig("value", "Value"))
	cs = cs.Insert(e.tab, e.r, e.sig("int", "Int32"))
	cs = cs.Insert(e.tab, e.r, e.sig("char", "Char"))
	assert.Equal(t, []string{"int", "char", "value", "any"}, labels(cs))

	t.Run("redefinition replaces", func(t *testing.T) {
		again := cs.Insert(e.tab, e.r, e.sig("int2", "Int32"))
		assert.Equal(t, []string{"int2", "char", "value", "any"}, labels(again))
	})
}

func TestResolveConcrete(t *testing.T) {
	e := newEnv()
	var cs Candidates
	cs = cs.Insert(e.tab, e.r, e.sig("int", "Int32"))
	cs = cs.Insert(e.tab, e.r, e.sig("float", "Float64"))

	m := Resolve(e.tab, e.r, cs, e.tab.Program, []types.ID{e.i32})
	require.True(t, m.Found())
	require.Len(t, m.List, 1)
	assert.Equal(t, "int", m.List[0].Signature.(*sig).label)
	assert.Nil(t, m.Cover)

	m = Resolve(e.tab, e.r, cs, e.tab.Program, []types.ID{e.char})
	assert.False(t, m.Found())
}

func TestResolveUnionCover(t *testing.T) {
	e := newEnv()
	var cs Candidates
	cs = cs.Insert(e.tab, e.r, e.sig("value", "Value"))
	cs = cs.Insert(e.tab, e.r, e.sig("int", "Int32"))

	u := e.tab.Merge(e.i32, e.f64)
	m := Resolve(e.tab, e.r, cs, e.tab.Program, []types.ID{u})
	require.True(t, m.Found())
	assert.True(t, m.Branches([]types.ID{u}))
	assert.Len(t, m.List, 2)
	assert.Equal(t, 2, m.Cover.Size())

	t.Run("incomplete", func(t *testing.T) {
		only := Candidates{e.sig("int", "Int32", "Int32")}
		u3 := e.tab.Merge(e.i32, e.f64, e.char)
		m := Resolve(e.tab, e.r, only, e.tab.Program, []types.ID{u3, e.i32})
		assert.False(t, m.Found())
		assert.Equal(t, [][]types.ID{{e.char, e.i32}, {e.f64, e.i32}}, m.Cover.Missing())
	})

	t.Run("unrestricted does not branch", func(t *testing.T) {
		unrestricted := Candidates{e.sig("any", "")}
		m := Resolve(e.tab, e.r, unrestricted, e.tab.Program, []types.ID{u})
		require.True(t, m.Found())
		assert.False(t, m.Branches([]types.ID{u}))
	})
}

func TestFreeVars(t *testing.T) {
	e := newEnv()
	same := Candidates{e.sig("same", "T", "T")}

	m := Resolve(e.tab, e.r, same, e.tab.Program, []types.ID{e.i32, e.i32})
	require.True(t, m.Found())
	assert.Equal(t, e.i32, m.List[0].Free["T"])

	m = Resolve(e.tab, e.r, same, e.tab.Program, []types.ID{e.i32, e.f64})
	assert.False(t, m.Found())

	t.Run("generic", func(t *testing.T) {
		arr, err := e.tab.Instantiate(e.tab.Array, []types.ID{e.char})
		require.NoError(t, err)
		first := Candidates{e.sig("first", "Array(T)")}
		m := Resolve(e.tab, e.r, first, e.tab.Program, []types.ID{arr})
		require.True(t, m.Found())
		assert.Equal(t, e.char, m.List[0].Free["T"])

		m = Resolve(e.tab, e.r, first, e.tab.Program, []types.ID{e.i32})
		assert.False(t, m.Found())
	})
}

func TestCoverProduct(t *testing.T) {
	e := newEnv()
	a := e.tab.Merge(e.i32, e.f64)
	b := e.tab.Merge(e.i32, e.char)
	c := NewCover(e.tab, []types.ID{a, b})
	assert.Equal(t, 4, c.Size())

	c.Mark([]types.ID{e.i32, b})
	assert.False(t, c.All())
	c.Mark([]types.ID{e.f64, e.char})
	assert.Equal(t, [][]types.ID{{e.f64, e.i32}}, c.Missing())
	c.Mark([]types.ID{a, e.i32})
	assert.True(t, c.All())
}

func TestDescribe(t *testing.T) {
	e := newEnv()
	assert.Equal(t, "foo(a : Int32, b)", Describe("foo", e.sig("x", "Int32", "")))
}
