package infer

import (
	"strings"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/types"
)

// respondsTo narrows to the members that define a method.
type respondsTo struct {
	p    *Program
	name string
}

func (f respondsTo) Apply(tab *types.Table, id types.ID) types.ID {
	var kept []types.ID
	for _, m := range tab.Concrete(id) {
		if f.p.respondsTo(m, f.name) {
			kept = append(kept, m)
		}
	}
	return tab.Merge(kept...)
}

func (f respondsTo) String() string {
	return "responds_to?(:" + f.name + ")"
}

// narrowing is a filter applied to a variable inside a branch.
type narrowing struct {
	name   string
	filter types.Filter
}

// condFilters derives the narrowings a condition implies for its
// then-branch.
func (v *visitor) condFilters(cond ast.Node) ([]narrowing, error) {
	switch c := cond.(type) {
	case *ast.Var:
		return []narrowing{{c.Name, types.NotNil{}}}, nil
	case *ast.Assign:
		if t, ok := c.Target.(*ast.Var); ok {
			return []narrowing{{t.Name, types.NotNil{}}}, nil
		}
	case *ast.IsA:
		obj, ok := c.Obj.(*ast.Var)
		if !ok {
			return nil, nil
		}
		t, err := v.resolveType(c.Type)
		if err != nil {
			return nil, err
		}
		return []narrowing{{obj.Name, types.IsA{Target: t, Label: c.Type.String()}}}, nil
	case *ast.RespondsTo:
		if obj, ok := c.Obj.(*ast.Var); ok {
			return []narrowing{{obj.Name, respondsTo{p: v.p, name: c.Name}}}, nil
		}
	}
	return nil, nil
}

// whenFilters narrows a variable subject to the types a when clause lists.
// Clauses comparing against values narrow nothing.
func (v *visitor) whenFilters(subject ast.Node, conds []ast.Node) ([]narrowing, error) {
	sv, ok := subject.(*ast.Var)
	if !ok || len(conds) == 0 {
		return nil, nil
	}
	tab := v.p.Types
	var targets []types.ID
	var labels []string
	for _, c := range conds {
		path, ok := c.(*ast.Path)
		if !ok {
			return nil, nil
		}
		t, err := v.lookupPath(path)
		if err != nil {
			return nil, err
		}
		if k := tab.KindOf(t); k == types.KindConst || k == types.KindLib {
			return nil, nil
		}
		targets = append(targets, t)
		labels = append(labels, strings.Join(path.Names, "::"))
	}
	return []narrowing{{sv.Name, types.IsA{Target: tab.UnionOf(targets...), Label: strings.Join(labels, " | ")}}}, nil
}

// pushFilters adds a layer of filtered views of variables to the scope.
// The returned func removes it again.
func (v *visitor) pushFilters(ns []narrowing) (func(), error) {
	g := v.p.Graph
	layer := map[string]graph.ID{}
	for _, n := range ns {
		orig, ok := v.s.lookup(n.name)
		if !ok {
			continue
		}
		id := g.NewNode(n.name + " " + n.filter.String())
		g.SetFilter(id, n.filter)
		if err := g.Bind(id, orig); err != nil {
			return nil, err
		}
		layer[n.name] = id
	}
	s := v.s
	s.filters = append(s.filters, layer)
	return func() { s.filters = s.filters[:len(s.filters)-1] }, nil
}
