package infer

import (
	"fmt"
	"log/slog"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/overload"
	"github.com/vito/quartz/pkg/types"
)

// Dispatch is a call with a union receiver or union arguments, expanded
// into one subcall per concrete shape. Its type is the merge of the
// subcalls' types.
type Dispatch struct {
	Name     string
	Node     graph.ID
	Subcalls []*ast.Call

	keys map[string]bool
}

func (d *Dispatch) Signature() string {
	return "dispatch " + d.Name
}

// Dispatches returns the dispatch a call resolved to, if any.
func Dispatches(call *ast.Call) (*Dispatch, bool) {
	for _, t := range call.Targets {
		if d, ok := t.(*Dispatch); ok {
			return d, true
		}
	}
	return nil, false
}

// dispatch extends the call's dispatch with subcalls for every concrete
// shape not seen yet. Every receiver must have a complete cover of the
// argument types.
func (p *Program) dispatch(site *callSite, recvs []types.ID, args []types.ID) ([]graph.ID, []ast.CallTarget, error) {
	tab := p.Types
	var shapes [][]types.ID
	for _, r := range recvs {
		d, owner, err := p.lookup(site, r, args)
		if err != nil {
			return nil, nil, err
		}
		matches := overload.Resolve(tab, p, d.Candidates, owner, args)
		if !matches.Found() {
			return nil, nil, p.noOverload(site, d, owner, args, matches)
		}
		if !matches.Branches(args) {
			shapes = append(shapes, append([]types.ID{r}, args...))
			continue
		}
		for _, tuple := range product(tab, args) {
			shapes = append(shapes, append([]types.ID{r}, tuple...))
		}
	}

	d := site.dispatch
	if d == nil {
		d = &Dispatch{
			Name: site.call.Name,
			Node: p.Graph.NewNode("dispatch " + site.call.Name),
			keys: map[string]bool{},
		}
		site.dispatch = d
		slog.DebugContext(p.ctx, "dispatching", "call", site.call.Name, "receivers", len(recvs), "shapes", len(shapes))
	}
	for _, shape := range shapes {
		key := types.Key(shape...)
		if d.keys[key] {
			continue
		}
		d.keys[key] = true
		if err := p.subcall(site, d, shape); err != nil {
			return nil, nil, err
		}
	}
	return []graph.ID{d.Node}, []ast.CallTarget{d}, nil
}

// subcall resolves one concrete shape through placeholder variables typed
// with the shape's receiver and argument types.
func (p *Program) subcall(site *callSite, d *Dispatch, shape []types.ID) error {
	call := site.call
	sub := &ast.Call{
		Meta:      ast.Meta{Loc: call.Loc},
		Name:      call.Name,
		HasParens: call.HasParens,
	}
	if site.obj != 0 {
		recv, err := p.placeholder("%recv", call.Loc, shape[0])
		if err != nil {
			return err
		}
		sub.Obj = recv
	}
	for i, a := range shape[1:] {
		arg, err := p.placeholder(fmt.Sprintf("%%arg%d", i), call.Loc, a)
		if err != nil {
			return err
		}
		sub.Args = append(sub.Args, arg)
	}
	if call.Block != nil {
		sub.Block = ast.Clone(call.Block)
	}
	d.Subcalls = append(d.Subcalls, sub)

	s := p.newSite(sub, site.scope)
	s.super = site.super
	s.superName = site.superName
	if err := p.recalculate(s); err != nil {
		return err
	}
	return p.Graph.Bind(d.Node, s.node)
}

func (p *Program) placeholder(name string, loc *ast.SourceLocation, t types.ID) (*ast.Var, error) {
	v := &ast.Var{Meta: ast.Meta{Loc: loc}, Name: name}
	if err := p.Graph.SetType(p.nodeOf(v), t); err != nil {
		return nil, err
	}
	return v, nil
}

// product lists every tuple of concrete members, the last argument varying
// fastest.
func product(tab *types.Table, args []types.ID) [][]types.ID {
	out := [][]types.ID{{}}
	for _, a := range args {
		var next [][]types.ID
		for _, prefix := range out {
			for _, m := range tab.Concrete(a) {
				next = append(next, append(append([]types.ID(nil), prefix...), m))
			}
		}
		out = next
	}
	return out
}
