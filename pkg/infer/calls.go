package infer

import (
	"fmt"
	"slices"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/overload"
	"github.com/vito/quartz/pkg/types"
)

// callSite is a call whose target is recomputed whenever the type of its
// receiver or of an argument changes.
type callSite struct {
	call  *ast.Call
	scope *scope
	node  graph.ID
	obj   graph.ID
	args  []graph.ID

	// key is the receiver and argument types last resolved for.
	key     string
	targets []graph.ID
	blocks  int

	dispatch *Dispatch
	// super is the type that declared the calling method, for super calls,
	// and superName that method's name.
	super     types.ID
	superName string
	// outBound is set once the variables passed to out parameters are
	// bound; converted marks arguments wrapped in a cstr conversion.
	outBound  bool
	converted map[int]bool
}

func (v *visitor) VisitCall(n *ast.Call) error {
	if n.Obj == nil {
		if def, ok := v.p.macros[n.Name]; ok {
			return v.expandMacro(n, def)
		}
		if n.Name == "super" {
			return v.super(n)
		}
	}
	if err := v.visit(n.Obj); err != nil {
		return err
	}
	if err := v.visitAll(n.Args); err != nil {
		return err
	}
	site := v.p.newSite(n, v.s)
	return v.p.recalculate(site)
}

func (v *visitor) super(n *ast.Call) error {
	inst := v.s.inst
	if inst == nil || inst.Method.Kind != UserMethod {
		return &ast.SyntaxError{Loc: n.Loc, Message: "can't use super outside a method"}
	}
	if len(n.Args) == 0 && !n.HasParens {
		for _, prm := range inst.Method.Def.Params {
			n.Args = append(n.Args, &ast.Var{Meta: ast.Meta{Loc: n.Loc}, Name: prm.Name})
		}
	}
	if err := v.visitAll(n.Args); err != nil {
		return err
	}
	site := v.p.newSite(n, v.s)
	site.super = inst.Method.Owner()
	site.superName = inst.Method.Name()
	return v.p.recalculate(site)
}

func (p *Program) newSite(call *ast.Call, s *scope) *callSite {
	site := &callSite{call: call, scope: s, node: p.nodeOf(call)}
	var watched []graph.ID
	if call.Obj != nil {
		site.obj = p.nodeOf(call.Obj)
		watched = append(watched, site.obj)
	}
	for _, a := range call.Args {
		id := p.nodeOf(a)
		site.args = append(site.args, id)
		watched = append(watched, id)
	}
	p.sites[site.node] = site
	p.Graph.Watch(site.node, watched...)
	return site
}

// recalculate resolves the call for the current receiver and argument
// types. Until every one of them has a type the call stays unresolved.
func (p *Program) recalculate(site *callSite) error {
	recv := site.scope.self
	if site.obj != 0 {
		recv = p.Graph.Type(site.obj)
	}
	if recv == types.None {
		return nil
	}
	if site.obj != 0 && !site.outBound && p.Types.KindOf(recv) == types.KindLib {
		if err := p.bindOutArgs(site, recv); err != nil {
			return locate(err, site.call)
		}
	}
	args := make([]types.ID, len(site.args))
	for i, a := range site.args {
		if args[i] = p.Graph.Type(a); args[i] == types.None {
			return nil
		}
	}
	key := types.Key(append([]types.ID{recv}, args...)...)
	if key == site.key {
		return nil
	}
	site.key = key

	nodes, targets, err := p.resolveCall(site, recv, args)
	if err != nil {
		return locate(err, site.call)
	}
	p.Graph.Unbind(site.node, site.targets...)
	site.targets = nodes
	site.call.Targets = targets
	return locate(p.Graph.Bind(site.node, nodes...), site.call)
}

func (p *Program) resolveCall(site *callSite, recv types.ID, args []types.ID) ([]graph.ID, []ast.CallTarget, error) {
	tab := p.Types
	if site.obj != 0 && tab.KindOf(recv) == types.KindLib {
		return p.funCall(site, recv, args)
	}

	recvs := []types.ID{recv}
	if site.obj != 0 {
		recvs = tab.Concrete(recv)
	}
	if len(recvs) > 1 {
		return p.dispatch(site, recvs, args)
	}

	d, owner, err := p.lookup(site, recvs[0], args)
	if err != nil {
		return nil, nil, err
	}
	matches := overload.Resolve(tab, p, d.Candidates, owner, args)
	if !matches.Found() {
		return nil, nil, p.noOverload(site, d, owner, args, matches)
	}
	if matches.Branches(args) {
		return p.dispatch(site, recvs, args)
	}
	inst, err := p.instantiate(site, owner, matches.List[0])
	if err != nil {
		return nil, nil, err
	}
	return []graph.ID{inst.Return}, []ast.CallTarget{inst}, nil
}

// lookup finds the overload group a call resolves against and the
// receiver its instances belong to.
func (p *Program) lookup(site *callSite, recv types.ID, args []types.ID) (*Def, types.ID, error) {
	tab := p.Types
	call := site.call
	key := defKey{name: call.Name, arity: len(args), yields: call.Block != nil}

	if site.super != types.None {
		key.name = site.superName
		if d, ok := p.findSuperDef(recv, site.super, key); ok {
			return d, recv, nil
		}
		return nil, types.None, &UndefinedError{
			Message: fmt.Sprintf("undefined method 'super' for %s", tab.Name(recv)),
			Method:  site.scope.method,
		}
	}
	isNew := call.Name == "new" && tab.KindOf(recv) == types.KindMetaclass
	if d, ok := p.findDef(recv, key); ok && !(isNew && d.Owner != recv && p.synthetic(d)) {
		return d, recv, nil
	}
	if site.obj == 0 && recv != tab.Program {
		if d, ok := p.findDef(tab.Program, key); ok {
			return d, tab.Program, nil
		}
	}
	if isNew {
		d, ok, err := p.defineNew(recv, key, call.Loc)
		if err != nil {
			return nil, types.None, err
		}
		if ok {
			return d, recv, nil
		}
	}
	if d, ok := p.defineMissing(recv, key, call.Loc); ok {
		return d, recv, nil
	}
	return nil, types.None, p.undefinedCall(site, recv, args)
}

// defineNew synthesizes `new` for a class from its initialize overloads of
// the same arity: allocate, initialize, then return the instance.
func (p *Program) defineNew(meta types.ID, key defKey, loc *ast.SourceLocation) (*Def, bool, error) {
	tab := p.Types
	of := tab.Get(meta).(*types.Metaclass).Of
	o := tab.ObjectOf(of)
	if o == nil || o.Module || key.yields {
		return nil, false, nil
	}
	if o.IsTemplate() {
		return nil, false, &TypeMismatchError{Message: fmt.Sprintf(
			"can't create instance of generic class %s without specifying its type vars", tab.Name(of))}
	}

	meta = tab.MetaclassOf(of)
	init, ok := p.findDef(of, defKey{name: "initialize", arity: key.arity})
	if !ok {
		if key.arity != 0 || len(p.defsNamed(of, "initialize")) > 0 {
			return nil, false, nil
		}
		p.AddMethod(meta, newBody(loc, nil, false)).synthetic = true
		d, ok := p.findDef(meta, key)
		return d, ok, nil
	}
	for _, c := range init.Candidates {
		m := c.(*Method)
		p.AddMethod(meta, newBody(loc, m.Def.Params[:key.arity], true)).synthetic = true
	}
	d, ok := p.findDef(meta, key)
	return d, ok, nil
}

// synthetic reports whether every overload in d was made by defineNew.
// Those belong to one class and are not inherited by its subclasses.
func (p *Program) synthetic(d *Def) bool {
	for _, c := range d.Candidates {
		if !c.(*Method).synthetic {
			return false
		}
	}
	return len(d.Candidates) > 0
}

func newBody(loc *ast.SourceLocation, params []*ast.Param, initialize bool) *ast.Def {
	at := ast.Meta{Loc: loc}
	obj := func() *ast.Var { return &ast.Var{Meta: at, Name: "__new"} }
	body := []ast.Node{&ast.Assign{Meta: at, Target: obj(), Value: &ast.Call{Meta: at, Name: "allocate"}}}
	var ps []*ast.Param
	if initialize {
		init := &ast.Call{Meta: at, Obj: obj(), Name: "initialize", HasParens: true}
		for _, prm := range params {
			ps = append(ps, &ast.Param{Name: prm.Name, Restriction: prm.Restriction})
			init.Args = append(init.Args, &ast.Var{Meta: at, Name: prm.Name})
		}
		body = append(body, init)
	}
	body = append(body, obj())
	return &ast.Def{Meta: at, Name: "new", Params: ps, Body: &ast.Expressions{Meta: at, Body: body}}
}

// defineMissing synthesizes a method forwarding to method_missing with the
// name as a symbol and the arguments as an array.
func (p *Program) defineMissing(recv types.ID, key defKey, loc *ast.SourceLocation) (*Def, bool) {
	if key.yields {
		return nil, false
	}
	if _, ok := p.findDef(recv, defKey{name: "method_missing", arity: 2}); !ok {
		return nil, false
	}
	at := ast.Meta{Loc: loc}
	arr := &ast.ArrayLiteral{Meta: at}
	var params []*ast.Param
	for i := range key.arity {
		name := fmt.Sprintf("__arg%d", i)
		params = append(params, &ast.Param{Name: name})
		arr.Elements = append(arr.Elements, &ast.Var{Meta: at, Name: name})
	}
	if len(arr.Elements) == 0 {
		arr.Of = &ast.TypeName{Names: []string{"Nil"}}
	}
	p.symbol(key.name)
	body := &ast.Call{
		Meta:      at,
		Name:      "method_missing",
		Args:      []ast.Node{&ast.SymbolLiteral{Meta: at, Value: key.name}, arr},
		HasParens: true,
	}
	p.AddMethod(recv, &ast.Def{Meta: at, Name: key.name, Params: params, Body: body})
	return p.findDef(recv, key)
}

func (p *Program) undefinedCall(site *callSite, recv types.ID, args []types.ID) error {
	tab := p.Types
	call := site.call
	defs := p.defsNamed(recv, call.Name)
	if site.obj == 0 && recv != tab.Program {
		defs = append(defs, p.defsNamed(tab.Program, call.Name)...)
	}
	if call.Name == "new" && tab.KindOf(recv) == types.KindMetaclass {
		for _, d := range p.defsNamed(selfType(tab, recv), "initialize") {
			defs = append(defs, &Def{Name: "new", Arity: d.Arity, Yields: d.Yields})
		}
	}
	if len(defs) == 0 {
		switch {
		case site.obj == 0 && len(args) == 0 && !call.HasParens:
			return &UndefinedError{
				Message: fmt.Sprintf("undefined local variable or method '%s'", call.Name),
				Method:  site.scope.method,
			}
		case site.obj == 0:
			return &UndefinedError{Message: fmt.Sprintf("undefined method '%s'", call.Name), Method: site.scope.method}
		}
		return &UndefinedError{
			Message: fmt.Sprintf("undefined method '%s' for %s", call.Name, tab.Name(recv)),
			Method:  site.scope.method,
		}
	}

	var arities []int
	for _, d := range defs {
		if d.Arity != len(args) {
			arities = append(arities, d.Arity)
			continue
		}
		if call.Block == nil {
			return &OverloadError{Message: fmt.Sprintf("'%s' is expected to be invoked with a block, but no block was given", call.Name)}
		}
		return &OverloadError{Message: fmt.Sprintf("'%s' is not expected to be invoked with a block, but a block was given", call.Name)}
	}
	slices.Sort(arities)
	return &ArityError{Name: call.Name, Given: len(args), Expected: slices.Compact(arities)}
}

// noOverload explains why none of a def's candidates applies. A primitive
// with one candidate reports the offending argument directly.
func (p *Program) noOverload(site *callSite, d *Def, owner types.ID, args []types.ID, matches overload.Matches) error {
	tab := p.Types
	if len(d.Candidates) == 1 && matches.Cover == nil {
		m := d.Candidates[0].(*Method)
		if m.Kind == PrimitiveMethod {
			for i, prm := range m.Def.Params[:len(args)] {
				if overload.Restrict(tab, p, owner, args[i], prm.Restriction, overload.Bindings{}) != types.None {
					continue
				}
				want := "?"
				if t, ok := overload.ResolveType(tab, p, owner, prm.Restriction); ok {
					want = tab.Name(t)
				}
				return &TypeMismatchError{Message: fmt.Sprintf("argument #%d to %s must be %s, not %s",
					i+1, p.qualifiedName(owner, d.Name), want, tab.Name(args[i]))}
			}
		}
	}

	err := &OverloadError{
		Message: fmt.Sprintf("no overload matches '%s' with types %s", p.qualifiedName(owner, d.Name), tab.Names(args)),
	}
	if len(args) == 0 {
		err.Message = fmt.Sprintf("no overload matches '%s'", p.qualifiedName(owner, d.Name))
	}
	for _, c := range d.Candidates {
		err.Overloads = append(err.Overloads, c.(*Method).String())
	}
	if matches.Cover != nil {
		for _, tuple := range matches.Cover.Missing() {
			err.Missing = append(err.Missing, tab.Names(tuple))
		}
	}
	return err
}
