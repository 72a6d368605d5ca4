package infer

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/overload"
	"github.com/vito/quartz/pkg/types"
)

type visitor struct {
	p   *Program
	ctx context.Context
	s   *scope
}

var _ ast.Visitor = (*visitor)(nil)

func (v *visitor) with(s *scope) *visitor {
	return &visitor{p: v.p, ctx: v.ctx, s: s}
}

func (v *visitor) visit(n ast.Node) error {
	if n == nil {
		return nil
	}
	v.p.nodeOf(n)
	return locate(n.Accept(v), n)
}

func (v *visitor) visitAll(ns []ast.Node) error {
	for _, n := range ns {
		if err := v.visit(n); err != nil {
			return err
		}
	}
	return nil
}

func (v *visitor) setType(n ast.Node, t types.ID) error {
	return v.p.Graph.SetType(v.p.nodeOf(n), t)
}

func (v *visitor) bind(n ast.Node, deps ...graph.ID) error {
	return v.p.Graph.Bind(v.p.nodeOf(n), deps...)
}

// nodeOrNil is the node of an optional child, or the shared Nil node.
func (v *visitor) nodeOrNil(n ast.Node) graph.ID {
	if n == nil {
		return v.p.nilNode
	}
	return v.p.nodeOf(n)
}

func (v *visitor) undefined(format string, args ...any) error {
	return &UndefinedError{Message: fmt.Sprintf(format, args...), Method: v.s.method}
}

// resolveType resolves a written type in the current scope.
func (v *visitor) resolveType(te ast.TypeExpr) (types.ID, error) {
	if tn, ok := te.(*ast.TypeName); ok && len(tn.Args) == 0 {
		if bound, ok := v.s.free[tn.Name()]; ok {
			return bound, nil
		}
	}
	t, ok := overload.ResolveType(v.p.Types, v.p, v.s.self, te)
	if !ok {
		return types.None, v.undefined("uninitialized constant %s", te)
	}
	return t, nil
}

func (v *visitor) VisitNop(n *ast.Nop) error {
	return v.setType(n, v.p.Types.Nil)
}

func (v *visitor) VisitNilLiteral(n *ast.NilLiteral) error {
	return v.setType(n, v.p.Types.Nil)
}

func (v *visitor) VisitBoolLiteral(n *ast.BoolLiteral) error {
	return v.setType(n, v.p.Types.Bool)
}

func (v *visitor) VisitIntLiteral(n *ast.IntLiteral) error {
	t, err := v.numericLiteral(n.Suffix, v.p.intLiteral, false)
	if err != nil {
		return err
	}
	return v.setType(n, t)
}

func (v *visitor) VisitFloatLiteral(n *ast.FloatLiteral) error {
	t, err := v.numericLiteral(n.Suffix, v.p.floatLiteral, true)
	if err != nil {
		return err
	}
	return v.setType(n, t)
}

func (v *visitor) numericLiteral(suffix string, def types.ID, float bool) (types.ID, error) {
	if suffix == "" {
		if def == types.None {
			return types.None, errors.New("no numeric literal kinds are defined")
		}
		return def, nil
	}
	t, ok := v.p.Types.Lookup(suffix)
	prim, isPrim := v.p.Types.Get(t).(*types.Primitive)
	if !ok || !isPrim || prim.Numeric == nil {
		return types.None, v.undefined("unknown numeric suffix %s", suffix)
	}
	if float && !prim.Numeric.Float {
		return types.None, &TypeMismatchError{Message: fmt.Sprintf("invalid suffix %s for a float literal", suffix)}
	}
	return t, nil
}

func (v *visitor) VisitCharLiteral(n *ast.CharLiteral) error {
	return v.setType(n, v.p.Types.Char)
}

func (v *visitor) VisitStringLiteral(n *ast.StringLiteral) error {
	return v.setType(n, v.p.Types.String)
}

func (v *visitor) VisitSymbolLiteral(n *ast.SymbolLiteral) error {
	v.p.symbol(n.Value)
	return v.setType(n, v.p.Types.Symbol)
}

func (v *visitor) VisitArrayLiteral(n *ast.ArrayLiteral) error {
	p := v.p
	if err := v.visitAll(n.Elements); err != nil {
		return err
	}
	if n.Of == nil {
		if len(n.Elements) == 0 {
			return &ast.SyntaxError{Loc: n.Loc, Message: "for empty arrays use '[] of ElementType'"}
		}
		p.Graph.SetMapping(p.nodeOf(n), graph.ArrayOf)
		deps := make([]graph.ID, len(n.Elements))
		for i, e := range n.Elements {
			deps[i] = p.nodeOf(e)
		}
		return v.bind(n, deps...)
	}

	of, err := v.resolveType(n.Of)
	if err != nil {
		return err
	}
	arr, err := p.Types.Instantiate(p.Types.Array, []types.ID{of})
	if err != nil {
		return err
	}
	if len(n.Elements) > 0 {
		elem := p.Graph.NewNode("[] of " + p.Types.Name(of))
		p.Graph.Freeze(elem, of)
		for _, e := range n.Elements {
			if err := p.Graph.Bind(elem, p.nodeOf(e)); err != nil {
				return locate(err, e)
			}
		}
	}
	return v.setType(n, arr)
}

func (v *visitor) VisitVar(n *ast.Var) error {
	if n.Out {
		v.s.unfilter(n.Name)
		return v.bind(n, v.s.declare(v.p.Graph, n.Name))
	}
	id, ok := v.s.lookup(n.Name)
	if !ok {
		return v.undefined("undefined local variable or method '%s'", n.Name)
	}
	return v.bind(n, id)
}

// ivarOwner is the type whose instance variables self can use.
func (v *visitor) ivarOwner() (types.ID, error) {
	tab := v.p.Types
	switch {
	case v.s.self == tab.Program:
		return types.None, v.undefined("can't use instance variables at the top level")
	case tab.KindOf(v.s.self) == types.KindMetaclass:
		return types.None, v.undefined("can't use instance variables inside class methods")
	}
	o := tab.ObjectOf(v.s.self)
	if o == nil || o.Module {
		return types.None, v.undefined("can't use instance variables inside %s", tab.Name(v.s.self))
	}
	return v.s.self, nil
}

// ivarNode returns the node of an instance variable. A variable first seen
// by a read may be read before it is ever written, so it includes Nil.
func (p *Program) ivarNode(owner types.ID, name string, read bool) (graph.ID, error) {
	key := varKey{owner, name}
	if id, ok := p.ivars[key]; ok {
		return id, nil
	}
	id := p.Graph.NewNode(p.Types.Name(owner) + " @" + name)
	p.Graph.WriteBack(id, owner, name)
	p.Types.ObjectOf(owner).SetIVar(name, types.None)
	p.ivars[key] = id
	if read {
		return id, p.Graph.Bind(id, p.nilNode)
	}
	return id, nil
}

func (v *visitor) VisitInstanceVar(n *ast.InstanceVar) error {
	owner, err := v.ivarOwner()
	if err != nil {
		return err
	}
	id, err := v.p.ivarNode(owner, n.Name, !n.Out)
	if err != nil {
		return err
	}
	return v.bind(n, id)
}

func (v *visitor) classVarNode(name string, read bool) (graph.ID, error) {
	p := v.p
	owner := v.s.namespace
	if owner == p.Types.Program || p.Types.ObjectOf(owner) == nil {
		return 0, v.undefined("can't use class variables at the top level")
	}
	key := varKey{owner, name}
	if id, ok := p.classVar[key]; ok {
		return id, nil
	}
	id := p.Graph.NewNode(p.Types.Name(owner) + " @@" + name)
	p.classVar[key] = id
	if read {
		return id, p.Graph.Bind(id, p.nilNode)
	}
	return id, nil
}

func (v *visitor) VisitClassVar(n *ast.ClassVar) error {
	id, err := v.classVarNode(n.Name, true)
	if err != nil {
		return err
	}
	return v.bind(n, id)
}

func (p *Program) globalNode(name string, read bool) (graph.ID, error) {
	if id, ok := p.globals[name]; ok {
		return id, nil
	}
	id := p.Graph.NewNode("$" + name)
	p.globals[name] = id
	if read {
		return id, p.Graph.Bind(id, p.nilNode)
	}
	return id, nil
}

func (v *visitor) VisitGlobal(n *ast.Global) error {
	id, err := v.p.globalNode(n.Name, true)
	if err != nil {
		return err
	}
	return v.bind(n, id)
}

func (v *visitor) VisitSelf(n *ast.Self) error {
	return v.setType(n, v.s.self)
}

// lookupPath resolves a path to a type, a constant or a lib.
func (v *visitor) lookupPath(n *ast.Path) (types.ID, error) {
	p := v.p
	if len(n.Names) == 1 && len(n.TypeArgs) == 0 {
		if bound, ok := v.s.free[n.Names[0]]; ok {
			return bound, nil
		}
	}
	t, ok := p.lookupName(v.s.namespace, n.Names)
	if !ok {
		t, ok = p.lookupName(v.s.self, n.Names)
	}
	if !ok {
		return types.None, v.undefined("uninitialized constant %s", strings.Join(n.Names, "::"))
	}
	if len(n.TypeArgs) == 0 {
		return t, nil
	}
	args := make([]types.ID, len(n.TypeArgs))
	for i, te := range n.TypeArgs {
		a, err := v.resolveType(te)
		if err != nil {
			return types.None, err
		}
		args[i] = a
	}
	return p.Types.Instantiate(t, args)
}

func (v *visitor) VisitPath(n *ast.Path) error {
	t, err := v.lookupPath(n)
	if err != nil {
		return err
	}
	tab := v.p.Types
	switch x := tab.Get(t).(type) {
	case *types.Const:
		return v.bind(n, graph.ID(x.Value))
	case *types.Lib:
		return v.setType(n, t)
	}
	return v.setType(n, tab.MetaclassOf(t))
}

func (v *visitor) VisitAssign(n *ast.Assign) error {
	p := v.p
	var target graph.ID
	switch t := n.Target.(type) {
	case *ast.Var:
		if err := v.visit(n.Value); err != nil {
			return err
		}
		v.s.unfilter(t.Name)
		target = v.s.declare(p.Graph, t.Name)
		t.SetBinding(target)
	case *ast.InstanceVar:
		owner, err := v.ivarOwner()
		if err != nil {
			return locate(err, t)
		}
		if err := v.visit(n.Value); err != nil {
			return err
		}
		if target, err = p.ivarNode(owner, t.Name, false); err != nil {
			return err
		}
		t.SetBinding(target)
	case *ast.ClassVar:
		var err error
		if target, err = v.classVarNode(t.Name, false); err != nil {
			return locate(err, t)
		}
		if err := v.visit(n.Value); err != nil {
			return err
		}
		t.SetBinding(target)
	case *ast.Global:
		if err := v.visit(n.Value); err != nil {
			return err
		}
		var err error
		if target, err = p.globalNode(t.Name, false); err != nil {
			return err
		}
		t.SetBinding(target)
	case *ast.Path:
		return v.declareConst(n, t)
	default:
		return &ast.SyntaxError{Loc: n.Loc, Message: "can't assign to " + n.Target.Kind().String()}
	}
	value := p.nodeOf(n.Value)
	if err := p.Graph.Bind(target, value); err != nil {
		return locate(err, n.Target)
	}
	return v.bind(n, value)
}

func (v *visitor) declareConst(n *ast.Assign, path *ast.Path) error {
	p := v.p
	if len(path.Names) != 1 {
		return &ast.SyntaxError{Loc: path.Loc, Message: "can't declare a qualified constant"}
	}
	name := path.Names[0]
	ns := v.s.namespace
	qualified := qualify(p.Types, ns, name)
	if _, ok := p.Types.Lookup(qualified); ok {
		return v.undefined("already initialized constant %s", qualified)
	}
	// Constant values are typed in their own scope, like a class body.
	cv := v.with(newScope(v.s.self, ns))
	if err := cv.visit(n.Value); err != nil {
		return err
	}
	value := p.nodeOf(n.Value)
	p.Types.DefineConst(ns, name, int32(value))
	path.SetBinding(value)
	return v.bind(n, value)
}

func (v *visitor) VisitExpressions(n *ast.Expressions) error {
	if len(n.Body) == 0 {
		return v.setType(n, v.p.Types.Nil)
	}
	if err := v.visitAll(n.Body); err != nil {
		return err
	}
	return v.bind(n, v.p.nodeOf(n.Body[len(n.Body)-1]))
}

func (v *visitor) VisitIf(n *ast.If) error {
	if err := v.branches(n.Cond, n.Then, n.Else); err != nil {
		return err
	}
	return v.bind(n, v.nodeOrNil(n.Then), v.nodeOrNil(n.Else))
}

// VisitUnless narrows in the else branch, where the condition held.
func (v *visitor) VisitUnless(n *ast.Unless) error {
	if err := v.branches(n.Cond, n.Else, n.Then); err != nil {
		return err
	}
	return v.bind(n, v.nodeOrNil(n.Then), v.nodeOrNil(n.Else))
}

// branches visits a condition, then the branch taken when it holds with
// the condition's filters applied, then the other branch.
func (v *visitor) branches(cond, truthy, falsy ast.Node) error {
	if err := v.visit(cond); err != nil {
		return err
	}
	filters, err := v.condFilters(cond)
	if err != nil {
		return err
	}
	if truthy != nil {
		pop, err := v.pushFilters(filters)
		if err != nil {
			return err
		}
		err = v.visit(truthy)
		pop()
		if err != nil {
			return err
		}
	}
	return v.visit(falsy)
}

func (v *visitor) VisitCase(n *ast.Case) error {
	if err := v.visit(n.Subject); err != nil {
		return err
	}
	var deps []graph.ID
	for _, w := range n.Whens {
		if err := v.visitAll(w.Conds); err != nil {
			return err
		}
		filters, err := v.whenFilters(n.Subject, w.Conds)
		if err != nil {
			return err
		}
		pop, err := v.pushFilters(filters)
		if err != nil {
			return err
		}
		err = v.visit(w.Body)
		pop()
		if err != nil {
			return err
		}
		deps = append(deps, v.nodeOrNil(w.Body))
	}
	if err := v.visit(n.Else); err != nil {
		return err
	}
	deps = append(deps, v.nodeOrNil(n.Else))
	return v.bind(n, deps...)
}

func (v *visitor) VisitWhile(n *ast.While) error {
	if err := v.visit(n.Cond); err != nil {
		return err
	}
	lp := &loop{target: v.p.nodeOf(n)}
	v.s.loops = append(v.s.loops, lp)
	err := v.visit(n.Body)
	v.s.loops = v.s.loops[:len(v.s.loops)-1]
	if err != nil {
		return err
	}
	if b, ok := n.Cond.(*ast.BoolLiteral); ok && b.Value && !lp.broke {
		return v.setType(n, v.p.Types.NoReturn)
	}
	return v.bind(n, v.p.nilNode)
}

func (v *visitor) VisitReturn(n *ast.Return) error {
	if v.s.inst == nil {
		return &ast.SyntaxError{Loc: n.Loc, Message: "can't return from the top level"}
	}
	if err := v.visit(n.Value); err != nil {
		return err
	}
	if err := v.p.Graph.Bind(v.s.inst.Return, v.nodeOrNil(n.Value)); err != nil {
		return err
	}
	return v.setType(n, v.p.Types.NoReturn)
}

func (v *visitor) VisitBreak(n *ast.Break) error {
	if len(v.s.loops) == 0 {
		return &ast.SyntaxError{Loc: n.Loc, Message: "Invalid break"}
	}
	if err := v.visit(n.Value); err != nil {
		return err
	}
	lp := v.s.loops[len(v.s.loops)-1]
	lp.broke = true
	if err := v.p.Graph.Bind(lp.target, v.nodeOrNil(n.Value)); err != nil {
		return err
	}
	return v.setType(n, v.p.Types.NoReturn)
}

func (v *visitor) VisitDef(n *ast.Def) error {
	p := v.p
	owner := v.s.namespace
	switch n.Receiver {
	case "":
	case "self":
		owner = p.Types.MetaclassOf(owner)
	default:
		t, ok := p.LookupType(v.s.namespace, strings.Split(n.Receiver, "::"))
		if !ok {
			return v.undefined("uninitialized constant %s", n.Receiver)
		}
		owner = p.Types.MetaclassOf(t)
	}
	if p.Types.KindOf(owner) == types.KindLib {
		return &ast.SyntaxError{Loc: n.Loc, Message: "can't define a method inside a lib"}
	}
	p.AddMethod(owner, n)
	return v.setType(n, p.Types.Nil)
}

func (v *visitor) VisitClassDef(n *ast.ClassDef) error {
	p := v.p
	tab := p.Types
	ns := v.s.namespace

	super := types.None
	if n.Superclass != nil {
		t, err := v.lookupPath(n.Superclass)
		if err != nil {
			return locate(err, n.Superclass)
		}
		if o := tab.ObjectOf(t); o == nil || o.Module {
			return &TypeMismatchError{Located: Located{n.Superclass.Loc}, Message: tab.Name(t) + " is not a class"}
		}
		super = t
	}

	name := qualify(tab, ns, n.Name)
	cls, ok := tab.Lookup(name)
	if ok {
		switch x := tab.Get(cls).(type) {
		case *types.Primitive:
			if super != types.None && super != x.Parent {
				return &TypeMismatchError{Message: fmt.Sprintf("superclass mismatch for class %s (%s for %s)",
					n.Name, tab.Name(super), tab.Name(x.Parent))}
			}
		case *types.Object:
			if x.Module {
				return &TypeMismatchError{Message: n.Name + " is not a class"}
			}
			if super != types.None && super != x.Superclass {
				return &TypeMismatchError{Message: fmt.Sprintf("superclass mismatch for class %s (%s for %s)",
					n.Name, tab.Name(super), tab.Name(x.Superclass))}
			}
		default:
			return &TypeMismatchError{Message: n.Name + " is not a class"}
		}
	} else {
		if super == types.None {
			super = tab.Object
		}
		cls = tab.DefineClass(name, super, n.TypeParams)
	}

	if err := v.with(newScope(tab.MetaclassOf(cls), cls)).visit(n.Body); err != nil {
		return err
	}
	return v.setType(n, tab.Nil)
}

func (v *visitor) VisitModuleDef(n *ast.ModuleDef) error {
	tab := v.p.Types
	ns := v.s.namespace
	name := qualify(tab, ns, n.Name)
	mod, ok := tab.Lookup(name)
	if ok {
		if o := tab.ObjectOf(mod); o == nil || !o.Module {
			return &TypeMismatchError{Message: n.Name + " is not a module"}
		}
	} else {
		mod = tab.DefineModule(name)
	}
	if err := v.with(newScope(tab.MetaclassOf(mod), mod)).visit(n.Body); err != nil {
		return err
	}
	return v.setType(n, tab.Nil)
}

func (v *visitor) VisitInclude(n *ast.Include) error {
	tab := v.p.Types
	cls := v.s.namespace
	if o := tab.ObjectOf(cls); o == nil || cls == tab.Program {
		return &ast.SyntaxError{Loc: n.Loc, Message: "can only include modules in a class or module"}
	}
	mod, err := v.lookupPath(n.Module)
	if err != nil {
		return err
	}
	if o := tab.ObjectOf(mod); o == nil || !o.Module {
		return &TypeMismatchError{Message: tab.Name(mod) + " is not a module"}
	}
	tab.Include(cls, mod)
	return v.setType(n, tab.Nil)
}

func (v *visitor) VisitIsA(n *ast.IsA) error {
	if err := v.visit(n.Obj); err != nil {
		return err
	}
	if _, err := v.resolveType(n.Type); err != nil {
		return err
	}
	return v.setType(n, v.p.Types.Bool)
}

func (v *visitor) VisitRespondsTo(n *ast.RespondsTo) error {
	if err := v.visit(n.Obj); err != nil {
		return err
	}
	return v.setType(n, v.p.Types.Bool)
}

func (v *visitor) VisitPointerOf(n *ast.PointerOf) error {
	switch n.Target.(type) {
	case *ast.Var, *ast.InstanceVar, *ast.ClassVar, *ast.Global:
	default:
		return &ast.SyntaxError{Loc: n.Loc, Message: "pointerof needs a variable"}
	}
	if err := v.visit(n.Target); err != nil {
		return err
	}
	v.p.Graph.SetMapping(v.p.nodeOf(n), graph.PointerOf)
	return v.bind(n, v.p.nodeOf(n.Target))
}

func (v *visitor) VisitMacroDef(n *ast.MacroDef) error {
	if slices.Contains(n.Params, "") {
		return &ast.SyntaxError{Loc: n.Loc, Message: "macro parameter without a name"}
	}
	v.p.macros[n.Name] = n
	return v.setType(n, v.p.Types.Nil)
}

func (v *visitor) VisitPrimitive(n *ast.Primitive) error {
	return &ast.SyntaxError{Loc: n.Loc, Message: "primitive '" + n.Name + "' outside of a method"}
}

func (v *visitor) VisitBlock(n *ast.Block) error {
	return errors.Errorf("block at %s visited outside of its call", n.Loc)
}

// qualify names a declaration nested in namespace.
func qualify(tab *types.Table, namespace types.ID, name string) string {
	if namespace == tab.Program {
		return name
	}
	return tab.Name(namespace) + "::" + name
}
