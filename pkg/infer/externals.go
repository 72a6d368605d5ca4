package infer

import (
	"fmt"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/overload"
	"github.com/vito/quartz/pkg/types"
)

func (v *visitor) VisitLibDef(n *ast.LibDef) error {
	tab := v.p.Types
	if v.s.namespace != tab.Program {
		return &ast.SyntaxError{Loc: n.Loc, Message: "can't declare a lib inside " + tab.Name(v.s.namespace)}
	}
	lib, ok := tab.Lookup(n.Name)
	switch {
	case !ok:
		lib = tab.DefineLib(n.Name)
	case tab.KindOf(lib) != types.KindLib:
		return &TypeMismatchError{Message: n.Name + " is not a lib"}
	}
	if err := v.with(newScope(lib, lib)).visitAll(n.Body); err != nil {
		return err
	}
	return v.setType(n, tab.Nil)
}

// currentLib is the lib being declared, or an error for a declaration that
// only makes sense inside one.
func (v *visitor) currentLib(what string, loc *ast.SourceLocation) (types.ID, error) {
	if v.p.Types.KindOf(v.s.namespace) != types.KindLib {
		return types.None, &ast.SyntaxError{Loc: loc, Message: what + " outside of a lib"}
	}
	return v.s.namespace, nil
}

// resolveIn resolves a type written inside a lib.
func (p *Program) resolveIn(lib types.ID, te ast.TypeExpr) (types.ID, error) {
	t, ok := overload.ResolveType(p.Types, p, lib, te)
	if !ok {
		return types.None, &UndefinedError{Message: "uninitialized constant " + te.String()}
	}
	return t, nil
}

func (v *visitor) VisitFunDef(n *ast.FunDef) error {
	p := v.p
	lib, err := v.currentLib("fun", n.Loc)
	if err != nil {
		return err
	}
	for _, prm := range n.Params {
		if prm.Restriction == nil {
			return &ast.SyntaxError{Loc: n.Loc, Message: fmt.Sprintf("parameter '%s' of fun '%s' needs a type", prm.Name, n.Name)}
		}
		if _, err := p.resolveIn(lib, prm.Restriction); err != nil {
			return err
		}
	}
	if n.Return != nil {
		if _, err := p.resolveIn(lib, n.Return); err != nil {
			return err
		}
	}
	def := &ast.Def{Meta: ast.Meta{Loc: n.Loc}, Name: n.Name, Params: n.Params, Return: n.Return}
	m := p.newMethod(lib, def, ExternalFun)
	m.Varargs = n.Varargs
	if p.funs[lib] == nil {
		p.funs[lib] = map[string]*Method{}
	}
	p.funs[lib][n.Name] = m
	return v.setType(n, p.Types.Nil)
}

func (p *Program) newMethod(owner types.ID, def *ast.Def, kind MethodKind) *Method {
	return &Method{Def: def, Kind: kind, owner: owner, p: p, instances: map[string]*Instance{}}
}

// external returns the single instance of a foreign function. It is
// created at the first call, with frozen parameter and return nodes.
func (p *Program) external(m *Method) (*Instance, error) {
	if m.external != nil {
		return m.external, nil
	}
	args := make([]types.ID, len(m.Def.Params))
	for i, prm := range m.Def.Params {
		t, err := p.resolveIn(m.owner, prm.Restriction)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	ret := p.Types.Void
	if m.Def.Return != nil {
		var err error
		if ret, err = p.resolveIn(m.owner, m.Def.Return); err != nil {
			return nil, err
		}
	}

	inst := p.newInstance(m, m.owner, args, nil)
	for i, t := range args {
		id := p.Graph.NewNode(m.Def.Params[i].Name + " : " + p.Types.Name(t))
		p.Graph.Freeze(id, t)
		inst.Params = append(inst.Params, id)
	}
	p.Graph.Freeze(inst.Return, ret)
	m.external = inst
	return inst, nil
}

// funCall checks a call to a foreign function against its declaration.
// Pointer parameters also accept nil.
func (p *Program) funCall(site *callSite, lib types.ID, args []types.ID) ([]graph.ID, []ast.CallTarget, error) {
	tab := p.Types
	name := site.call.Name
	m, ok := p.funs[lib][name]
	if !ok {
		return nil, nil, &UndefinedError{Message: fmt.Sprintf("undefined fun '%s' for %s", name, tab.Name(lib))}
	}
	want := len(m.Def.Params)
	if len(args) < want || (len(args) > want && !m.Varargs) {
		return nil, nil, &ArityError{Name: p.qualifiedName(lib, name), Given: len(args), Expected: []int{want}}
	}
	inst, err := p.external(m)
	if err != nil {
		return nil, nil, err
	}
	for i, prm := range inst.Params {
		expected := p.Graph.Type(prm)
		if tab.Implements(args[i], expected) {
			continue
		}
		if args[i] == tab.Nil && tab.KindOf(expected) == types.KindPointer {
			continue
		}
		if args[i] == tab.String && p.bytePointer(expected) {
			if err := p.convertCStr(site, i); err != nil {
				return nil, nil, err
			}
			continue
		}
		return nil, nil, &TypeMismatchError{
			Located: Located{site.call.Args[i].GetSourceLocation()},
			Message: fmt.Sprintf("argument #%d to %s must be %s, not %s",
				i+1, p.qualifiedName(lib, name), tab.Name(expected), tab.Name(args[i])),
		}
	}
	if m.Varargs {
		for i := len(inst.Params); i < len(args); i++ {
			if args[i] != tab.String {
				continue
			}
			if err := p.convertCStr(site, i); err != nil {
				return nil, nil, err
			}
		}
	}
	return []graph.ID{inst.Return}, []ast.CallTarget{inst}, nil
}

// bindOutArgs binds the variables passed to out parameters to the
// parameter types, so the call resolves before they are ever assigned.
func (p *Program) bindOutArgs(site *callSite, lib types.ID) error {
	m, ok := p.funs[lib][site.call.Name]
	if !ok {
		return nil
	}
	// Binding re-enters recalculate through the argument nodes.
	site.outBound = true
	for i, prm := range m.Def.Params {
		if !prm.Out || i >= len(site.call.Args) {
			continue
		}
		var target graph.ID
		switch arg := site.call.Args[i].(type) {
		case *ast.Var:
			if arg.Out {
				target = site.scope.declare(p.Graph, arg.Name)
			}
		case *ast.InstanceVar:
			if arg.Out {
				var err error
				if target, err = p.ivarNode(site.scope.self, arg.Name, false); err != nil {
					return err
				}
			}
		}
		if target == 0 {
			return &TypeMismatchError{
				Located: Located{site.call.Args[i].GetSourceLocation()},
				Message: fmt.Sprintf("argument #%d to %s must be passed as 'out'", i+1, p.qualifiedName(lib, m.Name())),
			}
		}
		inst, err := p.external(m)
		if err != nil {
			return err
		}
		if err := p.Graph.Bind(target, inst.Params[i]); err != nil {
			return err
		}
	}
	return nil
}

// bytePointer reports whether t points at single bytes: Char* or a one
// byte integer pointer such as UInt8*.
func (p *Program) bytePointer(t types.ID) bool {
	tab := p.Types
	ptr, ok := tab.Get(t).(*types.Pointer)
	if !ok {
		return false
	}
	if ptr.Pointee == tab.Char {
		return true
	}
	prim, ok := tab.Get(ptr.Pointee).(*types.Primitive)
	return ok && prim.Size == 1 && prim.Numeric != nil && !prim.Numeric.Float
}

// convertCStr rewrites a String argument into a call to its cstr method.
func (p *Program) convertCStr(site *callSite, i int) error {
	if site.converted[i] {
		return nil
	}
	if site.converted == nil {
		site.converted = map[int]bool{}
	}
	site.converted[i] = true
	arg := site.call.Args[i]
	conv := &ast.Call{Meta: ast.Meta{Loc: arg.GetSourceLocation()}, Obj: arg, Name: "cstr"}
	site.call.Args[i] = conv
	return p.recalculate(p.newSite(conv, site.scope))
}

func (v *visitor) VisitStructDef(n *ast.StructDef) error {
	p := v.p
	tab := p.Types
	lib, err := v.currentLib("struct", n.Loc)
	if err != nil {
		return err
	}
	if _, ok := tab.Lookup(tab.Name(lib) + "::" + n.Name); ok {
		return &TypeMismatchError{Message: fmt.Sprintf("%s::%s is already defined", tab.Name(lib), n.Name)}
	}

	// Defined before its fields resolve, so a field can point at the
	// struct itself.
	id := tab.DefineStruct(lib, n.Name, n.Union, nil)
	st := tab.Get(id).(*types.Struct)
	for _, f := range n.Fields {
		if f.Restriction == nil {
			return &ast.SyntaxError{Loc: n.Loc, Message: fmt.Sprintf("field '%s' of %s needs a type", f.Name, n.Name)}
		}
		t, err := p.resolveIn(lib, f.Restriction)
		if err != nil {
			return err
		}
		st.Fields = append(st.Fields, types.Field{Name: f.Name, Type: t})
	}

	at := ast.Meta{Loc: n.Loc}
	p.AddMethod(tab.MetaclassOf(id), &ast.Def{Meta: at, Name: "new", Return: &ast.SelfType{}, Body: &ast.Primitive{Meta: at, Name: "new"}})
	for _, f := range st.Fields {
		get := p.newMethod(id, &ast.Def{Meta: at, Name: f.Name}, FieldGetter)
		get.FieldType = f.Type
		p.register(get)

		set := p.newMethod(id, &ast.Def{Meta: at, Name: f.Name + "=", Params: []*ast.Param{{Name: "value"}}}, FieldSetter)
		set.FieldType = f.Type
		p.register(set)
	}
	return v.setType(n, tab.Nil)
}

func (v *visitor) VisitTypeDef(n *ast.TypeDef) error {
	p := v.p
	lib, err := v.currentLib("type", n.Loc)
	if err != nil {
		return err
	}
	t, err := p.resolveIn(lib, n.Type)
	if err != nil {
		return err
	}
	p.Types.Register(p.Types.Name(lib)+"::"+n.Name, t)
	return v.setType(n, p.Types.Nil)
}
