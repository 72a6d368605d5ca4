package infer

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/overload"
	"github.com/vito/quartz/pkg/types"
)

// MethodKind says how a method's instances are typed.
type MethodKind uint8

const (
	// UserMethod bodies are cloned and visited per instance.
	UserMethod MethodKind = iota
	// PrimitiveMethod bodies are opaque; the declared return type is the
	// instance's type.
	PrimitiveMethod
	// ExternalFun is a foreign function declared in a lib.
	ExternalFun
	// FieldGetter and FieldSetter access a foreign struct field.
	FieldGetter
	FieldSetter
)

// Method is one overload candidate.
type Method struct {
	Def  *ast.Def
	Kind MethodKind

	// FieldType is the field's type for struct accessors.
	FieldType types.ID
	// Varargs is set for foreign functions accepting extra arguments.
	Varargs bool

	owner types.ID
	p     *Program
	// instances memoizes instances by receiver and argument types.
	instances map[string]*Instance
	// external is the single instance of a foreign function.
	external *Instance
	// synthetic is set for constructors made from initialize.
	synthetic bool
}

func (m *Method) Parameters() []*ast.Param { return m.Def.Params }
func (m *Method) Owner() types.ID          { return m.owner }
func (m *Method) Name() string             { return m.Def.Name }

func (m *Method) String() string {
	return overload.Describe(m.p.qualifiedName(m.owner, m.Def.Name), m)
}

// Instance is a method typed for one receiver type and argument type
// tuple.
type Instance struct {
	Method *Method
	Owner  types.ID
	Args   []types.ID
	Free   overload.Bindings

	// Body is the typed clone of the method body.
	Body ast.Node
	// Return is the node holding the instance's return type.
	Return graph.ID
	// Params holds the frozen argument nodes of a foreign function.
	Params []graph.ID

	index int
	sig   string
	p     *Program
}

// Signature renders the instance for messages, e.g. "Foo#bar(Int32)".
func (i *Instance) Signature() string {
	return i.sig
}

// Type returns the instance's return type.
func (i *Instance) Type() types.ID {
	return i.p.Graph.Type(i.Return)
}

// Mangled is the instance's code generation name,
// Owner#name<Arg1, Arg2>:Return.
func (i *Instance) Mangled() string {
	tab := i.p.Types
	return i.p.qualifiedName(i.Owner, i.Method.Name()) + "<" + tab.Names(i.Args) + ">:" + tab.Name(i.Type())
}

func (p *Program) newInstance(m *Method, owner types.ID, args []types.ID, free overload.Bindings) *Instance {
	inst := &Instance{
		Method: m,
		Owner:  owner,
		Args:   args,
		Free:   free,
		index:  len(p.instances),
		sig:    p.describe(owner, m.Name(), args),
		p:      p,
	}
	inst.Return = p.Graph.NewNode(inst.sig)
	p.instances = append(p.instances, inst)
	return inst
}

// instantiate returns the instance of a matched method for a call. The
// memo entry is stored before the body is typed, so a recursive call with
// the same types reuses the instance under construction.
func (p *Program) instantiate(site *callSite, owner types.ID, match overload.Match) (*Instance, error) {
	m := match.Signature.(*Method)
	args := match.ArgTypes
	block := site.call.Block

	key := types.Key(append([]types.ID{owner}, args...)...)
	if block == nil {
		if inst, ok := m.instances[key]; ok {
			return inst, nil
		}
	}
	if p.depth >= maxDepth {
		return nil, errors.Errorf("instantiating '%s' nests too deeply", p.describe(owner, m.Name(), args))
	}

	inst := p.newInstance(m, owner, args, match.Free)
	if block == nil {
		m.instances[key] = inst
	}
	slog.DebugContext(p.ctx, "instantiating", "signature", inst.sig, "block", block != nil)

	switch m.Kind {
	case PrimitiveMethod:
		return inst, p.typePrimitive(inst)
	case FieldGetter:
		return inst, p.typeField(inst, false)
	case FieldSetter:
		return inst, p.typeField(inst, true)
	}

	p.depth++
	defer func() { p.depth-- }()
	if err := p.typeBody(site, inst); err != nil {
		return nil, &InstantiationError{Located: Located{site.call.Loc}, Signature: inst.sig, Err: err}
	}
	return inst, nil
}

func (p *Program) typeBody(site *callSite, inst *Instance) error {
	g := p.Graph
	def := inst.Method.Def
	args := inst.Args

	body := ast.Clone(def.Body)
	if body == nil {
		body = &ast.NilLiteral{Meta: ast.Meta{Loc: def.Loc}}
	}
	if len(args) < len(def.Params) {
		var pre []ast.Node
		for _, prm := range def.Params[len(args):] {
			pre = append(pre, &ast.Assign{
				Meta:   ast.Meta{Loc: prm.Default.GetSourceLocation()},
				Target: &ast.Var{Name: prm.Name},
				Value:  ast.Clone(prm.Default),
			})
		}
		body = &ast.Expressions{Meta: ast.Meta{Loc: def.Loc}, Body: append(pre, body)}
	}
	inst.Body = body

	s := newScope(inst.Owner, selfType(p.Types, inst.Owner))
	s.inst = inst
	s.free = inst.Free
	s.method = def.Name
	if block := site.call.Block; block != nil {
		if site.blocks > 0 {
			block = ast.Clone(block)
		}
		site.blocks++
		s.block = &blockContext{block: block, caller: site.scope, call: site.node}
	}
	for i, a := range args {
		arg := g.NewNode(def.Params[i].Name + " : " + p.Types.Name(a))
		if err := g.SetType(arg, a); err != nil {
			return err
		}
		if err := g.Bind(s.declare(g, def.Params[i].Name), arg); err != nil {
			return err
		}
	}

	if def.Return != nil {
		ret, err := p.resolveDeclared(inst, def.Return)
		if err != nil {
			return locate(err, def)
		}
		g.Freeze(inst.Return, ret)
	}

	v := &visitor{p: p, ctx: p.ctx, s: s}
	if err := v.visit(body); err != nil {
		return err
	}
	return locate(g.Bind(inst.Return, p.nodeOf(body)), def)
}

func (p *Program) typePrimitive(inst *Instance) error {
	def := inst.Method.Def
	ret := p.Types.Nil
	if def.Return != nil {
		var err error
		ret, err = p.resolveDeclared(inst, def.Return)
		if err != nil {
			return locate(err, def)
		}
	}
	inst.Body = ast.Clone(def.Body)
	if err := p.Graph.SetType(p.nodeOf(inst.Body), ret); err != nil {
		return err
	}
	p.Graph.Freeze(inst.Return, ret)
	return nil
}

func (p *Program) typeField(inst *Instance, set bool) error {
	m := inst.Method
	if set && !p.Types.Implements(inst.Args[0], m.FieldType) {
		return &TypeMismatchError{Message: fmt.Sprintf("field '%s' of %s must be %s, not %s",
			strings.TrimSuffix(m.Def.Name, "="), p.Types.Name(inst.Owner),
			p.Types.Name(m.FieldType), p.Types.Name(inst.Args[0]))}
	}
	p.Graph.Freeze(inst.Return, m.FieldType)
	return nil
}

// resolveDeclared resolves a declared return type as seen from the
// instance's receiver and free variables.
func (p *Program) resolveDeclared(inst *Instance, te ast.TypeExpr) (types.ID, error) {
	if tn, ok := te.(*ast.TypeName); ok && len(tn.Args) == 0 {
		if bound, ok := inst.Free[tn.Name()]; ok {
			return bound, nil
		}
	}
	t, ok := overload.ResolveType(p.Types, p, inst.Owner, te)
	if !ok {
		return types.None, &UndefinedError{Message: "uninitialized constant " + te.String()}
	}
	return t, nil
}

// selfType is the instance type self stands for in a namespace sense: a
// class method's namespace is its class.
func selfType(tab *types.Table, owner types.ID) types.ID {
	if m, ok := tab.Get(owner).(*types.Metaclass); ok {
		return m.Of
	}
	return owner
}

// Instances returns every method instance ordered by mangled name.
func (p *Program) Instances() []*Instance {
	out := slices.Clone(p.instances)
	slices.SortStableFunc(out, func(a, b *Instance) int {
		if c := strings.Compare(a.Mangled(), b.Mangled()); c != 0 {
			return c
		}
		return a.index - b.index
	})
	return out
}
