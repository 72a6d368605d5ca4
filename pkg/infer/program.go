// Package infer types a normalized syntax tree.
//
// A Program is the compilation context. Visiting a tree gives every node a
// graph node; literals get their types directly, everything else is bound
// to the nodes it derives from. Calls resolve against the methods declared
// so far and instantiate a typed copy of the chosen method's body for each
// receiver and argument type tuple. When a receiver or argument type later
// grows into a union, the call is re-resolved, possibly into a Dispatch
// with one subcall per concrete combination.
package infer

import (
	"context"
	"slices"
	"strings"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/macro"
	"github.com/vito/quartz/pkg/overload"
	"github.com/vito/quartz/pkg/types"
)

// maxDepth bounds nested instantiation, which only recursion through
// blocks can exceed since block calls are not memoized.
const maxDepth = 512

type defKey struct {
	name   string
	arity  int
	yields bool
}

type varKey struct {
	owner types.ID
	name  string
}

// Def groups the overloads of one name, arity and block expectation on a
// type, sorted by specificity.
type Def struct {
	Name       string
	Arity      int
	Yields     bool
	Owner      types.ID
	Candidates overload.Candidates
}

// Program holds everything one compilation accumulates.
type Program struct {
	Types *types.Table
	Graph *graph.Graph

	intLiteral   types.ID
	floatLiteral types.ID

	defs     map[types.ID]map[defKey]*Def
	byName   map[types.ID]map[string][]*Def
	macros   map[string]*ast.MacroDef
	funs     map[types.ID]map[string]*Method
	globals  map[string]graph.ID
	classVar map[varKey]graph.ID
	ivars    map[varKey]graph.ID
	sites    map[graph.ID]*callSite

	instances []*Instance
	symbols   []string
	symbolSet map[string]bool
	roots     []ast.Node

	expander   macro.Expander
	expansions map[string]*expansion

	nilNode graph.ID
	depth   int
	ctx     context.Context
}

// Option configures a Program.
type Option func(*Program)

// WithExpander sets the macro expander. Without one, macro calls fail.
func WithExpander(e macro.Expander) Option {
	return func(p *Program) {
		p.expander = e
	}
}

// New creates an empty compilation context holding the builtin types.
func New(opts ...Option) *Program {
	tab := types.NewTable()
	p := &Program{
		Types:      tab,
		Graph:      graph.New(tab),
		defs:       map[types.ID]map[defKey]*Def{},
		byName:     map[types.ID]map[string][]*Def{},
		macros:     map[string]*ast.MacroDef{},
		funs:       map[types.ID]map[string]*Method{},
		globals:    map[string]graph.ID{},
		classVar:   map[varKey]graph.ID{},
		ivars:      map[varKey]graph.ID{},
		sites:      map[graph.ID]*callSite{},
		symbolSet:  map[string]bool{},
		expansions: map[string]*expansion{},
		ctx:        context.Background(),
	}
	p.Graph.Recalc = p.recalc
	p.nilNode = p.Graph.NewNode("nil")
	p.Graph.Freeze(p.nilNode, tab.Nil)
	// Every class can allocate an instance of itself; `new` builds on it.
	p.AddMethod(tab.MetaclassOf(tab.Object), ast.NewPrimitiveDef("allocate", &ast.SelfType{}))
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetLiteralKinds sets the types of unsuffixed integer and float literals.
func (p *Program) SetLiteralKinds(intKind, floatKind types.ID) {
	p.intLiteral = intKind
	p.floatLiteral = floatKind
}

// Infer visits a tree at the top level. Definitions persist across calls,
// so the standard definitions are inferred first and user code after.
func (p *Program) Infer(ctx context.Context, root ast.Node) error {
	p.ctx = ctx
	defer func() { p.ctx = context.Background() }()
	p.roots = append(p.roots, root)
	v := &visitor{p: p, ctx: ctx, s: newScope(p.Types.Program, p.Types.Program)}
	return v.visit(root)
}

// Roots returns every tree passed to Infer.
func (p *Program) Roots() []ast.Node {
	return p.roots
}

// TypeOf returns the type inferred for a node.
func (p *Program) TypeOf(n ast.Node) types.ID {
	if n == nil {
		return types.None
	}
	return p.Graph.Type(n.Binding())
}

// Symbols returns every symbol literal in order of first appearance.
func (p *Program) Symbols() []string {
	return p.symbols
}

func (p *Program) symbol(name string) {
	if !p.symbolSet[name] {
		p.symbolSet[name] = true
		p.symbols = append(p.symbols, name)
	}
}

func (p *Program) nodeOf(n ast.Node) graph.ID {
	if id := n.Binding(); id != 0 {
		return id
	}
	label := n.Kind().Tag()
	switch x := n.(type) {
	case *ast.Var:
		label += " " + x.Name
	case *ast.Call:
		label += " " + x.Name
	case *ast.InstanceVar:
		label += " @" + x.Name
	}
	id := p.Graph.NewNode(label)
	n.SetBinding(id)
	return id
}

// LookupType resolves a type name as seen from owner: generic parameters
// of owner first, then owner's namespace, then the global namespace.
// Constants and libs are not types.
func (p *Program) LookupType(owner types.ID, names []string) (types.ID, bool) {
	id, ok := p.lookupName(owner, names)
	if !ok {
		return types.None, false
	}
	switch p.Types.KindOf(id) {
	case types.KindConst, types.KindLib:
		return types.None, false
	}
	return id, true
}

func (p *Program) lookupName(owner types.ID, names []string) (types.ID, bool) {
	tab := p.Types
	if m, ok := tab.Get(owner).(*types.Metaclass); ok {
		owner = m.Of
	}
	if len(names) == 1 {
		if arg, ok := p.typeArg(owner, names[0]); ok {
			return arg, true
		}
	}
	return tab.LookupIn(owner, strings.Join(names, "::"))
}

func (p *Program) typeArg(owner types.ID, name string) (types.ID, bool) {
	tab := p.Types
	if ptr, ok := tab.Get(owner).(*types.Pointer); ok {
		if slices.Contains(tab.ObjectOf(tab.Pointer).TypeParams, name) {
			return ptr.Pointee, true
		}
		return types.None, false
	}
	for cur := owner; cur != types.None; {
		if arg, ok := tab.TypeArg(cur, name); ok {
			return arg, true
		}
		o := tab.ObjectOf(cur)
		if o == nil {
			break
		}
		cur = o.Superclass
	}
	return types.None, false
}

// AddMethod declares a method on owner. A method with default arguments
// is registered for every arity it accepts.
func (p *Program) AddMethod(owner types.ID, def *ast.Def) *Method {
	kind := UserMethod
	if _, ok := def.Body.(*ast.Primitive); ok {
		kind = PrimitiveMethod
	}
	m := p.newMethod(owner, def, kind)
	p.register(m)
	return m
}

func (p *Program) register(m *Method) {
	params := m.Def.Params
	required := len(params)
	for i, prm := range params {
		if prm.Default != nil {
			required = i
			break
		}
	}
	if p.defs[m.owner] == nil {
		p.defs[m.owner] = map[defKey]*Def{}
		p.byName[m.owner] = map[string][]*Def{}
	}
	for n := required; n <= len(params); n++ {
		key := defKey{name: m.Def.Name, arity: n, yields: m.Def.Yields}
		d, ok := p.defs[m.owner][key]
		if !ok {
			d = &Def{Name: key.name, Arity: n, Yields: key.yields, Owner: m.owner}
			p.defs[m.owner][key] = d
			p.byName[m.owner][key.name] = append(p.byName[m.owner][key.name], d)
		}
		d.Candidates = d.Candidates.Insert(p.Types, p, m)
	}
}

// lookupChain lists the types whose methods apply to owner, nearest first.
// A metaclass sees the class methods of its class's ancestors.
func (p *Program) lookupChain(owner types.ID) []types.ID {
	tab := p.Types
	if m, ok := tab.Get(owner).(*types.Metaclass); ok {
		var out []types.ID
		for _, a := range tab.Ancestors(m.Of) {
			out = append(out, tab.MetaclassOf(a))
		}
		return out
	}
	return tab.Ancestors(owner)
}

func (p *Program) findDef(owner types.ID, key defKey) (*Def, bool) {
	for _, a := range p.lookupChain(owner) {
		if d, ok := p.defs[a][key]; ok {
			return d, true
		}
	}
	return nil, false
}

// findSuperDef looks past the type that declared the calling method.
func (p *Program) findSuperDef(owner, declaring types.ID, key defKey) (*Def, bool) {
	chain := p.lookupChain(owner)
	i := slices.Index(chain, declaring)
	if i < 0 {
		return nil, false
	}
	for _, a := range chain[i+1:] {
		if d, ok := p.defs[a][key]; ok {
			return d, true
		}
	}
	return nil, false
}

// defsNamed returns every overload group named name visible from owner.
func (p *Program) defsNamed(owner types.ID, name string) []*Def {
	var out []*Def
	for _, a := range p.lookupChain(owner) {
		out = append(out, p.byName[a][name]...)
	}
	return out
}

func (p *Program) respondsTo(owner types.ID, name string) bool {
	return len(p.defsNamed(owner, name)) > 0
}

// describe renders a call signature for messages, e.g. "Foo#bar(Int32)".
func (p *Program) describe(owner types.ID, name string, args []types.ID) string {
	return p.qualifiedName(owner, name) + "(" + p.Types.Names(args) + ")"
}

func (p *Program) qualifiedName(owner types.ID, name string) string {
	tab := p.Types
	switch {
	case owner == tab.Program || owner == types.None:
		return name
	case tab.KindOf(owner) == types.KindLib:
		return tab.Name(owner) + "." + name
	case tab.KindOf(owner) == types.KindMetaclass:
		return tab.Name(tab.Get(owner).(*types.Metaclass).Of) + "." + name
	}
	return tab.Name(owner) + "#" + name
}

func (p *Program) recalc(id graph.ID) error {
	site, ok := p.sites[id]
	if !ok {
		return nil
	}
	return p.recalculate(site)
}
