package ast

import (
	"github.com/vito/quartz/pkg/graph"
)

// Node is an expression of the normalized input tree.
type Node interface {
	SourceLocatable
	Kind() Kind
	Accept(Visitor) error

	// Binding is the node's entry in the type graph, or zero before the
	// node has been visited.
	Binding() graph.ID
	SetBinding(graph.ID)
}

// Meta is embedded in every node.
type Meta struct {
	Loc     *SourceLocation
	binding graph.ID
}

func (m *Meta) GetSourceLocation() *SourceLocation { return m.Loc }
func (m *Meta) Binding() graph.ID                   { return m.binding }
func (m *Meta) SetBinding(id graph.ID)              { m.binding = id }

// CallTarget is what a call resolved to: a method instance or a dispatch.
type CallTarget interface {
	Signature() string
}

type Nop struct {
	Meta
}

type NilLiteral struct {
	Meta
}

type BoolLiteral struct {
	Meta
	Value bool `yaml:"value"`
}

// IntLiteral is an integer literal. Suffix selects a numeric kind, e.g.
// "Int64" for 1_i64; empty means the configured default.
type IntLiteral struct {
	Meta
	Value  string `yaml:"value"`
	Suffix string `yaml:"suffix"`
}

type FloatLiteral struct {
	Meta
	Value  string `yaml:"value"`
	Suffix string `yaml:"suffix"`
}

type CharLiteral struct {
	Meta
	Value string `yaml:"value"`
}

type StringLiteral struct {
	Meta
	Value string `yaml:"value"`
}

type SymbolLiteral struct {
	Meta
	Value string `yaml:"value"`
}

// ArrayLiteral is `[a, b]`, or `[] of T` when empty.
type ArrayLiteral struct {
	Meta
	Elements []Node  `yaml:"elements"`
	Of       TypeExpr `yaml:"of"`
}

// Var is a local variable. The normalizer has already given each
// assignment a distinct name where reads must not see it.
// Var is a local variable. Out marks a variable passed to a foreign
// function's out parameter, which declares it.
type Var struct {
	Meta
	Name string `yaml:"name"`
	Out  bool   `yaml:"out"`
}

type InstanceVar struct {
	Meta
	Name string `yaml:"name"`
	Out  bool   `yaml:"out"`
}

type ClassVar struct {
	Meta
	Name string `yaml:"name"`
}

type Global struct {
	Meta
	Name string `yaml:"name"`
}

type Self struct {
	Meta
}

// Path names a constant or type, e.g. Foo, C::Point or Box(Int32).
type Path struct {
	Meta
	Names    []string   `yaml:"names"`
	TypeArgs []TypeExpr `yaml:"type_args"`
}

// Assign writes Value to Target, which is a Var, InstanceVar, ClassVar,
// Global or Path (constant declaration).
type Assign struct {
	Meta
	Target Node `yaml:"target"`
	Value  Node `yaml:"value"`
}

type Expressions struct {
	Meta
	Body []Node `yaml:"body"`
}

type If struct {
	Meta
	Cond Node `yaml:"cond"`
	Then Node `yaml:"then"`
	Else Node `yaml:"else"`
}

type Unless struct {
	Meta
	Cond Node `yaml:"cond"`
	Then Node `yaml:"then"`
	Else Node `yaml:"else"`
}

type When struct {
	Conds []Node `yaml:"conds"`
	Body  Node   `yaml:"body"`
}

type Case struct {
	Meta
	Subject Node    `yaml:"subject"`
	Whens   []*When `yaml:"whens"`
	Else    Node    `yaml:"else"`
}

type While struct {
	Meta
	Cond Node `yaml:"cond"`
	Body Node `yaml:"body"`
}

// Call is a method call, a macro call, or a call to a foreign function.
type Call struct {
	Meta
	Obj       Node   `yaml:"obj"`
	Name      string `yaml:"name"`
	Args      []Node `yaml:"args"`
	Block     *Block `yaml:"block"`
	HasParens bool   `yaml:"has_parens"`

	// Targets is filled in by inference.
	Targets []CallTarget `yaml:"-"`
	// Expanded holds the spliced subtree when the call was a macro.
	Expanded Node `yaml:"-"`
}

type Block struct {
	Meta
	Params []*Var `yaml:"params"`
	Body   Node   `yaml:"body"`
}

type Yield struct {
	Meta
	Args []Node `yaml:"args"`
}

type Return struct {
	Meta
	Value Node `yaml:"value"`
}

type Break struct {
	Meta
	Value Node `yaml:"value"`
}

// Param is a method or function parameter.
type Param struct {
	Name        string   `yaml:"name"`
	Restriction TypeExpr `yaml:"restriction"`
	Default     Node     `yaml:"default"`
	// Out marks a foreign function parameter written through by the
	// callee.
	Out bool `yaml:"out"`
}

// Def declares a method. Receiver is "self" for class methods. Return,
// when given, fixes the type of every instance's return value.
type Def struct {
	Meta
	Receiver string   `yaml:"receiver"`
	Name     string   `yaml:"name"`
	Params   []*Param `yaml:"params"`
	Return   TypeExpr `yaml:"return"`
	Body     Node     `yaml:"body"`
	Yields   bool     `yaml:"yields"`
}

type ClassDef struct {
	Meta
	Name       string   `yaml:"name"`
	Superclass *Path    `yaml:"superclass"`
	TypeParams []string `yaml:"type_params"`
	Body       Node     `yaml:"body"`
}

type ModuleDef struct {
	Meta
	Name string `yaml:"name"`
	Body Node   `yaml:"body"`
}

type Include struct {
	Meta
	Module *Path `yaml:"module"`
}

// IsA is `obj.is_a?(Type)`.
type IsA struct {
	Meta
	Obj  Node     `yaml:"obj"`
	Type TypeExpr `yaml:"type"`
}

// RespondsTo is `obj.responds_to?(:name)`.
type RespondsTo struct {
	Meta
	Obj  Node   `yaml:"obj"`
	Name string `yaml:"name"`
}

type PointerOf struct {
	Meta
	Target Node `yaml:"target"`
}

type LibDef struct {
	Meta
	Name string `yaml:"name"`
	Body []Node `yaml:"body"`
}

// FunDef declares a foreign function inside a lib.
type FunDef struct {
	Meta
	Name     string   `yaml:"name"`
	RealName string   `yaml:"real_name"`
	Params   []*Param `yaml:"params"`
	Return   TypeExpr `yaml:"return"`
	Varargs  bool     `yaml:"varargs"`
}

// StructDef declares a foreign struct, or a foreign union when Union is
// set. Fields use Param's Name and Restriction.
type StructDef struct {
	Meta
	Name   string   `yaml:"name"`
	Union  bool     `yaml:"union"`
	Fields []*Param `yaml:"fields"`
}

type TypeDef struct {
	Meta
	Name string   `yaml:"name"`
	Type TypeExpr `yaml:"type"`
}

type MacroDef struct {
	Meta
	Name   string   `yaml:"name"`
	Params []string `yaml:"params"`
	Body   Node     `yaml:"body"`
}

// Primitive is the body of a built-in method. Its type comes from the
// method's signature rather than from inference.
type Primitive struct {
	Meta
	Name string `yaml:"name"`
}
