package types

import "fmt"

// ID addresses a type in a Table. IDs are stable for the lifetime of the
// table and are handed out in declaration order, so they sort
// deterministically.
type ID int32

// None is the zero ID. It stands for "no type yet" on graph nodes and for a
// failed restriction.
const None ID = 0

// Kind discriminates the concrete type structs.
type Kind uint8

const (
	KindPrimitive Kind = iota + 1
	KindObject
	KindPointer
	KindUnion
	KindMetaclass
	KindHierarchy
	KindTypeVar
	KindStruct
	KindConst
	KindLib
)

var kindNames = map[Kind]string{
	KindPrimitive: "primitive",
	KindObject:    "object",
	KindPointer:   "pointer",
	KindUnion:     "union",
	KindMetaclass: "metaclass",
	KindHierarchy: "hierarchy",
	KindTypeVar:   "typevar",
	KindStruct:    "struct",
	KindConst:     "const",
	KindLib:       "lib",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Type is implemented by every entry in a Table.
type Type interface {
	ID() ID
	Kind() Kind
}

type base struct {
	id ID
}

func (b base) ID() ID { return b.id }

// Numeric describes the arithmetic properties of a numeric primitive.
type Numeric struct {
	Float  bool
	Signed bool
}

// Primitive is a built-in value type with a fixed machine size, such as
// Int32, Bool or Char.
type Primitive struct {
	base
	Name string
	Size int
	// Parent is the class the primitive inherits methods from (Value or
	// Numeric).
	Parent ID
	// Numeric is set for members of the numeric tower.
	Numeric *Numeric
}

func (*Primitive) Kind() Kind { return KindPrimitive }

// IVar is an instance variable slot on an Object. Its Type is written back
// by the type graph whenever the variable's node changes.
type IVar struct {
	Name string
	Type ID
}

// Object is a class or module. Generic instances like Box(Int32) are
// Objects too, pointing back at their template through Generic.
type Object struct {
	base
	Name       string
	Superclass ID
	Subclasses []ID
	Includes   []ID
	Module     bool
	TypeParams []string
	Generic    ID
	TypeArgs   []ID

	ivars []IVar
}

func (*Object) Kind() Kind { return KindObject }

// IsTemplate reports whether the object is an uninstantiated generic
// class.
func (o *Object) IsTemplate() bool {
	return len(o.TypeParams) > 0 && o.Generic == None
}

// IVars returns the object's instance variables in declaration order.
func (o *Object) IVars() []IVar {
	return o.ivars
}

// IVar returns the type of the named instance variable.
func (o *Object) IVar(name string) (ID, bool) {
	for _, iv := range o.ivars {
		if iv.Name == name {
			return iv.Type, true
		}
	}
	return None, false
}

// SetIVar declares or updates an instance variable slot.
func (o *Object) SetIVar(name string, t ID) {
	for i, iv := range o.ivars {
		if iv.Name == name {
			o.ivars[i].Type = t
			return
		}
	}
	o.ivars = append(o.ivars, IVar{Name: name, Type: t})
}

// TypeArg returns the argument bound to the named type parameter, looking
// through the generic template's parameter list.
func (t *Table) TypeArg(obj ID, param string) (ID, bool) {
	o, ok := t.Get(obj).(*Object)
	if !ok || o.Generic == None {
		return None, false
	}
	tmpl := t.Get(o.Generic).(*Object)
	for i, p := range tmpl.TypeParams {
		if p == param && i < len(o.TypeArgs) {
			return o.TypeArgs[i], true
		}
	}
	return None, false
}

// Pointer is a raw pointer to a value of Pointee.
type Pointer struct {
	base
	Pointee ID
}

func (*Pointer) Kind() Kind { return KindPointer }

// Union holds two or more distinct members, sorted by ID. It never contains
// another union.
type Union struct {
	base
	Members []ID
}

func (*Union) Kind() Kind { return KindUnion }

// Metaclass is the type of a class value, e.g. the receiver of Foo.new.
type Metaclass struct {
	base
	Of ID
}

func (*Metaclass) Kind() Kind { return KindMetaclass }

// Hierarchy stands for Base or any of its subclasses.
type Hierarchy struct {
	base
	Base ID
}

func (*Hierarchy) Kind() Kind { return KindHierarchy }

// TypeVar is an unresolved generic parameter.
type TypeVar struct {
	base
	Name string
}

func (*TypeVar) Kind() Kind { return KindTypeVar }

// Field is a member of a foreign struct or union.
type Field struct {
	Name string
	Type ID
}

// Struct is a foreign struct, or a foreign union when Union is set.
type Struct struct {
	base
	Name   string
	Lib    ID
	Union  bool
	Fields []Field
}

func (*Struct) Kind() Kind { return KindStruct }

// Field returns the type of the named field.
func (s *Struct) Field(name string) (ID, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return None, false
}

// Const is a named constant. Value is the graph node holding the constant's
// value; the type model treats it as opaque.
type Const struct {
	base
	Name  string
	Owner ID
	Value int32
}

func (*Const) Kind() Kind { return KindConst }

// Lib is a foreign library namespace declared with `lib`.
type Lib struct {
	base
	Name string
}

func (*Lib) Kind() Kind { return KindLib }
