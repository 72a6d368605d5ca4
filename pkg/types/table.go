package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Table owns every type of a compilation. Derived types (unions, pointers,
// metaclasses, hierarchies and generic instances) are interned so that
// building the same type twice yields the same ID.
type Table struct {
	types []Type

	byName      map[string]ID
	unions      map[string]ID
	pointers    map[ID]ID
	metaclasses map[ID]ID
	hierarchies map[ID]ID
	instances   map[string]ID
	typeVars    map[string]ID

	// Builtins created by NewTable.
	Object   ID
	Value    ID
	Numeric  ID
	Nil      ID
	Bool     ID
	Char     ID
	Symbol   ID
	NoReturn ID
	Void     ID
	String   ID
	Array    ID
	Pointer  ID
	Program  ID
}

// NewTable returns a table holding the builtin class tree:
//
//	Object
//	├── Value
//	│   ├── Numeric
//	│   └── Nil, Bool, Char, Symbol, Void, NoReturn
//	├── String
//	├── Array(T)
//	└── Pointer(T)
//
// Numeric kinds are added later by the standard definitions loader.
func NewTable() *Table {
	t := &Table{
		types:       []Type{nil},
		byName:      map[string]ID{},
		unions:      map[string]ID{},
		pointers:    map[ID]ID{},
		metaclasses: map[ID]ID{},
		hierarchies: map[ID]ID{},
		instances:   map[string]ID{},
		typeVars:    map[string]ID{},
	}
	t.Object = t.DefineClass("Object", None, nil)
	t.Value = t.DefineClass("Value", t.Object, nil)
	t.Numeric = t.DefineClass("Numeric", t.Value, nil)
	t.Nil = t.DefinePrimitive("Nil", 0, t.Value, nil)
	t.Bool = t.DefinePrimitive("Bool", 1, t.Value, nil)
	t.Char = t.DefinePrimitive("Char", 1, t.Value, nil)
	t.Symbol = t.DefinePrimitive("Symbol", 4, t.Value, nil)
	t.Void = t.DefinePrimitive("Void", 0, t.Value, nil)
	t.NoReturn = t.DefinePrimitive("NoReturn", 0, t.Value, nil)
	t.String = t.DefineClass("String", t.Object, nil)
	t.Array = t.DefineClass("Array", t.Object, []string{"T"})
	t.Pointer = t.DefineClass("Pointer", t.Value, []string{"T"})
	t.Program = t.DefineModule("<Program>")
	return t
}

func (t *Table) add(typ Type) {
	t.types = append(t.types, typ)
}

func (t *Table) next() base {
	return base{id: ID(len(t.types))}
}

// Len returns one past the highest ID in the table.
func (t *Table) Len() int {
	return len(t.types)
}

// Get returns the type for an ID, or nil for None.
func (t *Table) Get(id ID) Type {
	if id <= None || int(id) >= len(t.types) {
		return nil
	}
	return t.types[id]
}

// KindOf returns the kind of a type, or zero for None.
func (t *Table) KindOf(id ID) Kind {
	if typ := t.Get(id); typ != nil {
		return typ.Kind()
	}
	return 0
}

// Object returns the Object for id, or nil if it is not one.
func (t *Table) ObjectOf(id ID) *Object {
	o, _ := t.Get(id).(*Object)
	return o
}

// Lookup finds a named type.
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Register binds an extra name to an existing type, e.g. a foreign type
// alias.
func (t *Table) Register(name string, id ID) {
	t.byName[name] = id
}

// DefinePrimitive adds a named primitive.
func (t *Table) DefinePrimitive(name string, size int, parent ID, num *Numeric) ID {
	p := &Primitive{base: t.next(), Name: name, Size: size, Parent: parent, Numeric: num}
	t.add(p)
	t.byName[name] = p.id
	return p.id
}

// DefineClass adds a class below super and records it as a subclass.
func (t *Table) DefineClass(name string, super ID, params []string) ID {
	o := &Object{base: t.next(), Name: name, Superclass: super, TypeParams: params}
	t.add(o)
	t.byName[name] = o.id
	if s := t.ObjectOf(super); s != nil {
		s.Subclasses = append(s.Subclasses, o.id)
	}
	return o.id
}

// DefineModule adds a module.
func (t *Table) DefineModule(name string) ID {
	o := &Object{base: t.next(), Name: name, Module: true}
	t.add(o)
	t.byName[name] = o.id
	return o.id
}

// Include makes a class include a module.
func (t *Table) Include(class, module ID) {
	o := t.ObjectOf(class)
	if o == nil {
		return
	}
	for _, m := range o.Includes {
		if m == module {
			return
		}
	}
	o.Includes = append(o.Includes, module)
}

// NewObject adds an anonymous object that is not registered by name. The
// unifier folds such objects into their registered equivalents.
func (t *Table) NewObject(name string, super ID) ID {
	o := &Object{base: t.next(), Name: name, Superclass: super}
	t.add(o)
	return o.id
}

// DefineLib adds a foreign library namespace.
func (t *Table) DefineLib(name string) ID {
	l := &Lib{base: t.next(), Name: name}
	t.add(l)
	t.byName[name] = l.id
	return l.id
}

// DefineStruct adds a foreign struct or union, registered as Lib::Name.
func (t *Table) DefineStruct(lib ID, name string, union bool, fields []Field) ID {
	s := &Struct{base: t.next(), Name: name, Lib: lib, Union: union, Fields: fields}
	t.add(s)
	t.byName[t.qualify(lib, name)] = s.id
	return s.id
}

// DefineConst adds a named constant owned by owner.
func (t *Table) DefineConst(owner ID, name string, value int32) ID {
	c := &Const{base: t.next(), Name: name, Owner: owner, Value: value}
	t.add(c)
	t.byName[t.qualify(owner, name)] = c.id
	return c.id
}

func (t *Table) qualify(owner ID, name string) string {
	if owner == None || owner == t.Program {
		return name
	}
	return t.Name(owner) + "::" + name
}

// LookupIn finds name inside owner's namespace, falling back to the
// global namespace.
func (t *Table) LookupIn(owner ID, name string) (ID, bool) {
	if owner != None && owner != t.Program {
		if id, ok := t.byName[t.qualify(owner, name)]; ok {
			return id, true
		}
	}
	return t.Lookup(name)
}

// PointerOf interns Pointer(pointee).
func (t *Table) PointerOf(pointee ID) ID {
	if id, ok := t.pointers[pointee]; ok {
		return id
	}
	p := &Pointer{base: t.next(), Pointee: pointee}
	t.add(p)
	t.pointers[pointee] = p.id
	return p.id
}

// MetaclassOf interns the metaclass of a type.
func (t *Table) MetaclassOf(of ID) ID {
	if id, ok := t.metaclasses[of]; ok {
		return id
	}
	m := &Metaclass{base: t.next(), Of: of}
	t.add(m)
	t.metaclasses[of] = m.id
	return m.id
}

// HierarchyOf interns the hierarchy rooted at base.
func (t *Table) HierarchyOf(baseID ID) ID {
	if id, ok := t.hierarchies[baseID]; ok {
		return id
	}
	h := &Hierarchy{base: t.next(), Base: baseID}
	t.add(h)
	t.hierarchies[baseID] = h.id
	return h.id
}

// TypeVarOf interns a free type variable.
func (t *Table) TypeVarOf(name string) ID {
	if id, ok := t.typeVars[name]; ok {
		return id
	}
	v := &TypeVar{base: t.next(), Name: name}
	t.add(v)
	t.typeVars[name] = v.id
	return v.id
}

// Instantiate returns the instance of a generic template for the given
// arguments, creating it on first use. Pointer(T) instantiates to a
// Pointer type.
func (t *Table) Instantiate(template ID, args []ID) (ID, error) {
	tmpl := t.ObjectOf(template)
	if tmpl == nil || !tmpl.IsTemplate() {
		return None, errors.Errorf("%s is not a generic type", t.Name(template))
	}
	if len(args) != len(tmpl.TypeParams) {
		return None, errors.Errorf("wrong number of type vars for %s (%d for %d)", tmpl.Name, len(args), len(tmpl.TypeParams))
	}
	if template == t.Pointer {
		return t.PointerOf(args[0]), nil
	}
	key := idsKey(template, args)
	if id, ok := t.instances[key]; ok {
		return id, nil
	}
	o := &Object{
		base:       t.next(),
		Name:       tmpl.Name,
		Superclass: tmpl.Superclass,
		Generic:    template,
		TypeArgs:   append([]ID(nil), args...),
	}
	t.add(o)
	t.instances[key] = o.id
	return o.id, nil
}

// Depth returns the number of superclasses above a class. Object is at
// depth zero.
func (t *Table) Depth(id ID) int {
	d := 0
	for o := t.ObjectOf(id); o != nil && o.Superclass != None; o = t.ObjectOf(o.Superclass) {
		d++
	}
	return d
}

// Parent returns the type a value inherits methods from.
func (t *Table) Parent(id ID) ID {
	switch x := t.Get(id).(type) {
	case *Primitive:
		return x.Parent
	case *Object:
		if x.Generic != None {
			return x.Generic
		}
		return x.Superclass
	case *Pointer:
		return t.Pointer
	case *Struct:
		return t.Value
	}
	return None
}

// Ancestors returns id followed by every type it inherits from, including
// included modules, nearest first.
func (t *Table) Ancestors(id ID) []ID {
	var out []ID
	seen := map[ID]bool{}
	var walk func(ID)
	walk = func(cur ID) {
		for cur != None && !seen[cur] {
			seen[cur] = true
			out = append(out, cur)
			if o := t.ObjectOf(cur); o != nil {
				for _, m := range o.Includes {
					walk(m)
				}
			}
			cur = t.Parent(cur)
		}
	}
	walk(id)
	return out
}

// Members returns the members of a union, or the type itself.
func (t *Table) Members(id ID) []ID {
	if u, ok := t.Get(id).(*Union); ok {
		return u.Members
	}
	if id == None {
		return nil
	}
	return []ID{id}
}

// Concrete expands unions and hierarchies into the classes they stand for,
// in ID order.
func (t *Table) Concrete(id ID) []ID {
	var out []ID
	for _, m := range t.Members(id) {
		if h, ok := t.Get(m).(*Hierarchy); ok {
			out = append(out, t.subtree(h.Base)...)
			continue
		}
		out = append(out, m)
	}
	return sortedUnique(out)
}

func (t *Table) subtree(id ID) []ID {
	out := []ID{id}
	if o := t.ObjectOf(id); o != nil {
		for _, s := range o.Subclasses {
			out = append(out, t.subtree(s)...)
		}
	}
	return out
}

// IsSubclassOf reports whether class descends from (or is) super.
func (t *Table) IsSubclassOf(class, super ID) bool {
	for cur := class; cur != None; {
		if cur == super {
			return true
		}
		o := t.ObjectOf(cur)
		if o == nil {
			return false
		}
		cur = o.Superclass
	}
	return false
}

// Name renders a type for messages and dumps.
func (t *Table) Name(id ID) string {
	switch x := t.Get(id).(type) {
	case nil:
		return "?"
	case *Primitive:
		return x.Name
	case *Object:
		if len(x.TypeArgs) == 0 {
			return x.Name
		}
		return x.Name + "(" + t.names(x.TypeArgs, ", ") + ")"
	case *Pointer:
		return "Pointer(" + t.Name(x.Pointee) + ")"
	case *Union:
		return "(" + t.names(x.Members, " | ") + ")"
	case *Metaclass:
		return t.Name(x.Of) + ".class"
	case *Hierarchy:
		return t.Name(x.Base) + "+"
	case *TypeVar:
		return x.Name
	case *Struct:
		return t.Name(x.Lib) + "::" + x.Name
	case *Const:
		return t.qualify(x.Owner, x.Name)
	case *Lib:
		return x.Name
	}
	return fmt.Sprintf("<%d>", id)
}

// Names renders a list of types separated by ", ".
func (t *Table) Names(ids []ID) string {
	return t.names(ids, ", ")
}

func (t *Table) names(ids []ID, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = t.Name(id)
	}
	return strings.Join(parts, sep)
}

func idsKey(prefix ID, ids []ID) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(prefix)))
	for _, id := range ids {
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(int(id)))
	}
	return sb.String()
}

// Key renders a tuple of IDs as a map key.
func Key(ids ...ID) string {
	return idsKey(None, ids)
}
