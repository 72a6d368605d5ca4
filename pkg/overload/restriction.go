// Package overload picks the applicable, most specific method candidates
// for a tuple of argument types and proves union arguments are fully
// covered.
package overload

import (
	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/types"
)

// Resolver looks type names up as seen from inside owner, including the
// owner's own generic parameters.
type Resolver interface {
	LookupType(owner types.ID, names []string) (types.ID, bool)
}

// Bindings holds free type variables bound while matching. The first
// occurrence of a name binds it; later occurrences must agree.
type Bindings map[string]types.ID

// Restrict narrows arg by a written restriction. It returns types.None
// when the restriction rejects arg entirely.
func Restrict(tab *types.Table, r Resolver, owner types.ID, arg types.ID, te ast.TypeExpr, free Bindings) types.ID {
	switch x := te.(type) {
	case nil:
		return arg
	case *ast.SelfType:
		return tab.Restrict(arg, selfType(tab, owner))
	case *ast.TypeUnion:
		var kept []types.ID
		for _, m := range x.Types {
			if got := Restrict(tab, r, owner, arg, m, free); got != types.None {
				kept = append(kept, got)
			}
		}
		return tab.UnionOf(kept...)
	case *ast.TypeName:
		if len(x.Args) > 0 {
			return restrictGeneric(tab, r, owner, arg, x, free)
		}
		if name := x.Name(); name != "" {
			if bound, ok := free[name]; ok {
				return tab.Restrict(arg, bound)
			}
		}
		if t, ok := r.LookupType(owner, x.Names); ok {
			return tab.Restrict(arg, t)
		}
		if name := x.Name(); name != "" && free != nil {
			free[name] = arg
			return arg
		}
	}
	return types.None
}

func restrictGeneric(tab *types.Table, r Resolver, owner, arg types.ID, x *ast.TypeName, free Bindings) types.ID {
	tmpl, ok := r.LookupType(owner, x.Names)
	if !ok {
		return types.None
	}
	var kept []types.ID
	for _, m := range tab.Members(arg) {
		targs := instanceArgs(tab, m, tmpl)
		if targs == nil || len(targs) != len(x.Args) {
			continue
		}
		match := true
		for i, ta := range targs {
			if Restrict(tab, r, owner, ta, x.Args[i], free) != ta {
				match = false
				break
			}
		}
		if match {
			kept = append(kept, m)
		}
	}
	return tab.UnionOf(kept...)
}

// instanceArgs returns the type arguments of m if it instantiates tmpl.
func instanceArgs(tab *types.Table, m, tmpl types.ID) []types.ID {
	switch x := tab.Get(m).(type) {
	case *types.Pointer:
		if tmpl == tab.Pointer {
			return []types.ID{x.Pointee}
		}
	case *types.Object:
		if x.Generic == tmpl {
			return x.TypeArgs
		}
	}
	return nil
}

// selfType is the instance type a `self` restriction stands for.
func selfType(tab *types.Table, owner types.ID) types.ID {
	if m, ok := tab.Get(owner).(*types.Metaclass); ok {
		return m.Of
	}
	return owner
}

// IsRestrictionOf reports whether every parameter of a requires a type
// equal to or more specific than the matching parameter of b.
func IsRestrictionOf(tab *types.Table, r Resolver, a, b Signature) bool {
	pa, pb := a.Parameters(), b.Parameters()
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if !restrictionOf(tab, r, a.Owner(), pa[i].Restriction, b.Owner(), pb[i].Restriction) {
			return false
		}
	}
	return true
}

func restrictionOf(tab *types.Table, r Resolver, ownerA types.ID, a ast.TypeExpr, ownerB types.ID, b ast.TypeExpr) bool {
	if b == nil {
		return true
	}
	if a == nil {
		return false
	}
	ta, okA := resolve(tab, r, ownerA, a)
	tb, okB := resolve(tab, r, ownerB, b)
	if okA && okB {
		return tab.Implements(ta, tb)
	}
	return a.String() == b.String()
}

// resolve turns a restriction into a type when every name in it is known.
func resolve(tab *types.Table, r Resolver, owner types.ID, te ast.TypeExpr) (types.ID, bool) {
	switch x := te.(type) {
	case *ast.SelfType:
		return selfType(tab, owner), true
	case *ast.TypeUnion:
		var members []types.ID
		for _, m := range x.Types {
			t, ok := resolve(tab, r, owner, m)
			if !ok {
				return types.None, false
			}
			members = append(members, t)
		}
		return tab.UnionOf(members...), true
	case *ast.TypeName:
		t, ok := r.LookupType(owner, x.Names)
		if !ok {
			return types.None, false
		}
		if len(x.Args) == 0 {
			return t, true
		}
		args := make([]types.ID, len(x.Args))
		for i, a := range x.Args {
			at, ok := resolve(tab, r, owner, a)
			if !ok {
				// Array(T) with T free still restricts to any Array.
				return t, true
			}
			args[i] = at
		}
		inst, err := tab.Instantiate(t, args)
		if err != nil {
			return types.None, false
		}
		return inst, true
	}
	return types.None, false
}

// ResolveType turns a written type into a concrete one, e.g. for foreign
// signatures and declared return types.
func ResolveType(tab *types.Table, r Resolver, owner types.ID, te ast.TypeExpr) (types.ID, bool) {
	return resolve(tab, r, owner, te)
}
