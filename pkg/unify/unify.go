// Package unify canonicalizes the types of a finished inference, so that
// structurally equal types share a single ID. Code generation keys storage
// layout and function names off type IDs, so this runs before it.
package unify

import (
	"context"
	"log/slog"

	"github.com/hashicorp/go-set/v3"

	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/infer"
	"github.com/vito/quartz/pkg/types"
)

// Stats summarizes a unification pass.
type Stats struct {
	// Canonical is the number of representatives in the table.
	Canonical int
	// Folded is the number of types replaced by an equal representative.
	Folded int
	// Nodes is the number of graph nodes whose type was rewritten.
	Nodes int
	// Instances is the number of method instances whose signature was
	// rewritten.
	Instances int
}

// Unifier holds the canonical table: representatives bucketed by
// structural hash, plus the resolution of every type seen so far.
type Unifier struct {
	tab *types.Table

	buckets  map[uint64][]types.ID
	canon    map[types.ID]types.ID
	visiting *set.Set[types.ID]

	stats Stats
}

// New returns a Unifier with an empty canonical table.
func New(tab *types.Table) *Unifier {
	return &Unifier{
		tab:      tab,
		buckets:  map[uint64][]types.ID{},
		canon:    map[types.ID]types.ID{},
		visiting: set.New[types.ID](0),
	}
}

// Stats returns the counts accumulated so far.
func (u *Unifier) Stats() Stats {
	return u.stats
}

// Canonical returns the representative of id, registering id as a
// representative if no equal type has been seen.
//
// Components are canonicalized before the type itself is inserted. A type
// reached again while its own components are being canonicalized stands
// for itself, which keeps self-referential types finite.
func (u *Unifier) Canonical(id types.ID) types.ID {
	if id == types.None {
		return id
	}
	if c, ok := u.canon[id]; ok {
		return c
	}
	if u.visiting.Contains(id) {
		return id
	}
	if rep, ok := u.find(id); ok {
		return u.fold(id, rep)
	}

	u.visiting.Insert(id)
	built := u.rebuild(id)
	u.visiting.Remove(id)

	if built != id {
		return u.fold(id, u.Canonical(built))
	}
	// Rewritten components can make an object equal to a known one.
	if rep, ok := u.find(id); ok {
		return u.fold(id, rep)
	}
	h := u.tab.Hash(id)
	u.buckets[h] = append(u.buckets[h], id)
	u.canon[id] = id
	u.stats.Canonical++
	return id
}

func (u *Unifier) find(id types.ID) (types.ID, bool) {
	for _, rep := range u.buckets[u.tab.Hash(id)] {
		if u.tab.Equal(id, rep) {
			return rep, true
		}
	}
	return types.None, false
}

func (u *Unifier) fold(id, rep types.ID) types.ID {
	u.canon[id] = rep
	if rep != id {
		u.stats.Folded++
	}
	return rep
}

// rebuild returns id with canonical components. Objects are updated in
// place; derived types are re-interned.
func (u *Unifier) rebuild(id types.ID) types.ID {
	tab := u.tab
	switch x := tab.Get(id).(type) {
	case *types.Object:
		for i, a := range x.TypeArgs {
			x.TypeArgs[i] = u.Canonical(a)
		}
		for _, iv := range x.IVars() {
			x.SetIVar(iv.Name, u.Canonical(iv.Type))
		}
		return id
	case *types.Pointer:
		return tab.PointerOf(u.Canonical(x.Pointee))
	case *types.Union:
		members := make([]types.ID, len(x.Members))
		for i, m := range x.Members {
			members[i] = u.Canonical(m)
		}
		return tab.UnionOf(members...)
	case *types.Metaclass:
		return tab.MetaclassOf(u.Canonical(x.Of))
	case *types.Hierarchy:
		return tab.HierarchyOf(u.Canonical(x.Base))
	}
	return id
}

// Graph rewrites every node's type to its representative, in node order.
func (u *Unifier) Graph(g *graph.Graph) {
	for id := graph.ID(1); int(id) < g.Len(); id++ {
		t := g.Type(id)
		if c := u.Canonical(t); c != t {
			g.Rewrite(id, c)
			u.stats.Nodes++
		}
	}
}

// Instance rewrites an instance's owner, argument types and free variable
// bindings.
func (u *Unifier) Instance(inst *infer.Instance) {
	changed := false
	canon := func(t types.ID) types.ID {
		c := u.Canonical(t)
		if c != t {
			changed = true
		}
		return c
	}
	inst.Owner = canon(inst.Owner)
	for i, a := range inst.Args {
		inst.Args[i] = canon(a)
	}
	for name, t := range inst.Free {
		inst.Free[name] = canon(t)
	}
	if changed {
		u.stats.Instances++
	}
}

// Program unifies a finished inference: its graph, then its instances.
// Running it again over the same program changes nothing.
func Program(ctx context.Context, p *infer.Program) Stats {
	u := New(p.Types)
	u.Graph(p.Graph)
	for _, inst := range p.Instances() {
		u.Instance(inst)
	}
	slog.DebugContext(ctx, "unified types",
		"canonical", u.stats.Canonical,
		"folded", u.stats.Folded,
		"nodes", u.stats.Nodes,
		"instances", u.stats.Instances)
	return u.stats
}
