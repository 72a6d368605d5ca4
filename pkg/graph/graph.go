// Package graph implements the type graph: every expression and variable
// gets a node whose type is derived from the nodes it depends on, and
// changes are pushed to observers through a worklist.
package graph

import (
	"fmt"
	"slices"

	"github.com/vito/quartz/pkg/types"
)

// ID addresses a node in a Graph. Zero is not a node.
type ID int32

// Mapping is applied to the merged type of a node's dependencies.
type Mapping uint8

const (
	// Merge leaves the merged type as-is.
	Merge Mapping = iota
	// PointerOf wraps it in Pointer(T).
	PointerOf
	// ArrayOf wraps it in Array(T).
	ArrayOf
	// MetaclassOf takes its metaclass.
	MetaclassOf
	// Filtered narrows it through the node's filter.
	Filtered
)

// Edge says what happens to an observer when a dependency changes.
type Edge uint8

const (
	// Update recomputes the observer's type from its dependencies.
	Update Edge = iota + 1
	// Recalc hands the observer to the graph's Recalc hook. Call sites
	// use this to re-resolve when a receiver or argument type changes.
	Recalc
)

type observer struct {
	node ID
	edge Edge
}

type slot struct {
	owner types.ID
	name  string
}

type node struct {
	label     string
	typ       types.ID
	deps      []ID
	observers []observer
	mapping   Mapping
	filter    types.Filter
	frozen    bool
	slot      *slot

	queuedUpdate bool
	queuedRecalc bool
}

// Graph owns all nodes of a compilation.
type Graph struct {
	Types *types.Table

	// Recalc is invoked for Recalc edges. An error aborts propagation.
	Recalc func(ID) error

	nodes []node
}

// New creates an empty graph over a type table.
func New(tab *types.Table) *Graph {
	return &Graph{Types: tab, nodes: make([]node, 1)}
}

// NewNode allocates a node. The label only shows up in errors and dumps.
func (g *Graph) NewNode(label string) ID {
	g.nodes = append(g.nodes, node{label: label})
	return ID(len(g.nodes) - 1)
}

// Len returns one past the highest node ID.
func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) Label(id ID) string {
	return g.nodes[id].label
}

// Type returns the node's current type, or types.None.
func (g *Graph) Type(id ID) types.ID {
	if id == 0 {
		return types.None
	}
	return g.nodes[id].typ
}

// SetMapping sets the node-specific mapping applied after merging.
func (g *Graph) SetMapping(id ID, m Mapping) {
	g.nodes[id].mapping = m
}

// SetFilter makes the node a filtered view of its dependencies.
func (g *Graph) SetFilter(id ID, f types.Filter) {
	g.nodes[id].mapping = Filtered
	g.nodes[id].filter = f
}

// WriteBack makes the node's type flow into an instance variable slot of
// owner.
func (g *Graph) WriteBack(id ID, owner types.ID, name string) {
	g.nodes[id].slot = &slot{owner: owner, name: name}
}

// Freeze fixes the node's type. Any later recomputation that would produce
// a type not implementing it fails with a FrozenTypeError.
func (g *Graph) Freeze(id ID, t types.ID) {
	n := &g.nodes[id]
	n.typ = t
	n.frozen = true
}

// SetType assigns a type directly, e.g. for literals, and propagates the
// change.
func (g *Graph) SetType(id ID, t types.ID) error {
	n := &g.nodes[id]
	if n.typ == t {
		return nil
	}
	if n.frozen {
		return g.frozenError(id, t)
	}
	n.typ = t
	g.writeBack(id)
	return g.propagate(id)
}

// Rewrite replaces a node's type without notifying observers. The unifier
// uses it once inference has finished.
func (g *Graph) Rewrite(id ID, t types.ID) {
	g.nodes[id].typ = t
}

// Bind makes id depend on deps and recomputes it. If its type changes the
// change is propagated to everything observing it.
func (g *Graph) Bind(id ID, deps ...ID) error {
	added := false
	for _, d := range deps {
		if d == 0 || d == id || slices.Contains(g.nodes[id].deps, d) {
			continue
		}
		g.nodes[id].deps = append(g.nodes[id].deps, d)
		g.nodes[d].observers = append(g.nodes[d].observers, observer{node: id, edge: Update})
		added = true
	}
	if !added {
		return nil
	}
	changed, err := g.recompute(id)
	if err != nil || !changed {
		return err
	}
	return g.propagate(id)
}

// Unbind removes dependencies without recomputing. Callers rebind right
// after, which recomputes from the remaining set.
func (g *Graph) Unbind(id ID, deps ...ID) {
	for _, d := range deps {
		g.nodes[id].deps = slices.DeleteFunc(g.nodes[id].deps, func(x ID) bool { return x == d })
		g.nodes[d].observers = slices.DeleteFunc(g.nodes[d].observers, func(o observer) bool {
			return o.node == id && o.edge == Update
		})
	}
}

// Watch registers id for Recalc notifications from deps without making its
// type depend on them.
func (g *Graph) Watch(id ID, deps ...ID) {
	for _, d := range deps {
		if d == 0 {
			continue
		}
		obs := observer{node: id, edge: Recalc}
		if !slices.Contains(g.nodes[d].observers, obs) {
			g.nodes[d].observers = append(g.nodes[d].observers, obs)
		}
	}
}

func (g *Graph) recompute(id ID) (bool, error) {
	n := &g.nodes[id]
	if len(n.deps) == 0 {
		return false, nil
	}
	depTypes := make([]types.ID, 0, len(n.deps))
	for _, d := range n.deps {
		depTypes = append(depTypes, g.nodes[d].typ)
	}
	t := g.Types.Merge(depTypes...)
	if t == types.None {
		return false, nil
	}
	t = g.apply(n, t)
	if t == types.None || t == n.typ {
		return false, nil
	}
	if n.frozen {
		if g.Types.Implements(t, n.typ) {
			return false, nil
		}
		return false, g.frozenError(id, t)
	}
	n.typ = t
	g.writeBack(id)
	return true, nil
}

func (g *Graph) apply(n *node, t types.ID) types.ID {
	switch n.mapping {
	case PointerOf:
		return g.Types.PointerOf(t)
	case ArrayOf:
		arr, err := g.Types.Instantiate(g.Types.Array, []types.ID{t})
		if err != nil {
			return types.None
		}
		return arr
	case MetaclassOf:
		return g.Types.MetaclassOf(t)
	case Filtered:
		if n.filter == nil {
			return t
		}
		return n.filter.Apply(g.Types, t)
	}
	return t
}

func (g *Graph) writeBack(id ID) {
	n := &g.nodes[id]
	if n.slot == nil {
		return
	}
	if o := g.Types.ObjectOf(n.slot.owner); o != nil {
		o.SetIVar(n.slot.name, n.typ)
	}
}

type work struct {
	node ID
	edge Edge
}

// propagate notifies the observers of a changed node. Each node sits in
// the queue at most once per edge kind; a node already queued by an outer
// propagation is left for that propagation to process.
func (g *Graph) propagate(from ID) error {
	var queue []work
	enqueue := func(changed ID) {
		for _, o := range g.nodes[changed].observers {
			n := &g.nodes[o.node]
			switch o.edge {
			case Update:
				if n.queuedUpdate {
					continue
				}
				n.queuedUpdate = true
			case Recalc:
				if n.queuedRecalc {
					continue
				}
				n.queuedRecalc = true
			}
			queue = append(queue, work{node: o.node, edge: o.edge})
		}
	}
	enqueue(from)
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		switch w.edge {
		case Update:
			g.nodes[w.node].queuedUpdate = false
			changed, err := g.recompute(w.node)
			if err != nil {
				g.drain(queue)
				return err
			}
			if changed {
				enqueue(w.node)
			}
		case Recalc:
			g.nodes[w.node].queuedRecalc = false
			if g.Recalc == nil {
				continue
			}
			if err := g.Recalc(w.node); err != nil {
				g.drain(queue)
				return err
			}
		}
	}
	return nil
}

func (g *Graph) drain(queue []work) {
	for _, w := range queue {
		g.nodes[w.node].queuedUpdate = false
		g.nodes[w.node].queuedRecalc = false
	}
}

// FrozenTypeError reports an attempt to change a frozen node's type.
type FrozenTypeError struct {
	Node     ID
	Label    string
	Declared string
	Got      string
}

func (e *FrozenTypeError) Error() string {
	return fmt.Sprintf("type of %s is frozen as %s, can't change it to %s", e.Label, e.Declared, e.Got)
}

func (g *Graph) frozenError(id ID, t types.ID) error {
	n := &g.nodes[id]
	return &FrozenTypeError{
		Node:     id,
		Label:    n.label,
		Declared: g.Types.Name(n.typ),
		Got:      g.Types.Name(t),
	}
}
