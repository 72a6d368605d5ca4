package types

import (
	"slices"
)

// Merge combines types into their least upper bound: nested unions are
// flattened, structurally equal members collapse to the lowest ID, NoReturn
// is absorbed by any other member, and classes sharing an ancestor below
// Object combine into a Hierarchy of that ancestor. A single remaining
// member is returned as-is; None inputs are ignored.
func (t *Table) Merge(ids ...ID) ID {
	members := t.flatten(ids)
	if len(members) == 0 {
		return None
	}
	return t.intern(t.combine(members))
}

// UnionOf is Merge without hierarchy combination. Restrictions use it so
// that narrowing A+ to a module yields exactly the matching subtrees.
func (t *Table) UnionOf(ids ...ID) ID {
	members := t.flatten(ids)
	if len(members) == 0 {
		return None
	}
	return t.intern(members)
}

func (t *Table) flatten(ids []ID) []ID {
	var out []ID
	noReturn := false
	for _, id := range ids {
		for _, m := range t.Members(id) {
			if m == t.NoReturn {
				noReturn = true
				continue
			}
			out = append(out, m)
		}
	}
	out = t.dedup(sortedUnique(out))
	if len(out) == 0 && noReturn {
		return []ID{t.NoReturn}
	}
	return out
}

// dedup drops members structurally equal to an earlier (lower) member.
func (t *Table) dedup(sorted []ID) []ID {
	out := sorted[:0]
	for _, id := range sorted {
		dup := false
		for _, kept := range out {
			if t.Equal(kept, id) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out
}

func (t *Table) intern(members []ID) ID {
	if len(members) == 1 {
		return members[0]
	}
	key := Key(members...)
	if id, ok := t.unions[key]; ok {
		return id
	}
	u := &Union{base: t.next(), Members: slices.Clone(members)}
	t.add(u)
	t.unions[key] = u.id
	return u.id
}

// combine replaces classes (and hierarchies) that share an ancestor of
// depth one or more with the hierarchy of their nearest common ancestor.
func (t *Table) combine(members []ID) []ID {
	type group struct {
		lca   ID
		count int
		hier  bool
	}
	groups := map[ID]*group{}
	var order []ID
	var rest []ID
	for _, m := range members {
		class, hier := t.combinable(m)
		if class == None {
			rest = append(rest, m)
			continue
		}
		top := t.topAncestor(class)
		if top == None {
			rest = append(rest, m)
			continue
		}
		g, ok := groups[top]
		if !ok {
			g = &group{lca: class}
			groups[top] = g
			order = append(order, top)
		} else {
			g.lca = t.commonAncestor(g.lca, class)
		}
		g.count++
		g.hier = g.hier || hier
	}
	for _, top := range order {
		g := groups[top]
		if g.count == 1 && !g.hier {
			rest = append(rest, g.lca)
		} else {
			rest = append(rest, t.HierarchyOf(g.lca))
		}
	}
	return sortedUnique(rest)
}

// combinable returns the class a member contributes to hierarchy
// combination, and whether it was already a hierarchy.
func (t *Table) combinable(id ID) (ID, bool) {
	switch x := t.Get(id).(type) {
	case *Hierarchy:
		return x.Base, true
	case *Object:
		if x.Module || x.IsTemplate() || x.Generic != None {
			return None, false
		}
		return id, false
	}
	return None, false
}

// topAncestor returns the ancestor of class directly below the root.
func (t *Table) topAncestor(class ID) ID {
	cur := class
	for {
		o := t.ObjectOf(cur)
		if o == nil || o.Superclass == None {
			return None
		}
		if t.ObjectOf(o.Superclass).Superclass == None {
			return cur
		}
		cur = o.Superclass
	}
}

func (t *Table) commonAncestor(a, b ID) ID {
	for da, db := t.Depth(a), t.Depth(b); da > db; da-- {
		a = t.ObjectOf(a).Superclass
	}
	for da, db := t.Depth(a), t.Depth(b); db > da; db-- {
		b = t.ObjectOf(b).Superclass
	}
	for a != b {
		a = t.ObjectOf(a).Superclass
		b = t.ObjectOf(b).Superclass
	}
	return a
}

func sortedUnique(ids []ID) []ID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
