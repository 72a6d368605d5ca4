package types

// Implements reports whether every value of candidate is acceptable where
// target is expected: identity, inheritance, module inclusion, generic
// template membership, or membership in a target union.
func (t *Table) Implements(candidate, target ID) bool {
	if candidate == target {
		return true
	}
	if candidate == None || target == None {
		return false
	}
	if u, ok := t.Get(target).(*Union); ok {
		for _, m := range u.Members {
			if t.Implements(candidate, m) {
				return true
			}
		}
		return false
	}
	switch c := t.Get(candidate).(type) {
	case *Union:
		for _, m := range c.Members {
			if !t.Implements(m, target) {
				return false
			}
		}
		return true
	case *Hierarchy:
		return t.Implements(c.Base, target)
	case *Metaclass:
		if m, ok := t.Get(target).(*Metaclass); ok {
			return t.Implements(c.Of, m.Of)
		}
		return false
	}
	if h, ok := t.Get(target).(*Hierarchy); ok {
		target = h.Base
	}
	for _, a := range t.Ancestors(candidate) {
		if a == target {
			return true
		}
	}
	if t.KindOf(candidate) == KindObject && t.KindOf(target) == KindObject {
		return t.Equal(candidate, target)
	}
	return false
}

// Restrict narrows candidate to the part that satisfies restriction, or
// returns None when no part does. A union candidate keeps its satisfying
// members; a hierarchy candidate narrows to the satisfying subtrees.
func (t *Table) Restrict(candidate, restriction ID) ID {
	if candidate == None {
		return None
	}
	if restriction == None || candidate == restriction {
		return candidate
	}
	if _, ok := t.Get(restriction).(*TypeVar); ok {
		return candidate
	}
	switch c := t.Get(candidate).(type) {
	case *Union:
		var kept []ID
		for _, m := range c.Members {
			if r := t.Restrict(m, restriction); r != None {
				kept = append(kept, r)
			}
		}
		return t.UnionOf(kept...)
	case *Hierarchy:
		return t.restrictHierarchy(c.Base, restriction)
	}
	if u, ok := t.Get(restriction).(*Union); ok {
		var kept []ID
		for _, m := range u.Members {
			if r := t.Restrict(candidate, m); r != None {
				kept = append(kept, r)
			}
		}
		return t.UnionOf(kept...)
	}
	if t.Implements(candidate, restriction) {
		return candidate
	}
	return None
}

func (t *Table) restrictHierarchy(baseID, restriction ID) ID {
	if t.Implements(baseID, restriction) {
		return t.HierarchyOf(baseID)
	}
	var kept []ID
	if o := t.ObjectOf(baseID); o != nil {
		for _, sub := range o.Subclasses {
			if r := t.restrictHierarchy(sub, restriction); r != None {
				kept = append(kept, r)
			}
		}
	}
	return t.UnionOf(kept...)
}

// FilterBy keeps the members of a union that implement target, collapsing
// the result like Merge. A non-union input is kept or dropped whole.
func (t *Table) FilterBy(union, target ID) ID {
	var kept []ID
	for _, m := range t.Members(union) {
		if t.Implements(m, target) {
			kept = append(kept, m)
		}
	}
	return t.UnionOf(kept...)
}

// Without drops a member type from a union, e.g. Nil for truthiness
// narrowing.
func (t *Table) Without(union, drop ID) ID {
	var kept []ID
	for _, m := range t.Members(union) {
		if m != drop {
			kept = append(kept, m)
		}
	}
	return t.UnionOf(kept...)
}
