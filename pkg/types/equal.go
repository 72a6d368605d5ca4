package types

import (
	"encoding/binary"
	"maps"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type idPair struct{ a, b ID }

// Equal reports structural equality. Objects are equal when they share a
// name, generic arguments and instance variable types; pointers, unions,
// metaclasses and hierarchies compare their components. Cycles are
// resolved co-inductively: a pair already under comparison is assumed
// equal.
func (t *Table) Equal(a, b ID) bool {
	return t.equal(a, b, map[idPair]bool{})
}

func (t *Table) equal(a, b ID, assumed map[idPair]bool) bool {
	if a == b {
		return true
	}
	ta, tb := t.Get(a), t.Get(b)
	if ta == nil || tb == nil || ta.Kind() != tb.Kind() {
		return false
	}
	pair := idPair{a, b}
	if assumed[pair] {
		return true
	}
	assumed[pair] = true
	if !t.equalShape(ta, tb, assumed) {
		delete(assumed, pair)
		return false
	}
	return true
}

func (t *Table) equalShape(ta, tb Type, assumed map[idPair]bool) bool {
	switch x := ta.(type) {
	case *Object:
		y := tb.(*Object)
		if x.Name != y.Name || x.Module != y.Module || len(x.TypeArgs) != len(y.TypeArgs) || len(x.ivars) != len(y.ivars) {
			return false
		}
		if x.Generic != y.Generic && !t.equal(x.Generic, y.Generic, assumed) {
			return false
		}
		for i := range x.TypeArgs {
			if !t.equal(x.TypeArgs[i], y.TypeArgs[i], assumed) {
				return false
			}
		}
		for _, iv := range x.ivars {
			other, ok := y.IVar(iv.Name)
			if !ok || !t.equal(iv.Type, other, assumed) {
				return false
			}
		}
		return true
	case *Pointer:
		return t.equal(x.Pointee, tb.(*Pointer).Pointee, assumed)
	case *Metaclass:
		return t.equal(x.Of, tb.(*Metaclass).Of, assumed)
	case *Hierarchy:
		return t.equal(x.Base, tb.(*Hierarchy).Base, assumed)
	case *Union:
		y := tb.(*Union)
		if len(x.Members) != len(y.Members) {
			return false
		}
		// Each trial runs on a copy of the assumptions, kept on success.
		for _, m := range x.Members {
			found := false
			for _, n := range y.Members {
				trial := maps.Clone(assumed)
				if t.equal(m, n, trial) {
					maps.Copy(assumed, trial)
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	// Primitives, type vars, structs, consts and libs are nominal.
	return false
}

// Hash returns a structural hash consistent with Equal: equal types hash
// equally. Component types contribute only their kind and name, which
// keeps the hash finite for self-referential types.
func (t *Table) Hash(id ID) uint64 {
	d := xxhash.New()
	t.writeShallow(d, id)
	switch x := t.Get(id).(type) {
	case *Object:
		for _, a := range x.TypeArgs {
			t.writeShallow(d, a)
		}
		// Equal ignores declaration order, so ivars hash by name.
		ivars := slices.SortedFunc(slices.Values(x.ivars), func(a, b IVar) int {
			return strings.Compare(a.Name, b.Name)
		})
		for _, iv := range ivars {
			_, _ = d.WriteString(iv.Name)
			t.writeShallow(d, iv.Type)
		}
	case *Pointer:
		t.writeShallow(d, x.Pointee)
	case *Metaclass:
		t.writeShallow(d, x.Of)
	case *Hierarchy:
		t.writeShallow(d, x.Base)
	case *Union:
		// Members are summed so the hash does not depend on member order.
		var sum uint64
		for _, m := range x.Members {
			sum += t.shallowHash(m)
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], sum)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

func (t *Table) shallowHash(id ID) uint64 {
	d := xxhash.New()
	t.writeShallow(d, id)
	return d.Sum64()
}

func (t *Table) writeShallow(d *xxhash.Digest, id ID) {
	typ := t.Get(id)
	if typ == nil {
		_, _ = d.WriteString("?;")
		return
	}
	_, _ = d.WriteString(typ.Kind().String())
	_, _ = d.WriteString(":")
	switch x := typ.(type) {
	case *Object:
		_, _ = d.WriteString(x.Name)
	case *Union:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(len(x.Members)))
		_, _ = d.Write(buf[:])
	case *Pointer, *Metaclass, *Hierarchy:
		// Structure is hashed by the caller; nominal parts only here.
	default:
		_, _ = d.WriteString(t.Name(id))
	}
	_, _ = d.WriteString(";")
}
