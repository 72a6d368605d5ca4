package overload

import (
	"slices"

	"github.com/vito/quartz/pkg/types"
)

// Cover is a bitmap over the Cartesian product of the concrete members of
// each argument type. Each matching candidate marks the tuples it admits;
// a complete cover proves every combination is handled.
type Cover struct {
	tab  *types.Table
	dims [][]types.ID
	bits []bool
}

// NewCover builds an empty cover for the given argument types. Unions and
// hierarchies are expanded into their concrete members.
func NewCover(tab *types.Table, args []types.ID) *Cover {
	c := &Cover{tab: tab, dims: make([][]types.ID, len(args))}
	size := 1
	for i, a := range args {
		c.dims[i] = tab.Concrete(a)
		size *= len(c.dims[i])
	}
	c.bits = make([]bool, size)
	return c
}

// Size is the number of tuples in the product.
func (c *Cover) Size() int {
	return len(c.bits)
}

// Mark sets every tuple whose members fall within the restricted argument
// types.
func (c *Cover) Mark(restricted []types.ID) {
	allowed := make([][]types.ID, len(c.dims))
	for i := range c.dims {
		if i < len(restricted) {
			allowed[i] = c.tab.Concrete(restricted[i])
		}
	}
	for idx := range c.bits {
		if c.bits[idx] {
			continue
		}
		ok := true
		for i, m := range c.tuple(idx) {
			if !slices.Contains(allowed[i], m) {
				ok = false
				break
			}
		}
		if ok {
			c.bits[idx] = true
		}
	}
}

// All reports whether every tuple is marked.
func (c *Cover) All() bool {
	return !slices.Contains(c.bits, false)
}

// Missing lists the unmarked tuples in product order.
func (c *Cover) Missing() [][]types.ID {
	var out [][]types.ID
	for idx, set := range c.bits {
		if !set {
			out = append(out, c.tuple(idx))
		}
	}
	return out
}

// tuple decodes a bit index; the last argument varies fastest.
func (c *Cover) tuple(idx int) []types.ID {
	out := make([]types.ID, len(c.dims))
	for i := len(c.dims) - 1; i >= 0; i-- {
		n := len(c.dims[i])
		out[i] = c.dims[i][idx%n]
		idx /= n
	}
	return out
}
