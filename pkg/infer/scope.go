package infer

import (
	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
	"github.com/vito/quartz/pkg/overload"
	"github.com/vito/quartz/pkg/types"
)

// scope is a lexical scope: a method body, a class body, the top level, or
// a block nested in one of those.
type scope struct {
	// parent is set for block scopes, which see the enclosing variables.
	parent *scope
	vars   map[string]graph.ID
	// filters are narrowed views of variables, innermost last.
	filters []map[string]graph.ID

	self      types.ID
	namespace types.ID
	inst      *Instance
	block     *blockContext
	loops     []*loop
	free      overload.Bindings
	method    string
}

// loop is a break target: a while loop, or the call a block was given to.
type loop struct {
	target graph.ID
	broke  bool
}

// blockContext is the block passed to the instance being typed. Its scope
// and parameter nodes are created at the first yield.
type blockContext struct {
	block  *ast.Block
	caller *scope
	call   graph.ID

	scope  *scope
	params []graph.ID
}

func newScope(self, namespace types.ID) *scope {
	return &scope{
		vars:      map[string]graph.ID{},
		self:      self,
		namespace: namespace,
	}
}

func (s *scope) child() *scope {
	return &scope{
		parent:    s,
		vars:      map[string]graph.ID{},
		self:      s.self,
		namespace: s.namespace,
		inst:      s.inst,
		block:     s.block,
		free:      s.free,
		method:    s.method,
	}
}

func (s *scope) lookup(name string) (graph.ID, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		for i := len(cur.filters) - 1; i >= 0; i-- {
			if id, ok := cur.filters[i][name]; ok {
				return id, true
			}
		}
		if id, ok := cur.vars[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// declare returns the variable's node, creating it in this scope if no
// enclosing scope has it.
func (s *scope) declare(g *graph.Graph, name string) graph.ID {
	for cur := s; cur != nil; cur = cur.parent {
		if id, ok := cur.vars[name]; ok {
			return id
		}
	}
	id := g.NewNode(name)
	s.vars[name] = id
	return id
}

// unfilter drops narrowed views of a variable after it is reassigned.
func (s *scope) unfilter(name string) {
	for cur := s; cur != nil; cur = cur.parent {
		for _, f := range cur.filters {
			delete(f, name)
		}
	}
}
