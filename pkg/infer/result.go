package infer

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/vito/quartz/pkg/ast"
)

// Walk visits every typed tree reachable from the roots: the roots
// themselves, macro expansions, dispatch subcalls, and the body of every
// instance a call resolved to. Each instance body is visited once, and
// method definitions are visited without their untyped bodies.
// Returning false from fn skips the node's children.
func (p *Program) Walk(fn func(ast.Node) bool) {
	seen := set.New[int](len(p.instances))
	var walk func(ast.Node)
	walk = func(root ast.Node) {
		ast.Walk(root, func(n ast.Node) bool {
			if !fn(n) {
				return false
			}
			switch n.(type) {
			case *ast.Def, *ast.MacroDef:
				return false
			}
			call, ok := n.(*ast.Call)
			if !ok {
				return true
			}
			if call.Expanded != nil {
				walk(call.Expanded)
			}
			for _, t := range call.Targets {
				switch x := t.(type) {
				case *Instance:
					if x.Body != nil && seen.Insert(x.index) {
						walk(x.Body)
					}
				case *Dispatch:
					for _, sub := range x.Subcalls {
						walk(sub)
					}
				}
			}
			return true
		})
	}
	for _, r := range p.roots {
		walk(r)
	}
}

// Reachable returns the instances some walked call resolved to, in
// mangled order.
func (p *Program) Reachable() []*Instance {
	reached := set.New[*Instance](len(p.instances))
	p.Walk(func(n ast.Node) bool {
		if call, ok := n.(*ast.Call); ok {
			for _, t := range call.Targets {
				if inst, ok := t.(*Instance); ok {
					reached.Insert(inst)
				}
			}
		}
		return true
	})
	var out []*Instance
	for _, inst := range p.Instances() {
		if reached.Contains(inst) {
			out = append(out, inst)
		}
	}
	return out
}
