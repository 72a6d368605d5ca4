package infer

import (
	"github.com/vito/quartz/pkg/ast"
)

// VisitYield binds the block's parameters to the yielded values. The block
// body is typed once, at the first yield; later yields only widen its
// parameters.
func (v *visitor) VisitYield(n *ast.Yield) error {
	p := v.p
	bc := v.s.block
	if bc == nil {
		return &ast.SyntaxError{Loc: n.Loc, Message: "yield without a block (in '" + v.s.method + "')"}
	}
	if err := v.visitAll(n.Args); err != nil {
		return err
	}

	first := bc.scope == nil
	if first {
		bs := bc.caller.child()
		bs.loops = []*loop{{target: bc.call}}
		for _, prm := range bc.block.Params {
			id := p.Graph.NewNode(prm.Name)
			bs.vars[prm.Name] = id
			prm.SetBinding(id)
			bc.params = append(bc.params, id)
		}
		bc.scope = bs
	}

	for i, id := range bc.params {
		dep := p.nilNode
		if i < len(n.Args) {
			dep = p.nodeOf(n.Args[i])
		}
		if err := p.Graph.Bind(id, dep); err != nil {
			return err
		}
	}

	block := p.nodeOf(bc.block)
	if first {
		if err := v.with(bc.scope).visit(bc.block.Body); err != nil {
			return err
		}
		if err := p.Graph.Bind(block, v.nodeOrNil(bc.block.Body)); err != nil {
			return locate(err, bc.block)
		}
	}
	return v.bind(n, block)
}
