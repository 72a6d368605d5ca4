package infer

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/macro"
)

// expansion is a memoized macro expansion. The tree's locations point
// into source, under the file name "<macro NAME>".
type expansion struct {
	tree   ast.Node
	source string
}

// expandMacro splices in the expansion of a macro call and types it in
// place of the call.
func (v *visitor) expandMacro(n *ast.Call, def *ast.MacroDef) error {
	p := v.p
	if p.expander == nil {
		return errors.Errorf("can't expand macro '%s': no macro expander configured", n.Name)
	}

	key, err := expansionKey(n)
	if err != nil {
		return err
	}
	exp, ok := p.expansions[key]
	if !ok {
		slog.DebugContext(v.ctx, "expanding macro", "macro", n.Name, "args", len(n.Args))
		tree, err := p.expander.Expand(v.ctx, macro.Request{
			Name:   n.Name,
			Params: def.Params,
			Args:   n.Args,
			Body:   def.Body,
		})
		if err != nil {
			return &MacroError{Located: Located{n.Loc}, Macro: n.Name, Err: err}
		}
		if exp, err = normalize(n.Name, tree); err != nil {
			return &MacroError{Located: Located{n.Loc}, Macro: n.Name, Err: err}
		}
		p.expansions[key] = exp
	}

	tree := ast.Clone(exp.tree)
	n.Expanded = tree
	if err := v.visit(tree); err != nil {
		return &MacroError{Located: Located{n.Loc}, Macro: n.Name, Expansion: exp.source, Err: err}
	}
	return v.bind(n, p.nodeOf(tree))
}

// normalize re-reads an expanded tree from its encoding so that its
// locations point at the text shown in diagnostics.
func normalize(name string, tree ast.Node) (*expansion, error) {
	src, err := ast.Encode(tree)
	if err != nil {
		return nil, errors.Wrap(err, "encoding expansion")
	}
	norm, err := ast.Decode("<macro "+name+">", src)
	if err != nil {
		return nil, err
	}
	return &expansion{tree: norm, source: string(src)}, nil
}

func expansionKey(n *ast.Call) (string, error) {
	var sb strings.Builder
	sb.WriteString(n.Name)
	for _, a := range n.Args {
		src, err := ast.Encode(a)
		if err != nil {
			return "", errors.Wrapf(err, "encoding argument of macro '%s'", n.Name)
		}
		sb.WriteByte(0)
		sb.Write(src)
	}
	return sb.String(), nil
}
