// Package macro expands macro calls into syntax trees.
//
// A macro call is handed to an Expander together with its arguments as
// unevaluated trees. The expander returns a replacement tree, which the
// inference driver splices in place of the call and types like any other
// code.
package macro

import (
	"context"
	"fmt"

	"github.com/vito/quartz/pkg/ast"
)

// Request is one macro invocation.
type Request struct {
	Name   string
	Params []string
	Args   []ast.Node
	Body   ast.Node
}

// Expander turns a macro invocation into source.
type Expander interface {
	Expand(ctx context.Context, req Request) (ast.Node, error)
}

// Func adapts a function to Expander.
type Func func(ctx context.Context, req Request) (ast.Node, error)

func (f Func) Expand(ctx context.Context, req Request) (ast.Node, error) {
	return f(ctx, req)
}

// Substitute is an Expander that needs no external process: it replaces
// each parameter in the macro body with the matching argument tree.
var Substitute = Func(func(ctx context.Context, req Request) (ast.Node, error) {
	if len(req.Args) != len(req.Params) {
		return nil, fmt.Errorf("wrong number of arguments for macro '%s' (%d for %d)", req.Name, len(req.Args), len(req.Params))
	}
	if req.Body == nil {
		return &ast.NilLiteral{}, nil
	}
	args := make(map[string]ast.Node, len(req.Params))
	for i, p := range req.Params {
		args[p] = req.Args[i]
	}
	return substitute(ast.Clone(req.Body), args), nil
})

func substitute(n ast.Node, args map[string]ast.Node) ast.Node {
	if v, ok := n.(*ast.Var); ok {
		if arg, ok := args[v.Name]; ok {
			return ast.Clone(arg)
		}
		return v
	}
	ast.Replace(n, func(child ast.Node) ast.Node {
		return substitute(child, args)
	})
	return n
}
