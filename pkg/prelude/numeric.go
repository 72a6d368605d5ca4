package prelude

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/config"
	"github.com/vito/quartz/pkg/infer"
	"github.com/vito/quartz/pkg/types"
)

var (
	arithmetic  = []string{"+", "-", "*", "/"}
	comparisons = []string{"<", "<=", ">", ">="}
)

// DefineNumeric declares one primitive per numeric kind and sets the
// literal kinds. Every pair of kinds gets the arithmetic operators, typed
// by the tower's promotion rule, and the comparisons. Each kind converts
// to every other through to_<kind>.
func DefineNumeric(p *infer.Program, n config.Numeric) error {
	tab := p.Types
	ids := make(map[string]types.ID, len(n.Kinds))
	for _, k := range n.Kinds {
		if _, ok := tab.Lookup(k.Name); ok {
			return errors.Errorf("numeric kind %s is already defined", k.Name)
		}
		ids[k.Name] = tab.DefinePrimitive(k.Name, k.Size, tab.Numeric, &types.Numeric{
			Float:  k.Float,
			Signed: k.Signed,
		})
	}
	intKind, ok := ids[n.IntLiteral]
	if !ok {
		return errors.Errorf("integer literal kind %s is not declared", n.IntLiteral)
	}
	floatKind, ok := ids[n.FloatLiteral]
	if !ok {
		return errors.Errorf("float literal kind %s is not declared", n.FloatLiteral)
	}
	p.SetLiteralKinds(intKind, floatKind)

	for _, l := range n.Kinds {
		owner := ids[l.Name]
		for _, r := range n.Kinds {
			other := ast.NewParam("other", typeName(r.Name))
			result := typeName(n.Promote(l.Name, r.Name))
			for _, op := range arithmetic {
				p.AddMethod(owner, ast.NewPrimitiveDef(op, result, other))
			}
			for _, op := range comparisons {
				p.AddMethod(owner, ast.NewPrimitiveDef(op, typeName("Bool"), other))
			}
			p.AddMethod(owner, ast.NewPrimitiveDef("to_"+strings.ToLower(r.Name), typeName(r.Name)))
		}
		if l.Signed {
			p.AddMethod(owner, ast.NewPrimitiveDef("-", &ast.SelfType{}))
		}
	}
	return nil
}

// defineContainers declares the Pointer and Array primitives. Sizes and
// indices are of the integer literal kind.
func defineContainers(p *infer.Program, intKind string) error {
	tab := p.Types
	if _, ok := tab.Lookup(intKind); !ok {
		return errors.Errorf("integer literal kind %s is not declared", intKind)
	}
	size := typeName(intKind)
	elem := typeName("T")
	self := &ast.SelfType{}

	p.AddMethod(tab.MetaclassOf(tab.Pointer), ast.NewPrimitiveDef("malloc", self, ast.NewParam("size", size)))
	for _, def := range []*ast.Def{
		ast.NewPrimitiveDef("value", elem),
		ast.NewPrimitiveDef("value=", elem, ast.NewParam("value", elem)),
		ast.NewPrimitiveDef("+", self, ast.NewParam("offset", size)),
		ast.NewPrimitiveDef("realloc", self, ast.NewParam("size", size)),
		ast.NewPrimitiveDef("[]", elem, ast.NewParam("index", size)),
		ast.NewPrimitiveDef("[]=", elem, ast.NewParam("index", size), ast.NewParam("value", elem)),
	} {
		p.AddMethod(tab.Pointer, def)
	}

	for _, def := range []*ast.Def{
		ast.NewPrimitiveDef("size", size),
		ast.NewPrimitiveDef("[]", elem, ast.NewParam("index", size)),
		ast.NewPrimitiveDef("[]=", elem, ast.NewParam("index", size), ast.NewParam("value", elem)),
		ast.NewPrimitiveDef("push", self, ast.NewParam("value", elem)),
		ast.NewPrimitiveDef("<<", self, ast.NewParam("value", elem)),
	} {
		p.AddMethod(tab.Array, def)
	}
	return nil
}

func typeName(name string) ast.TypeExpr {
	return &ast.TypeName{Names: []string{name}}
}
