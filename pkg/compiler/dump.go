package compiler

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/infer"
)

// Dump writes the typed program: every user tree with each node's type,
// then the body of every method instance, then the instance table. The
// output only depends on the input trees.
func Dump(w io.Writer, r *Result) error {
	d := &dumper{p: r.Program}
	d.section("roots")
	for _, root := range r.Roots {
		d.node(root, 1)
	}
	d.section("instances")
	for _, inst := range r.Instances() {
		if inst.Body == nil {
			continue
		}
		d.line(1, "%s", inst.Mangled())
		d.node(inst.Body, 2)
	}
	d.section("table")
	for _, inst := range r.Instances() {
		d.line(1, "%s", inst.Mangled())
	}
	_, err := io.WriteString(w, d.out.String())
	return err
}

type dumper struct {
	p   *infer.Program
	out strings.Builder
}

func (d *dumper) section(name string) {
	if d.out.Len() > 0 {
		d.out.WriteByte('\n')
	}
	fmt.Fprintf(&d.out, "%s:\n", name)
}

func (d *dumper) line(depth int, format string, args ...any) {
	d.out.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&d.out, format, args...)
	d.out.WriteByte('\n')
}

func (d *dumper) node(n ast.Node, depth int) {
	tab := d.p.Types
	head := label(n)
	if n.Binding() != 0 {
		head += " : " + tab.Name(d.p.TypeOf(n))
	}
	call, isCall := n.(*ast.Call)
	if isCall {
		for _, t := range call.Targets {
			if inst, ok := t.(*infer.Instance); ok {
				head += " -> " + inst.Mangled()
			}
		}
	}
	d.line(depth, "%s", head)

	switch n.(type) {
	case *ast.Def, *ast.MacroDef:
		return
	}
	for _, c := range ast.Children(n) {
		d.node(c, depth+1)
	}
	if !isCall {
		return
	}
	if call.Expanded != nil {
		d.line(depth+1, "expanded:")
		d.node(call.Expanded, depth+2)
	}
	if dispatch, ok := infer.Dispatches(call); ok {
		d.line(depth+1, "%s : %s", dispatch.Signature(), tab.Name(d.p.Graph.Type(dispatch.Node)))
		for _, sub := range dispatch.Subcalls {
			d.node(sub, depth+2)
		}
	}
}

func label(n ast.Node) string {
	tag := n.Kind().Tag()
	switch x := n.(type) {
	case *ast.BoolLiteral:
		return tag + " " + strconv.FormatBool(x.Value)
	case *ast.IntLiteral:
		return tag + " " + x.Value + x.Suffix
	case *ast.FloatLiteral:
		return tag + " " + x.Value + x.Suffix
	case *ast.CharLiteral:
		return tag + " " + strconv.Quote(x.Value)
	case *ast.StringLiteral:
		return tag + " " + strconv.Quote(x.Value)
	case *ast.SymbolLiteral:
		return tag + " :" + x.Value
	case *ast.Var:
		return tag + " " + x.Name
	case *ast.InstanceVar:
		return tag + " @" + x.Name
	case *ast.ClassVar:
		return tag + " @@" + x.Name
	case *ast.Global:
		return tag + " $" + x.Name
	case *ast.Path:
		return tag + " " + strings.Join(x.Names, "::")
	case *ast.Call:
		return tag + " " + x.Name
	case *ast.Def:
		return tag + " " + x.Name
	case *ast.ClassDef:
		return tag + " " + x.Name
	case *ast.ModuleDef:
		return tag + " " + x.Name
	case *ast.MacroDef:
		return tag + " " + x.Name
	case *ast.LibDef:
		return tag + " " + x.Name
	case *ast.FunDef:
		return tag + " " + x.Name
	case *ast.StructDef:
		return tag + " " + x.Name
	case *ast.IsA:
		return tag + " " + x.Type.String()
	case *ast.RespondsTo:
		return tag + " :" + x.Name
	}
	return tag
}
