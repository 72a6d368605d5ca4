package ast

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// SyntaxError reports a malformed tree. Trees come from the parser or from
// macro expansion, so this is mostly seen for generated code.
type SyntaxError struct {
	Loc     *SourceLocation
	Message string
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Message
}

func (e *SyntaxError) GetSourceLocation() *SourceLocation {
	return e.Loc
}

// DecodeFile reads a serialized tree from disk.
func DecodeFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(path, data)
}

// Decode reads a tree serialized as YAML. Every node is a mapping with a
// `kind` key holding the snake_case kind name, plus the node's fields.
// Positions default to the mapping's position in the document and can be
// overridden with `line`, `column` and `length`.
func Decode(filename string, data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SyntaxError{
			Loc:     &SourceLocation{Filename: filename, Line: 1, Column: 1, Length: 1},
			Message: err.Error(),
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return &Nop{}, nil
	}
	d := &decoder{filename: filename}
	return d.node(doc.Content[0])
}

type decoder struct {
	filename string
}

func (d *decoder) errorf(y *yaml.Node, format string, args ...any) error {
	return &SyntaxError{
		Loc:     &SourceLocation{Filename: d.filename, Line: y.Line, Column: y.Column, Length: 1},
		Message: fmt.Sprintf(format, args...),
	}
}

func (d *decoder) node(y *yaml.Node) (Node, error) {
	if y.Kind == yaml.SequenceNode {
		body := &Expressions{Meta: Meta{Loc: d.loc(y, 1)}}
		for _, item := range y.Content {
			n, err := d.node(item)
			if err != nil {
				return nil, err
			}
			body.Body = append(body.Body, n)
		}
		return body, nil
	}
	if y.Kind != yaml.MappingNode {
		return nil, d.errorf(y, "expected a node mapping, got %q", y.Value)
	}
	fields := map[string]*yaml.Node{}
	var keys []string
	for i := 0; i+1 < len(y.Content); i += 2 {
		fields[y.Content[i].Value] = y.Content[i+1]
		keys = append(keys, y.Content[i].Value)
	}
	kindNode, ok := fields["kind"]
	if !ok {
		return nil, d.errorf(y, "node is missing a kind")
	}
	kind, ok := KindForTag(kindNode.Value)
	if !ok {
		return nil, d.errorf(kindNode, "unknown node kind %q", kindNode.Value)
	}
	n := New(kind)
	st := reflect.ValueOf(n).Elem()

	length := 1
	if name, ok := fields["name"]; ok && name.Kind == yaml.ScalarNode {
		length = max(1, len(name.Value))
	}
	loc := d.loc(y, length)
	for _, key := range []string{"line", "column", "length"} {
		f, ok := fields[key]
		if !ok {
			continue
		}
		var v int
		if err := f.Decode(&v); err != nil {
			return nil, d.errorf(f, "%s: %s", key, err)
		}
		switch key {
		case "line":
			loc.Line = v
		case "column":
			loc.Column = v
		case "length":
			loc.Length = v
		}
	}
	st.FieldByName("Loc").Set(reflect.ValueOf(loc))

	if err := d.fields(st, fields, keys, kind.String()); err != nil {
		return nil, err
	}
	return n, nil
}

func (d *decoder) loc(y *yaml.Node, length int) *SourceLocation {
	return &SourceLocation{Filename: d.filename, Line: y.Line, Column: y.Column, Length: length}
}

func (d *decoder) fields(st reflect.Value, fields map[string]*yaml.Node, keys []string, what string) error {
	known := map[string]bool{"kind": true, "line": true, "column": true, "length": true}
	for i := 0; i < st.NumField(); i++ {
		f := st.Type().Field(i)
		if !tagged(f) {
			continue
		}
		known[yamlName(f)] = true
		y, ok := fields[yamlName(f)]
		if !ok {
			continue
		}
		if err := d.value(st.Field(i), y); err != nil {
			return err
		}
	}
	for _, k := range keys {
		if !known[k] {
			return d.errorf(fields[k], "unknown field %q for %s", k, what)
		}
	}
	return nil
}

var (
	pathPtrType  = reflect.TypeFor[*Path]()
	varPtrType   = reflect.TypeFor[*Var]()
	paramPtrType = reflect.TypeFor[*Param]()
)

func (d *decoder) value(dst reflect.Value, y *yaml.Node) error {
	t := dst.Type()
	switch {
	case t == typeExprType:
		te, err := ParseType(y.Value)
		if err != nil {
			return d.errorf(y, "%s", err)
		}
		dst.Set(reflect.ValueOf(te))
	case t.Kind() == reflect.String && y.Kind == yaml.ScalarNode:
		dst.SetString(y.Value)
	case t == pathPtrType && y.Kind == yaml.ScalarNode:
		dst.Set(reflect.ValueOf(&Path{
			Meta:  Meta{Loc: d.loc(y, len(y.Value))},
			Names: strings.Split(y.Value, "::"),
		}))
	case t == varPtrType && y.Kind == yaml.ScalarNode:
		dst.Set(reflect.ValueOf(&Var{
			Meta: Meta{Loc: d.loc(y, len(y.Value))},
			Name: y.Value,
		}))
	case t == paramPtrType && y.Kind == yaml.ScalarNode:
		p, err := parseParam(y.Value)
		if err != nil {
			return d.errorf(y, "%s", err)
		}
		dst.Set(reflect.ValueOf(p))
	case t == nodeType || (t.Kind() == reflect.Pointer && t.Implements(nodeType)):
		n, err := d.node(y)
		if err != nil {
			return err
		}
		nv := reflect.ValueOf(n)
		if !nv.Type().AssignableTo(t) {
			return d.errorf(y, "expected %s, got %s", strings.TrimPrefix(t.String(), "*ast."), n.Kind())
		}
		dst.Set(nv)
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		if y.Kind != yaml.MappingNode {
			return d.errorf(y, "expected a mapping")
		}
		fields := map[string]*yaml.Node{}
		var keys []string
		for i := 0; i+1 < len(y.Content); i += 2 {
			fields[y.Content[i].Value] = y.Content[i+1]
			keys = append(keys, y.Content[i].Value)
		}
		out := reflect.New(t.Elem())
		if err := d.fields(out.Elem(), fields, keys, t.Elem().Name()); err != nil {
			return err
		}
		dst.Set(out)
	case t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.String:
		if y.Kind != yaml.SequenceNode {
			return d.errorf(y, "expected a list")
		}
		out := reflect.MakeSlice(t, len(y.Content), len(y.Content))
		for i, item := range y.Content {
			if err := d.value(out.Index(i), item); err != nil {
				return err
			}
		}
		dst.Set(out)
	default:
		if err := y.Decode(dst.Addr().Interface()); err != nil {
			return d.errorf(y, "%s", err)
		}
	}
	return nil
}

// parseParam reads the "name", "name : Type" or "out name : Type"
// shorthand.
func parseParam(src string) (*Param, error) {
	name, restriction, found := strings.Cut(src, ":")
	p := &Param{Name: strings.TrimSpace(name)}
	if rest, ok := strings.CutPrefix(p.Name, "out "); ok {
		p.Name = strings.TrimSpace(rest)
		p.Out = true
	}
	if found {
		te, err := ParseType(strings.TrimSpace(restriction))
		if err != nil {
			return nil, err
		}
		p.Restriction = te
	}
	return p, nil
}
