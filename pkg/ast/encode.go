package ast

import (
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Encode serializes a tree in the format read by Decode. Locations and
// inference results are omitted.
func Encode(n Node) ([]byte, error) {
	return yaml.Marshal(encodeNode(n))
}

func encodeNode(n Node) *yaml.Node {
	out := &yaml.Node{Kind: yaml.MappingNode}
	out.Content = append(out.Content, scalar("kind"), scalar(n.Kind().Tag()))
	encodeFields(out, reflect.ValueOf(n).Elem())
	return out
}

func encodeFields(out *yaml.Node, st reflect.Value) {
	for i := 0; i < st.NumField(); i++ {
		f := st.Type().Field(i)
		if !tagged(f) || st.Field(i).IsZero() {
			continue
		}
		if v := encodeValue(st.Field(i)); v != nil {
			out.Content = append(out.Content, scalar(yamlName(f)), v)
		}
	}
}

func encodeValue(v reflect.Value) *yaml.Node {
	switch {
	case v.Type() == typeExprType:
		return scalar(v.Interface().(TypeExpr).String())
	case v.Type() == nodeType || (v.Kind() == reflect.Pointer && v.Type().Implements(nodeType)):
		return encodeNode(v.Interface().(Node))
	case v.Kind() == reflect.Pointer:
		out := &yaml.Node{Kind: yaml.MappingNode}
		encodeFields(out, v.Elem())
		return out
	case v.Kind() == reflect.Slice:
		out := &yaml.Node{Kind: yaml.SequenceNode}
		for j := 0; j < v.Len(); j++ {
			out.Content = append(out.Content, encodeValue(v.Index(j)))
		}
		return out
	case v.Kind() == reflect.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool())}
	case v.Kind() == reflect.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.String()}
	}
	return nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
