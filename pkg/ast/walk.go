package ast

import (
	"reflect"
)

var (
	nodeType     = reflect.TypeFor[Node]()
	typeExprType = reflect.TypeFor[TypeExpr]()
)

// Children returns the direct child nodes of n in field order.
func Children(n Node) []Node {
	var out []Node
	eachChild(reflect.ValueOf(n).Elem(), func(c Node) {
		out = append(out, c)
	})
	return out
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

func tagged(f reflect.StructField) bool {
	if f.Anonymous {
		return false
	}
	tag := f.Tag.Get("yaml")
	return tag != "" && tag != "-"
}

func yamlName(f reflect.StructField) string {
	return f.Tag.Get("yaml")
}

func eachChild(st reflect.Value, fn func(Node)) {
	for i := 0; i < st.NumField(); i++ {
		if !tagged(st.Type().Field(i)) {
			continue
		}
		eachChildValue(st.Field(i), fn)
	}
}

func eachChildValue(v reflect.Value, fn func(Node)) {
	switch {
	case v.Type() == typeExprType:
	case v.Type() == nodeType || (v.Kind() == reflect.Pointer && v.Type().Implements(nodeType)):
		if !v.IsNil() {
			fn(v.Interface().(Node))
		}
	case v.Kind() == reflect.Pointer && v.Type().Elem().Kind() == reflect.Struct:
		if !v.IsNil() {
			eachChild(v.Elem(), fn)
		}
	case v.Kind() == reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			eachChildValue(v.Index(j), fn)
		}
	}
}

// Clone deep-copies a tree. Source locations are shared; graph bindings
// and inference results are not copied, so the clone can be typed afresh.
func Clone[N Node](n N) N {
	if any(n) == nil {
		return n
	}
	v := reflect.ValueOf(n)
	if v.IsNil() {
		return n
	}
	return cloneValue(v).Interface().(N)
}

func cloneValue(v reflect.Value) reflect.Value {
	switch {
	case v.Type() == typeExprType:
		return v
	case v.Kind() == reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneValue(v.Elem()))
		return out
	case v.Kind() == reflect.Pointer && v.Type().Elem().Kind() == reflect.Struct:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		src, dst := v.Elem(), out.Elem()
		if v.Type().Implements(nodeType) {
			dst.FieldByName("Loc").Set(src.FieldByName("Loc"))
		}
		for i := 0; i < src.NumField(); i++ {
			if tagged(src.Type().Field(i)) {
				dst.Field(i).Set(cloneValue(src.Field(i)))
			}
		}
		return out
	case v.Kind() == reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for j := 0; j < v.Len(); j++ {
			out.Index(j).Set(cloneValue(v.Index(j)))
		}
		return out
	}
	return v
}

// Replace sets each direct child of n to fn's result. A child held in a
// concretely typed field, like a block parameter, keeps its value when fn
// returns a node of another type.
func Replace(n Node, fn func(Node) Node) {
	replaceFields(reflect.ValueOf(n).Elem(), fn)
}

func replaceFields(st reflect.Value, fn func(Node) Node) {
	for i := 0; i < st.NumField(); i++ {
		if tagged(st.Type().Field(i)) {
			replaceValue(st.Field(i), fn)
		}
	}
}

func replaceValue(v reflect.Value, fn func(Node) Node) {
	switch {
	case v.Type() == typeExprType:
	case v.Type() == nodeType || (v.Kind() == reflect.Pointer && v.Type().Implements(nodeType)):
		if v.IsNil() {
			return
		}
		out := fn(v.Interface().(Node))
		if out == nil {
			return
		}
		if ov := reflect.ValueOf(out); ov.Type().AssignableTo(v.Type()) {
			v.Set(ov)
		}
	case v.Kind() == reflect.Pointer && v.Type().Elem().Kind() == reflect.Struct:
		if !v.IsNil() {
			replaceFields(v.Elem(), fn)
		}
	case v.Kind() == reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			replaceValue(v.Index(j), fn)
		}
	}
}
