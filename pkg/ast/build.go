package ast

// Constructors for trees built in code, mostly by the standard
// definitions loader and by tests.

func NewExpressions(body ...Node) *Expressions {
	return &Expressions{Body: body}
}

func NewVar(name string) *Var {
	return &Var{Name: name}
}

func NewInt(v string) *IntLiteral {
	return &IntLiteral{Value: v}
}

func NewFloat(v string) *FloatLiteral {
	return &FloatLiteral{Value: v}
}

func NewAssign(target, value Node) *Assign {
	return &Assign{Target: target, Value: value}
}

func NewCall(obj Node, name string, args ...Node) *Call {
	return &Call{Obj: obj, Name: name, Args: args}
}

func NewPath(names ...string) *Path {
	return &Path{Names: names}
}

func NewParam(name string, restriction TypeExpr) *Param {
	return &Param{Name: name, Restriction: restriction}
}

func NewDef(name string, params []*Param, body Node) *Def {
	return &Def{Name: name, Params: params, Body: body}
}

// NewPrimitiveDef declares a built-in method whose body is opaque and
// whose type is ret.
func NewPrimitiveDef(name string, ret TypeExpr, params ...*Param) *Def {
	return &Def{Name: name, Params: params, Return: ret, Body: &Primitive{Name: name}}
}
