package types

// Filter narrows a type, as done for the then-branch of `if x.is_a?(T)`.
type Filter interface {
	Apply(t *Table, id ID) ID
	String() string
}

// IsA narrows to the part of a type that is a Target.
type IsA struct {
	Target ID
	Label  string
}

func (f IsA) Apply(t *Table, id ID) ID {
	return t.Restrict(id, f.Target)
}

func (f IsA) String() string {
	return "is_a?(" + f.Label + ")"
}

// NotNil narrows to the truthy part of a type.
type NotNil struct{}

func (NotNil) Apply(t *Table, id ID) ID {
	return t.Without(id, t.Nil)
}

func (NotNil) String() string {
	return "not_nil"
}
