package ast

import (
	"fmt"
	"strings"
	"unicode"
)

// TypeExpr is a type as written in source: a restriction, a cast target or
// a foreign signature.
type TypeExpr interface {
	String() string
	typeExpr()
}

// TypeName is a possibly qualified, possibly generic type name.
type TypeName struct {
	Names []string
	Args  []TypeExpr
}

// TypeUnion is `A | B`.
type TypeUnion struct {
	Types []TypeExpr
}

// SelfType is the `self` restriction.
type SelfType struct{}

func (*TypeName) typeExpr()  {}
func (*TypeUnion) typeExpr() {}
func (*SelfType) typeExpr()  {}

func (t *TypeName) String() string {
	s := strings.Join(t.Names, "::")
	if len(t.Args) > 0 {
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		s += "(" + strings.Join(args, ", ") + ")"
	}
	return s
}

func (t *TypeUnion) String() string {
	parts := make([]string, len(t.Types))
	for i, m := range t.Types {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (*SelfType) String() string { return "self" }

// Name returns a single-segment type name, or "" for anything else.
func (t *TypeName) Name() string {
	if len(t.Names) == 1 && len(t.Args) == 0 {
		return t.Names[0]
	}
	return ""
}

// ParseType parses the textual form used in serialized trees, e.g.
// "Int32 | Nil", "Pointer(Char)" or "C::Point". A trailing "*" is short
// for Pointer, so "UInt8*" reads as "Pointer(UInt8)".
func ParseType(src string) (TypeExpr, error) {
	p := &typeParser{src: src}
	t, err := p.union()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q in type %q", p.src[p.pos:], src)
	}
	return t, nil
}

// MustParseType is ParseType for literals known to be valid.
func MustParseType(src string) TypeExpr {
	t, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) eat(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *typeParser) union() (TypeExpr, error) {
	first, err := p.term()
	if err != nil {
		return nil, err
	}
	types := []TypeExpr{first}
	for p.eat("|") {
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	if len(types) == 1 {
		return first, nil
	}
	return &TypeUnion{Types: types}, nil
}

func (p *typeParser) term() (TypeExpr, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if name == "self" {
		return &SelfType{}, nil
	}
	t := &TypeName{Names: []string{name}}
	for p.eat("::") {
		seg, err := p.ident()
		if err != nil {
			return nil, err
		}
		t.Names = append(t.Names, seg)
	}
	if p.eat("(") {
		for {
			arg, err := p.union()
			if err != nil {
				return nil, err
			}
			t.Args = append(t.Args, arg)
			if p.eat(")") {
				break
			}
			if !p.eat(",") {
				return nil, fmt.Errorf("expected ',' or ')' in type %q", p.src)
			}
		}
	}
	for p.eat("*") {
		t = &TypeName{Names: []string{"Pointer"}, Args: []TypeExpr{t}}
	}
	return t, nil
}

func (p *typeParser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return "", fmt.Errorf("expected a type name at offset %d in %q", start, p.src)
	}
	return p.src[start:p.pos], nil
}
