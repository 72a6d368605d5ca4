package overload

import (
	"strings"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/types"
)

// Signature is one overload candidate.
type Signature interface {
	Parameters() []*ast.Param
	// Owner is the type the candidate was declared on. Specificity
	// ordering resolves restrictions from there.
	Owner() types.ID
}

// Candidates is kept sorted so that a candidate comes before every
// candidate it is a restriction of. Incomparable candidates keep
// declaration order.
type Candidates []Signature

// Insert adds s in specificity order. A candidate with exactly the same
// restrictions as an existing one replaces it, like a method redefinition.
func (cs Candidates) Insert(tab *types.Table, r Resolver, s Signature) Candidates {
	for i, existing := range cs {
		if sameRestrictions(existing, s) {
			out := append(Candidates(nil), cs...)
			out[i] = s
			return out
		}
	}
	for i, existing := range cs {
		if IsRestrictionOf(tab, r, s, existing) && !IsRestrictionOf(tab, r, existing, s) {
			out := make(Candidates, 0, len(cs)+1)
			out = append(out, cs[:i]...)
			out = append(out, s)
			return append(out, cs[i:]...)
		}
	}
	return append(cs, s)
}

func sameRestrictions(a, b Signature) bool {
	pa, pb := a.Parameters(), b.Parameters()
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if restrictionString(pa[i]) != restrictionString(pb[i]) {
			return false
		}
	}
	return true
}

func restrictionString(p *ast.Param) string {
	if p.Restriction == nil {
		return ""
	}
	return p.Restriction.String()
}

// Describe renders a candidate for error messages, e.g. "foo(x : Int32, y)".
func Describe(name string, s Signature) string {
	params := s.Parameters()
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name
		if p.Restriction != nil {
			parts[i] += " : " + p.Restriction.String()
		}
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
