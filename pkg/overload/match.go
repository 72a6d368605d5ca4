package overload

import (
	"slices"

	"github.com/vito/quartz/pkg/types"
)

// Match is an applicable candidate with its parameters' narrowed types.
type Match struct {
	Signature Signature
	ArgTypes  []types.ID
	Free      Bindings
}

// Matches is the result of matching a call against a candidate list.
type Matches struct {
	List []Match
	// Cover is set when some argument is a union or hierarchy.
	Cover *Cover
}

// Found reports whether resolution succeeded: at least one match, and a
// complete cover for union arguments.
func (m Matches) Found() bool {
	if len(m.List) == 0 {
		return false
	}
	return m.Cover == nil || m.Cover.All()
}

// Branches reports whether the call needs per-member dispatch, i.e. the
// most specific match does not accept the argument types whole.
func (m Matches) Branches(args []types.ID) bool {
	if len(m.List) == 0 {
		return false
	}
	return !slices.Equal(m.List[0].ArgTypes, args)
}

// Resolve matches argument types against the sorted candidates, resolving
// restrictions as seen from the receiver type. With concrete arguments only
// the most specific match is returned; with union arguments every match is
// kept and marked on a cover.
func Resolve(tab *types.Table, r Resolver, cands Candidates, receiver types.ID, args []types.ID) Matches {
	var res Matches
	union := false
	for _, a := range args {
		switch tab.KindOf(a) {
		case types.KindUnion, types.KindHierarchy:
			union = true
		}
	}
	for _, c := range cands {
		m, ok := match(tab, r, c, receiver, args)
		if !ok {
			continue
		}
		res.List = append(res.List, m)
		if !union {
			return res
		}
	}
	if union {
		res.Cover = NewCover(tab, args)
		for _, m := range res.List {
			res.Cover.Mark(m.ArgTypes)
		}
	}
	return res
}

func match(tab *types.Table, r Resolver, s Signature, receiver types.ID, args []types.ID) (Match, bool) {
	params := s.Parameters()
	if len(params) < len(args) {
		return Match{}, false
	}
	m := Match{Signature: s, ArgTypes: make([]types.ID, len(args)), Free: Bindings{}}
	for i, a := range args {
		got := Restrict(tab, r, receiver, a, params[i].Restriction, m.Free)
		if got == types.None {
			return Match{}, false
		}
		m.ArgTypes[i] = got
	}
	return m, true
}
