package infer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/graph"
)

// Located is embedded in every error raised by inference. An error raised
// without a location picks up the location of the innermost node being
// visited when it unwinds.
type Located struct {
	Loc *ast.SourceLocation
}

func (l *Located) GetSourceLocation() *ast.SourceLocation { return l.Loc }

func (l *Located) locate(loc *ast.SourceLocation) {
	if l.Loc == nil {
		l.Loc = loc
	}
}

type locatable interface {
	ast.SourceLocatable
	locate(*ast.SourceLocation)
}

// UndefinedError reports a local, method, constant or instance variable
// that does not resolve.
type UndefinedError struct {
	Located
	Message string
	// Method is the method whose body contained the reference, if any.
	Method string
}

func (e *UndefinedError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s (in '%s')", e.Message, e.Method)
	}
	return e.Message
}

// ArityError reports a call whose argument count matches no overload of an
// otherwise known name.
type ArityError struct {
	Located
	Name     string
	Given    int
	Expected []int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("wrong number of arguments for '%s' (%d for %s)", e.Name, e.Given, arities(e.Expected))
}

func arities(ns []int) string {
	if len(ns) == 0 {
		return "0"
	}
	contiguous := true
	for i := 1; i < len(ns); i++ {
		if ns[i] != ns[i-1]+1 {
			contiguous = false
		}
	}
	if contiguous && len(ns) > 1 {
		return fmt.Sprintf("%d..%d", ns[0], ns[len(ns)-1])
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// OverloadError reports that no candidate applies, that block expectations
// do not match, or that some concrete argument combination of a union call
// is left unhandled.
type OverloadError struct {
	Located
	Message string
	// Overloads describes every candidate considered.
	Overloads []string
	// Missing lists the argument combinations no candidate covers.
	Missing []string
}

func (e *OverloadError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if len(e.Overloads) > 0 {
		sb.WriteString("\nOverloads are:")
		for _, o := range e.Overloads {
			sb.WriteString("\n - ")
			sb.WriteString(o)
		}
	}
	if len(e.Missing) > 0 {
		sb.WriteString("\nNo overload handles:")
		for _, m := range e.Missing {
			sb.WriteString("\n - (")
			sb.WriteString(m)
			sb.WriteString(")")
		}
	}
	return sb.String()
}

// TypeMismatchError reports a value whose type is incompatible with a
// foreign or primitive signature.
type TypeMismatchError struct {
	Located
	Message string
}

func (e *TypeMismatchError) Error() string {
	return e.Message
}

// FrozenTypeError reports an attempt to widen a node whose type was fixed
// by a declaration.
type FrozenTypeError struct {
	Located
	Err *graph.FrozenTypeError
}

func (e *FrozenTypeError) Error() string { return e.Err.Error() }
func (e *FrozenTypeError) Unwrap() error { return e.Err }

// InstantiationError is one frame of the causal chain: Err happened while
// typing the body of Signature for a call at Loc.
type InstantiationError struct {
	Located
	Signature string
	Err       error
}

func (e *InstantiationError) Error() string {
	return e.Err.Error() + "\n  while instantiating '" + e.Signature + "'"
}

func (e *InstantiationError) Unwrap() error { return e.Err }

// MacroError wraps an error raised while typing the expansion of a macro
// call at Loc.
type MacroError struct {
	Located
	Macro string
	// Expansion is the generated tree, encoded, when expansion succeeded.
	Expansion string
	Err       error
}

func (e *MacroError) Error() string {
	return e.Err.Error() + "\n  in expansion of macro '" + e.Macro + "'"
}

func (e *MacroError) Unwrap() error { return e.Err }

// InferError attaches a location to an error that has none of its own.
type InferError struct {
	Located
	Err error
}

func (e *InferError) Error() string { return e.Err.Error() }
func (e *InferError) Unwrap() error { return e.Err }

// locate makes sure err carries a source location, using the node's when
// the error has none.
func locate(err error, n ast.SourceLocatable) error {
	if err == nil {
		return nil
	}
	var loc *ast.SourceLocation
	if n != nil {
		loc = n.GetSourceLocation()
	}
	var l locatable
	if errors.As(err, &l) {
		l.locate(loc)
		return err
	}
	var syntax *ast.SyntaxError
	if errors.As(err, &syntax) {
		return err
	}
	var frozen *graph.FrozenTypeError
	if errors.As(err, &frozen) {
		return &FrozenTypeError{Located: Located{loc}, Err: frozen}
	}
	if loc == nil {
		return err
	}
	return &InferError{Located: Located{loc}, Err: err}
}
