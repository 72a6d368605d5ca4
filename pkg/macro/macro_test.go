package macro

import (
	"context"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/quartz/pkg/ast"
)

func TestSubstitute(t *testing.T) {
	body := ast.NewCall(ast.NewVar("a"), "+", ast.NewVar("b"))
	req := Request{
		Name:   "add",
		Params: []string{"a", "b"},
		Args:   []ast.Node{ast.NewInt("1"), ast.NewFloat("2.5")},
		Body:   body,
	}

	out, err := Substitute.Expand(context.Background(), req)
	require.NoError(t, err)
	call, ok := out.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "1", call.Obj.(*ast.IntLiteral).Value)
	assert.Equal(t, "2.5", call.Args[0].(*ast.FloatLiteral).Value)

	t.Run("leaves the definition alone", func(t *testing.T) {
		assert.Equal(t, "a", body.Obj.(*ast.Var).Name)
	})

	t.Run("arity", func(t *testing.T) {
		req.Args = req.Args[:1]
		_, err := Substitute.Expand(context.Background(), req)
		assert.ErrorContains(t, err, "wrong number of arguments for macro 'add' (1 for 2)")
	})
}

// twice answers every expansion with an array holding the first argument
// twice.
func twice(ctx context.Context, req WireRequest) (WireResponse, error) {
	arg, err := ast.Decode("arg", []byte(req.Args[0]))
	if err != nil {
		return WireResponse{}, err
	}
	src, err := ast.Encode(&ast.ArrayLiteral{Elements: []ast.Node{arg, ast.Clone(arg)}})
	if err != nil {
		return WireResponse{}, err
	}
	return WireResponse{Source: string(src)}, nil
}

func TestClient(t *testing.T) {
	cch, sch := channel.Direct()
	srv := jrpc2.NewServer(handler.Map{
		ExpandMethod: handler.New(twice),
	}, nil).Start(sch)
	defer srv.Stop()

	c := NewClient(cch)
	defer c.Close()

	out, err := c.Expand(context.Background(), Request{
		Name:   "twice",
		Params: []string{"x"},
		Args:   []ast.Node{&ast.SymbolLiteral{Value: "hi"}},
	})
	require.NoError(t, err)

	arr, ok := out.(*ast.ArrayLiteral)
	require.True(t, ok)
	require.Len(t, arr.Elements, 2)
	for _, e := range arr.Elements {
		assert.Equal(t, "hi", e.(*ast.SymbolLiteral).Value)
	}
	assert.Equal(t, "<macro twice>", arr.GetSourceLocation().Filename)
}
