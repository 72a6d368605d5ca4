package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/quartz/pkg/compiler"
	"github.com/vito/quartz/pkg/ioctx"
	"github.com/vito/quartz/pkg/macro"
)

const (
	dispatchFile  = "../../pkg/compiler/testdata/dispatch.yml"
	undefinedFile = "../../pkg/compiler/testdata/undefined.yml"
	shapesFile    = "../../pkg/compiler/testdata/shapes.yml"
)

func testContext() (context.Context, *bytes.Buffer) {
	var out bytes.Buffer
	return ioctx.WithStreams(context.Background(), ioctx.Streams{Stdout: &out}), &out
}

func TestCheck(t *testing.T) {
	opts := []compiler.Option{compiler.WithExpander(macro.Substitute)}

	t.Run("passing", func(t *testing.T) {
		ctx, out := testContext()
		require.NoError(t, check(ctx, []string{dispatchFile, shapesFile}, opts...))
		assert.Equal(t, "ok "+dispatchFile+"\nok "+shapesFile+"\n", out.String())
	})

	t.Run("failing", func(t *testing.T) {
		ctx, out := testContext()
		err := check(ctx, []string{dispatchFile, undefinedFile}, opts...)
		require.EqualError(t, err, "1 of 2 files failed")
		assert.Contains(t, out.String(), "ok "+dispatchFile)
		assert.Contains(t, out.String(), "FAIL "+undefinedFile)
		assert.Contains(t, out.String(), "undefined local variable or method 'b'")
	})
}

func TestDump(t *testing.T) {
	t.Run("tree", func(t *testing.T) {
		ctx, out := testContext()
		require.NoError(t, dump(ctx, dispatchFile, false))
		assert.Contains(t, out.String(), "roots:")
		assert.Contains(t, out.String(), "table:")
	})

	t.Run("raw", func(t *testing.T) {
		ctx, out := testContext()
		require.NoError(t, dump(ctx, shapesFile, true))
		assert.Contains(t, out.String(), "Mangled:")
		assert.Contains(t, out.String(), "Unified:")
		assert.Contains(t, out.String(), "Reachable: true")
	})

	t.Run("error", func(t *testing.T) {
		ctx, _ := testContext()
		err := dump(ctx, undefinedFile, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "while instantiating 'foo()'")
	})
}
