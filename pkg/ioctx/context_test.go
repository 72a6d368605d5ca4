package ioctx

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreams(t *testing.T) {
	t.Run("defaults discard", func(t *testing.T) {
		s := StreamsFrom(context.Background())
		assert.Equal(t, io.Discard, s.Stdout)
		assert.Equal(t, io.Discard, s.Stderr)
	})

	t.Run("round trip", func(t *testing.T) {
		var out, errs bytes.Buffer
		ctx := WithStreams(context.Background(), Streams{Stdout: &out, Stderr: &errs})
		_, _ = io.WriteString(Stdout(ctx), "ok")
		_, _ = io.WriteString(Stderr(ctx), "bad")
		assert.Equal(t, "ok", out.String())
		assert.Equal(t, "bad", errs.String())
	})

	t.Run("partial", func(t *testing.T) {
		var out bytes.Buffer
		ctx := WithStreams(context.Background(), Streams{Stdout: &out})
		assert.Equal(t, io.Discard, Stderr(ctx))
	})
}

func TestStyled(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))
	assert.Equal(t, "Error: boom", Styled(&buf, "\x1b[1;31mError\x1b[0m: boom"))
}
