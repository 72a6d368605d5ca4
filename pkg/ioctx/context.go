// Package ioctx carries a command's output streams on its context.
package ioctx

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
)

type streamsKey struct{}

// Streams are the writers a command reports to.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Std returns the process's standard streams.
func Std() Streams {
	return Streams{Stdout: os.Stdout, Stderr: os.Stderr}
}

// WithStreams returns a context carrying s.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

// StreamsFrom returns the streams on ctx. Missing writers discard.
func StreamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)
	if s.Stdout == nil {
		s.Stdout = io.Discard
	}
	if s.Stderr == nil {
		s.Stderr = io.Discard
	}
	return s
}

// Stdout returns the output stream on ctx.
func Stdout(ctx context.Context) io.Writer {
	return StreamsFrom(ctx).Stdout
}

// Stderr returns the diagnostic stream on ctx.
func Stderr(ctx context.Context) io.Writer {
	return StreamsFrom(ctx).Stderr
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styled returns s unchanged when w is a terminal, and with escape
// sequences removed otherwise.
func Styled(w io.Writer, s string) string {
	if IsTerminal(w) {
		return s
	}
	return ansi.Strip(s)
}
