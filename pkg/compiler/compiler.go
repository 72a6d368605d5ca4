// Package compiler runs the front end over one input tree: standard
// definitions, inference, then unification.
package compiler

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/config"
	"github.com/vito/quartz/pkg/infer"
	"github.com/vito/quartz/pkg/macro"
	"github.com/vito/quartz/pkg/prelude"
	"github.com/vito/quartz/pkg/unify"
)

const instrumentation = "github.com/vito/quartz/pkg/compiler"

// Result is a typed program, ready for code generation.
type Result struct {
	Program *infer.Program
	// Roots are the user trees, without the standard definitions.
	Roots []ast.Node
	// Unified summarizes the unification pass.
	Unified unify.Stats
}

// Instances returns every method instance, sorted by mangled name.
func (r *Result) Instances() []*infer.Instance {
	return r.Program.Instances()
}

type options struct {
	config   config.Config
	expander macro.Expander
}

// Option configures a compilation.
type Option func(*options)

// WithConfig sets the configuration. The default is config.Default().
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithExpander sets the macro expander.
func WithExpander(e macro.Expander) Option {
	return func(o *options) {
		o.expander = e
	}
}

// Compile types root. Errors from inference are returned as-is so that
// infer.FormatError can render them.
func Compile(ctx context.Context, root ast.Node, opts ...Option) (*Result, error) {
	o := options{config: config.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var popts []infer.Option
	if o.expander != nil {
		popts = append(popts, infer.WithExpander(o.expander))
	}
	p := infer.New(popts...)

	if err := phase(ctx, "prelude", func(ctx context.Context) error {
		return prelude.Load(ctx, p, o.config)
	}); err != nil {
		return nil, err
	}
	if err := phase(ctx, "infer", func(ctx context.Context) error {
		return p.Infer(ctx, root)
	}); err != nil {
		return nil, err
	}

	res := &Result{Program: p, Roots: []ast.Node{root}}
	if err := phase(ctx, "unify", func(ctx context.Context) error {
		res.Unified = unify.Program(ctx, p)
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("quartz.types.canonical", res.Unified.Canonical),
			attribute.Int("quartz.types.folded", res.Unified.Folded),
		)
		return ctx.Err()
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// CompileFile decodes and compiles a file.
func CompileFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	root, err := ast.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(ctx, root, opts...)
}

// Sources returns the texts error snippets may point into for a file: the
// file itself and the embedded standard definitions.
func Sources(path string) infer.Sources {
	sources := infer.Sources{prelude.FileName: prelude.Source()}
	if src, err := os.ReadFile(path); err == nil {
		sources[path] = string(src)
	}
	return sources
}

func phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := otel.Tracer(instrumentation).Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
