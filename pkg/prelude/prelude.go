// Package prelude loads the standard definitions every program starts
// with: the numeric tower, the Pointer and Array primitives and the
// embedded base definitions, followed by any extra definition files.
package prelude

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/vito/quartz/pkg/ast"
	"github.com/vito/quartz/pkg/config"
	"github.com/vito/quartz/pkg/infer"
)

// FileName is the name base definitions are reported under.
const FileName = "<prelude>"

//go:embed base.yml
var base string

// Source returns the embedded base definitions, so that errors pointing
// into them can be rendered.
func Source() string {
	return base
}

// Load declares everything user code may rely on. Extra files are
// inferred in order, after the built-in definitions.
func Load(ctx context.Context, p *infer.Program, cfg config.Config) error {
	if err := DefineNumeric(p, cfg.Numeric); err != nil {
		return err
	}
	if err := defineContainers(p, cfg.Numeric.IntLiteral); err != nil {
		return err
	}

	root, err := ast.Decode(FileName, []byte(base))
	if err != nil {
		return errors.Wrap(err, "decoding base definitions")
	}
	if err := p.Infer(ctx, root); err != nil {
		return err
	}

	for _, path := range cfg.PreludePaths() {
		slog.DebugContext(ctx, "loading prelude", "path", path)
		root, err := ast.DecodeFile(path)
		if err != nil {
			var syntax *ast.SyntaxError
			if errors.As(err, &syntax) {
				return err
			}
			return errors.Wrapf(err, "loading prelude %s", path)
		}
		if err := p.Infer(ctx, root); err != nil {
			return err
		}
	}
	return nil
}
