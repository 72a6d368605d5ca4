package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vito/quartz/pkg/compiler"
	"github.com/vito/quartz/pkg/infer"
	"github.com/vito/quartz/pkg/ioctx"
)

func checkCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Type check program trees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			opts, cleanup, err := compileOptions(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			return check(ctx, args, opts...)
		},
	}
}

// check compiles every file concurrently and reports each in argument
// order.
func check(ctx context.Context, paths []string, opts ...compiler.Option) error {
	errs := make([]error, len(paths))
	eg := new(errgroup.Group)
	for i, path := range paths {
		eg.Go(func() error {
			_, errs[i] = compiler.CompileFile(ctx, path, opts...)
			return nil
		})
	}
	_ = eg.Wait()

	out := ioctx.Stdout(ctx)
	failed := 0
	for i, path := range paths {
		if errs[i] == nil {
			report(out, "%s %s", okStyle.Render("ok"), path)
			continue
		}
		failed++
		report(out, "%s %s\n%s", errorStyle.Render("FAIL"), pathStyle.Render(path),
			infer.FormatError(errs[i], compiler.Sources(path)))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func report(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, ioctx.Styled(w, fmt.Sprintf(format, args...)))
}
