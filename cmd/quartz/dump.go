package main

import (
	"context"
	"errors"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/vito/quartz/pkg/compiler"
	"github.com/vito/quartz/pkg/infer"
	"github.com/vito/quartz/pkg/ioctx"
	"github.com/vito/quartz/pkg/types"
	"github.com/vito/quartz/pkg/unify"
)

func dumpCmd(flags *Flags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the typed tree and method table",
		Args:  cobra.ExactArgs(1),
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
			return dump(ctx, args[0], raw, opts...)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the method table as Go values")
	return cmd
}

func dump(ctx context.Context, path string, raw bool, opts ...compiler.Option) error {
	res, err := compiler.CompileFile(ctx, path, opts...)
	if err != nil {
		return errors.New(ioctx.Styled(ioctx.Stderr(ctx), infer.FormatError(err, compiler.Sources(path))))
	}
	out := ioctx.Stdout(ctx)
	if raw {
		_, err := pretty.Fprintf(out, "%# v\n", summarize(res))
		return err
	}
	return compiler.Dump(out, res)
}

// rawResult is the part of a compilation worth printing structurally.
type rawResult struct {
	Instances []rawInstance
	Unified   unify.Stats
}

type rawInstance struct {
	Mangled   string
	Signature string
	Owner     string
	Args      []string
	Free      map[string]string
	Return    string
	// Reachable is unset for instances no call resolves to any more, such
	// as those typed for a receiver that later widened.
	Reachable bool
}

func summarize(res *compiler.Result) rawResult {
	tab := res.Program.Types
	out := rawResult{Unified: res.Unified}
	reachable := map[*infer.Instance]bool{}
	for _, inst := range res.Program.Reachable() {
		reachable[inst] = true
	}
	for _, inst := range res.Instances() {
		ri := rawInstance{
			Mangled:   inst.Mangled(),
			Signature: inst.Signature(),
			Return:    tab.Name(inst.Type()),
			Reachable: reachable[inst],
		}
		if inst.Owner != types.None {
			ri.Owner = tab.Name(inst.Owner)
		}
		for _, a := range inst.Args {
			ri.Args = append(ri.Args, tab.Name(a))
		}
		if len(inst.Free) > 0 {
			ri.Free = make(map[string]string, len(inst.Free))
			for name, id := range inst.Free {
				ri.Free[name] = tab.Name(id)
			}
		}
		out.Instances = append(out.Instances, ri)
	}
	return out
}
