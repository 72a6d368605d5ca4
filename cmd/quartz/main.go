package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/vito/quartz/pkg/compiler"
	"github.com/vito/quartz/pkg/config"
	"github.com/vito/quartz/pkg/ioctx"
	"github.com/vito/quartz/pkg/macro"
)

// Flags holds the global flags.
type Flags struct {
	Debug  bool
	Config string
}

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	pathStyle  = lipgloss.NewStyle().Bold(true)
)

func main() {
	var flags Flags

	rootCmd := &cobra.Command{
		Use:   "quartz",
		Short: "Type inference for quartz programs",
		Long: `Quartz types normalized program trees: it infers the type of every
expression, instantiates methods per argument types, and reports the
resulting method table.`,
		Example: `  # Type check programs
  quartz check main.yml lib.yml

  # Print the typed tree and method table
  quartz dump main.yml

  # Use an explicit configuration
  quartz -c ./quartz.toml dump main.yml`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&flags.Config, "config", "c", "", "Path to quartz.toml (searched for by default)")

	rootCmd.AddCommand(checkCmd(&flags), dumpCmd(&flags))

	ctx := ioctx.WithStreams(context.Background(), ioctx.Std())
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, ioctx.Styled(w, errorStyle.Render(err.Error())))
		}),
	); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger.
func setup(ctx context.Context, flags *Flags) (config.Config, error) {
	var cfg config.Config
	var err error
	if flags.Config != "" {
		cfg, err = config.Load(flags.Config)
	} else {
		cfg, err = config.Find(".")
	}
	if err != nil {
		return cfg, err
	}

	level := cfg.LogLevel()
	if flags.Debug {
		level = slog.LevelDebug
	}
	stderr := ioctx.Stderr(ctx)
	slog.SetDefault(slog.New(tint.NewHandler(stderr, &tint.Options{
		Level:   level,
		NoColor: !ioctx.IsTerminal(stderr),
	})))
	slog.DebugContext(ctx, "loaded config", "dir", cfg.Dir, "kinds", len(cfg.Numeric.Kinds))
	return cfg, nil
}

// compileOptions picks the macro expander: the configured server, or
// in-process substitution.
func compileOptions(ctx context.Context, cfg config.Config) ([]compiler.Option, func(), error) {
	opts := []compiler.Option{compiler.WithConfig(cfg)}
	if len(cfg.Macros.Command) == 0 {
		return append(opts, compiler.WithExpander(macro.Substitute)), func() {}, nil
	}
	client, err := macro.Start(ctx, cfg.Macros.Command)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			slog.WarnContext(ctx, "stopping macro server", "err", err)
		}
	}
	return append(opts, compiler.WithExpander(client)), cleanup, nil
}
