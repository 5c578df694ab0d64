package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/yumyai/locushunter/internal/config"
	"github.com/yumyai/locushunter/internal/util"
	"github.com/yumyai/locushunter/logger"
	"github.com/yumyai/locushunter/pkg/blast"
	"github.com/yumyai/locushunter/pkg/cdhit"
	"github.com/yumyai/locushunter/pkg/model"
	"github.com/yumyai/locushunter/pkg/pipeline"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const VERSION = "0.1.0"

const (
	exitFailure      = 1
	exitConfig       = 2
	exitCollaborator = 3
)

func main() {
	if err := logger.InitLogger(zapcore.InfoLevel, false); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	logger.Sync()
	os.Exit(code)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locushunter",
		Short: "Find gene loci homologous to query proteins and order them by gene content",
		Long: `locushunter searches query proteins against the CDS of every GenBank file in a
directory, extracts the surrounding loci, groups their genes into ortholog
families, and writes the loci ordered by similarity of their family content.

Outputs: <output>.gbk, <output>.html and <output>.tsv.`,
		Version:       VERSION,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.Flags())
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &model.ConfigError{Field: "flags", Reason: err.Error()}
	})
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// noArgs reports stray positional arguments as a configuration error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &model.ConfigError{Field: "arguments", Reason: err.Error()}
	}
	return nil
}

func run(ctx context.Context, flags *pflag.FlagSet) error {
	cfg, err := config.Load(flags, "")
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.LogLevel(), cfg.Debug); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Info("Start:", zap.String("Version", VERSION))

	workDir, cleanup, err := util.NewWorkDir(cfg.WorkDir, cfg.Debug)
	if err != nil {
		return err
	}
	defer cleanup()

	// One blastp thread per record search.
	search := blast.NewClient(workDir, 1)
	search.Blastp = cfg.BlastpBin
	search.Makeblastdb = cfg.MakeblastdbBin

	cluster := cdhit.NewClient(workDir, cfg.Threads)
	cluster.Bin = cfg.CdhitBin

	_, err = pipeline.New(cfg, search, cluster).Run(ctx)
	return err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var (
		cfgErr *model.ConfigError
		collab *model.CollaboratorError
	)
	switch {
	case errors.As(err, &cfgErr):
		logger.Error("Invalid configuration", zap.Error(err))
		return exitConfig
	case errors.As(err, &collab):
		logger.Error("External tool failed", zap.String("tool", collab.Tool), zap.Error(err))
		return exitCollaborator
	}
	logger.Error("Run failed", zap.Error(err))
	return exitFailure
}
