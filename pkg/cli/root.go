// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openshift/bpfman-snapshot/pkg/runner"
	"github.com/openshift/bpfman-snapshot/pkg/validate"
	"github.com/openshift/bpfman-snapshot/pkg/version"
)

// Exit codes. A mismatch is the tool's normal "found a problem"
// outcome and gets its own code, distinct from tool failure.
const (
	ExitValid   = 0
	ExitInvalid = 1
	ExitError   = 2
)

// options holds the dependencies shared by the commands. Tests swap
// the runner and logger for fakes.
type options struct {
	logLevel string
	log      *zap.Logger
	runner   runner.Runner
}

func (o *options) setup() error {
	if o.log == nil {
		lvl, err := zapcore.ParseLevel(o.logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", o.logLevel)
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		log, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		o.log = log
	}
	if o.runner == nil {
		o.runner = runner.NewExecRunner(o.log)
	}
	return nil
}

func newRootCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bpfman-snapshot",
		Short: "Check bpfman release snapshots for self-consistency",
		Long: `bpfman-snapshot checks that a Konflux release snapshot is
self-consistent: the operator, agent and daemon digests referenced
inside the bundle's manifests must match the component digests the
snapshot declares.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newListBundlesCommand(opts))

	return cmd
}

// exitCode maps a command result to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitValid
	case errors.Is(err, validate.ErrMismatch):
		return ExitInvalid
	}
	return ExitError
}

// Run executes the CLI and returns the process exit code.
func Run(args []string) int {
	opts := &options{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err != nil && !errors.Is(err, validate.ErrMismatch) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}
