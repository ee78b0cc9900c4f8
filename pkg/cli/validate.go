// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openshift/bpfman-snapshot/pkg/bundle"
	"github.com/openshift/bpfman-snapshot/pkg/snapshot"
	"github.com/openshift/bpfman-snapshot/pkg/stream"
	"github.com/openshift/bpfman-snapshot/pkg/validate"
)

const defaultNamespace = "ocp-bpfman-tenant"

func newValidateCommand(opts *options) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "validate SNAPSHOT",
		Short: "Validate that a snapshot's bundle references match its components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), opts, args[0], namespace, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", defaultNamespace, "Namespace the snapshot lives in")

	return cmd
}

func runValidate(ctx context.Context, opts *options, name, namespace string, out io.Writer) error {
	s, err := stream.Detect(name)
	if err != nil {
		return err
	}
	opts.log.Debug("detected stream", zap.String("snapshot", name), zap.String("stream", string(s)))

	components, err := snapshot.Fetch(ctx, opts.runner, name, namespace)
	if err != nil {
		return err
	}

	bundleDigest, err := components.Digest(snapshot.BundleKey(s))
	if err != nil {
		return err
	}
	opts.log.Debug("extracting bundle references", zap.String("bundle", bundleDigest.String()))

	refs, err := bundle.NewExtractor(opts.runner, opts.log).Refs(ctx, bundleDigest, s)
	if err != nil {
		return err
	}

	report, err := validate.Compare(name, s, components, refs)
	if err != nil {
		return err
	}

	report.Print(out)
	if !report.Valid() {
		return validate.ErrMismatch
	}
	return nil
}
