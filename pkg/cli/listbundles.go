// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openshift/bpfman-snapshot/pkg/bundle"
	"github.com/openshift/bpfman-snapshot/pkg/stream"
)

func newListBundlesCommand(opts *options) *cobra.Command {
	var (
		repository string
		limit      int
		format     string
	)

	cmd := &cobra.Command{
		Use:   "list-bundles",
		Short: "List the latest bundle builds in a repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListBundles(cmd.Context(), opts, repository, limit, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&repository, "repository", "",
		"Bundle repository (default: "+bundle.DefaultRef(stream.YStream).String()+")")
	cmd.Flags().IntVar(&limit, "limit", 5, "Number of latest bundles to list")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")

	return cmd
}

func runListBundles(ctx context.Context, opts *options, repository string, limit int, format string, out io.Writer) error {
	ref := bundle.DefaultRef(stream.YStream)
	if repository != "" {
		var err error
		ref, err = bundle.ParseRef(repository)
		if err != nil {
			return err
		}
	}

	bundles, err := bundle.NewLister(opts.log).Latest(ctx, ref, limit)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return printBundlesJSON(out, bundles)
	case "text":
		printBundlesText(out, bundles)
		return nil
	}
	return fmt.Errorf("unknown format %q (expected text or json)", format)
}

func printBundlesText(out io.Writer, bundles []*bundle.Metadata) {
	for _, b := range bundles {
		imageBase := strings.TrimSuffix(b.Image, ":"+b.Tag)
		commit := b.Tag
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Fprintf(out, "%s@%s %s g%s\n", imageBase, b.Digest, b.BuildDate, commit)
	}
}

func printBundlesJSON(out io.Writer, bundles []*bundle.Metadata) error {
	doc := struct {
		Count   int                `json:"count"`
		Bundles []*bundle.Metadata `json:"bundles"`
	}{
		Count:   len(bundles),
		Bundles: bundles,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}
