// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package main

import (
	"os"

	"github.com/openshift/bpfman-snapshot/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
