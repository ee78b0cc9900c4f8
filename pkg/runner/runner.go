// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Runner runs an external command and returns its standard output.
// Every oc and podman invocation goes through this interface so tests
// can inject failures and observe call ordering.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Standard error is captured
// and folded into the returned error on failure.
type ExecRunner struct {
	Log *zap.Logger
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner(log *zap.Logger) *ExecRunner {
	return &ExecRunner{Log: log}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Log != nil {
		r.Log.Debug("running command", zap.String("command", name), zap.Strings("args", args))
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), msg)
		}
		return nil, errors.Wrapf(err, "%s %s", name, strings.Join(args, " "))
	}

	return stdout.Bytes(), nil
}
