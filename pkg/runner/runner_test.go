// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package runner

import (
	"context"
	"strings"
	"testing"
)

func Test_ExecRunner_Run(t *testing.T) {
	run := NewExecRunner(nil)

	out, err := run.Run(context.Background(), "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "hello" {
		t.Errorf("Run() output = %q, want %q", got, "hello")
	}
}

func Test_ExecRunner_Run_failure_includes_stderr(t *testing.T) {
	run := NewExecRunner(nil)

	_, err := run.Run(context.Background(), "sh", "-c", "echo went wrong >&2; exit 3")
	if err == nil {
		t.Fatal("Run() expected error")
	}
	if !strings.Contains(err.Error(), "went wrong") {
		t.Errorf("Run() error = %v, want stderr in message", err)
	}
}

func Test_ExecRunner_Run_missing_command(t *testing.T) {
	run := NewExecRunner(nil)

	if _, err := run.Run(context.Background(), "definitely-not-a-command-xyz"); err == nil {
		t.Fatal("Run() expected error for missing command")
	}
}
