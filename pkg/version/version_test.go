// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package version

import (
	"fmt"
	"runtime"
	"strings"
	"testing"
)

func Test_Get(t *testing.T) {
	info := Get()

	if info.GitVersion == "" {
		t.Error("GitVersion is empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if want := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH); info.Platform != want {
		t.Errorf("Platform = %q, want %q", info.Platform, want)
	}
}

func Test_Info_String(t *testing.T) {
	info := Info{GitVersion: "v0.1.0", GitCommit: "abc1234", GoVersion: "go1.24.4", Platform: "linux/amd64"}

	got := info.String()
	for _, want := range []string{"v0.1.0", "abc1234", "go1.24.4", "linux/amd64"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}
