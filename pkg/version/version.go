// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package version

import (
	"fmt"
	"runtime"
)

// These are set at build time with -ldflags.
var (
	gitVersion = "devel"
	gitCommit  = ""
	buildDate  = ""
)

// Info contains versioning information.
type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
}

// Get returns the overall codebase version. It's for detecting what
// code a binary was built from.
func Get() Info {
	return Info{
		GitVersion: gitVersion,
		GitCommit:  gitCommit,
		BuildDate:  buildDate,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns the version in a single line suitable for --version.
func (i Info) String() string {
	s := i.GitVersion
	if i.GitCommit != "" {
		s += fmt.Sprintf(" (%s)", i.GitCommit)
	}
	return fmt.Sprintf("%s %s %s", s, i.GoVersion, i.Platform)
}
