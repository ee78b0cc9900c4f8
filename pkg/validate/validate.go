// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package validate

import (
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/openshift/bpfman-snapshot/pkg/bundle"
	"github.com/openshift/bpfman-snapshot/pkg/snapshot"
	"github.com/openshift/bpfman-snapshot/pkg/stream"
)

// ErrMismatch marks a completed validation that found inconsistencies.
// It is the tool's normal "found a problem" outcome, not a failure of
// the tool itself; the CLI maps it to exit code 1.
var ErrMismatch = errors.New("snapshot has mismatches")

// Role names one of the component images the bundle references.
type Role string

const (
	RoleOperator Role = "operator"
	RoleAgent    Role = "agent"
	RoleDaemon   Role = "daemon"
)

// label returns the role's description in report output, naming the
// manifest the bundle reference came from.
func (r Role) label() string {
	switch r {
	case RoleOperator:
		return "CSV operator"
	case RoleAgent:
		return "ConfigMap agent"
	case RoleDaemon:
		return "ConfigMap daemon"
	}
	return string(r)
}

// Comparison pairs a snapshot-declared digest with the digest the
// bundle references for the same role.
type Comparison struct {
	Role     Role
	Snapshot digest.Digest
	Bundle   digest.Digest
}

// Match reports whether the bundle reference agrees with the snapshot.
// An absent bundle reference never matches.
func (c Comparison) Match() bool {
	return c.Bundle != "" && c.Bundle == c.Snapshot
}

// Report is the outcome of validating one snapshot.
type Report struct {
	SnapshotName string
	Stream       stream.Stream

	SnapshotBundle digest.Digest
	Refs           *bundle.Refs
	Comparisons    []Comparison
}

// Compare builds the validation report for a snapshot's components
// against the references extracted from its bundle. It fails when the
// snapshot lacks one of the expected components for the stream.
func Compare(name string, s stream.Stream, components snapshot.Components, refs *bundle.Refs) (*Report, error) {
	operator, err := components.Digest(snapshot.ComponentKey(string(RoleOperator), s))
	if err != nil {
		return nil, err
	}
	agent, err := components.Digest(snapshot.ComponentKey(string(RoleAgent), s))
	if err != nil {
		return nil, err
	}
	daemon, err := components.Digest(snapshot.ComponentKey(string(RoleDaemon), s))
	if err != nil {
		return nil, err
	}
	bundleDigest, err := components.Digest(snapshot.BundleKey(s))
	if err != nil {
		return nil, err
	}

	return &Report{
		SnapshotName:   name,
		Stream:         s,
		SnapshotBundle: bundleDigest,
		Refs:           refs,
		Comparisons: []Comparison{
			{Role: RoleOperator, Snapshot: operator, Bundle: refs.Operator},
			{Role: RoleAgent, Snapshot: agent, Bundle: refs.Agent},
			{Role: RoleDaemon, Snapshot: daemon, Bundle: refs.Daemon},
		},
	}, nil
}

// Valid reports whether every comparison matched.
func (r *Report) Valid() bool {
	for _, c := range r.Comparisons {
		if !c.Match() {
			return false
		}
	}
	return true
}

func orNone(d digest.Digest) string {
	if d == "" {
		return "<none>"
	}
	return string(d)
}

// Print writes the human-readable report. Mismatched roles show both
// digests; the final verdict distinguishes the operator policy gate
// from the agent/daemon production risk.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "=== Validating Snapshot: %s ===\n\n", r.SnapshotName)

	fmt.Fprintln(w, "Snapshot contains:")
	for _, c := range r.Comparisons {
		fmt.Fprintf(w, "  %-9s %s\n", titleCase(string(c.Role))+":", c.Snapshot)
	}
	fmt.Fprintf(w, "  %-9s %s\n\n", "Bundle:", r.SnapshotBundle)

	fmt.Fprintln(w, "Bundle references:")
	fmt.Fprintf(w, "  CSV Operator:     %s\n", orNone(r.Refs.Operator))
	fmt.Fprintf(w, "  ConfigMap Agent:  %s\n", orNone(r.Refs.Agent))
	fmt.Fprintf(w, "  ConfigMap Daemon: %s\n", orNone(r.Refs.Daemon))
	if r.Refs.CSVVersion != "" {
		fmt.Fprintf(w, "  CSV Version:      %s\n", r.Refs.CSVVersion)
	}
	fmt.Fprintln(w)

	for _, c := range r.Comparisons {
		if c.Match() {
			fmt.Fprintf(w, "✅ %s matches snapshot\n", c.Role.label())
			continue
		}
		fmt.Fprintf(w, "❌ MISMATCH: %s != Snapshot %s\n", c.Role.label(), c.Role)
		fmt.Fprintf(w, "   Bundle wants:  %s\n", orNone(c.Bundle))
		fmt.Fprintf(w, "   Snapshot has:  %s\n", c.Snapshot)
	}

	fmt.Fprintln(w)
	if r.Valid() {
		fmt.Fprintln(w, "✅ VALID: This snapshot is self-consistent and safe to release")
	} else {
		fmt.Fprintln(w, "❌ INVALID: This snapshot has mismatches")
		fmt.Fprintln(w, "   - Will fail Enterprise Contract if operator mismatched")
		fmt.Fprintln(w, "   - Will fail in production if agent/daemon mismatched")
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
