// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package stream

import (
	"fmt"
	"strings"
)

// Stream identifies the release stream a snapshot was built for. The
// stream determines the component key suffixes inside the snapshot and
// the repository the bundle image lives in.
type Stream string

const (
	YStream Stream = "ystream"
	ZStream Stream = "zstream"
)

// Detect determines the stream from a snapshot name. Snapshot names in
// the ocp-bpfman-tenant workspace always carry the stream as a
// substring.
func Detect(snapshotName string) (Stream, error) {
	switch {
	case strings.Contains(snapshotName, string(YStream)):
		return YStream, nil
	case strings.Contains(snapshotName, string(ZStream)):
		return ZStream, nil
	}
	return "", fmt.Errorf("cannot detect stream from snapshot name: %s", snapshotName)
}
