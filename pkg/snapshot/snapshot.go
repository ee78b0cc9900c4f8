// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/openshift/bpfman-snapshot/pkg/runner"
	"github.com/openshift/bpfman-snapshot/pkg/stream"
)

// component mirrors the fields of spec.components[] we care about.
type component struct {
	Name           string `json:"name"`
	ContainerImage string `json:"containerImage"`
}

type snapshotSpec struct {
	Components []component `json:"components"`
}

type snapshotDoc struct {
	Metadata metav1.ObjectMeta `json:"metadata"`
	Spec     snapshotSpec      `json:"spec"`
}

// Components maps a snapshot component name to the digest of its
// container image.
type Components map[string]digest.Digest

// Digest returns the digest for a component key. A snapshot missing an
// expected component is malformed for release purposes.
func (c Components) Digest(key string) (digest.Digest, error) {
	d, ok := c[key]
	if !ok {
		return "", fmt.Errorf("snapshot has no component %q", key)
	}
	return d, nil
}

// ComponentKey returns the snapshot component name for a role, e.g.
// ("operator", ystream) -> "bpfman-operator-ystream".
func ComponentKey(role string, s stream.Stream) string {
	return fmt.Sprintf("bpfman-%s-%s", role, s)
}

// BundleKey returns the snapshot component name of the bundle image.
func BundleKey(s stream.Stream) string {
	return ComponentKey("operator-bundle", s)
}

// Fetch retrieves a snapshot with oc and builds the component digest
// map. Each containerImage must be digest-pinned (repo@sha256:hex).
func Fetch(ctx context.Context, run runner.Runner, name, namespace string) (Components, error) {
	out, err := run.Run(ctx, "oc", "get", "snapshot", "-n", namespace, name, "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot %s: %w", name, err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", name, err)
	}
	if doc.Metadata.Name != "" && doc.Metadata.Name != name {
		return nil, fmt.Errorf("asked for snapshot %s but got %s", name, doc.Metadata.Name)
	}

	components := make(Components, len(doc.Spec.Components))
	for _, comp := range doc.Spec.Components {
		d, err := imageDigest(comp.ContainerImage)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", comp.Name, err)
		}
		components[comp.Name] = d
	}

	return components, nil
}

// imageDigest extracts and validates the digest from a digest-pinned
// image reference.
func imageDigest(image string) (digest.Digest, error) {
	_, after, found := strings.Cut(image, "@")
	if !found {
		return "", fmt.Errorf("image reference %q is not digest-pinned", image)
	}
	d, err := digest.Parse(after)
	if err != nil {
		return "", fmt.Errorf("image reference %q: %w", image, err)
	}
	return d, nil
}
