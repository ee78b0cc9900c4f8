// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/opencontainers/go-digest"
	olmv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"

	"github.com/openshift/bpfman-snapshot/pkg/runner"
	"github.com/openshift/bpfman-snapshot/pkg/stream"
)

const (
	bundleRegistry = "quay.io/redhat-user-workloads/ocp-bpfman-tenant"

	csvManifestPath       = "/manifests/bpfman-operator.clusterserviceversion.yaml"
	configMapManifestPath = "/manifests/bpfman-config_v1_configmap.yaml"

	operatorRepo   = "registry.redhat.io/bpfman/bpfman-rhel9-operator"
	agentImageKey  = "bpfman.agent.image"
	bpfmanImageKey = "bpfman.image"
)

// Fallback patterns for manifests that fail structured parsing. These
// match the image references as free text, the way the release
// pipeline greps for them.
var (
	operatorPattern = regexp.MustCompile(`registry\.redhat\.io/bpfman/bpfman-rhel9-operator@(sha256:[a-f0-9]+)`)
	agentPattern    = regexp.MustCompile(`bpfman\.agent\.image:.*@(sha256:[a-f0-9]+)`)
	daemonPattern   = regexp.MustCompile(`bpfman\.image:.*@(sha256:[a-f0-9]+)`)
)

// Refs holds the component digests referenced inside a bundle's
// manifests. A field is empty when the manifest carried no reference
// for it; the comparison step reports that as a mismatch.
type Refs struct {
	Operator digest.Digest
	Agent    digest.Digest
	Daemon   digest.Digest

	// CSVVersion is the bundle CSV's spec.version when it parses as
	// semver, empty otherwise. Informational only.
	CSVVersion string
}

// ImageRef returns the fully qualified bundle image reference for a
// stream and bundle digest.
func ImageRef(bundleDigest digest.Digest, s stream.Stream) string {
	return fmt.Sprintf("%s/bpfman-operator-bundle-%s@%s", bundleRegistry, s, bundleDigest)
}

// Extractor copies the CSV and ConfigMap manifests out of a bundle
// image and extracts the component digests they reference.
type Extractor struct {
	runner runner.Runner
	log    *zap.Logger
}

// NewExtractor returns an Extractor using the given runner for podman
// invocations.
func NewExtractor(run runner.Runner, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{runner: run, log: log}
}

// Refs materializes the bundle image as a transient container, copies
// the two manifest files out, and extracts the referenced digests. The
// container is removed on every exit path, including copy failures.
func (e *Extractor) Refs(ctx context.Context, bundleDigest digest.Digest, s stream.Stream) (*Refs, error) {
	image := ImageRef(bundleDigest, s)
	e.log.Debug("creating bundle container", zap.String("image", image))

	out, err := e.runner.Run(ctx, "podman", "create", image)
	if err != nil {
		return nil, fmt.Errorf("creating bundle container: %w", err)
	}
	containerID := strings.TrimSpace(string(out))

	defer func() {
		// Removal must survive context cancellation.
		rmCtx := context.WithoutCancel(ctx)
		if _, err := e.runner.Run(rmCtx, "podman", "rm", containerID); err != nil {
			e.log.Warn("removing bundle container", zap.String("container", containerID), zap.Error(err))
		}
	}()

	tmpDir, err := os.MkdirTemp("", "bundle-manifests-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	csvContent, err := e.copyOut(ctx, containerID, csvManifestPath, filepath.Join(tmpDir, "csv.yaml"))
	if err != nil {
		return nil, err
	}
	cmContent, err := e.copyOut(ctx, containerID, configMapManifestPath, filepath.Join(tmpDir, "configmap.yaml"))
	if err != nil {
		return nil, err
	}

	return &Refs{
		Operator:   operatorDigest(csvContent),
		Agent:      configMapDigest(cmContent, agentImageKey, agentPattern),
		Daemon:     configMapDigest(cmContent, bpfmanImageKey, daemonPattern),
		CSVVersion: csvVersion(csvContent),
	}, nil
}

func (e *Extractor) copyOut(ctx context.Context, containerID, src, dst string) ([]byte, error) {
	if _, err := e.runner.Run(ctx, "podman", "cp", containerID+":"+src, dst); err != nil {
		return nil, fmt.Errorf("copying %s: %w", src, err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dst, err)
	}
	return data, nil
}

// operatorDigest finds the operator image digest in the CSV. It walks
// the install strategy deployments and relatedImages first and falls
// back to a pattern scan when the document does not decode as a CSV.
func operatorDigest(csvData []byte) digest.Digest {
	var csv olmv1alpha1.ClusterServiceVersion
	if err := yaml.Unmarshal(csvData, &csv); err == nil {
		for _, dep := range csv.Spec.InstallStrategy.StrategySpec.DeploymentSpecs {
			for _, container := range dep.Spec.Template.Spec.Containers {
				if d := repoDigest(container.Image, operatorRepo); d != "" {
					return d
				}
			}
		}
		for _, related := range csv.Spec.RelatedImages {
			if d := repoDigest(related.Image, operatorRepo); d != "" {
				return d
			}
		}
	}

	return matchDigest(operatorPattern, csvData)
}

// configMapDigest finds the digest of an image stored under a
// ConfigMap data key, falling back to a pattern scan of the raw
// document.
func configMapDigest(cmData []byte, key string, fallback *regexp.Regexp) digest.Digest {
	var cm corev1.ConfigMap
	if err := yaml.Unmarshal(cmData, &cm); err == nil {
		if image, ok := cm.Data[key]; ok {
			if d := imageDigest(image); d != "" {
				return d
			}
		}
	}

	return matchDigest(fallback, cmData)
}

// csvVersion returns the CSV spec.version when it is valid semver.
func csvVersion(csvData []byte) string {
	var csv olmv1alpha1.ClusterServiceVersion
	if err := yaml.Unmarshal(csvData, &csv); err != nil {
		return ""
	}
	v := csv.Spec.Version.String()
	if _, err := semver.NewVersion(v); err != nil {
		return ""
	}
	return v
}

// repoDigest returns the digest of image when image is a digest-pinned
// reference into repo, empty otherwise.
func repoDigest(image, repo string) digest.Digest {
	if !strings.HasPrefix(image, repo+"@") {
		return ""
	}
	return imageDigest(image)
}

// imageDigest returns the validated digest of a digest-pinned image
// reference, or empty.
func imageDigest(image string) digest.Digest {
	_, after, found := strings.Cut(image, "@")
	if !found {
		return ""
	}
	d, err := digest.Parse(after)
	if err != nil {
		return ""
	}
	return d
}

// matchDigest applies a fallback pattern and returns the captured
// digest, or empty when the pattern does not match. An unmatched
// pattern is not an error; the missing reference surfaces as a
// mismatch later.
func matchDigest(pattern *regexp.Regexp, data []byte) digest.Digest {
	match := pattern.FindSubmatch(data)
	if len(match) < 2 {
		return ""
	}
	d, err := digest.Parse(string(match[1]))
	if err != nil {
		return ""
	}
	return d
}
