// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package bundle

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/containers/image/v5/docker"
	"github.com/containers/image/v5/manifest"
	"github.com/containers/image/v5/types"
	"github.com/opencontainers/go-digest"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openshift/bpfman-snapshot/pkg/stream"
)

const (
	defaultRegistry = "quay.io/redhat-user-workloads"
	defaultTenant   = "ocp-bpfman-tenant"

	// Konflux tags every bundle build with its git commit SHA.
	commitTagLength = 40

	listConcurrency = 10
)

// Metadata describes one bundle build in a repository.
type Metadata struct {
	Image     string        `json:"image"`
	Tag       string        `json:"tag"`
	Digest    digest.Digest `json:"digest"`
	BuildDate string        `json:"build_date"`
	Version   string        `json:"version"`
	Created   time.Time     `json:"created"`
}

// Ref identifies a bundle repository.
type Ref struct {
	Registry string
	Tenant   string
	Repo     string
}

// String returns the repository reference without tag or digest.
func (r Ref) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Registry, r.Tenant, r.Repo)
}

// DefaultRef returns the bundle repository for a stream in the
// ocp-bpfman-tenant workspace.
func DefaultRef(s stream.Stream) Ref {
	return Ref{
		Registry: defaultRegistry,
		Tenant:   defaultTenant,
		Repo:     fmt.Sprintf("bpfman-operator-bundle-%s", s),
	}
}

// ParseRef parses an image reference into a bundle repository,
// discarding any tag or digest. Accepts the 4-segment
// quay.io/redhat-user-workloads form and plain registry/tenant/repo.
func ParseRef(imageRef string) (Ref, error) {
	imageRef = strings.TrimPrefix(imageRef, "docker://")

	if idx := strings.LastIndex(imageRef, "@"); idx != -1 {
		imageRef = imageRef[:idx]
	}
	if idx := strings.LastIndex(imageRef, ":"); idx != -1 && !strings.Contains(imageRef[idx:], "/") {
		imageRef = imageRef[:idx]
	}

	parts := strings.Split(imageRef, "/")
	switch {
	case len(parts) == 4 && parts[0] == "quay.io" && parts[1] == "redhat-user-workloads":
		return Ref{Registry: parts[0] + "/" + parts[1], Tenant: parts[2], Repo: parts[3]}, nil
	case len(parts) == 3:
		return Ref{Registry: parts[0], Tenant: parts[1], Repo: parts[2]}, nil
	}
	return Ref{}, fmt.Errorf("invalid bundle repository %q (expected registry/tenant/repo)", imageRef)
}

// Lister lists bundle builds by querying the registry directly.
type Lister struct {
	sys *types.SystemContext
	log *zap.Logger
}

// NewLister returns a Lister pinned to linux/amd64 manifests.
func NewLister(log *zap.Logger) *Lister {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lister{
		sys: &types.SystemContext{
			OSChoice:           "linux",
			ArchitectureChoice: "amd64",
		},
		log: log,
	}
}

// Latest returns up to limit bundle builds, newest build first. Tags
// that are not git commit SHAs are skipped; tags whose metadata cannot
// be fetched are logged and skipped unless none succeed.
func (l *Lister) Latest(ctx context.Context, ref Ref, limit int) ([]*Metadata, error) {
	tags, err := l.fetchTags(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetching tags: %w", err)
	}

	commitTags := filterCommitTags(tags)
	if len(commitTags) == 0 {
		return nil, fmt.Errorf("no git commit tags found among %d tags in %s", len(tags), ref)
	}

	var mu sync.Mutex
	var bundles []*Metadata

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(listConcurrency)
	for _, tag := range commitTags {
		tag := tag
		group.Go(func() error {
			md, err := l.fetchMetadata(groupCtx, ref, tag)
			if err != nil {
				l.log.Warn("skipping tag", zap.String("tag", tag), zap.Error(err))
				return nil
			}
			mu.Lock()
			bundles = append(bundles, md)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if len(bundles) == 0 {
		return nil, fmt.Errorf("no usable bundle builds in %s", ref)
	}

	return newestFirst(bundles, limit), nil
}

// newestFirst sorts by build date descending and truncates to limit.
func newestFirst(bundles []*Metadata, limit int) []*Metadata {
	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].BuildDate > bundles[j].BuildDate
	})
	if limit > len(bundles) {
		limit = len(bundles)
	}
	return bundles[:limit]
}

func (l *Lister) fetchTags(ctx context.Context, bundleRef Ref) ([]string, error) {
	ref, err := docker.ParseReference("//" + bundleRef.String())
	if err != nil {
		return nil, fmt.Errorf("parsing reference %s: %w", bundleRef, err)
	}
	return docker.GetRepositoryTags(ctx, l.sys, ref)
}

func (l *Lister) fetchMetadata(ctx context.Context, bundleRef Ref, tag string) (*Metadata, error) {
	taggedRef := bundleRef.String() + ":" + tag
	ref, err := docker.ParseReference("//" + taggedRef)
	if err != nil {
		return nil, fmt.Errorf("parsing reference %s: %w", taggedRef, err)
	}

	img, err := ref.NewImage(ctx, l.sys)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", taggedRef, err)
	}
	defer img.Close()

	manifestBlob, _, err := img.Manifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest for %s: %w", taggedRef, err)
	}
	manifestDigest, err := manifest.Digest(manifestBlob)
	if err != nil {
		return nil, fmt.Errorf("computing digest for %s: %w", taggedRef, err)
	}

	inspect, err := img.Inspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", taggedRef, err)
	}

	md := &Metadata{
		Image:  taggedRef,
		Tag:    tag,
		Digest: manifestDigest,
	}
	if inspect.Labels != nil {
		md.BuildDate = inspect.Labels["build-date"]
		md.Version = inspect.Labels["version"]
	}
	if inspect.Created != nil {
		md.Created = *inspect.Created
	}

	if md.BuildDate == "" {
		return nil, fmt.Errorf("no build-date label on %s", taggedRef)
	}
	return md, nil
}

// filterCommitTags keeps only 40-character lowercase hex tags.
func filterCommitTags(tags []string) []string {
	var commitTags []string
	for _, tag := range tags {
		if isCommitTag(tag) {
			commitTags = append(commitTags, tag)
		}
	}
	return commitTags
}

func isCommitTag(tag string) bool {
	if len(tag) != commitTagLength {
		return false
	}
	for _, c := range tag {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
