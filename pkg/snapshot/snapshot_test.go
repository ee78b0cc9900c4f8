// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package snapshot

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"

	"github.com/openshift/bpfman-snapshot/pkg/stream"
)

const (
	sha1 = "sha256:1111111111111111111111111111111111111111111111111111111111111111"
	sha2 = "sha256:2222222222222222222222222222222222222222222222222222222222222222"
)

type fakeRunner struct {
	calls   [][]string
	handler func(name string, args []string) ([]byte, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.handler(name, args)
}

func Test_imageDigest(t *testing.T) {
	tests := []struct {
		name    string
		image   string
		want    digest.Digest
		wantErr bool
	}{
		{
			name:  "digest pinned reference",
			image: "quay.io/foo/bar@" + sha1,
			want:  digest.Digest(sha1),
		},
		{
			name:    "tag only",
			image:   "quay.io/foo/bar:latest",
			wantErr: true,
		},
		{
			name:    "garbage after at",
			image:   "quay.io/foo/bar@notadigest",
			wantErr: true,
		},
		{
			name:    "truncated hex",
			image:   "quay.io/foo/bar@sha256:abcd",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := imageDigest(tt.image)
			if (err != nil) != tt.wantErr {
				t.Fatalf("imageDigest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("imageDigest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_ComponentKey(t *testing.T) {
	if got := ComponentKey("operator", stream.YStream); got != "bpfman-operator-ystream" {
		t.Errorf("ComponentKey() = %q", got)
	}
	if got := BundleKey(stream.ZStream); got != "bpfman-operator-bundle-zstream" {
		t.Errorf("BundleKey() = %q", got)
	}
}

func Test_Fetch(t *testing.T) {
	snapshotJSON := `{
		"spec": {
			"components": [
				{"name": "bpfman-operator-ystream", "containerImage": "quay.io/foo/operator@` + sha1 + `"},
				{"name": "bpfman-agent-ystream", "containerImage": "quay.io/foo/agent@` + sha2 + `"}
			]
		}
	}`

	run := &fakeRunner{handler: func(name string, args []string) ([]byte, error) {
		return []byte(snapshotJSON), nil
	}}

	got, err := Fetch(context.Background(), run, "snap-ystream", "ocp-bpfman-tenant")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := Components{
		"bpfman-operator-ystream": digest.Digest(sha1),
		"bpfman-agent-ystream":    digest.Digest(sha2),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fetch() = %v, want %v", got, want)
	}

	wantCall := []string{"oc", "get", "snapshot", "-n", "ocp-bpfman-tenant", "snap-ystream", "-o", "json"}
	if len(run.calls) != 1 || !reflect.DeepEqual(run.calls[0], wantCall) {
		t.Errorf("Fetch() ran %v, want %v", run.calls, wantCall)
	}
}

func Test_Fetch_errors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(name string, args []string) ([]byte, error)
		errPart string
	}{
		{
			name: "command failure",
			handler: func(string, []string) ([]byte, error) {
				return nil, errors.New("no such snapshot")
			},
			errPart: "fetching snapshot",
		},
		{
			name: "malformed json",
			handler: func(string, []string) ([]byte, error) {
				return []byte("not-json"), nil
			},
			errPart: "decoding snapshot",
		},
		{
			name: "wrong snapshot returned",
			handler: func(string, []string) ([]byte, error) {
				return []byte(`{"metadata":{"name":"some-other-snapshot"},"spec":{"components":[]}}`), nil
			},
			errPart: "asked for snapshot",
		},
		{
			name: "image without digest",
			handler: func(string, []string) ([]byte, error) {
				return []byte(`{"spec":{"components":[{"name":"c","containerImage":"quay.io/foo/bar:latest"}]}}`), nil
			},
			errPart: "not digest-pinned",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &fakeRunner{handler: tt.handler}
			_, err := Fetch(context.Background(), run, "snap-ystream", "ns")
			if err == nil {
				t.Fatal("Fetch() expected error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Fetch() error = %v, want containing %q", err, tt.errPart)
			}
		})
	}
}

func Test_Components_Digest(t *testing.T) {
	components := Components{"bpfman-operator-ystream": digest.Digest(sha1)}

	got, err := components.Digest("bpfman-operator-ystream")
	if err != nil || got != digest.Digest(sha1) {
		t.Errorf("Digest() = %v, %v", got, err)
	}

	if _, err := components.Digest("bpfman-daemon-ystream"); err == nil {
		t.Error("Digest() expected error for missing component")
	}
}
