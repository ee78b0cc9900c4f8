// Copyright (c) 2025 Red Hat, Inc.
// Copyright Contributors to the bpfman project

package stream

import "testing"

func Test_Detect(t *testing.T) {
	tests := []struct {
		name         string
		snapshotName string
		want         Stream
		wantErr      bool
	}{
		{
			name:         "ystream snapshot",
			snapshotName: "bpfman-operator-bundle-ystream-abc12",
			want:         YStream,
		},
		{
			name:         "zstream snapshot",
			snapshotName: "bpfman-operator-bundle-zstream-def34",
			want:         ZStream,
		},
		{
			name:         "ystream wins when present",
			snapshotName: "ystream-zstream",
			want:         YStream,
		},
		{
			name:         "no stream marker",
			snapshotName: "bpfman-operator-bundle-abc12",
			wantErr:      true,
		},
		{
			name:         "empty name",
			snapshotName: "",
			wantErr:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.snapshotName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Detect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}
