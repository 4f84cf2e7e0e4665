// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AWSAccessKeyID, "  AKIAEXAMPLE  \n")
				writeFile(t, dir, AWSSecretAccessKey, "wJalrXUtnFEMI")
				writeFile(t, dir, ESUsername, "elastic\n")
				return dir
			},
			want: map[string]string{
				AWSAccessKeyID:     "AKIAEXAMPLE",
				AWSSecretAccessKey: "wJalrXUtnFEMI",
				ESUsername:         "elastic",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty key files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ESPassword, "hunter2")
				writeFile(t, dir, ESUsername, "   \n\t  ")
				return dir
			},
			want: map[string]string{
				ESPassword: "hunter2",
			},
		},
		{
			name: "ignores unrecognized files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ESUsername, "elastic")
				writeFile(t, dir, "github-token", "ghp_example")
				writeFile(t, dir, ".gitkeep", "ignored")
				return dir
			},
			want: map[string]string{
				ESUsername: "elastic",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600))
}
