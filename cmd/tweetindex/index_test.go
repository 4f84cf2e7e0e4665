// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwlib/tweetindex/internal/blob"
	"github.com/gwlib/tweetindex/internal/secrets"
	"github.com/gwlib/tweetindex/pkg/types"
)

func scrubAWSEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
}

func TestBucketCredentials(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		secrets map[string]string
		want    blob.Credentials
		wantErr bool
	}{
		{
			name: "from environment",
			env: map[string]string{
				"AWS_ACCESS_KEY_ID":     "AKIAENV",
				"AWS_SECRET_ACCESS_KEY": "envsecret",
			},
			want: blob.Credentials{AccessKeyID: "AKIAENV", SecretAccessKey: "envsecret"},
		},
		{
			name: "from secrets directory",
			secrets: map[string]string{
				secrets.AWSAccessKeyID:     "AKIAFILE",
				secrets.AWSSecretAccessKey: "filesecret",
			},
			want: blob.Credentials{AccessKeyID: "AKIAFILE", SecretAccessKey: "filesecret"},
		},
		{
			name: "environment wins over secrets",
			env: map[string]string{
				"AWS_ACCESS_KEY_ID":     "AKIAENV",
				"AWS_SECRET_ACCESS_KEY": "envsecret",
			},
			secrets: map[string]string{
				secrets.AWSAccessKeyID:     "AKIAFILE",
				secrets.AWSSecretAccessKey: "filesecret",
			},
			want: blob.Credentials{AccessKeyID: "AKIAENV", SecretAccessKey: "envsecret"},
		},
		{
			name:    "missing credentials error",
			wantErr: true,
		},
		{
			name: "partial credentials error",
			env:  map[string]string{"AWS_ACCESS_KEY_ID": "AKIAENV"},
			secrets: map[string]string{
				secrets.ESUsername: "elastic",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			swapGlobals(t)
			scrubAWSEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			loadedSecrets = tt.secrets

			creds, err := bucketCredentials()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "AWS credentials required")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, creds)
		})
	}
}

// The credential gate fires before the S3 client is even constructed, so a
// run with no credentials fails without touching the network.
func TestRunIndexBucketRequiresCredentials(t *testing.T) {
	swapGlobals(t)
	scrubAWSEnv(t)
	loadedSecrets = nil
	cfg = types.DefaultConfig()
	log = testLog()
	indexBucketCmd.SetContext(context.Background())

	err := runIndexBucket(indexBucketCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS credentials required")
}

func TestRunIndexBucketRequiresBucketName(t *testing.T) {
	swapGlobals(t)
	scrubAWSEnv(t)
	loadedSecrets = nil
	cfg = types.DefaultConfig()
	cfg.Bucket.Name = ""
	log = testLog()
	indexBucketCmd.SetContext(context.Background())

	err := runIndexBucket(indexBucketCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bucket name")
}
