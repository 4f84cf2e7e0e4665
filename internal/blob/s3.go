// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package blob lists and fetches sample files from an S3 bucket.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gwlib/tweetindex/internal/ingest"
	"github.com/gwlib/tweetindex/pkg/types"
)

// API is the S3 surface the store uses. Tests substitute a fake.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Credentials holds explicit AWS credentials, typically from the secrets
// directory. Empty values defer to the SDK's default resolution chain.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Store wraps an S3 client for bucket walking.
type Store struct {
	api API
}

// New builds a Store using the default AWS configuration, overridden by an
// explicit region or static credentials when provided.
func New(ctx context.Context, cfg types.BucketConfig, creds Credentials) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if creds.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return &Store{api: s3.NewFromConfig(awsCfg)}, nil
}

// NewWithAPI builds a Store around an existing client. Used by tests.
func NewWithAPI(api API) *Store {
	return &Store{api: api}
}

// Sources lists the bucket and returns one ingest source per object, in
// listing order. maxFiles bounds the total number of objects taken; zero
// means unbounded. Each source downloads its object lazily on Open.
func (s *Store) Sources(ctx context.Context, bucket string, maxFiles int) ([]ingest.Source, error) {
	var sources []ingest.Source

	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing bucket %s: %w", bucket, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			etag := strings.Trim(aws.ToString(obj.ETag), `"`)

			k := key
			sources = append(sources, ingest.Source{
				Name: bucket + "/" + key,
				File: path.Base(key),
				ETag: etag,
				Open: func(ctx context.Context) (io.ReadCloser, error) {
					return s.fetch(ctx, bucket, k)
				},
			})

			if maxFiles > 0 && len(sources) >= maxFiles {
				return sources, nil
			}
		}
	}
	return sources, nil
}

func (s *Store) fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}
