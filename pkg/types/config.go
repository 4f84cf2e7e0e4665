// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"github.com/go-playground/validator"
)

// IndexConfig holds the connection and naming settings for the search index.
type IndexConfig struct {
	// Addresses lists the Elasticsearch node URLs.
	Addresses []string `json:"addresses" yaml:"addresses" mapstructure:"addresses" validate:"required,min=1,dive,url"`

	// Name is the tweet index name. File records live in Name + "-files".
	Name string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`

	// Username and Password enable basic auth when the cluster requires it.
	Username string `json:"username,omitempty" yaml:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`

	// BulkWorkers is the number of concurrent bulk request workers.
	BulkWorkers int `json:"bulk_workers" yaml:"bulk_workers" mapstructure:"bulk_workers" validate:"min=1"`

	// BulkFlushBytes is the bulk request flush threshold.
	BulkFlushBytes int `json:"bulk_flush_bytes" yaml:"bulk_flush_bytes" mapstructure:"bulk_flush_bytes" validate:"min=1024"`
}

// IngestConfig holds settings for the file ingestion stage.
type IngestConfig struct {
	// Concurrency is the number of files ingested in parallel.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency" validate:"min=1"`

	// FilePrefix selects which files a directory walk indexes. Files must
	// match FilePrefix*.gz.
	FilePrefix string `json:"file_prefix" yaml:"file_prefix" mapstructure:"file_prefix" validate:"required"`
}

// BucketConfig holds settings for object-store ingestion.
type BucketConfig struct {
	// Name is the default bucket to walk when --bucket is not given.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Region is the AWS region. Empty defers to the SDK's resolution chain.
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
}

// QueryConfig holds defaults for the query command.
type QueryConfig struct {
	// Size is the default page size.
	Size int `json:"size" yaml:"size" mapstructure:"size" validate:"min=1"`
}

// Config groups all tool configuration.
type Config struct {
	Index  IndexConfig  `json:"index" yaml:"index" mapstructure:"index"`
	Ingest IngestConfig `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Bucket BucketConfig `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Query  QueryConfig  `json:"query" yaml:"query" mapstructure:"query"`

	// StateDir holds the local ingest journal.
	StateDir string `json:"state_dir" yaml:"state_dir" mapstructure:"state_dir" validate:"required"`

	// ErrorLog is where warnings and errors are mirrored on disk.
	ErrorLog string `json:"error_log" yaml:"error_log" mapstructure:"error_log"`
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Index: IndexConfig{
			Addresses:      []string{"http://localhost:9200"},
			Name:           "sample-index",
			BulkWorkers:    2,
			BulkFlushBytes: 5 << 20,
		},
		Ingest: IngestConfig{
			Concurrency: 4,
			FilePrefix:  "sample-",
		},
		Bucket: BucketConfig{
			Name: "gwlib-sfm-sample",
		},
		Query: QueryConfig{
			Size: 10,
		},
		StateDir: ".tweetindex",
		ErrorLog: "error.log",
	}
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
