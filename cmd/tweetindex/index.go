// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gwlib/tweetindex/internal/blob"
	"github.com/gwlib/tweetindex/internal/esindex"
	"github.com/gwlib/tweetindex/internal/ingest"
	"github.com/gwlib/tweetindex/internal/journal"
	"github.com/gwlib/tweetindex/internal/secrets"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index sample files from a directory or an S3 bucket",
	Long: `Index loads gzipped JSON-lines sample files into the search index.
Files already recorded in the index are skipped. Each subcommand walks one
kind of source: a local directory tree or an S3 bucket.`,
}

var indexDirCmd = &cobra.Command{
	Use:   "dir <path>",
	Short: "Index sample files in a local directory tree",
	Long: `Dir walks a directory hierarchy and indexes every file matching the
configured prefix and ending in .gz. The dedup key is the md5 of the file
path. --max-files bounds the files taken per directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexDir,
}

var indexBucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Index sample files in an S3 bucket",
	Long: `Bucket lists an S3 bucket and indexes every object, using the object
ETag as the dedup key. AWS credentials must be present in the environment or
the secrets directory. --max-files bounds the total objects taken.`,
	RunE: runIndexBucket,
}

func runIndexDir(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	maxFiles, _ := cmd.Flags().GetInt("max-files")

	sources, err := ingest.WalkDir(args[0], cfg.Ingest.FilePrefix, maxFiles)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Printf("No %s*.gz files under %s.\n", cfg.Ingest.FilePrefix, args[0])
		return nil
	}

	return runIngest(ctx, "dir", sources)
}

func runIndexBucket(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	maxFiles, _ := cmd.Flags().GetInt("max-files")
	bucket, _ := cmd.Flags().GetString("bucket")
	if bucket == "" {
		bucket = cfg.Bucket.Name
	}
	if bucket == "" {
		return fmt.Errorf("no bucket name: pass --bucket or set bucket.name in the config")
	}

	creds, err := bucketCredentials()
	if err != nil {
		return err
	}

	store, err := blob.New(ctx, cfg.Bucket, creds)
	if err != nil {
		return err
	}

	sources, err := store.Sources(ctx, bucket, maxFiles)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Printf("Bucket %s is empty.\n", bucket)
		return nil
	}

	return runIngest(ctx, "bucket", sources)
}

// runIngest wires the index, journal, and runner together and reports the
// summary. A journal that cannot be opened downgrades to a warning; ingest
// history is convenience, not correctness.
func runIngest(ctx context.Context, sourceKind string, sources []ingest.Source) error {
	ix, err := esindex.New(cfg.Index, log)
	if err != nil {
		return err
	}
	if err := ix.WaitReady(ctx); err != nil {
		return err
	}
	if err := ix.Ensure(ctx); err != nil {
		return err
	}

	var runlog ingest.RunLog
	jrn, err := journal.Open(cfg.StateDir)
	if err != nil {
		log.WithError(err).Warn("journal unavailable, run will not be recorded")
	} else {
		defer jrn.Close()
		runlog = jrn
	}

	writerFactory := func(ctx context.Context) (ingest.BulkWriter, error) {
		return ix.NewBulkWriter(ctx)
	}
	runner := ingest.NewRunner(ix, writerFactory, runlog, cfg.Ingest.Concurrency, log)

	summary, err := runner.Run(ctx, sourceKind, sources)
	fmt.Printf("%d files indexed, %d skipped, %d failed; %d tweets indexed",
		summary.FilesIndexed, summary.FilesSkipped, summary.FilesFailed, summary.TweetsIndexed)
	if summary.Suppressed > 0 {
		fmt.Printf(" (%d duplicates suppressed)", summary.Suppressed)
	}
	fmt.Println()
	return err
}

// bucketCredentials resolves AWS credentials from the environment or the
// secrets directory. Missing credentials fail here, before any network call.
func bucketCredentials() (blob.Credentials, error) {
	creds := blob.Credentials{
		AccessKeyID:     secretDefault(secrets.AWSAccessKeyID, os.Getenv("AWS_ACCESS_KEY_ID")),
		SecretAccessKey: secretDefault(secrets.AWSSecretAccessKey, os.Getenv("AWS_SECRET_ACCESS_KEY")),
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return blob.Credentials{}, fmt.Errorf("AWS credentials required: set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY or add them to .secrets/")
	}
	return creds, nil
}

// secretDefault returns fallback when set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

func init() {
	indexDirCmd.Flags().Int("max-files", 0, "max number of files to index per directory (0 = all)")
	indexBucketCmd.Flags().Int("max-files", 0, "max number of objects to index (0 = all)")
	indexBucketCmd.Flags().String("bucket", "", "bucket name (default from config)")

	indexCmd.AddCommand(indexDirCmd)
	indexCmd.AddCommand(indexBucketCmd)
	rootCmd.AddCommand(indexCmd)
}
