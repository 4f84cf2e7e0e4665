// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"compress/gzip"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gwlib/tweetindex/internal/esindex"
	"github.com/gwlib/tweetindex/pkg/types"
)

// seenCapacity sizes the in-run duplicate filter. Sample files overlap at
// the edges, so the same tweet id can appear in adjacent files; indexing is
// idempotent by id, suppressing duplicates just saves bulk traffic. False
// positives drop a tweet one-in-ten-thousand times, which the sample
// tolerates.
const (
	seenCapacity = 5_000_000
	seenFPRate   = 0.0001
)

// FileStore is the index surface for file-level dedup markers.
type FileStore interface {
	FileIndexed(ctx context.Context, md5, etag string) (bool, error)
	RecordFile(ctx context.Context, rec types.FileRecord) error
}

// BulkWriter receives the tweets of one file.
type BulkWriter interface {
	Add(ctx context.Context, doc types.TweetDoc) error
	Close(ctx context.Context) (esindex.BulkStats, error)
}

// WriterFactory opens a new bulk session. One session per file keeps a
// corrupt file from contaminating another file's flushes.
type WriterFactory func(ctx context.Context) (BulkWriter, error)

// RunLog records ingest history. Implemented by the journal; nil disables it.
// file is the full source name (path or bucket/key), not the basename, so
// same-named files from different directories keep separate rows.
type RunLog interface {
	StartRun(source string) (string, error)
	RecordFile(runID, file, checksum string, tweets int64, errText string) error
	FinishRun(runID string, filesIndexed, filesSkipped, filesFailed int, tweetsIndexed int64) error
}

// Summary is the outcome of one ingest run.
type Summary struct {
	FilesIndexed  int
	FilesSkipped  int
	FilesFailed   int
	TweetsIndexed int64
	TweetsFailed  int64
	Suppressed    int64
}

// Total returns the number of files processed.
func (s Summary) Total() int {
	return s.FilesIndexed + s.FilesSkipped + s.FilesFailed
}

// Runner ingests batches of sample files with bounded concurrency.
type Runner struct {
	store       FileStore
	newWriter   WriterFactory
	runlog      RunLog
	concurrency int
	log         *logrus.Entry

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewRunner builds a Runner. runlog may be nil.
func NewRunner(store FileStore, newWriter WriterFactory, runlog RunLog, concurrency int, log *logrus.Entry) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		store:       store,
		newWriter:   newWriter,
		runlog:      runlog,
		concurrency: concurrency,
		log:         log,
		seen:        bloom.NewWithEstimates(seenCapacity, seenFPRate),
	}
}

// seenBefore records a tweet id in the duplicate filter and reports whether
// it was already present.
func (r *Runner) seenBefore(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen.TestAndAddString(strconv.FormatInt(id, 10))
}

// fileOutcome is one file's result, merged into the Summary under lock.
type fileOutcome struct {
	skipped    bool
	indexed    int64
	failed     int64
	suppressed int64
	err        error
}

// Run ingests all sources, up to concurrency files at a time. Individual
// file failures do not stop the run; they are aggregated into the returned
// error after every file has been attempted. sourceKind names the origin
// ("dir" or "bucket") for the journal.
func (r *Runner) Run(ctx context.Context, sourceKind string, sources []Source) (Summary, error) {
	var runID string
	if r.runlog != nil {
		id, err := r.runlog.StartRun(sourceKind)
		if err != nil {
			return Summary{}, fmt.Errorf("starting journal run: %w", err)
		}
		runID = id
	}

	var (
		summary Summary
		errs    *multierror.Error
		mu      sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			out := r.ingestOne(gctx, src)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case out.err != nil:
				summary.FilesFailed++
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", src.Name, out.err))
			case out.skipped:
				summary.FilesSkipped++
			default:
				summary.FilesIndexed++
			}
			summary.TweetsIndexed += out.indexed
			summary.TweetsFailed += out.failed
			summary.Suppressed += out.suppressed

			if r.runlog != nil && !out.skipped {
				errText := ""
				if out.err != nil {
					errText = out.err.Error()
				}
				checksum := src.MD5
				if checksum == "" {
					checksum = src.ETag
				}
				if jerr := r.runlog.RecordFile(runID, src.Name, checksum, out.indexed, errText); jerr != nil {
					r.log.WithError(jerr).Warn("journal write failed")
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if r.runlog != nil {
		if err := r.runlog.FinishRun(runID, summary.FilesIndexed, summary.FilesSkipped, summary.FilesFailed, summary.TweetsIndexed); err != nil {
			r.log.WithError(err).Warn("journal finish failed")
		}
	}

	return summary, errs.ErrorOrNil()
}

// ingestOne processes a single source file end to end: dedup check, open,
// decompress, scan, bulk write, record. The file marker is written only
// after a clean bulk close, so a failed file is retried on the next run.
func (r *Runner) ingestOne(ctx context.Context, src Source) fileOutcome {
	indexed, err := r.store.FileIndexed(ctx, src.MD5, src.ETag)
	if err != nil {
		return fileOutcome{err: err}
	}
	if indexed {
		r.log.WithField("file", src.Name).Info("already indexed")
		return fileOutcome{skipped: true}
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return fileOutcome{err: fmt.Errorf("opening: %w", err)}
	}
	defer rc.Close()

	gz, err := gzip.NewReader(rc)
	if err != nil {
		r.log.WithField("file", src.Name).Warn("corrupt sample file")
		return fileOutcome{err: fmt.Errorf("corrupt gzip: %w", err)}
	}
	defer gz.Close()

	bw, err := r.newWriter(ctx)
	if err != nil {
		return fileOutcome{err: err}
	}

	var suppressed int64
	scanStats, scanErr := ScanTweets(gz, src.File, r.log, func(doc types.TweetDoc) error {
		if r.seenBefore(doc.ID) {
			suppressed++
			return nil
		}
		return bw.Add(ctx, doc)
	})

	bulkStats, closeErr := bw.Close(ctx)
	if scanErr != nil {
		r.log.WithField("file", src.Name).WithError(scanErr).Warn("corrupt sample file")
		return fileOutcome{err: fmt.Errorf("reading: %w", scanErr), indexed: bulkStats.Indexed, failed: bulkStats.Failed, suppressed: suppressed}
	}
	if closeErr != nil {
		return fileOutcome{err: closeErr, suppressed: suppressed}
	}

	r.log.WithFields(logrus.Fields{
		"file":       src.Name,
		"tweets":     bulkStats.Indexed,
		"rejected":   bulkStats.Failed,
		"deletes":    scanStats.Deletes,
		"malformed":  scanStats.Malformed,
		"incomplete": scanStats.Incomplete,
		"suppressed": suppressed,
	}).Info("tweets indexed")

	rec := types.FileRecord{File: src.File, MD5: src.MD5, ETag: src.ETag}
	if err := r.store.RecordFile(ctx, rec); err != nil {
		return fileOutcome{err: err, indexed: bulkStats.Indexed, failed: bulkStats.Failed, suppressed: suppressed}
	}

	return fileOutcome{indexed: bulkStats.Indexed, failed: bulkStats.Failed, suppressed: suppressed}
}
