// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v7/esutil"
	"github.com/sirupsen/logrus"

	"github.com/gwlib/tweetindex/pkg/types"
)

// BulkStats summarizes one bulk writing session.
type BulkStats struct {
	Indexed int64
	Failed  int64
}

// BulkWriter streams tweet documents into the index through the bulk API.
// One writer per source file; Close flushes and reports the outcome.
type BulkWriter struct {
	bi        esutil.BulkIndexer
	flushErrs int64
	log       *logrus.Entry
}

// NewBulkWriter opens a bulk session against the tweet index.
func (ix *Index) NewBulkWriter(ctx context.Context) (*BulkWriter, error) {
	bw := &BulkWriter{log: ix.log}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:      ix.name,
		Client:     ix.es,
		NumWorkers: ix.bulkWorkers,
		FlushBytes: ix.flushBytes,
		OnError: func(_ context.Context, err error) {
			atomic.AddInt64(&bw.flushErrs, 1)
			bw.log.WithError(err).Warn("bulk flush failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating bulk indexer: %w", err)
	}
	bw.bi = bi
	return bw, nil
}

// Add queues one tweet document. The tweet id is the document id, so
// re-adding the same tweet overwrites rather than duplicates.
func (bw *BulkWriter) Add(ctx context.Context, doc types.TweetDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding tweet %d: %w", doc.ID, err)
	}

	return bw.bi.Add(ctx, esutil.BulkIndexerItem{
		Action:     "index",
		DocumentID: strconv.FormatInt(doc.ID, 10),
		Body:       bytes.NewReader(body),
		OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			if err != nil {
				bw.log.WithError(err).WithField("tweet", item.DocumentID).Warn("tweet rejected")
				return
			}
			bw.log.WithFields(logrus.Fields{
				"tweet":  item.DocumentID,
				"type":   res.Error.Type,
				"reason": res.Error.Reason,
			}).Warn("tweet rejected")
		},
	})
}

// Close flushes outstanding items and returns the session stats. A non-zero
// Failed count is not an error here; the caller decides how strict to be.
func (bw *BulkWriter) Close(ctx context.Context) (BulkStats, error) {
	if err := bw.bi.Close(ctx); err != nil {
		return BulkStats{}, fmt.Errorf("closing bulk indexer: %w", err)
	}
	stats := bw.bi.Stats()
	return BulkStats{
		Indexed: int64(stats.NumIndexed),
		Failed:  int64(stats.NumFailed) + atomic.LoadInt64(&bw.flushErrs),
	}, nil
}
