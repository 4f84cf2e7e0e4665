// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package esindex wraps the Elasticsearch client for the tweet sample index:
// index lifecycle, bulk ingestion, file-record dedup, and queries.
package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/sirupsen/logrus"

	"github.com/gwlib/tweetindex/internal/httputil"
	"github.com/gwlib/tweetindex/pkg/types"
)

// tweetMappings defines the tweet index. Only text is analyzed; the other
// queryable fields are exact-match keywords. created_at accepts ISO dates or
// Twitter's native timestamp format. file and offset are stored for
// provenance but never searched.
const tweetMappings = `
{
  "settings": {
    "index.query.default_field": "text"
  },
  "mappings": {
    "properties": {
      "created_at":    { "type": "date", "format": "date_optional_time||EEE MMM dd HH:mm:ss Z yyyy" },
      "file":          { "type": "keyword", "index": false },
      "hashtags":      { "type": "keyword" },
      "id":            { "type": "long", "index": false },
      "offset":        { "type": "long", "index": false },
      "screen_name":   { "type": "keyword" },
      "text":          { "type": "text" },
      "user_mentions": { "type": "keyword" }
    }
  }
}`

// fileMappings defines the companion index holding one record per indexed
// sample file, keyed by md5 (local) or etag (bucket).
const fileMappings = `
{
  "mappings": {
    "properties": {
      "file":       { "type": "keyword" },
      "md5":        { "type": "keyword" },
      "etag":       { "type": "keyword" },
      "index_date": { "type": "date" }
    }
  }
}`

// filesSuffix is appended to the tweet index name for the file-record index.
const filesSuffix = "-files"

// Index is a handle on the tweet and file-record indices of one cluster.
type Index struct {
	es          *elasticsearch.Client
	name        string
	filesName   string
	address     string
	username    string
	password    string
	bulkWorkers int
	flushBytes  int
	log         *logrus.Entry
}

// New builds an Index from configuration. It does not touch the network;
// call WaitReady or Ensure before the first operation.
func New(cfg types.IndexConfig, log *logrus.Entry) (*Index, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	return &Index{
		es:          es,
		name:        cfg.Name,
		filesName:   cfg.Name + filesSuffix,
		address:     cfg.Addresses[0],
		username:    cfg.Username,
		password:    cfg.Password,
		bulkWorkers: cfg.BulkWorkers,
		flushBytes:  cfg.BulkFlushBytes,
		log:         log,
	}, nil
}

// Name returns the tweet index name.
func (ix *Index) Name() string { return ix.name }

// WaitReady pings the cluster root with backoff so a command does not fail
// against a cluster that is still coming up.
func (ix *Index) WaitReady(ctx context.Context) error {
	req, err := http.NewRequest(http.MethodGet, ix.address, nil)
	if err != nil {
		return err
	}
	if ix.username != "" {
		req.SetBasicAuth(ix.username, ix.password)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("elasticsearch at %s is not reachable: %w", ix.address, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("elasticsearch at %s returned HTTP %d", ix.address, resp.StatusCode)
	}
	return nil
}

// Ensure creates the tweet and file-record indices if they do not exist.
// An index that already exists is left untouched.
func (ix *Index) Ensure(ctx context.Context) error {
	for name, mappings := range map[string]string{
		ix.name:      tweetMappings,
		ix.filesName: fileMappings,
	} {
		if err := ix.createIndex(ctx, name, mappings, true); err != nil {
			return err
		}
	}
	return nil
}

// Recreate deletes both indices if present and creates them fresh. All
// indexed tweets and file records are lost.
func (ix *Index) Recreate(ctx context.Context) error {
	for _, name := range []string{ix.name, ix.filesName} {
		res, err := ix.es.Indices.Exists([]string{name}, ix.es.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("checking index %s: %w", name, err)
		}
		if res.Body != nil {
			res.Body.Close()
		}
		if res.StatusCode == http.StatusOK {
			ix.log.WithField("index", name).Info("deleting index")
			del, err := ix.es.Indices.Delete([]string{name}, ix.es.Indices.Delete.WithContext(ctx))
			if err != nil {
				return fmt.Errorf("deleting index %s: %w", name, err)
			}
			if err := readResponse(del, nil); err != nil {
				return fmt.Errorf("deleting index %s: %w", name, err)
			}
		}
	}

	for name, mappings := range map[string]string{
		ix.name:      tweetMappings,
		ix.filesName: fileMappings,
	} {
		ix.log.WithField("index", name).Info("creating index")
		if err := ix.createIndex(ctx, name, mappings, false); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Index) createIndex(ctx context.Context, name, mappings string, tolerateExisting bool) error {
	res, err := ix.es.Indices.Create(name,
		ix.es.Indices.Create.WithBody(strings.NewReader(mappings)),
		ix.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("creating index %s: %w", name, err)
	}
	if err := readResponse(res, nil); err != nil {
		var esErr esError
		if tolerateExisting && asESError(err, &esErr) && esErr.Type == "resource_already_exists_exception" {
			return nil
		}
		return fmt.Errorf("creating index %s: %w", name, err)
	}
	return nil
}

// FileIndexed reports whether a file with the given md5 or etag has already
// been recorded. Either key may be empty.
func (ix *Index) FileIndexed(ctx context.Context, md5, etag string) (bool, error) {
	for field, value := range map[string]string{"md5": md5, "etag": etag} {
		if value == "" {
			continue
		}
		found, err := ix.fileKeyExists(ctx, field, strings.ToLower(value))
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (ix *Index) fileKeyExists(ctx context.Context, field, value string) (bool, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{field: value},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return false, err
	}

	res, err := ix.es.Count(
		ix.es.Count.WithContext(ctx),
		ix.es.Count.WithIndex(ix.filesName),
		ix.es.Count.WithBody(&buf),
	)
	if err != nil {
		return false, fmt.Errorf("checking %s %s: %w", field, value, err)
	}

	var countRes struct {
		Count int64 `json:"count"`
	}
	if err := readResponse(res, &countRes); err != nil {
		return false, fmt.Errorf("checking %s %s: %w", field, value, err)
	}
	ix.log.WithFields(logrus.Fields{field: value, "count": countRes.Count}).Debug("file dedup check")
	return countRes.Count > 0, nil
}

// RecordFile writes the already-indexed marker for a file. The document id
// is the md5 when present, otherwise the etag, so re-recording is idempotent.
func (ix *Index) RecordFile(ctx context.Context, rec types.FileRecord) error {
	rec.MD5 = strings.ToLower(rec.MD5)
	rec.ETag = strings.ToLower(rec.ETag)
	if rec.IndexDate.IsZero() {
		rec.IndexDate = time.Now().UTC()
	}

	docID := rec.MD5
	if docID == "" {
		docID = rec.ETag
	}
	if docID == "" {
		return fmt.Errorf("file record for %s has neither md5 nor etag", rec.File)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encoding file record: %w", err)
	}

	res, err := ix.es.Index(ix.filesName, &buf,
		ix.es.Index.WithDocumentID(docID),
		ix.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("recording file %s: %w", rec.File, err)
	}
	if err := readResponse(res, nil); err != nil {
		return fmt.Errorf("recording file %s: %w", rec.File, err)
	}
	return nil
}

// --- error envelope ---

type esErrorResponse struct {
	Error esError `json:"error"`
}

type esError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e esError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

func asESError(err error, target *esError) bool {
	if e, ok := err.(esError); ok {
		*target = e
		return true
	}
	return false
}

// readResponse decodes an API response into to, or into the error envelope
// when the response carries an error status. to may be nil when the caller
// only cares about success.
func readResponse(res *esapi.Response, to interface{}) error {
	defer res.Body.Close()

	if res.IsError() {
		var errRes esErrorResponse
		if err := json.NewDecoder(res.Body).Decode(&errRes); err != nil {
			return fmt.Errorf("HTTP %d from elasticsearch", res.StatusCode)
		}
		return errRes.Error
	}

	if to == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(to)
}
