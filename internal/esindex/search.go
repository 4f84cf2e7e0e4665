// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gwlib/tweetindex/internal/query"
	"github.com/gwlib/tweetindex/pkg/types"
)

// scrollKeepAlive is how long the cluster keeps a scroll cursor between
// batches.
const scrollKeepAlive = time.Minute

// scrollBatchSize is the page size used while scrolling the full result set.
const scrollBatchSize = 100

const dateLayout = "2006-01-02"

// Result is one page of query hits.
type Result struct {
	Total  int64
	Tweets []types.TweetDoc
}

// BuildSearchBody translates query parameters into the request body. The
// free text becomes a scored match on text; everything else is a filter.
// Values within one terms filter are ORed, the clauses themselves ANDed.
func BuildSearchBody(p query.Params) map[string]interface{} {
	var must []interface{}
	if p.Text != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"text": p.Text},
		})
	}

	var filter []interface{}
	termFilters := []struct {
		field  string
		values []string
	}{
		{"screen_name", p.Users},
		{"user_mentions", p.Mentions},
		{"hashtags", p.Hashtags},
	}
	for _, tf := range termFilters {
		if len(tf.values) > 0 {
			filter = append(filter, map[string]interface{}{
				"terms": map[string]interface{}{tf.field: tf.values},
			})
		}
	}

	if !p.DateFrom.IsZero() || !p.DateTo.IsZero() {
		bounds := map[string]interface{}{}
		if !p.DateFrom.IsZero() {
			bounds["gte"] = p.DateFrom.Format(dateLayout)
		}
		if !p.DateTo.IsZero() {
			bounds["lte"] = p.DateTo.Format(dateLayout)
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"created_at": bounds},
		})
	}

	if len(must) == 0 && len(filter) == 0 {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		}
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}

// --- response envelopes ---

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	Source types.TweetDoc `json:"_source"`
}

func (r searchResponse) tweets() []types.TweetDoc {
	tweets := make([]types.TweetDoc, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		tweets = append(tweets, h.Source)
	}
	return tweets
}

// Search runs a paged query. from is 0-based.
func (ix *Index) Search(ctx context.Context, p query.Params, from, size int) (*Result, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(BuildSearchBody(p)); err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.name),
		ix.es.Search.WithBody(&buf),
		ix.es.Search.WithFrom(from),
		ix.es.Search.WithSize(size),
		ix.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var sr searchResponse
	if err := readResponse(res, &sr); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &Result{
		Total:  sr.Hits.Total.Value,
		Tweets: sr.tweets(),
	}, nil
}

// ScrollAll streams every hit of the query through fn, in index order,
// using the scroll API. fn returning an error aborts the scroll.
func (ix *Index) ScrollAll(ctx context.Context, p query.Params, fn func(types.TweetDoc) error) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(BuildSearchBody(p)); err != nil {
		return fmt.Errorf("encoding query: %w", err)
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.name),
		ix.es.Search.WithBody(&buf),
		ix.es.Search.WithSize(scrollBatchSize),
		ix.es.Search.WithScroll(scrollKeepAlive),
	)
	if err != nil {
		return fmt.Errorf("scroll: %w", err)
	}

	var sr searchResponse
	if err := readResponse(res, &sr); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}

	scrollID := sr.ScrollID
	defer func() { ix.clearScroll(scrollID) }()

	for len(sr.Hits.Hits) > 0 {
		for _, t := range sr.tweets() {
			if err := fn(t); err != nil {
				return err
			}
		}

		res, err := ix.es.Scroll(
			ix.es.Scroll.WithContext(ctx),
			ix.es.Scroll.WithScrollID(scrollID),
			ix.es.Scroll.WithScroll(scrollKeepAlive),
		)
		if err != nil {
			return fmt.Errorf("scroll continuation: %w", err)
		}

		sr = searchResponse{}
		if err := readResponse(res, &sr); err != nil {
			return fmt.Errorf("scroll continuation: %w", err)
		}
		if sr.ScrollID != "" {
			scrollID = sr.ScrollID
		}
	}
	return nil
}

func (ix *Index) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}
	res, err := ix.es.ClearScroll(ix.es.ClearScroll.WithScrollID(scrollID))
	if err != nil {
		ix.log.WithError(err).Debug("clearing scroll failed")
		return
	}
	if res.Body != nil {
		res.Body.Close()
	}
}
