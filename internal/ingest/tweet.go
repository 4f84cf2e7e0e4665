// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest reads gzipped JSON-lines sample files and loads the tweets
// they contain into the search index.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/gwlib/tweetindex/pkg/types"
)

// ScanStats counts line outcomes for one file.
type ScanStats struct {
	// Tweets is the number of complete tweets handed to the callback.
	Tweets int

	// Deletes is the number of delete records, skipped silently.
	Deletes int

	// Malformed is the number of lines that were not valid JSON.
	Malformed int

	// Incomplete is the number of tweets missing required fields.
	Incomplete int
}

// rawTweet is the slice of the Twitter JSON the tool cares about. Pointers
// distinguish absent fields from zero values.
type rawTweet struct {
	Delete    json.RawMessage `json:"delete"`
	ID        *int64          `json:"id"`
	Text      *string         `json:"text"`
	CreatedAt string          `json:"created_at"`
	User      *struct {
		ScreenName string `json:"screen_name"`
	} `json:"user"`
	Entities struct {
		UserMentions []struct {
			ScreenName string `json:"screen_name"`
		} `json:"user_mentions"`
		Hashtags []struct {
			Text string `json:"text"`
		} `json:"hashtags"`
	} `json:"entities"`
}

// ScanTweets reads JSON lines from r and calls fn once per complete tweet.
// Each document carries file and the byte offset of its line in the
// uncompressed stream, so the full record can be located again later.
// Blank lines are ignored, delete records are skipped, and malformed or
// incomplete lines are logged and skipped. An error from fn aborts the scan;
// a read error (typically gzip corruption past the header) is returned as-is.
func ScanTweets(r io.Reader, file string, log *logrus.Entry, fn func(types.TweetDoc) error) (ScanStats, error) {
	br := bufio.NewReader(r)

	var stats ScanStats
	var offset int64
	for {
		line, readErr := br.ReadBytes('\n')
		lineStart := offset
		offset += int64(len(line))

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var raw rawTweet
			switch {
			case json.Unmarshal(trimmed, &raw) != nil:
				stats.Malformed++
				log.WithField("file", file).WithField("offset", lineStart).Warn("malformed tweet")
			case raw.Delete != nil:
				stats.Deletes++
			case raw.ID == nil || raw.Text == nil || raw.User == nil:
				stats.Incomplete++
				log.WithField("file", file).WithField("offset", lineStart).Warn("tweet missing fields")
			default:
				doc := tweetDoc(raw)
				doc.File = file
				doc.Offset = lineStart
				if err := fn(doc); err != nil {
					return stats, err
				}
				stats.Tweets++
			}
		}

		if readErr == io.EOF {
			return stats, nil
		}
		if readErr != nil {
			return stats, readErr
		}
	}
}

// tweetDoc extracts the indexed fields. Mention and hashtag slices are
// allocated even when empty so the index always sees arrays.
func tweetDoc(raw rawTweet) types.TweetDoc {
	mentions := make([]string, 0, len(raw.Entities.UserMentions))
	for _, m := range raw.Entities.UserMentions {
		mentions = append(mentions, m.ScreenName)
	}
	hashtags := make([]string, 0, len(raw.Entities.Hashtags))
	for _, h := range raw.Entities.Hashtags {
		hashtags = append(hashtags, h.Text)
	}

	return types.TweetDoc{
		ID:           *raw.ID,
		Text:         *raw.Text,
		ScreenName:   raw.User.ScreenName,
		CreatedAt:    raw.CreatedAt,
		UserMentions: mentions,
		Hashtags:     hashtags,
	}
}
