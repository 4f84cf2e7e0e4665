// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the tweetindex pipeline.
package types

import "time"

// TweetDoc is the subset of a tweet stored in the search index. The whole
// tweet is never indexed; only the queryable fields plus enough provenance
// (source file and byte offset in the uncompressed stream) to find the full
// record again.
type TweetDoc struct {
	// ID is the tweet's numeric id and doubles as the document id, which
	// makes indexing idempotent.
	ID int64 `json:"id"`

	// Text is the tweet body.
	Text string `json:"text"`

	// ScreenName is the author's screen name, without the leading @.
	ScreenName string `json:"screen_name"`

	// CreatedAt is the tweet timestamp exactly as Twitter emitted it
	// (e.g. "Sun Dec 31 17:09:00 +0000 2017"). The index mapping knows
	// this format; the tool never reparses it.
	CreatedAt string `json:"created_at"`

	// UserMentions lists the screen names mentioned in the tweet.
	UserMentions []string `json:"user_mentions"`

	// Hashtags lists the hashtag texts, without the leading #.
	Hashtags []string `json:"hashtags"`

	// File is the basename of the sample file the tweet came from.
	File string `json:"file"`

	// Offset is the byte offset of the tweet's line in the uncompressed file.
	Offset int64 `json:"offset"`
}

// FileRecord marks a sample file as indexed. Records live in the file index
// so that independent operators share dedup state.
type FileRecord struct {
	// File is the basename of the sample file.
	File string `json:"file"`

	// MD5 is the lowercase hex md5 of the local file path. Empty for
	// bucket files.
	MD5 string `json:"md5,omitempty"`

	// ETag is the object-store ETag with surrounding quotes stripped.
	// Empty for local files.
	ETag string `json:"etag,omitempty"`

	// IndexDate is when the file finished indexing.
	IndexDate time.Time `json:"index_date"`
}
