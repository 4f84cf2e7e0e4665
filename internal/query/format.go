// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gwlib/tweetindex/pkg/types"
)

// WriteTweet writes one human-readable line for a tweet.
func WriteTweet(w io.Writer, t types.TweetDoc) {
	fmt.Fprintf(w, "@%s tweeted %q on %s\n", t.ScreenName, t.Text, t.CreatedAt)
}

// WriteText writes one human-readable line per tweet.
func WriteText(w io.Writer, tweets []types.TweetDoc) {
	for _, t := range tweets {
		WriteTweet(w, t)
	}
}

// WriteSummary writes the total match count after a paged listing.
func WriteSummary(w io.Writer, total int64) {
	fmt.Fprintf(w, "%d matches\n", total)
}

// CSVWriter streams tweets as CSV rows: screen_name, text, created_at.
// Output is UTF-8 with standard CSV quoting.
type CSVWriter struct {
	cw *csv.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{cw: csv.NewWriter(w)}
}

// Write emits one row.
func (c *CSVWriter) Write(t types.TweetDoc) error {
	if err := c.cw.Write([]string{t.ScreenName, t.Text, t.CreatedAt}); err != nil {
		return fmt.Errorf("writing csv row: %w", err)
	}
	return nil
}

// Flush writes any buffered rows through and reports write errors.
func (c *CSVWriter) Flush() error {
	c.cw.Flush()
	return c.cw.Error()
}

// WriteCSV writes one row per tweet.
func WriteCSV(w io.Writer, tweets []types.TweetDoc) error {
	cw := NewCSVWriter(w)
	for _, t := range tweets {
		if err := cw.Write(t); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// JSONStream writes tweets as an indented JSON array one element at a time,
// so a full scroll never has to sit in memory. Close finishes the array.
type JSONStream struct {
	w     io.Writer
	count int64
}

func NewJSONStream(w io.Writer) *JSONStream {
	return &JSONStream{w: w}
}

// Write emits one array element.
func (s *JSONStream) Write(t types.TweetDoc) error {
	sep := ",\n"
	if s.count == 0 {
		sep = "[\n"
	}
	data, err := json.MarshalIndent(t, "  ", "  ")
	if err != nil {
		return fmt.Errorf("encoding tweet %d: %w", t.ID, err)
	}
	if _, err := fmt.Fprintf(s.w, "%s  %s", sep, data); err != nil {
		return err
	}
	s.count++
	return nil
}

// Close terminates the array. An empty stream closes to [].
func (s *JSONStream) Close() error {
	if s.count == 0 {
		_, err := fmt.Fprintln(s.w, "[]")
		return err
	}
	_, err := fmt.Fprintln(s.w, "\n]")
	return err
}

// WriteJSON writes the tweets as an indented JSON array.
func WriteJSON(w io.Writer, tweets []types.TweetDoc) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tweets)
}
