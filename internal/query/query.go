// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds tweet queries from flags or files and renders results.
package query

import (
	"fmt"
	"os"
	"time"

	"github.com/araddon/dateparse"
	"go.yaml.in/yaml/v3"
)

// Params holds the tweet query criteria. All populated criteria are ANDed;
// the values within Users, Mentions, and Hashtags are ORed.
type Params struct {
	// Text matches against the tweet body.
	Text string

	// DateFrom and DateTo bound created_at inclusively. Zero means unbounded.
	DateFrom time.Time
	DateTo   time.Time

	// Users filters by author screen name, without the leading @.
	Users []string

	// Mentions filters by mentioned screen name, without the leading @.
	Mentions []string

	// Hashtags filters by hashtag text, without the leading #.
	Hashtags []string
}

// IsEmpty reports whether the query has no criteria at all. An empty query
// matches every tweet.
func (p Params) IsEmpty() bool {
	return p.Text == "" &&
		p.DateFrom.IsZero() && p.DateTo.IsZero() &&
		len(p.Users) == 0 && len(p.Mentions) == 0 && len(p.Hashtags) == 0
}

// ParseDate parses a date flag permissively: "2014-01-02", "Jan 2 2014",
// "01/02/2014" and most other common layouts all work.
func ParseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", s, err)
	}
	return t, nil
}

// queryFile is the on-disk shape for --file. YAML and JSON both decode
// (JSON is a YAML subset).
type queryFile struct {
	Text     string   `yaml:"text"`
	DateFrom string   `yaml:"date_from"`
	DateTo   string   `yaml:"date_to"`
	Users    []string `yaml:"users"`
	Mentions []string `yaml:"mentions"`
	Hashtags []string `yaml:"hashtags"`
}

// LoadFile reads query parameters from a YAML or JSON file. The entries
// mirror the query command's flags.
func LoadFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("reading query file: %w", err)
	}

	var qf queryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return Params{}, fmt.Errorf("parsing query file %s: %w", path, err)
	}

	p := Params{
		Text:     qf.Text,
		Users:    qf.Users,
		Mentions: qf.Mentions,
		Hashtags: qf.Hashtags,
	}
	if qf.DateFrom != "" {
		if p.DateFrom, err = ParseDate(qf.DateFrom); err != nil {
			return Params{}, err
		}
	}
	if qf.DateTo != "" {
		if p.DateTo, err = ParseDate(qf.DateTo); err != nil {
			return Params{}, err
		}
	}
	return p, nil
}
