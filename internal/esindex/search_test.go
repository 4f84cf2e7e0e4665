// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package esindex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwlib/tweetindex/internal/query"
)

// roundTrip normalizes the body through JSON so assertions see the same
// types the cluster would.
func roundTrip(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func boolClause(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	q, ok := body["query"].(map[string]interface{})
	require.True(t, ok)
	b, ok := q["bool"].(map[string]interface{})
	require.True(t, ok)
	return b
}

func TestBuildSearchBodyEmptyIsMatchAll(t *testing.T) {
	body := roundTrip(t, BuildSearchBody(query.Params{}))
	q := body["query"].(map[string]interface{})
	assert.Contains(t, q, "match_all")
}

func TestBuildSearchBodyTextIsScoredMatch(t *testing.T) {
	body := roundTrip(t, BuildSearchBody(query.Params{Text: "snow day"}))
	b := boolClause(t, body)

	must := b["must"].([]interface{})
	require.Len(t, must, 1)
	match := must[0].(map[string]interface{})["match"].(map[string]interface{})
	assert.Equal(t, "snow day", match["text"])
	assert.NotContains(t, b, "filter")
}

func TestBuildSearchBodyTermsFilters(t *testing.T) {
	p := query.Params{
		Users:    []string{"alice", "bob"},
		Mentions: []string{"carol"},
		Hashtags: []string{"snow"},
	}
	body := roundTrip(t, BuildSearchBody(p))
	b := boolClause(t, body)

	filter := b["filter"].([]interface{})
	require.Len(t, filter, 3)

	terms0 := filter[0].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []interface{}{"alice", "bob"}, terms0["screen_name"])
	terms1 := filter[1].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []interface{}{"carol"}, terms1["user_mentions"])
	terms2 := filter[2].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []interface{}{"snow"}, terms2["hashtags"])
}

func TestBuildSearchBodyDateRange(t *testing.T) {
	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		wantGte string
		wantLte string
	}{
		{
			name:    "both bounds",
			from:    time.Date(2014, 1, 2, 0, 0, 0, 0, time.UTC),
			to:      time.Date(2014, 2, 3, 0, 0, 0, 0, time.UTC),
			wantGte: "2014-01-02",
			wantLte: "2014-02-03",
		},
		{
			name:    "from only",
			from:    time.Date(2014, 1, 2, 0, 0, 0, 0, time.UTC),
			wantGte: "2014-01-02",
		},
		{
			name:    "to only",
			to:      time.Date(2014, 2, 3, 0, 0, 0, 0, time.UTC),
			wantLte: "2014-02-03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := roundTrip(t, BuildSearchBody(query.Params{DateFrom: tt.from, DateTo: tt.to}))
			b := boolClause(t, body)

			filter := b["filter"].([]interface{})
			require.Len(t, filter, 1)
			bounds := filter[0].(map[string]interface{})["range"].(map[string]interface{})["created_at"].(map[string]interface{})

			if tt.wantGte != "" {
				assert.Equal(t, tt.wantGte, bounds["gte"])
			} else {
				assert.NotContains(t, bounds, "gte")
			}
			if tt.wantLte != "" {
				assert.Equal(t, tt.wantLte, bounds["lte"])
			} else {
				assert.NotContains(t, bounds, "lte")
			}
		})
	}
}

func TestBuildSearchBodyCombined(t *testing.T) {
	p := query.Params{
		Text:     "blizzard",
		Users:    []string{"nws"},
		DateFrom: time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	body := roundTrip(t, BuildSearchBody(p))
	b := boolClause(t, body)

	assert.Len(t, b["must"].([]interface{}), 1)
	// terms filter plus date range, ANDed.
	assert.Len(t, b["filter"].([]interface{}), 2)
}
