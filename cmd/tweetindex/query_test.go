// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwlib/tweetindex/pkg/types"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

// swapGlobals snapshots the package globals the commands read and restores
// them when the test finishes.
func swapGlobals(t *testing.T) {
	t.Helper()
	prevCfg, prevSecrets, prevLog := cfg, loadedSecrets, log
	t.Cleanup(func() {
		cfg, loadedSecrets, log = prevCfg, prevSecrets, prevLog
	})
}

// setFlags sets command flags for one test and resets them to their defaults
// afterwards, since the command values are package globals.
func setFlags(t *testing.T, cmd *cobra.Command, values map[string]string) {
	t.Helper()
	for name, value := range values {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	t.Cleanup(func() {
		for name := range values {
			f := cmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

func TestResolvePaging(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		size      int
		wantStart int
		wantSize  int
		wantErr   bool
	}{
		{name: "explicit values pass through", start: 3, size: 25, wantStart: 3, wantSize: 25},
		{name: "unset size uses the configured default", start: 1, size: 0, wantStart: 1, wantSize: 10},
		{name: "negative size uses the configured default", start: 2, size: -1, wantStart: 2, wantSize: 10},
		{name: "zero start is rejected", start: 0, size: 5, wantErr: true},
		{name: "negative start is rejected", start: -2, size: 5, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, size, err := resolvePaging(tt.start, tt.size, 10)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "1-based")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestRunQueryRejectsZeroStart(t *testing.T) {
	swapGlobals(t)
	cfg = types.DefaultConfig()
	log = testLog()
	queryCmd.SetContext(context.Background())
	setFlags(t, queryCmd, map[string]string{"start": "0"})

	err := runQuery(queryCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1-based")
}

func TestRunQueryAllBypassesPaging(t *testing.T) {
	swapGlobals(t)

	var (
		mu          sync.Mutex
		searchQuery string
		scrolled    bool
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/":
			fmt.Fprint(w, `{"tagline":"You Know, for Search"}`)
		case r.URL.Path == "/sample-index/_search":
			mu.Lock()
			searchQuery = r.URL.RawQuery
			mu.Unlock()
			fmt.Fprint(w, `{"_scroll_id":"cursor-1","hits":{"total":{"value":1},"hits":[{"_source":{"id":1,"text":"a","screen_name":"alice"}}]}}`)
		case r.URL.Path == "/_search/scroll" && r.Method != http.MethodDelete:
			mu.Lock()
			scrolled = true
			mu.Unlock()
			fmt.Fprint(w, `{"_scroll_id":"cursor-1","hits":{"total":{"value":1},"hits":[]}}`)
		case r.URL.Path == "/_search/scroll":
			fmt.Fprint(w, `{"succeeded":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)

	cfg = types.DefaultConfig()
	cfg.Index.Addresses = []string{ts.URL}
	log = testLog()
	queryCmd.SetContext(context.Background())

	// --start and --size are set but --all must ignore them.
	setFlags(t, queryCmd, map[string]string{"all": "true", "start": "7", "size": "3"})

	require.NoError(t, runQuery(queryCmd, nil))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, scrolled)
	assert.Contains(t, searchQuery, "scroll=")
	assert.NotContains(t, searchQuery, "from=")
	assert.NotContains(t, searchQuery, "size=3")
}
