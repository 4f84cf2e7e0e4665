// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenCreatesStateDir(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "nested", "state")
	j, err := Open(stateDir)
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(filepath.Join(stateDir, "tweetindex.db"))
	assert.NoError(t, err)
}

func TestRunLifecycle(t *testing.T) {
	j := openTestJournal(t)

	id, err := j.StartRun("dir:/data/tweets")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, j.RecordFile(id, "sample-1.gz", "abc123", 100, ""))
	require.NoError(t, j.RecordFile(id, "sample-2.gz", "def456", 0, "corrupt gzip"))
	require.NoError(t, j.FinishRun(id, 1, 0, 1, 100))

	runs, err := j.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "dir:/data/tweets", run.Source)
	assert.False(t, run.StartedAt.IsZero())
	assert.False(t, run.FinishedAt.IsZero())
	assert.Equal(t, 1, run.FilesIndexed)
	assert.Equal(t, 1, run.FilesFailed)
	assert.Equal(t, int64(100), run.TweetsIndexed)

	files, err := j.RunFiles(id)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "sample-1.gz", files[0].File)
	assert.Equal(t, "abc123", files[0].Checksum)
	assert.Equal(t, int64(100), files[0].Tweets)
	assert.Empty(t, files[0].Error)
	assert.Equal(t, "corrupt gzip", files[1].Error)
}

func TestRecordFileReplacesEarlierRow(t *testing.T) {
	j := openTestJournal(t)

	id, err := j.StartRun("dir:/data")
	require.NoError(t, err)

	require.NoError(t, j.RecordFile(id, "sample-1.gz", "abc", 0, "bulk flush failed"))
	require.NoError(t, j.RecordFile(id, "sample-1.gz", "abc", 50, ""))

	files, err := j.RunFiles(id)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(50), files[0].Tweets)
	assert.Empty(t, files[0].Error)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	j := openTestJournal(t)

	first, err := j.StartRun("dir:/a")
	require.NoError(t, err)
	second, err := j.StartRun("bucket:sample")
	require.NoError(t, err)

	runs, err := j.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	limited, err := j.RecentRuns(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second, limited[0].ID)
}

func TestRunFilesUnknownRun(t *testing.T) {
	j := openTestJournal(t)
	files, err := j.RunFiles("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir)
	require.NoError(t, err)
	id, err := j.StartRun("dir:/data")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	// Reopening sees the existing schema and data.
	j2, err := Open(dir)
	require.NoError(t, err)
	defer j2.Close()

	runs, err := j2.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
}
