// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a local SQLite history of ingest runs. It is
// additive bookkeeping for the status command; the index-resident file
// records remain the cross-operator dedup authority.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

const dbFile = "tweetindex.db"

// Journal wraps the ingest history database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database under stateDir and creates the
// schema if it does not exist.
func Open(stateDir string) (*Journal, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			files_indexed INTEGER NOT NULL DEFAULT 0,
			files_skipped INTEGER NOT NULL DEFAULT 0,
			files_failed INTEGER NOT NULL DEFAULT 0,
			tweets_indexed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS run_files (
			run_id TEXT NOT NULL REFERENCES runs(id),
			file TEXT NOT NULL,
			checksum TEXT,
			tweets INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			PRIMARY KEY (run_id, file)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_files_run ON run_files(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun opens a new run record and returns its id.
func (j *Journal) StartRun(source string) (string, error) {
	id := ulid.Make().String()
	_, err := j.db.Exec(
		`INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)`,
		id, source, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// RecordFile stores one file's outcome within a run, keyed by the full
// source name (path or bucket/key) so same-named files in different
// directories keep separate rows. Re-recording the same source replaces the
// earlier row.
func (j *Journal) RecordFile(runID, file, checksum string, tweets int64, errText string) error {
	_, err := j.db.Exec(
		`INSERT OR REPLACE INTO run_files (run_id, file, checksum, tweets, error)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, file, checksum, tweets, errText,
	)
	if err != nil {
		return fmt.Errorf("inserting run file: %w", err)
	}
	return nil
}

// FinishRun stamps the run's end time and totals.
func (j *Journal) FinishRun(runID string, filesIndexed, filesSkipped, filesFailed int, tweetsIndexed int64) error {
	_, err := j.db.Exec(
		`UPDATE runs SET finished_at = ?, files_indexed = ?, files_skipped = ?,
		        files_failed = ?, tweets_indexed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		filesIndexed, filesSkipped, filesFailed, tweetsIndexed, runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// Run is one recorded ingest run.
type Run struct {
	ID            string
	Source        string
	StartedAt     time.Time
	FinishedAt    time.Time
	FilesIndexed  int
	FilesSkipped  int
	FilesFailed   int
	TweetsIndexed int64
}

// FileEntry is one file's outcome within a run.
type FileEntry struct {
	File     string
	Checksum string
	Tweets   int64
	Error    string
}

// RecentRuns returns up to limit runs, newest first. ULIDs sort
// lexicographically by creation time, so ordering by id is ordering by time.
func (j *Journal) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := j.db.Query(
		`SELECT id, source, started_at, COALESCE(finished_at, ''),
		        files_indexed, files_skipped, files_failed, tweets_indexed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Source, &started, &finished,
			&r.FilesIndexed, &r.FilesSkipped, &r.FilesFailed, &r.TweetsIndexed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunFiles returns the file outcomes of one run, ordered by file name.
func (j *Journal) RunFiles(runID string) ([]FileEntry, error) {
	rows, err := j.db.Query(
		`SELECT file, COALESCE(checksum, ''), tweets, COALESCE(error, '')
		 FROM run_files WHERE run_id = ? ORDER BY file`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying run files: %w", err)
	}
	defer rows.Close()

	var files []FileEntry
	for rows.Next() {
		var f FileEntry
		if err := rows.Scan(&f.File, &f.Checksum, &f.Tweets, &f.Error); err != nil {
			return nil, fmt.Errorf("scanning run file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
