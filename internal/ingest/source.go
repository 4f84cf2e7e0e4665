// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source is one gzipped sample file awaiting ingestion, wherever it lives.
// Exactly one of MD5 and ETag is set: MD5 for local files, ETag for bucket
// objects. Open returns the raw (still compressed) stream.
type Source struct {
	// Name identifies the source in logs: the local path or the object key.
	Name string

	// File is the basename recorded in tweet documents and file records.
	File string

	// MD5 is the lowercase hex md5 of the local file path.
	MD5 string

	// ETag is the object-store ETag, quotes stripped.
	ETag string

	// Open returns the compressed stream.
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// PathMD5 returns the lowercase hex md5 of a file path. The path, not the
// contents, is the dedup key for local files: sample files are immutable
// once written, so hashing gigabytes of content buys nothing.
func PathMD5(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}

// WalkDir walks a directory tree and returns a Source per file matching
// prefix*.gz. maxFiles bounds the matches taken from each directory;
// zero means unbounded.
func WalkDir(root, prefix string, maxFiles int) ([]Source, error) {
	var sources []Source
	perDir := map[string]int{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".gz") {
			return nil
		}

		dir := filepath.Dir(path)
		if maxFiles > 0 && perDir[dir] >= maxFiles {
			return nil
		}
		perDir[dir]++

		p := path
		sources = append(sources, Source{
			Name: p,
			File: name,
			MD5:  PathMD5(p),
			Open: func(context.Context) (io.ReadCloser, error) {
				return os.Open(p)
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return sources, nil
}
