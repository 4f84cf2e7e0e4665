// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads AWS and Elasticsearch credentials from a directory
// of plain-text key files: the filename is the key name, the trimmed file
// contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The key files the tool reads. Anything else in the directory is ignored.
const (
	AWSAccessKeyID     = "aws-access-key-id"
	AWSSecretAccessKey = "aws-secret-access-key"
	ESUsername         = "es-username"
	ESPassword         = "es-password"
)

var keyFiles = []string{AWSAccessKeyID, AWSSecretAccessKey, ESUsername, ESPassword}

// Load reads the recognized key files under dir. A missing directory or
// missing key files are not errors; absent or empty keys are simply not in
// the returned map.
func Load(dir string) (map[string]string, error) {
	secrets := make(map[string]string)
	for _, name := range keyFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading secret %s: %w", name, err)
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}
