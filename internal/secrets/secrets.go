// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files, with environment-variable fallback. Each file in the
// directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, semantic-scholar-api-key, smtp-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envNames maps secret key names to the environment variables consulted
// when no key file is present.
var envNames = map[string]string{
	"openai-api-key":           "OPENAI_API_KEY",
	"semantic-scholar-api-key": "S2_API_KEY",
	"smtp-password":            "SMTP_PASSWORD",
}

// Load reads all files in dir and returns a map of filename to trimmed
// contents, filling gaps from the environment. A missing directory or
// missing files are not errors; optional credentials simply stay absent.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	secrets := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	for key, env := range envNames {
		if secrets[key] != "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			secrets[key] = v
		}
	}

	return secrets, nil
}
