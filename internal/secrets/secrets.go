// Copyright Peter L. Morrell, 2026. All rights reserved.

// Package secrets loads NCBI credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Supported key files: ncbi-api-key, ncbi-email.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Known lists the secret names the pipeline understands. Unknown files are
// still loaded but produce a warning, since a typo in a key filename would
// otherwise silently run without credentials.
var Known = []string{"ncbi-api-key", "ncbi-email"}

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files and unrecognized key names produce warnings on w but do
// not abort.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value == "" {
			continue
		}
		if !known(name) {
			fmt.Fprintf(w, "warning: unrecognized secret %s (expected one of %v)\n", name, Known)
		}
		secrets[name] = value
	}

	return secrets, nil
}

func known(name string) bool {
	for _, k := range Known {
		if k == name {
			return true
		}
	}
	return false
}
