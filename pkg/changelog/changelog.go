// Package changelog serves the application's release notes.
package changelog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed changelog.json
var embedded []byte

// Entry is one release.
type Entry struct {
	Version string   `json:"version"`
	Date    string   `json:"date"`
	Changes []string `json:"changes"`
}

// Default returns the release notes compiled into the binary.
func Default() ([]Entry, error) {
	return Parse(embedded)
}

// Load reads release notes from path, or returns Default when path is empty.
func Load(path string) ([]Entry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read changelog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of entries.
func Parse(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse changelog: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
