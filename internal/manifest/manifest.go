package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion identifies the manifest layout for the engine-side
// importer. Bump it whenever a field changes meaning.
const SchemaVersion = "1.0"

const defaultTitle = "slateflow_import"

// Build assembles a manifest from resolved entries. Entries keep the
// order they were passed in, which callers derive from the catalog's
// filename ordering.
func Build(title, importRoot string, entries []Entry, skipped []SkippedEntry) *Manifest {
	if title == "" {
		title = defaultTitle
	}
	if entries == nil {
		entries = []Entry{}
	}
	return &Manifest{
		SchemaVersion: SchemaVersion,
		Title:         title,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		ImportRoot:    importRoot,
		Entries:       entries,
		Skipped:       skipped,
	}
}

// Write serializes the manifest into dir and returns the full path of
// the written file. The filename is derived from the manifest title, so
// regenerating a manifest for the same source overwrites the previous
// one instead of piling up copies.
func Write(m *Manifest, dir string) (string, error) {
	name := SanitizeName(m.Title, 120)
	if name == "" {
		name = defaultTitle
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(dir, name+".json")
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", err
	}
	return outputPath, nil
}
