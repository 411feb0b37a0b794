package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry summarizes one converted model in the output manifest.
type ManifestEntry struct {
	Source    string `json:"source"`
	Name      string `json:"name,omitempty"`
	Dump      string `json:"dump,omitempty"`
	Meshes    int    `json:"meshes"`
	Sequences int    `json:"sequences"`
	Error     string `json:"error,omitempty"`
}

// WriteManifest writes manifest.json summarizing a batch run.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Source:    filepath.Base(r.Path),
			Name:      r.Name,
			Meshes:    r.Meshes,
			Sequences: r.Sequences,
			Error:     r.Error,
		}
		if r.Success {
			entries[i].Dump = r.Name + ".json"
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
