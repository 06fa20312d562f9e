// Package dump writes fetched API lists to disk for troubleshooting.
package dump

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer writes <dir>/<name>.json. A zero Writer is a no-op.
type Writer struct {
	Dir string
}

func (w Writer) Enabled() bool {
	return w.Dir != ""
}

func (w Writer) Write(name string, value any) error {
	if !w.Enabled() {
		return nil
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dump %s: %w", name, err)
	}
	path := filepath.Join(w.Dir, name+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write dump %s: %w", path, err)
	}
	return nil
}
