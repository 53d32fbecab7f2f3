package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DateRegistry remembers when each app was first seen, so regenerating the
// manifest never shifts an app's createdOn date. It lives in a sidecar JSON
// file next to the manifest.
type DateRegistry struct {
	path  string
	dates map[string]string
	dirty bool
}

// LoadDateRegistry reads the registry at path, starting empty when the file
// does not exist or cannot be parsed.
func LoadDateRegistry(path string) (*DateRegistry, error) {
	r := &DateRegistry{path: path, dates: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read date registry: %w", err)
	}
	if err := json.Unmarshal(data, &r.dates); err != nil {
		return nil, fmt.Errorf("parse date registry %s: %w", path, err)
	}
	return r, nil
}

// CreatedOn returns the first-seen date for id, registering now (as a
// YYYY-MM-DD day) when the id is new.
func (r *DateRegistry) CreatedOn(id string, now time.Time) string {
	if date, ok := r.dates[id]; ok {
		return date
	}
	date := now.UTC().Format("2006-01-02")
	r.dates[id] = date
	r.dirty = true
	return date
}

// Len reports the number of registered apps.
func (r *DateRegistry) Len() int {
	return len(r.dates)
}

// Save persists the registry when new apps were registered since load.
func (r *DateRegistry) Save() error {
	if !r.dirty {
		return nil
	}
	data, err := json.MarshalIndent(r.dates, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal date registry: %w", err)
	}
	if err := os.WriteFile(r.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write date registry: %w", err)
	}
	r.dirty = false
	return nil
}
