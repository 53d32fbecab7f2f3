package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Override is an editorial patch for one entry. Only set fields win over
// extracted values; everything else stays extraction-derived.
type Override struct {
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Category        *Category `json:"category,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	InteractionType *string   `json:"interactionType,omitempty"`
	Complexity      *string   `json:"complexity,omitempty"`
	Featured        *bool     `json:"featured,omitempty"`
	CreatedOn       *string   `json:"createdOn,omitempty"`
}

// Overrides maps entry id to its editorial patch.
type Overrides map[string]Override

// LoadOverrides reads the overrides document. A missing file is not an
// error; it simply means no overrides.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Overrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}

	var o Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse overrides %s: %w", path, err)
	}
	return o, nil
}

// Apply patches the entry with the override's set fields.
func (o Override) Apply(entry *AppEntry) {
	if o.Title != nil {
		entry.Title = *o.Title
	}
	if o.Description != nil {
		entry.Description = *o.Description
	}
	if o.Category != nil && o.Category.Valid() {
		entry.Category = *o.Category
	}
	if o.Tags != nil {
		entry.Tags = append([]string(nil), (*o.Tags)...)
	}
	if o.InteractionType != nil {
		entry.InteractionType = *o.InteractionType
	}
	if o.Complexity != nil {
		entry.Complexity = *o.Complexity
	}
	if o.Featured != nil {
		entry.Featured = *o.Featured
	}
	if o.CreatedOn != nil {
		entry.CreatedOn = *o.CreatedOn
	}
}

// Stale returns the override ids that matched no built entry, sorted.
func (o Overrides) Stale(used map[string]bool) []string {
	var stale []string
	for id := range o {
		if !used[id] {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	return stale
}
