// Package manifest defines the gallery manifest data model and the builder
// that produces the canonical JSON index consumed by the gallery page.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is bumped on breaking changes to the manifest shape.
const SchemaVersion = 2

// Category is a fixed taxonomy bucket in the manifest.
type Category string

// The closed category set. Every app resolves to exactly one of these.
const (
	CategoryVisualArt        Category = "visual_art"
	Category3DImmersive      Category = "3d_immersive"
	CategoryAudioMusic       Category = "audio_music"
	CategoryGenerativeArt    Category = "generative_art"
	CategoryGamesPuzzles     Category = "games_puzzles"
	CategoryParticlePhysics  Category = "particle_physics"
	CategoryCreativeTools    Category = "creative_tools"
	CategoryExperimentalAI   Category = "experimental_ai"
	CategoryEducationalTools Category = "educational_tools"

	// CategoryArchive is a synthetic bucket for the archive subtree when the
	// caller chooses to surface it instead of excluding it.
	CategoryArchive Category = "archive"
)

// FallbackCategory receives entries with no classification signal.
const FallbackCategory = CategoryExperimentalAI

// CategoryOrder is the declared output order of categories in the manifest.
var CategoryOrder = []Category{
	CategoryVisualArt,
	Category3DImmersive,
	CategoryAudioMusic,
	CategoryGenerativeArt,
	CategoryGamesPuzzles,
	CategoryParticlePhysics,
	CategoryCreativeTools,
	CategoryExperimentalAI,
	CategoryEducationalTools,
	CategoryArchive,
}

// CategoryInfo is presentation metadata for a category.
type CategoryInfo struct {
	Title       string
	Description string
	Color       string
}

// Categories maps each category to its presentation metadata.
var Categories = map[Category]CategoryInfo{
	CategoryVisualArt: {
		Title:       "Visual Art & Design",
		Description: "Interactive visual experiences, generative art, and design tools",
		Color:       "#ff6b9d",
	},
	Category3DImmersive: {
		Title:       "3D & Immersive Worlds",
		Description: "Three-dimensional experiences and explorable virtual environments",
		Color:       "#4ecdc4",
	},
	CategoryAudioMusic: {
		Title:       "Audio & Music",
		Description: "Sound synthesis, music creation, and audio visualization tools",
		Color:       "#95e1d3",
	},
	CategoryGenerativeArt: {
		Title:       "Generative Art",
		Description: "Algorithmic and procedural art generation systems",
		Color:       "#c9b1ff",
	},
	CategoryGamesPuzzles: {
		Title:       "Games & Puzzles",
		Description: "Interactive games, puzzles, and playful experiences",
		Color:       "#feca57",
	},
	CategoryParticlePhysics: {
		Title:       "Particle & Physics",
		Description: "Particle systems, physics simulations, and dynamic interactions",
		Color:       "#48dbfb",
	},
	CategoryCreativeTools: {
		Title:       "Creative Tools",
		Description: "Utilities and tools for creative expression and productivity",
		Color:       "#ff9ff3",
	},
	CategoryExperimentalAI: {
		Title:       "Experimental & AI",
		Description: "Experimental interfaces, AI-powered experiences, and cutting-edge demos",
		Color:       "#54a0ff",
	},
	CategoryEducationalTools: {
		Title:       "Educational Tools",
		Description: "Learning resources, tutorials, and educational interactives",
		Color:       "#00d2d3",
	},
	CategoryArchive: {
		Title:       "Archive",
		Description: "Older and deprecated apps kept for reference",
		Color:       "#8395a7",
	},
}

// Valid reports whether c is a member of the declared category set.
func (c Category) Valid() bool {
	_, ok := Categories[c]
	return ok
}

// Version is a non-primary member of a version group.
type Version struct {
	Path       string    `json:"path"`
	Label      string    `json:"label"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// FileMetadata carries filesystem facts about an entry's primary file.
type FileMetadata struct {
	SizeBytes  int64     `json:"sizeBytes"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// AppEntry is one gallery app in the manifest.
type AppEntry struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Path            string       `json:"path"`
	Category        Category     `json:"category"`
	Tags            []string     `json:"tags"`
	Versions        []Version    `json:"versions"`
	Metadata        FileMetadata `json:"metadata"`
	InteractionType string       `json:"interactionType,omitempty"`
	Complexity      string       `json:"complexity,omitempty"`
	Featured        bool         `json:"featured,omitempty"`
	CreatedOn       string       `json:"createdOn,omitempty"`
	Incomplete      bool         `json:"incomplete,omitempty"`
}

// CategoryBlock is the per-category section of the manifest.
type CategoryBlock struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Color       string     `json:"color,omitempty"`
	Apps        []AppEntry `json:"apps"`
}

// Manifest is the root object written to disk.
type Manifest struct {
	SchemaVersion  int                         `json:"schemaVersion"`
	GeneratedAt    time.Time                   `json:"generatedAt"`
	Root           string                      `json:"root"`
	Categories     map[Category]*CategoryBlock `json:"categories"`
	StaleOverrides []string                    `json:"stale_overrides,omitempty"`
}

// MarshalJSON emits categories in CategoryOrder rather than map-key order so
// the on-disk layout is stable and matches the declared taxonomy order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(b)
		return nil
	}

	if err := writeField("schemaVersion", m.SchemaVersion); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeField("generatedAt", m.GeneratedAt); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeField("root", m.Root); err != nil {
		return nil, err
	}
	buf.WriteByte(',')

	buf.WriteString(`"categories":{`)
	first := true
	for _, cat := range CategoryOrder {
		block, ok := m.Categories[cat]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeField(string(cat), block); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	if len(m.StaleOverrides) > 0 {
		buf.WriteByte(',')
		if err := writeField("stale_overrides", m.StaleOverrides); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON is the inverse of MarshalJSON; map order is irrelevant on read.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type alias Manifest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}
	*m = Manifest(a)
	return nil
}

// Equal reports whether two manifests are identical ignoring GeneratedAt.
// Used to skip rewrites when nothing observable changed.
func (m *Manifest) Equal(other *Manifest) bool {
	if m == nil || other == nil {
		return m == other
	}
	a := *m
	b := *other
	a.GeneratedAt = time.Time{}
	b.GeneratedAt = time.Time{}
	aj, err := json.Marshal(&a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(&b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}
