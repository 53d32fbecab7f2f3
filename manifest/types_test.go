package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC),
		Root:          ".",
		Categories: map[Category]*CategoryBlock{
			CategoryCreativeTools: {
				Title: Categories[CategoryCreativeTools].Title,
				Color: Categories[CategoryCreativeTools].Color,
				Apps: []AppEntry{{
					ID:       "apps-notes",
					Title:    "Notes",
					Path:     "apps/notes.html",
					Category: CategoryCreativeTools,
					Tags:     []string{"notes"},
					Versions: []Version{},
				}},
			},
			CategoryVisualArt: {
				Title: Categories[CategoryVisualArt].Title,
				Apps:  []AppEntry{},
			},
			CategoryArchive: {
				Title: Categories[CategoryArchive].Title,
				Apps:  []AppEntry{},
			},
		},
	}
}

func TestManifestMarshal_CategoryOrder(t *testing.T) {
	data, err := json.Marshal(sampleManifest())
	require.NoError(t, err)

	s := string(data)
	visual := strings.Index(s, `"visual_art"`)
	creative := strings.Index(s, `"creative_tools"`)
	archive := strings.Index(s, `"archive"`)

	require.GreaterOrEqual(t, visual, 0)
	require.GreaterOrEqual(t, creative, 0)
	require.GreaterOrEqual(t, archive, 0)
	assert.Less(t, visual, creative, "visual_art precedes creative_tools")
	assert.Less(t, creative, archive, "archive comes last")
}

func TestManifestMarshal_RoundTrip(t *testing.T) {
	m := sampleManifest()

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back Manifest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(&back))
	assert.Equal(t, "apps-notes", back.Categories[CategoryCreativeTools].Apps[0].ID)
}

func TestManifestEqual_IgnoresGeneratedAt(t *testing.T) {
	a := sampleManifest()
	b := sampleManifest()
	b.GeneratedAt = b.GeneratedAt.Add(48 * time.Hour)

	assert.True(t, a.Equal(b))

	b.Categories[CategoryCreativeTools].Apps[0].Title = "Renamed"
	assert.False(t, a.Equal(b))
}

func TestManifestEqual_Nil(t *testing.T) {
	m := sampleManifest()
	assert.False(t, m.Equal(nil))
	assert.True(t, (*Manifest)(nil).Equal(nil))
}

func TestCategoryValid(t *testing.T) {
	for _, c := range CategoryOrder {
		assert.True(t, c.Valid(), "category %q", c)
	}
	assert.False(t, Category("bogus").Valid())
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilename)
	m := sampleManifest()

	require.NoError(t, Write(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, m.Equal(loaded))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"), "manifest ends with a newline")
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(filepath.Join(dir, DefaultFilename), sampleManifest()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultFilename, entries[0].Name())
}

func TestLoad_Missing(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
