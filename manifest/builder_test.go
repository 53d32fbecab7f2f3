package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buildTime = time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC)

func notesGroup() SourceGroup {
	return SourceGroup{
		Category:    CategoryCreativeTools,
		Path:        "apps/notes.html",
		Title:       "Notes",
		Description: "A minimal notes editor",
		Tags:        []string{"editor", "notes"},
		SizeBytes:   3 * 1024,
		ModifiedAt:  buildTime.Add(-time.Hour),
		Versions: []Version{
			{Path: "apps/notes copy.html", Label: "copy", ModifiedAt: buildTime.Add(-2 * time.Hour)},
		},
	}
}

func TestBuild_Basic(t *testing.T) {
	b := NewBuilder(nil)

	m := b.Build(BuildInput{
		Root:      ".",
		Groups:    []SourceGroup{notesGroup()},
		Overrides: Overrides{},
		Now:       buildTime,
	})

	assert.Equal(t, SchemaVersion, m.SchemaVersion)
	assert.Equal(t, buildTime, m.GeneratedAt)

	block := m.Categories[CategoryCreativeTools]
	require.NotNil(t, block)
	assert.Equal(t, "Creative Tools", block.Title)
	require.Len(t, block.Apps, 1)

	entry := block.Apps[0]
	assert.Equal(t, "apps-notes", entry.ID)
	assert.Equal(t, "Notes", entry.Title)
	assert.Equal(t, "apps/notes.html", entry.Path)
	require.Len(t, entry.Versions, 1)
	assert.Equal(t, "copy", entry.Versions[0].Label)
	assert.Equal(t, ComplexitySimple, entry.Complexity)
	assert.False(t, entry.Featured)
}

func TestBuild_TitleFromStemWhenMissing(t *testing.T) {
	b := NewBuilder(nil)

	m := b.Build(BuildInput{
		Root: ".",
		Groups: []SourceGroup{{
			Category:   CategoryExperimentalAI,
			Path:       "apps/ai/agent.html",
			Incomplete: true,
		}},
		Now: buildTime,
	})

	entry := m.Categories[CategoryExperimentalAI].Apps[0]
	assert.Equal(t, "Agent", entry.Title)
	assert.Equal(t, "Interactive agent experience", entry.Description)
	assert.True(t, entry.Incomplete)
}

func TestBuild_FeaturedAndComplexity(t *testing.T) {
	b := NewBuilder(nil)

	m := b.Build(BuildInput{
		Root: ".",
		Groups: []SourceGroup{
			{
				Category:  Category3DImmersive,
				Path:      "apps/world.html",
				Title:     "World",
				Tags:      []string{"3d", "three", "webgl"},
				SizeBytes: 1024,
			},
			{
				Category:  CategoryGamesPuzzles,
				Path:      "apps/snake.html",
				Title:     "Snake",
				Tags:      []string{"game"},
				SizeBytes: 5 * 1024,
			},
			{
				Category:  CategoryCreativeTools,
				Path:      "apps/big-editor.html",
				Title:     "Big Editor",
				Tags:      []string{"editor"},
				SizeBytes: 60 * 1024,
			},
		},
		Now: buildTime,
	})

	world := m.Categories[Category3DImmersive].Apps[0]
	assert.True(t, world.Featured, "three tags make an app featured")
	assert.Equal(t, ComplexityAdvanced, world.Complexity)

	snake := m.Categories[CategoryGamesPuzzles].Apps[0]
	assert.False(t, snake.Featured)
	assert.Equal(t, ComplexityIntermediate, snake.Complexity)

	editor := m.Categories[CategoryCreativeTools].Apps[0]
	assert.Equal(t, ComplexityAdvanced, editor.Complexity, "size alone promotes complexity")
}

func TestBuild_OverrideWinsPerField(t *testing.T) {
	b := NewBuilder(nil)
	title := "Daily Notes"

	m := b.Build(BuildInput{
		Root:      ".",
		Groups:    []SourceGroup{notesGroup()},
		Overrides: Overrides{"apps-notes": {Title: &title}},
		Now:       buildTime,
	})

	entry := m.Categories[CategoryCreativeTools].Apps[0]
	assert.Equal(t, "Daily Notes", entry.Title)
	assert.Equal(t, "A minimal notes editor", entry.Description, "non-overridden fields stay extraction-derived")
	assert.Empty(t, m.StaleOverrides)
}

func TestBuild_StaleOverridesReported(t *testing.T) {
	b := NewBuilder(nil)
	title := "Ghost"

	m := b.Build(BuildInput{
		Root:      ".",
		Groups:    []SourceGroup{notesGroup()},
		Overrides: Overrides{"apps-ghost": {Title: &title}},
		Now:       buildTime,
	})

	assert.Equal(t, []string{"apps-ghost"}, m.StaleOverrides)
}

func TestBuild_AppsSortedByTitle(t *testing.T) {
	b := NewBuilder(nil)

	m := b.Build(BuildInput{
		Root: ".",
		Groups: []SourceGroup{
			{Category: CategoryCreativeTools, Path: "apps/zeta.html", Title: "zeta"},
			{Category: CategoryCreativeTools, Path: "apps/alpha.html", Title: "Alpha"},
			{Category: CategoryCreativeTools, Path: "apps/mid.html", Title: "beta"},
		},
		Now: buildTime,
	})

	apps := m.Categories[CategoryCreativeTools].Apps
	require.Len(t, apps, 3)
	assert.Equal(t, "Alpha", apps[0].Title)
	assert.Equal(t, "beta", apps[1].Title)
	assert.Equal(t, "zeta", apps[2].Title)
}

func TestBuild_SlugCollisions(t *testing.T) {
	b := NewBuilder(nil)

	// Both paths slug to "apps-notes".
	m := b.Build(BuildInput{
		Root: ".",
		Groups: []SourceGroup{
			{Category: CategoryCreativeTools, Path: "apps/notes!.html", Title: "B"},
			{Category: CategoryCreativeTools, Path: "apps/notes.html", Title: "A"},
		},
		Now: buildTime,
	})

	apps := m.Categories[CategoryCreativeTools].Apps
	require.Len(t, apps, 2)

	ids := map[string]string{apps[0].Title: apps[0].ID, apps[1].Title: apps[1].ID}
	// "apps/notes!.html" sorts before "apps/notes.html", so it keeps the
	// bare slug; assignment is stable for a given input set.
	assert.Equal(t, "apps-notes", ids["B"])
	assert.Equal(t, "apps-notes-2", ids["A"])
}

func TestBuild_CreatedOnFromRegistry(t *testing.T) {
	b := NewBuilder(nil)
	registry, err := LoadDateRegistry(t.TempDir() + "/registry.json")
	require.NoError(t, err)

	m := b.Build(BuildInput{
		Root:     ".",
		Groups:   []SourceGroup{notesGroup()},
		Registry: registry,
		Now:      buildTime,
	})

	entry := m.Categories[CategoryCreativeTools].Apps[0]
	assert.Equal(t, "2025-07-15", entry.CreatedOn)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"apps/notes.html", "apps-notes"},
		{"apps/games/Space Poker.html", "apps-games-space-poker"},
		{"drum_machine_808.html", "drum-machine-808"},
		{"archive/old--thing.html", "archive-old-thing"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.path), "slug of %q", tt.path)
	}
}

func TestTitleFromStem(t *testing.T) {
	assert.Equal(t, "Agent", TitleFromStem("apps/ai/agent.html"))
	assert.Equal(t, "Word Counter", TitleFromStem("apps/word-counter.html"))
	assert.Equal(t, "Drum Machine", TitleFromStem("drum_machine.html"))
}
