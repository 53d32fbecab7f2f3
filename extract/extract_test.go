package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtract_TitleAndDescription(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.html", `<!DOCTYPE html>
<html><head>
<title>  Notes  </title>
<meta name="Description" content="A minimal notes editor">
</head><body><p>Write things down.</p></body></html>`)

	e := NewExtractor(0, nil)
	meta := e.Extract(path, "apps/notes.html")

	assert.Equal(t, "Notes", meta.Title)
	assert.Equal(t, "A minimal notes editor", meta.Description)
	assert.False(t, meta.Incomplete)
	assert.Contains(t, meta.Tags, "notes")
	assert.Contains(t, meta.Tags, "editor")
	assert.Equal(t, InteractionTool, meta.InteractionType)
	assert.Greater(t, meta.SizeBytes, int64(0))
	assert.False(t, meta.ModifiedAt.IsZero())
}

func TestExtract_TagsFromBody(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snake.html", `<html><head><title>Snake</title></head>
<body><script>// canvas game loop
const ctx = canvas.getContext("2d");</script></body></html>`)

	e := NewExtractor(0, nil)
	meta := e.Extract(path, "apps/games/snake.html")

	assert.Contains(t, meta.Tags, "game")
	assert.Contains(t, meta.Tags, "canvas")
	assert.Equal(t, InteractionGame, meta.InteractionType)
}

func TestExtract_ThreeJSReference(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "world.html", `<html><head><title>3D World</title></head>
<body><script>const scene = new THREE.Scene();</script></body></html>`)

	e := NewExtractor(0, nil)
	meta := e.Extract(path, "apps/3d/world.html")

	assert.Contains(t, meta.Tags, "3d")
	assert.Contains(t, meta.Tags, "three")
}

func TestExtract_NoMetadataIsIncomplete(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "agent.html", `<html><body><div id="root"></div></body></html>`)

	e := NewExtractor(0, nil)
	meta := e.Extract(path, "apps/ai/agent.html")

	assert.Empty(t, meta.Title)
	assert.True(t, meta.Incomplete)
	// Tags still come from the stem.
	assert.Contains(t, meta.Tags, "agent")
}

func TestExtract_MalformedMarkupNeverFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.html", "<title>Half open <met"+strings.Repeat("\x00\xff<", 50))

	e := NewExtractor(0, nil)
	meta := e.Extract(path, "broken.html")

	require.NotNil(t, meta)
	assert.Greater(t, meta.SizeBytes, int64(0))
}

func TestExtract_MissingFile(t *testing.T) {
	e := NewExtractor(0, nil)
	meta := e.Extract(filepath.Join(t.TempDir(), "gone.html"), "gone.html")

	require.NotNil(t, meta)
	assert.True(t, meta.Incomplete)
	assert.Empty(t, meta.Title)
	assert.Empty(t, meta.Tags)
}

func TestExtract_RedirectStub(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "moved.html", `<html><head>
<meta http-equiv="refresh" content="0; url=apps/new-home.html">
<title>Redirecting...</title></head><body>Redirecting...</body></html>`)

	e := NewExtractor(0, nil)
	meta := e.Extract(path, "moved.html")

	assert.True(t, meta.Redirect)
}

func TestExtract_PrefixBound(t *testing.T) {
	dir := t.TempDir()
	// The title sits beyond the 1 KiB read bound and must not be seen.
	content := "<html><head>" + strings.Repeat("<!-- pad -->", 200) + "<title>Hidden</title></head></html>"
	path := writeFile(t, dir, "big.html", content)

	e := NewExtractor(1024, nil)
	meta := e.Extract(path, "big.html")

	assert.Empty(t, meta.Title)
	assert.Equal(t, int64(len(content)), meta.SizeBytes, "size reflects the whole file, not the prefix")
}

func TestExtract_InvalidUTF8Replaced(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "odd.html", "<html><head><title>Caf\xe9 Paint Studio</title></head></html>")

	e := NewExtractor(0, nil)
	meta := e.Extract(path, "odd.html")

	assert.Contains(t, meta.Title, "Caf")
	assert.Contains(t, meta.Tags, "paint")
}

func TestDeriveInteractionType_Priority(t *testing.T) {
	tests := []struct {
		tags []string
		want InteractionType
	}{
		{[]string{"game", "audio", "visual"}, InteractionGame},
		{[]string{"audio", "educational"}, InteractionAudio},
		{[]string{"tutorial", "canvas"}, InteractionEducational},
		{[]string{"canvas", "editor"}, InteractionVisual},
		{[]string{"editor"}, InteractionTool},
		{nil, InteractionUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveInteractionType(tt.tags), "tags %v", tt.tags)
	}
}
