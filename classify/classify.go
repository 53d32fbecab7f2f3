// Package classify maps a (path, metadata) pair to exactly one gallery
// category using a weighted keyword rule set. Classification is pure: it is
// deterministic in its inputs and performs no I/O.
package classify

import (
	"regexp"
	"strings"

	"github.com/vibegallery/vibegallery/extract"
	"github.com/vibegallery/vibegallery/manifest"
)

// Source weights. Tags are the strongest signal because they already passed
// vocabulary filtering; free text is the weakest.
const (
	weightTags        = 4
	weightStem        = 3
	weightPath        = 3
	weightTitle       = 2
	weightDescription = 1
)

// keywords declares each category's rule set. The table extends the canonical
// seeds with terms the gallery's own apps use.
var keywords = map[manifest.Category][]string{
	manifest.CategoryGamesPuzzles: {
		"game", "snake", "poker", "solitaire", "puzzle", "arcade",
		"score", "level", "player",
	},
	manifest.Category3DImmersive: {
		"3d", "webgl", "three", "world", "scene", "immersive",
	},
	manifest.CategoryAudioMusic: {
		"audio", "music", "synth", "drum", "sequencer", "808", "sound",
	},
	manifest.CategoryGenerativeArt: {
		"generative", "shader", "fractal", "noise", "procedural",
	},
	manifest.CategoryParticlePhysics: {
		"particle", "physics", "simulation", "gravity",
	},
	manifest.CategoryCreativeTools: {
		"editor", "writer", "notes", "paint", "draw", "tool", "tracker",
		"productivity", "utilities",
	},
	manifest.CategoryEducationalTools: {
		"educational", "tutorial", "trainer", "learn", "quiz",
	},
	manifest.CategoryVisualArt: {
		"art", "visual", "canvas",
	},
	manifest.CategoryExperimentalAI: {
		"ai", "agent", "llm", "prompt", "neural",
	},
}

// precedence breaks score ties. Earlier wins.
var precedence = []manifest.Category{
	manifest.CategoryGamesPuzzles,
	manifest.Category3DImmersive,
	manifest.CategoryAudioMusic,
	manifest.CategoryGenerativeArt,
	manifest.CategoryParticlePhysics,
	manifest.CategoryCreativeTools,
	manifest.CategoryEducationalTools,
	manifest.CategoryVisualArt,
	manifest.CategoryExperimentalAI,
}

// keywordPatterns matches rule keywords at word boundaries in free text.
// A trailing plural is tolerated so directory names like "games" match.
var keywordPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, list := range keywords {
		for _, kw := range list {
			if _, ok := patterns[kw]; !ok {
				patterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `s?\b`)
			}
		}
	}
	return patterns
}()

// Classifier scores files against the category rule sets.
type Classifier struct {
	fallback manifest.Category
}

// New creates a classifier with the given fallback category for inputs with
// no signal. An invalid fallback is replaced with the default.
func New(fallback manifest.Category) *Classifier {
	if !fallback.Valid() {
		fallback = manifest.FallbackCategory
	}
	return &Classifier{fallback: fallback}
}

// Classify returns the single category for a file. The highest-scoring
// category wins; ties resolve by fixed precedence; a zero score everywhere
// resolves to the fallback.
func (c *Classifier) Classify(relPath string, meta *extract.RawMetadata) manifest.Category {
	sources := buildSources(relPath, meta)

	scores := make(map[manifest.Category]int, len(keywords))
	for cat, list := range keywords {
		scores[cat] = scoreCategory(list, sources)
	}

	best := c.fallback
	bestScore := 0
	for _, cat := range precedence {
		if scores[cat] > bestScore {
			best = cat
			bestScore = scores[cat]
		}
	}
	return best
}

// source is one weighted text or tag source for scoring.
type source struct {
	weight int
	text   string          // free text, matched at word boundaries
	tags   map[string]bool // exact tag membership
}

func buildSources(relPath string, meta *extract.RawMetadata) []source {
	tagSet := make(map[string]bool, len(meta.Tags))
	for _, t := range meta.Tags {
		tagSet[t] = true
	}

	dir := ""
	base := relPath
	if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
		dir = relPath[:i]
		base = relPath[i+1:]
	}
	fileStem := base
	if i := strings.LastIndexByte(fileStem, '.'); i > 0 {
		fileStem = fileStem[:i]
	}

	return []source{
		{weight: weightTags, tags: tagSet},
		{weight: weightStem, text: strings.ToLower(fileStem)},
		{weight: weightPath, text: strings.ToLower(strings.ReplaceAll(dir, "/", " "))},
		{weight: weightTitle, text: strings.ToLower(meta.Title)},
		{weight: weightDescription, text: strings.ToLower(meta.Description)},
	}
}

// scoreCategory sums per-source weight times the number of distinct keywords
// matched from that source.
func scoreCategory(list []string, sources []source) int {
	total := 0
	for _, src := range sources {
		matched := 0
		for _, kw := range list {
			if src.tags != nil {
				if src.tags[kw] {
					matched++
				}
				continue
			}
			if src.text != "" && keywordPatterns[kw].MatchString(src.text) {
				matched++
			}
		}
		total += src.weight * matched
	}
	return total
}
