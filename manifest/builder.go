package manifest

import (
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Complexity tiers derived from size and technology signals.
const (
	ComplexitySimple       = "simple"
	ComplexityIntermediate = "intermediate"
	ComplexityAdvanced     = "advanced"
)

const (
	advancedSizeBytes     = 50 * 1024
	intermediateSizeBytes = 20 * 1024
	featuredTagCount      = 3
)

// SourceGroup is the builder's input: one grouped app with its extracted
// fields already resolved by the upstream pipeline stages.
type SourceGroup struct {
	Category        Category
	Path            string
	Title           string
	Description     string
	Tags            []string
	InteractionType string
	SizeBytes       int64
	ModifiedAt      time.Time
	Versions        []Version
	Incomplete      bool
}

// BuildInput carries everything a build needs. GeneratedAt aside, the output
// is a pure function of this input.
type BuildInput struct {
	Root      string
	Groups    []SourceGroup
	Overrides Overrides
	Registry  *DateRegistry
	Now       time.Time
}

// Builder assembles manifests from grouped records.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a manifest builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build produces the new manifest. Editorial overrides win per field; ids are
// stable slugs of the primary path with deterministic collision suffixes.
func (b *Builder) Build(input BuildInput) *Manifest {
	entries := make([]AppEntry, 0, len(input.Groups))
	for _, group := range input.Groups {
		entries = append(entries, b.buildEntry(group))
	}

	assignIDs(entries)

	used := make(map[string]bool, len(entries))
	for i := range entries {
		if input.Registry != nil {
			entries[i].CreatedOn = input.Registry.CreatedOn(entries[i].ID, input.Now)
		}
		if override, ok := input.Overrides[entries[i].ID]; ok {
			override.Apply(&entries[i])
		}
		used[entries[i].ID] = true
	}

	categories := make(map[Category]*CategoryBlock)
	for _, entry := range entries {
		block, ok := categories[entry.Category]
		if !ok {
			info := Categories[entry.Category]
			block = &CategoryBlock{
				Title:       info.Title,
				Description: info.Description,
				Color:       info.Color,
			}
			categories[entry.Category] = block
		}
		block.Apps = append(block.Apps, entry)
	}
	for _, block := range categories {
		sort.Slice(block.Apps, func(i, j int) bool {
			a, b := block.Apps[i], block.Apps[j]
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
			return a.ID < b.ID
		})
	}

	stale := input.Overrides.Stale(used)
	for _, id := range stale {
		b.logger.Warn("override references unknown id", "id", id)
	}

	return &Manifest{
		SchemaVersion:  SchemaVersion,
		GeneratedAt:    input.Now.UTC(),
		Root:           input.Root,
		Categories:     categories,
		StaleOverrides: stale,
	}
}

// buildEntry fills the derived fields of one entry.
func (b *Builder) buildEntry(group SourceGroup) AppEntry {
	title := group.Title
	if title == "" {
		title = TitleFromStem(group.Path)
	}
	description := group.Description
	if description == "" {
		description = fmt.Sprintf("Interactive %s experience", strings.ToLower(title))
	}

	tags := group.Tags
	if tags == nil {
		tags = []string{}
	}
	versions := group.Versions
	if versions == nil {
		versions = []Version{}
	}

	return AppEntry{
		Title:           title,
		Description:     description,
		Path:            group.Path,
		Category:        group.Category,
		Tags:            tags,
		Versions:        versions,
		Metadata:        FileMetadata{SizeBytes: group.SizeBytes, ModifiedAt: group.ModifiedAt},
		InteractionType: group.InteractionType,
		Complexity:      complexityFor(group),
		Featured:        len(tags) >= featuredTagCount,
		Incomplete:      group.Incomplete,
	}
}

func complexityFor(group SourceGroup) string {
	has := func(tag string) bool {
		for _, t := range group.Tags {
			if t == tag {
				return true
			}
		}
		return false
	}
	switch {
	case group.SizeBytes > advancedSizeBytes || has("3d") || has("webgl"):
		return ComplexityAdvanced
	case group.SizeBytes > intermediateSizeBytes || has("game"):
		return ComplexityIntermediate
	default:
		return ComplexitySimple
	}
}

// assignIDs slugs each primary path and resolves collisions by appending the
// smallest free numeric suffix, assigning in path order so the outcome is
// stable for a given input set.
func assignIDs(entries []AppEntry) {
	bySlug := make(map[string][]int)
	for i := range entries {
		slug := Slugify(entries[i].Path)
		bySlug[slug] = append(bySlug[slug], i)
	}

	taken := make(map[string]bool, len(entries))
	slugs := make([]string, 0, len(bySlug))
	for slug := range bySlug {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		idxs := bySlug[slug]
		sort.Slice(idxs, func(i, j int) bool {
			return entries[idxs[i]].Path < entries[idxs[j]].Path
		})
		for _, idx := range idxs {
			id := slug
			for n := 2; taken[id]; n++ {
				id = fmt.Sprintf("%s-%d", slug, n)
			}
			taken[id] = true
			entries[idx].ID = id
		}
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the stable entry id from a repository-relative path:
// extension dropped, lowercased, separator runs collapsed to hyphens.
func Slugify(relPath string) string {
	s := strings.ToLower(relPath)
	s = strings.TrimSuffix(s, path.Ext(s))
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TitleFromStem synthesizes a display title from a filename stem, e.g.
// "apps/word-counter.html" becomes "Word Counter".
func TitleFromStem(relPath string) string {
	base := path.Base(relPath)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
