// Package pipeline runs one full pass of the gallery manifest engine: walk,
// extract, classify, group, build, write. All state for a pass lives in an
// explicit PassContext value; there is no process-wide mutable state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vibegallery/vibegallery/classify"
	"github.com/vibegallery/vibegallery/config"
	"github.com/vibegallery/vibegallery/extract"
	"github.com/vibegallery/vibegallery/grouper"
	"github.com/vibegallery/vibegallery/manifest"
	"github.com/vibegallery/vibegallery/scanner"
)

// Result summarizes one pass.
type Result struct {
	PassID     string
	Scanned    int
	Entries    int
	Categories int
	Incomplete int
	Redirects  int
	Wrote      bool
	Elapsed    time.Duration
}

// PassContext is the explicit state of one in-flight pass. It is created at
// the top of Run and threaded through the stages; nothing about a pass lives
// in package or process globals.
type PassContext struct {
	ID      string
	Start   time.Time
	Logger  *slog.Logger
	Result  *Result
	records map[manifest.Category][]grouper.Record
}

// Pipeline wires the stages together for repeated passes.
type Pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	extractor  *extract.Extractor
	classifier *classify.Classifier
	builder    *manifest.Builder
}

// New creates a pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		extractor:  extract.NewExtractor(cfg.PrefixBytes(), logger),
		classifier: classify.New(manifest.Category(cfg.Classify.Fallback)),
		builder:    manifest.NewBuilder(logger),
	}
}

// NewWalker builds the walker matching the pipeline's scan policy. The
// watcher shares it so change detection and passes see the same file set.
func (p *Pipeline) NewWalker() *scanner.Walker {
	return scanner.NewWalker(p.cfg.Scan.Root, scanner.Options{
		Subtrees:        p.cfg.Scan.Subtrees,
		ExcludeNames:    p.cfg.Scan.ExcludeNames,
		ExcludePatterns: p.cfg.Scan.ExcludePatterns,
		ArchiveDir:      p.cfg.Scan.ArchiveDir,
		IncludeArchive:  p.cfg.IncludeArchive(),
		Logger:          p.logger,
	})
}

// Run executes one pass. Per-file problems are absorbed into the data; only
// a manifest write failure (or cancellation) fails the pass.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	pass := &PassContext{
		ID:      uuid.NewString()[:8],
		Start:   time.Now(),
		Result:  &Result{},
		records: make(map[manifest.Category][]grouper.Record),
	}
	pass.Result.PassID = pass.ID
	pass.Logger = p.logger.With("pass", pass.ID)

	if err := p.collect(ctx, pass); err != nil {
		return pass.Result, err
	}
	if err := p.buildAndWrite(pass); err != nil {
		return pass.Result, err
	}

	pass.Result.Elapsed = time.Since(pass.Start)
	pass.Logger.Info("pass complete",
		"scanned", pass.Result.Scanned,
		"entries", pass.Result.Entries,
		"categories", pass.Result.Categories,
		"incomplete", pass.Result.Incomplete,
		"redirects", pass.Result.Redirects,
		"wrote", pass.Result.Wrote,
		"elapsed", pass.Result.Elapsed.Round(time.Millisecond))
	return pass.Result, nil
}

// collect walks the tree and extracts and classifies every candidate file.
func (p *Pipeline) collect(ctx context.Context, pass *PassContext) error {
	files, err := p.NewWalker().Walk()
	if err != nil {
		return fmt.Errorf("walk %s: %w", p.cfg.Scan.Root, err)
	}
	pass.Result.Scanned = len(files)

	for _, file := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		meta := p.extractor.Extract(file.AbsPath, file.RelPath)
		if meta.Redirect {
			pass.Logger.Debug("skipping redirect stub", "path", file.RelPath)
			pass.Result.Redirects++
			continue
		}
		if meta.Incomplete {
			pass.Result.Incomplete++
		}

		category := manifest.CategoryArchive
		if !file.Archived {
			category = p.classifier.Classify(file.RelPath, meta)
		}
		pass.records[category] = append(pass.records[category], grouper.Record{
			File:     file,
			Meta:     meta,
			Category: category,
		})
	}
	return nil
}

// buildAndWrite groups the collected records, builds the manifest, and
// persists it atomically when its content changed.
func (p *Pipeline) buildAndWrite(pass *PassContext) error {
	var sourceGroups []manifest.SourceGroup
	for _, category := range manifest.CategoryOrder {
		for _, group := range grouper.Collapse(pass.records[category]) {
			sourceGroups = append(sourceGroups, toSourceGroup(group))
		}
	}
	pass.Result.Entries = len(sourceGroups)

	overrides, err := manifest.LoadOverrides(p.rootPath(p.cfg.Manifest.OverridesFile))
	if err != nil {
		pass.Logger.Warn("ignoring unreadable overrides", "error", err)
		overrides = manifest.Overrides{}
	}
	registry, err := manifest.LoadDateRegistry(p.rootPath(p.cfg.Manifest.RegistryFile))
	if err != nil {
		pass.Logger.Warn("ignoring unreadable date registry", "error", err)
		registry = nil
	}

	built := p.builder.Build(manifest.BuildInput{
		Root:      p.cfg.Scan.Root,
		Groups:    sourceGroups,
		Overrides: overrides,
		Registry:  registry,
		Now:       time.Now(),
	})
	pass.Result.Categories = len(built.Categories)

	manifestPath := p.rootPath(p.cfg.Manifest.Filename)
	previous, err := manifest.Load(manifestPath)
	if err != nil {
		pass.Logger.Warn("previous manifest unreadable, rewriting", "error", err)
	}

	if previous != nil && built.Equal(previous) {
		pass.Logger.Debug("manifest unchanged, skipping write")
	} else {
		if err := manifest.Write(manifestPath, built); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		pass.Result.Wrote = true
	}

	if registry != nil {
		if err := registry.Save(); err != nil {
			pass.Logger.Warn("date registry not saved", "error", err)
		}
	}
	return nil
}

func (p *Pipeline) rootPath(name string) string {
	return filepath.Join(p.cfg.Scan.Root, name)
}

// toSourceGroup flattens a grouped record into the builder's input shape.
func toSourceGroup(group grouper.Group) manifest.SourceGroup {
	primary := group.Primary
	versions := make([]manifest.Version, 0, len(group.Versions))
	for _, v := range group.Versions {
		versions = append(versions, manifest.Version{
			Path:       v.File.RelPath,
			Label:      v.Label,
			ModifiedAt: v.File.ModTime,
		})
	}

	return manifest.SourceGroup{
		Category:        primary.Category,
		Path:            primary.File.RelPath,
		Title:           primary.Meta.Title,
		Description:     primary.Meta.Description,
		Tags:            primary.Meta.Tags,
		InteractionType: string(primary.Meta.InteractionType),
		SizeBytes:       primary.Meta.SizeBytes,
		ModifiedAt:      primary.Meta.ModifiedAt,
		Versions:        versions,
		Incomplete:      primary.Meta.Incomplete,
	}
}
