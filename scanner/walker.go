// Package scanner enumerates candidate HTML files under a gallery root.
// The root directory is scanned non-recursively; configured subtrees are
// scanned recursively. Output order is deterministic.
package scanner

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Defaults for the include/exclude policy.
var (
	// DefaultSubtrees are scanned recursively in addition to the root.
	DefaultSubtrees = []string{"apps", "artifacts", "notes", "edgeAddons"}

	// DefaultExcludeNames are the gallery's own pages, never indexed.
	DefaultExcludeNames = []string{"index.html", "gallery.html", "template.html", "index_old.html"}

	// DefaultExcludePatterns are doublestar globs removed from the walk.
	DefaultExcludePatterns = []string{"**/node_modules/**"}
)

// DefaultArchiveDir is the subtree holding deprecated apps.
const DefaultArchiveDir = "archive"

// FileInfo identifies one candidate file.
type FileInfo struct {
	// RelPath is the repository-relative path, forward-slash normalized.
	RelPath string

	// AbsPath is the absolute filesystem path.
	AbsPath string

	Size    int64
	ModTime time.Time

	// Archived marks files found under the archive subtree.
	Archived bool
}

// Options configures a Walker. Zero values fall back to the defaults above.
type Options struct {
	Subtrees        []string
	ExcludeNames    []string
	ExcludePatterns []string
	ArchiveDir      string
	IncludeArchive  bool
	Logger          *slog.Logger
}

// Walker walks a gallery root and yields candidate HTML files.
type Walker struct {
	root            string
	subtrees        map[string]bool
	excludeNames    map[string]bool
	excludePatterns []string
	archiveDir      string
	includeArchive  bool
	logger          *slog.Logger
}

// NewWalker creates a walker for the given root directory.
func NewWalker(root string, opts Options) *Walker {
	subtrees := opts.Subtrees
	if subtrees == nil {
		subtrees = DefaultSubtrees
	}
	excludeNames := opts.ExcludeNames
	if excludeNames == nil {
		excludeNames = DefaultExcludeNames
	}
	excludePatterns := opts.ExcludePatterns
	if excludePatterns == nil {
		excludePatterns = DefaultExcludePatterns
	}
	archiveDir := opts.ArchiveDir
	if archiveDir == "" {
		archiveDir = DefaultArchiveDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	subtreeSet := make(map[string]bool, len(subtrees))
	for _, s := range subtrees {
		subtreeSet[s] = true
	}
	nameSet := make(map[string]bool, len(excludeNames))
	for _, n := range excludeNames {
		nameSet[strings.ToLower(n)] = true
	}

	return &Walker{
		root:            root,
		subtrees:        subtreeSet,
		excludeNames:    nameSet,
		excludePatterns: excludePatterns,
		archiveDir:      archiveDir,
		includeArchive:  opts.IncludeArchive,
		logger:          logger,
	}
}

// Walk enumerates candidate files in lexicographic RelPath order. Unreadable
// directories are logged and skipped; the walk continues.
func (w *Walker) Walk() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if !w.shouldDescend(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.includeFile(rel, d.Name()) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			w.logger.Warn("skipping unreadable file", "path", rel, "error", infoErr)
			return nil
		}

		files = append(files, FileInfo{
			RelPath:  rel,
			AbsPath:  path,
			Size:     info.Size(),
			ModTime:  info.ModTime().UTC(),
			Archived: topComponent(rel) == w.archiveDir,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// shouldDescend decides whether a directory participates in the walk.
func (w *Walker) shouldDescend(rel, name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	top := topComponent(rel)
	if top == w.archiveDir {
		return w.includeArchive
	}
	return w.subtrees[top]
}

// includeFile applies the file-level include/exclude policy.
func (w *Walker) includeFile(rel, name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(name), ".html") {
		return false
	}
	if w.excludeNames[strings.ToLower(name)] {
		return false
	}
	for _, pattern := range w.excludePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return false
		}
	}
	return true
}

func topComponent(rel string) string {
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return rel
}
