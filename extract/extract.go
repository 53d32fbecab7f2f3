// Package extract produces structured metadata records from HTML files.
// It is a tolerant metadata sniffer, not a standards-compliant parser: it
// reads a bounded prefix of each file and never fails on malformed markup.
package extract

import (
	"io"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// DefaultPrefixBytes bounds how much of a file is read for metadata.
const DefaultPrefixBytes = 10 * 1024

// maxDescriptionLen caps derived descriptions.
const maxDescriptionLen = 200

// RawMetadata is the extractor's output for one file.
type RawMetadata struct {
	// Title is the trimmed content of the first title element, empty if none.
	Title string

	// Description is the content of the first meta[name=description], or a
	// derived excerpt when no such element exists. Empty if neither applies.
	Description string

	// Tags are the vocabulary keywords found in the file, sorted.
	Tags []string

	// InteractionType is derived from Tags.
	InteractionType InteractionType

	SizeBytes  int64
	ModifiedAt time.Time

	// Incomplete marks records whose file could not be read or decoded.
	Incomplete bool

	// Redirect marks stub files that only redirect elsewhere.
	Redirect bool
}

// HasTag reports whether the record carries the given vocabulary tag.
func (m *RawMetadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// vocabPatterns matches vocabulary tokens at word boundaries.
var vocabPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(Vocabulary))
	for _, token := range Vocabulary {
		patterns[token] = regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
	}
	return patterns
}()

// Extractor reads bounded file prefixes and produces RawMetadata records.
type Extractor struct {
	prefixBytes int64
	logger      *slog.Logger
	converter   *md.Converter
}

// NewExtractor creates an extractor reading at most prefixBytes per file.
func NewExtractor(prefixBytes int64, logger *slog.Logger) *Extractor {
	if prefixBytes <= 0 {
		prefixBytes = DefaultPrefixBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Extractor{
		prefixBytes: prefixBytes,
		logger:      logger,
		converter:   converter,
	}
}

// Extract produces a RawMetadata for the file at absPath. It never returns
// an error: unreadable or undecodable files yield a record with empty text
// fields and Incomplete set, so one bad file cannot abort a pass.
func (e *Extractor) Extract(absPath, relPath string) *RawMetadata {
	meta := &RawMetadata{InteractionType: InteractionUnknown}

	if info, err := os.Stat(absPath); err == nil {
		meta.SizeBytes = info.Size()
		meta.ModifiedAt = info.ModTime().UTC()
	} else {
		e.logger.Warn("stat failed", "path", relPath, "error", err)
		meta.Incomplete = true
		return meta
	}

	content, err := e.readPrefix(absPath)
	if err != nil {
		e.logger.Warn("read failed", "path", relPath, "error", err)
		meta.Incomplete = true
		return meta
	}

	title, description, refresh := sniffHead(content)
	meta.Title = title
	meta.Description = description

	// A record without any authored metadata is flagged so the gallery can
	// surface it for curation; derived fields below are best-effort only.
	if title == "" && description == "" {
		meta.Incomplete = true
	}

	lower := strings.ToLower(content)
	if refresh && strings.Contains(lower, "redirecting") {
		meta.Redirect = true
		return meta
	}

	if meta.Description == "" {
		meta.Description = e.deriveDescription(content, relPath)
	}

	meta.Tags = matchVocabulary(lower, stem(relPath))
	meta.InteractionType = DeriveInteractionType(meta.Tags)
	return meta
}

// readPrefix reads at most prefixBytes of the file as lenient UTF-8 text.
// Bytes that fail decoding are replaced rather than rejected.
func (e *Extractor) readPrefix(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, e.prefixBytes))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(raw), "�"), nil
}

// sniffHead pulls the first title element, the first meta description, and
// whether a meta refresh is present. html.Parse repairs malformed markup, so
// broken files degrade to empty fields instead of failures.
func sniffHead(content string) (title, description string, refresh bool) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", "", false
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = collapseSpace(n.FirstChild.Data)
				}
			case "meta":
				var name, httpEquiv, metaContent string
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "name":
						name = strings.ToLower(strings.TrimSpace(attr.Val))
					case "http-equiv":
						httpEquiv = strings.ToLower(strings.TrimSpace(attr.Val))
					case "content":
						metaContent = attr.Val
					}
				}
				if name == "description" && description == "" {
					description = collapseSpace(metaContent)
				}
				if httpEquiv == "refresh" {
					refresh = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, description, refresh
}

// deriveDescription synthesizes a description from the readable content of
// the prefix when no meta description exists. Readability isolates the main
// content; the markdown conversion flattens it to plain text.
func (e *Extractor) deriveDescription(content, relPath string) string {
	u := &url.URL{Scheme: "file", Path: "/" + relPath}
	article, err := readability.FromReader(strings.NewReader(content), u)
	if err != nil {
		return ""
	}

	if excerpt := collapseSpace(article.Excerpt); excerpt != "" {
		return truncate(excerpt, maxDescriptionLen)
	}

	text, err := e.converter.ConvertString(article.Content)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(text, "\n") {
		line = collapseSpace(strings.TrimLeft(line, "#*>- "))
		if len(line) >= 20 {
			return truncate(line, maxDescriptionLen)
		}
	}
	return ""
}

// matchVocabulary returns the sorted vocabulary tokens present in the
// lowercased content or the filename stem.
func matchVocabulary(lowerContent, fileStem string) []string {
	haystack := lowerContent + "\n" + strings.ToLower(fileStem)
	var tags []string
	for _, token := range Vocabulary {
		if vocabPatterns[token].MatchString(haystack) {
			tags = append(tags, token)
		}
	}
	sort.Strings(tags)
	return tags
}

// stem returns the filename without directory or extension.
func stem(relPath string) string {
	base := relPath
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

var spaceRun = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
