// Package grouper collapses files that are versioned copies of the same
// logical app into a primary file plus an ordered version list. Grouping
// happens within a single category only.
package grouper

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/vibegallery/vibegallery/extract"
	"github.com/vibegallery/vibegallery/manifest"
	"github.com/vibegallery/vibegallery/scanner"
)

// Record is one classified file entering the grouper.
type Record struct {
	File     scanner.FileInfo
	Meta     *extract.RawMetadata
	Category manifest.Category
}

// Versioned is a non-primary group member with its synthesized label.
type Versioned struct {
	Record
	Label string
}

// Group is a primary file and its ordered versions.
type Group struct {
	Primary  Record
	Versions []Versioned
}

var (
	numericSuffix = regexp.MustCompile(` *\d+(\.\d+)?$`)
	copySuffix    = regexp.MustCompile(`( copy( \d+)?|-old|-backup|-v\d+)$`)
	separatorRun  = regexp.MustCompile(`[\s_-]+`)
)

// FamilyKey normalizes a filename stem to the key shared by all versions of
// the same logical app. The second return value is the fragment stripped
// from the stem, used to label versions ("copy", "v2", "3"); it is empty
// when the stem already equals the family key.
func FamilyKey(stem string) (key, fragment string) {
	s := strings.ToLower(stem)

	var fragments []string
	if loc := numericSuffix.FindStringIndex(s); loc != nil {
		fragments = append(fragments, strings.TrimSpace(s[loc[0]:]))
		s = s[:loc[0]]
	}
	if loc := copySuffix.FindStringIndex(s); loc != nil {
		fragments = append(fragments, strings.Trim(s[loc[0]:], " -"))
		s = s[:loc[0]]
	} else if strings.HasSuffix(s, "-v") && len(fragments) == 1 {
		// "-v2" loses its digits to the numeric strip above; reunite them.
		s = strings.TrimSuffix(s, "-v")
		fragments[0] = "v" + fragments[0]
	}

	key = separatorRun.ReplaceAllString(s, "-")
	key = strings.TrimFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	// Fragments were stripped right to left; present them left to right.
	for i, j := 0, len(fragments)-1; i < j; i, j = i+1, j-1 {
		fragments[i], fragments[j] = fragments[j], fragments[i]
	}
	return key, strings.TrimSpace(strings.Join(fragments, " "))
}

// member pairs a record with the fragment stripped from its stem.
type member struct {
	rec      Record
	fragment string
}

// Collapse groups the records of one category by family key and selects a
// primary per group. Output is ordered by the primary's path so downstream
// stages are deterministic.
func Collapse(records []Record) []Group {
	families := make(map[string][]member)
	var order []string

	for _, rec := range records {
		key, fragment := FamilyKey(fileStem(rec.File.RelPath))
		if key == "" {
			// Stems with no alphanumeric content cannot be grouped; each
			// stands alone under its own path.
			key = "\x00" + rec.File.RelPath
		}
		if _, seen := families[key]; !seen {
			order = append(order, key)
		}
		families[key] = append(families[key], member{rec: rec, fragment: fragment})
	}

	var groups []Group
	for _, key := range order {
		members := families[key]
		primaryIdx := pickPrimary(members)

		group := Group{Primary: members[primaryIdx].rec}
		for i, m := range members {
			if i == primaryIdx {
				continue
			}
			group.Versions = append(group.Versions, Versioned{Record: m.rec, Label: m.fragment})
		}

		sort.SliceStable(group.Versions, func(i, j int) bool {
			a, b := group.Versions[i], group.Versions[j]
			if !a.File.ModTime.Equal(b.File.ModTime) {
				return a.File.ModTime.After(b.File.ModTime)
			}
			return a.File.RelPath < b.File.RelPath
		})
		for i := range group.Versions {
			if group.Versions[i].Label == "" {
				group.Versions[i].Label = fmt.Sprintf("%d", i+1)
			}
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Primary.File.RelPath < groups[j].Primary.File.RelPath
	})
	return groups
}

// pickPrimary selects the representative of a family: the member whose stem
// equals the family key when one exists, else the largest file; ties break
// by most recent modification, then lexicographic path.
func pickPrimary(members []member) int {
	better := func(a, b int) bool {
		am, bm := members[a], members[b]
		if (am.fragment == "") != (bm.fragment == "") {
			return am.fragment == ""
		}
		if am.rec.File.Size != bm.rec.File.Size {
			return am.rec.File.Size > bm.rec.File.Size
		}
		if !am.rec.File.ModTime.Equal(bm.rec.File.ModTime) {
			return am.rec.File.ModTime.After(bm.rec.File.ModTime)
		}
		return am.rec.File.RelPath < bm.rec.File.RelPath
	}

	best := 0
	for i := 1; i < len(members); i++ {
		if better(i, best) {
			best = i
		}
	}
	return best
}

func fileStem(relPath string) string {
	base := path.Base(relPath)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
