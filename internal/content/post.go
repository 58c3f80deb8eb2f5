// Package content discovers and loads the posts and drafts that make up the
// content store.
package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogsmith/internal/frontmatter"
)

// Post is a single Markdown document from the content store.
//
// A post's identity is its filename: `YYYY-MM-DD-slug.md` encodes the
// publication date and slug. Drafts may omit the date prefix.
type Post struct {
	Path    string // absolute path to the source file
	RelPath string // path relative to its content directory
	Slug    string
	Date    time.Time // zero for undated drafts
	Draft   bool
	Meta    *frontmatter.FrontMatter
	Body    []byte // markdown body, frontmatter removed
}

// Title returns the frontmatter title, falling back to the slug.
func (p *Post) Title() string {
	if p.Meta != nil && p.Meta.Title != "" {
		return p.Meta.Title
	}
	return p.Slug
}

// Future reports whether the post is dated after now.
func (p *Post) Future(now time.Time) bool {
	return !p.Date.IsZero() && p.Date.After(now)
}

var postNamePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)\.(md|markdown)$`)

// parsePostName extracts the date and slug from a `YYYY-MM-DD-slug.md`
// filename.
func parsePostName(name string) (time.Time, string, error) {
	m := postNamePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, "", fmt.Errorf("filename %q does not match YYYY-MM-DD-slug.md", name)
	}
	date, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("filename %q: invalid date: %w", name, err)
	}
	return date, m[4], nil
}

// parseDraftName extracts slug and optional date from a draft filename.
// Drafts are allowed either the dated form or a bare `slug.md`.
func parseDraftName(name string) (time.Time, string, error) {
	if date, slug, err := parsePostName(name); err == nil {
		return date, slug, nil
	}
	base, ok := strings.CutSuffix(name, ".md")
	if !ok {
		base, ok = strings.CutSuffix(name, ".markdown")
	}
	if !ok || base == "" {
		return time.Time{}, "", fmt.Errorf("draft filename %q is not a markdown file", name)
	}
	return time.Time{}, base, nil
}
