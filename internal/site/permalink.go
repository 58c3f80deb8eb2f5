package site

import (
	"fmt"
	"path"

	"git.home.luguber.info/inful/blogsmith/internal/content"
)

// Permalink returns the canonical URL path for a post, derived only from its
// date and slug so two builds always agree: `/YYYY/MM/DD/slug/`.
//
// Undated drafts (only reachable with --drafts) live under `/drafts/slug/`.
func Permalink(p *content.Post) string {
	if p.Date.IsZero() {
		return "/drafts/" + p.Slug + "/"
	}
	return fmt.Sprintf("/%04d/%02d/%02d/%s/", p.Date.Year(), p.Date.Month(), p.Date.Day(), p.Slug)
}

// OutputPath maps a post to its file in the output tree.
func OutputPath(p *content.Post) string {
	return path.Join(Permalink(p), "index.html")[1:] // drop leading slash
}

// TagPermalink returns the URL path of a tag's listing page.
func TagPermalink(tag string) string {
	return "/tags/" + Slugify(tag) + "/"
}

// TagOutputPath maps a tag to its listing page in the output tree.
func TagOutputPath(tag string) string {
	return path.Join("tags", Slugify(tag), "index.html")
}
