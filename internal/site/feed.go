package site

import (
	"encoding/xml"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogsmith/internal/config"
	"git.home.luguber.info/inful/blogsmith/internal/content"
)

// Atom feed rendering. The feed's updated element derives from the newest
// post date, not the build clock, so rebuilding unchanged content emits
// identical bytes.

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Xmlns   string      `xml:"xmlns,attr"`
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Links   []atomLink  `xml:"link"`
	Author  *atomPerson `xml:"author,omitempty"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomPerson struct {
	Name string `xml:"name"`
}

type atomEntry struct {
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Link    atomLink    `xml:"link"`
	Content atomContent `xml:"content"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

func renderFeed(site *config.SiteConfig, posts []*content.Post, rendered map[string][]byte) ([]byte, error) {
	base := strings.TrimSuffix(site.BaseURL, "/")

	feed := atomFeed{
		Xmlns: "http://www.w3.org/2005/Atom",
		Title: site.Title,
		ID:    base + "/",
		Links: []atomLink{
			{Href: base + "/feed.xml", Rel: "self"},
			{Href: base + "/"},
		},
	}
	if site.Author != "" {
		feed.Author = &atomPerson{Name: site.Author}
	}

	updated := time.Time{}
	for _, p := range posts {
		if p.Date.After(updated) {
			updated = p.Date
		}
		entry := atomEntry{
			Title:   p.Title(),
			ID:      base + Permalink(p),
			Updated: p.Date.UTC().Format(time.RFC3339),
			Link:    atomLink{Href: base + Permalink(p)},
			Content: atomContent{Type: "html", Body: string(rendered[OutputPath(p)])},
		}
		feed.Entries = append(feed.Entries, entry)
	}
	feed.Updated = updated.UTC().Format(time.RFC3339)

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
