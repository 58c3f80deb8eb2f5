// Package linkcheck verifies internal links in a rendered site snapshot.
//
// External URLs are deliberately not fetched: the check command must stay
// fast and deterministic, and a blog's external links rot independently of
// the build being correct.
package linkcheck

import (
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/blogsmith/internal/site"
)

// Problem is one broken internal reference.
type Problem struct {
	Page   string // output path of the page containing the link
	Target string // the href/src as written
}

// Check scans every HTML page in the snapshot for internal hrefs and srcs
// that resolve to nothing in the snapshot. Results are sorted for stable
// reporting.
func Check(snap *site.Snapshot) []Problem {
	var problems []Problem
	for _, p := range snap.Paths() {
		if !strings.HasSuffix(p, ".html") {
			continue
		}
		data, _ := snap.Get(p)
		for _, target := range extractRefs(data) {
			if !isInternal(target) {
				continue
			}
			resolved := resolve(p, target)
			if _, _, ok := snap.Resolve(resolved); !ok {
				problems = append(problems, Problem{Page: p, Target: target})
			}
		}
	}
	sort.Slice(problems, func(i, j int) bool {
		if problems[i].Page != problems[j].Page {
			return problems[i].Page < problems[j].Page
		}
		return problems[i].Target < problems[j].Target
	})
	return problems
}

// extractRefs tokenizes HTML and collects href and src attribute values.
func extractRefs(data []byte) []string {
	var refs []string
	tokenizer := html.NewTokenizer(strings.NewReader(string(data)))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return refs
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		for _, attr := range token.Attr {
			if attr.Key == "href" || attr.Key == "src" {
				refs = append(refs, attr.Val)
			}
		}
	}
}

// isInternal reports whether a reference points into this site.
func isInternal(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") {
		return false
	}
	if strings.HasPrefix(ref, "//") {
		return false
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "mailto:") || strings.HasPrefix(ref, "tel:") {
		return false
	}
	return true
}

// resolve turns a reference into an absolute output-tree URL path, resolving
// relative references against the containing page's directory.
func resolve(page, ref string) string {
	// Strip fragment and query; the target page existing is what matters.
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	if ref == "" {
		return "/" + page
	}
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	return "/" + path.Join(path.Dir(page), ref)
}
