package content

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
	"git.home.luguber.info/inful/blogsmith/internal/frontmatter"
)

// Issue records a content error for a single file. Discovery never aborts
// the walk for one bad file; the builder reports issues and the exit code
// carries them.
type Issue struct {
	Path string
	Err  error
}

// Inventory is the result of discovering the content store.
type Inventory struct {
	Posts  []*Post // published posts, newest first
	Drafts []*Post
	Issues []Issue
}

// Tags groups published posts by tag. Posts within a tag keep their
// newest-first ordering.
func (inv *Inventory) Tags() map[string][]*Post {
	tags := make(map[string][]*Post)
	for _, p := range inv.Posts {
		for _, tag := range p.Meta.Tags {
			tags[tag] = append(tags[tag], p)
		}
	}
	return tags
}

// Discovery walks the content store directories.
type Discovery struct {
	postsDir  string
	draftsDir string
}

func NewDiscovery(postsDir, draftsDir string) *Discovery {
	return &Discovery{postsDir: postsDir, draftsDir: draftsDir}
}

// Discover loads every post and draft. Per-file problems become Issues;
// only an unreadable content directory is an error.
func (d *Discovery) Discover() (*Inventory, error) {
	inv := &Inventory{}

	posts, issues, err := d.walk(d.postsDir, false)
	if err != nil {
		return nil, err
	}
	inv.Posts = posts
	inv.Issues = issues

	if d.draftsDir != "" {
		drafts, draftIssues, err := d.walk(d.draftsDir, true)
		if err != nil {
			return nil, err
		}
		inv.Drafts = drafts
		inv.Issues = append(inv.Issues, draftIssues...)
	}

	sortPosts(inv.Posts)
	sortPosts(inv.Drafts)

	slog.Debug("content discovery complete",
		"posts", len(inv.Posts), "drafts", len(inv.Drafts), "issues", len(inv.Issues))
	return inv, nil
}

func (d *Discovery) walk(dir string, drafts bool) ([]*Post, []Issue, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		// A missing drafts dir is normal; a missing posts dir just means an
		// empty site. Either way there is nothing to walk.
		return nil, nil, nil
	}

	var posts []*Post
	var issues []Issue

	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !isMarkdown(name) {
			return nil
		}

		post, loadErr := d.load(dir, path, name, drafts)
		if loadErr != nil {
			issues = append(issues, Issue{Path: path, Err: loadErr})
			slog.Warn("skipping document", "path", path, "error", loadErr)
			return nil
		}
		posts = append(posts, post)
		return nil
	})
	if walkErr != nil {
		return nil, nil, berrors.EnvironmentWrap(walkErr, "walk content directory "+dir)
	}
	return posts, issues, nil
}

func (d *Discovery) load(dir, path, name string, draft bool) (*Post, error) {
	var date time.Time
	var slug string
	var err error
	if draft {
		date, slug, err = parseDraftName(name)
	} else {
		date, slug, err = parsePostName(name)
	}
	if err != nil {
		return nil, berrors.ContentWrap(err, path, "bad filename")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, berrors.ContentWrap(err, path, "read")
	}

	fmRaw, body, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, berrors.ContentWrap(err, path, "split frontmatter")
	}
	meta, err := frontmatter.Parse(fmRaw)
	if err != nil {
		return nil, berrors.ContentWrap(err, path, "parse frontmatter")
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = name
	}

	return &Post{
		Path:    path,
		RelPath: rel,
		Slug:    slug,
		Date:    date,
		Draft:   draft,
		Meta:    meta,
		Body:    body,
	}, nil
}

// sortPosts orders newest first; ties break on slug for deterministic output.
func sortPosts(posts []*Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].Slug < posts[j].Slug
	})
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}
