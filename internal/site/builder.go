// Package site renders the content store into an output tree.
package site

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogsmith/internal/config"
	"git.home.luguber.info/inful/blogsmith/internal/content"
	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
	"git.home.luguber.info/inful/blogsmith/internal/markdown"
)

const defaultLayout = "post"

// Options select which documents a build includes.
type Options struct {
	IncludeDrafts bool
	IncludeFuture bool
	// Now is the reference time for the future-post cutoff. Zero means
	// time.Now(); tests pin it for determinism.
	Now time.Time
}

// Builder performs the one-shot transform from content store + theme to an
// output tree. It is a pure single-pass, single-threaded transform: the same
// inputs always produce the same snapshot bytes.
//
// Failure policy is skip-and-report: a document with malformed frontmatter
// or a missing layout is recorded in the report and skipped; the rest of the
// site still builds. A bad document never blanks unrelated pages.
type Builder struct {
	cfg   *config.Config
	theme *Theme
	md    *markdown.Renderer
}

// NewBuilder loads the theme and prepares a builder.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	theme, err := LoadTheme(cfg.Theme.Dir)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, theme: theme, md: markdown.NewRenderer()}, nil
}

// Build renders the whole site into an in-memory snapshot.
func (b *Builder) Build(ctx context.Context, trigger string, opts Options) (*Snapshot, *Report, error) {
	report := newReport(trigger)
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	inv, err := content.NewDiscovery(b.cfg.Content.Dir, b.cfg.Content.DraftsDir).Discover()
	if err != nil {
		return nil, report, err
	}
	for _, issue := range inv.Issues {
		report.addIssue(issue.Path, issue.Err)
	}

	posts := b.selectPosts(inv, opts, now)

	files := make(map[string][]byte)
	views := make([]*postView, 0, len(posts))
	renderedBodies := make(map[string][]byte, len(posts))

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		view, html, err := b.renderPost(post)
		if err != nil {
			report.addIssue(post.Path, err)
			continue
		}
		files[OutputPath(post)] = html
		views = append(views, view)
		// Keyed by output path: a bare slug collides when two posts share
		// a slug on different dates.
		renderedBodies[OutputPath(post)] = []byte(view.Content)
	}

	renderedPosts := postsOf(views, posts, files)

	b.renderIndex(files, views, report)
	b.renderTagPages(files, renderedPosts, report)

	if feed, err := renderFeed(&b.cfg.Site, renderedPosts, renderedBodies); err != nil {
		report.addIssue("feed.xml", err)
	} else {
		files["feed.xml"] = feed
	}

	if err := b.copyStatic(files, report); err != nil {
		return nil, report, err
	}

	report.Pages = len(files)
	slog.Info("build complete",
		"build_id", report.ID,
		"trigger", trigger,
		"pages", report.Pages,
		"issues", len(report.Issues),
		"duration", report.Duration)

	return NewSnapshot(files), report, nil
}

// selectPosts applies the publication rules: drafts out unless requested,
// future-dated posts out unless requested.
func (b *Builder) selectPosts(inv *content.Inventory, opts Options, now time.Time) []*content.Post {
	posts := make([]*content.Post, 0, len(inv.Posts))
	for _, p := range inv.Posts {
		if p.Future(now) && !opts.IncludeFuture {
			slog.Debug("excluding future-dated post", "slug", p.Slug, "date", p.Date)
			continue
		}
		posts = append(posts, p)
	}
	if opts.IncludeDrafts {
		posts = append(posts, inv.Drafts...)
	}
	return posts
}

// postView is the per-post data handed to templates.
type postView struct {
	Title     string
	Author    string
	Permalink string
	Date      time.Time
	Tags      []string
	Draft     bool
	Content   template.HTML
}

type sitemeta struct {
	Title       string
	Author      string
	BaseURL     string
	Description string
}

type pageData struct {
	Site  sitemeta
	Post  *postView
	Posts []*postView
	Tag   string
}

func (b *Builder) siteMeta() sitemeta {
	return sitemeta{
		Title:       b.cfg.Site.Title,
		Author:      b.cfg.Site.Author,
		BaseURL:     b.cfg.Site.BaseURL,
		Description: b.cfg.Site.Description,
	}
}

func (b *Builder) renderPost(post *content.Post) (*postView, []byte, error) {
	body, err := b.md.Render(post.Body)
	if err != nil {
		return nil, nil, berrors.ContentWrap(err, post.Path, "render markdown")
	}

	layout := post.Meta.Layout
	if layout == "" {
		layout = defaultLayout
	}
	author := post.Meta.Author
	if author == "" {
		author = b.cfg.Site.Author
	}

	view := &postView{
		Title:     post.Title(),
		Author:    author,
		Permalink: Permalink(post),
		Date:      post.Date,
		Tags:      post.Meta.Tags,
		Draft:     post.Draft,
		Content:   template.HTML(body),
	}

	page, err := b.theme.Render(layout, pageData{Site: b.siteMeta(), Post: view})
	if err != nil {
		return nil, nil, berrors.ContentWrap(err, post.Path, "render layout")
	}
	return view, page, nil
}

func (b *Builder) renderIndex(files map[string][]byte, views []*postView, report *Report) {
	page, err := b.theme.Render("index", pageData{Site: b.siteMeta(), Posts: views})
	if err != nil {
		report.addIssue("index.html", err)
		return
	}
	files["index.html"] = page
}

func (b *Builder) renderTagPages(files map[string][]byte, posts []*content.Post, report *Report) {
	tags := make(map[string][]*postView)
	for _, p := range posts {
		for _, tag := range p.Meta.Tags {
			outPath := OutputPath(p)
			if _, ok := files[outPath]; !ok {
				continue // the post itself failed to render
			}
			tags[tag] = append(tags[tag], &postView{
				Title:     p.Title(),
				Permalink: Permalink(p),
				Date:      p.Date,
				Tags:      p.Meta.Tags,
			})
		}
	}
	for tag, tagged := range tags {
		page, err := b.theme.Render("tag", pageData{Site: b.siteMeta(), Posts: tagged, Tag: tag})
		if err != nil {
			report.addIssue(TagOutputPath(tag), err)
			continue
		}
		files[TagOutputPath(tag)] = page
	}
}

// postsOf filters the selected posts down to the ones that rendered.
func postsOf(views []*postView, posts []*content.Post, files map[string][]byte) []*content.Post {
	out := make([]*content.Post, 0, len(views))
	for _, p := range posts {
		if _, ok := files[OutputPath(p)]; ok {
			out = append(out, p)
		}
	}
	return out
}

// copyStatic copies the site's static dir and the theme's static dir into
// the tree. Theme assets copy first so site assets can shadow them.
func (b *Builder) copyStatic(files map[string][]byte, report *Report) error {
	for _, dir := range []string{b.theme.StaticDir(), b.cfg.Content.StaticDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return err
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				report.addIssue(path, berrors.ContentWrap(err, path, "read static asset"))
				return nil
			}
			files[filepath.ToSlash(rel)] = data
			return nil
		})
		if err != nil {
			return berrors.EnvironmentWrap(err, "walk static directory "+dir)
		}
	}
	return nil
}
