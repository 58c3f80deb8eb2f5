package site

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogsmith/internal/config"
)

// newSite scaffolds a fresh site under a temp dir and returns a config
// pointing at it with absolute paths.
func newSite(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, Scaffold(root, false, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	// Drop the scaffold sample post; tests control content exactly.
	require.NoError(t, os.Remove(filepath.Join(root, "content/posts/2024-01-01-hello-world.md")))

	cfg := config.Default()
	cfg.Site.Title = "Test Blog"
	cfg.Site.Author = "tester"
	cfg.Site.BaseURL = "http://localhost:4000"
	cfg.Content.Dir = filepath.Join(root, "content/posts")
	cfg.Content.DraftsDir = filepath.Join(root, "content/drafts")
	cfg.Content.StaticDir = filepath.Join(root, "static")
	cfg.Theme.Dir = filepath.Join(root, "theme")
	cfg.Output.Directory = filepath.Join(root, "public")
	return cfg
}

func addPost(t *testing.T, cfg *config.Config, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Content.Dir, name), []byte(body), 0o644))
}

func addDraft(t *testing.T, cfg *config.Config, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Content.DraftsDir, name), []byte(body), 0o644))
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func build(t *testing.T, cfg *config.Config, opts Options) (*Snapshot, *Report) {
	t.Helper()
	if opts.Now.IsZero() {
		opts.Now = fixedNow
	}
	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	snap, report, err := b.Build(t.Context(), "cli", opts)
	require.NoError(t, err)
	return snap, report
}

func TestBuildRendersPostAtPermalink(t *testing.T) {
	cfg := newSite(t)
	addPost(t, cfg, "2024-03-15-first-post.md", "---\ntitle: First Post\ntags: [go]\n---\n# Hi\n\nbody text\n")

	snap, report := build(t, cfg, Options{})
	require.False(t, report.HasIssues())

	page, ok := snap.Get("2024/03/15/first-post/index.html")
	require.True(t, ok)
	require.Contains(t, string(page), "<h1>First Post</h1>")
	require.Contains(t, string(page), "body text")

	// Index, tag page, feed and theme assets are all present.
	_, ok = snap.Get("index.html")
	require.True(t, ok)
	_, ok = snap.Get("tags/go/index.html")
	require.True(t, ok)
	_, ok = snap.Get("feed.xml")
	require.True(t, ok)
	_, ok = snap.Get("css/style.css")
	require.True(t, ok)
}

func TestBuildIdempotent(t *testing.T) {
	cfg := newSite(t)
	addPost(t, cfg, "2024-03-15-a.md", "---\ntitle: A\ntags: [x]\n---\naaa\n")
	addPost(t, cfg, "2024-04-20-b.md", "---\ntitle: B\n---\nbbb\n")

	first, _ := build(t, cfg, Options{})
	second, _ := build(t, cfg, Options{})

	require.Equal(t, first.Paths(), second.Paths())
	for _, p := range first.Paths() {
		a, _ := first.Get(p)
		b, _ := second.Get(p)
		require.Equal(t, a, b, "output %s differs between identical builds", p)
	}
	require.Equal(t, first.Sum(), second.Sum())
}

func TestBuildExcludesDraftsByDefault(t *testing.T) {
	cfg := newSite(t)
	addPost(t, cfg, "2024-03-15-pub.md", "---\ntitle: Pub\n---\nx\n")
	addDraft(t, cfg, "secret-idea.md", "---\ntitle: Secret\n---\nx\n")

	snap, _ := build(t, cfg, Options{})
	for _, p := range snap.Paths() {
		require.NotContains(t, p, "secret", "draft leaked into output tree: %s", p)
	}

	withDrafts, _ := build(t, cfg, Options{IncludeDrafts: true})
	_, ok := withDrafts.Get("drafts/secret-idea/index.html")
	require.True(t, ok)
}

func TestBuildExcludesFuturePosts(t *testing.T) {
	cfg := newSite(t)
	addPost(t, cfg, "2024-03-15-past.md", "---\ntitle: Past\n---\nx\n")
	addPost(t, cfg, "2030-01-01-future.md", "---\ntitle: Future\n---\nx\n")

	snap, _ := build(t, cfg, Options{})
	_, ok := snap.Get("2030/01/01/future/index.html")
	require.False(t, ok)

	snap, _ = build(t, cfg, Options{IncludeFuture: true})
	_, ok = snap.Get("2030/01/01/future/index.html")
	require.True(t, ok)
}

func TestBuildSkipAndReport(t *testing.T) {
	cfg := newSite(t)
	addPost(t, cfg, "2024-03-15-good.md", "---\ntitle: Good\n---\ngood body\n")
	addPost(t, cfg, "2024-03-16-broken.md", "---\ntitle: [broken\n---\nx\n")
	addPost(t, cfg, "2024-03-17-missing-layout.md", "---\ntitle: M\nlayout: nonexistent\n---\nx\n")

	snap, report := build(t, cfg, Options{})

	// Both bad documents are reported...
	require.True(t, report.HasIssues())
	require.Len(t, report.Issues, 2)

	// ...and the good page still rendered (skip-and-report, not halt).
	page, ok := snap.Get("2024/03/15/good/index.html")
	require.True(t, ok)
	require.Contains(t, string(page), "good body")

	_, ok = snap.Get("2024/03/17/missing-layout/index.html")
	require.False(t, ok)
}

func TestBuildIndexOrder(t *testing.T) {
	cfg := newSite(t)
	addPost(t, cfg, "2024-01-01-old.md", "---\ntitle: Old Post\n---\nx\n")
	addPost(t, cfg, "2024-05-01-new.md", "---\ntitle: New Post\n---\nx\n")

	snap, _ := build(t, cfg, Options{})
	index, ok := snap.Get("index.html")
	require.True(t, ok)
	content := string(index)
	newAt := strings.Index(content, "New Post")
	oldAt := strings.Index(content, "Old Post")
	require.GreaterOrEqual(t, newAt, 0)
	require.GreaterOrEqual(t, oldAt, 0)
	require.Less(t, newAt, oldAt, "index must list newest post first")
}

func TestBuildFeedUsesNewestPostDate(t *testing.T) {
	cfg := newSite(t)
	addPost(t, cfg, "2024-03-15-a.md", "---\ntitle: A\n---\nx\n")
	addPost(t, cfg, "2024-04-20-b.md", "---\ntitle: B\n---\nx\n")

	snap, _ := build(t, cfg, Options{})
	feed, ok := snap.Get("feed.xml")
	require.True(t, ok)
	require.Contains(t, string(feed), "<updated>2024-04-20T00:00:00Z</updated>")
	require.Contains(t, string(feed), "http://localhost:4000/2024/04/20/b/")
}

func TestBuildFeedKeepsBodiesApartForSharedSlugs(t *testing.T) {
	cfg := newSite(t)
	// Same slug on different dates is legal; the permalinks differ.
	addPost(t, cfg, "2024-03-15-weeknotes.md", "---\ntitle: Weeknotes March\n---\nmarch body\n")
	addPost(t, cfg, "2024-04-15-weeknotes.md", "---\ntitle: Weeknotes April\n---\napril body\n")

	snap, report := build(t, cfg, Options{})
	require.False(t, report.HasIssues())

	feed, ok := snap.Get("feed.xml")
	require.True(t, ok)
	content := string(feed)
	require.Contains(t, content, "march body")
	require.Contains(t, content, "april body")
	require.Contains(t, content, "http://localhost:4000/2024/03/15/weeknotes/")
	require.Contains(t, content, "http://localhost:4000/2024/04/15/weeknotes/")
}

func TestBuildSiteStaticShadowsTheme(t *testing.T) {
	cfg := newSite(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Content.StaticDir, "css"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Content.StaticDir, "css", "style.css"),
		[]byte("/* site override */"), 0o644))

	snap, _ := build(t, cfg, Options{})
	css, ok := snap.Get("css/style.css")
	require.True(t, ok)
	require.Equal(t, "/* site override */", string(css))
}
