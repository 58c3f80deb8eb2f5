package linkcheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogsmith/internal/site"
)

func snapOf(files map[string]string) *site.Snapshot {
	m := make(map[string][]byte, len(files))
	for k, v := range files {
		m[k] = []byte(v)
	}
	return site.NewSnapshot(m)
}

func TestCheckFindsBrokenLinks(t *testing.T) {
	snap := snapOf(map[string]string{
		"index.html":                   `<a href="/2024/01/01/exists/">ok</a> <a href="/2024/01/01/gone/">broken</a>`,
		"2024/01/01/exists/index.html": `<p>hi</p>`,
	})

	problems := Check(snap)
	require.Len(t, problems, 1)
	require.Equal(t, "index.html", problems[0].Page)
	require.Equal(t, "/2024/01/01/gone/", problems[0].Target)
}

func TestCheckIgnoresExternalAndFragments(t *testing.T) {
	snap := snapOf(map[string]string{
		"index.html": `<a href="https://example.org/">x</a>
<a href="//cdn.example.org/a.js">y</a>
<a href="mailto:a@b.c">z</a>
<a href="#section">frag</a>
<a href="tel:+123">tel</a>`,
	})
	require.Empty(t, Check(snap))
}

func TestCheckResolvesRelativeLinks(t *testing.T) {
	snap := snapOf(map[string]string{
		"2024/01/01/post/index.html": `<img src="../../../../images/pic.png"> <img src="missing.png">`,
		"images/pic.png":             "binary",
	})

	problems := Check(snap)
	require.Len(t, problems, 1)
	require.Equal(t, "missing.png", problems[0].Target)
}

func TestCheckStripsQueryAndFragment(t *testing.T) {
	snap := snapOf(map[string]string{
		"index.html":       `<a href="/about/?ref=home#top">about</a>`,
		"about/index.html": `<p>about</p>`,
	})
	require.Empty(t, Check(snap))
}

func TestCheckAssetsLinked(t *testing.T) {
	snap := snapOf(map[string]string{
		"index.html":    `<link href="/css/style.css"><script src="/js/app.js"></script>`,
		"css/style.css": "body{}",
	})
	problems := Check(snap)
	require.Len(t, problems, 1)
	require.Equal(t, "/js/app.js", problems[0].Target)
}
