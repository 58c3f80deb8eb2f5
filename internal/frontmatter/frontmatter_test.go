package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitBasic(t *testing.T) {
	doc := []byte("---\ntitle: Hello\n---\nbody text\n")
	raw, body, had, err := Split(doc)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: Hello\n", string(raw))
	require.Equal(t, "body text\n", string(body))
}

func TestSplitCRLF(t *testing.T) {
	doc := []byte("---\r\ntitle: Hello\r\n---\r\nbody\r\n")
	raw, body, had, err := Split(doc)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: Hello\r\n", string(raw))
	require.Equal(t, "body\r\n", string(body))
}

func TestSplitNoFrontmatter(t *testing.T) {
	doc := []byte("# Just markdown\n")
	raw, body, had, err := Split(doc)
	require.NoError(t, err)
	require.False(t, had)
	require.Nil(t, raw)
	require.Equal(t, doc, body)
}

func TestSplitEmptyBlock(t *testing.T) {
	doc := []byte("---\n---\nbody\n")
	raw, body, had, err := Split(doc)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, raw)
	require.Equal(t, "body\n", string(body))
}

func TestSplitMissingClosing(t *testing.T) {
	doc := []byte("---\ntitle: Hello\nbody without closing\n")
	_, _, _, err := Split(doc)
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestParseRecognizedKeys(t *testing.T) {
	fm, err := Parse([]byte("layout: post\ntitle: My Post\nauthor: alice\ntags:\n  - go\n  - blog\ncustom: 42\n"))
	require.NoError(t, err)
	require.Equal(t, "post", fm.Layout)
	require.Equal(t, "My Post", fm.Title)
	require.Equal(t, "alice", fm.Author)
	require.Equal(t, []string{"go", "blog"}, fm.Tags)
	require.Equal(t, 42, fm.Extra["custom"])
}

func TestParseScalarTagBecomesList(t *testing.T) {
	fm, err := Parse([]byte("tags: solo\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"solo"}, fm.Tags)
}

func TestParseTypeMismatch(t *testing.T) {
	_, err := Parse([]byte("title: [not, a, string]\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), `"title"`)

	_, err = Parse([]byte("tags:\n  - ok\n  - 7\n"))
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	fm, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, fm.Title)
	require.Empty(t, fm.Extra)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("title: [unclosed\n"))
	require.Error(t, err)
}
