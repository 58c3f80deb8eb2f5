package site

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
)

// Theme is a loaded set of layout templates plus the theme's static assets.
//
// Layout files live under <dir>/layouts/*.html; each layout is parsed
// together with any <dir>/layouts/partials/*.html so layouts can share
// headers and footers. Static assets under <dir>/static are copied into the
// output tree verbatim.
type Theme struct {
	dir     string
	layouts map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string { return t.Format("January 2, 2006") },
	"isoDate":    func(t time.Time) string { return t.Format("2006-01-02") },
	"tagURL":     TagPermalink,
}

// LoadTheme parses all layouts in the theme directory.
func LoadTheme(dir string) (*Theme, error) {
	layoutsDir := filepath.Join(dir, "layouts")
	entries, err := os.ReadDir(layoutsDir)
	if err != nil {
		return nil, berrors.EnvironmentWrap(err, "read theme layouts directory")
	}

	partials, _ := filepath.Glob(filepath.Join(layoutsDir, "partials", "*.html"))

	theme := &Theme{dir: dir, layouts: make(map[string]*template.Template)}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".html" {
			continue
		}
		name := entry.Name()[:len(entry.Name())-len(".html")]
		files := append([]string{filepath.Join(layoutsDir, entry.Name())}, partials...)
		tmpl, err := template.New(entry.Name()).Funcs(templateFuncs).ParseFiles(files...)
		if err != nil {
			return nil, berrors.ConfigWrap(err, fmt.Sprintf("parse layout %s", entry.Name()))
		}
		theme.layouts[name] = tmpl
	}

	if len(theme.layouts) == 0 {
		return nil, berrors.Config("theme has no layouts under " + layoutsDir)
	}
	return theme, nil
}

// HasLayout reports whether the theme provides the named layout.
func (t *Theme) HasLayout(name string) bool {
	_, ok := t.layouts[name]
	return ok
}

// Render executes the named layout. An unknown layout is a content error:
// the document referenced it, the theme does not provide it.
func (t *Theme) Render(layout string, data any) ([]byte, error) {
	tmpl, ok := t.layouts[layout]
	if !ok {
		return nil, fmt.Errorf("layout %q not provided by theme", layout)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layout+".html", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StaticDir returns the theme's static asset directory.
func (t *Theme) StaticDir() string {
	return filepath.Join(t.dir, "static")
}
