package site

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Snapshot is an immutable output tree: a mapping from output path (relative,
// slash-separated, e.g. "2024/03/15/hello/index.html") to rendered bytes.
//
// The dev server publishes snapshots through an atomic pointer swap, so a
// request in flight always sees one complete tree — never a mix of old and
// new pages.
type Snapshot struct {
	files map[string][]byte
	sum   string
}

// NewSnapshot takes ownership of files; callers must not mutate the map
// afterwards. The content sum is hashed up front: a snapshot is shared
// across goroutines once published, so it must be read-only from here on.
func NewSnapshot(files map[string][]byte) *Snapshot {
	s := &Snapshot{files: files}
	h := sha256.New()
	for _, p := range s.Paths() {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write(s.files[p])
		h.Write([]byte{0})
	}
	s.sum = hex.EncodeToString(h.Sum(nil))[:16]
	return s
}

// Get returns the bytes for an output path.
func (s *Snapshot) Get(outputPath string) ([]byte, bool) {
	b, ok := s.files[outputPath]
	return b, ok
}

// Resolve maps a URL path to an output path, applying directory index
// resolution the way a static file server would.
func (s *Snapshot) Resolve(urlPath string) (string, []byte, bool) {
	p := strings.TrimPrefix(urlPath, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	if b, ok := s.files[p]; ok {
		return p, b, true
	}
	// Extensionless request for a page directory.
	if b, ok := s.files[p+"/index.html"]; ok {
		return p + "/index.html", b, true
	}
	return "", nil, false
}

// Paths returns every output path in sorted order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of files in the tree.
func (s *Snapshot) Len() int { return len(s.files) }

// Sum returns the content hash over the whole tree. Identical inputs produce
// identical sums, which is what the livereload hub broadcasts: a browser
// only reloads when the rendered site actually changed.
func (s *Snapshot) Sum() string { return s.sum }
