// Package frontmatter splits and parses `---` delimited YAML frontmatter.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a frontmatter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter opening delimiter found but closing delimiter is missing")

var delimiter = []byte("---")

// Split separates the raw YAML frontmatter block from the Markdown body.
//
// If the document does not start with `---`, had is false and body is the
// full input. Both LF and CRLF documents are accepted.
func Split(content []byte) (raw []byte, body []byte, had bool, err error) {
	rest, ok := cutDelimiterLine(content)
	if !ok {
		return nil, content, false, nil
	}

	// Scan line by line for the closing delimiter.
	offset := 0
	for offset <= len(rest) {
		line, next := nextLine(rest[offset:])
		if bytes.Equal(bytes.TrimRight(line, "\r"), delimiter) {
			return rest[:offset], rest[offset+next:], true, nil
		}
		if next == 0 {
			break
		}
		offset += next
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// cutDelimiterLine strips a leading `---` line, reporting whether it was present.
func cutDelimiterLine(content []byte) ([]byte, bool) {
	if !bytes.HasPrefix(content, delimiter) {
		return nil, false
	}
	rest := content[len(delimiter):]
	if bytes.HasPrefix(rest, []byte("\r\n")) {
		return rest[2:], true
	}
	if bytes.HasPrefix(rest, []byte("\n")) {
		return rest[1:], true
	}
	return nil, false
}

// nextLine returns the first line of b (without the newline) and the offset
// just past its newline. next is 0 when b holds no newline.
func nextLine(b []byte) (line []byte, next int) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, 0
	}
	return b[:i], i + 1
}

// FrontMatter is the typed view of a post's metadata.
//
// Recognized keys are promoted to fields and type-checked at load time;
// everything else lands in Extra untouched so themes can reference custom
// keys without schema changes.
type FrontMatter struct {
	Layout string
	Title  string
	Author string
	Tags   []string
	Extra  map[string]any
}

// Parse decodes a raw frontmatter block into a FrontMatter.
//
// An empty block yields an empty FrontMatter. Type mismatches on recognized
// keys are reported here rather than surfacing later inside template
// rendering.
func Parse(raw []byte) (*FrontMatter, error) {
	fm := &FrontMatter{Extra: map[string]any{}}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fm, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	for key, value := range fields {
		var err error
		switch key {
		case "layout":
			fm.Layout, err = stringField(key, value)
		case "title":
			fm.Title, err = stringField(key, value)
		case "author":
			fm.Author, err = stringField(key, value)
		case "tags":
			fm.Tags, err = stringListField(key, value)
		default:
			fm.Extra[key] = value
		}
		if err != nil {
			return nil, err
		}
	}
	return fm, nil
}

func stringField(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("frontmatter key %q: expected string, got %T", key, value)
	}
	return s, nil
}

func stringListField(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		// A bare scalar is accepted as a single-tag list.
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("frontmatter key %q: expected list of strings, got %T element", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("frontmatter key %q: expected list of strings, got %T", key, value)
	}
}
