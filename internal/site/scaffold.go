package site

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
)

const defaultConfigYAML = `site:
  title: A Blog
  author: ""
  base_url: http://localhost:4000
  description: ""

content:
  dir: content/posts
  drafts_dir: content/drafts
  static_dir: static

theme:
  dir: theme

output:
  directory: public
  clean: true

serve:
  port: 4000
`

const headerPartial = `{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Site.Title}}</title>
<link rel="stylesheet" href="/css/style.css">
<link rel="alternate" type="application/atom+xml" href="/feed.xml">
</head>
<body>
<header><a href="/">{{.Site.Title}}</a></header>
<main>
{{end}}`

const footerPartial = `{{define "footer"}}</main>
<footer>{{with .Site.Author}}&copy; {{.}}{{end}}</footer>
</body>
</html>
{{end}}`

const postLayout = `{{template "header" .}}
<article>
<h1>{{.Post.Title}}</h1>
{{if not .Post.Date.IsZero}}<p class="meta"><time datetime="{{isoDate .Post.Date}}">{{formatDate .Post.Date}}</time>{{with .Post.Author}} &middot; {{.}}{{end}}</p>{{end}}
{{.Post.Content}}
{{if .Post.Tags}}<p class="tags">{{range .Post.Tags}}<a href="{{tagURL .}}">#{{.}}</a> {{end}}</p>{{end}}
</article>
{{template "footer" .}}`

const indexLayout = `{{template "header" .}}
<ul class="posts">
{{range .Posts}}<li><time datetime="{{isoDate .Date}}">{{isoDate .Date}}</time> <a href="{{.Permalink}}">{{.Title}}</a>{{if .Draft}} <em>(draft)</em>{{end}}</li>
{{end}}</ul>
{{template "footer" .}}`

const tagLayout = `{{template "header" .}}
<h1>#{{.Tag}}</h1>
<ul class="posts">
{{range .Posts}}<li><time datetime="{{isoDate .Date}}">{{isoDate .Date}}</time> <a href="{{.Permalink}}">{{.Title}}</a></li>
{{end}}</ul>
{{template "footer" .}}`

const defaultStylesheet = `body { max-width: 44rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.6; }
header a { font-weight: 700; text-decoration: none; color: inherit; }
.meta, .tags { color: #666; }
pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; }
`

const samplePostBody = `---
layout: post
title: Hello, World
tags:
  - meta
---

Welcome to your new blog. This post lives in ` + "`content/posts`" + ` and is
named with the date and slug that become its permalink.

Delete it and write something better.
`

// scaffoldFiles maps relative paths to the default site skeleton.
func scaffoldFiles(now time.Time) map[string]string {
	samplePost := fmt.Sprintf("content/posts/%s-hello-world.md", now.Format("2006-01-02"))
	return map[string]string{
		"blogsmith.yaml":                     defaultConfigYAML,
		"theme/layouts/partials/header.html": headerPartial,
		"theme/layouts/partials/footer.html": footerPartial,
		"theme/layouts/post.html":            postLayout,
		"theme/layouts/index.html":           indexLayout,
		"theme/layouts/tag.html":             tagLayout,
		"theme/static/css/style.css":         defaultStylesheet,
		samplePost:                           samplePostBody,
		"content/drafts/.gitkeep":            "",
		"static/.gitkeep":                    "",
	}
}

// Scaffold writes a new site skeleton into dir. Existing files are left
// alone unless force is set.
func Scaffold(dir string, force bool, now time.Time) error {
	if now.IsZero() {
		now = time.Now()
	}
	for rel, body := range scaffoldFiles(now) {
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if !force {
			if _, err := os.Stat(target); err == nil {
				return berrors.Environment("refusing to overwrite " + target + " (use --force)")
			}
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return berrors.EnvironmentWrap(err, "create "+filepath.Dir(target))
		}
		if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
			return berrors.EnvironmentWrap(err, "write "+target)
		}
	}
	return nil
}
