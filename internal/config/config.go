// Package config loads and validates the blogsmith site configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
)

// Config is the top-level site configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Theme   ThemeConfig   `yaml:"theme"`
	Output  OutputConfig  `yaml:"output"`
	Serve   ServeConfig   `yaml:"serve"`
}

// SiteConfig holds site-wide metadata available to templates and the feed.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ContentConfig locates the content store.
type ContentConfig struct {
	Dir       string `yaml:"dir"`        // published posts
	DraftsDir string `yaml:"drafts_dir"` // unpublished drafts, excluded from builds
	StaticDir string `yaml:"static_dir"` // copied verbatim into the output tree
}

// ThemeConfig locates the theme.
type ThemeConfig struct {
	Dir string `yaml:"dir"`
}

// OutputConfig controls where the rendered site is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // stage and swap instead of overwriting in place
}

// ServeConfig controls the dev server.
type ServeConfig struct {
	Port        int           `yaml:"port"`
	QuietWindow time.Duration `yaml:"quiet_window"` // debounce quiet window
	MaxDelay    time.Duration `yaml:"max_delay"`    // rebuild cannot be postponed past this
	// RepublishEvery re-runs the builder periodically so posts dated in the
	// future appear once their date passes. Zero disables the schedule.
	RepublishEvery time.Duration `yaml:"republish_every"`
}

// Load reads the configuration file, applying .env, defaults and
// BLOGSMITH_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	// .env is optional; absence is the normal case.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, berrors.Config(fmt.Sprintf("configuration file not found: %s", path))
		}
		return nil, berrors.ConfigWrap(err, "read configuration file")
	}

	// ${VAR} references in the YAML expand from the environment, for
	// secrets and machine-local paths.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, berrors.ConfigWrap(err, "parse configuration")
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "A Blog"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "content/posts"
	}
	if c.Content.DraftsDir == "" {
		c.Content.DraftsDir = "content/drafts"
	}
	if c.Content.StaticDir == "" {
		c.Content.StaticDir = "static"
	}
	if c.Theme.Dir == "" {
		c.Theme.Dir = "theme"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "public"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 4000
	}
	if c.Serve.QuietWindow == 0 {
		c.Serve.QuietWindow = 300 * time.Millisecond
	}
	if c.Serve.MaxDelay == 0 {
		c.Serve.MaxDelay = 2 * time.Second
	}
}

// applyEnvOverrides lets deployment environments override the handful of
// values that differ between machines without editing the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BLOGSMITH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Serve.Port = port
		} else {
			slog.Warn("ignoring invalid BLOGSMITH_PORT", "value", v)
		}
	}
	if v := os.Getenv("BLOGSMITH_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("BLOGSMITH_OUTPUT"); v != "" {
		c.Output.Directory = v
	}
}

// Validate checks the configuration, aggregating every problem found.
func (c *Config) Validate() error {
	var problems []string
	if c.Site.Title == "" {
		problems = append(problems, "site.title must not be empty")
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		problems = append(problems, fmt.Sprintf("serve.port %d out of range", c.Serve.Port))
	}
	if c.Serve.QuietWindow <= 0 {
		problems = append(problems, "serve.quiet_window must be positive")
	}
	if c.Serve.MaxDelay < c.Serve.QuietWindow {
		problems = append(problems, "serve.max_delay must be >= serve.quiet_window")
	}
	if c.Content.Dir == c.Output.Directory {
		problems = append(problems, "content.dir and output.directory must differ")
	}
	if len(problems) == 0 {
		return nil
	}
	msg := problems[0]
	for _, p := range problems[1:] {
		msg += "; " + p
	}
	return berrors.Config(msg)
}

// WatchDirs lists the directories the dev server watches for changes.
func (c *Config) WatchDirs() []string {
	return []string{c.Content.Dir, c.Content.DraftsDir, c.Content.StaticDir, c.Theme.Dir}
}
