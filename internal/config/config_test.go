package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blogsmith.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "site:\n  title: Test Blog\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Test Blog", cfg.Site.Title)
	require.Equal(t, "content/posts", cfg.Content.Dir)
	require.Equal(t, "content/drafts", cfg.Content.DraftsDir)
	require.Equal(t, "public", cfg.Output.Directory)
	require.Equal(t, 4000, cfg.Serve.Port)
	require.Equal(t, 300*time.Millisecond, cfg.Serve.QuietWindow)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Equal(t, berrors.CategoryConfig, berrors.CategoryOf(err))
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "site: [broken\n")
	_, err := Load(path)
	require.Error(t, err)
	require.Equal(t, berrors.CategoryConfig, berrors.CategoryOf(err))
}

func TestEnvOverridesPort(t *testing.T) {
	t.Setenv("BLOGSMITH_PORT", "8123")
	path := writeConfig(t, "site:\n  title: Test\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8123, cfg.Serve.Port)
}

func TestEnvExpansionInYAML(t *testing.T) {
	t.Setenv("TEST_BASE_URL", "https://blog.example.org")
	path := writeConfig(t, "site:\n  title: Test\n  base_url: ${TEST_BASE_URL}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://blog.example.org", cfg.Site.BaseURL)
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := Default()
	cfg.Serve.Port = -1
	cfg.Serve.QuietWindow = 0
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "serve.port")
	require.Contains(t, err.Error(), "quiet_window")
}

func TestValidateOutputOverlap(t *testing.T) {
	cfg := Default()
	cfg.Output.Directory = cfg.Content.Dir
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "must differ")
}
