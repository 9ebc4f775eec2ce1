package blogs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blogs.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSetDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()
	assert.Equal(t, "Blog", cfg.Name)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "data/blog.db", cfg.DatabasePath)
	assert.Equal(t, "data/media", cfg.MediaDir)
	assert.Equal(t, "data/search", cfg.SearchIndexDir)
	assert.Equal(t, 5*time.Minute, cfg.ListingCacheTTL)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
name = "  Field Notes "
url = "https://notes.example"
cookie_secure = true
listing_cache_ttl = "30s"
`)
	cfg, err := LoadConfigFile(path, SiteConfig{Author: "kept", Addr: ":9000"})
	require.NoError(t, err)
	assert.Equal(t, "Field Notes", cfg.Name)
	assert.Equal(t, "https://notes.example", cfg.URL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 30*time.Second, cfg.ListingCacheTTL)
	assert.Equal(t, "kept", cfg.Author)
	assert.Equal(t, ":9000", cfg.Addr)
}

func TestLoadConfigFileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", `colour = "blue"`, "unknown key"},
		{"bad ttl", `listing_cache_ttl = "soon"`, "listing_cache_ttl"},
		{"bad syntax", `name = `, "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfig(t, tt.body), SiteConfig{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), SiteConfig{})
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BLOGS_SITE_NAME", "From Env")
	t.Setenv("BLOGS_COOKIE_SECURE", "true")
	t.Setenv("BLOGS_LISTING_CACHE_TTL", "2m")

	cfg, err := ApplyEnv(SiteConfig{Name: "From File", URL: "https://kept.example"})
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Name)
	assert.Equal(t, "https://kept.example", cfg.URL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 2*time.Minute, cfg.ListingCacheTTL)

	t.Setenv("BLOGS_COOKIE_SECURE", "maybe")
	_, err = ApplyEnv(SiteConfig{})
	assert.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "debug", "json").Debug("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	NewLogger(&buf, "warn", "text").Info("hidden")
	assert.Empty(t, buf.String())
}
