package blogs

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// SiteConfig holds all configuration for a blogs site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr           string // Listen address (default ":3000")
	DatabasePath   string // SQLite path (default "data/blog.db")
	MediaDir       string // Uploaded documents (default "data/media")
	SearchIndexDir string // Bleve index directory (default "data/search")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	ListingCacheTTL time.Duration // Index listing cache TTL (default 5min)

	LogLevel  string // debug, info, warn, error (default info)
	LogFormat string // text or json (default text)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.MediaDir == "" {
		c.MediaDir = "data/media"
	}
	if c.SearchIndexDir == "" {
		c.SearchIndexDir = "data/search"
	}
	if c.ListingCacheTTL == 0 {
		c.ListingCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// fileConfig is the blogs.toml key mapping.
type fileConfig struct {
	Name            string `toml:"name"`
	URL             string `toml:"url"`
	Description     string `toml:"description"`
	Author          string `toml:"author"`
	Addr            string `toml:"addr"`
	DatabasePath    string `toml:"database_path"`
	MediaDir        string `toml:"media_dir"`
	SearchIndexDir  string `toml:"search_index_dir"`
	AdminPassword   string `toml:"admin_password"`
	SessionSecret   string `toml:"session_secret"`
	CookieSecure    bool   `toml:"cookie_secure"`
	ListingCacheTTL string `toml:"listing_cache_ttl"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
}

// LoadConfigFile reads a TOML config file over cfg. Keys absent from the
// file leave the corresponding field untouched.
func LoadConfigFile(path string, cfg SiteConfig) (SiteConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return SiteConfig{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	str := func(key, val string, dst *string) {
		if meta.IsDefined(key) {
			*dst = strings.TrimSpace(val)
		}
	}
	str("name", raw.Name, &cfg.Name)
	str("url", raw.URL, &cfg.URL)
	str("description", raw.Description, &cfg.Description)
	str("author", raw.Author, &cfg.Author)
	str("addr", raw.Addr, &cfg.Addr)
	str("database_path", raw.DatabasePath, &cfg.DatabasePath)
	str("media_dir", raw.MediaDir, &cfg.MediaDir)
	str("search_index_dir", raw.SearchIndexDir, &cfg.SearchIndexDir)
	str("admin_password", raw.AdminPassword, &cfg.AdminPassword)
	str("session_secret", raw.SessionSecret, &cfg.SessionSecret)
	str("log_level", raw.LogLevel, &cfg.LogLevel)
	str("log_format", raw.LogFormat, &cfg.LogFormat)
	if meta.IsDefined("cookie_secure") {
		cfg.CookieSecure = raw.CookieSecure
	}
	if meta.IsDefined("listing_cache_ttl") {
		ttl, err := time.ParseDuration(strings.TrimSpace(raw.ListingCacheTTL))
		if err != nil {
			return SiteConfig{}, fmt.Errorf("load config: listing_cache_ttl: %w", err)
		}
		cfg.ListingCacheTTL = ttl
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any BLOGS_* environment variables that are set.
func ApplyEnv(cfg SiteConfig) (SiteConfig, error) {
	cfg.Name = EnvOr("BLOGS_SITE_NAME", cfg.Name)
	cfg.URL = EnvOr("BLOGS_SITE_URL", cfg.URL)
	cfg.Description = EnvOr("BLOGS_SITE_DESCRIPTION", cfg.Description)
	cfg.Author = EnvOr("BLOGS_SITE_AUTHOR", cfg.Author)
	cfg.Addr = EnvOr("BLOGS_ADDR", cfg.Addr)
	cfg.DatabasePath = EnvOr("BLOGS_DATABASE_PATH", cfg.DatabasePath)
	cfg.MediaDir = EnvOr("BLOGS_MEDIA_DIR", cfg.MediaDir)
	cfg.SearchIndexDir = EnvOr("BLOGS_SEARCH_INDEX_DIR", cfg.SearchIndexDir)
	cfg.AdminPassword = EnvOr("BLOGS_ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.SessionSecret = EnvOr("BLOGS_SESSION_SECRET", cfg.SessionSecret)
	cfg.LogLevel = EnvOr("BLOGS_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = EnvOr("BLOGS_LOG_FORMAT", cfg.LogFormat)
	if v := os.Getenv("BLOGS_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("BLOGS_COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}
	if v := os.Getenv("BLOGS_LISTING_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("BLOGS_LISTING_CACHE_TTL: %w", err)
		}
		cfg.ListingCacheTTL = ttl
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger sets the structured logger used by the store, search index
// and app lifecycle. Without it the app builds one from LogLevel and LogFormat.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}
