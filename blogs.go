// Package blogs is a page-tree blog engine built with Go, Echo, and templ.
// Pages form a tree of folders, blog indexes and blog posts; indexes list
// the live posts beneath them, posts carry a structured StreamField body.
//
// Sites provide their own templ components via the ViewFuncs struct, and
// blogs handles the handler logic, middleware, storage and search.
package blogs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogs/search"
	"github.com/eringen/blogs/streamfield"
)

// App is the central blogs application. It wires together the store,
// caches, search index, handlers, middleware, and site templates.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Cache     *ListingCache
	Search    *search.Index
	Views     ViewFuncs
	Validator *Validator

	logger       *slog.Logger
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	ready        bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	}

	return a
}

// Setup opens the store and search index and registers middleware and
// routes. Start calls it; tests and tools that never listen call it directly.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("blogs: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewListingCache(a.Store, a.Config.ListingCacheTTL)
	a.Validator = NewValidator()
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	idx, created, err := search.Open(search.Options{
		DataPath: a.Config.SearchIndexDir,
		Logger:   a.logger.With("component", "search"),
	})
	if err != nil {
		return fmt.Errorf("blogs: init search: %w", err)
	}
	a.Search = idx
	if created {
		n, err := a.Reindex(ctx)
		if err != nil {
			return fmt.Errorf("blogs: build search index: %w", err)
		}
		a.logger.Info("search index built", "documents", n)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.ready = true
	return nil
}

// Start validates the configuration, sets the app up and starts the server.
func (a *App) Start() error {
	if a.Config.AdminPassword == "" {
		return errors.New("blogs: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.New("blogs: SessionSecret is required")
	}
	if err := a.Setup(context.Background()); err != nil {
		return err
	}

	a.logger.Info("starting server", "addr", a.Config.Addr, "site", a.Config.URL)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets live under /public/ next to the site's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/blogs.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/admin.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/search/", a.handleSearch)
	e.GET("/documents/:id/:filename", a.handleDocumentServe)

	api := e.Group("/api/v2")
	api.GET("/pages/", a.handleAPIPages)
	api.GET("/pages/:id/", a.handleAPIPage)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/pages/new/", a.handleAdminPageNew)
	e.GET("/admin/pages/:id/", a.handleAdminPageEdit)
	e.POST("/admin/pages/save/", a.handleAdminSave)
	e.DELETE("/admin/pages/:id/", a.handleAdminDelete)
	e.POST("/admin/reindex/", a.handleAdminReindex)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.DELETE("/admin/images/:id/", a.handleImageDelete)
	e.GET("/admin/documents/", a.handleDocumentList)
	e.POST("/admin/documents/upload/", a.handleDocumentUpload)
	e.DELETE("/admin/documents/:id/", a.handleDocumentDelete)

	// Everything else is a page of the tree.
	e.GET("/", a.handlePage)
	e.GET("/*", a.handlePage)
}

// searchDocument builds the index document of a live page, or nil for
// pages that are not searchable.
func (a *App) searchDocument(ctx context.Context, p Page) (*search.Document, error) {
	doc := &search.Document{
		PageID:      p.ID,
		Title:       p.Title,
		Description: p.SearchDescription,
		URL:         p.URL(),
	}
	switch p.Type {
	case PageTypeFolder:
		doc.Type = search.DocTypeFolder
	case PageTypeBlogIndex:
		idx, err := a.Store.GetBlogIndexPage(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		doc.Type = search.DocTypeBlogIndex
		doc.Intro = streamfield.HTMLToText(idx.Intro)
	case PageTypeBlog:
		post, err := a.Store.GetBlogPage(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		doc.Type = search.DocTypeBlog
		doc.Body = streamfield.PlainText(post.Body)
		doc.Tags = post.Tags
		doc.Date = post.Date
	default:
		return nil, nil
	}
	return doc, nil
}

// Reindex rebuilds the search index from every live page and returns the
// number of indexed pages.
func (a *App) Reindex(ctx context.Context) (int, error) {
	pages, err := a.Store.ListPages(ctx, true)
	if err != nil {
		return 0, err
	}
	docs := make([]*search.Document, 0, len(pages))
	for _, p := range pages {
		doc, err := a.searchDocument(ctx, p)
		if err != nil {
			return 0, fmt.Errorf("page %d: %w", p.ID, err)
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	if err := a.Search.Rebuild(docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// reindexPage refreshes one page in the search index. Search failures are
// logged and never fail the admin write that caused them.
func (a *App) reindexPage(ctx context.Context, p Page) {
	if !p.Live {
		a.deindex(p.ID)
		return
	}
	doc, err := a.searchDocument(ctx, p)
	if err == nil && doc != nil {
		err = a.Search.IndexDocument(doc)
	}
	if err != nil {
		a.logger.Warn("search index update failed", "page_id", p.ID, "error", err)
	}
}

func (a *App) deindex(ids ...int64) {
	if err := a.Search.Delete(ids...); err != nil {
		a.logger.Warn("search index delete failed", "page_ids", ids, "error", err)
	}
}

// Shutdown stops the server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var errs []error
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Search != nil {
		errs = append(errs, a.Search.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("blogs: required environment variable %s is not set", key)
	}
	return v
}
