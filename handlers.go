package blogs

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogs/search"
	"github.com/eringen/blogs/streamfield"
)

// handlePage serves the live page whose URL path matches the request.
func (a *App) handlePage(c echo.Context) error {
	ctx := c.Request().Context()
	page, err := a.Store.GetPageByPath(ctx, c.Request().URL.Path)
	if err != nil {
		return err
	}
	if !page.Live {
		return ErrNotFound
	}
	switch page.Type {
	case PageTypeBlogIndex:
		return a.servePageIndex(c, page)
	case PageTypeBlog:
		return a.servePost(c, page)
	default:
		return a.serveFolder(c, page)
	}
}

func (a *App) pageMeta(p Page, description, ogType string) PageMeta {
	if p.SearchDescription != "" {
		description = p.SearchDescription
	}
	if description == "" {
		description = a.Config.Description
	}
	return PageMeta{
		Title:       MetaTitle(p),
		Description: description,
		URL:         AbsoluteURL(a.Config.URL, p.URL()),
		OGType:      ogType,
	}
}

func (a *App) breadcrumbs(c echo.Context, p Page) ([]PageRef, error) {
	ancestors, err := a.Store.Ancestors(c.Request().Context(), p.ID)
	if err != nil {
		return nil, err
	}
	return Breadcrumbs(ancestors), nil
}

func (a *App) servePageIndex(c echo.Context, page Page) error {
	ctx := c.Request().Context()
	index, err := a.Store.GetBlogIndexPage(ctx, page.ID)
	if err != nil {
		return err
	}
	listing, err := a.IndexListing(ctx, index, c.QueryParam("tag"), c.QueryParam("page"))
	if err != nil {
		return err
	}
	tags, err := a.Cache.Tags(ctx, index.ID)
	if err != nil {
		return err
	}
	crumbs, err := a.breadcrumbs(c, page)
	if err != nil {
		return err
	}
	v := IndexView{
		Site:        a.Config,
		Meta:        a.pageMeta(page, streamfield.HTMLToText(index.Intro), "website"),
		Index:       index,
		Listing:     listing,
		Tags:        tags,
		Breadcrumbs: crumbs,
	}
	full := a.Views.Index(v)
	partial := full
	if c.QueryParam("partial") == "listing" {
		partial = a.Views.IndexPartial(v)
	}
	return RenderSwap(c, full, partial)
}

func (a *App) servePost(c echo.Context, page Page) error {
	ctx := c.Request().Context()
	post, err := a.Store.GetBlogPage(ctx, page.ID)
	if err != nil {
		return err
	}
	index, err := a.Store.NearestIndex(ctx, page.ID)
	if err != nil {
		return err
	}
	crumbs, err := a.breadcrumbs(c, page)
	if err != nil {
		return err
	}
	meta := a.pageMeta(page, PostSummary(post), "article")
	if post.FeedImage != nil {
		meta.Image = AbsoluteURL(a.Config.URL, post.FeedImage.URL)
	}
	return Render(c, a.Views.Post(PostView{
		Site:        a.Config,
		Meta:        meta,
		Post:        post,
		Index:       index,
		Breadcrumbs: crumbs,
		Body:        streamfield.Render(post.Body, a.Assets()),
		JSONLD:      BlogPostingJsonLD(post, a.Config),
	}))
}

func (a *App) serveFolder(c echo.Context, page Page) error {
	children, err := a.Store.Children(c.Request().Context(), page.ID, true)
	if err != nil {
		return err
	}
	crumbs, err := a.breadcrumbs(c, page)
	if err != nil {
		return err
	}
	meta := a.pageMeta(page, "", "website")
	if page.Type == PageTypeRoot {
		meta.Title = a.Config.Name
	}
	return Render(c, a.Views.Folder(FolderView{
		Site:        a.Config,
		Meta:        meta,
		Folder:      page,
		Children:    children,
		Breadcrumbs: crumbs,
	}))
}

// handleSearch runs a full-text search over live pages, ten hits a page.
func (a *App) handleSearch(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	v := SearchView{
		Site:  a.Config,
		Meta:  PageMeta{Title: "Search", Description: a.Config.Description, URL: AbsoluteURL(a.Config.URL, "/search/"), OGType: "website"},
		Query: q,
	}
	// Fetch the total first so an out-of-range page clamps to the last one.
	count, err := a.Search.Search(c.Request().Context(), search.Params{Query: q, Limit: 1})
	if err != nil {
		return err
	}
	v.PageWindow = NewPaginator(count.Total, PostsPerPage).Page(c.QueryParam("page"))
	v.Result = count
	if count.Total > 0 {
		res, err := a.Search.Search(c.Request().Context(), search.Params{
			Query:  q,
			Limit:  PostsPerPage,
			Offset: v.Start,
		})
		if err != nil {
			return err
		}
		v.Result = res
	}
	return Render(c, a.Views.Search(v))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	root, err := a.Store.Root(ctx)
	if err != nil {
		return err
	}
	pages, err := a.Store.ListPages(ctx, true)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, append([]Page{root}, pages...))
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.feedPosts(c.Request().Context(), feedSize)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.staticDir, "favicon.svg"))
}

// handleRobots serves the site's robots.txt, or a permissive default that
// points at the sitemap when the site ships none.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	body := "User-agent: *\nDisallow: /admin/\n\nSitemap: " + AbsoluteURL(a.Config.URL, "/sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.logger.Error("server error", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
