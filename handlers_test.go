package blogs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogs"
	"github.com/eringen/blogs/views"
)

const testPassword = "correct horse"

type testSite struct {
	app   *blogs.App
	root  blogs.Page
	index blogs.BlogIndexPage
	hello blogs.BlogPage
	draft blogs.BlogPage
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	dir := t.TempDir()
	app := blogs.New(blogs.SiteConfig{
		Name:           "Field Notes",
		URL:            "https://notes.example",
		Description:    "Notes",
		DatabasePath:   filepath.Join(dir, "blog.db"),
		MediaDir:       filepath.Join(dir, "media"),
		SearchIndexDir: filepath.Join(dir, "search"),
		AdminPassword:  testPassword,
		SessionSecret:  "test-session-secret",
	}, views.Default(),
		blogs.WithStaticDir(filepath.Join(dir, "public")),
		blogs.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx := context.Background()
	require.NoError(t, app.Setup(ctx))
	t.Cleanup(func() { app.Close() })

	root, err := app.Store.Root(ctx)
	require.NoError(t, err)
	index, err := app.Store.SaveBlogIndexPage(ctx, root.ID, blogs.BlogIndexPage{
		Page:  blogs.Page{Title: "Blog", Slug: "blog", Live: true},
		Intro: "<p>Writing about Go.</p>",
	})
	require.NoError(t, err)

	site := &testSite{app: app, root: root, index: index}
	site.hello = site.post(t, "hello", "2024-03-05", true, "go", "web")
	site.post(t, "second", "2024-03-06", true, "web")
	site.draft = site.post(t, "draft", "2024-03-07", false, "go")

	_, err = app.Reindex(ctx)
	require.NoError(t, err)
	return site
}

func (s *testSite) post(t *testing.T, slug, date string, live bool, tags ...string) blogs.BlogPage {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	post, err := s.app.Store.SaveBlogPage(context.Background(), s.index.ID, blogs.BlogPage{
		Page: blogs.Page{Title: "Post " + slug, Slug: slug, Live: live},
		Date: d,
		Tags: tags,
	})
	require.NoError(t, err)
	return post
}

// client keeps cookies between requests to the app.
type client struct {
	t       *testing.T
	app     *blogs.App
	cookies map[string]*http.Cookie
}

func (s *testSite) client(t *testing.T) *client {
	return &client{t: t, app: s.app, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.app.Echo.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *client) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) csrf() string {
	c.t.Helper()
	if ck, ok := c.cookies["_csrf"]; ok {
		return ck.Value
	}
	c.get("/admin/")
	ck, ok := c.cookies["_csrf"]
	require.True(c.t, ok, "no csrf cookie issued")
	return ck.Value
}

func (c *client) login() {
	c.t.Helper()
	rec := c.postForm("/admin/login/", url.Values{"password": {testPassword}, "_csrf": {c.csrf()}})
	require.Equal(c.t, http.StatusSeeOther, rec.Code)
}

func TestRootListsChildren(t *testing.T) {
	s := newTestSite(t)
	rec := s.client(t).get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/blog/">Blog</a>`)
}

func TestIndexListsLivePostsNewestFirst(t *testing.T) {
	s := newTestSite(t)
	body := s.client(t).get("/blog/").Body.String()

	second := strings.Index(body, "Post second")
	hello := strings.Index(body, "Post hello")
	require.True(t, second >= 0 && hello >= 0, body)
	assert.Less(t, second, hello)
	assert.NotContains(t, body, "Post draft")
}

func TestIndexTagFilter(t *testing.T) {
	s := newTestSite(t)
	body := s.client(t).get("/blog/?tag=go").Body.String()
	assert.Contains(t, body, "Post hello")
	assert.NotContains(t, body, "Post second")

	body = s.client(t).get("/blog/?tag=Go").Body.String()
	assert.NotContains(t, body, "Post hello")
}

func TestIndexBadPageNumberFallsBack(t *testing.T) {
	s := newTestSite(t)
	for _, page := range []string{"0", "-3", "abc", "99"} {
		rec := s.client(t).get("/blog/?page=" + page)
		assert.Equal(t, http.StatusOK, rec.Code, page)
		assert.Contains(t, rec.Body.String(), "Post hello", page)
	}
}

func TestIndexHtmxPartial(t *testing.T) {
	s := newTestSite(t)
	req := httptest.NewRequest(http.MethodGet, "/blog/?partial=listing", nil)
	req.Header.Set("HX-Request", "true")
	rec := s.client(t).do(req)
	assert.NotContains(t, rec.Body.String(), "<html")
	assert.Contains(t, rec.Body.String(), "Post hello")
	assert.Contains(t, rec.Header().Values(echo.HeaderVary), "HX-Request")

	full := s.client(t).get("/blog/")
	assert.Contains(t, full.Body.String(), "<html")
	assert.Contains(t, full.Header().Values(echo.HeaderVary), "HX-Request")
}

func TestRenderFailureServesErrorPage(t *testing.T) {
	s := newTestSite(t)
	s.app.Views.Folder = func(blogs.FolderView) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			if _, err := io.WriteString(w, "<p>half a page"); err != nil {
				return err
			}
			return errors.New("render failed")
		})
	}

	rec := s.client(t).get("/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "half a page")
	assert.Contains(t, rec.Body.String(), "Something went wrong")
}

func TestPostPage(t *testing.T) {
	s := newTestSite(t)
	rec := s.client(t).get("/blog/hello/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"@type":"BlogPosting"`)
	assert.Contains(t, rec.Body.String(), `href="/blog/?tag=web"`)
}

func TestDraftAndUnknownPagesAreNotFound(t *testing.T) {
	s := newTestSite(t)
	for _, path := range []string{"/blog/draft/", "/nope/", "/blog/hello/extra/"} {
		rec := s.client(t).get(path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Page not found", path)
	}
}

func TestMissingTrailingSlashRedirects(t *testing.T) {
	s := newTestSite(t)
	rec := s.client(t).get("/blog")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/", rec.Header().Get("Location"))
}

func TestFeed(t *testing.T) {
	s := newTestSite(t)
	rec := s.client(t).get("/feed.xml")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Post hello</title>")
	assert.Contains(t, body, "<link>https://notes.example/blog/hello/</link>")
	assert.Contains(t, body, "<category>go</category>")
	assert.NotContains(t, body, "Post draft")
}

func TestSitemap(t *testing.T) {
	s := newTestSite(t)
	body := s.client(t).get("/sitemap.xml").Body.String()
	assert.Contains(t, body, "<loc>https://notes.example/</loc>")
	assert.Contains(t, body, "<loc>https://notes.example/blog/hello/</loc>")
	assert.NotContains(t, body, "/blog/draft/")

	root := strings.Index(body, "<loc>https://notes.example/</loc>")
	blog := strings.Index(body, "<loc>https://notes.example/blog/</loc>")
	assert.True(t, root >= 0 && root < blog, "root should be listed before its descendants")
}

func TestRobotsDefault(t *testing.T) {
	s := newTestSite(t)
	body := s.client(t).get("/robots.txt").Body.String()
	assert.Contains(t, body, "Disallow: /admin/")
	assert.Contains(t, body, "Sitemap: https://notes.example/sitemap.xml")
}

func TestSearch(t *testing.T) {
	s := newTestSite(t)
	rec := s.client(t).get("/search/?q=hello")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/blog/hello/">Post hello</a>`)
	assert.NotContains(t, rec.Body.String(), "Post draft")

	rec = s.client(t).get("/search/?q=draft")
	assert.NotContains(t, rec.Body.String(), `href="/blog/draft/"`)
}

func TestCacheControlHeaders(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	assert.Equal(t, "public, max-age=3600", c.get("/blog/").Header().Get("Cache-Control"))
	assert.Equal(t, "public, max-age=86400", c.get("/feed.xml").Header().Get("Cache-Control"))
	assert.Equal(t, "no-store", c.get("/admin/").Header().Get("Cache-Control"))
}

func TestAPIPages(t *testing.T) {
	s := newTestSite(t)
	rec := s.client(t).get("/api/v2/pages/?type=blog")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Meta struct {
			TotalCount int `json:"total_count"`
		} `json:"meta"`
		Items []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Meta.TotalCount)
	for _, it := range list.Items {
		assert.NotEqual(t, s.draft.ID, it.ID)
	}
}

func TestAPIPageDetail(t *testing.T) {
	s := newTestSite(t)
	rec := s.client(t).get("/api/v2/pages/" + strconv.FormatInt(s.hello.ID, 10) + "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var page map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "Post hello", page["title"])
	assert.Equal(t, "2024-03-05", page["date"])
	assert.ElementsMatch(t, []any{"go", "web"}, page["tags"])
	meta := page["meta"].(map[string]any)
	assert.Equal(t, "https://notes.example/blog/hello/", meta["html_url"])

	for _, id := range []int64{s.draft.ID, s.root.ID, 9999} {
		rec := s.client(t).get("/api/v2/pages/" + strconv.FormatInt(id, 10) + "/")
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	rec := c.postForm("/admin/login/", url.Values{"password": {"nope"}, "_csrf": {c.csrf()}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wrong password.")
}

func TestAdminLoginRateLimited(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	token := c.csrf()
	for i := 0; i < 5; i++ {
		c.postForm("/admin/login/", url.Values{"password": {"nope"}, "_csrf": {token}})
	}
	rec := c.postForm("/admin/login/", url.Values{"password": {testPassword}, "_csrf": {token}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminPostWithoutCSRFIsForbidden(t *testing.T) {
	s := newTestSite(t)
	rec := s.client(t).postForm("/admin/login/", url.Values{"password": {testPassword}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminSaveRequiresLogin(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	rec := c.postForm("/admin/pages/save/", url.Values{"type": {"folder"}, "title": {"X"}, "_csrf": {c.csrf()}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/", rec.Header().Get("Location"))
}

func TestAdminCreateEditAndDeletePost(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	c.login()

	dash := c.get("/admin/")
	assert.Contains(t, dash.Body.String(), "Post draft")

	rec := c.postForm("/admin/pages/save/", url.Values{
		"_csrf":     {c.csrf()},
		"type":      {"blog"},
		"parent_id": {strconv.FormatInt(s.index.ID, 10)},
		"title":     {"Fresh Post"},
		"date":      {"2024-04-01"},
		"tags":      {"go, news"},
		"live":      {"on"},
		"body":      {`[{"type":"paragraph","value":"<p>Brand new words.</p>","id":"b1"}]`},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/?msg=saved", rec.Header().Get("Location"))

	rec = c.get("/blog/fresh-post/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Brand new words.")
	assert.Contains(t, c.get("/blog/?tag=news").Body.String(), "Fresh Post")

	page, err := s.app.Store.GetPageByPath(context.Background(), "/blog/fresh-post/")
	require.NoError(t, err)
	assert.Contains(t, c.get("/search/?q=brand").Body.String(), "Fresh Post")

	rec = c.get("/admin/pages/" + strconv.FormatInt(page.ID, 10) + "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Fresh Post"`)

	req := httptest.NewRequest(http.MethodDelete, "/admin/pages/"+strconv.FormatInt(page.ID, 10)+"/", nil)
	req.Header.Set("X-CSRF-Token", c.csrf())
	rec = c.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted")

	assert.Equal(t, http.StatusNotFound, c.get("/blog/fresh-post/").Code)
	assert.NotContains(t, c.get("/blog/").Body.String(), "Fresh Post")
	assert.NotContains(t, c.get("/search/?q=brand").Body.String(), "Fresh Post")
}

func TestAdminSaveValidationError(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	c.login()

	rec := c.postForm("/admin/pages/save/", url.Values{
		"_csrf":     {c.csrf()},
		"type":      {"blog"},
		"parent_id": {strconv.FormatInt(s.index.ID, 10)},
		"title":     {"Undated"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin/", loc.Path)
	assert.Contains(t, loc.Query().Get("msg"), "date")

	rec = c.postForm("/admin/pages/save/", url.Values{
		"_csrf":     {c.csrf()},
		"type":      {"blog"},
		"parent_id": {strconv.FormatInt(s.index.ID, 10)},
		"title":     {"Post hello"},
		"slug":      {"hello"},
		"date":      {"2024-04-01"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotEqual(t, "/admin/?msg=saved", rec.Header().Get("Location"))
}

func TestAdminRenameRewritesURLs(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	c.login()

	rec := c.postForm("/admin/pages/save/", url.Values{
		"_csrf": {c.csrf()},
		"id":    {strconv.FormatInt(s.index.ID, 10)},
		"type":  {"blog_index"},
		"title": {"Journal"},
		"slug":  {"journal"},
		"live":  {"on"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/?msg=saved", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, c.get("/journal/hello/").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/blog/hello/").Code)
	assert.Contains(t, c.get("/search/?q=hello").Body.String(), `href="/journal/hello/"`)
}

func TestAdminDeleteRootRejected(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	c.login()

	req := httptest.NewRequest(http.MethodDelete, "/admin/pages/"+strconv.FormatInt(s.root.ID, 10)+"/", nil)
	req.Header.Set("X-CSRF-Token", c.csrf())
	assert.Equal(t, http.StatusBadRequest, c.do(req).Code)
}

func TestAdminLogout(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	c.login()
	assert.Contains(t, c.get("/admin/").Body.String(), "Post hello")

	rec := c.postForm("/admin/logout/", url.Values{"_csrf": {c.csrf()}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, c.get("/admin/").Body.String(), "Post hello")
}

func (c *client) upload(target, field, filename string, content []byte, fields url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(c.t, w.WriteField(k, v))
		}
	}
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(c.t, err)
	_, err = fw.Write(content)
	require.NoError(c.t, err)
	require.NoError(c.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAdminImageUploadAndFeedImage(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	c.login()

	rec := c.upload("/admin/images/upload/", "image", "Sunset.png", pngBytes(t, 1200, 600),
		url.Values{"_csrf": {c.csrf()}, "title": {"Sunset"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sunset.jpg")
	assert.Contains(t, rec.Body.String(), "800×400")

	images, err := s.app.Store.ListImages(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.NotEmpty(t, images[0].BlurHash)

	rec = c.postForm("/admin/pages/save/", url.Values{
		"_csrf":      {c.csrf()},
		"id":         {strconv.FormatInt(s.hello.ID, 10)},
		"type":       {"blog"},
		"title":      {"Post hello"},
		"slug":       {"hello"},
		"date":       {"2024-03-05"},
		"live":       {"on"},
		"feed_image": {strconv.FormatInt(images[0].ID, 10)},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/?msg=saved", rec.Header().Get("Location"))

	feed := c.get("/feed.xml").Body.String()
	assert.Contains(t, feed, `<enclosure url="https://notes.example/public/uploads/sunset.jpg"`)

	var page map[string]any
	rec = c.get("/api/v2/pages/" + strconv.FormatInt(s.hello.ID, 10) + "/")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	feedImage := page["feed_image"].(map[string]any)
	assert.Equal(t, images[0].BlurHash, feedImage["blurhash"])
	assert.Equal(t, float64(800), feedImage["width"])
}

func TestAdminDocumentUploadAndServe(t *testing.T) {
	s := newTestSite(t)
	c := s.client(t)
	c.login()

	rec := c.upload("/admin/documents/upload/", "document", "Annual Report.PDF", []byte("%PDF-1.4 report"),
		url.Values{"_csrf": {c.csrf()}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Annual Report")

	docs, err := s.app.Store.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "annual-report.pdf", docs[0].Filename)

	rec = s.client(t).get(docs[0].URL())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 report", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "annual-report.pdf")

	rec = s.client(t).get("/documents/" + strconv.FormatInt(docs[0].ID, 10) + "/other.pdf")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
