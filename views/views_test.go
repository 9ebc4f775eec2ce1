package views

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogs"
	"github.com/eringen/blogs/search"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

var site = blogs.SiteConfig{Name: "Field Notes", URL: "https://notes.example"}

func samplePost(id int64, slug string, day int, tags ...string) blogs.BlogPage {
	return blogs.BlogPage{
		Page: blogs.Page{ID: id, Type: blogs.PageTypeBlog, Title: "Post " + slug, Slug: slug, URLPath: "/blog/" + slug + "/", Live: true},
		Date: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Tags: tags,
	}
}

func sampleIndex() blogs.IndexView {
	index := blogs.BlogIndexPage{
		Page:  blogs.Page{ID: 2, Type: blogs.PageTypeBlogIndex, Title: "Blog", Slug: "blog", URLPath: "/blog/", Live: true},
		Intro: "<p>Writing about <strong>Go</strong>.</p>",
		RelatedLinks: []blogs.RelatedLink{
			{Title: "Go site", LinkTarget: blogs.LinkTarget{External: "https://go.dev"}},
		},
	}
	var posts []blogs.BlogPage
	for i := 12; i >= 1; i-- {
		posts = append(posts, samplePost(int64(i+10), "p"+time.Month(i).String(), i, "go"))
	}
	listing := blogs.BuildListing(posts, "go", "2")
	listing.IndexPage = index
	return blogs.IndexView{
		Site:    site,
		Meta:    blogs.PageMeta{Title: "Blog", URL: "https://notes.example/blog/", OGType: "website"},
		Index:   index,
		Listing: listing,
		Tags:    []string{"Go", "go"},
	}
}

func TestIndex(t *testing.T) {
	views := Default()
	html := render(t, views.Index(sampleIndex()))

	assert.Contains(t, html, "<title>Blog | Field Notes</title>")
	assert.Contains(t, html, "<strong>Go</strong>")
	assert.Contains(t, html, `class="tag active" href="/blog/?tag=go"`)
	assert.Contains(t, html, `class="tag" href="/blog/?tag=Go"`)
	assert.Contains(t, html, `href="https://go.dev"`)
	assert.Contains(t, html, `<span class="current">2</span>`)
	assert.Contains(t, html, `rel="prev"`)
	assert.NotContains(t, html, `rel="next"`)
}

func TestIndexPartialIsListingOnly(t *testing.T) {
	html := render(t, Default().IndexPartial(sampleIndex()))
	assert.NotContains(t, html, "<html")
	assert.Contains(t, html, `class="post-list"`)
	assert.Contains(t, html, "Posts tagged")
}

func TestEmptyListing(t *testing.T) {
	v := sampleIndex()
	v.Listing = blogs.BuildListing(nil, "", "")
	html := render(t, Default().IndexPartial(v))
	assert.Contains(t, html, "No posts yet.")
	assert.NotContains(t, html, "pagination")
}

func TestPost(t *testing.T) {
	post := samplePost(20, "hello", 5, "go", "web")
	post.FeedImage = &blogs.ImageRef{ID: 1, Title: "Cover", URL: "/public/uploads/cover.jpg", Width: 800, Height: 600}
	post.CarouselItems = []blogs.CarouselItem{
		{Image: post.FeedImage, Caption: "Docs", LinkTarget: blogs.LinkTarget{External: "https://pkg.go.dev"}},
	}
	index := sampleIndex().Index
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := w.Write([]byte("<h2>Start</h2>"))
		return err
	})

	html := render(t, Default().Post(blogs.PostView{
		Site:        site,
		Meta:        blogs.PageMeta{Title: "Post hello", OGType: "article", Image: "https://notes.example/public/uploads/cover.jpg"},
		Post:        post,
		Index:       &index,
		Breadcrumbs: []blogs.PageRef{{ID: 2, Title: "Blog", URL: "/blog/"}},
		Body:        body,
		JSONLD:      `{"@type":"BlogPosting"}`,
	}))

	assert.Contains(t, html, "<h2>Start</h2>")
	assert.Contains(t, html, `<script type="application/ld+json">{"@type":"BlogPosting"}</script>`)
	assert.Contains(t, html, `href="/blog/?tag=web"`)
	assert.Contains(t, html, `<a href="https://pkg.go.dev">Docs</a>`)
	assert.Contains(t, html, `og:image`)
	assert.Contains(t, html, "Back to Blog")
}

func TestPostWithoutIndex(t *testing.T) {
	html := render(t, Default().Post(blogs.PostView{
		Site: site,
		Post: samplePost(20, "orphan", 5, "go"),
	}))
	assert.Contains(t, html, `<span class="tag">go</span>`)
	assert.NotContains(t, html, "Back to")
}

func TestFolderRoot(t *testing.T) {
	html := render(t, Default().Folder(blogs.FolderView{
		Site:     site,
		Meta:     blogs.PageMeta{Title: "Field Notes"},
		Folder:   blogs.Page{ID: 1, Type: blogs.PageTypeRoot, URLPath: "/"},
		Children: []blogs.Page{{ID: 2, Title: "Blog", URLPath: "/blog/"}},
	}))
	assert.Contains(t, html, "<title>Field Notes</title>")
	assert.Contains(t, html, `<a href="/blog/">Blog</a>`)
	assert.Contains(t, html, `"@type":"WebSite"`)
}

func TestSearch(t *testing.T) {
	v := blogs.SearchView{
		Site:  site,
		Query: "go & web",
		Result: &search.Result{Query: "go & web", Total: 12, Hits: []search.Hit{
			{PageID: 3, Title: "Hello", URL: "/blog/hello/"},
		}},
		PageWindow: blogs.NewPaginator(12, blogs.PostsPerPage).Page("1"),
	}
	html := render(t, Default().Search(v))
	assert.Contains(t, html, "12 results")
	assert.Contains(t, html, `<a href="/blog/hello/">Hello</a>`)
	assert.Contains(t, html, "q=go%20%26%20web")
	assert.Contains(t, html, "Page 1 of 2")
}

func TestAdminPageForm(t *testing.T) {
	v := blogs.AdminPageFormView{
		Type:     blogs.PageTypeBlog,
		ParentID: 2,
		PageID:   7,
		Values: map[string]string{
			"title":      "Hello",
			"live":       "on",
			"date":       "2024-03-05",
			"feed_image": "4",
			"body":       `[{"type":"h2","value":"Start","id":"a"}]`,
		},
		ContentPanels: blogs.ContentPanels(blogs.PageTypeBlog),
		PromotePanels: blogs.PromotePanels(blogs.PageTypeBlog),
		Images:        []blogs.Image{{ID: 3, Title: "Other"}, {ID: 4, Title: "Cover"}},
		CSRF:          "tok",
	}
	html := render(t, Default().AdminPageForm(v))

	assert.Contains(t, html, `name="_csrf" value="tok"`)
	assert.Contains(t, html, `name="title" value="Hello" required`)
	assert.Contains(t, html, `type="date" id="f-date" name="date" value="2024-03-05"`)
	assert.Contains(t, html, `name="live" value="on" checked`)
	assert.Contains(t, html, `<option value="4" selected>#4 Cover</option>`)
	assert.Contains(t, html, `<option value="3">#3 Other</option>`)
	assert.Contains(t, html, "title, link_external, link_page, link_document")
	assert.Contains(t, html, "image, embed_url, caption, link_external")
	assert.Contains(t, html, `data-delete="/admin/pages/7/"`)
}

func TestAdminDashboard(t *testing.T) {
	html := render(t, Default().AdminDashboard(blogs.AdminDashboardView{
		Pages: []blogs.Page{
			{ID: 1, Type: blogs.PageTypeRoot, Title: "Root", URLPath: "/", Live: true},
			{ID: 2, Depth: 1, Type: blogs.PageTypeBlogIndex, Title: "Blog", URLPath: "/blog/"},
		},
		Message: "saved",
		CSRF:    "tok",
	}))
	assert.Contains(t, html, `<p class="message">saved</p>`)
	assert.Contains(t, html, `href="/admin/pages/new/?type=blog&amp;parent=2"`)
	assert.Contains(t, html, `data-delete="/admin/pages/2/"`)
	assert.NotContains(t, html, `data-delete="/admin/pages/1/"`)
	assert.Contains(t, html, "draft")
}

func TestErrorPages(t *testing.T) {
	assert.Contains(t, render(t, Default().NotFound()), "Page not found")
	assert.Contains(t, render(t, Default().ServerError()), "Something went wrong")
	assert.Contains(t, render(t, Default().AdminLogin(true, "tok")), "Wrong password.")
}

func TestAdminImages(t *testing.T) {
	html := render(t, Default().AdminImages([]blogs.Image{
		{ID: 1, Title: "Sunset", Filename: "sunset.jpg", Width: 640, Height: 480, BlurHash: "LEHV6nWB2yk8"},
		{ID: 2, Title: "Plain", Filename: "plain.png", Width: 10, Height: 10},
	}, "tok"))

	assert.Contains(t, html, `src="/public/uploads/sunset.jpg" alt="Sunset" width="80" loading="lazy" data-blurhash="LEHV6nWB2yk8">`)
	assert.Contains(t, html, `src="/public/uploads/plain.png" alt="Plain" width="80" loading="lazy">`)
	assert.Contains(t, html, "640×480")
	assert.Contains(t, html, `data-delete="/admin/images/2/"`)
	assert.NotContains(t, html, "No images yet.")
}

func TestAdminPageFormErrorsSortedByField(t *testing.T) {
	html := render(t, Default().AdminPageForm(blogs.AdminPageFormView{
		Type:   blogs.PageTypeFolder,
		Values: map[string]string{},
		Errors: map[string]string{"title": "is required", "slug": "is taken"},
		CSRF:   "tok",
	}))

	assert.Contains(t, html, "<h1>New folder</h1>")
	assert.Contains(t, html, `<ul class="errors"><li>slug is taken</li><li>title is required</li></ul>`)
	assert.NotContains(t, html, "data-delete")
}
