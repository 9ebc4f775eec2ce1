package blogs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/blogs/streamfield"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test_blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustRoot(t *testing.T, s *Store) Page {
	t.Helper()
	root, err := s.Root(context.Background())
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	return root
}

func mustIndex(t *testing.T, s *Store, parentID int64, slug string) BlogIndexPage {
	t.Helper()
	idx, err := s.SaveBlogIndexPage(context.Background(), parentID, BlogIndexPage{
		Page:  Page{Title: "Index " + slug, Slug: slug, Live: true},
		Intro: "<p>intro</p>",
	})
	if err != nil {
		t.Fatalf("SaveBlogIndexPage(%s) failed: %v", slug, err)
	}
	return idx
}

func mustPost(t *testing.T, s *Store, parentID int64, slug, date string, live bool, tags ...string) BlogPage {
	t.Helper()
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		t.Fatal(err)
	}
	post, err := s.SaveBlogPage(context.Background(), parentID, BlogPage{
		Page: Page{Title: "Post " + slug, Slug: slug, Live: live},
		Date: d,
		Tags: tags,
	})
	if err != nil {
		t.Fatalf("SaveBlogPage(%s) failed: %v", slug, err)
	}
	return post
}

func TestNewStoreCreatesRoot(t *testing.T) {
	s := setupTestStore(t)
	root := mustRoot(t, s)

	if root.Type != PageTypeRoot {
		t.Errorf("Type = %q, want %q", root.Type, PageTypeRoot)
	}
	if root.Depth != 0 {
		t.Errorf("Depth = %d, want 0", root.Depth)
	}
	if root.URL() != "/" {
		t.Errorf("URL = %q, want /", root.URL())
	}
	if root.Path == "" {
		t.Error("root path should be set")
	}
}

func TestNewStoreReopenKeepsSingleRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	first := mustRoot(t, s)
	s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pages WHERE depth = 0`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("root count = %d, want 1", n)
	}
	if got := mustRoot(t, s); got.ID != first.ID {
		t.Errorf("root id = %d, want %d", got.ID, first.ID)
	}
}

func TestAddPageTreeFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)

	folder, err := s.AddPage(ctx, root.ID, Page{Type: PageTypeFolder, Title: "Writing", Live: true})
	if err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	if folder.Slug != "writing" {
		t.Errorf("Slug = %q, want writing", folder.Slug)
	}
	if folder.URL() != "/writing/" {
		t.Errorf("URL = %q, want /writing/", folder.URL())
	}
	if folder.Depth != 1 {
		t.Errorf("Depth = %d, want 1", folder.Depth)
	}
	if folder.ParentID != root.ID {
		t.Errorf("ParentID = %d, want %d", folder.ParentID, root.ID)
	}

	idx := mustIndex(t, s, folder.ID, "blog")
	if idx.URL() != "/writing/blog/" {
		t.Errorf("index URL = %q, want /writing/blog/", idx.URL())
	}
	got, err := s.GetPageByPath(ctx, "writing/blog")
	if err != nil {
		t.Fatalf("GetPageByPath failed: %v", err)
	}
	if got.ID != idx.ID {
		t.Errorf("GetPageByPath id = %d, want %d", got.ID, idx.ID)
	}
	u, err := s.PageURL(ctx, idx.ID)
	if err != nil || u != "/writing/blog/" {
		t.Errorf("PageURL = %q, %v", u, err)
	}
}

func TestAddPageErrors(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)

	if _, err := s.AddPage(ctx, root.ID, Page{Type: PageTypeFolder, Title: "A", Slug: "a"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		parent int64
		page   Page
		want   error
	}{
		{"sibling slug", root.ID, Page{Type: PageTypeFolder, Title: "Other", Slug: "a"}, ErrSlugInUse},
		{"missing parent", 9999, Page{Type: PageTypeFolder, Title: "B"}, ErrInvalidParent},
		{"root type", root.ID, Page{Type: PageTypeRoot, Title: "C"}, ErrInvalidPageType},
		{"empty type", root.ID, Page{Title: "D"}, ErrInvalidPageType},
		{"no slug", root.ID, Page{Type: PageTypeFolder, Title: "!!!"}, ErrInvalidSlug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddPage(ctx, tt.parent, tt.page)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSameSlugUnderDifferentParents(t *testing.T) {
	s := setupTestStore(t)
	root := mustRoot(t, s)
	a := mustIndex(t, s, root.ID, "a")
	b := mustIndex(t, s, root.ID, "b")

	mustPost(t, s, a.ID, "hello", "2024-01-01", true)
	post := mustPost(t, s, b.ID, "hello", "2024-01-01", true)
	if post.URL() != "/b/hello/" {
		t.Errorf("URL = %q, want /b/hello/", post.URL())
	}
}

func TestAncestorsAndDescendants(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	a := mustIndex(t, s, root.ID, "a")
	folder, err := s.AddPage(ctx, a.ID, Page{Type: PageTypeFolder, Title: "Folder", Live: true})
	if err != nil {
		t.Fatal(err)
	}
	b := mustIndex(t, s, folder.ID, "b")
	post := mustPost(t, s, b.ID, "post", "2024-01-01", true)
	draft := mustPost(t, s, a.ID, "draft", "2024-01-02", false)

	anc, err := s.Ancestors(ctx, post.ID)
	if err != nil {
		t.Fatalf("Ancestors failed: %v", err)
	}
	wantIDs := []int64{root.ID, a.ID, folder.ID, b.ID}
	if len(anc) != len(wantIDs) {
		t.Fatalf("got %d ancestors, want %d", len(anc), len(wantIDs))
	}
	for i, p := range anc {
		if p.ID != wantIDs[i] {
			t.Errorf("ancestor[%d] = %d, want %d", i, p.ID, wantIDs[i])
		}
	}

	all, err := s.Descendants(ctx, a.ID, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("got %d descendants, want 4", len(all))
	}
	blogs, err := s.Descendants(ctx, a.ID, PageTypeBlog, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(blogs) != 1 || blogs[0].ID != post.ID {
		t.Errorf("live blog descendants = %v, want only %d", blogs, post.ID)
	}
	for _, p := range all {
		if p.ID == a.ID {
			t.Error("descendants should not include the page itself")
		}
	}

	children, err := s.Children(ctx, a.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 2 || children[0].ID != folder.ID || children[1].ID != draft.ID {
		t.Errorf("children = %v", children)
	}
}

func TestNearestIndex(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	a := mustIndex(t, s, root.ID, "a")
	folder, err := s.AddPage(ctx, a.ID, Page{Type: PageTypeFolder, Title: "Folder", Live: true})
	if err != nil {
		t.Fatal(err)
	}
	b := mustIndex(t, s, folder.ID, "b")
	post := mustPost(t, s, b.ID, "post", "2024-01-01", true)

	idx, err := s.NearestIndex(ctx, post.ID)
	if err != nil {
		t.Fatalf("NearestIndex failed: %v", err)
	}
	if idx == nil || idx.ID != b.ID {
		t.Fatalf("NearestIndex = %v, want index %d", idx, b.ID)
	}
	if idx.Intro != "<p>intro</p>" {
		t.Errorf("Intro = %q", idx.Intro)
	}

	other, err := s.AddPage(ctx, root.ID, Page{Type: PageTypeFolder, Title: "Other", Live: true})
	if err != nil {
		t.Fatal(err)
	}
	orphan := mustPost(t, s, other.ID, "orphan", "2024-01-01", true)
	idx, err = s.NearestIndex(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("NearestIndex failed: %v", err)
	}
	if idx != nil {
		t.Errorf("NearestIndex = %v, want nil", idx)
	}
}

func TestSaveAndGetBlogPage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	idx := mustIndex(t, s, root.ID, "blog")

	img, err := s.SaveImage(ctx, Image{Title: "Cover", Filename: "cover.jpg", OriginalName: "cover.png", Width: 800, Height: 600, Size: 10, UploadedAt: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := s.SaveDocument(ctx, Document{Title: "Paper", Filename: "paper.pdf", StorageKey: "k1-paper.pdf", Size: 5, UploadedAt: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatal(err)
	}
	imgRef := img.Ref()
	docRef := doc.Ref()
	idxRef := idx.Ref()

	body := streamfield.Stream{
		streamfield.NewBlock(streamfield.H2, streamfield.CharValue("Hello")),
		streamfield.NewBlock(streamfield.Document, streamfield.DocumentValue(doc.ID)),
	}
	saved, err := s.SaveBlogPage(ctx, idx.ID, BlogPage{
		Page:      Page{Title: "First Post", Live: true, SearchDescription: "desc"},
		Body:      body,
		Date:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Tags:      []string{" go ", "web", "go", ""},
		FeedImage: &imgRef,
		CarouselItems: []CarouselItem{
			{SortOrder: 2, Caption: "second", LinkTarget: LinkTarget{External: "https://example.com"}},
			{SortOrder: 1, Caption: "first", Image: &imgRef, LinkTarget: LinkTarget{Page: &idxRef}},
		},
		RelatedLinks: []RelatedLink{
			{Title: "Paper", LinkTarget: LinkTarget{Document: &docRef, External: "https://ignored.example"}},
		},
	})
	if err != nil {
		t.Fatalf("SaveBlogPage failed: %v", err)
	}

	got, err := s.GetBlogPage(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetBlogPage failed: %v", err)
	}
	if got.Slug != "first-post" || got.URL() != "/blog/first-post/" {
		t.Errorf("slug/url = %q %q", got.Slug, got.URL())
	}
	if got.Date.Format(dateLayout) != "2024-03-05" {
		t.Errorf("Date = %v", got.Date)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" || got.Tags[1] != "web" {
		t.Errorf("Tags = %v, want [go web]", got.Tags)
	}
	if len(got.Body) != 2 || got.Body[0].ID != body[0].ID || got.Body[1].Value != streamfield.DocumentValue(doc.ID) {
		t.Errorf("Body = %+v", got.Body)
	}
	if got.FeedImage == nil || got.FeedImage.URL != "/public/uploads/cover.jpg" {
		t.Errorf("FeedImage = %+v", got.FeedImage)
	}
	if len(got.CarouselItems) != 2 {
		t.Fatalf("got %d carousel items, want 2", len(got.CarouselItems))
	}
	if got.CarouselItems[0].Caption != "first" || got.CarouselItems[0].URL() != "/blog/" || got.CarouselItems[0].Image == nil {
		t.Errorf("carousel[0] = %+v", got.CarouselItems[0])
	}
	if got.CarouselItems[1].URL() != "https://example.com" {
		t.Errorf("carousel[1] url = %q", got.CarouselItems[1].URL())
	}
	if len(got.RelatedLinks) != 1 || got.RelatedLinks[0].URL() != docRef.URL {
		t.Errorf("related links = %+v", got.RelatedLinks)
	}
}

func TestSaveBlogPageRequiresDate(t *testing.T) {
	s := setupTestStore(t)
	root := mustRoot(t, s)
	idx := mustIndex(t, s, root.ID, "blog")

	_, err := s.SaveBlogPage(context.Background(), idx.ID, BlogPage{Page: Page{Title: "No date"}})
	if !errors.Is(err, ErrDateRequired) {
		t.Errorf("err = %v, want ErrDateRequired", err)
	}
}

func TestUpdatePageRewritesSubtreeURLs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	idx := mustIndex(t, s, root.ID, "blog")
	post := mustPost(t, s, idx.ID, "post", "2024-01-01", true)

	idx.Slug = "journal"
	updated, err := s.SaveBlogIndexPage(ctx, root.ID, idx)
	if err != nil {
		t.Fatalf("SaveBlogIndexPage failed: %v", err)
	}
	if updated.URL() != "/journal/" {
		t.Errorf("index URL = %q, want /journal/", updated.URL())
	}
	got, err := s.GetPage(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.URL() != "/journal/post/" {
		t.Errorf("post URL = %q, want /journal/post/", got.URL())
	}
}

func TestListBlogPostsOrderingAndFilter(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	idx := mustIndex(t, s, root.ID, "blog")
	folder, err := s.AddPage(ctx, idx.ID, Page{Type: PageTypeFolder, Title: "Archive", Live: true})
	if err != nil {
		t.Fatal(err)
	}

	old := mustPost(t, s, idx.ID, "old", "2023-01-01", true, "go")
	tieA := mustPost(t, s, idx.ID, "tie-a", "2024-06-01", true, "Go")
	tieB := mustPost(t, s, folder.ID, "tie-b", "2024-06-01", true, "go")
	mustPost(t, s, idx.ID, "draft", "2025-01-01", false, "go")
	newest := mustPost(t, s, idx.ID, "newest", "2024-12-01", true)

	posts, err := s.ListBlogPosts(ctx, idx.ID, "")
	if err != nil {
		t.Fatalf("ListBlogPosts failed: %v", err)
	}
	want := []int64{newest.ID, tieB.ID, tieA.ID, old.ID}
	if len(posts) != len(want) {
		t.Fatalf("got %d posts, want %d", len(posts), len(want))
	}
	for i, p := range posts {
		if p.ID != want[i] {
			t.Errorf("posts[%d] = %d, want %d", i, p.ID, want[i])
		}
	}

	tagged, err := s.ListBlogPosts(ctx, idx.ID, "go")
	if err != nil {
		t.Fatal(err)
	}
	if len(tagged) != 2 || tagged[0].ID != tieB.ID || tagged[1].ID != old.ID {
		t.Errorf("tagged posts = %v", ids(tagged))
	}
	if len(tagged[0].Tags) != 1 || tagged[0].Tags[0] != "go" {
		t.Errorf("tags = %v", tagged[0].Tags)
	}

	none, err := s.ListBlogPosts(ctx, idx.ID, "rust")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("got %d posts for unused tag, want 0", len(none))
	}

	tags, err := s.ListTags(ctx, idx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0] != "Go" || tags[1] != "go" {
		t.Errorf("ListTags = %v, want [Go go]", tags)
	}
}

func TestDeletePageCascades(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	idx := mustIndex(t, s, root.ID, "blog")
	other := mustIndex(t, s, root.ID, "other")
	post := mustPost(t, s, idx.ID, "post", "2024-01-01", true, "go")

	postRef := post.Ref()
	other.RelatedLinks = []RelatedLink{{Title: "See post", LinkTarget: LinkTarget{Page: &postRef, External: "https://fallback.example"}}}
	if _, err := s.SaveBlogIndexPage(ctx, root.ID, other); err != nil {
		t.Fatal(err)
	}

	removed, err := s.DeletePage(ctx, idx.ID)
	if err != nil {
		t.Fatalf("DeletePage failed: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed = %v, want 2 ids", removed)
	}
	if _, err := s.GetPage(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("post after delete: err = %v, want ErrNotFound", err)
	}
	for _, table := range []string{"blog_pages", "blog_page_tags", "blog_index_pages"} {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE page_id IN (?, ?)`, idx.ID, post.ID).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%s has %d orphaned rows", table, n)
		}
	}

	got, err := s.GetBlogIndexPage(ctx, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.RelatedLinks) != 1 || got.RelatedLinks[0].Page != nil {
		t.Fatalf("related links = %+v", got.RelatedLinks)
	}
	if got.RelatedLinks[0].URL() != "https://fallback.example" {
		t.Errorf("link URL = %q, want fallback", got.RelatedLinks[0].URL())
	}
}

func TestDeleteRootPage(t *testing.T) {
	s := setupTestStore(t)
	root := mustRoot(t, s)
	if _, err := s.DeletePage(context.Background(), root.ID); !errors.Is(err, ErrRootPage) {
		t.Errorf("err = %v, want ErrRootPage", err)
	}
}

func TestDeleteImageClearsFeedImage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	idx := mustIndex(t, s, root.ID, "blog")
	img, err := s.SaveImage(ctx, Image{Title: "Cover", Filename: "cover.jpg", OriginalName: "cover.jpg", Width: 10, Height: 10, Size: 1, UploadedAt: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatal(err)
	}
	ref := img.Ref()
	post, err := s.SaveBlogPage(ctx, idx.ID, BlogPage{Page: Page{Title: "P", Live: true}, Date: time.Now(), FeedImage: &ref})
	if err != nil {
		t.Fatal(err)
	}

	taken, err := s.ImageFilenameTaken(ctx, "cover.jpg")
	if err != nil || !taken {
		t.Errorf("ImageFilenameTaken = %v, %v", taken, err)
	}
	if _, err := s.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	got, err := s.GetBlogPage(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FeedImage != nil {
		t.Errorf("FeedImage = %+v, want nil", got.FeedImage)
	}
	if _, err := s.DeleteImage(ctx, img.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestDocuments(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	d, err := s.SaveDocument(ctx, Document{Title: "Report", Filename: "report 2024.pdf", StorageKey: "abc-report-2024.pdf", Size: 42, UploadedAt: "2024-01-01T00:00:00Z"})
	if err != nil {
		t.Fatal(err)
	}
	if d.URL() != "/documents/1/report%202024.pdf" {
		t.Errorf("URL = %q", d.URL())
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil || len(docs) != 1 {
		t.Fatalf("ListDocuments = %v, %v", docs, err)
	}
	if _, err := s.DeleteDocument(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetDocument(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"", "  "}, nil},
		{[]string{" go ", "Go", "go"}, []string{"go", "Go"}},
	}
	for _, tt := range tests {
		got := NormalizeTags(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("NormalizeTags(%v) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("NormalizeTags(%v) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestNearestOfType(t *testing.T) {
	anc := []Page{
		{ID: 1, Type: PageTypeRoot},
		{ID: 2, Type: PageTypeBlogIndex},
		{ID: 3, Type: PageTypeFolder},
		{ID: 4, Type: PageTypeBlogIndex},
	}
	if got := NearestOfType(anc, PageTypeBlogIndex); got == nil || got.ID != 4 {
		t.Errorf("NearestOfType = %v, want 4", got)
	}
	if got := NearestOfType(anc[:2], PageTypeFolder); got != nil {
		t.Errorf("NearestOfType = %v, want nil", got)
	}
}

func TestCorruptStoredDatesAreErrors(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	idx := mustIndex(t, s, mustRoot(t, s).ID, "blog")
	post := mustPost(t, s, idx.ID, "hello", "2024-03-05", true)

	if _, err := s.db.Exec(`UPDATE blog_pages SET date = 'bad' WHERE page_id = ?`, post.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetBlogPage(ctx, post.ID); err == nil {
		t.Error("GetBlogPage with a corrupt date should fail")
	}

	if _, err := s.db.Exec(`UPDATE pages SET updated_at = 'yesterday' WHERE id = ?`, idx.ID); err != nil {
		t.Fatal(err)
	}
	_, err := s.GetPage(ctx, idx.ID)
	var parseErr *time.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("GetPage error = %v, want a wrapped *time.ParseError", err)
	}
}
