package blogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	uploadsSubdir    = "uploads"
	uploadsURLPrefix = "/public/" + uploadsSubdir + "/"
	timeLayout       = time.RFC3339
	dateLayout       = "2006-01-02"
)

// Store wraps a SQLite database holding the page tree, the blog content
// tables, tags and uploaded asset metadata.
type Store struct {
	db *sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, runs schema migrations and creates the tree root.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// Pragmas go in the DSN so every pooled connection gets them; foreign
	// keys must be on for owned rows to cascade with their page.
	pragmas := url.Values{}
	for _, p := range []string{
		"foreign_keys(1)",
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"synchronous(NORMAL)",
	} {
		pragmas.Add("_pragma", p)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?"+pragmas.Encode())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    parent_id INTEGER REFERENCES pages(id) ON DELETE CASCADE,
    path TEXT NOT NULL DEFAULT '',
    depth INTEGER NOT NULL,
    page_type TEXT NOT NULL,
    title TEXT NOT NULL,
    slug TEXT NOT NULL,
    url_path TEXT NOT NULL,
    live INTEGER NOT NULL DEFAULT 1,
    seo_title TEXT NOT NULL DEFAULT '',
    search_description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_pages_sibling_slug ON pages(parent_id, slug);
CREATE INDEX IF NOT EXISTS idx_pages_path ON pages(path);
CREATE INDEX IF NOT EXISTS idx_pages_url_path ON pages(url_path);

CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    filename TEXT NOT NULL UNIQUE,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    blurhash TEXT NOT NULL DEFAULT '',
    uploaded_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    filename TEXT NOT NULL,
    storage_key TEXT NOT NULL UNIQUE,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blog_index_pages (
    page_id INTEGER PRIMARY KEY REFERENCES pages(id) ON DELETE CASCADE,
    intro TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS blog_pages (
    page_id INTEGER PRIMARY KEY REFERENCES pages(id) ON DELETE CASCADE,
    body TEXT NOT NULL DEFAULT '[]',
    date TEXT NOT NULL,
    feed_image_id INTEGER REFERENCES images(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_blog_pages_date ON blog_pages(date);

CREATE TABLE IF NOT EXISTS blog_page_tags (
    page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    PRIMARY KEY (page_id, name)
);
CREATE INDEX IF NOT EXISTS idx_blog_page_tags_name ON blog_page_tags(name);

CREATE TABLE IF NOT EXISTS related_links (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
    sort_order INTEGER NOT NULL,
    title TEXT NOT NULL,
    link_external TEXT NOT NULL DEFAULT '',
    link_page_id INTEGER REFERENCES pages(id) ON DELETE SET NULL,
    link_document_id INTEGER REFERENCES documents(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_related_links_page ON related_links(page_id, sort_order);

CREATE TABLE IF NOT EXISTS carousel_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
    sort_order INTEGER NOT NULL,
    image_id INTEGER REFERENCES images(id) ON DELETE SET NULL,
    embed_url TEXT NOT NULL DEFAULT '',
    caption TEXT NOT NULL DEFAULT '',
    link_external TEXT NOT NULL DEFAULT '',
    link_page_id INTEGER REFERENCES pages(id) ON DELETE SET NULL,
    link_document_id INTEGER REFERENCES documents(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_carousel_items_page ON carousel_items(page_id, sort_order);
`)
	if err != nil {
		return err
	}
	return s.ensureRoot(ctx)
}

// ensureRoot creates the single depth-0 page that every other page descends from.
func (s *Store) ensureRoot(ctx context.Context) error {
	now := time.Now().UTC().Format(timeLayout)
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO pages (parent_id, depth, page_type, title, slug, url_path, live, created_at, updated_at)
SELECT NULL, 0, ?, 'Root', '', '/', 1, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM pages WHERE depth = 0)`, PageTypeRoot, now, now); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE pages SET path = '/' || id || '/' WHERE depth = 0 AND path = ''`)
	return err
}

const pageColumns = `p.id, p.parent_id, p.path, p.depth, p.page_type, p.title, p.slug, p.url_path, p.live, p.seo_title, p.search_description, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPage scans pageColumns followed by any extra destinations.
func scanPage(row rowScanner, extra ...any) (Page, error) {
	var (
		p                Page
		parent           sql.NullInt64
		live             int
		created, updated string
	)
	dest := append([]any{&p.ID, &parent, &p.Path, &p.Depth, &p.Type, &p.Title, &p.Slug, &p.URLPath, &live, &p.SeoTitle, &p.SearchDescription, &created, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Page{}, ErrNotFound
		}
		return Page{}, err
	}
	p.ParentID = parent.Int64
	p.Live = live == 1
	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Page{}, fmt.Errorf("page %d: parse created_at: %w", p.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return Page{}, fmt.Errorf("page %d: parse updated_at: %w", p.ID, err)
	}
	return p, nil
}

func scanPages(rows *sql.Rows) ([]Page, error) {
	defer rows.Close()
	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func getPage(ctx context.Context, q queryer, id int64) (Page, error) {
	return scanPage(q.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages p WHERE p.id = ?`, id))
}

// Root returns the root of the page tree.
func (s *Store) Root(ctx context.Context) (Page, error) {
	return scanPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages p WHERE p.depth = 0`))
}

// GetPage returns a page by id regardless of its live status.
func (s *Store) GetPage(ctx context.Context, id int64) (Page, error) {
	return getPage(ctx, s.db, id)
}

// GetPageByPath returns the page served at urlPath regardless of its live status.
func (s *Store) GetPageByPath(ctx context.Context, urlPath string) (Page, error) {
	return scanPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages p WHERE p.url_path = ?`, normalizeURLPath(urlPath)))
}

// PageURL returns the site-relative URL of the page with the given id.
func (s *Store) PageURL(ctx context.Context, id int64) (string, error) {
	var u string
	err := s.db.QueryRowContext(ctx, `SELECT url_path FROM pages WHERE id = ?`, id).Scan(&u)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return u, err
}

// Ancestors returns the ancestors of the page, root first, parent last.
func (s *Store) Ancestors(ctx context.Context, id int64) ([]Page, error) {
	page, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages p
WHERE ? LIKE p.path || '%' AND p.id != ?
ORDER BY p.depth`, page.Path, page.ID)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

// Descendants returns the pages below id in tree order. An empty typ
// matches every type; liveOnly restricts the result to live pages.
func (s *Store) Descendants(ctx context.Context, id int64, typ PageType, liveOnly bool) ([]Page, error) {
	page, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + pageColumns + ` FROM pages p WHERE p.path LIKE ? AND p.id != ?`
	args := []any{page.Path + "%", page.ID}
	if typ != "" {
		query += ` AND p.page_type = ?`
		args = append(args, typ)
	}
	if liveOnly {
		query += ` AND p.live = 1`
	}
	query += ` ORDER BY p.depth, p.id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

// Children returns the direct children of id ordered by id.
func (s *Store) Children(ctx context.Context, id int64, liveOnly bool) ([]Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages p WHERE p.parent_id = ?`
	if liveOnly {
		query += ` AND p.live = 1`
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY p.id`, id)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

// ListPages returns every page below the root in tree order.
func (s *Store) ListPages(ctx context.Context, liveOnly bool) ([]Page, error) {
	root, err := s.Root(ctx)
	if err != nil {
		return nil, err
	}
	pages, err := s.Descendants(ctx, root.ID, "", liveOnly)
	if err != nil {
		return nil, err
	}
	sortTreeOrder(pages)
	return pages, nil
}

// AddPage creates a generic page (such as a folder) under parentID.
func (s *Store) AddPage(ctx context.Context, parentID int64, p Page) (Page, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Page{}, err
	}
	defer tx.Rollback()
	page, err := addPage(ctx, tx, parentID, p)
	if err != nil {
		return Page{}, err
	}
	return page, tx.Commit()
}

// UpdatePage saves the editable fields of an existing page. Changing the
// slug rewrites the URLs of the whole subtree.
func (s *Store) UpdatePage(ctx context.Context, p Page) (Page, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Page{}, err
	}
	defer tx.Rollback()
	page, err := updatePage(ctx, tx, p)
	if err != nil {
		return Page{}, err
	}
	return page, tx.Commit()
}

// DeletePage removes the page and its whole subtree. Rows owned by the
// deleted pages cascade; links pointing at them are cleared. It returns
// the ids of every removed page.
func (s *Store) DeletePage(ctx context.Context, id int64) ([]int64, error) {
	page, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if page.Type == PageTypeRoot {
		return nil, ErrRootPage
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM pages WHERE path LIKE ? ORDER BY depth DESC`, page.Path+"%")
	if err != nil {
		return nil, err
	}
	var removed []int64
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, pid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE path LIKE ?`, page.Path+"%"); err != nil {
		return nil, err
	}
	return removed, tx.Commit()
}

func addPage(ctx context.Context, q queryer, parentID int64, p Page) (Page, error) {
	if !p.Type.Creatable() {
		return Page{}, ErrInvalidPageType
	}
	parent, err := getPage(ctx, q, parentID)
	if errors.Is(err, ErrNotFound) {
		return Page{}, ErrInvalidParent
	}
	if err != nil {
		return Page{}, err
	}
	p.Slug = strings.TrimSpace(p.Slug)
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Slug == "" {
		return Page{}, ErrInvalidSlug
	}
	if err := checkSiblingSlug(ctx, q, parent.ID, p.Slug, 0); err != nil {
		return Page{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	p.ParentID = parent.ID
	p.Depth = parent.Depth + 1
	p.URLPath = parent.URLPath + p.Slug + "/"
	p.CreatedAt, p.UpdatedAt = now, now

	res, err := q.ExecContext(ctx, `INSERT INTO pages (parent_id, depth, page_type, title, slug, url_path, live, seo_title, search_description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ParentID, p.Depth, p.Type, p.Title, p.Slug, p.URLPath, boolInt(p.Live), p.SeoTitle, p.SearchDescription,
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return Page{}, err
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return Page{}, err
	}
	p.Path = parent.Path + strconv.FormatInt(p.ID, 10) + "/"
	if _, err := q.ExecContext(ctx, `UPDATE pages SET path = ? WHERE id = ?`, p.Path, p.ID); err != nil {
		return Page{}, err
	}
	return p, nil
}

func updatePage(ctx context.Context, q queryer, p Page) (Page, error) {
	existing, err := getPage(ctx, q, p.ID)
	if err != nil {
		return Page{}, err
	}
	if existing.Type == PageTypeRoot {
		return Page{}, ErrRootPage
	}
	if p.Type != "" && p.Type != existing.Type {
		return Page{}, ErrInvalidPageType
	}
	parent, err := getPage(ctx, q, existing.ParentID)
	if err != nil {
		return Page{}, err
	}
	slug := strings.TrimSpace(p.Slug)
	if slug == "" {
		slug = Slugify(p.Title)
	}
	if slug == "" {
		return Page{}, ErrInvalidSlug
	}
	if slug != existing.Slug {
		if err := checkSiblingSlug(ctx, q, parent.ID, slug, existing.ID); err != nil {
			return Page{}, err
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	updated := existing
	updated.Title = p.Title
	updated.Slug = slug
	updated.Live = p.Live
	updated.SeoTitle = p.SeoTitle
	updated.SearchDescription = p.SearchDescription
	updated.URLPath = parent.URLPath + slug + "/"
	updated.UpdatedAt = now

	if _, err := q.ExecContext(ctx, `UPDATE pages SET title = ?, slug = ?, live = ?, seo_title = ?, search_description = ?, updated_at = ? WHERE id = ?`,
		updated.Title, updated.Slug, boolInt(updated.Live), updated.SeoTitle, updated.SearchDescription, now.Format(timeLayout), updated.ID); err != nil {
		return Page{}, err
	}
	if updated.URLPath != existing.URLPath {
		if _, err := q.ExecContext(ctx, `UPDATE pages SET url_path = ? || substr(url_path, ?) WHERE path LIKE ?`,
			updated.URLPath, len(existing.URLPath)+1, existing.Path+"%"); err != nil {
			return Page{}, err
		}
	}
	return updated, nil
}

func checkSiblingSlug(ctx context.Context, q queryer, parentID int64, slug string, exceptID int64) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE parent_id = ? AND slug = ? AND id != ?`, parentID, slug, exceptID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrSlugInUse
	}
	return nil
}

// NearestOfType returns the last page of type typ in ancestors (ordered
// root first), or nil when there is none.
func NearestOfType(ancestors []Page, typ PageType) *Page {
	var nearest *Page
	for i := range ancestors {
		if ancestors[i].Type == typ {
			nearest = &ancestors[i]
		}
	}
	return nearest
}

// sortTreeOrder orders pages depth-first by their id path so children
// follow their parent.
func sortTreeOrder(pages []Page) {
	key := func(p Page) []int64 {
		var out []int64
		for _, part := range strings.Split(strings.Trim(p.Path, "/"), "/") {
			n, _ := strconv.ParseInt(part, 10, 64)
			out = append(out, n)
		}
		return out
	}
	less := func(a, b []int64) bool {
		for i := 0; i < len(a) && i < len(b); i++ {
			if a[i] != b[i] {
				return a[i] < b[i]
			}
		}
		return len(a) < len(b)
	}
	for i := 1; i < len(pages); i++ {
		for j := i; j > 0 && less(key(pages[j]), key(pages[j-1])); j-- {
			pages[j], pages[j-1] = pages[j-1], pages[j]
		}
	}
}

func normalizeURLPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func documentURL(id int64, filename string) string {
	return "/documents/" + strconv.FormatInt(id, 10) + "/" + url.PathEscape(filename)
}
