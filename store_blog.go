package blogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SaveBlogIndexPage creates the index page under parentID when p.ID is
// zero, otherwise updates it. Related links are replaced wholesale.
func (s *Store) SaveBlogIndexPage(ctx context.Context, parentID int64, p BlogIndexPage) (BlogIndexPage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BlogIndexPage{}, err
	}
	defer tx.Rollback()

	p.Type = PageTypeBlogIndex
	if p.ID == 0 {
		if p.Page, err = addPage(ctx, tx, parentID, p.Page); err != nil {
			return BlogIndexPage{}, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO blog_index_pages (page_id, intro) VALUES (?, ?)`, p.ID, p.Intro); err != nil {
			return BlogIndexPage{}, err
		}
	} else {
		if p.Page, err = updatePage(ctx, tx, p.Page); err != nil {
			return BlogIndexPage{}, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE blog_index_pages SET intro = ? WHERE page_id = ?`, p.Intro, p.ID); err != nil {
			return BlogIndexPage{}, err
		}
	}
	if err := replaceRelatedLinks(ctx, tx, p.ID, p.RelatedLinks); err != nil {
		return BlogIndexPage{}, err
	}
	if err := tx.Commit(); err != nil {
		return BlogIndexPage{}, err
	}
	return s.GetBlogIndexPage(ctx, p.ID)
}

// GetBlogIndexPage loads an index page with its related links.
func (s *Store) GetBlogIndexPage(ctx context.Context, id int64) (BlogIndexPage, error) {
	var idx BlogIndexPage
	page, err := scanPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+`, b.intro
FROM pages p JOIN blog_index_pages b ON b.page_id = p.id
WHERE p.id = ?`, id), &idx.Intro)
	if err != nil {
		return BlogIndexPage{}, err
	}
	idx.Page = page
	if idx.RelatedLinks, err = s.relatedLinks(ctx, id); err != nil {
		return BlogIndexPage{}, err
	}
	return idx, nil
}

// SaveBlogPage creates the post under parentID when p.ID is zero,
// otherwise updates it. Tags, carousel items and related links are
// replaced wholesale.
func (s *Store) SaveBlogPage(ctx context.Context, parentID int64, p BlogPage) (BlogPage, error) {
	if p.Date.IsZero() {
		return BlogPage{}, ErrDateRequired
	}
	if err := p.Body.Validate(); err != nil {
		return BlogPage{}, fmt.Errorf("body: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BlogPage{}, err
	}
	defer tx.Rollback()

	var feedImage int64
	if p.FeedImage != nil {
		feedImage = p.FeedImage.ID
	}
	date := p.Date.Format(dateLayout)

	p.Type = PageTypeBlog
	if p.ID == 0 {
		if p.Page, err = addPage(ctx, tx, parentID, p.Page); err != nil {
			return BlogPage{}, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO blog_pages (page_id, body, date, feed_image_id) VALUES (?, ?, ?, ?)`,
			p.ID, p.Body, date, nullID(feedImage)); err != nil {
			return BlogPage{}, err
		}
	} else {
		if p.Page, err = updatePage(ctx, tx, p.Page); err != nil {
			return BlogPage{}, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE blog_pages SET body = ?, date = ?, feed_image_id = ? WHERE page_id = ?`,
			p.Body, date, nullID(feedImage), p.ID); err != nil {
			return BlogPage{}, err
		}
	}
	if err := setTags(ctx, tx, p.ID, p.Tags); err != nil {
		return BlogPage{}, err
	}
	if err := replaceCarouselItems(ctx, tx, p.ID, p.CarouselItems); err != nil {
		return BlogPage{}, err
	}
	if err := replaceRelatedLinks(ctx, tx, p.ID, p.RelatedLinks); err != nil {
		return BlogPage{}, err
	}
	if err := tx.Commit(); err != nil {
		return BlogPage{}, err
	}
	return s.GetBlogPage(ctx, p.ID)
}

const blogColumns = `b.body, b.date, i.id, i.title, i.filename, i.width, i.height, i.blurhash`

const blogFrom = ` FROM pages p
JOIN blog_pages b ON b.page_id = p.id
LEFT JOIN images i ON i.id = b.feed_image_id`

// scanBlogPage scans pageColumns followed by blogColumns.
func scanBlogPage(row rowScanner) (BlogPage, error) {
	var (
		post      BlogPage
		date      string
		imgID     sql.NullInt64
		imgTitle  sql.NullString
		imgFile   sql.NullString
		imgWidth  sql.NullInt64
		imgHeight sql.NullInt64
		imgHash   sql.NullString
	)
	page, err := scanPage(row, &post.Body, &date, &imgID, &imgTitle, &imgFile, &imgWidth, &imgHeight, &imgHash)
	if err != nil {
		return BlogPage{}, err
	}
	post.Page = page
	if post.Date, err = time.Parse(dateLayout, date); err != nil {
		return BlogPage{}, fmt.Errorf("blog page %d: parse date: %w", page.ID, err)
	}
	if imgID.Valid {
		img := Image{ID: imgID.Int64, Title: imgTitle.String, Filename: imgFile.String, Width: int(imgWidth.Int64), Height: int(imgHeight.Int64), BlurHash: imgHash.String}
		ref := img.Ref()
		post.FeedImage = &ref
	}
	return post, nil
}

// GetBlogPage loads a post with its tags, carousel items and related links.
func (s *Store) GetBlogPage(ctx context.Context, id int64) (BlogPage, error) {
	post, err := scanBlogPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+`, `+blogColumns+blogFrom+` WHERE p.id = ?`, id))
	if err != nil {
		return BlogPage{}, err
	}
	tags, err := s.tagsFor(ctx, `WHERE t.page_id = ?`, id)
	if err != nil {
		return BlogPage{}, err
	}
	post.Tags = tags[id]
	if post.CarouselItems, err = s.carouselItems(ctx, id); err != nil {
		return BlogPage{}, err
	}
	if post.RelatedLinks, err = s.relatedLinks(ctx, id); err != nil {
		return BlogPage{}, err
	}
	return post, nil
}

// ListBlogPosts returns the live posts descending from indexID, newest
// first with ties broken by the higher page id. A non-empty tag keeps
// only posts tagged exactly tag. Posts carry their tags and feed image.
func (s *Store) ListBlogPosts(ctx context.Context, indexID int64, tag string) ([]BlogPage, error) {
	index, err := s.GetPage(ctx, indexID)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + pageColumns + `, ` + blogColumns + blogFrom + `
WHERE p.path LIKE ? AND p.id != ? AND p.page_type = ? AND p.live = 1`
	args := []any{index.Path + "%", index.ID, PageTypeBlog}
	if tag != "" {
		query += ` AND EXISTS (SELECT 1 FROM blog_page_tags t WHERE t.page_id = p.id AND t.name = ?)`
		args = append(args, tag)
	}
	query += ` ORDER BY b.date DESC, p.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []BlogPage
	for rows.Next() {
		post, err := scanBlogPage(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := s.tagsFor(ctx, `JOIN pages p ON p.id = t.page_id WHERE p.path LIKE ? AND p.id != ?`, index.Path+"%", index.ID)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Tags = tags[posts[i].ID]
	}
	return posts, nil
}

// ListTags returns the sorted distinct tag names of live posts under indexID.
func (s *Store) ListTags(ctx context.Context, indexID int64) ([]string, error) {
	index, err := s.GetPage(ctx, indexID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT t.name FROM blog_page_tags t
JOIN pages p ON p.id = t.page_id
WHERE p.path LIKE ? AND p.id != ? AND p.live = 1
ORDER BY t.name`, index.Path+"%", index.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SetTags replaces the tags of a post.
func (s *Store) SetTags(ctx context.Context, pageID int64, tags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := setTags(ctx, tx, pageID, tags); err != nil {
		return err
	}
	return tx.Commit()
}

// NearestIndex returns the closest blog index page among the ancestors of
// pageID, or nil when no ancestor is a blog index.
func (s *Store) NearestIndex(ctx context.Context, pageID int64) (*BlogIndexPage, error) {
	ancestors, err := s.Ancestors(ctx, pageID)
	if err != nil {
		return nil, err
	}
	nearest := NearestOfType(ancestors, PageTypeBlogIndex)
	if nearest == nil {
		return nil, nil
	}
	idx, err := s.GetBlogIndexPage(ctx, nearest.ID)
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

// NormalizeTags trims, drops empty names and removes duplicates, keeping
// first-seen order. Case is preserved.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func setTags(ctx context.Context, q queryer, pageID int64, tags []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM blog_page_tags WHERE page_id = ?`, pageID); err != nil {
		return err
	}
	for _, t := range NormalizeTags(tags) {
		if _, err := q.ExecContext(ctx, `INSERT INTO blog_page_tags (page_id, name) VALUES (?, ?)`, pageID, t); err != nil {
			return err
		}
	}
	return nil
}

// tagsFor returns tag names keyed by page id for the rows selected by where.
func (s *Store) tagsFor(ctx context.Context, where string, args ...any) (map[int64][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.page_id, t.name FROM blog_page_tags t `+where+` ORDER BY t.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64][]string)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = append(out[id], name)
	}
	return out, rows.Err()
}

const linkColumns = `lp.id, lp.title, lp.url_path, d.id, d.title, d.filename`

const linkJoins = `
LEFT JOIN pages lp ON lp.id = x.link_page_id
LEFT JOIN documents d ON d.id = x.link_document_id`

type linkScan struct {
	pageID    sql.NullInt64
	pageTitle sql.NullString
	pageURL   sql.NullString
	docID     sql.NullInt64
	docTitle  sql.NullString
	docFile   sql.NullString
}

func (l *linkScan) dest() []any {
	return []any{&l.pageID, &l.pageTitle, &l.pageURL, &l.docID, &l.docTitle, &l.docFile}
}

func (l *linkScan) target(external string) LinkTarget {
	t := LinkTarget{External: external}
	if l.pageID.Valid {
		t.Page = &PageRef{ID: l.pageID.Int64, Title: l.pageTitle.String, URL: l.pageURL.String}
	}
	if l.docID.Valid {
		doc := Document{ID: l.docID.Int64, Title: l.docTitle.String, Filename: l.docFile.String}
		ref := doc.Ref()
		t.Document = &ref
	}
	return t
}

func linkIDs(t LinkTarget) (pageID, docID int64) {
	if t.Page != nil {
		pageID = t.Page.ID
	}
	if t.Document != nil {
		docID = t.Document.ID
	}
	return pageID, docID
}

func (s *Store) relatedLinks(ctx context.Context, pageID int64) ([]RelatedLink, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT x.id, x.sort_order, x.title, x.link_external, `+linkColumns+`
FROM related_links x`+linkJoins+`
WHERE x.page_id = ? ORDER BY x.sort_order, x.id`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var links []RelatedLink
	for rows.Next() {
		var (
			rl       RelatedLink
			external string
			ls       linkScan
		)
		if err := rows.Scan(append([]any{&rl.ID, &rl.SortOrder, &rl.Title, &external}, ls.dest()...)...); err != nil {
			return nil, err
		}
		rl.LinkTarget = ls.target(external)
		links = append(links, rl)
	}
	return links, rows.Err()
}

func (s *Store) carouselItems(ctx context.Context, pageID int64) ([]CarouselItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT x.id, x.sort_order, x.embed_url, x.caption, x.link_external,
i.id, i.title, i.filename, i.width, i.height, i.blurhash, `+linkColumns+`
FROM carousel_items x
LEFT JOIN images i ON i.id = x.image_id`+linkJoins+`
WHERE x.page_id = ? ORDER BY x.sort_order, x.id`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CarouselItem
	for rows.Next() {
		var (
			ci        CarouselItem
			external  string
			imgID     sql.NullInt64
			imgTitle  sql.NullString
			imgFile   sql.NullString
			imgWidth  sql.NullInt64
			imgHeight sql.NullInt64
			imgHash   sql.NullString
			ls        linkScan
		)
		dest := append([]any{&ci.ID, &ci.SortOrder, &ci.EmbedURL, &ci.Caption, &external,
			&imgID, &imgTitle, &imgFile, &imgWidth, &imgHeight, &imgHash}, ls.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if imgID.Valid {
			img := Image{ID: imgID.Int64, Title: imgTitle.String, Filename: imgFile.String, Width: int(imgWidth.Int64), Height: int(imgHeight.Int64), BlurHash: imgHash.String}
			ref := img.Ref()
			ci.Image = &ref
		}
		ci.LinkTarget = ls.target(external)
		items = append(items, ci)
	}
	return items, rows.Err()
}

// sortedBySortOrder returns a copy of items ordered by SortOrder with the
// original position breaking ties. Callers store the new position.
func sortedBySortOrder[T any](items []T, order func(T) int) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return order(out[i]) < order(out[j]) })
	return out
}

func replaceRelatedLinks(ctx context.Context, q queryer, pageID int64, links []RelatedLink) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM related_links WHERE page_id = ?`, pageID); err != nil {
		return err
	}
	for i, rl := range sortedBySortOrder(links, func(l RelatedLink) int { return l.SortOrder }) {
		linkPage, linkDoc := linkIDs(rl.LinkTarget)
		if _, err := q.ExecContext(ctx, `INSERT INTO related_links (page_id, sort_order, title, link_external, link_page_id, link_document_id)
VALUES (?, ?, ?, ?, ?, ?)`, pageID, i, rl.Title, rl.External, nullID(linkPage), nullID(linkDoc)); err != nil {
			return fmt.Errorf("related link %d: %w", i, err)
		}
	}
	return nil
}

func replaceCarouselItems(ctx context.Context, q queryer, pageID int64, items []CarouselItem) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM carousel_items WHERE page_id = ?`, pageID); err != nil {
		return err
	}
	for i, ci := range sortedBySortOrder(items, func(c CarouselItem) int { return c.SortOrder }) {
		var imageID int64
		if ci.Image != nil {
			imageID = ci.Image.ID
		}
		linkPage, linkDoc := linkIDs(ci.LinkTarget)
		if _, err := q.ExecContext(ctx, `INSERT INTO carousel_items (page_id, sort_order, image_id, embed_url, caption, link_external, link_page_id, link_document_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, pageID, i, nullID(imageID), ci.EmbedURL, ci.Caption, ci.External, nullID(linkPage), nullID(linkDoc)); err != nil {
			return fmt.Errorf("carousel item %d: %w", i, err)
		}
	}
	return nil
}

// isNotFound reports whether err means a missing row.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
