package blogs

import (
	"context"
	"database/sql"
	"errors"
)

const imageColumns = `id, title, filename, original_name, width, height, size, blurhash, uploaded_at`

func scanImage(row rowScanner) (Image, error) {
	var img Image
	err := row.Scan(&img.ID, &img.Title, &img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.BlurHash, &img.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrNotFound
	}
	return img, err
}

// SaveImage inserts image metadata and returns the stored row.
func (s *Store) SaveImage(ctx context.Context, img Image) (Image, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO images (title, filename, original_name, width, height, size, blurhash, uploaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, img.Title, img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.BlurHash, img.UploadedAt)
	if err != nil {
		return Image{}, err
	}
	img.ID, err = res.LastInsertId()
	return img, err
}

// GetImage returns image metadata by id.
func (s *Store) GetImage(ctx context.Context, id int64) (Image, error) {
	return scanImage(s.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id))
}

// ListImages returns all images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images ORDER BY uploaded_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var images []Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ImageFilenameTaken reports whether an image row already uses filename.
func (s *Store) ImageFilenameTaken(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&n)
	return n > 0, err
}

// DeleteImage removes image metadata. Feed images and carousel items
// referencing it are cleared.
func (s *Store) DeleteImage(ctx context.Context, id int64) (Image, error) {
	img, err := s.GetImage(ctx, id)
	if err != nil {
		return Image{}, err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	return img, err
}

const documentColumns = `id, title, filename, storage_key, size, uploaded_at`

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Title, &d.Filename, &d.StorageKey, &d.Size, &d.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

// SaveDocument inserts document metadata and returns the stored row.
func (s *Store) SaveDocument(ctx context.Context, d Document) (Document, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO documents (title, filename, storage_key, size, uploaded_at)
VALUES (?, ?, ?, ?, ?)`, d.Title, d.Filename, d.StorageKey, d.Size, d.UploadedAt)
	if err != nil {
		return Document{}, err
	}
	d.ID, err = res.LastInsertId()
	return d, err
}

// GetDocument returns document metadata by id.
func (s *Store) GetDocument(ctx context.Context, id int64) (Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes document metadata. Link fields pointing at it are
// cleared.
func (s *Store) DeleteDocument(ctx context.Context, id int64) (Document, error) {
	d, err := s.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return d, err
}
