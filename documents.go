package blogs

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	documentsSubdir = "documents"
	maxDocumentSize = 50 << 20 // 50MB
)

// newStorageKey returns the on-disk name of an uploaded document:
// a NanoID followed by the sanitized original filename.
func newStorageKey(filename string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return id + "-" + safeFilename(filename), nil
}

// safeFilename reduces a client-supplied name to a slugged base plus its
// lowercased extension.
func safeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := Slugify(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "document"
	}
	if ext == "." {
		ext = ""
	}
	return base + ext
}

func (a *App) documentPath(d Document) string {
	return filepath.Join(a.Config.MediaDir, documentsSubdir, d.StorageKey)
}

func (a *App) handleDocumentUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()

	file, err := c.FormFile("document")
	if err != nil {
		return c.String(http.StatusBadRequest, "No document file provided")
	}
	if file.Size > maxDocumentSize {
		return c.String(http.StatusBadRequest, "File too large (max 50MB)")
	}

	key, err := newStorageKey(file.Filename)
	if err != nil {
		return err
	}
	doc := Document{
		Title:      strings.TrimSpace(c.FormValue("title")),
		Filename:   safeFilename(file.Filename),
		StorageKey: key,
		Size:       file.Size,
		UploadedAt: time.Now().UTC().Format(timeLayout),
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dir := filepath.Join(a.Config.MediaDir, documentsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create documents dir: %w", err)
	}
	dst, err := os.Create(a.documentPath(doc))
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	if _, err := a.Store.SaveDocument(ctx, doc); err != nil {
		_ = os.Remove(a.documentPath(doc))
		return err
	}
	a.logger.Info("document uploaded", "storage_key", doc.StorageKey, "size", doc.Size)
	return a.renderDocumentList(c)
}

func (a *App) handleDocumentDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid document id")
	}
	doc, err := a.Store.DeleteDocument(c.Request().Context(), id)
	if err != nil {
		if isNotFound(err) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	_ = os.Remove(a.documentPath(doc)) // file may already be gone
	a.Cache.Invalidate()
	return a.renderDocumentList(c)
}

func (a *App) handleDocumentList(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderDocumentList(c)
}

func (a *App) renderDocumentList(c echo.Context) error {
	docs, err := a.Store.ListDocuments(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDocuments(docs, CsrfToken(c)))
}

// handleDocumentServe streams a document as a download. The filename in the
// URL must match the stored one so old links to replaced files 404.
func (a *App) handleDocumentServe(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.ErrNotFound
	}
	doc, err := a.Store.GetDocument(c.Request().Context(), id)
	if err != nil {
		if isNotFound(err) {
			return echo.ErrNotFound
		}
		return err
	}
	if c.Param("filename") != doc.Filename {
		return echo.ErrNotFound
	}
	if ct := mime.TypeByExtension(filepath.Ext(doc.Filename)); ct != "" {
		c.Response().Header().Set(echo.HeaderContentType, ct)
	}
	return c.Attachment(a.documentPath(doc), doc.Filename)
}
