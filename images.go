package blogs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bbrks/go-blurhash"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB

	// placeholders are computed on a thumbnail this wide
	blurHashWidth = 64
)

// processImage decodes an image from src, resizes it to maxImageWidth when
// wider, and encodes it as JPEG. Returns metadata and the encoded bytes.
func processImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	hash, err := blurHash(img)
	if err != nil {
		return Image{}, nil, err
	}

	base := slugifyFilename(originalName)
	if base == "" {
		base = "image"
	}
	return Image{
		Filename:     base + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		BlurHash:     hash,
		UploadedAt:   time.Now().UTC().Format(timeLayout),
	}, buf.Bytes(), nil
}

// blurHash returns the 4x3 component BlurHash placeholder of img.
func blurHash(img image.Image) (string, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > blurHashWidth {
		th := max(h*blurHashWidth/w, 1)
		thumb := image.NewRGBA(image.Rect(0, 0, blurHashWidth, th))
		draw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, bounds, draw.Src, nil)
		img = thumb
	}
	hash, err := blurhash.Encode(4, 3, img)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	return Slugify(strings.TrimSuffix(name, ext))
}

// ensureUniqueFilename appends a counter while the filename is taken on disk
// or in the database.
func (a *App) ensureUniqueFilename(ctx context.Context, img *Image) error {
	dir := filepath.Join(a.staticDir, uploadsSubdir)
	base := strings.TrimSuffix(img.Filename, ".jpg")
	candidate := img.Filename
	for counter := 2; ; counter++ {
		_, statErr := os.Stat(filepath.Join(dir, candidate))
		taken, err := a.Store.ImageFilenameTaken(ctx, candidate)
		if err != nil {
			return err
		}
		if statErr != nil && !taken {
			break
		}
		candidate = base + "-" + strconv.Itoa(counter) + ".jpg"
	}
	img.Filename = candidate
	return nil
}

func (a *App) handleImageUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()

	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	img.Title = strings.TrimSpace(c.FormValue("title"))
	if img.Title == "" {
		img.Title = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	if err := a.ensureUniqueFilename(ctx, &img); err != nil {
		return err
	}

	dir := filepath.Join(a.staticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	if _, err := a.Store.SaveImage(ctx, img); err != nil {
		return err
	}
	a.logger.Info("image uploaded", "filename", img.Filename, "width", img.Width, "height", img.Height)
	a.Cache.Invalidate()
	return a.renderImageList(c)
}

func (a *App) handleImageDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image id")
	}

	img, err := a.Store.DeleteImage(c.Request().Context(), id)
	if err != nil {
		if isNotFound(err) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	_ = os.Remove(filepath.Join(a.staticDir, uploadsSubdir, img.Filename)) // file may already be gone
	a.Cache.Invalidate()
	return a.renderImageList(c)
}

func (a *App) handleImageList(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderImageList(c)
}

func (a *App) renderImageList(c echo.Context) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminImages(images, CsrfToken(c)))
}
