package blogs

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImageResizesWideImages(t *testing.T) {
	img, data, err := processImage(bytes.NewReader(testPNG(t, 1600, 900)), "My Photo.PNG")
	require.NoError(t, err)

	assert.Equal(t, "my-photo.jpg", img.Filename)
	assert.Equal(t, "My Photo.PNG", img.OriginalName)
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 450, img.Height)
	assert.Equal(t, len(data), img.Size)
	assert.NotEmpty(t, img.BlurHash)

	decoded, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 800, decoded.Bounds().Dx())
}

func TestProcessImageKeepsNarrowImages(t *testing.T) {
	img, _, err := processImage(bytes.NewReader(testPNG(t, 40, 30)), "tiny.png")
	require.NoError(t, err)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 30, img.Height)
	assert.NotEmpty(t, img.BlurHash)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, _, err := processImage(bytes.NewReader([]byte("not an image")), "x.png")
	assert.Error(t, err)
}

func TestSlugifyFilename(t *testing.T) {
	assert.Equal(t, "holiday-2024", slugifyFilename("Holiday 2024.jpeg"))
	assert.Equal(t, "", slugifyFilename(".png"))
}
