package cropper

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcognition/models"
)

// testImage renders a w x h PNG so crops have real pixels to cut from.
func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func annotation(name string, x0, y0, x2, y2 float64) models.Annotation {
	return models.Annotation{
		Name:  name,
		Score: 0.9,
		BoundingPoly: &models.BoundingPoly{
			NormalizedVertices: []models.Vertex{
				{X: x0, Y: y0},
				{X: x2, Y: y0},
				{X: x2, Y: y2},
				{X: x0, Y: y2},
			},
		},
	}
}

func TestComputePixelBox(t *testing.T) {
	ann := annotation("Shoe", 0.1, 0.1, 0.6, 0.6)

	box := ComputePixelBox(ann.BoundingPoly, 1000, 800)

	assert.Equal(t, models.PixelBox{Left: 100, Top: 80, Width: 500, Height: 400}, box)
}

func TestComputePixelBoxRounds(t *testing.T) {
	ann := annotation("Bag", 0.333, 0.333, 0.667, 0.667)

	box := ComputePixelBox(ann.BoundingPoly, 100, 100)

	assert.Equal(t, 33, box.Left)
	assert.Equal(t, 33, box.Top)
	assert.Equal(t, 33, box.Width)
	assert.Equal(t, 33, box.Height)
}

func TestExtractCrop(t *testing.T) {
	c := New()
	src := testImage(t, 200, 100)

	crop, err := c.ExtractCrop(src, annotation("Lamp", 0.25, 0.25, 0.75, 0.75))
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(crop))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestExtractCropDegenerateBox(t *testing.T) {
	c := New()
	src := testImage(t, 50, 50)

	_, err := c.ExtractCrop(src, annotation("Dot", 0.5, 0.5, 0.5, 0.5))

	assert.ErrorIs(t, err, models.ErrInvalidRegion)
}

func TestExtractCropOutOfBounds(t *testing.T) {
	c := New()
	src := testImage(t, 50, 50)

	_, err := c.ExtractCrop(src, annotation("Wide", 0.5, 0.5, 1.2, 0.9))

	assert.ErrorIs(t, err, models.ErrInvalidRegion)
}

func TestExtractCropMissingPolygon(t *testing.T) {
	c := New()
	src := testImage(t, 50, 50)

	_, err := c.ExtractCrop(src, models.Annotation{Name: "Ghost"})

	assert.ErrorIs(t, err, models.ErrInvalidRegion)
}

func TestExtractCropUndecodableImage(t *testing.T) {
	c := New()

	// Dimensions falls back to 1x1 and the decode step then reports the
	// unreadable image.
	_, err := c.ExtractCrop([]byte("not an image"), annotation("Mug", 0.1, 0.1, 0.9, 0.9))

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidRegion))
}

func TestDimensionsFallback(t *testing.T) {
	c := New()

	w, h := c.Dimensions([]byte{0x00, 0x01})

	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestDimensions(t *testing.T) {
	c := New()
	src := testImage(t, 320, 240)

	w, h := c.Dimensions(src)

	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}
