// Package cropper turns a detector annotation into a pixel-accurate JPEG crop
// of the source image.
package cropper

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"math"

	"github.com/disintegration/imaging"

	"arcognition/models"
)

// Cropper extracts object regions from source images.
type Cropper struct{}

// New creates a new cropper.
func New() *Cropper {
	return &Cropper{}
}

// Dimensions probes the image header for pixel dimensions. When the image
// cannot be probed it falls back to 1x1 so the normalized box math still
// yields a (degenerate) box instead of blowing up; the decode step then
// surfaces that as a per-annotation failure.
func (c *Cropper) Dimensions(imageBytes []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageBytes))
	if err != nil {
		log.Printf("image metadata probe failed, falling back to 1x1: %v", err)
		return 1, 1
	}
	return cfg.Width, cfg.Height
}

// ComputePixelBox derives the pixel rectangle from the polygon's top-left and
// bottom-right vertices: left = round(v0.x*W), top = round(v0.y*H),
// width = round((v2.x-v0.x)*W), height = round((v2.y-v0.y)*H).
func ComputePixelBox(poly *models.BoundingPoly, imgW, imgH int) models.PixelBox {
	v := poly.NormalizedVertices
	v0, v2 := v[0], v[2]
	return models.PixelBox{
		Left:   int(math.Round(v0.X * float64(imgW))),
		Top:    int(math.Round(v0.Y * float64(imgH))),
		Width:  int(math.Round((v2.X - v0.X) * float64(imgW))),
		Height: int(math.Round((v2.Y - v0.Y) * float64(imgH))),
	}
}

// ExtractCrop cuts the annotated region out of the source image and returns
// it as a JPEG buffer. A degenerate or out-of-bounds box returns
// models.ErrInvalidRegion; the source image is never mutated.
func (c *Cropper) ExtractCrop(imageBytes []byte, ann models.Annotation) ([]byte, error) {
	if !ann.HasBoundingPoly() {
		return nil, fmt.Errorf("%w: annotation %q has no bounding polygon", models.ErrInvalidRegion, ann.Name)
	}

	imgW, imgH := c.Dimensions(imageBytes)
	box := ComputePixelBox(ann.BoundingPoly, imgW, imgH)
	if err := validateBox(box, imgW, imgH); err != nil {
		return nil, err
	}

	src, err := imaging.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: decode failed: %v", models.ErrInvalidRegion, err)
	}

	rect := image.Rect(box.Left, box.Top, box.Left+box.Width, box.Top+box.Height)
	crop := imaging.Crop(src, rect)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, crop, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %v", err)
	}

	log.Printf("cropped %q: left=%d top=%d width=%d height=%d (%d bytes)",
		ann.Name, box.Left, box.Top, box.Width, box.Height, buf.Len())
	return buf.Bytes(), nil
}

func validateBox(box models.PixelBox, imgW, imgH int) error {
	if box.Width <= 0 || box.Height <= 0 {
		return fmt.Errorf("%w: degenerate box %dx%d", models.ErrInvalidRegion, box.Width, box.Height)
	}
	if box.Left < 0 || box.Top < 0 || box.Left+box.Width > imgW || box.Top+box.Height > imgH {
		return fmt.Errorf("%w: box (%d,%d %dx%d) outside image %dx%d",
			models.ErrInvalidRegion, box.Left, box.Top, box.Width, box.Height, imgW, imgH)
	}
	return nil
}
