package surface

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

// LoadImage reads the dimensions of an encoded raster image. Natural
// dimensions follow the EXIF orientation, so a portrait photo stored
// sideways reports its upright size. The display size starts equal to the
// natural size.
func LoadImage(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}

	w, h := float64(cfg.Width), float64(cfg.Height)
	if format == "jpeg" && rotated(Orientation(data)) {
		w, h = h, w
	}

	return &Image{
		NaturalWidth:  w,
		NaturalHeight: h,
		DisplayWidth:  w,
		DisplayHeight: h,
		Loaded:        w > 0 && h > 0,
	}, nil
}

// DecodeImage decodes the full pixel data of a raster image
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Orientation returns the EXIF orientation tag (1-8), or 1 when the image
// carries no EXIF data.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// orientations 5-8 transpose the stored image
func rotated(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}
