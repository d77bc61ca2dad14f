// Package surface describes what a document page is rendered onto and maps
// OCR geometry into its pixel space.
//
// A Surface is either an Image (a raster document shown at some display
// size) or a PDFPage (one page rasterized at a zoom level). Map converts a
// geometry.ResolvedHighlight into the surface's pixel rectangle.
//
// The package also owns document intake: ResolveType picks the file type
// from a declared MIME type, the file extension or the leading bytes, Open
// reads page sizes and image dimensions, and Rasterizer turns PDF pages into
// pixels.
package surface

import "image"

// Surface is a render target for one page
type Surface interface {
	// Ready reports whether the surface has non zero pixel dimensions
	Ready() bool
	// Size returns the pixel width and height
	Size() (float64, float64)
}

// Image is a raster document shown at a display size
type Image struct {
	NaturalWidth  float64 // Decoded width, after EXIF orientation
	NaturalHeight float64 // Decoded height, after EXIF orientation
	DisplayWidth  float64 // Width as currently shown
	DisplayHeight float64 // Height as currently shown
	Loaded        bool    // Pixels decoded and ready to draw over
}

func (i *Image) Ready() bool {
	return i != nil && i.Loaded && i.DisplayWidth > 0 && i.DisplayHeight > 0
}

func (i *Image) Size() (float64, float64) {
	if i == nil {
		return 0, 0
	}
	return i.DisplayWidth, i.DisplayHeight
}

// PDFPage is one rasterized PDF page
type PDFPage struct {
	PageNumber     int         // 1-based page number
	WidthPt        float64     // Page width in points
	HeightPt       float64     // Page height in points
	Zoom           float64     // Zoom the canvas was rendered at
	ViewportWidth  float64     // Canvas width in pixels
	ViewportHeight float64     // Canvas height in pixels
	Canvas         *image.RGBA // Rendered pixels, nil until the render completes
}

func (p *PDFPage) Ready() bool {
	return p != nil && p.Canvas != nil && p.ViewportWidth > 0 && p.ViewportHeight > 0
}

func (p *PDFPage) Size() (float64, float64) {
	if p == nil {
		return 0, 0
	}
	return p.ViewportWidth, p.ViewportHeight
}
