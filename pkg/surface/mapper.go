package surface

import (
	"github.com/gardar/ocrhighlight/pkg/geometry"
)

// Map converts a resolved highlight into the pixel rectangle of a surface.
// The result is clamped to the surface bounds. It returns false when the
// surface is not ready, the scale cannot be determined or the clamped
// rectangle has no area; callers skip the draw in that case.
func Map(h geometry.ResolvedHighlight, s Surface) (geometry.Rect, bool) {
	if s == nil || !s.Ready() {
		return geometry.Rect{}, false
	}

	var sx, sy float64
	switch v := s.(type) {
	case *Image:
		sx, sy = imageScale(h, v)
	case *PDFPage:
		sx, sy = pdfScale(h, v)
	default:
		return geometry.Rect{}, false
	}
	if sx <= 0 || sy <= 0 {
		return geometry.Rect{}, false
	}

	w, ht := s.Size()
	r := h.Rect().Scale(sx, sy).Clamp(w, ht)
	if r.Empty() {
		return geometry.Rect{}, false
	}
	return r, true
}

// imageScale maps OCR page units onto the displayed image. Undeclared OCR
// dimensions fall back to the natural image size.
func imageScale(h geometry.ResolvedHighlight, img *Image) (float64, float64) {
	ow, oh := h.PageWidth, h.PageHeight
	if ow <= 0 || oh <= 0 {
		ow, oh = img.NaturalWidth, img.NaturalHeight
	}
	if ow <= 0 || oh <= 0 {
		return 0, 0
	}
	return img.DisplayWidth / ow, img.DisplayHeight / oh
}

// pdfScale converts OCR units to points with the unit multiplier, then
// points to canvas pixels with the viewport at the active zoom.
func pdfScale(h geometry.ResolvedHighlight, p *PDFPage) (float64, float64) {
	mult := h.SourceUnit.PointsPerUnit()
	if h.PageWidth > 0 && h.PageHeight > 0 {
		// canvas pixels per point of the OCR page
		pxX := p.ViewportWidth / (h.PageWidth * mult)
		pxY := p.ViewportHeight / (h.PageHeight * mult)
		return mult * pxX, mult * pxY
	}
	if p.WidthPt <= 0 || p.HeightPt <= 0 {
		return 0, 0
	}
	return mult * p.ViewportWidth / p.WidthPt, mult * p.ViewportHeight / p.HeightPt
}
