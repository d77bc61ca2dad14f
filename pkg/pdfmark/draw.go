package pdfmark

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gardar/ocrhighlight/pkg/geometry"
)

// drawHighlightLayer fills the highlights of one page on their own layer.
// The pageNum parameter is used to create unique layer names for each page.
// It returns the number of rectangles drawn.
func drawHighlightLayer(
	pdf *fpdf.Fpdf,
	highlights []geometry.ResolvedHighlight,
	pageNum int,
	pageW, pageH float64,
	col colorful.Color,
	cfg Config,
) int {
	if len(highlights) == 0 {
		return 0
	}

	layerName := cfg.LayerName
	if pageNum > 0 {
		layerName = fmt.Sprintf("%s (Page %d)", cfg.LayerName, pageNum)
	}

	layer := pdf.AddLayer(layerName, true)
	pdf.BeginLayer(layer)

	r, g, b := col.Clamped().RGB255()
	pdf.SetFillColor(int(r), int(g), int(b))

	drawn := 0
	for _, h := range highlights {
		rect, ok := pageRect(h, pageW, pageH)
		if !ok {
			continue
		}

		pdf.SetAlpha(cfg.Opacity, cfg.BlendMode)
		pdf.Rect(rect.X1, rect.Y1, rect.Width(), rect.Height(), "F")
		pdf.SetAlpha(1, "Normal")

		if cfg.Debug {
			pdf.SetDrawColor(255, 0, 0)
			pdf.Rect(rect.X1, rect.Y1, rect.Width(), rect.Height(), "D")
		}
		drawn++
	}

	pdf.EndLayer()
	return drawn
}

// pageRect converts a highlight to a rectangle in points clamped to the page
func pageRect(h geometry.ResolvedHighlight, pageW, pageH float64) (geometry.Rect, bool) {
	transform := toPoints(h, pageW, pageH)
	b := h.Rect()
	x1, y1 := transform(b.X1, b.Y1)
	x2, y2 := transform(b.X2, b.Y2)

	r := geometry.NewRect(x1, y1, x2, y2).Clamp(pageW, pageH)
	if r.Empty() {
		return geometry.Rect{}, false
	}
	return r, true
}

// groupByPage buckets highlights by their PDF page, offset by startPage
func groupByPage(highlights []geometry.ResolvedHighlight, startPage int) map[int][]geometry.ResolvedHighlight {
	pages := make(map[int][]geometry.ResolvedHighlight)
	for _, h := range highlights {
		if h.PageNumber < 1 {
			continue
		}
		target := h.PageNumber + startPage - 1
		pages[target] = append(pages[target], h)
	}
	return pages
}
