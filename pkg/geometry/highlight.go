package geometry

// ResolvedHighlight is a matched region in OCR page coordinates
type ResolvedHighlight struct {
	PageNumber int     // 1-based page number
	Polygon    Polygon // Region in SourceUnit
	SourceUnit Unit    // Unit of Polygon, PageWidth and PageHeight
	PageWidth  float64 // OCR page width (0 when the producer gave none)
	PageHeight float64 // OCR page height (0 when the producer gave none)
	Text       string  // Matched OCR text
	Score      float64 // Match score 0-100
}

// Rect returns the enclosing rectangle of the highlight polygon
func (h ResolvedHighlight) Rect() Rect {
	return h.Polygon.Bounds()
}
