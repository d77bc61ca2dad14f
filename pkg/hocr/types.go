package hocr

// HOCR represents the entire hOCR document
type HOCR struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system, ocr-capabilities and friends
	Pages    []Page            // Pages in the document
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string      // Unique identifier
	PageNumber int         // 1-based page number (ppageno + 1, or position)
	ImageName  string      // Source image filename
	BBox       BoundingBox // Page coordinates, X2/Y2 give the image size
	Areas      []Area      // Content areas in reading order
}

// Area is a content area (column or region)
type Area struct {
	ID    string
	BBox  BoundingBox
	Lines []Line
}

// Line is a line of text
type Line struct {
	ID       string
	BBox     BoundingBox
	Baseline string // Raw baseline property, e.g. "0.015 -18"
	Words    []Word
}

// Text joins the words of the line with single spaces
func (l Line) Text() string {
	out := make([]byte, 0, 64)
	for _, w := range l.Words {
		if w.Text == "" {
			continue
		}
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = append(out, w.Text...)
	}
	return string(out)
}

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string
	Text       string
	BBox       BoundingBox
	Confidence float64 // x_wconf, 0-100
}

// BoundingBox is an hOCR 'bbox' property
type BoundingBox struct {
	X1 float64 // Left coordinate
	Y1 float64 // Top coordinate
	X2 float64 // Right coordinate
	Y2 float64 // Bottom coordinate
}

// NewBoundingBox creates a bounding box from the x1, y1, x2, y2 values
// of an hOCR 'bbox' property
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Values returns the box as x1, y1, x2, y2
func (b BoundingBox) Values() []float64 {
	return []float64{b.X1, b.Y1, b.X2, b.Y2}
}

// IsZero reports whether the box was never set
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}
