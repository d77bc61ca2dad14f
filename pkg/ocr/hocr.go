package ocr

import (
	"github.com/gardar/ocrhighlight/pkg/hocr"
)

// FromHOCR builds an Index from a parsed hOCR document. Each content area
// becomes one block. hOCR coordinates are image pixels and the page bbox
// gives the image size.
func FromHOCR(doc hocr.HOCR) *Index {
	ix := &Index{}
	for _, page := range doc.Pages {
		for _, area := range page.Areas {
			b := Block{
				PageNumber: page.PageNumber,
				PageWidth:  page.BBox.X2,
				PageHeight: page.BBox.Y2,
				Unit:       "pixel",
			}
			for _, line := range area.Lines {
				l := Line{Text: line.Text(), BoundingBox: line.BBox.Values()}
				for _, word := range line.Words {
					l.Words = append(l.Words, Word{
						Text:        word.Text,
						BoundingBox: word.BBox.Values(),
						Confidence:  word.Confidence,
					})
				}
				b.Lines = append(b.Lines, l)
			}
			ix.Add(b)
		}
	}
	return ix
}
