package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrhighlight/pkg/ocr"
)

// ToIndex converts a Document AI document to an ocr.Index. Each layout
// block becomes one index block holding the lines inside it; lines outside
// every block form one extra block per page. Tokens become the words of the
// line that contains them.
func ToIndex(doc *documentaipb.Document) *ocr.Index {
	ix := &ocr.Index{}
	if doc == nil {
		return ix
	}

	for i, page := range doc.Pages {
		pageNumber := int(page.GetPageNumber())
		if pageNumber <= 0 {
			pageNumber = i + 1
		}
		dim := page.GetDimension()
		newBlock := func() ocr.Block {
			return ocr.Block{
				PageNumber: pageNumber,
				PageWidth:  float64(dim.GetWidth()),
				PageHeight: float64(dim.GetHeight()),
				Unit:       dim.GetUnit(),
			}
		}

		assigned := make(map[int]bool)
		for _, block := range page.Blocks {
			b := newBlock()
			for li, line := range page.Lines {
				if assigned[li] || !isElementInParent(line.GetLayout(), block.GetLayout()) {
					continue
				}
				assigned[li] = true
				b.Lines = append(b.Lines, convertLine(line, page, doc.Text))
			}
			if len(b.Lines) > 0 {
				ix.Add(b)
			}
		}

		rest := newBlock()
		for li, line := range page.Lines {
			if !assigned[li] {
				rest.Lines = append(rest.Lines, convertLine(line, page, doc.Text))
			}
		}
		// Pages with tokens but no line detection are searchable by word
		if len(page.Lines) == 0 {
			for _, token := range page.Tokens {
				rest.Words = append(rest.Words, convertToken(token, dim, doc.Text))
			}
		}
		if len(rest.Lines) > 0 || len(rest.Words) > 0 {
			ix.Add(rest)
		}
	}
	return ix
}

func convertLine(line *documentaipb.Document_Page_Line, page *documentaipb.Document_Page, fullText string) ocr.Line {
	l := ocr.Line{
		Text:        cleanText(textFromLayout(line.GetLayout(), fullText)),
		BoundingBox: polygon(line.GetLayout(), page.GetDimension()),
	}
	for _, token := range page.Tokens {
		if isElementInParent(token.GetLayout(), line.GetLayout()) {
			l.Words = append(l.Words, convertToken(token, page.GetDimension(), fullText))
		}
	}
	return l
}

func convertToken(token *documentaipb.Document_Page_Token, dim *documentaipb.Document_Page_Dimension, fullText string) ocr.Word {
	return ocr.Word{
		Text:        cleanText(textFromLayout(token.GetLayout(), fullText)),
		BoundingBox: polygon(token.GetLayout(), dim),
		Confidence:  float64(token.GetLayout().GetConfidence() * 100),
	}
}

// polygon returns the layout's bounding polygon in page dimension units.
// Normalized vertices are scaled by the page dimension; absolute vertices
// are used as they are. It returns nil when the layout has no geometry.
func polygon(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) []float64 {
	poly := layout.GetBoundingPoly()
	if poly == nil {
		return nil
	}

	if nv := poly.GetNormalizedVertices(); len(nv) > 0 && dim.GetWidth() > 0 && dim.GetHeight() > 0 {
		out := make([]float64, 0, len(nv)*2)
		for _, v := range nv {
			out = append(out,
				float64(v.GetX())*float64(dim.GetWidth()),
				float64(v.GetY())*float64(dim.GetHeight()),
			)
		}
		return out
	}

	if vs := poly.GetVertices(); len(vs) > 0 {
		out := make([]float64, 0, len(vs)*2)
		for _, v := range vs {
			out = append(out, float64(v.GetX()), float64(v.GetY()))
		}
		return out
	}
	return nil
}

// textFromLayout extracts text from a layout's text anchor segments
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	return textFromAnchor(layout.GetTextAnchor(), fullText)
}

func textFromAnchor(anchor *documentaipb.Document_TextAnchor, fullText string) string {
	if anchor == nil {
		return ""
	}
	// Document AI indexes the text by code point
	runes := []rune(fullText)
	total := int64(len(runes))

	var sb strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := seg.GetStartIndex(), seg.GetEndIndex()
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		if start > end {
			start = end
		}
		sb.WriteString(string(runes[start:end]))
	}
	return sb.String()
}

// isElementInParent reports whether the element's first text segment lies
// inside the parent's first text segment.
func isElementInParent(element, parent *documentaipb.Document_Page_Layout) bool {
	es := element.GetTextAnchor().GetTextSegments()
	ps := parent.GetTextAnchor().GetTextSegments()
	if len(es) == 0 || len(ps) == 0 {
		return false
	}
	return es[0].GetStartIndex() >= ps[0].GetStartIndex() && es[0].GetEndIndex() <= ps[0].GetEndIndex()
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
