package ocr

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Glyph positions are grouped into lines when their baselines are within
// this fraction of the font size, and into words when the horizontal gap is
// below wordGap of the font size.
const (
	baselineTolerance = 0.5
	wordGap           = 0.25
	ascent            = 0.8
	descent           = 0.2
)

// FromPDFText builds an Index from the native text layer of a PDF. Each page
// becomes one block in points with a top-left origin. Pages without text, or
// whose content stream cannot be read, are skipped.
func FromPDFText(r io.ReaderAt, size int64) (*Index, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("error opening PDF: %w", err)
	}

	ix := &Index{}
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		width, height := mediaBox(p)
		glyphs, err := pageGlyphs(p)
		if err != nil || len(glyphs) == 0 {
			continue
		}
		b := Block{PageNumber: i, PageWidth: width, PageHeight: height, Unit: "point"}
		for _, row := range groupRows(glyphs) {
			b.Lines = append(b.Lines, rowLine(row, height))
		}
		ix.Add(b)
	}
	return ix, nil
}

// mediaBox returns the page size, defaulting to US Letter
func mediaBox(p pdf.Page) (float64, float64) {
	box := p.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() < 4 {
		return 612, 792
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return 612, 792
	}
	return w, h
}

// pageGlyphs reads the positioned text of a page. The pdf package panics on
// some malformed content streams.
func pageGlyphs(p pdf.Page) (glyphs []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unreadable content stream: %v", r)
		}
	}()
	for _, t := range p.Content().Text {
		if strings.TrimSpace(t.S) == "" && t.S != " " {
			continue
		}
		glyphs = append(glyphs, t)
	}
	return glyphs, nil
}

// groupRows sorts glyphs top to bottom, left to right and splits them into
// rows sharing a baseline
func groupRows(glyphs []pdf.Text) [][]pdf.Text {
	sort.SliceStable(glyphs, func(i, j int) bool {
		if math.Abs(glyphs[i].Y-glyphs[j].Y) > baselineTolerance*math.Max(glyphs[i].FontSize, 1) {
			return glyphs[i].Y > glyphs[j].Y
		}
		return glyphs[i].X < glyphs[j].X
	})

	var rows [][]pdf.Text
	for _, g := range glyphs {
		n := len(rows)
		if n > 0 {
			last := rows[n-1][0]
			if math.Abs(last.Y-g.Y) <= baselineTolerance*math.Max(last.FontSize, 1) {
				rows[n-1] = append(rows[n-1], g)
				continue
			}
		}
		rows = append(rows, []pdf.Text{g})
	}
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	return rows
}

// rowLine splits a row into words and flips y to a top-left origin
func rowLine(row []pdf.Text, pageHeight float64) Line {
	var line Line
	var cur strings.Builder
	var x1, x2, top, bottom float64

	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			line.Words = append(line.Words, Word{
				Text:        text,
				BoundingBox: []float64{x1, top, x2, bottom},
			})
		}
		cur.Reset()
	}

	for i, g := range row {
		size := math.Max(g.FontSize, 1)
		space := strings.TrimSpace(g.S) == ""
		gap := i > 0 && g.X-x2 > wordGap*size
		if space || gap {
			flush()
			if space {
				continue
			}
		}
		if cur.Len() == 0 {
			x1 = g.X
			top = pageHeight - g.Y - size*ascent
			bottom = pageHeight - g.Y + size*descent
		}
		cur.WriteString(g.S)
		x2 = g.X + g.W
		top = math.Min(top, pageHeight-g.Y-size*ascent)
		bottom = math.Max(bottom, pageHeight-g.Y+size*descent)
	}
	flush()

	if len(line.Words) > 0 {
		box := line.Words[0].BoundingBox.([]float64)
		lx1, ly1, lx2, ly2 := box[0], box[1], box[2], box[3]
		for _, w := range line.Words[1:] {
			b := w.BoundingBox.([]float64)
			lx1, ly1 = math.Min(lx1, b[0]), math.Min(ly1, b[1])
			lx2, ly2 = math.Max(lx2, b[2]), math.Max(ly2, b[3])
		}
		line.BoundingBox = []float64{lx1, ly1, lx2, ly2}
	}
	return line
}
