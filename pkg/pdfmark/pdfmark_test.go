package pdfmark

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrhighlight/pkg/geometry"
	"github.com/gardar/ocrhighlight/pkg/surface"
)

func letterPDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(72, 100, "Date of Birth: 04/12/1980")
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pointHighlight(page int, x1, y1, x2, y2 float64) geometry.ResolvedHighlight {
	return geometry.ResolvedHighlight{
		PageNumber: page,
		Polygon:    geometry.NewRect(x1, y1, x2, y2).Polygon(),
		SourceUnit: geometry.UnitPoint,
		Text:       "Date of Birth: 04/12/1980",
		Score:      100,
	}
}

func TestApplyHighlights(t *testing.T) {
	src := letterPDF(t, 2)

	before, err := CheckExistingLayers(src, "Highlights")
	require.NoError(t, err)
	assert.False(t, before.HasLayer)

	out, err := ApplyHighlights(src, []geometry.ResolvedHighlight{
		pointHighlight(2, 72, 88, 216, 104),
	}, DefaultConfig())
	require.NoError(t, err)

	pages, err := surface.PageSizes(out)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.InDelta(t, 612, pages[0].Width, 0.01)
	assert.InDelta(t, 792, pages[0].Height, 0.01)

	after, err := CheckExistingLayers(out, "Highlights")
	require.NoError(t, err)
	assert.True(t, after.HasLayer)
	assert.Equal(t, "Highlights (Page 2)", after.ExistingLayer)
	assert.Equal(t, []string{"Highlights (Page 2)"}, after.Layers)
}

func TestApplyHighlightsRefusesExistingLayer(t *testing.T) {
	hs := []geometry.ResolvedHighlight{pointHighlight(1, 72, 88, 216, 104)}
	once, err := ApplyHighlights(letterPDF(t, 1), hs, DefaultConfig())
	require.NoError(t, err)

	_, err = ApplyHighlights(once, hs, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has highlights")

	cfg := DefaultConfig()
	cfg.Force = true
	twice, err := ApplyHighlights(once, hs, cfg)
	require.NoError(t, err)

	pages, err := surface.PageSizes(twice)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestApplyHighlightsValidation(t *testing.T) {
	src := letterPDF(t, 1)

	_, err := ApplyHighlights(nil, nil, DefaultConfig())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.StartPage = 0
	_, err = ApplyHighlights(src, nil, cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Color = "yellow"
	_, err = ApplyHighlights(src, nil, cfg)
	assert.Error(t, err)

	_, err = ApplyHighlights([]byte("%PDF-1.4 truncated"), nil, DefaultConfig())
	assert.Error(t, err)
}

func TestAssembleWithHighlights(t *testing.T) {
	images := [][]byte{pngImage(t, 400, 200), pngImage(t, 800, 1000)}
	hs := []geometry.ResolvedHighlight{{
		PageNumber: 1,
		Polygon:    geometry.NewRect(40, 20, 200, 60).Polygon(),
		SourceUnit: geometry.UnitPixel,
		PageWidth:  400,
		PageHeight: 200,
	}}

	cfg := DefaultConfig()
	cfg.Debug = true
	out, err := AssembleWithHighlights(images, hs, cfg)
	require.NoError(t, err)

	pages, err := surface.PageSizes(out)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.InDelta(t, 300, pages[0].Width, 0.01)
	assert.InDelta(t, 150, pages[0].Height, 0.01)
	assert.InDelta(t, 600, pages[1].Width, 0.01)
	assert.InDelta(t, 750, pages[1].Height, 0.01)

	layers, err := CheckExistingLayers(out, cfg.LayerName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Highlights (Page 1)"}, layers.Layers)

	_, err = AssembleWithHighlights(nil, hs, cfg)
	assert.Error(t, err)
	_, err = AssembleWithHighlights([][]byte{{}}, hs, cfg)
	assert.Error(t, err)
	_, err = AssembleWithHighlights([][]byte{[]byte("not an image")}, hs, cfg)
	assert.Error(t, err)
}

func TestPageRect(t *testing.T) {
	tests := []struct {
		name string
		h    geometry.ResolvedHighlight
		want geometry.Rect
		ok   bool
	}{
		{
			name: "rescaled by OCR page size",
			h: geometry.ResolvedHighlight{
				Polygon:    geometry.NewRect(100, 300, 600, 340).Polygon(),
				SourceUnit: geometry.UnitPixel,
				PageWidth:  1000,
				PageHeight: 2000,
			},
			want: geometry.Rect{X1: 61.2, Y1: 118.8, X2: 367.2, Y2: 134.64},
			ok:   true,
		},
		{
			name: "inches without page size",
			h: geometry.ResolvedHighlight{
				Polygon:    geometry.NewRect(1, 1, 2, 1.5).Polygon(),
				SourceUnit: geometry.UnitInch,
			},
			want: geometry.Rect{X1: 72, Y1: 72, X2: 144, Y2: 108},
			ok:   true,
		},
		{
			name: "clamped to the page",
			h:    pointHighlight(1, 500, 700, 700, 900),
			want: geometry.Rect{X1: 500, Y1: 700, X2: 612, Y2: 792},
			ok:   true,
		},
		{
			name: "outside the page",
			h:    pointHighlight(1, 700, 900, 800, 1000),
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pageRect(tt.h, 612, 792)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.want.X1, got.X1, 0.001)
			assert.InDelta(t, tt.want.Y1, got.Y1, 0.001)
			assert.InDelta(t, tt.want.X2, got.X2, 0.001)
			assert.InDelta(t, tt.want.Y2, got.Y2, 0.001)
		})
	}
}

func TestGroupByPage(t *testing.T) {
	hs := []geometry.ResolvedHighlight{
		pointHighlight(1, 0, 0, 1, 1),
		pointHighlight(3, 0, 0, 1, 1),
		pointHighlight(0, 0, 0, 1, 1),
	}

	byPage := groupByPage(hs, 2)
	assert.Len(t, byPage, 2)
	assert.Len(t, byPage[2], 1)
	assert.Len(t, byPage[4], 1)
}

func TestDetectPDFLayers(t *testing.T) {
	raw := []byte("1 0 obj <</Type /OCG /Name (Draft \\(v2\\))>> endobj\n" +
		"2 0 obj <</Type /OCG /Name (\xfe\xff\x00M\x00y\x00 \x00h\x00i\x00g\x00h\x00l\x00i\x00g\x00h\x00t\x00s)>> endobj\n" +
		"3 0 obj <</Type /OCG /Name (Draft \\(v2\\))>> endobj\n")

	layers, err := detectPDFLayers(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Draft (v2)", "My highlights"}, layers)

	res, err := CheckExistingLayers(raw, "Highlights")
	require.NoError(t, err)
	assert.False(t, res.HasLayer)
	assert.Len(t, res.Warnings, 1)

	res, err = CheckExistingLayers(raw, "Draft")
	require.NoError(t, err)
	assert.False(t, res.HasLayer, "only a page suffix marks a highlight layer")

	res, err = CheckExistingLayers(raw, "Draft (v2)")
	require.NoError(t, err)
	assert.True(t, res.HasLayer)
	assert.Equal(t, "Draft (v2)", res.ExistingLayer)

	_, err = detectPDFLayers(nil)
	assert.Error(t, err)
}

func TestDecodeUTF16BE(t *testing.T) {
	s, err := decodeUTF16BE([]byte("\xfe\xff\x00O\x00K"))
	require.NoError(t, err)
	assert.Equal(t, "OK", s)

	_, err = decodeUTF16BE([]byte("OK"))
	assert.Error(t, err)
}
