package hocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHOCR = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" lang="en">
<head>
  <title>Invoice scan</title>
  <meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
  <meta name="ocr-system" content="tesseract 5.3.0"/>
</head>
<body>
  <div class="ocr_page" id="page_1" title="image &quot;scan.png&quot;; bbox 0 0 2480 3508; ppageno 0">
    <div class="ocr_carea" id="block_1_1" title="bbox 100 100 900 220">
      <p class="ocr_par" id="par_1_1" title="bbox 100 100 900 220">
        <span class="ocr_line" id="line_1_1" title="bbox 100 100 900 150; baseline 0 -10">
          <span class="ocrx_word" id="word_1_1" title="bbox 100 100 300 150; x_wconf 96">Invoice</span>
          <span class="ocrx_word" id="word_1_2" title="bbox 320 100 500 150; x_wconf 91">Number:</span>
          <span class="ocrx_word" id="word_1_3" title="bbox 520 100 900 150; x_wconf 88"><strong>INV-2024-001</strong></span>
        </span>
        <span class="ocr_line" id="line_1_2" title="bbox 100 170 600 220">
          <span class="ocrx_word" id="word_1_4" title="bbox 100 170 600 220; x_wconf 90">Total</span>
        </span>
      </p>
    </div>
    <span class="ocrx_word" id="word_1_5" title="bbox 100 3000 400 3050; x_wconf 70">Footer</span>
  </div>
</body>
</html>`

func TestParseHOCR(t *testing.T) {
	doc, err := ParseHOCR([]byte(sampleHOCR))
	require.NoError(t, err)

	assert.Equal(t, "Invoice scan", doc.Title)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, "tesseract 5.3.0", doc.Metadata["ocr-system"])
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, "scan.png", page.ImageName)
	assert.Equal(t, NewBoundingBox(0, 0, 2480, 3508), page.BBox)
	require.Len(t, page.Areas, 2)

	area := page.Areas[0]
	require.Len(t, area.Lines, 2)
	assert.Equal(t, "Invoice Number: INV-2024-001", area.Lines[0].Text())
	assert.Equal(t, "0 -10", area.Lines[0].Baseline)
	assert.Equal(t, 96.0, area.Lines[0].Words[0].Confidence)
	assert.Equal(t, NewBoundingBox(520, 100, 900, 150), area.Lines[0].Words[2].BBox)

	loose := page.Areas[1]
	require.Len(t, loose.Lines, 1)
	assert.Equal(t, "Footer", loose.Lines[0].Text())
	assert.Equal(t, NewBoundingBox(100, 3000, 400, 3050), loose.Lines[0].BBox)
}

func TestParseHOCRLatin1(t *testing.T) {
	data := []byte(`<html><head><meta http-equiv="Content-Type" content="text/html; charset=iso-8859-1"></head><body>` +
		`<div class="ocr_page" title="bbox 0 0 100 100"><span class="ocr_line" title="bbox 0 0 50 10">` +
		`<span class="ocrx_word" title="bbox 0 0 50 10">Caf` + "\xe9" + `</span></span></div></body></html>`)

	doc, err := ParseHOCR(data)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	require.Len(t, doc.Pages[0].Areas, 1)
	assert.Equal(t, "Café", doc.Pages[0].Areas[0].Lines[0].Text())
}

func TestParseHOCRNoPages(t *testing.T) {
	_, err := ParseHOCR([]byte(`<html><body><p>plain</p></body></html>`))
	assert.Error(t, err)
}

func TestParseTitle(t *testing.T) {
	props := ParseTitle("bbox 1 2 3 4; x_wconf 95;  baseline 0.01 -3")
	assert.Equal(t, []string{"1", "2", "3", "4"}, props["bbox"])
	assert.Equal(t, []string{"95"}, props["x_wconf"])
	assert.Equal(t, []string{"0.01", "-3"}, props["baseline"])

	_, ok := ParseBoundingBox("x_wconf 12")
	assert.False(t, ok)
}
