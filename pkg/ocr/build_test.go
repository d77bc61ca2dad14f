package ocr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrhighlight/pkg/geometry"
	"github.com/gardar/ocrhighlight/pkg/hocr"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Shape
	}{
		{"page array", `[{"page_number": 1, "lines": []}]`, ShapePageArray},
		{"text blocks", `{"text_blocks": [{"lines": []}]}`, ShapeTextBlocks},
		{"pages", `{"pages": [{"lines": []}]}`, ShapePages},
		{"content wrapper", `{"content": {"pages": []}}`, ShapeContent},
		{"content string", `{"content": "plain text"}`, ShapeUnknown},
		{"analyze result", `{"analyzeResult": {"pages": []}}`, ShapeAnalyzeResult},
		{"single block", `{"words": [{"text": "a"}]}`, ShapeBlock},
		{"unknown", `{"foo": 1}`, ShapeUnknown},
		{"scalar", `42`, ShapeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v any
			require.NoError(t, json.Unmarshal([]byte(tt.json), &v))
			assert.Equal(t, tt.want, Detect(v))
			if tt.want == ShapeUnknown {
				assert.True(t, Build(v).Empty())
			}
		})
	}

	assert.Equal(t, ShapePageArray, Detect([]any{}))
	assert.Equal(t, ShapeBlock, Detect(map[string]any{"lines": []any{}}))
	assert.Equal(t, ShapeUnknown, Detect("x"))
}

func TestBuildPageArray(t *testing.T) {
	ix, err := BuildJSON([]byte(`[
		{"page_number": 1, "page_width": 8.5, "page_height": 11,
		 "lines": [{"text": "Invoice Number: INV-1", "bounding_box": [1, 1, 4, 1.3],
		            "words": [{"text": "Invoice", "bounding_box": [1, 1, 2, 1.3], "confidence": 0.98},
		                      {"text": "Number:", "bounding_box": [2.1, 1, 3, 1.3]},
		                      {"text": "INV-1", "bounding_box": [3.1, 1, 4, 1.3]}]}]},
		{"page_number": 2, "page_width": 8.5, "page_height": 11,
		 "lines": [{"text": "Total 100", "bounding_box": "[1, 5], [3, 5], [3, 5.3], [1, 5.3]"}]}
	]`))
	require.NoError(t, err)

	require.Len(t, ix.Blocks, 2)
	require.Len(t, ix.Lines, 2)
	require.Len(t, ix.Words, 3)
	assert.Equal(t, []int{1, 2}, ix.Pages())

	assert.Equal(t, "Invoice Number: INV-1", ix.Lines[0].Text)
	assert.Equal(t, geometry.UnitInch, ix.Lines[0].Unit)
	assert.Equal(t, 2, ix.Lines[1].PageNumber)
	assert.Equal(t, 8.5, ix.Lines[1].PageWidth)
	assert.Equal(t, KindWord, ix.Words[2].Kind)
	assert.Equal(t, 2, ix.Words[2].Position)
	assert.Equal(t, "Invoice Number: INV-1\n\nTotal 100\n", ix.Text())
}

func TestBuildNestedBlocksInheritPage(t *testing.T) {
	ix := Build(map[string]any{
		"pages": []any{
			map[string]any{
				"pageNumber": 3.0,
				"width":      2480.0,
				"height":     3508.0,
				"blocks": []any{
					map[string]any{"lines": []any{map[string]any{"content": "first block", "polygon": []any{1.0, 2.0, 3.0, 4.0}}}},
					map[string]any{"lines": []any{map[string]any{"content": "second block"}}},
				},
			},
		},
	})

	require.Len(t, ix.Blocks, 2)
	for i, b := range ix.Blocks {
		assert.Equal(t, 3, b.PageNumber, "block %d", i)
		assert.Equal(t, 2480.0, b.PageWidth)
		assert.Equal(t, geometry.UnitPixel, b.ResolvedUnit())
	}
	assert.Equal(t, 1, ix.Lines[1].Block)
}

func TestBuildAnalyzeResultDeclaredUnit(t *testing.T) {
	ix, err := BuildJSON([]byte(`{"analyzeResult": {"content": "Hello", "pages": [
		{"pageNumber": 1, "width": 1700, "height": 2200, "unit": "inch",
		 "lines": [{"content": "Hello world", "polygon": [0.5, 0.5, 2, 0.5, 2, 0.8, 0.5, 0.8]}],
		 "words": [{"content": "Hello", "polygon": [0.5, 0.5, 1, 0.5, 1, 0.8, 0.5, 0.8], "confidence": 0.99},
		           {"content": "world", "polygon": [1.1, 0.5, 2, 0.5, 2, 0.8, 1.1, 0.8]}]}]}}`))
	require.NoError(t, err)

	require.Len(t, ix.Lines, 1)
	assert.Equal(t, geometry.UnitInch, ix.Lines[0].Unit)
	require.Len(t, ix.Words, 2)
	assert.Equal(t, "world", ix.Words[1].Text)
}

func TestBuildLineTextFromWords(t *testing.T) {
	ix := Build(map[string]any{
		"lines": []any{map[string]any{
			"words": []any{
				map[string]any{"text": "Due"},
				map[string]any{"text": "Date"},
			},
		}},
	})
	require.Len(t, ix.Lines, 1)
	assert.Equal(t, "Due Date", ix.Lines[0].Text)
	assert.Len(t, ix.Words, 2)
}

func TestBuildJSONInvalid(t *testing.T) {
	_, err := BuildJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestFromHOCR(t *testing.T) {
	doc := hocr.HOCR{Pages: []hocr.Page{{
		PageNumber: 1,
		BBox:       hocr.NewBoundingBox(0, 0, 2480, 3508),
		Areas: []hocr.Area{{Lines: []hocr.Line{{
			BBox: hocr.NewBoundingBox(100, 100, 500, 150),
			Words: []hocr.Word{
				{Text: "Total", BBox: hocr.NewBoundingBox(100, 100, 250, 150), Confidence: 93},
				{Text: "42.00", BBox: hocr.NewBoundingBox(270, 100, 500, 150)},
			},
		}}}},
	}}}

	ix := FromHOCR(doc)
	require.Len(t, ix.Lines, 1)
	assert.Equal(t, "Total 42.00", ix.Lines[0].Text)
	assert.Equal(t, geometry.UnitPixel, ix.Lines[0].Unit)
	assert.Equal(t, []float64{270, 100, 500, 150}, ix.Words[1].BoundingBox)
	assert.Equal(t, 3508.0, ix.Words[1].PageHeight)
}
