package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape identifies the top level layout of a decoded OCR result
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapePageArray
	ShapeTextBlocks
	ShapePages
	ShapeContent
	ShapeAnalyzeResult
	ShapeBlock
)

func (s Shape) String() string {
	switch s {
	case ShapePageArray:
		return "page-array"
	case ShapeTextBlocks:
		return "text-blocks"
	case ShapePages:
		return "pages"
	case ShapeContent:
		return "content"
	case ShapeAnalyzeResult:
		return "analyze-result"
	case ShapeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Key aliases seen across OCR producers
var (
	pageNumberKeys = []string{"pageNumber", "page_number", "page"}
	widthKeys      = []string{"pageWidth", "page_width", "width"}
	heightKeys     = []string{"pageHeight", "page_height", "height"}
	unitKeys       = []string{"unit", "units"}
	textKeys       = []string{"text", "content"}
	boxKeys        = []string{"boundingBox", "bounding_box", "polygon", "bbox", "boundingPolygon"}
	blockKeys      = []string{"text_blocks", "textBlocks", "blocks"}
	confidenceKeys = []string{"confidence", "conf"}
)

// Detect reports which shape a decoded OCR result has
func Detect(v any) Shape {
	switch r := v.(type) {
	case []any:
		return ShapePageArray
	case map[string]any:
		if inner, ok := r["analyzeResult"]; ok && inner != nil {
			return ShapeAnalyzeResult
		}
		if list, ok := listAt(r, "text_blocks", "textBlocks"); ok && list != nil {
			return ShapeTextBlocks
		}
		if list, ok := listAt(r, "pages"); ok && list != nil {
			return ShapePages
		}
		if c, ok := r["content"]; ok {
			switch c.(type) {
			case map[string]any, []any:
				return ShapeContent
			}
		}
		if _, ok := listAt(r, "words", "lines"); ok {
			return ShapeBlock
		}
	}
	return ShapeUnknown
}

// Build normalizes a decoded OCR result into an Index.
// Unknown shapes yield an empty index.
func Build(v any) *Index {
	ix := &Index{}
	build(ix, v)
	return ix
}

// BuildJSON decodes raw JSON and builds an Index from it
func BuildJSON(data []byte) (*Index, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode OCR result: %w", err)
	}
	return Build(v), nil
}

func build(ix *Index, v any) {
	switch Detect(v) {
	case ShapePageArray:
		for i, item := range v.([]any) {
			if m, ok := item.(map[string]any); ok {
				addPage(ix, m, pageDefaults{number: i + 1})
			}
		}
	case ShapeAnalyzeResult:
		build(ix, v.(map[string]any)["analyzeResult"])
	case ShapeTextBlocks:
		root := v.(map[string]any)
		list, _ := listAt(root, "text_blocks", "textBlocks")
		addBlocks(ix, list, pageDefaults{number: 1}.apply(root))
	case ShapePages:
		list, _ := listAt(v.(map[string]any), "pages")
		for i, item := range list {
			if m, ok := item.(map[string]any); ok {
				addPage(ix, m, pageDefaults{number: i + 1})
			}
		}
	case ShapeContent:
		build(ix, v.(map[string]any)["content"])
	case ShapeBlock:
		addPage(ix, v.(map[string]any), pageDefaults{number: 1})
	}
}

// pageDefaults carries values a nested block inherits from its page
type pageDefaults struct {
	number int
	width  float64
	height float64
	unit   string
}

func (d pageDefaults) apply(m map[string]any) pageDefaults {
	out := d
	if n, ok := numberAt(m, pageNumberKeys...); ok && n > 0 {
		out.number = int(n)
	}
	if w, ok := numberAt(m, widthKeys...); ok && w > 0 {
		out.width = w
	}
	if h, ok := numberAt(m, heightKeys...); ok && h > 0 {
		out.height = h
	}
	if u, ok := stringAt(m, unitKeys...); ok && u != "" {
		out.unit = u
	}
	return out
}

// addPage adds the page's own lines and words as one block, followed by any
// nested blocks, which inherit the page's number and dimensions.
func addPage(ix *Index, m map[string]any, defaults pageDefaults) {
	page := defaults.apply(m)

	lines, _ := listAt(m, "lines")
	words, _ := listAt(m, "words")
	if len(lines) > 0 || len(words) > 0 {
		ix.Add(parseBlock(m, page))
	}

	if nested, ok := listAt(m, blockKeys...); ok {
		addBlocks(ix, nested, page)
	}
}

func addBlocks(ix *Index, list []any, defaults pageDefaults) {
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		addPage(ix, m, defaults)
	}
}

func parseBlock(m map[string]any, page pageDefaults) Block {
	b := Block{
		PageNumber: page.number,
		PageWidth:  page.width,
		PageHeight: page.height,
		Unit:       page.unit,
	}
	if lines, ok := listAt(m, "lines"); ok {
		for _, item := range lines {
			if lm, ok := item.(map[string]any); ok {
				b.Lines = append(b.Lines, parseLine(lm))
			}
		}
	}
	if words, ok := listAt(m, "words"); ok {
		for _, item := range words {
			if wm, ok := item.(map[string]any); ok {
				b.Words = append(b.Words, parseWord(wm))
			}
		}
	}
	return b
}

func parseLine(m map[string]any) Line {
	text, _ := stringAt(m, textKeys...)
	l := Line{Text: text, BoundingBox: valueAt(m, boxKeys...)}
	if words, ok := listAt(m, "words"); ok {
		for _, item := range words {
			if wm, ok := item.(map[string]any); ok {
				l.Words = append(l.Words, parseWord(wm))
			}
		}
	}
	return l
}

func parseWord(m map[string]any) Word {
	text, _ := stringAt(m, textKeys...)
	conf, _ := numberAt(m, confidenceKeys...)
	return Word{Text: text, BoundingBox: valueAt(m, boxKeys...), Confidence: conf}
}

func valueAt(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func listAt(m map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if list, ok := m[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func stringAt(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return s, true
		}
	}
	return "", false
}

func numberAt(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
