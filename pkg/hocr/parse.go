package hocr

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

var charsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*["']?([a-z0-9_\-]+)`)

// Line level classes emitted by Tesseract, OCRopus and kraken
var lineClasses = []string{"ocr_line", "ocrx_line", "ocr_textfloat", "ocr_header", "ocr_caption"}

// ParseHOCR converts raw hOCR data into a structured HOCR object.
func ParseHOCR(data []byte) (HOCR, error) {
	result := HOCR{Metadata: make(map[string]string)}

	decoded, err := decodeCharset(data)
	if err != nil {
		return result, err
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return result, fmt.Errorf("failed to parse hOCR HTML: %w", err)
	}

	readHead(&result, doc)

	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			page := processPage(n, len(result.Pages)+1)
			result.Pages = append(result.Pages, page)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return result, nil
}

// decodeCharset converts Latin-1 documents to UTF-8. Everything that does
// not declare utf-8 is treated as ISO-8859-1, which is what older Tesseract
// builds write.
func decodeCharset(data []byte) ([]byte, error) {
	m := charsetPattern.FindSubmatch(data)
	if m == nil {
		return data, nil
	}
	enc := strings.ToLower(string(m[1]))
	if enc == "utf-8" || enc == "utf8" {
		return data, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return decoded, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) == 0 {
			continue
		}
		result[items[0]] = items[1:]
	}
	return result
}

// ParseBoundingBox extracts the bbox property from a title string
func ParseBoundingBox(title string) (BoundingBox, bool) {
	bbox, ok := ParseTitle(title)["bbox"]
	if !ok || len(bbox) < 4 {
		return BoundingBox{}, false
	}
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(bbox[i], 64)
		if err != nil {
			return BoundingBox{}, false
		}
		v[i] = f
	}
	return NewBoundingBox(v[0], v[1], v[2], v[3]), true
}

// readHead extracts document level metadata from the head section
func readHead(result *HOCR, doc *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := attr(n, "lang"); lang != "" {
					result.Language = lang
				}
			case "title":
				if n.FirstChild != nil {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := attr(n, "name"), attr(n, "content")
				if strings.HasPrefix(name, "ocr-") && content != "" {
					result.Metadata[name] = content
				}
			case "body":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// pageBuilder accumulates the areas of one page while walking its subtree
type pageBuilder struct {
	page  Page
	area  *Area
	line  *Line
	loose []Word // Words seen outside any line
}

func processPage(n *html.Node, position int) Page {
	title := attr(n, "title")
	b := &pageBuilder{page: Page{ID: attr(n, "id"), PageNumber: position}}

	if bbox, ok := ParseBoundingBox(title); ok {
		b.page.BBox = bbox
	}
	props := ParseTitle(title)
	if image, ok := props["image"]; ok && len(image) > 0 {
		b.page.ImageName = strings.Trim(strings.Join(image, " "), `"`)
	}
	if ppageno, ok := props["ppageno"]; ok && len(ppageno) > 0 {
		if no, err := strconv.Atoi(ppageno[0]); err == nil {
			b.page.PageNumber = no + 1
		}
	}

	b.visit(n)
	b.closeArea()
	return b.page
}

func (b *pageBuilder) visit(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}

		switch {
		case hasClass(c, "ocrx_word"):
			b.addWord(c)
			continue
		case hasAnyClass(c, lineClasses...) && b.line == nil:
			b.openLine(c)
			b.visit(c)
			b.closeLine()
			continue
		case (hasClass(c, "ocr_carea") || hasClass(c, "ocr_par")) && b.area == nil:
			b.openArea(c)
			b.visit(c)
			b.closeArea()
			continue
		}
		b.visit(c)
	}
}

func (b *pageBuilder) openArea(n *html.Node) {
	b.closeArea()
	b.area = &Area{ID: attr(n, "id")}
	if bbox, ok := ParseBoundingBox(attr(n, "title")); ok {
		b.area.BBox = bbox
	}
}

// closeArea flushes loose words and appends the open area to the page
func (b *pageBuilder) closeArea() {
	if len(b.loose) > 0 {
		b.ensureArea()
		b.area.Lines = append(b.area.Lines, Line{Words: b.loose, BBox: enclosing(b.loose)})
		b.loose = nil
	}
	if b.area == nil {
		return
	}
	if len(b.area.Lines) > 0 {
		b.page.Areas = append(b.page.Areas, *b.area)
	}
	b.area = nil
}

func (b *pageBuilder) ensureArea() {
	if b.area == nil {
		b.area = &Area{ID: fmt.Sprintf("%s_area_%d", b.page.ID, len(b.page.Areas)+1)}
	}
}

func (b *pageBuilder) openLine(n *html.Node) {
	title := attr(n, "title")
	b.line = &Line{ID: attr(n, "id")}
	if bbox, ok := ParseBoundingBox(title); ok {
		b.line.BBox = bbox
	}
	if baseline, ok := ParseTitle(title)["baseline"]; ok {
		b.line.Baseline = strings.Join(baseline, " ")
	}
}

func (b *pageBuilder) closeLine() {
	if b.line == nil {
		return
	}
	if len(b.line.Words) > 0 {
		b.ensureArea()
		b.area.Lines = append(b.area.Lines, *b.line)
	}
	b.line = nil
}

func (b *pageBuilder) addWord(n *html.Node) {
	title := attr(n, "title")
	w := Word{ID: attr(n, "id"), Text: strings.TrimSpace(textContent(n))}
	if w.Text == "" {
		return
	}
	if bbox, ok := ParseBoundingBox(title); ok {
		w.BBox = bbox
	}
	if conf, ok := ParseTitle(title)["x_wconf"]; ok && len(conf) > 0 {
		w.Confidence, _ = strconv.ParseFloat(conf[0], 64)
	}

	if b.line != nil {
		b.line.Words = append(b.line.Words, w)
		return
	}
	b.loose = append(b.loose, w)
}

func enclosing(words []Word) BoundingBox {
	box := words[0].BBox
	for _, w := range words[1:] {
		box.X1 = min(box.X1, w.BBox.X1)
		box.Y1 = min(box.Y1, w.BBox.Y1)
		box.X2 = max(box.X2, w.BBox.X2)
		box.Y2 = max(box.Y2, w.BBox.Y2)
	}
	return box
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func hasAnyClass(n *html.Node, classes ...string) bool {
	for _, c := range classes {
		if hasClass(n, c) {
			return true
		}
	}
	return false
}
