package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrhighlight/pkg/match"
	"github.com/gardar/ocrhighlight/pkg/ocr"
	"github.com/gardar/ocrhighlight/pkg/pdfmark"
)

const formJSON = `{"pages": [
	{"page_number": 1, "width": 2480, "height": 3508, "lines": [
		{"text": "Date of Birth: 04/12/1980", "bounding_box": [100, 100, 900, 150]},
		{"text": "Member ID: A1029384", "bounding_box": [100, 200, 700, 250]}
	]}
]}`

const imageJSON = `{"pages": [
	{"page_number": 1, "width": 200, "height": 100, "unit": "pixel", "lines": [
		{"text": "Invoice 2024-118", "bounding_box": [10, 10, 120, 30]}
	]}
]}`

const docaiJSON = `{
	"text": "Name: Jane Doe\n",
	"pages": [{
		"pageNumber": 1,
		"dimension": {"width": 1000, "height": 2000, "unit": "pixels"},
		"lines": [{"layout": {
			"textAnchor": {"textSegments": [{"startIndex": "0", "endIndex": "15"}]},
			"boundingPoly": {"normalizedVertices": [
				{"x": 0.1, "y": 0.1}, {"x": 0.5, "y": 0.1}, {"x": 0.5, "y": 0.12}, {"x": 0.1, "y": 0.12}
			]}
		}}],
		"formFields": [{
			"fieldName": {"textAnchor": {"textSegments": [{"startIndex": "0", "endIndex": "5"}]}},
			"fieldValue": {"textAnchor": {"textSegments": [{"startIndex": "6", "endIndex": "14"}]}}
		}]
	}]
}`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func whitePNG(t *testing.T, w, h int) []byte {
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

// run executes the CLI with args and returns what it printed to stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(envConfig, "")
	t.Setenv(envLogLevel, "")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, match.AcceptThreshold, cfg.Resolver.Threshold)
	assert.Equal(t, "#ffd400", cfg.Highlight.Color)
	assert.Equal(t, 50*time.Millisecond, cfg.Highlight.FadeDelay)
	assert.Equal(t, "Highlights", cfg.Export.LayerName)
	assert.Equal(t, 1.0, cfg.Viewport.Zoom)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, "config.yaml", []byte(`
log:
  level: debug
  format: json
resolver:
  threshold: 60
highlight:
  color: "#00ff00"
  settle_delay: 1s
retry:
  attempts: 2
  step: 10ms
export:
  layer_name: Review
`))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 60.0, cfg.Resolver.Threshold)
	assert.Equal(t, "#00ff00", cfg.Highlight.Color)
	assert.Equal(t, time.Second, cfg.Highlight.SettleDelay)
	assert.Equal(t, 50*time.Millisecond, cfg.Highlight.FadeDelay, "unset keys keep their defaults")
	assert.Equal(t, 2, cfg.Retry.Attempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.Step)
	assert.Equal(t, "Review", cfg.Export.LayerName)
	assert.Equal(t, "Review", cfg.exportConfig(nil).LayerName)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", []byte("resolver: [1, 2"))
	_, err = loadConfig(bad)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger("info", "json", &buf)
	require.NoError(t, err)
	log.WithField("page", 2).Info("Rendered page")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Rendered page", entry["msg"])
	assert.Equal(t, 2.0, entry["page"])

	_, err = newLogger("loud", "text", &buf)
	assert.Error(t, err)
	_, err = newLogger("info", "xml", &buf)
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
		want string
	}{
		{"hocr extension", "page.hocr", `{}`, formatHOCR},
		{"html content", "page.txt", "\n  <html><body></body></html>", formatHOCR},
		{"pdf extension", "scan.pdf", "", formatPDFText},
		{"pdf content", "scan.bin", "%PDF-1.7\n", formatPDFText},
		{"document ai", "out.json", docaiJSON, formatGDocAI},
		{"generic json", "out.json", formJSON, formatJSON},
		{"text without pages", "out.json", `{"text": "hello"}`, formatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectFormat(tt.path, []byte(tt.data)))
		})
	}
}

func TestParseOCR(t *testing.T) {
	in, err := parseOCR(formatJSON, []byte(formJSON))
	require.NoError(t, err)
	assert.Len(t, in.index.Lines, 2)
	assert.Nil(t, in.docai)

	in, err = parseOCR(formatGDocAI, []byte(docaiJSON))
	require.NoError(t, err)
	assert.NotNil(t, in.docai)
	assert.False(t, in.index.Empty())

	_, err = parseOCR("tesseract", nil)
	assert.Error(t, err)

	_, err = parseOCR(formatJSON, []byte("{"))
	assert.Error(t, err)
}

func TestLocate(t *testing.T) {
	ix, err := ocr.BuildJSON([]byte(formJSON))
	require.NoError(t, err)
	r := match.New(match.DefaultOptions())

	res := locate(r, ix, "Date of Birth: 04/12/1980", "")
	require.True(t, res.Found)
	assert.Equal(t, 1, res.Page)
	assert.GreaterOrEqual(t, res.Score, match.AcceptThreshold)
	assert.Equal(t, "Date of Birth: 04/12/1980", res.Text)
	require.NotNil(t, res.Box)
	assert.InDelta(t, 100, res.Box[0], 0.01)
	assert.InDelta(t, 150, res.Box[3], 0.01)

	res = locate(r, ix, "Policy number: ZZ-000", "")
	assert.False(t, res.Found)
	assert.Nil(t, res.Box)

	hs := highlightsFor(r, ix, []string{"Member ID: A1029384", "Nothing here"}, nil)
	assert.Len(t, hs, 1)
}

func TestPrintMatchWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	p := (&app{out: &buf}).colors()

	printMatch(&buf, p, matchResult{Target: "Nope"})
	assert.Equal(t, "no match \"Nope\"\n", buf.String())

	buf.Reset()
	printMatch(&buf, p, matchResult{
		Target: "Total", Found: true, Page: 3, Score: 92,
		Stage: "line", Rule: "exact", Text: "Total", Unit: "pixel",
		Box: &[4]float64{1, 2, 3, 4},
	})
	assert.Contains(t, buf.String(), "p.3")
	assert.Contains(t, buf.String(), "[ 92%]")
	assert.Contains(t, buf.String(), "box [1.0, 2.0, 3.0, 4.0] pixel")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestLocateCommand(t *testing.T) {
	ocrPath := writeFile(t, "scan.json", []byte(formJSON))

	out, err := run(t, "locate", "--ocr", ocrPath, "--json", "Member ID: A1029384")
	require.NoError(t, err)

	var res matchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Found)
	assert.Equal(t, 1, res.Page)

	_, err = run(t, "locate", "--ocr", ocrPath, "Policy number: ZZ-000")
	assert.Error(t, err)

	_, err = run(t, "locate", "Member ID")
	assert.Error(t, err, "--ocr is required without a PDF document")
}

func TestRenderCommand(t *testing.T) {
	docPath := writeFile(t, "photo.png", whitePNG(t, 200, 100))
	ocrPath := writeFile(t, "photo.json", []byte(imageJSON))
	output := filepath.Join(t.TempDir(), "page.png")

	out, err := run(t, "render", "--ocr", ocrPath, "-o", output, docPath, "Invoice 2024-118")
	require.NoError(t, err)
	assert.Contains(t, out, "page 1 rendered to")

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 100, cfg.Height)

	_, err = run(t, "render", "--ocr", ocrPath, "-o", output, docPath, "Invoice 2024-118")
	assert.Error(t, err, "existing output needs --overwrite")

	_, err = run(t, "render", "--ocr", ocrPath, "-o", output, "--overwrite", docPath, "Receipt 99")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	docPath := writeFile(t, "photo.png", whitePNG(t, 200, 100))
	ocrPath := writeFile(t, "photo.json", []byte(imageJSON))
	output := filepath.Join(t.TempDir(), "out.pdf")

	out, err := run(t, "export", "--ocr", ocrPath, "-o", output, "--layer", "Review", docPath, "Invoice 2024-118", "Receipt 99")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 targets highlighted")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	check, err := pdfmark.CheckExistingLayers(data, "Review")
	require.NoError(t, err)
	assert.True(t, check.HasLayer)

	_, err = run(t, "export", "--ocr", ocrPath, "-o", filepath.Join(t.TempDir(), "x.pdf"), docPath)
	assert.Error(t, err, "no targets")

	_, err = run(t, "export", "--ocr", ocrPath, "--fields", "-o", filepath.Join(t.TempDir(), "x.pdf"), docPath)
	assert.Error(t, err, "--fields needs Document AI input")
}

func TestFieldsCommand(t *testing.T) {
	ocrPath := writeFile(t, "docai.json", []byte(docaiJSON))

	out, err := run(t, "fields", "--ocr", ocrPath)
	require.NoError(t, err)
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "1 of 1 fields located")

	out, err = run(t, "fields", "--ocr", ocrPath, "--json")
	require.NoError(t, err)
	var rows []fieldResult
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Name", rows[0].Name)
	assert.Equal(t, "Jane Doe", rows[0].Value)
	assert.True(t, rows[0].Match.Found)

	out, err = run(t, "fields", "--ocr", ocrPath, "--map")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Name": "Jane Doe"}`, out)

	formPath := writeFile(t, "form.json", []byte(formJSON))
	_, err = run(t, "fields", "--ocr", formPath)
	assert.Error(t, err)
}
