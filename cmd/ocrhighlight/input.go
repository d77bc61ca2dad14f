package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrhighlight/pkg/gdocai"
	"github.com/gardar/ocrhighlight/pkg/hocr"
	"github.com/gardar/ocrhighlight/pkg/ocr"
	"github.com/gardar/ocrhighlight/pkg/surface"
)

// OCR input formats
const (
	formatAuto    = "auto"
	formatJSON    = "json"
	formatHOCR    = "hocr"
	formatGDocAI  = "gdocai"
	formatPDFText = "pdftext"
)

// ocrInput is a loaded OCR result
type ocrInput struct {
	index  *ocr.Index
	docai  *documentaipb.Document // Set for Document AI input
	format string
}

// loadDocument reads and identifies a source document
func (a *app) loadDocument(path string) (*surface.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := surface.Open(a.mimeType, path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.log.WithField("type", doc.Type.String()).WithField("pages", doc.PageCount()).Debug("Loaded document")
	return doc, nil
}

// loadOCR reads the OCR result named by --ocr. Without --ocr the text
// layer of a PDF document is used.
func (a *app) loadOCR(doc *surface.Document) (*ocrInput, error) {
	format := strings.ToLower(a.ocrFormat)
	var data []byte

	if a.ocrPath == "" {
		if doc == nil || doc.Type != surface.TypePDF {
			return nil, fmt.Errorf("--ocr is required unless the document is a PDF with a text layer")
		}
		data, format = doc.Data, formatPDFText
	} else {
		var err error
		data, err = os.ReadFile(a.ocrPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read OCR result: %w", err)
		}
		if format == "" || format == formatAuto {
			format = detectFormat(a.ocrPath, data)
		}
	}

	in, err := parseOCR(format, data)
	if err != nil {
		return nil, err
	}
	if in.index.Empty() {
		a.log.WithField("format", in.format).Warn("OCR result has no text")
	}
	a.log.WithFields(logrus.Fields{
		"format": in.format,
		"pages":  len(in.index.Pages()),
		"lines":  len(in.index.Lines),
		"words":  len(in.index.Words),
	}).Debug("Loaded OCR result")
	return in, nil
}

func parseOCR(format string, data []byte) (*ocrInput, error) {
	in := &ocrInput{format: format}
	var err error

	switch format {
	case formatJSON:
		in.index, err = ocr.BuildJSON(data)
	case formatHOCR:
		var doc hocr.HOCR
		doc, err = hocr.ParseHOCR(data)
		if err == nil {
			in.index = ocr.FromHOCR(doc)
		}
	case formatGDocAI:
		in.index, in.docai, err = gdocai.LoadIndex(data)
	case formatPDFText:
		in.index, err = ocr.FromPDFText(bytes.NewReader(data), int64(len(data)))
	default:
		return nil, fmt.Errorf("unsupported OCR format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s OCR result: %w", format, err)
	}
	return in, nil
}

// detectFormat guesses the OCR format from the file name and content
func detectFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hocr", ".html", ".htm", ".xhtml":
		return formatHOCR
	case ".pdf":
		return formatPDFText
	}

	if surface.Sniff(data) == surface.TypePDF {
		return formatPDFText
	}
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return formatHOCR
	}

	var probe struct {
		Text  *string                      `json:"text"`
		Pages []map[string]json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(trimmed, &probe); err == nil && probe.Text != nil && len(probe.Pages) > 0 {
		if _, ok := probe.Pages[0]["dimension"]; ok {
			return formatGDocAI
		}
		if _, ok := probe.Pages[0]["layout"]; ok {
			return formatGDocAI
		}
	}
	return formatJSON
}
