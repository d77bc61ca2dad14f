package pdfmark

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"

	"github.com/gardar/ocrhighlight/pkg/geometry"
)

// toPoints returns a function that converts highlight coordinates to PDF
// points on a page of the given size. Highlights that carry their OCR page
// size are rescaled to the PDF page; others are converted by unit.
func toPoints(h geometry.ResolvedHighlight, pageW, pageH float64) func(x, y float64) (float64, float64) {
	if h.PageWidth > 0 && h.PageHeight > 0 {
		return func(x, y float64) (float64, float64) {
			return normalizeCoords(x, y, h.PageWidth, h.PageHeight, pageW, pageH)
		}
	}
	mult := h.SourceUnit.PointsPerUnit()
	return func(x, y float64) (float64, float64) {
		return x * mult, y * mult
	}
}

// normalizeCoords rescales OCR page coords to PDF coords
func normalizeCoords(x, y, ocrW, ocrH, pdfW, pdfH float64) (float64, float64) {
	return (x / ocrW) * pdfW, (y / ocrH) * pdfH
}

func unescapePDFString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// decodeUTF16BE decodes a PDF text string that starts with a UTF-16BE BOM
func decodeUTF16BE(b []byte) (string, error) {
	if len(b) < 2 || b[0] != 0xFE || b[1] != 0xFF {
		return "", fmt.Errorf("no BOM detected, cannot confirm UTF-16BE")
	}
	out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("failed to decode UTF-16BE: %w", err)
	}
	return string(out), nil
}

// dumpPDFStructure logs the first N bytes of the PDF plus any /OCG
// layer references at debug level.
func dumpPDFStructure(pdfData []byte, byteCount int, log logrus.FieldLogger) {
	if byteCount > len(pdfData) {
		byteCount = len(pdfData)
	}
	log.Debugf("PDF structure (first %d bytes):\n%s", byteCount, pdfData[:byteCount])

	ocgIndex := bytes.Index(pdfData, []byte("/OCG"))
	if ocgIndex >= 0 {
		start := max(ocgIndex-20, 0)
		end := min(ocgIndex+100, len(pdfData))
		log.Debugf("OCG context:\n%s", pdfData[start:end])
	}
}
