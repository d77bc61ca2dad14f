package pdfmark

import (
	"fmt"
	"regexp"
	"strings"
)

// Optional content group names in the raw PDF. Literal strings may contain
// escaped parentheses, as in the "(Page N)" suffix of our own layers.
var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)/Type\s*/OCG\s*/Name\s*\(((?:\\.|[^\\)])*)\)`),
	regexp.MustCompile(`(?s)/OCG\s*<<[^>]*?/Name\s*\(((?:\\.|[^\\)])*)\)`),
	regexp.MustCompile(`(?s)/Name\s*\(((?:\\.|[^\\)])*)\)\s*/Type\s*/OCG`),
}

// detectPDFLayers attempts to find layer names in the raw PDF data.
func detectPDFLayers(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}

	var layers []string
	for _, re := range ocgPatterns {
		for _, m := range re.FindAllSubmatch(pdfData, -1) {
			if len(m) < 2 || len(m[1]) == 0 {
				continue
			}
			name := unescapePDFString(string(m[1]))
			if decoded, err := decodeUTF16BE([]byte(name)); err == nil {
				name = decoded
			}
			layers = append(layers, name)
		}
	}

	// Deduplicate
	unique := make([]string, 0, len(layers))
	seen := make(map[string]bool)
	for _, l := range layers {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	return unique, nil
}

// LayerCheckResult contains the results of checking for highlight layers
type LayerCheckResult struct {
	Layers        []string // All detected layers
	HasLayer      bool     // True if the highlight layer exists
	ExistingLayer string   // Name of the detected highlight layer (if any)
	Warnings      []string // Layers that look like highlights under another name
}

// CheckExistingLayers checks a PDF for highlight layers named layerName
// or "layerName (Page N)".
func CheckExistingLayers(pdfData []byte, layerName string) (LayerCheckResult, error) {
	result := LayerCheckResult{}

	layers, err := detectPDFLayers(pdfData)
	if err != nil {
		return result, fmt.Errorf("cannot analyze layers: %w", err)
	}
	result.Layers = layers

	pageLayerPattern := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+`, regexp.QuoteMeta(layerName)))

	for _, layer := range layers {
		if layer == layerName || pageLayerPattern.MatchString(layer) {
			result.HasLayer = true
			result.ExistingLayer = layer
			break
		}

		if strings.Contains(strings.ToLower(layer), "highlight") &&
			!strings.HasPrefix(layer, layerName) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("existing layer might contain highlights: %s", layer))
		}
	}

	return result, nil
}
