// Package gdocai reads Google Document AI results and turns them into
// searchable OCR indexes and highlight targets.
//
// Document AI reports geometry as normalized vertices (0-1) relative to a
// page dimension that carries its own unit. This package scales the vertices
// by that dimension and passes the declared unit through, so highlights land
// in the right place without the unit heuristic.
//
// Key Features:
//
// - Decode Document AI JSON (as written by the API or by protojson)
// - Build an ocr.Index from blocks, lines and tokens, keeping the block structure
// - Extract form fields and custom extractor entities as "Name: Value" targets
//
// Main Functions:
//
// - Load: Decodes a Document AI JSON document
// - ToIndex: Converts a Document AI document to an ocr.Index
// - ExtractFields: Lists form fields and entities with their page
// - FieldMap: Groups fields into a map, collecting duplicate names
//
// Usage Requirements:
//
// - The Document AI JSON must include the page layout (OCR or Form parser output)
package gdocai

import (
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/ocrhighlight/pkg/ocr"
)

// Load decodes a Document AI document from its JSON form. Unknown fields
// are ignored so output from newer API versions still loads.
func Load(data []byte) (*documentaipb.Document, error) {
	doc := &documentaipb.Document{}
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode Document AI JSON: %w", err)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("Document AI document has no pages")
	}
	return doc, nil
}

// LoadIndex decodes a Document AI document and builds its token index
func LoadIndex(data []byte) (*ocr.Index, *documentaipb.Document, error) {
	doc, err := Load(data)
	if err != nil {
		return nil, nil, err
	}
	return ToIndex(doc), doc, nil
}
