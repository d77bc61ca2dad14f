// Package ocr builds a searchable token index from OCR results.
//
// OCR services return their results in different shapes. This package accepts
// the common ones (a bare array of pages, an object with text_blocks, an
// object with pages, an object wrapping the result in content, an Azure style
// analyzeResult envelope, or a single block with words/lines) and normalizes
// them into page scoped Blocks of Lines and Words. Every line and word is also
// recorded as a flat Token in document order for the match resolver.
//
// Producer specific adapters build the same Index from hOCR documents
// (FromHOCR) and from the native text layer of a PDF (FromPDFText). Document
// AI results are handled by the gdocai package.
//
// Unknown shapes produce an empty index rather than an error; a missing or
// malformed result simply has nothing to match.
package ocr
