// Package hocr parses hOCR, the HTML based format for OCR results.
//
// hOCR nests pages, content areas, paragraphs, lines and words, each carrying
// its geometry in the title attribute ("bbox 100 200 300 400; x_wconf 95").
// The parser keeps the levels the highlight resolver needs: pages, content
// areas (paragraphs are folded into their area) and lines of words. Words
// found outside any line are collected into a synthetic line, and lines
// outside any area into a synthetic area, so no recognized text is lost.
//
// Key Types:
//
// - HOCR: Top-level structure representing an entire hOCR document
// - Page: A single page with class 'ocr_page'
// - Area: A content area with class 'ocr_carea' (or a bare 'ocr_par')
// - Line: A line of text with class 'ocr_line' or one of its variants
// - Word: A single word with class 'ocrx_word'
// - BoundingBox: A rectangle in page pixel coordinates
//
// Main Functions:
//
// - ParseHOCR: Parses hOCR data from HTML into the object model
// - ParseTitle: Splits an hOCR title attribute into its properties
package hocr
