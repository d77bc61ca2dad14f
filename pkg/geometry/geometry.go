// Package geometry normalizes the bounding geometry found in OCR results.
//
// OCR producers encode boxes in many ways: flat numeric arrays with four
// (x1, y1, x2, y2) or eight (four corner) values, arrays of {x, y} vertices,
// or strings such as "[1, 2], [3, 4], [5, 6], [7, 8]". This package turns all
// of them into a single eight value Polygon and guesses the unit system of a
// page from its dimensions when the producer does not declare one.
//
// Key Types:
//
// - Polygon: Four corners in clockwise order starting at the top left
// - Rect: Axis aligned rectangle (X1, Y1) to (X2, Y2)
// - Unit: Coordinate unit of an OCR page (pixel, inch, point)
// - ResolvedHighlight: A matched region ready to be mapped onto a render surface
//
// Main Functions:
//
// - ParseBox: Parses any supported box encoding into a Polygon
// - DetectUnit: Guesses the unit of a page from its dimensions
// - ResolveUnit: Prefers a declared unit and falls back to DetectUnit
package geometry
