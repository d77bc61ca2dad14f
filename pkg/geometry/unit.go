package geometry

import "strings"

// Unit is the coordinate unit of an OCR page
type Unit int

const (
	UnitUnknown Unit = iota
	UnitPixel
	UnitInch
	UnitPoint
)

// Thresholds used by DetectUnit. Letter and A4 pages are 8.5x11 and 8.27x11.69
// inches, 612x792 and 595x842 points, and well above 500 pixels at any
// common scan resolution.
const (
	inchLimit  = 100
	pixelFloor = 500
)

// String returns the lower case unit name
func (u Unit) String() string {
	switch u {
	case UnitPixel:
		return "pixel"
	case UnitInch:
		return "inch"
	case UnitPoint:
		return "point"
	default:
		return "unknown"
	}
}

// PointsPerUnit returns the multiplier that converts a value in u to PDF
// points. Pixels assume 96 DPI. Unknown units are treated as points.
func (u Unit) PointsPerUnit() float64 {
	switch u {
	case UnitInch:
		return 72
	case UnitPixel:
		return 0.75
	default:
		return 1
	}
}

// ParseUnit maps a producer declared unit name onto a Unit.
// It returns false for empty or unrecognized names.
func ParseUnit(name string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pixel", "pixels", "px":
		return UnitPixel, true
	case "inch", "inches", "in":
		return UnitInch, true
	case "point", "points", "pt":
		return UnitPoint, true
	}
	return UnitUnknown, false
}

// DetectUnit guesses the unit of a page from its width and height.
// Both below 100 is inches, both above 500 is pixels, anything else is points.
func DetectUnit(width, height float64) Unit {
	if width <= 0 || height <= 0 {
		return UnitUnknown
	}
	if width < inchLimit && height < inchLimit {
		return UnitInch
	}
	if width > pixelFloor && height > pixelFloor {
		return UnitPixel
	}
	return UnitPoint
}

// ResolveUnit returns the declared unit when the producer supplied a
// recognizable one, otherwise it falls back to DetectUnit.
func ResolveUnit(declared string, width, height float64) Unit {
	if u, ok := ParseUnit(declared); ok {
		return u
	}
	return DetectUnit(width, height)
}
