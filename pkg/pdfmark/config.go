package pdfmark

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Config holds user options for writing highlights into a PDF
type Config struct {
	Debug     bool               // Outline every highlight in red
	Force     bool               // Write highlights even if a highlight layer already exists
	LayerName string             // Base name of the highlight layer (page number will be appended)
	StartPage int                // PDF page that OCR page 1 lands on
	Color     string             // Fill colour as a hex string
	Opacity   float64            // Fill opacity 0-1
	BlendMode string             // PDF blend mode for the fill
	DumpPDF   bool               // Log the head of the input PDF for debugging
	Logger    logrus.FieldLogger // Logger for warnings (nil = discard)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		LayerName: "Highlights", // Will be formatted as "Highlights (Page X)" in the final PDF
		StartPage: 1,
		Color:     "#ffd400",
		Opacity:   0.4,
		BlendMode: "Multiply",
	}
}

// logger returns the configured logger or one that discards everything
func (c Config) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
