// Package pdfmark writes resolved highlights into PDF documents.
//
// Highlights are filled rectangles on an optional content layer per page,
// so compatible PDF readers can toggle them on and off without touching the
// original content. Existing PDFs are imported page by page and raster
// images become one page each.
//
// Key Features:
//
// - Overlay highlights on an existing PDF without re-rendering its pages
// - Assemble a new PDF from page images with a highlight layer
// - Detect existing highlight layers to prevent duplication
// - Convert OCR coordinates to points using the OCR page size or unit
//
// Main Functions:
//
// - ApplyHighlights: Adds a highlight layer to an existing PDF
// - AssembleWithHighlights: Creates a new PDF from images with a highlight layer
// - CheckExistingLayers: Lists the layers of a PDF and finds highlight layers
package pdfmark

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrhighlight/pkg/geometry"
	"github.com/gardar/ocrhighlight/pkg/surface"
)

// ApplyHighlights takes an existing PDF and draws the highlights on a layer
// of each page they belong to. It refuses a PDF that already carries a
// highlight layer unless cfg.Force is set.
func ApplyHighlights(
	inputPDFData []byte,
	highlights []geometry.ResolvedHighlight,
	cfg Config,
) ([]byte, error) {
	log := cfg.logger()

	// Validate inputs
	if len(inputPDFData) == 0 {
		return nil, fmt.Errorf("input PDF data is empty")
	}
	if cfg.StartPage < 1 {
		return nil, fmt.Errorf("start page must be at least 1, got %d", cfg.StartPage)
	}
	col, err := colorful.Hex(cfg.Color)
	if err != nil {
		return nil, fmt.Errorf("invalid highlight colour %q: %w", cfg.Color, err)
	}

	if cfg.DumpPDF {
		dumpPDFStructure(inputPDFData, 2000, log)
	}

	pages, err := surface.PageSizes(inputPDFData)
	if err != nil {
		return nil, err
	}

	// Check for existing layers
	layerResult, err := CheckExistingLayers(inputPDFData, cfg.LayerName)
	if err != nil {
		return nil, fmt.Errorf("layer detection failed: %w", err)
	}
	if len(layerResult.Layers) > 0 {
		log.WithField("layers", layerResult.Layers).Info("existing layers detected in PDF")
	}
	for _, warning := range layerResult.Warnings {
		log.Warn(warning)
	}

	// Enforce safety check unless force override is requested
	if layerResult.HasLayer && !cfg.Force {
		return nil, fmt.Errorf("file already has highlights (layer '%s'), use --force to reapply",
			layerResult.ExistingLayer)
	} else if layerResult.HasLayer {
		log.Warn("file already has highlights; reapplying due to --force adds a second layer")
	}

	byPage := groupByPage(highlights, cfg.StartPage)
	for page := range byPage {
		if page > len(pages) {
			log.WithField("page", page).Warn("highlight page is beyond the end of the PDF")
		}
	}

	finalPDF, drawn, err := modifyExistingPDF(inputPDFData, pages, byPage, col, cfg)
	if err != nil {
		return nil, fmt.Errorf("error modifying existing PDF: %w", err)
	}
	log.WithFields(logrus.Fields{
		"pages":      len(pages),
		"highlights": drawn,
	}).Debug("highlights written")

	return finalPDF, nil
}

// AssembleWithHighlights creates a PDF with one page per image and draws the
// highlights on top. Pages are sized at 96 DPI, matching pixel OCR units.
func AssembleWithHighlights(
	imagesData [][]byte,
	highlights []geometry.ResolvedHighlight,
	cfg Config,
) ([]byte, error) {
	log := cfg.logger()

	if len(imagesData) == 0 {
		return nil, fmt.Errorf("no image data provided")
	}
	if cfg.StartPage < 1 {
		return nil, fmt.Errorf("start page must be at least 1, got %d", cfg.StartPage)
	}
	col, err := colorful.Hex(cfg.Color)
	if err != nil {
		return nil, fmt.Errorf("invalid highlight colour %q: %w", cfg.Color, err)
	}

	// Validate image formats
	images := make([]pageImage, len(imagesData))
	for i, data := range imagesData {
		if len(data) == 0 {
			return nil, fmt.Errorf("image %d is empty", i+1)
		}
		img, err := preparePageImage(data)
		if err != nil {
			return nil, fmt.Errorf("image %d has invalid format: %w", i+1, err)
		}
		log.WithFields(logrus.Fields{"image": i + 1, "type": img.mime}).Debug("image detected")
		images[i] = img
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	byPage := groupByPage(highlights, cfg.StartPage)

	drawn := 0
	for i, img := range images {
		pageNum := i + 1
		w := img.width * geometry.UnitPixel.PointsPerUnit()
		h := img.height * geometry.UnitPixel.PointsPerUnit()

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageName := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: pdf.ImageTypeFromMime(img.mime)}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(img.data))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")

		drawn += drawHighlightLayer(pdf, byPage[pageNum], pageNum, w, h, col, cfg)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	log.WithFields(logrus.Fields{
		"pages":      len(images),
		"highlights": drawn,
	}).Debug("highlights written")
	return buf.Bytes(), nil
}

// modifyExistingPDF imports every page of an existing PDF and overlays the
// highlights of each page.
func modifyExistingPDF(
	inputPDFData []byte,
	pages []surface.PageSize,
	byPage map[int][]geometry.ResolvedHighlight,
	col colorful.Color,
	cfg Config,
) (out []byte, drawn int, err error) {
	// gofpdi panics on PDFs it cannot parse
	defer func() {
		if r := recover(); r != nil {
			out, drawn, err = nil, 0, fmt.Errorf("failed to import PDF: %v", r)
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(inputPDFData))

	for i, size := range pages {
		pageNum := i + 1

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})

		tpl := importer.ImportPageFromStream(pdf, &rs, pageNum, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, size.Width, size.Height)

		drawn += drawHighlightLayer(pdf, byPage[pageNum], pageNum, size.Width, size.Height, col, cfg)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), drawn, nil
}

// pageImage is an image ready for embedding
type pageImage struct {
	data   []byte
	mime   string
	width  float64
	height float64
}

// preparePageImage identifies an image and converts formats fpdf cannot
// embed to PNG.
func preparePageImage(data []byte) (pageImage, error) {
	t := surface.Sniff(data)
	if !t.IsImage() {
		return pageImage{}, surface.ErrUnsupportedFileType
	}

	if t == surface.TypeWEBP {
		img, err := surface.DecodeImage(data)
		if err != nil {
			return pageImage{}, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return pageImage{}, fmt.Errorf("failed to convert image to PNG: %w", err)
		}
		data = buf.Bytes()
		t = surface.TypePNG
	}

	// Stored dimensions, since fpdf embeds the pixels without EXIF rotation
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return pageImage{}, fmt.Errorf("failed to decode image config: %w", err)
	}
	return pageImage{
		data:   data,
		mime:   t.MIME(),
		width:  float64(cfg.Width),
		height: float64(cfg.Height),
	}, nil
}
