package surface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrPageOutOfRange is returned for page numbers outside the document
var ErrPageOutOfRange = errors.New("page out of range")

// PageSize is a page size in points
type PageSize struct {
	Width  float64
	Height float64
}

// Document is an opened source document
type Document struct {
	Type  Type
	Data  []byte
	Pages []PageSize // Page sizes in points for PDFs, pixels for images
	Image *Image     // Set for raster documents
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}

// Page returns the size of a 1-based page
func (d *Document) Page(n int) (PageSize, error) {
	if d == nil || n < 1 || n > len(d.Pages) {
		return PageSize{}, fmt.Errorf("page %d: %w", n, ErrPageOutOfRange)
	}
	return d.Pages[n-1], nil
}

// Open identifies and opens a document. Raster images become a single page
// document; PDFs are measured with pdfcpu.
func Open(declared, filename string, data []byte) (*Document, error) {
	t, err := ResolveType(declared, filename, data)
	if err != nil {
		return nil, err
	}

	doc := &Document{Type: t, Data: data}
	if t.IsImage() {
		img, err := LoadImage(data)
		if err != nil {
			return nil, err
		}
		doc.Image = img
		doc.Pages = []PageSize{{Width: img.NaturalWidth, Height: img.NaturalHeight}}
		return doc, nil
	}

	pages, err := PageSizes(data)
	if err != nil {
		return nil, err
	}
	doc.Pages = pages
	return doc, nil
}

// PageSizes returns the media box size of every page of a PDF
func PageSizes(data []byte) ([]PageSize, error) {
	conf := model.NewDefaultConfiguration()
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF page dimensions: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages := make([]PageSize, len(dims))
	for i, d := range dims {
		pages[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return pages, nil
}

// Rasterizer renders PDF pages to pixels
type Rasterizer interface {
	// Render draws a 1-based page at zoom, where zoom 1 is 72 DPI
	Render(ctx context.Context, page int, zoom float64) (*image.RGBA, error)
	Close() error
}

// FitzRasterizer renders with MuPDF through go-fitz. MuPDF documents are
// not safe for concurrent use, so renders are serialised.
type FitzRasterizer struct {
	mu  sync.Mutex
	doc *fitz.Document
}

// NewFitzRasterizer opens a PDF held in memory
func NewFitzRasterizer(data []byte) (*FitzRasterizer, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	return &FitzRasterizer{doc: doc}, nil
}

func (f *FitzRasterizer) Render(ctx context.Context, page int, zoom float64) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.doc == nil {
		return nil, fmt.Errorf("rasterizer closed")
	}
	if page < 1 || page > f.doc.NumPage() {
		return nil, fmt.Errorf("page %d: %w", page, ErrPageOutOfRange)
	}
	if zoom <= 0 {
		zoom = 1
	}

	// The caller may have moved on while waiting for the lock
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := f.doc.ImageDPI(page-1, 72*zoom)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	return img, nil
}

func (f *FitzRasterizer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		return nil
	}
	err := f.doc.Close()
	f.doc = nil
	return err
}
