// Package viewer ties matching, page rendering, highlight drawing and
// scrolling together for one open document.
//
// A Viewer owns every render surface of its document. PDF pages are
// rasterized on demand, one task per page at a time; a new render of the
// same page cancels the running one and waits for it to finish. Search,
// SetZoom and Close cancel whatever the previous operation left pending
// (surface readiness retries, scroll retries, crossfade timers) so nothing
// is drawn on a surface that has been replaced.
//
// Key Types:
//   - Viewer: the render lifecycle controller
//   - Options: zoom, viewport, retry and component options
//
// Main Functions:
//   - Open: prepares a viewer for a document and its OCR index
//   - (*Viewer).Search: resolves a target, draws and scrolls to it
//   - (*Viewer).SetZoom: re-renders at a new zoom and redraws the match
//   - (*Viewer).GoToPage: renders a page on demand and scrolls to it
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/gardar/ocrhighlight/pkg/geometry"
	"github.com/gardar/ocrhighlight/pkg/highlight"
	"github.com/gardar/ocrhighlight/pkg/match"
	"github.com/gardar/ocrhighlight/pkg/ocr"
	"github.com/gardar/ocrhighlight/pkg/retry"
	"github.com/gardar/ocrhighlight/pkg/surface"
	"github.com/gardar/ocrhighlight/pkg/viewport"
)

// ErrClosed is returned by operations on a closed viewer
var ErrClosed = errors.New("viewer closed")

// Options configures a Viewer
type Options struct {
	Zoom           float64            // Initial zoom, 1 renders PDFs at 72 DPI
	ViewportWidth  float64            // Visible width of the default layout
	ViewportHeight float64            // Visible height of the default layout
	PageGap        float64            // Gap between pages in the default layout
	Retry          retry.Policy       // Readiness retries for drawing and scrolling
	Resolver       match.Options      // Match resolver options
	Highlight      highlight.Options  // Crossfade options
	Rasterizer     surface.Rasterizer // PDF renderer, go-fitz when nil
	Container      viewport.Container // Scroll container, a viewport.Layout when nil
	Logger         logrus.FieldLogger
}

// DefaultOptions returns the viewer defaults
func DefaultOptions() Options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return Options{
		Zoom:           1,
		ViewportWidth:  1024,
		ViewportHeight: 768,
		PageGap:        16,
		Retry:          retry.DefaultPolicy(),
		Resolver:       match.DefaultOptions(),
		Highlight:      highlight.DefaultOptions(),
		Logger:         logger,
	}
}

// mounter is implemented by containers that track page layout themselves
type mounter interface {
	SetPage(page int, w, h float64)
	Unmount(page int)
}

type renderTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type pageState struct {
	pdf     *surface.PDFPage
	img     *surface.Image
	overlay *highlight.Canvas
	task    *renderTask
}

func (p *pageState) surface() surface.Surface {
	if p.img != nil {
		return p.img
	}
	if p.pdf != nil {
		return p.pdf
	}
	return nil
}

// Viewer is the render lifecycle controller for one document
type Viewer struct {
	mu sync.Mutex

	doc       *surface.Document
	index     *ocr.Index
	opts      Options
	log       logrus.FieldLogger
	resolver  *match.Resolver
	renderer  *highlight.Renderer
	scroller  *viewport.Scroller
	container viewport.Container
	raster    surface.Rasterizer

	zoom    float64
	pages   map[int]*pageState
	active  []geometry.ResolvedHighlight
	boxZoom float64 // zoom the renderer's boxes were mapped at, 0 when stale

	life     context.Context
	shutdown context.CancelFunc
	opCancel context.CancelFunc
	closed   bool
}

// Open prepares a viewer. Raster documents are ready immediately; PDF pages
// are laid out at their point size times the zoom and rendered on demand.
// The viewer takes ownership of the rasterizer.
func Open(doc *surface.Document, ix *ocr.Index, opts Options) (*Viewer, error) {
	if doc == nil || doc.PageCount() == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	if ix == nil {
		ix = &ocr.Index{}
	}

	def := DefaultOptions()
	if opts.Zoom <= 0 {
		opts.Zoom = def.Zoom
	}
	if opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0 {
		opts.ViewportWidth, opts.ViewportHeight = def.ViewportWidth, def.ViewportHeight
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = def.Retry
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if opts.Resolver.Logger == nil {
		opts.Resolver.Logger = opts.Logger
	}
	if opts.Highlight.Logger == nil {
		opts.Highlight.Logger = opts.Logger
	}

	renderer, err := highlight.NewRenderer(opts.Highlight)
	if err != nil {
		return nil, err
	}

	raster := opts.Rasterizer
	if doc.Type == surface.TypePDF && raster == nil {
		raster, err = surface.NewFitzRasterizer(doc.Data)
		if err != nil {
			return nil, err
		}
	}

	container := opts.Container
	if container == nil {
		container = viewport.NewLayout(opts.ViewportWidth, opts.ViewportHeight, opts.PageGap)
	}

	life, shutdown := context.WithCancel(context.Background())
	v := &Viewer{
		doc:       doc,
		index:     ix,
		opts:      opts,
		log:       opts.Logger,
		resolver:  match.New(opts.Resolver),
		renderer:  renderer,
		scroller:  viewport.NewScroller(container, opts.Logger),
		container: container,
		raster:    raster,
		zoom:      opts.Zoom,
		pages:     make(map[int]*pageState),
		life:      life,
		shutdown:  shutdown,
	}

	if doc.Type.IsImage() {
		v.mountImage()
	} else {
		for n := 1; n <= doc.PageCount(); n++ {
			v.layoutPage(n, false)
		}
	}

	v.log.WithFields(logrus.Fields{
		"type":  doc.Type.String(),
		"pages": doc.PageCount(),
		"zoom":  v.zoom,
	}).Info("Opened document")
	return v, nil
}

// mountImage sizes the single image page at the current zoom
func (v *Viewer) mountImage() {
	src := v.doc.Image
	if src == nil {
		src = &surface.Image{NaturalWidth: v.doc.Pages[0].Width, NaturalHeight: v.doc.Pages[0].Height, Loaded: true}
	}
	ps := v.page(1)
	if ps.img == nil {
		img := *src
		ps.img = &img
	}
	ps.img.DisplayWidth = ps.img.NaturalWidth * v.zoom
	ps.img.DisplayHeight = ps.img.NaturalHeight * v.zoom

	w, h := pixels(ps.img.DisplayWidth), pixels(ps.img.DisplayHeight)
	if ps.overlay == nil {
		ps.overlay = highlight.NewCanvas(w, h)
	} else {
		ps.overlay.Resize(w, h)
	}
	v.renderer.Attach(1, ps.overlay)
	if m, ok := v.container.(mounter); ok {
		m.SetPage(1, ps.img.DisplayWidth, ps.img.DisplayHeight)
	}
}

// layoutPage records a PDF page's size at the current zoom
func (v *Viewer) layoutPage(n int, mounted bool) {
	m, ok := v.container.(mounter)
	if !ok {
		return
	}
	size := v.doc.Pages[n-1]
	m.SetPage(n, size.Width*v.zoom, size.Height*v.zoom)
	if !mounted {
		m.Unmount(n)
	}
}

func (v *Viewer) page(n int) *pageState {
	ps, ok := v.pages[n]
	if !ok {
		ps = &pageState{}
		v.pages[n] = ps
	}
	return ps
}

// Zoom returns the active zoom
func (v *Viewer) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// Highlights returns the highlights of the last search
func (v *Viewer) Highlights() []geometry.ResolvedHighlight {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]geometry.ResolvedHighlight(nil), v.active...)
}

// Surface returns the render surface of a page, or nil when the page has
// not been rendered at the current zoom.
func (v *Viewer) Surface(n int) surface.Surface {
	v.mu.Lock()
	defer v.mu.Unlock()
	if ps, ok := v.pages[n]; ok {
		return ps.surface()
	}
	return nil
}

// Overlay returns the highlight overlay of a page, or nil
func (v *Viewer) Overlay(n int) *highlight.Canvas {
	v.mu.Lock()
	defer v.mu.Unlock()
	if ps, ok := v.pages[n]; ok {
		return ps.overlay
	}
	return nil
}

// Phase returns the crossfade state of the highlight renderer
func (v *Viewer) Phase() highlight.Phase {
	return v.renderer.Phase()
}

// Settle finishes a running crossfade so the overlays show the steady frame
func (v *Viewer) Settle() {
	v.renderer.Settle()
}

// Snapshot returns a page as displayed: the rendered PDF page or the image
// at display size, with its highlight overlay on top.
func (v *Viewer) Snapshot(n int) (*image.RGBA, error) {
	v.mu.Lock()
	ps, ok := v.pages[n]
	var content image.Image
	var overlay *highlight.Canvas
	var display *surface.Image
	if ok {
		overlay = ps.overlay
		switch {
		case ps.pdf != nil && ps.pdf.Canvas != nil:
			content = ps.pdf.Canvas
		case ps.img != nil:
			img := *ps.img
			display = &img
		}
	}
	data := v.doc.Data
	v.mu.Unlock()

	if display != nil {
		decoded, err := surface.DecodeImage(data)
		if err != nil {
			return nil, err
		}
		scaled := image.NewRGBA(image.Rect(0, 0, pixels(display.DisplayWidth), pixels(display.DisplayHeight)))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), decoded, decoded.Bounds(), draw.Src, nil)
		content = scaled
	}
	if content == nil || overlay == nil {
		return nil, fmt.Errorf("page %d has not been rendered", n)
	}
	return overlay.Composite(content), nil
}

// RenderedPages returns the pages that currently have a surface
func (v *Viewer) RenderedPages() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderedLocked()
}

func (v *Viewer) renderedLocked() []int {
	var out []int
	for n, ps := range v.pages {
		if ps.surface() != nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// Close cancels every pending operation, waits for in-flight renders and
// releases the rasterizer. Later calls return ErrClosed.
func (v *Viewer) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.closed = true
	v.shutdown()
	v.renderer.Cancel()

	var waits []chan struct{}
	for n, ps := range v.pages {
		if ps.task != nil {
			ps.task.cancel()
			waits = append(waits, ps.task.done)
		}
		v.renderer.Detach(n)
	}
	v.mu.Unlock()

	for _, done := range waits {
		<-done
	}

	v.log.Debug("Closed viewer")
	if v.raster != nil {
		if err := v.raster.Close(); err != nil {
			return fmt.Errorf("failed to close rasterizer: %w", err)
		}
	}
	return nil
}

// beginOp cancels the previous search or zoom operation and returns a
// context for the new one, bound to ctx and to the viewer's lifetime.
func (v *Viewer) beginOp(ctx context.Context) context.Context {
	if v.opCancel != nil {
		v.opCancel()
	}
	op, cancel := context.WithCancel(v.life)
	stop := context.AfterFunc(ctx, cancel)
	v.opCancel = func() {
		stop()
		cancel()
	}
	return op
}

func pixels(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(v + 0.5)
}
