package viewer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrhighlight/pkg/highlight"
	"github.com/gardar/ocrhighlight/pkg/retry"
	"github.com/gardar/ocrhighlight/pkg/surface"
)

// RenderPage rasterizes a PDF page at the current zoom, replacing any
// earlier surface of that page. A render already running for the page is
// cancelled and awaited first. A render superseded by a zoom change, a
// newer render or Close returns context.Canceled.
func (v *Viewer) RenderPage(ctx context.Context, n int) (*surface.PDFPage, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	if v.doc.Type != surface.TypePDF {
		v.mu.Unlock()
		return nil, fmt.Errorf("page %d: %s documents are not rasterized", n, v.doc.Type)
	}
	size, err := v.doc.Page(n)
	if err != nil {
		v.mu.Unlock()
		return nil, err
	}

	for v.pages[n] != nil && v.pages[n].task != nil {
		prev := v.pages[n].task
		prev.cancel()
		v.mu.Unlock()
		select {
		case <-prev.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		v.mu.Lock()
		if v.closed {
			v.mu.Unlock()
			return nil, ErrClosed
		}
	}

	ps := v.page(n)
	zoom := v.zoom
	tctx, cancel := context.WithCancel(v.life)
	stop := context.AfterFunc(ctx, cancel)
	task := &renderTask{cancel: cancel, done: make(chan struct{})}
	ps.task = task
	v.mu.Unlock()

	log := v.log.WithFields(logrus.Fields{"page": n, "zoom": zoom})
	log.Debug("Rendering page")
	img, err := v.raster.Render(tctx, n, zoom)

	stop()
	superseded := tctx.Err() != nil
	cancel()

	v.mu.Lock()
	defer v.mu.Unlock()
	if ps.task == task {
		ps.task = nil
	}
	close(task.done)

	if err != nil {
		if superseded || errors.Is(err, context.Canceled) {
			log.Debug("Page render cancelled")
			return nil, context.Canceled
		}
		log.WithError(err).Error("Page render failed")
		return nil, fmt.Errorf("failed to render page %d: %w", n, err)
	}
	if superseded || v.closed || v.zoom != zoom {
		return nil, context.Canceled
	}
	if img == nil {
		return nil, fmt.Errorf("failed to render page %d: empty image", n)
	}

	b := img.Bounds()
	page := &surface.PDFPage{
		PageNumber:     n,
		WidthPt:        size.Width,
		HeightPt:       size.Height,
		Zoom:           zoom,
		ViewportWidth:  float64(b.Dx()),
		ViewportHeight: float64(b.Dy()),
		Canvas:         img,
	}
	ps.pdf = page
	ps.overlay = highlight.NewCanvas(b.Dx(), b.Dy())
	v.renderer.Attach(n, ps.overlay)
	if len(v.active) > 0 && v.boxZoom == zoom {
		v.renderer.Redraw()
	}
	if m, ok := v.container.(mounter); ok {
		m.SetPage(n, page.ViewportWidth, page.ViewportHeight)
	}

	log.WithFields(logrus.Fields{"width": b.Dx(), "height": b.Dy()}).Debug("Rendered page")
	return page, nil
}

// ensure returns the surface of a page at the current zoom, rendering it
// when needed. Errors are shaped for retry.Do: closed viewers and pages that
// do not exist are permanent, anything else may clear up on a later attempt.
func (v *Viewer) ensure(ctx context.Context, n int) (surface.Surface, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, retry.Permanent(ErrClosed)
	}
	if _, err := v.doc.Page(n); err != nil {
		v.mu.Unlock()
		return nil, retry.Permanent(err)
	}
	ps := v.pages[n]
	if ps != nil && ps.img != nil {
		v.mu.Unlock()
		return ps.img, nil
	}
	if ps != nil && ps.pdf != nil && ps.pdf.Zoom == v.zoom {
		page := ps.pdf
		v.mu.Unlock()
		return page, nil
	}
	v.mu.Unlock()

	page, err := v.RenderPage(ctx, n)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	return page, nil
}

// SetZoom changes the zoom. In-flight renders and the pending search or
// zoom operation are cancelled, PDF canvases are discarded and every page
// that had a surface is rendered again at the new size. The active
// highlights are then mapped and drawn again, without a crossfade.
func (v *Viewer) SetZoom(ctx context.Context, zoom float64) error {
	if zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return fmt.Errorf("invalid zoom %v", zoom)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if zoom == v.zoom {
		v.mu.Unlock()
		return nil
	}

	op := v.beginOp(ctx)
	// boxes mapped at the old zoom must not reach the new canvases
	v.renderer.Clear()
	v.boxZoom = 0
	from := v.zoom
	v.zoom = zoom

	rendered := v.renderedLocked()
	var waits []chan struct{}
	for n, ps := range v.pages {
		if ps.task != nil {
			ps.task.cancel()
			waits = append(waits, ps.task.done)
		}
		if ps.pdf != nil {
			ps.pdf = nil
			ps.overlay = nil
			v.renderer.Detach(n)
		}
	}
	if v.doc.Type.IsImage() {
		v.mountImage()
		rendered = nil
	} else {
		for n := 1; n <= v.doc.PageCount(); n++ {
			v.layoutPage(n, false)
		}
	}
	active := append(v.active[:0:0], v.active...)
	v.mu.Unlock()

	for _, done := range waits {
		<-done
	}

	v.log.WithFields(logrus.Fields{"from": from, "to": zoom, "pages": rendered}).Info("Zoom changed")

	for _, n := range rendered {
		if _, err := v.RenderPage(op, n); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
				return nil
			}
			v.log.WithError(err).WithField("page", n).Warn("Re-render after zoom failed")
		}
	}

	if len(active) > 0 {
		v.present(op, active, false, v.log.WithField("zoom", zoom))
	}
	return nil
}

// GoToPage renders a page if needed and scrolls its top into view once it
// is mounted.
func (v *Viewer) GoToPage(ctx context.Context, n int) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if _, err := v.doc.Page(n); err != nil {
		v.mu.Unlock()
		return err
	}
	v.mu.Unlock()

	policy := v.policy(v.log.WithField("page", n))
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		if _, err := v.ensure(ctx, n); err != nil {
			return err
		}
		x, y, ok := v.container.PageOffset(n)
		if !ok {
			return fmt.Errorf("page %d not mounted", n)
		}
		v.container.ScrollTo(x, y, true)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		v.log.WithError(err).WithField("page", n).Debug("Page navigation abandoned")
	}
	return nil
}

// policy returns the retry policy with attempt logging
func (v *Viewer) policy(log logrus.FieldLogger) retry.Policy {
	p := v.opts.Retry
	user := p.OnRetry
	p.OnRetry = func(attempt int, err error) {
		log.WithFields(logrus.Fields{"attempt": attempt, "error": err}).Debug("Surface not ready, retrying")
		if user != nil {
			user(attempt, err)
		}
	}
	return p
}
