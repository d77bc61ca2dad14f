// Package viewport scrolls a container so a highlight sits in the middle of
// the visible area.
package viewport

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrhighlight/pkg/geometry"
)

// ErrNotMounted is returned when the target page has not been laid out yet
var ErrNotMounted = errors.New("page not mounted")

// Container is a scrollable region holding rendered pages
type Container interface {
	ViewportSize() (float64, float64)
	ContentSize() (float64, float64)
	// PageOffset returns the top left corner of a page in content space
	PageOffset(page int) (float64, float64, bool)
	ScrollTo(x, y float64, smooth bool)
}

// Scroller centres highlights in a Container
type Scroller struct {
	container Container
	smooth    bool
	logger    logrus.FieldLogger
}

// NewScroller creates a scroller using smooth scrolling. A nil logger
// discards output.
func NewScroller(c Container, logger logrus.FieldLogger) *Scroller {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Scroller{container: c, smooth: true, logger: logger}
}

// SetSmooth toggles smooth scrolling
func (s *Scroller) SetSmooth(smooth bool) {
	s.smooth = smooth
}

// Center scrolls so the centre of r, given in the page's pixel space, is in
// the middle of the viewport. The scroll position is clamped to the content.
// It returns the position scrolled to.
func (s *Scroller) Center(page int, r geometry.Rect) (float64, float64, error) {
	if s.container == nil {
		return 0, 0, ErrNotMounted
	}
	ox, oy, ok := s.container.PageOffset(page)
	if !ok {
		return 0, 0, fmt.Errorf("page %d: %w", page, ErrNotMounted)
	}

	vw, vh := s.container.ViewportSize()
	cw, ch := s.container.ContentSize()
	if vw <= 0 || vh <= 0 {
		return 0, 0, fmt.Errorf("page %d: empty viewport: %w", page, ErrNotMounted)
	}

	cx, cy := r.Center()
	x := clamp(ox+cx-vw/2, 0, math.Max(0, cw-vw))
	y := clamp(oy+cy-vh/2, 0, math.Max(0, ch-vh))

	s.container.ScrollTo(x, y, s.smooth)
	s.logger.WithFields(logrus.Fields{
		"page": page,
		"x":    x,
		"y":    y,
	}).Debug("Scrolled to highlight")
	return x, y, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Layout is an in-memory Container stacking pages vertically, each centred
// horizontally, separated by a fixed gap.
type Layout struct {
	mu       sync.Mutex
	gap      float64
	width    float64
	height   float64
	pages    map[int]slot
	scrollX  float64
	scrollY  float64
	smoothed bool
}

type slot struct {
	w, h    float64
	mounted bool
}

// NewLayout creates an empty layout with the given viewport size
func NewLayout(viewportWidth, viewportHeight, gap float64) *Layout {
	return &Layout{
		gap:    gap,
		width:  viewportWidth,
		height: viewportHeight,
		pages:  make(map[int]slot),
	}
}

// SetPage records a page size and marks it mounted. Pages without a size
// still take no space.
func (l *Layout) SetPage(page int, w, h float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pages[page] = slot{w: w, h: h, mounted: true}
}

// Unmount keeps a page's size but marks it not yet rendered
func (l *Layout) Unmount(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.pages[page]; ok {
		s.mounted = false
		l.pages[page] = s
	}
}

// Resize changes the viewport size
func (l *Layout) Resize(w, h float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.width, l.height = w, h
}

func (l *Layout) ViewportSize() (float64, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.width, l.height
}

func (l *Layout) ContentSize() (float64, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.contentLocked()
}

func (l *Layout) contentLocked() (float64, float64) {
	var w, h float64
	n := 0
	for _, p := range l.order() {
		s := l.pages[p]
		w = math.Max(w, s.w)
		h += s.h
		n++
	}
	if n > 1 {
		h += l.gap * float64(n-1)
	}
	return w, h
}

func (l *Layout) PageOffset(page int) (float64, float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	target, ok := l.pages[page]
	if !ok || !target.mounted {
		return 0, 0, false
	}

	cw, _ := l.contentLocked()
	var y float64
	for _, p := range l.order() {
		if p == page {
			break
		}
		y += l.pages[p].h + l.gap
	}
	return (cw - target.w) / 2, y, true
}

func (l *Layout) ScrollTo(x, y float64, smooth bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scrollX, l.scrollY, l.smoothed = x, y, smooth
}

// Scroll returns the last scroll position and whether it was smooth
func (l *Layout) Scroll() (float64, float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scrollX, l.scrollY, l.smoothed
}

// order returns page numbers ascending
func (l *Layout) order() []int {
	last := 0
	for p := range l.pages {
		if p > last {
			last = p
		}
	}
	out := make([]int, 0, len(l.pages))
	for p := 1; p <= last; p++ {
		if _, ok := l.pages[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
