package highlight

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrhighlight/pkg/geometry"
)

// ErrOverlayNotReady is returned when a page of the set has no drawable overlay
var ErrOverlayNotReady = errors.New("overlay not ready")

// Phase is the renderer state
type Phase int

const (
	PhaseNone Phase = iota
	PhaseFadingIn
	PhaseSteady
)

func (p Phase) String() string {
	switch p {
	case PhaseFadingIn:
		return "fadingIn"
	case PhaseSteady:
		return "steady"
	}
	return "none"
}

// Box is a highlight rectangle in overlay pixels on one page
type Box struct {
	Page int
	Rect geometry.Rect
}

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options configures a Renderer
type Options struct {
	Color           string        // Hex fill colour
	FadeInOpacity   float64       // New set, first frame
	PreviousOpacity float64       // Previous set, first frame
	FadingOpacity   float64       // Previous set, second frame
	SteadyOpacity   float64       // New set from the second frame on
	FadeDelay       time.Duration // First frame to second frame
	SettleDelay     time.Duration // First frame to discarding the previous set
	Scheduler       Scheduler
	Logger          logrus.FieldLogger
}

// DefaultOptions returns the standard crossfade timings
func DefaultOptions() Options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return Options{
		Color:           "#ffd400",
		FadeInOpacity:   0.40,
		PreviousOpacity: 0.30,
		FadingOpacity:   0.15,
		SteadyOpacity:   0.80,
		FadeDelay:       50 * time.Millisecond,
		SettleDelay:     300 * time.Millisecond,
		Scheduler:       clock{},
		Logger:          logger,
	}
}

// Renderer owns the highlight state of a set of page overlays
type Renderer struct {
	mu       sync.Mutex
	opts     Options
	color    colorful.Color
	overlays map[int]Overlay

	phase           Phase
	current         []Box
	previous        []Box
	currentOpacity  float64
	previousOpacity float64

	generation int
	timers     []Timer
}

// NewRenderer creates a renderer with no overlays attached. Zero options
// take their DefaultOptions value.
func NewRenderer(opts Options) (*Renderer, error) {
	def := DefaultOptions()
	if opts.Scheduler == nil {
		opts.Scheduler = def.Scheduler
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if opts.Color == "" {
		opts.Color = def.Color
	}
	for _, f := range []struct{ v, d *float64 }{
		{&opts.FadeInOpacity, &def.FadeInOpacity},
		{&opts.PreviousOpacity, &def.PreviousOpacity},
		{&opts.FadingOpacity, &def.FadingOpacity},
		{&opts.SteadyOpacity, &def.SteadyOpacity},
	} {
		if *f.v <= 0 {
			*f.v = *f.d
		}
	}
	if opts.FadeDelay <= 0 {
		opts.FadeDelay = def.FadeDelay
	}
	if opts.SettleDelay <= opts.FadeDelay {
		opts.SettleDelay = def.SettleDelay
	}

	col, err := colorful.Hex(opts.Color)
	if err != nil {
		return nil, fmt.Errorf("invalid highlight colour %q: %w", opts.Color, err)
	}

	return &Renderer{
		opts:     opts,
		color:    col,
		overlays: make(map[int]Overlay),
	}, nil
}

// Attach sets the overlay of a page, replacing any previous one
func (r *Renderer) Attach(page int, o Overlay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays[page] = o
}

// Detach removes the overlay of a page
func (r *Renderer) Detach(page int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overlays, page)
}

// Phase returns the current state
func (r *Renderer) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Current returns the boxes of the active set
func (r *Renderer) Current() []Box {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Box(nil), r.current...)
}

// Show crossfades from the displayed set to boxes. An empty set clears the
// overlays. It returns ErrOverlayNotReady without changing state when a page
// of the set has no ready overlay, so the caller can retry.
func (r *Renderer) Show(boxes []Box) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(boxes) == 0 {
		r.reset()
		r.drawLocked()
		return nil
	}
	if err := r.readyLocked(boxes); err != nil {
		return err
	}

	r.stopTimers()
	r.generation++
	gen := r.generation

	r.previous = r.current
	r.current = append([]Box(nil), boxes...)
	r.phase = PhaseFadingIn
	r.currentOpacity = r.opts.FadeInOpacity
	r.previousOpacity = r.opts.PreviousOpacity
	r.drawLocked()

	r.opts.Logger.WithFields(logrus.Fields{
		"boxes":    len(boxes),
		"previous": len(r.previous),
	}).Debug("Highlight fade in")

	r.timers = append(r.timers,
		r.opts.Scheduler.AfterFunc(r.opts.FadeDelay, func() {
			r.step(gen, func() {
				r.previousOpacity = r.opts.FadingOpacity
				r.currentOpacity = r.opts.SteadyOpacity
			})
		}),
		r.opts.Scheduler.AfterFunc(r.opts.SettleDelay, func() {
			r.step(gen, func() {
				r.previous = nil
				r.phase = PhaseSteady
				r.currentOpacity = r.opts.SteadyOpacity
			})
		}),
	)
	return nil
}

// Replace swaps the displayed set without a crossfade. The viewer uses it
// to redraw the same match after a zoom change.
func (r *Renderer) Replace(boxes []Box) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(boxes) == 0 {
		r.reset()
		r.drawLocked()
		return nil
	}
	if err := r.readyLocked(boxes); err != nil {
		return err
	}

	r.stopTimers()
	r.generation++
	r.previous = nil
	r.current = append([]Box(nil), boxes...)
	r.phase = PhaseSteady
	r.currentOpacity = r.opts.SteadyOpacity
	r.drawLocked()
	return nil
}

// Settle ends a running crossfade at once: the previous set is dropped and
// the current set is painted at steady opacity.
func (r *Renderer) Settle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseFadingIn {
		return
	}
	r.stopTimers()
	r.generation++
	r.previous = nil
	r.phase = PhaseSteady
	r.currentOpacity = r.opts.SteadyOpacity
	r.drawLocked()
}

// Redraw repaints the current state, for example after an overlay was
// attached again.
func (r *Renderer) Redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawLocked()
}

// Cancel stops pending fade timers. The overlays keep their last frame.
func (r *Renderer) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimers()
	r.generation++
}

// Clear cancels timers, forgets both sets and clears the overlays
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
	r.drawLocked()
}

func (r *Renderer) step(gen int, apply func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// superseded by a newer Show, Replace or Cancel
	if gen != r.generation {
		return
	}
	apply()
	r.drawLocked()
}

func (r *Renderer) reset() {
	r.stopTimers()
	r.generation++
	r.current = nil
	r.previous = nil
	r.phase = PhaseNone
}

func (r *Renderer) stopTimers() {
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
}

func (r *Renderer) readyLocked(boxes []Box) error {
	for _, b := range boxes {
		o, ok := r.overlays[b.Page]
		if !ok || o == nil {
			return fmt.Errorf("page %d: %w", b.Page, ErrOverlayNotReady)
		}
		if _, _, ready := o.Size(); !ready {
			return fmt.Errorf("page %d: %w", b.Page, ErrOverlayNotReady)
		}
	}
	return nil
}

// drawLocked clears every attached overlay and paints the previous set
// under the current one.
func (r *Renderer) drawLocked() {
	pages := make([]int, 0, len(r.overlays))
	for p := range r.overlays {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	for _, p := range pages {
		o := r.overlays[p]
		if o == nil {
			continue
		}
		if _, _, ready := o.Size(); !ready {
			continue
		}
		o.Clear()
		r.paint(o, p, r.previous, r.previousOpacity)
		r.paint(o, p, r.current, r.currentOpacity)
	}
}

func (r *Renderer) paint(o Overlay, page int, boxes []Box, opacity float64) {
	for _, b := range boxes {
		if b.Page == page && !b.Rect.Empty() {
			o.FillRect(b.Rect, r.color, opacity)
		}
	}
}
