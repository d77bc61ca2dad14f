package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrhighlight/pkg/geometry"
	"github.com/gardar/ocrhighlight/pkg/highlight"
	"github.com/gardar/ocrhighlight/pkg/retry"
	"github.com/gardar/ocrhighlight/pkg/surface"
)

var (
	errSurfaceNotReady = errors.New("surface not ready")
	errNothingToDraw   = errors.New("no highlight maps onto its page")
)

// Search resolves target against the OCR index, crossfades the overlays to
// the new highlight set and scrolls the first highlight into the middle of
// the viewport. A new Search, SetZoom or Close cancels the draw and scroll
// retries of the previous one. No match clears the overlays and returns an
// empty set. Surfaces that never become ready are given up on silently.
func (v *Viewer) Search(ctx context.Context, target string) ([]geometry.ResolvedHighlight, error) {
	return v.SearchValue(ctx, target, "")
}

// SearchValue is Search with the value part of a "Key: Value" target
// supplied explicitly.
func (v *Viewer) SearchValue(ctx context.Context, target, value string) ([]geometry.ResolvedHighlight, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	op := v.beginOp(ctx)
	v.mu.Unlock()

	log := v.log.WithFields(logrus.Fields{
		"search_id": uuid.NewString(),
		"target":    target,
	})

	cands := v.resolver.Locate(v.index, target, value)
	hs := v.resolver.Highlights(cands)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrClosed
	}
	if op.Err() != nil {
		v.mu.Unlock()
		log.Debug("Search superseded before drawing")
		return hs, nil
	}
	v.active = hs
	v.mu.Unlock()

	if len(hs) == 0 {
		v.renderer.Clear()
		log.Info("No match")
		return nil, nil
	}

	first := hs[0]
	log.WithFields(logrus.Fields{
		"page":  first.PageNumber,
		"score": first.Score,
		"text":  first.Text,
	}).Info("Match resolved")

	v.present(op, hs, true, log)

	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return hs, ErrClosed
	}
	return hs, nil
}

// present maps the highlights onto their surfaces, draws them and scrolls
// to the first one, retrying each step while surfaces are not ready.
func (v *Viewer) present(ctx context.Context, hs []geometry.ResolvedHighlight, crossfade bool, log logrus.FieldLogger) {
	policy := v.policy(log)

	var boxes []highlight.Box
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		v.mu.Lock()
		zoom := v.zoom
		v.mu.Unlock()

		b, err := v.boxes(ctx, hs)
		if err != nil {
			return err
		}
		if crossfade {
			err = v.renderer.Show(b)
		} else {
			err = v.renderer.Replace(b)
		}
		if err != nil {
			return err
		}
		boxes = b

		v.mu.Lock()
		if v.zoom == zoom {
			v.boxZoom = zoom
		}
		v.mu.Unlock()
		return nil
	})
	if err != nil {
		log.WithError(err).Debug("Highlight draw abandoned")
		return
	}

	target := boxes[0]
	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		v.mu.Lock()
		closed := v.closed
		v.mu.Unlock()
		if closed {
			return retry.Permanent(ErrClosed)
		}
		_, _, err := v.scroller.Center(target.Page, target.Rect)
		return err
	})
	if err != nil {
		log.WithError(err).Debug("Scroll abandoned")
	}
}

// boxes maps every highlight to overlay pixels. Highlights that clamp to
// nothing are skipped; a set where every highlight is skipped is not retried.
func (v *Viewer) boxes(ctx context.Context, hs []geometry.ResolvedHighlight) ([]highlight.Box, error) {
	var out []highlight.Box
	for _, h := range hs {
		s, err := v.ensure(ctx, h.PageNumber)
		if err != nil {
			return nil, err
		}
		if !s.Ready() {
			return nil, fmt.Errorf("page %d: %w", h.PageNumber, errSurfaceNotReady)
		}
		r, ok := surface.Map(h, s)
		if !ok {
			continue
		}
		out = append(out, highlight.Box{Page: h.PageNumber, Rect: r})
	}
	if len(out) == 0 {
		return nil, retry.Permanent(errNothingToDraw)
	}
	return out, nil
}
