package highlight

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/gardar/ocrhighlight/pkg/geometry"
)

// Overlay is a transparent surface highlights are drawn on
type Overlay interface {
	// Size returns the pixel size and whether the overlay can be drawn on
	Size() (int, int, bool)
	Clear()
	FillRect(r geometry.Rect, c colorful.Color, opacity float64)
}

// Canvas is an in-memory Overlay
type Canvas struct {
	mu    sync.Mutex
	img   *image.RGBA
	drawn int
}

// NewCanvas creates a transparent canvas
func NewCanvas(width, height int) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Size() (int, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.img.Bounds()
	return b.Dx(), b.Dy(), b.Dx() > 0 && b.Dy() > 0
}

func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	c.drawn = 0
}

func (c *Canvas) FillRect(r geometry.Rect, col colorful.Color, opacity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rr := image.Rect(
		int(math.Floor(r.X1)), int(math.Floor(r.Y1)),
		int(math.Ceil(r.X2)), int(math.Ceil(r.Y2)),
	).Intersect(c.img.Bounds())
	if rr.Empty() {
		return
	}

	rc, gc, bc := col.Clamped().RGB255()
	src := image.NewUniform(color.NRGBA{R: rc, G: gc, B: bc, A: alpha(opacity)})
	draw.Draw(c.img, rr, src, image.Point{}, draw.Over)
	c.drawn++
}

// Resize discards the pixels and sets a new size
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.drawn = 0
}

// Drawn returns the number of rectangles painted since the last clear
func (c *Canvas) Drawn() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawn
}

// At returns the overlay colour at a pixel
func (c *Canvas) At(x, y int) color.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img.RGBAAt(x, y)
}

// Composite draws the overlay over content and returns a new image. An
// overlay of a different size is scaled to the content bounds.
func (c *Canvas) Composite(content image.Image) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := content.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), content, b.Min, draw.Src)

	if c.img.Bounds().Size() == out.Bounds().Size() {
		draw.Draw(out, out.Bounds(), c.img, image.Point{}, draw.Over)
	} else {
		draw.ApproxBiLinear.Scale(out, out.Bounds(), c.img, c.img.Bounds(), draw.Over, nil)
	}
	return out
}

func alpha(opacity float64) uint8 {
	if opacity <= 0 {
		return 0
	}
	if opacity >= 1 {
		return 255
	}
	return uint8(math.Round(opacity * 255))
}
