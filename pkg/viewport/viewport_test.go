package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrhighlight/pkg/geometry"
)

func letterLayout() *Layout {
	l := NewLayout(800, 600, 10)
	l.SetPage(1, 612, 792)
	l.SetPage(2, 612, 792)
	return l
}

func TestLayoutGeometry(t *testing.T) {
	l := letterLayout()

	w, h := l.ContentSize()
	assert.Equal(t, 612.0, w)
	assert.Equal(t, 1594.0, h)

	x, y, ok := l.PageOffset(2)
	require.True(t, ok)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 802.0, y)

	_, _, ok = l.PageOffset(3)
	assert.False(t, ok)
}

func TestLayoutCentresNarrowPages(t *testing.T) {
	l := NewLayout(800, 600, 0)
	l.SetPage(1, 1200, 900)
	l.SetPage(2, 612, 792)

	x, y, ok := l.PageOffset(2)
	require.True(t, ok)
	assert.Equal(t, 294.0, x)
	assert.Equal(t, 900.0, y)
}

func TestCenter(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		rect  geometry.Rect
		wantX float64
		wantY float64
	}{
		{name: "middle of page two", page: 2, rect: geometry.Rect{X1: 100, Y1: 400, X2: 200, Y2: 420}, wantY: 912},
		{name: "clamped at top", page: 1, rect: geometry.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, wantY: 0},
		{name: "clamped at bottom", page: 2, rect: geometry.Rect{X1: 0, Y1: 780, X2: 10, Y2: 790}, wantY: 994},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := letterLayout()
			s := NewScroller(l, nil)

			x, y, err := s.Center(tt.page, tt.rect)
			require.NoError(t, err)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)

			sx, sy, smooth := l.Scroll()
			assert.Equal(t, x, sx)
			assert.Equal(t, y, sy)
			assert.True(t, smooth)
		})
	}
}

func TestCenterHorizontally(t *testing.T) {
	l := NewLayout(400, 300, 0)
	l.SetPage(1, 1000, 1000)
	s := NewScroller(l, nil)
	s.SetSmooth(false)

	x, y, err := s.Center(1, geometry.Rect{X1: 500, Y1: 500, X2: 600, Y2: 600})
	require.NoError(t, err)
	assert.Equal(t, 350.0, x)
	assert.Equal(t, 400.0, y)

	_, _, smooth := l.Scroll()
	assert.False(t, smooth)
}

func TestCenterNotMounted(t *testing.T) {
	l := letterLayout()
	l.Unmount(2)
	s := NewScroller(l, nil)

	_, _, err := s.Center(2, geometry.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10})
	assert.ErrorIs(t, err, ErrNotMounted)

	l.SetPage(2, 612, 792)
	_, _, err = s.Center(2, geometry.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10})
	assert.NoError(t, err)

	l.Resize(0, 0)
	_, _, err = s.Center(2, geometry.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10})
	assert.ErrorIs(t, err, ErrNotMounted)

	_, _, err = NewScroller(nil, nil).Center(1, geometry.Rect{})
	assert.ErrorIs(t, err, ErrNotMounted)
}
