// Package render draws signal series as a grid of time-series panels.
package render

import (
	"io"
	"math"

	"github.com/vjranagit/touchdown/pkg/storage"
	"github.com/vjranagit/touchdown/pkg/types"
)

// Default layout
const (
	DefaultColumns = 3
	DefaultXTicks  = 5
)

// Sink consumes labelled series and draws them somewhere
type Sink interface {
	Render(w io.Writer, series []types.Series) error
}

// Layout controls the panel grid shared by every sink
type Layout struct {
	Title   string
	Columns int // panels per row
	XTicks  int // approximate number of x-axis ticks per panel
}

func (l Layout) columns(n int) int {
	cols := l.Columns
	if cols <= 0 {
		cols = DefaultColumns
	}
	if n > 0 && n < cols {
		cols = n
	}
	return cols
}

func (l Layout) xTicks() int {
	if l.XTicks <= 0 {
		return DefaultXTicks
	}
	return l.XTicks
}

func (l Layout) rows(n int) int {
	if n == 0 {
		return 0
	}
	cols := l.columns(n)
	return (n + cols - 1) / cols
}

// Panels builds one labelled series per signal, in the order given
func Panels(s *storage.Store, signals []string) []types.Series {
	series := make([]types.Series, 0, len(signals))
	for _, signal := range signals {
		series = append(series, s.Series(signal, Label(signal)))
	}
	return series
}

// bounds is the data extent of a panel, padded so it never collapses
type bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

func extent(xs, ys []float64) bounds {
	b := bounds{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1)}
	for i := range xs {
		b.MinX = math.Min(b.MinX, xs[i])
		b.MaxX = math.Max(b.MaxX, xs[i])
		b.MinY = math.Min(b.MinY, ys[i])
		b.MaxY = math.Max(b.MaxY, ys[i])
	}
	if len(xs) == 0 {
		return bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}
	}
	b.MinX, b.MaxX = widen(b.MinX, b.MaxX)
	b.MinY, b.MaxY = widen(b.MinY, b.MaxY)
	return b
}

// widen opens a zero-width range around its value
func widen(lo, hi float64) (float64, float64) {
	if hi > lo {
		return lo, hi
	}
	pad := math.Abs(lo) * 0.05
	if pad == 0 {
		pad = 0.5
	}
	return lo - pad, hi + pad
}

// niceTicks returns at most n+1 evenly spaced round values covering [lo, hi]
func niceTicks(lo, hi float64, n int) []float64 {
	if n < 1 || hi <= lo {
		return []float64{lo}
	}

	raw := (hi - lo) / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag * 10
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*mag >= raw {
			step = m * mag
			break
		}
	}

	first := math.Ceil(lo/step) * step
	var ticks []float64
	for v := first; v <= hi+step*1e-9; v += step {
		// snap accumulated error so labels stay clean
		ticks = append(ticks, math.Round(v/step)*step)
	}
	return ticks
}
