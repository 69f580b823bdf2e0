package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vjranagit/touchdown/pkg/types"
)

// Default PNG panel size, in pixels
const (
	DefaultPanelWidth  = 480
	DefaultPanelHeight = 320
)

// PNG renders each panel as a chart and tiles them into one image
type PNG struct {
	Layout
	PanelWidth  int
	PanelHeight int
}

// NewPNG creates a PNG sink
func NewPNG(layout Layout) *PNG {
	return &PNG{
		Layout:      layout,
		PanelWidth:  DefaultPanelWidth,
		PanelHeight: DefaultPanelHeight,
	}
}

// Render implements Sink
func (p *PNG) Render(w io.Writer, series []types.Series) error {
	n := len(series)
	cols, rows := p.columns(n), p.rows(n)
	if n == 0 {
		cols, rows = 1, 1
	}

	canvas := image.NewRGBA(image.Rect(0, 0, cols*p.PanelWidth, rows*p.PanelHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i, s := range series {
		panel, err := p.panel(s)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", s.Signal, err)
		}
		at := image.Pt((i%cols)*p.PanelWidth, (i/cols)*p.PanelHeight)
		draw.Draw(canvas, panel.Bounds().Add(at), panel, panel.Bounds().Min, draw.Src)
	}

	return png.Encode(w, canvas)
}

// Save renders to a file at path
func (p *PNG) Save(path string, series []types.Series) error {
	return saveWith(p, path, series)
}

// panel renders one series with go-chart
func (p *PNG) panel(s types.Series) (image.Image, error) {
	xs, ys := s.XY()
	b := extent(xs, ys)

	ticks := make([]chart.Tick, 0, p.xTicks()+1)
	for _, x := range niceTicks(b.MinX, b.MaxX, p.xTicks()) {
		if x >= b.MinX && x <= b.MaxX {
			ticks = append(ticks, chart.Tick{Value: x, Label: tickLabel(x)})
		}
	}

	graph := chart.Chart{
		Title:  s.Label,
		Width:  p.PanelWidth,
		Height: p.PanelHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 36, Left: 12, Right: 12, Bottom: 8},
		},
		XAxis: chart.XAxis{
			Name:  XAxisLabel,
			Range: &chart.ContinuousRange{Min: b.MinX, Max: b.MaxX},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  s.Label,
			Range: &chart.ContinuousRange{Min: b.MinY, Max: b.MaxY},
		},
	}

	// go-chart needs at least one series; an empty panel keeps only its axes
	if len(xs) == 0 {
		xs, ys = []float64{b.MinX}, []float64{b.MinY}
	}
	graph.Series = []chart.Series{
		chart.ContinuousSeries{
			Name:    s.Signal,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: drawing.Color{R: 0x1f, G: 0x77, B: 0xb4, A: 255},
				StrokeWidth: 1.5,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}
