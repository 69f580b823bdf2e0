package render

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/vjranagit/touchdown/pkg/types"
)

var (
	traceRGB = []int{0x1f, 0x77, 0xb4}
	gridRGB  = []int{0xe0, 0xe0, 0xe0}
	axisRGB  = []int{0x40, 0x40, 0x40}
)

// page geometry, in mm (A4 landscape)
const (
	pageW, pageH = 297.0, 210.0
	pageMargin   = 10.0
	titleBand    = 10.0

	// space inside a cell reserved around the plot area
	padLeft, padRight, padTop, padBottom = 18.0, 4.0, 7.0, 12.0
)

// PDF renders panels onto a single landscape page
type PDF struct {
	Layout
}

// NewPDF creates a PDF sink
func NewPDF(layout Layout) *PDF {
	return &PDF{Layout: layout}
}

// Render implements Sink
func (p *PDF) Render(w io.Writer, series []types.Series) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	top := pageMargin
	if p.Title != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetXY(pageMargin, pageMargin)
		pdf.CellFormat(pageW-2*pageMargin, titleBand-2, p.Title, "", 0, "C", false, 0, "")
		top += titleBand
	}

	n := len(series)
	if n > 0 {
		cols, rows := p.columns(n), p.rows(n)
		cellW := (pageW - 2*pageMargin) / float64(cols)
		cellH := (pageH - top - pageMargin) / float64(rows)

		for i, s := range series {
			u := pageMargin + float64(i%cols)*cellW
			v := top + float64(i/cols)*cellH
			g := &plotGrid{
				Fpdf:    pdf,
				OffsetU: u + padLeft,
				OffsetV: v + padTop,
				W:       cellW - padLeft - padRight,
				H:       cellH - padTop - padBottom,
			}
			g.drawPanel(s, p.xTicks())
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to lay out pdf: %w", err)
	}
	return pdf.Output(w)
}

// Save renders to a file at path
func (p *PDF) Save(path string, series []types.Series) error {
	return saveWith(p, path, series)
}

func saveWith(sink Sink, path string, series []types.Series) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := sink.Render(file, series); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// plotGrid maps data coordinates onto a rectangle of the page
type plotGrid struct {
	*gofpdf.Fpdf

	OffsetU, OffsetV float64 // top-left of the plot area, in page coords
	W, H             float64
	bounds
}

func (g *plotGrid) U(x float64) float64 {
	return g.OffsetU + (x-g.MinX)/(g.MaxX-g.MinX)*g.W
}

func (g *plotGrid) V(y float64) float64 {
	return g.OffsetV + g.H - (y-g.MinY)/(g.MaxY-g.MinY)*g.H
}

func (g *plotGrid) setDrawColor(rgb []int) {
	g.SetDrawColor(rgb[0], rgb[1], rgb[2])
}

func (g *plotGrid) drawPanel(s types.Series, xTicks int) {
	xs, ys := s.XY()
	g.bounds = extent(xs, ys)

	// title
	g.SetFont("Arial", "B", 8)
	g.SetTextColor(0, 0, 0)
	g.SetXY(g.OffsetU, g.OffsetV-6)
	g.CellFormat(g.W, 5, s.Label, "", 0, "C", false, 0, "")

	g.drawGridlines(xTicks)
	g.drawTrace(s.Points)

	// frame
	g.SetLineWidth(0.2)
	g.setDrawColor(axisRGB)
	g.Rect(g.OffsetU, g.OffsetV, g.W, g.H, "D")

	// axis labels
	g.SetFont("Arial", "", 7)
	g.SetXY(g.OffsetU, g.OffsetV+g.H+6)
	g.CellFormat(g.W, 4, XAxisLabel, "", 0, "C", false, 0, "")

	g.TransformBegin()
	g.TransformRotate(90, g.OffsetU-15, g.OffsetV+g.H)
	g.SetXY(g.OffsetU-15, g.OffsetV+g.H)
	g.CellFormat(g.H, 4, s.Label, "", 0, "C", false, 0, "")
	g.TransformEnd()
}

func (g *plotGrid) drawGridlines(xTicks int) {
	g.SetFont("Arial", "", 6)
	g.SetTextColor(axisRGB[0], axisRGB[1], axisRGB[2])
	g.SetLineWidth(0.05)
	g.setDrawColor(gridRGB)

	for _, x := range niceTicks(g.MinX, g.MaxX, xTicks) {
		if x < g.MinX || x > g.MaxX {
			continue
		}
		u := g.U(x)
		g.Line(u, g.OffsetV, u, g.OffsetV+g.H)
		label := tickLabel(x)
		g.Text(u-g.GetStringWidth(label)/2, g.OffsetV+g.H+3, label)
	}

	for _, y := range niceTicks(g.MinY, g.MaxY, 4) {
		if y < g.MinY || y > g.MaxY {
			continue
		}
		v := g.V(y)
		g.Line(g.OffsetU, v, g.OffsetU+g.W, v)
		label := tickLabel(y)
		g.Text(g.OffsetU-g.GetStringWidth(label)-1, v+1, label)
	}
}

// drawTrace draws the series as a polyline, breaking it at missing readings
func (g *plotGrid) drawTrace(points []types.Point) {
	g.SetLineWidth(0.25)
	g.setDrawColor(traceRGB)

	penDown := false
	for _, p := range points {
		y, ok := p.Value.Float()
		if !ok {
			if penDown {
				g.DrawPath("D")
			}
			penDown = false
			continue
		}
		if penDown {
			g.LineTo(g.U(p.Elapsed), g.V(y))
		} else {
			g.MoveTo(g.U(p.Elapsed), g.V(y))
			penDown = true
		}
	}
	if penDown {
		g.DrawPath("D")
	}
}

func tickLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
