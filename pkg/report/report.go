// Package report renders a landing summary as text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vjranagit/touchdown/pkg/landing"
	"github.com/vjranagit/touchdown/pkg/render"
	"github.com/vjranagit/touchdown/pkg/storage"
)

// Lines returns the summary as human-readable sentences, one value per line,
// rounded to one decimal place.
func Lines(sum *landing.Summary) []string {
	return []string{
		line("Average airspeed while the aircraft was in the air", sum.AverageSpeed),
		line("Pitch angle at touchdown", sum.Pitch),
		line("Distance traveled on runway after touchdown", sum.Rollout),
		line("Min sampling rate", sum.MinSamplingRate),
		line("Max sampling rate", sum.MaxSamplingRate),
	}
}

func line(text string, m landing.Metric) string {
	if !m.Available() {
		return fmt.Sprintf("%s: unavailable (%v)", text, m.Err)
	}
	return fmt.Sprintf("%s: %.1f %s", text, m.Value, m.Unit)
}

// Write prints Lines to w
func Write(w io.Writer, sum *landing.Summary) error {
	_, err := io.WriteString(w, strings.Join(Lines(sum), "\n")+"\n")
	return err
}

// WriteTable prints every metric of the summary as a table
func WriteTable(w io.Writer, sum *landing.Summary, style string) {
	tw := newTable(w, style)
	tw.AppendHeader(table.Row{"METRIC", "VALUE", "UNIT"})
	for _, m := range sum.Metrics() {
		if m.Available() {
			tw.AppendRow(table.Row{m.Name, fmt.Sprintf("%.1f", m.Value), m.Unit})
		} else {
			tw.AppendRow(table.Row{m.Name, "unavailable", m.Unit})
		}
	}
	tw.Render()
}

// WriteSignals prints an inventory of the signals held by a store
func WriteSignals(w io.Writer, s *storage.Store, style string) {
	tw := newTable(w, style)
	tw.AppendHeader(table.Row{"SIGNAL", "LABEL", "SAMPLES", "MISSING", "FIRST (s)", "LAST (s)", "ORDERED"})
	for _, signal := range s.Signals() {
		pts := s.FilterByID(signal)
		missing := 0
		for _, p := range pts {
			if p.Value.IsMissing() {
				missing++
			}
		}
		tw.AppendRow(table.Row{
			signal,
			render.Label(signal),
			len(pts),
			missing,
			fmt.Sprintf("%.3f", pts[0].Elapsed),
			fmt.Sprintf("%.3f", pts[len(pts)-1].Elapsed),
			s.Ascending(signal),
		})
	}
	tw.Render()
}

func newTable(w io.Writer, style string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	st := table.StyleDefault
	switch style {
	case "bold":
		st = table.StyleBold
	case "double":
		st = table.StyleDouble
	case "light":
		st = table.StyleLight
	case "round":
		st = table.StyleRounded
	}
	tw.SetStyle(st)
	return tw
}
