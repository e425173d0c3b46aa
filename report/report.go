// Package report renders PNG summaries of how much concept supervision a
// dataset still exposes.
package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/kand/concepts"
)

var (
	colorSlotColor = color.RGBA{R: 200, G: 30, B: 30, A: 220}
	shapeSlotColor = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	rowLineColor   = color.RGBA{R: 40, G: 120, B: 40, A: 220}
)

// SlotLabels names the Figures*Slots bars of a coverage chart, e.g. "f1 c2"
// for the third color slot of figure 1 and "f1 s0" for its first shape slot.
func SlotLabels() []string {
	out := make([]string, 0, concepts.Figures*concepts.Slots)
	for f := range concepts.Figures {
		for s := range concepts.Slots {
			kind, j := "c", s
			if s >= concepts.ObjectsPerFigure {
				kind, j = "s", s-concepts.ObjectsPerFigure
			}
			out = append(out, fmt.Sprintf("f%d %s%d", f, kind, j))
		}
	}
	return out
}

// fileName turns a title into a file-system friendly stem.
func fileName(prefix, title string) string {
	r := strings.NewReplacer("/", "_", " ", "_", "@", "_", "(", "", ")", "", "=", "")
	return fmt.Sprintf("%s_%s.png", prefix, r.Replace(title))
}

// CoverageChart writes a bar chart of the withheld fraction of every
// (figure, slot) pair and returns the written path. Color slots are drawn in
// red, shape slots in blue.
func CoverageChart(outDir, title string, cov concepts.Coverage) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Withheld supervision: %s (%d rows)", title, cov.Rows)
	p.Y.Label.Text = "withheld fraction"
	p.Y.Min = 0
	p.Y.Max = 1

	width := vg.Points(12)
	for f := range concepts.Figures {
		for _, group := range []struct {
			first int
			fill  color.Color
			name  string
		}{
			{0, colorSlotColor, "color"},
			{concepts.ObjectsPerFigure, shapeSlotColor, "shape"},
		} {
			vals := make(plotter.Values, concepts.ObjectsPerFigure)
			for j := range concepts.ObjectsPerFigure {
				vals[j] = cov.Fraction(f, group.first+j)
			}
			bars, err := plotter.NewBarChart(vals, width)
			if err != nil {
				return "", err
			}
			bars.XMin = float64(f*concepts.Slots + group.first)
			bars.Color = group.fill
			bars.LineStyle.Width = vg.Length(0)
			p.Add(bars)
			if f == 0 {
				p.Legend.Add(group.name, bars)
			}
		}
	}
	p.Legend.Top = true
	p.NominalX(SlotLabels()...)
	p.Add(plotter.NewGrid())

	if err := ensureDir(outDir); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, fileName("coverage", title))
	if err := p.Save(10*vg.Inch, 5*vg.Inch, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// RowProfile returns, per row, the fraction of entries that are withheld.
func RowProfile(rows []concepts.Block) plotter.XYs {
	xys := make(plotter.XYs, len(rows))
	total := float64(concepts.Figures * concepts.Slots)
	for i, b := range rows {
		n := 0
		for f := range concepts.Figures {
			for s := range concepts.Slots {
				if b[f][s] == concepts.Withheld {
					n++
				}
			}
		}
		xys[i] = plotter.XY{X: float64(i), Y: float64(n) / total}
	}
	return xys
}

// RowChart writes a line plot of the withheld fraction by row index, which
// shows the retained finetuning prefix, and returns the written path.
func RowChart(outDir, title string, rows []concepts.Block) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Withheld supervision by row: %s", title)
	p.X.Label.Text = "row"
	p.Y.Label.Text = "withheld fraction"
	p.Y.Min = 0
	p.Y.Max = 1
	p.X.Min = 0
	p.X.Max = float64(max(len(rows)-1, 1))

	if len(rows) > 0 {
		line, err := plotter.NewLine(RowProfile(rows))
		if err != nil {
			return "", err
		}
		line.Color = rowLineColor
		line.Width = vg.Points(0.8)
		p.Add(line)
	}
	p.Add(plotter.NewGrid())

	if err := ensureDir(outDir); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, fileName("rows", title))
	if err := p.Save(8*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
