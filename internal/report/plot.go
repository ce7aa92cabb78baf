package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/calo.monitor/internal/grid"
	"github.com/banshee-data/calo.monitor/internal/qc"
)

// gridXYZ adapts a Grid2D to the plotter heat-map interface, with columns on
// x and rows on y.
type gridXYZ struct {
	g *grid.Grid2D
}

func (d gridXYZ) Dims() (c, r int)   { return d.g.Cols, d.g.Rows }
func (d gridXYZ) Z(c, r int) float64 { return d.g.At(r, c) }
func (d gridXYZ) X(c int) float64    { return float64(c) }
func (d gridXYZ) Y(r int) float64    { return float64(r) }

// PlotGridPNG renders a Grid2D as a heat map PNG.
func PlotGridPNG(g *grid.Grid2D, path string) error {
	p := plot.New()
	p.Title.Text = g.Title
	p.X.Label.Text = g.YLabel
	p.Y.Label.Text = g.XLabel

	hm := plotter.NewHeatMap(gridXYZ{g}, palette.Heat(12, 1))
	if g.DisplayMin != nil {
		hm.Min = *g.DisplayMin
	}
	if g.DisplayMax != nil {
		hm.Max = *g.DisplayMax
	}
	p.Add(hm)

	if err := p.Save(10*vg.Inch, 7*vg.Inch, path); err != nil {
		return fmt.Errorf("save grid plot: %w", err)
	}
	return nil
}

// PlotHistPNG renders a Hist1D as a line over its bin centers.
func PlotHistPNG(h *grid.Hist1D, path string) error {
	p := plot.New()
	p.Title.Text = h.Title
	p.X.Label.Text = h.XLabel
	p.Y.Label.Text = "counts"

	pts := make(plotter.XYs, h.Bins)
	for b := 0; b < h.Bins; b++ {
		pts[b] = plotter.XY{X: h.BinCenter(b), Y: h.Count(b)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("hist line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save hist plot: %w", err)
	}
	return nil
}

// WritePlots renders a PNG per plottable artifact into dir, named after the
// artifact. Joint distributions are skipped; the HTML report covers them.
// Returns how many files were written.
func WritePlots(dir string, artifacts []qc.Artifact) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create plot dir: %w", err)
	}
	n := 0
	for _, a := range artifacts {
		var err error
		switch a.Kind {
		case qc.KindGrid2D:
			err = PlotGridPNG(a.Grid, filepath.Join(dir, a.Name()+".png"))
		case qc.KindHist1D:
			err = PlotHistPNG(a.Hist, filepath.Join(dir, a.Name()+".png"))
		default:
			continue
		}
		if err != nil {
			return n, fmt.Errorf("%s: %w", a.Name(), err)
		}
		n++
	}
	return n, nil
}
