package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/calo.monitor/internal/grid"
	"github.com/banshee-data/calo.monitor/internal/qc"
)

// viridisColors is the color ramp used for all value-mapped charts.
var viridisColors = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// WriteHTML renders every artifact into a single self-contained HTML page at
// path: 2D grids as value-colored scatter maps, 1D distributions as bar
// charts, joint distributions as colored scatter maps over the bin centers.
func WriteHTML(path string, artifacts []qc.Artifact) error {
	page := components.NewPage()
	if len(artifacts) > 0 {
		page.PageTitle = fmt.Sprintf("QC report %s", artifacts[0].ActivityID)
	}

	for _, a := range artifacts {
		switch a.Kind {
		case qc.KindGrid2D:
			page.AddCharts(gridChart(a.Grid))
		case qc.KindHist1D:
			page.AddCharts(histChart(a.Hist))
		case qc.KindHist2D:
			page.AddCharts(jointChart(a.Joint))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// gridChart draws a Grid2D as a (col, row) scatter colored by cell value.
// Zero cells are omitted so empty regions stay blank, matching how sparse
// occupancy maps are usually inspected.
func gridChart(g *grid.Grid2D) *charts.Scatter {
	data := make([]opts.ScatterData, 0, g.Rows*g.Cols)
	maxVal := 0.0
	minVal := 0.0
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			v := g.At(row, col)
			if v == 0 {
				continue
			}
			if v > maxVal {
				maxVal = v
			}
			if v < minVal {
				minVal = v
			}
			data = append(data, opts.ScatterData{Value: []interface{}{col, row, v}})
		}
	}
	if g.DisplayMin != nil {
		minVal = *g.DisplayMin
	}
	if g.DisplayMax != nil {
		maxVal = *g.DisplayMax
	}
	if maxVal <= minVal {
		maxVal = minVal + 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: g.Name, Subtitle: g.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: g.Cols, Name: g.YLabel}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: g.Rows, Name: g.XLabel}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minVal),
			Max:        float32(maxVal),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	scatter.AddSeries(g.Name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

// histChart draws a Hist1D as a bar chart over its bin centers.
func histChart(h *grid.Hist1D) *charts.Bar {
	x := make([]string, h.Bins)
	y := make([]opts.BarData, h.Bins)
	for b := 0; b < h.Bins; b++ {
		x[b] = fmt.Sprintf("%g", h.BinCenter(b))
		y[b] = opts.BarData{Value: h.Count(b)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: h.Name, Subtitle: h.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: h.XLabel}),
	)
	bar.SetXAxis(x).AddSeries(h.Name, y)
	return bar
}

// jointChart draws a Hist2D as a scatter of occupied bin centers colored by
// count.
func jointChart(h *grid.Hist2D) *charts.Scatter {
	xw := (h.XMax - h.XMin) / float64(h.XBins)
	yw := (h.YMax - h.YMin) / float64(h.YBins)

	data := make([]opts.ScatterData, 0, h.XBins*h.YBins)
	maxCount := 0.0
	for bx := 0; bx < h.XBins; bx++ {
		for by := 0; by < h.YBins; by++ {
			c := h.Count(bx, by)
			if c == 0 {
				continue
			}
			if c > maxCount {
				maxCount = c
			}
			x := h.XMin + (float64(bx)+0.5)*xw
			y := h.YMin + (float64(by)+0.5)*yw
			data = append(data, opts.ScatterData{Value: []interface{}{x, y, c}})
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: h.Name, Subtitle: h.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: h.XMin, Max: h.XMax, Name: h.XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Min: h.YMin, Max: h.YMax, Name: h.YLabel}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisColors},
		}),
	)
	scatter.AddSeries(h.Name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}
