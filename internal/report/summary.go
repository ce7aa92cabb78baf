// Package report renders a finished monitoring session's published
// accumulators into human-readable form: an HTML page of interactive charts,
// optional PNG plots, and numeric per-artifact summaries.
package report

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/calo.monitor/internal/grid"
	"github.com/banshee-data/calo.monitor/internal/qc"
)

// Summary is the numeric digest of one published artifact. For 2D grids the
// statistics run over the non-zero cells; for binned distributions they are
// the count-weighted moments over the bin centers.
type Summary struct {
	Name    string
	Kind    qc.ArtifactKind
	NonZero int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
}

// Summaries digests every artifact. Artifacts with no content yield a
// zero-valued summary rather than NaNs.
func Summaries(artifacts []qc.Artifact) []Summary {
	out := make([]Summary, 0, len(artifacts))
	for _, a := range artifacts {
		s := Summary{Name: a.Name(), Kind: a.Kind}
		switch a.Kind {
		case qc.KindGrid2D:
			s = summarizeValues(s, a.Grid.Values())
		case qc.KindHist1D:
			s = summarizeHist(s, a.Hist)
		case qc.KindHist2D:
			s = summarizeJoint(s, a.Joint)
		}
		out = append(out, s)
	}
	return out
}

func summarizeValues(s Summary, values []float64) Summary {
	nz := make([]float64, 0, len(values))
	for _, v := range values {
		if v != 0 {
			nz = append(nz, v)
		}
	}
	s.NonZero = len(nz)
	if len(nz) == 0 {
		return s
	}
	s.Mean = stat.Mean(nz, nil)
	if len(nz) > 1 {
		s.StdDev = stat.StdDev(nz, nil)
	}
	s.Min = floats.Min(nz)
	s.Max = floats.Max(nz)
	return s
}

func summarizeHist(s Summary, h *grid.Hist1D) Summary {
	centers := make([]float64, h.Bins)
	weights := h.Counts()
	total := 0.0
	for b := 0; b < h.Bins; b++ {
		centers[b] = h.BinCenter(b)
		if weights[b] != 0 {
			s.NonZero++
			total += weights[b]
		}
	}
	if total == 0 {
		return s
	}
	s.Mean = stat.Mean(centers, weights)
	sd := stat.StdDev(centers, weights)
	if !math.IsNaN(sd) {
		s.StdDev = sd
	}
	s.Min, s.Max = occupiedRange(centers, weights)
	return s
}

func summarizeJoint(s Summary, h *grid.Hist2D) Summary {
	// Joint distributions are summarized over the x marginal.
	centers := make([]float64, h.XBins)
	weights := make([]float64, h.XBins)
	xw := (h.XMax - h.XMin) / float64(h.XBins)
	total := 0.0
	for bx := 0; bx < h.XBins; bx++ {
		centers[bx] = h.XMin + (float64(bx)+0.5)*xw
		for by := 0; by < h.YBins; by++ {
			weights[bx] += h.Count(bx, by)
		}
		if weights[bx] != 0 {
			s.NonZero++
			total += weights[bx]
		}
	}
	if total == 0 {
		return s
	}
	s.Mean = stat.Mean(centers, weights)
	sd := stat.StdDev(centers, weights)
	if !math.IsNaN(sd) {
		s.StdDev = sd
	}
	s.Min, s.Max = occupiedRange(centers, weights)
	return s
}

// occupiedRange returns the centers of the first and last occupied bins.
func occupiedRange(centers, weights []float64) (min, max float64) {
	first := true
	for i, w := range weights {
		if w == 0 {
			continue
		}
		if first {
			min = centers[i]
			first = false
		}
		max = centers[i]
	}
	return min, max
}
