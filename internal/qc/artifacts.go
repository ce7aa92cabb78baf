package qc

import (
	"github.com/google/uuid"

	"github.com/banshee-data/calo.monitor/internal/geom"
	"github.com/banshee-data/calo.monitor/internal/grid"
)

// ArtifactKind distinguishes the published accumulator shapes.
type ArtifactKind int

const (
	KindGrid2D ArtifactKind = iota
	KindHist1D
	KindHist2D
)

// Artifact is one named accumulator handed off for external publication.
// Exactly one of Grid, Hist or Joint is set, matching Kind. The hand-off is
// pure data: consumers never feed anything back into the task.
type Artifact struct {
	Kind       ArtifactKind
	ActivityID uuid.UUID

	Grid  *grid.Grid2D
	Hist  *grid.Hist1D
	Joint *grid.Hist2D
}

// Name returns the artifact's published name.
func (a Artifact) Name() string {
	switch a.Kind {
	case KindGrid2D:
		return a.Grid.Name
	case KindHist1D:
		return a.Hist.Name
	case KindHist2D:
		return a.Joint.Name
	default:
		return ""
	}
}

// Artifacts publishes every accumulator of the active mode. Per-channel LED
// spectra are internal inputs to the peak counter and are not published;
// their aggregate, the peak-count grids, is.
func (t *Task) Artifacts() []Artifact {
	id := t.activityID
	g := func(v *grid.Grid2D) Artifact { return Artifact{Kind: KindGrid2D, ActivityID: id, Grid: v} }
	h := func(v *grid.Hist1D) Artifact { return Artifact{Kind: KindHist1D, ActivityID: id, Hist: v} }
	j := func(v *grid.Hist2D) Artifact { return Artifact{Kind: KindHist2D, ActivityID: id, Joint: v} }

	out := []Artifact{g(t.errCount), g(t.errType), h(t.badMapSummary)}

	if t.chi2 != nil {
		for mod := 0; mod < geom.NumModules; mod++ {
			out = append(out, g(t.chi2.chi2[mod]))
		}
	}
	if t.physics != nil {
		for mod := 0; mod < geom.NumModules; mod++ {
			out = append(out,
				g(t.physics.occupancy[mod]),
				g(t.physics.meanEnergy[mod]),
				j(t.physics.timeVsEnergy[mod]),
				h(t.physics.spectrum[mod]))
		}
	}
	if t.pedestal != nil {
		for _, bank := range []*gainBank{&t.pedestal.hg, &t.pedestal.lg} {
			for mod := 0; mod < geom.NumModules; mod++ {
				out = append(out,
					g(bank.mean[mod]),
					g(bank.rms[mod]),
					g(bank.occupancy[mod]),
					h(bank.meanSummary[mod]),
					h(bank.rmsSummary[mod]))
			}
		}
	}
	if t.led != nil {
		for mod := 0; mod < geom.NumModules; mod++ {
			out = append(out, g(t.led.peakCount[mod]))
		}
	}
	return out
}
