package qc

import (
	"fmt"

	"github.com/banshee-data/calo.monitor/internal/geom"
	"github.com/banshee-data/calo.monitor/internal/grid"
)

// Error tally extent: front-end cards on one axis, data links on the other.
const (
	numFECs = 32
	numDDLs = 15
)

// Spectrum binning for the persistent per-channel LED spectra.
const (
	spectrumBins = 487
	spectrumMin  = 50.0
	spectrumMax  = 1024.0
)

func newModuleGrid(name, title string) *grid.Grid2D {
	g := grid.NewGrid2D(name, title, geom.RowsPerModule, geom.ColsPerModule)
	g.XLabel = "x, cells"
	g.YLabel = "z, cells"
	return g
}

func withDisplayRange(g *grid.Grid2D, min, max float64) *grid.Grid2D {
	g.DisplayMin = &min
	g.DisplayMax = &max
	return g
}

func withDisplayMin(g *grid.Grid2D, min float64) *grid.Grid2D {
	g.DisplayMin = &min
	return g
}

// physicsBank holds the physics-mode accumulators; LED mode shares it.
type physicsBank struct {
	occupancy    [geom.NumModules]*grid.Grid2D
	meanEnergy   [geom.NumModules]*grid.Grid2D
	timeVsEnergy [geom.NumModules]*grid.Hist2D
	spectrum     [geom.NumModules]*grid.Hist1D
}

func newPhysicsBank() *physicsBank {
	b := &physicsBank{}
	for mod := 0; mod < geom.NumModules; mod++ {
		b.occupancy[mod] = withDisplayMin(newModuleGrid(
			fmt.Sprintf("CellOccupancyM%d", mod+1),
			fmt.Sprintf("Cell occupancy, mod %d", mod+1)), 0)
		b.meanEnergy[mod] = withDisplayMin(newModuleGrid(
			fmt.Sprintf("CellEmean%d", mod+1),
			fmt.Sprintf("Cell mean energy, mod %d", mod+1)), 0)
		b.timeVsEnergy[mod] = grid.NewHist2D(
			fmt.Sprintf("TimevsE%d", mod+1),
			fmt.Sprintf("Cell time vs energy, mod %d", mod+1),
			50, 0, 1000, 50, -5e-7, 5e-7)
		b.timeVsEnergy[mod].XLabel = "Amp"
		b.timeVsEnergy[mod].YLabel = "Time (ns)"
		b.spectrum[mod] = grid.NewHist1D(
			fmt.Sprintf("CellSpectrumM%d", mod+1),
			fmt.Sprintf("Cell spectrum in mod %d", mod+1),
			100, 0, 1000)
		b.spectrum[mod].XLabel = "ADC channels"
	}
	return b
}

func (b *physicsBank) reset() {
	for mod := 0; mod < geom.NumModules; mod++ {
		b.occupancy[mod].Reset()
		b.meanEnergy[mod].Reset()
		b.timeVsEnergy[mod].Reset()
		b.spectrum[mod].Reset()
	}
}

// gainBank is one gain path's pedestal accumulators.
type gainBank struct {
	mean        [geom.NumModules]*grid.Grid2D
	rms         [geom.NumModules]*grid.Grid2D
	occupancy   [geom.NumModules]*grid.Grid2D
	meanSummary [geom.NumModules]*grid.Hist1D
	rmsSummary  [geom.NumModules]*grid.Hist1D
}

func newGainBank(gain string) gainBank {
	b := gainBank{}
	long := map[string]string{"HG": "High Gain", "LG": "Low Gain"}[gain]
	for mod := 0; mod < geom.NumModules; mod++ {
		b.mean[mod] = withDisplayRange(newModuleGrid(
			fmt.Sprintf("Ped%smean%d", gain, mod+1),
			fmt.Sprintf("Pedestal mean %s, mod %d", long, mod+1)), 0, 100)
		b.rms[mod] = withDisplayRange(newModuleGrid(
			fmt.Sprintf("Ped%srms%d", gain, mod+1),
			fmt.Sprintf("Pedestal RMS %s, mod %d", long, mod+1)), 0, 2)
		b.occupancy[mod] = newModuleGrid(
			fmt.Sprintf("%sOccupancyM%d", gain, mod+1),
			fmt.Sprintf("%s occupancy, mod %d", long, mod+1))
		b.meanSummary[mod] = grid.NewHist1D(
			fmt.Sprintf("Ped%sMeanSum%d", gain, mod+1),
			fmt.Sprintf("Pedestal %s mean summary, mod %d", gain, mod+1),
			100, 0, 100)
		b.meanSummary[mod].XLabel = "ADC channels"
		b.rmsSummary[mod] = grid.NewHist1D(
			fmt.Sprintf("Ped%sRMSSum%d", gain, mod+1),
			fmt.Sprintf("Pedestal %s RMS summary, mod %d", gain, mod+1),
			100, 0, 10)
		b.rmsSummary[mod].XLabel = "ADC channels"
	}
	return b
}

func (b *gainBank) reset() {
	for mod := 0; mod < geom.NumModules; mod++ {
		b.mean[mod].Reset()
		b.rms[mod].Reset()
		b.occupancy[mod].Reset()
		b.meanSummary[mod].Reset()
		b.rmsSummary[mod].Reset()
	}
}

// pedestalBank holds both gain paths.
type pedestalBank struct {
	hg gainBank
	lg gainBank
}

func newPedestalBank() *pedestalBank {
	return &pedestalBank{hg: newGainBank("HG"), lg: newGainBank("LG")}
}

func (b *pedestalBank) reset() {
	b.hg.reset()
	b.lg.reset()
}

// ledBank holds LED-only accumulators: the per-module peak-count grids and
// the persistent per-channel spectra they are computed from.
type ledBank struct {
	peakCount [geom.NumModules]*grid.Grid2D
	spectra   []grid.Hist1D // one per readout channel, indexed by geom.SpectrumIndex
}

func newLEDBank() *ledBank {
	b := &ledBank{spectra: make([]grid.Hist1D, geom.NumReadoutChannels)}
	for mod := 0; mod < geom.NumModules; mod++ {
		b.peakCount[mod] = withDisplayMin(newModuleGrid(
			fmt.Sprintf("NLedPeaksM%d", mod+1),
			fmt.Sprintf("Number of LED peaks, mod %d", mod+1)), 0)
	}
	for i := range b.spectra {
		b.spectra[i] = *grid.NewHist1D(
			fmt.Sprintf("SpChannel%d", geom.FirstReadoutChannel+i), "",
			spectrumBins, spectrumMin, spectrumMax)
	}
	return b
}

func (b *ledBank) reset() {
	for mod := 0; mod < geom.NumModules; mod++ {
		b.peakCount[mod].Reset()
	}
	for i := range b.spectra {
		b.spectra[i].Reset()
	}
}

// chi2Bank holds the fit-quality accumulators, present in any mode when chi2
// checking is enabled.
type chi2Bank struct {
	chi2 [geom.NumModules]*grid.Grid2D
	norm [geom.NumModules]*grid.Grid2D
}

func newChi2Bank() *chi2Bank {
	b := &chi2Bank{}
	for mod := 0; mod < geom.NumModules; mod++ {
		b.chi2[mod] = withDisplayMin(newModuleGrid(
			fmt.Sprintf("Chi2M%d", mod+1),
			fmt.Sprintf("sample fit chi2/NDF, mod %d", mod+1)), 0)
		b.norm[mod] = withDisplayMin(newModuleGrid(
			fmt.Sprintf("Chi2NormM%d", mod+1),
			fmt.Sprintf("sample fit chi2/NDF normalization, mod %d", mod+1)), 0)
	}
	return b
}

func (b *chi2Bank) reset() {
	for mod := 0; mod < geom.NumModules; mod++ {
		b.chi2[mod].Reset()
		b.norm[mod].Reset()
	}
}
