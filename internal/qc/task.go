// Package qc is the online statistics-aggregation engine for per-channel
// detector calibration and health monitoring. A Task consumes cycles of
// per-channel measurement records and maintains running per-channel
// summaries (occupancy, mean, RMS, error counts, spectral peak counts) over
// the fixed channel grid, in one of three acquisition modes.
//
// The correctness-critical protocol is the finalize/unfinalize toggle: a
// statistic family's grids hold raw weighted sums while accumulating and
// materialized means after a cycle boundary. Accumulation must only happen
// while un-finalized; EndOfCycle finalizes for consumers and StartOfCycle
// restores raw form before the next batch. Skipping the restore silently
// double-scales every later update; skipping the finalize hands consumers
// raw sums labelled as means.
package qc

import (
	"context"

	"github.com/google/uuid"

	"github.com/banshee-data/calo.monitor/internal/conditions"
	"github.com/banshee-data/calo.monitor/internal/geom"
	"github.com/banshee-data/calo.monitor/internal/grid"
	"github.com/banshee-data/calo.monitor/internal/monitoring"
	"github.com/banshee-data/calo.monitor/internal/peaks"
)

// Fixed physics constants of the readout. The numeric values are part of the
// detector's storage conventions and are never re-derived.
const (
	// lowGainScale rescales low-gain energies onto the high-gain scale.
	lowGainScale = 16.0
	// occupancyEnergyThreshold suppresses noise-level records in physics
	// mode; records at or below it are not counted at all.
	occupancyEnergyThreshold = 10.0
	// pedestalRMSTimeScale maps the time field into the RMS grid's storage
	// convention.
	pedestalRMSTimeScale = 1e7
	// chi2Scale recovers chi2/NDF from the quality stream's integer encoding.
	chi2Scale = 0.2
	// chi2GainBit flags the gain path inside an encoded quality address.
	chi2GainBit = 1 << 14

	// Peak search parameters for LED spectra.
	peakSigma        = 2.0
	peakRelThreshold = 0.1
	maxLEDPeaks      = 20
)

// Task owns the mode-dependent accumulator bank for one monitoring session.
// Single-threaded by contract: one cycle is fully processed before the next
// is accepted, and no accumulator is mutated concurrently.
type Task struct {
	mode      Mode
	checkChi2 bool

	activityID uuid.UUID

	errCount *grid.Grid2D
	errType  *grid.Grid2D

	physics  *physicsBank // physics and LED modes
	pedestal *pedestalBank
	led      *ledBank
	chi2     *chi2Bank

	// Finalize state, tracked independently per statistic family.
	pedFinalized  bool
	chi2Finalized bool

	searcher *peaks.Searcher

	provider      conditions.Provider
	badMapPending bool
	badChannels   [geom.NumModules]int
	badMapSummary *grid.Hist1D

	skippedRecords int64
	skipLogBudget  int
}

// NewTask builds a task for the mode selected by params (see
// ParseTaskParams), constructing every accumulator of the active mode
// eagerly. provider supplies the bad-channel condition and may be nil, in
// which case the bad-channel summary stays zeroed.
func NewTask(params map[string]string, provider conditions.Provider) *Task {
	mode, checkChi2 := ParseTaskParams(params)
	monitoring.Logf("qc: new task mode=%s chi2=%v", mode, checkChi2)

	t := &Task{
		mode:      mode,
		checkChi2: checkChi2,
		provider:  provider,
	}

	t.errCount = grid.NewGrid2D("NumberOfErrors", "Number of hardware errors", numFECs, numDDLs)
	t.errCount.XLabel = "FEE card"
	t.errCount.YLabel = "DDL"
	t.errType = grid.NewGrid2D("ErrorTypePerDDL", "ErrorTypePerDDL", numFECs, numDDLs)
	t.errType.XLabel = "FEE card"
	t.errType.YLabel = "DDL"

	t.badMapSummary = grid.NewHist1D("BadMapSummary", "Number of bad channels", geom.NumModules, 1, float64(geom.NumModules+1))
	t.badMapSummary.XLabel = "module"

	if checkChi2 {
		t.chi2 = newChi2Bank()
	}
	switch mode {
	case ModePhysics:
		t.physics = newPhysicsBank()
	case ModePedestal:
		t.pedestal = newPedestalBank()
	case ModeLED:
		t.physics = newPhysicsBank()
		t.led = newLEDBank()
		t.searcher = peaks.NewSearcher(maxLEDPeaks)
	}

	t.StartOfActivity()
	return t
}

// Mode returns the task's fixed acquisition mode.
func (t *Task) Mode() Mode { return t.mode }

// ActivityID identifies the current monitoring session.
func (t *Task) ActivityID() uuid.UUID { return t.activityID }

// SkippedRecords returns how many records were dropped for failing address
// decoding since the activity started.
func (t *Task) SkippedRecords() int64 { return t.skippedRecords }

// BadChannelCounts returns the per-module bad-channel counts from the last
// condition load (zeros when the condition was unavailable).
func (t *Task) BadChannelCounts() [geom.NumModules]int { return t.badChannels }

// StartOfActivity resets every accumulator to zero, clears the finalize
// state and re-arms the lazy bad-channel load for the new session.
func (t *Task) StartOfActivity() {
	t.activityID = uuid.New()
	t.pedFinalized = false
	t.chi2Finalized = false
	t.skippedRecords = 0
	t.skipLogBudget = 5
	t.badMapPending = true
	t.badChannels = [geom.NumModules]int{}
	t.badMapSummary.Reset()

	t.errCount.Reset()
	t.errType.Reset()
	if t.chi2 != nil {
		t.chi2.reset()
	}
	if t.physics != nil {
		t.physics.reset()
	}
	if t.pedestal != nil {
		t.pedestal.reset()
	}
	if t.led != nil {
		t.led.reset()
	}
	monitoring.Logf("qc: start of activity %s (mode=%s)", t.activityID, t.mode)
}

// StartOfCycle restores any finalized family to raw-accumulation form so the
// incoming batch lands on sums, not on materialized means.
//
// The chi2 family is recomputed fresh each cycle: a finalized chi2 grid is
// reset rather than multiplied back, since its content is a per-cycle
// quality snapshot rather than an activity-cumulative sum.
func (t *Task) StartOfCycle() {
	if t.checkChi2 && t.chi2Finalized {
		t.chi2.reset()
		t.chi2Finalized = false
	}
	if t.mode == ModePedestal && t.pedFinalized {
		t.unfinalizePedestal()
	}
}

// EndOfCycle materializes means for consumers and, in LED mode, refreshes
// the per-channel peak counts. Idempotent: a family already finalized is
// left untouched.
func (t *Task) EndOfCycle() {
	if t.checkChi2 && !t.chi2Finalized {
		for mod := 0; mod < geom.NumModules; mod++ {
			if err := t.chi2.chi2[mod].Divide(t.chi2.norm[mod]); err != nil {
				monitoring.Logf("qc: chi2 finalize mod %d: %v", mod+1, err)
			}
		}
		t.chi2Finalized = true
	}
	if t.mode == ModePedestal && !t.pedFinalized {
		t.finalizePedestal()
	}
	if t.mode == ModeLED {
		t.countLEDPeaks()
	}
}

// EndOfActivity closes the session; a final finalize pass so consumers see
// materialized values.
func (t *Task) EndOfActivity() {
	t.EndOfCycle()
	monitoring.Logf("qc: end of activity %s, skipped records=%d", t.activityID, t.skippedRecords)
}

// finalizePedestal converts every pedestal mean/RMS grid to materialized
// averages, rebuilds the 1D summaries from the materialized cells and
// records the observed occupancy range for display scaling.
func (t *Task) finalizePedestal() {
	for _, bank := range []*gainBank{&t.pedestal.hg, &t.pedestal.lg} {
		for mod := 0; mod < geom.NumModules; mod++ {
			occ := bank.occupancy[mod]
			if err := grid.FinalizePair(bank.mean[mod], occ); err != nil {
				monitoring.Logf("qc: pedestal finalize mod %d: %v", mod+1, err)
				continue
			}
			if err := grid.FinalizePair(bank.rms[mod], occ); err != nil {
				monitoring.Logf("qc: pedestal finalize mod %d: %v", mod+1, err)
				continue
			}

			bank.meanSummary[mod].Reset()
			bank.rmsSummary[mod].Reset()
			for row := 0; row < geom.RowsPerModule; row++ {
				for col := 0; col < geom.ColsPerModule; col++ {
					if v := bank.mean[mod].At(row, col); v > 0 {
						bank.meanSummary[mod].Fill(v)
					}
					if v := bank.rms[mod].At(row, col); v > 0 {
						bank.rmsSummary[mod].Fill(v)
					}
				}
			}

			if min, max, ok := occ.NonZeroRange(); ok {
				occ.DisplayMin = &min
				occ.DisplayMax = &max
			}
		}
	}
	t.pedFinalized = true
}

// unfinalizePedestal exactly inverts finalizePedestal's divide, restoring
// raw weighted sums so accumulation can resume.
func (t *Task) unfinalizePedestal() {
	for _, bank := range []*gainBank{&t.pedestal.hg, &t.pedestal.lg} {
		for mod := 0; mod < geom.NumModules; mod++ {
			occ := bank.occupancy[mod]
			if err := grid.UnfinalizePair(bank.mean[mod], occ); err != nil {
				monitoring.Logf("qc: pedestal unfinalize mod %d: %v", mod+1, err)
			}
			if err := grid.UnfinalizePair(bank.rms[mod], occ); err != nil {
				monitoring.Logf("qc: pedestal unfinalize mod %d: %v", mod+1, err)
			}
		}
	}
	t.pedFinalized = false
}

// countLEDPeaks runs the peak search over every channel spectrum and writes
// the counts into the per-module peak grids.
func (t *Task) countLEDPeaks() {
	for i := range t.led.spectra {
		addr := geom.FirstReadoutChannel + i
		id, err := geom.Decode(addr)
		if err != nil {
			continue
		}
		n := t.searcher.Search(t.led.spectra[i].Counts(), peakSigma, peakRelThreshold)
		t.led.peakCount[id.Module].Set(id.Row, id.Col, float64(n))
	}
}

// maybeLoadBadMap queries the conditions provider the first time it is
// needed in an activity. A missing condition zeroes the summary and surfaces
// a diagnostic; it never fails the cycle.
func (t *Task) maybeLoadBadMap(ctx context.Context) {
	if !t.badMapPending {
		return
	}
	t.badMapPending = false

	t.badChannels = [geom.NumModules]int{}
	t.badMapSummary.Reset()

	if t.provider == nil {
		monitoring.Logf("qc: no conditions provider, bad-channel summary cleared")
		return
	}
	m, err := t.provider.BadChannels(ctx)
	if err != nil {
		monitoring.Logf("qc: cannot get bad-channel map: %v", err)
		return
	}
	for addr := geom.FirstReadoutChannel; addr <= geom.MaxChannel; addr++ {
		if !m.IsChannelGood(addr) {
			t.badChannels[(addr-1)/geom.ChannelsPerModule]++
		}
	}
	for mod := 0; mod < geom.NumModules; mod++ {
		t.badMapSummary.SetCount(mod, float64(t.badChannels[mod]))
	}
	monitoring.Logf("qc: bad channels per module: %v", t.badChannels)
}

// skipRecord contains an address decode failure to the offending record.
func (t *Task) skipRecord(err error) {
	t.skippedRecords++
	if t.skipLogBudget > 0 {
		t.skipLogBudget--
		monitoring.Logf("qc: skipping record: %v", err)
	}
}
