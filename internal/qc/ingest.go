package qc

import (
	"context"

	"github.com/banshee-data/calo.monitor/internal/geom"
	"github.com/banshee-data/calo.monitor/internal/monitoring"
)

// ProcessCycle consumes one cycle's batch: hardware errors, the lazy
// bad-channel load, fit-quality pairs when chi2 checking is on, then the
// cells routed through the active mode's update rule. Record-level failures
// (an address outside the geometry) skip that record and continue; nothing
// in here aborts the cycle.
func (t *Task) ProcessCycle(ctx context.Context, in CycleInput) {
	for _, e := range in.Errors {
		t.recordError(e.FEC, e.DDL, e.Code)
	}

	t.maybeLoadBadMap(ctx)

	if t.checkChi2 {
		t.recordFitQuality(in.FitQuality)
	}

	switch t.mode {
	case ModePhysics:
		t.fillPhysics(in.Cells, in.Triggers)
	case ModePedestal:
		t.fillPedestal(in.Cells, in.Triggers)
	case ModeLED:
		t.fillLED(in.Cells, in.Triggers)
	}
}

// recordError increments the (fec, ddl) occurrence count and ORs the error
// code into that cell's bitmask.
func (t *Task) recordError(fec, ddl, code int) {
	if fec < 0 || fec >= numFECs || ddl < 0 || ddl >= numDDLs {
		monitoring.Logf("qc: hardware error outside tally grid: fec=%d ddl=%d", fec, ddl)
		return
	}
	t.errCount.Add(fec, ddl, 1)
	mask := int64(t.errType.At(fec, ddl))
	mask |= 1 << uint(code)
	t.errType.Set(fec, ddl, float64(mask))
}

// recordFitQuality walks the alternating (encoded address, quality) pairs.
// The gain bit is masked off the address before decoding; a decode failure
// skips that pair only.
func (t *Task) recordFitQuality(pairs []int16) {
	for i := 0; i+1 < len(pairs); i += 2 {
		addr := int(pairs[i]) &^ chi2GainBit
		chi := chi2Scale * float64(pairs[i+1])
		id, err := geom.Decode(addr)
		if err != nil {
			t.skipRecord(err)
			continue
		}
		t.chi2.chi2[id.Module].Add(id.Row, id.Col, chi)
		t.chi2.norm[id.Module].Add(id.Row, id.Col, 1)
	}
}

// eachCell iterates the cells event by event through the trigger-record
// ranges, clamping malformed ranges to the batch.
func eachCell(cells []Cell, triggers []TriggerRecord, fn func(Cell)) {
	for _, tr := range triggers {
		first := tr.FirstEntry
		if first < 0 {
			continue
		}
		end := first + tr.NumEntries
		if end > len(cells) {
			end = len(cells)
		}
		for i := first; i < end; i++ {
			fn(cells[i])
		}
	}
}

// fillPhysics applies the physics update rule: rescale low gain onto the
// high-gain scale, discard noise-level records entirely, then update
// occupancy, the running mean via the incremental formula, the time-vs-energy
// joint distribution and the module spectrum.
func (t *Task) fillPhysics(cells []Cell, triggers []TriggerRecord) {
	eachCell(cells, triggers, func(c Cell) {
		e := c.Energy
		if !c.HighGain {
			e *= lowGainScale
		}
		if e <= occupancyEnergyThreshold {
			return
		}
		id, err := geom.Decode(c.Address)
		if err != nil {
			t.skipRecord(err)
			return
		}
		// n is the pre-increment occupancy; the incremental mean update
		// relies on it matching the actual prior cell state, which holds
		// under the single-threaded processing contract.
		n := t.physics.occupancy[id.Module].At(id.Row, id.Col)
		mean := e
		if n > 0 {
			mean = (e + t.physics.meanEnergy[id.Module].At(id.Row, id.Col)*n) / (n + 1)
		}
		t.physics.meanEnergy[id.Module].Set(id.Row, id.Col, mean)
		t.physics.occupancy[id.Module].Add(id.Row, id.Col, 1)
		t.physics.timeVsEnergy[id.Module].Fill(e, c.Time)
		t.physics.spectrum[id.Module].Fill(e)
	})
}

// fillPedestal accumulates every record, no threshold, into the gain path
// selected by the record's gain flag. Mean and RMS grids take raw sums here;
// they become true means/RMS only at the finalize boundary.
func (t *Task) fillPedestal(cells []Cell, triggers []TriggerRecord) {
	// A grid left finalized from the previous boundary must be restored
	// before any accumulation lands on it.
	if t.pedFinalized {
		t.unfinalizePedestal()
	}

	eachCell(cells, triggers, func(c Cell) {
		id, err := geom.Decode(c.Address)
		if err != nil {
			t.skipRecord(err)
			return
		}
		bank := &t.pedestal.lg
		if c.HighGain {
			bank = &t.pedestal.hg
		}
		bank.mean[id.Module].Add(id.Row, id.Col, c.Energy)
		bank.rms[id.Module].Add(id.Row, id.Col, pedestalRMSTimeScale*c.Time)
		bank.occupancy[id.Module].Add(id.Row, id.Col, 1)
	})
}

// fillLED applies the physics rule unconditionally, then feeds each
// high-gain record's energy into that channel's persistent spectrum.
func (t *Task) fillLED(cells []Cell, triggers []TriggerRecord) {
	t.fillPhysics(cells, triggers)

	eachCell(cells, triggers, func(c Cell) {
		if !c.HighGain {
			return
		}
		idx, err := geom.SpectrumIndex(c.Address)
		if err != nil {
			t.skipRecord(err)
			return
		}
		t.led.spectra[idx].Fill(c.Energy)
	})
}
