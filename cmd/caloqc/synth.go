package main

import (
	"math/rand"

	"github.com/banshee-data/calo.monitor/internal/geom"
	"github.com/banshee-data/calo.monitor/internal/qc"
)

// generator produces deterministic synthetic cycles for exercising the
// engine without a detector. The shape of the data follows the active mode:
// pedestal cycles emit noise-level baselines on both gain paths, LED cycles
// emit two stable amplitude populations per channel, physics cycles emit an
// exponential-ish energy spectrum.
type generator struct {
	rng       *rand.Rand
	mode      qc.Mode
	withChi2  bool
	perCycle  int
	ledLevels [2]float64
}

func newGenerator(seed int64, mode qc.Mode, withChi2 bool, eventsPerCycle int) *generator {
	if eventsPerCycle <= 0 {
		eventsPerCycle = 100
	}
	return &generator{
		rng:       rand.New(rand.NewSource(seed)),
		mode:      mode,
		withChi2:  withChi2,
		perCycle:  eventsPerCycle,
		ledLevels: [2]float64{200, 420},
	}
}

func (g *generator) randomAddress() int {
	return geom.FirstReadoutChannel + g.rng.Intn(geom.NumReadoutChannels)
}

func (g *generator) nextCycle() qc.CycleInput {
	var in qc.CycleInput
	for ev := 0; ev < g.perCycle; ev++ {
		first := len(in.Cells)
		nCells := 1 + g.rng.Intn(8)
		for c := 0; c < nCells; c++ {
			in.Cells = append(in.Cells, g.nextCell())
		}
		in.Triggers = append(in.Triggers, qc.TriggerRecord{
			FirstEntry: first,
			NumEntries: nCells,
		})
	}

	// A sprinkling of hardware errors.
	for g.rng.Float64() < 0.2 {
		in.Errors = append(in.Errors, qc.HardwareError{
			FEC:  g.rng.Intn(32),
			DDL:  g.rng.Intn(15),
			Code: g.rng.Intn(10),
		})
	}

	if g.withChi2 {
		nPairs := g.perCycle / 2
		for i := 0; i < nPairs; i++ {
			addr := int16(g.randomAddress())
			if g.rng.Intn(2) == 0 {
				addr |= 1 << 14
			}
			// Quality around chi2/NDF ~ 1, stored scaled by 5.
			in.FitQuality = append(in.FitQuality, addr, int16(1+g.rng.Intn(10)))
		}
	}
	return in
}

func (g *generator) nextCell() qc.Cell {
	addr := g.randomAddress()
	switch g.mode {
	case qc.ModePedestal:
		return qc.Cell{
			Address:  addr,
			Energy:   45 + 10*g.rng.Float64(),
			Time:     g.rng.NormFloat64() * 1e-8,
			HighGain: g.rng.Intn(2) == 0,
		}
	case qc.ModeLED:
		return qc.Cell{
			Address:  addr,
			Energy:   g.ledLevels[g.rng.Intn(2)] + g.rng.NormFloat64()*4,
			Time:     g.rng.NormFloat64() * 1e-8,
			HighGain: true,
		}
	default:
		// Falling spectrum with a noise floor below the occupancy threshold.
		e := g.rng.ExpFloat64() * 60
		return qc.Cell{
			Address:  addr,
			Energy:   e,
			Time:     g.rng.NormFloat64() * 2e-7,
			HighGain: e < 900,
		}
	}
}
