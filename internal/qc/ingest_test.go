package qc

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/banshee-data/calo.monitor/internal/geom"
	"github.com/banshee-data/calo.monitor/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

// oneCellCycle wraps a batch of cells into a single-event cycle.
func oneCellCycle(cells ...Cell) CycleInput {
	return CycleInput{
		Cells:    cells,
		Triggers: []TriggerRecord{{FirstEntry: 0, NumEntries: len(cells)}},
	}
}

// Feeding n samples into one cell one at a time must converge to the plain
// arithmetic mean, with occupancy n.
func TestPhysicsIncrementalMean(t *testing.T) {
	task := NewTask(nil, nil)
	const addr = 2000
	id, err := geom.Decode(addr)
	if err != nil {
		t.Fatal(err)
	}

	samples := []float64{120, 85, 430, 60.5, 999, 15, 77.25}
	sum := 0.0
	for _, e := range samples {
		task.StartOfCycle()
		task.ProcessCycle(context.Background(), oneCellCycle(Cell{Address: addr, Energy: e, HighGain: true}))
		task.EndOfCycle()
		sum += e
	}

	wantMean := sum / float64(len(samples))
	gotMean := task.physics.meanEnergy[id.Module].At(id.Row, id.Col)
	if math.Abs(gotMean-wantMean) > 1e-9 {
		t.Errorf("mean = %v, want %v", gotMean, wantMean)
	}
	if got := task.physics.occupancy[id.Module].At(id.Row, id.Col); got != float64(len(samples)) {
		t.Errorf("occupancy = %v, want %d", got, len(samples))
	}
}

// A record at or below the occupancy threshold must leave every physics
// accumulator untouched.
func TestPhysicsThresholdExclusion(t *testing.T) {
	task := NewTask(nil, nil)
	const addr = 2000
	id, _ := geom.Decode(addr)

	task.ProcessCycle(context.Background(), oneCellCycle(
		Cell{Address: addr, Energy: 5, HighGain: true},
		Cell{Address: addr, Energy: occupancyEnergyThreshold, HighGain: true}, // boundary: not strictly above
	))

	if got := task.physics.occupancy[id.Module].At(id.Row, id.Col); got != 0 {
		t.Errorf("occupancy = %v, want 0", got)
	}
	if got := task.physics.meanEnergy[id.Module].At(id.Row, id.Col); got != 0 {
		t.Errorf("mean = %v, want 0", got)
	}
	if got := task.physics.spectrum[id.Module].Entries(); got != 0 {
		t.Errorf("spectrum entries = %d, want 0", got)
	}
	if got := task.physics.timeVsEnergy[id.Module].Entries(); got != 0 {
		t.Errorf("time-vs-energy entries = %d, want 0", got)
	}
}

// A low-gain record with energy e must be indistinguishable from a high-gain
// record with energy 16e.
func TestPhysicsGainRescale(t *testing.T) {
	const addr = 5000
	id, _ := geom.Decode(addr)

	lowGain := NewTask(nil, nil)
	lowGain.ProcessCycle(context.Background(), oneCellCycle(Cell{Address: addr, Energy: 20, HighGain: false}))

	highGain := NewTask(nil, nil)
	highGain.ProcessCycle(context.Background(), oneCellCycle(Cell{Address: addr, Energy: 320, HighGain: true}))

	lg := lowGain.physics.meanEnergy[id.Module].At(id.Row, id.Col)
	hg := highGain.physics.meanEnergy[id.Module].At(id.Row, id.Col)
	if lg != hg {
		t.Errorf("low-gain mean %v != high-gain mean %v", lg, hg)
	}
	if lg != 320 {
		t.Errorf("mean = %v, want 320", lg)
	}
}

func TestErrorTallyAccumulation(t *testing.T) {
	task := NewTask(nil, nil)
	task.ProcessCycle(context.Background(), CycleInput{
		Errors: []HardwareError{
			{FEC: 3, DDL: 5, Code: 2},
			{FEC: 3, DDL: 5, Code: 4},
		},
	})

	if got := task.errCount.At(3, 5); got != 2 {
		t.Errorf("error count = %v, want 2", got)
	}
	if got := int64(task.errType.At(3, 5)); got != 0b10100 {
		t.Errorf("error bitmask = %#b, want 0b10100", got)
	}
}

func TestErrorTallyOutsideGridIgnored(t *testing.T) {
	task := NewTask(nil, nil)
	task.ProcessCycle(context.Background(), CycleInput{
		Errors: []HardwareError{{FEC: numFECs, DDL: 0, Code: 1}, {FEC: 0, DDL: -1, Code: 1}},
	})
	if min, max, ok := task.errCount.NonZeroRange(); ok {
		t.Errorf("tally grid should stay empty, got range [%v, %v]", min, max)
	}
}

// An undecodable address aborts that record only; the rest of the cycle is
// still processed.
func TestAddressDecodeSkipAndContinue(t *testing.T) {
	task := NewTask(nil, nil)
	const good = 2000
	id, _ := geom.Decode(good)

	task.ProcessCycle(context.Background(), oneCellCycle(
		Cell{Address: geom.MaxChannel + 100, Energy: 500, HighGain: true},
		Cell{Address: good, Energy: 500, HighGain: true},
	))

	if got := task.SkippedRecords(); got != 1 {
		t.Errorf("skipped records = %d, want 1", got)
	}
	if got := task.physics.occupancy[id.Module].At(id.Row, id.Col); got != 1 {
		t.Errorf("valid record not accumulated: occupancy = %v, want 1", got)
	}
}

// Accumulators of inactive modes must never be written; construction makes
// that structural by never allocating them.
func TestModeIsolation(t *testing.T) {
	batch := oneCellCycle(
		Cell{Address: 2000, Energy: 500, HighGain: true},
		Cell{Address: 2000, Energy: 30, HighGain: false},
	)

	physics := NewTask(nil, nil)
	physics.ProcessCycle(context.Background(), batch)
	if physics.pedestal != nil || physics.led != nil {
		t.Error("physics task must not own pedestal or LED accumulators")
	}

	pedestal := NewTask(map[string]string{"pedestal": "on"}, nil)
	pedestal.ProcessCycle(context.Background(), batch)
	if pedestal.physics != nil || pedestal.led != nil {
		t.Error("pedestal task must not own physics or LED accumulators")
	}
	for _, a := range pedestal.Artifacts() {
		switch a.Name() {
		case "CellOccupancyM1", "CellEmean1", "NLedPeaksM1":
			t.Errorf("pedestal task published inactive-mode artifact %q", a.Name())
		}
	}
}

// Malformed trigger ranges are clamped to the batch and never panic.
func TestTriggerRangeClamping(t *testing.T) {
	task := NewTask(nil, nil)
	id, _ := geom.Decode(2000)
	task.ProcessCycle(context.Background(), CycleInput{
		Cells: []Cell{{Address: 2000, Energy: 500, HighGain: true}},
		Triggers: []TriggerRecord{
			{FirstEntry: -1, NumEntries: 1}, // dropped
			{FirstEntry: 0, NumEntries: 10}, // clamped to the one cell
		},
	})
	if got := task.physics.occupancy[id.Module].At(id.Row, id.Col); got != 1 {
		t.Errorf("occupancy = %v, want 1", got)
	}
}
