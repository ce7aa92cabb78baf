package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/calo.monitor/internal/grid"
	"github.com/banshee-data/calo.monitor/internal/qc"
)

func testArtifacts(t *testing.T) []qc.Artifact {
	t.Helper()
	task := qc.NewTask(nil, nil)
	task.ProcessCycle(context.Background(), qc.CycleInput{
		Cells: []qc.Cell{
			{Address: 2000, Energy: 100, Time: 1e-8, HighGain: true},
			{Address: 2001, Energy: 300, Time: -1e-8, HighGain: true},
			{Address: 9000, Energy: 50, HighGain: true},
		},
		Triggers: []qc.TriggerRecord{{FirstEntry: 0, NumEntries: 3}},
		Errors:   []qc.HardwareError{{FEC: 2, DDL: 4, Code: 1}},
	})
	task.EndOfActivity()
	return task.Artifacts()
}

func TestSummaries(t *testing.T) {
	arts := testArtifacts(t)
	sums := Summaries(arts)
	require.Len(t, sums, len(arts))

	byName := map[string]Summary{}
	for _, s := range sums {
		byName[s.Name] = s
	}

	occ := byName["CellOccupancyM1"]
	assert.Equal(t, 2, occ.NonZero, "two cells hit in module 1")
	assert.Equal(t, 1.0, occ.Mean)
	assert.Equal(t, 1.0, occ.Min)
	assert.Equal(t, 1.0, occ.Max)

	mean := byName["CellEmean1"]
	assert.Equal(t, 2, mean.NonZero)
	assert.InDelta(t, 200, mean.Mean, 1e-9)
	assert.Equal(t, 100.0, mean.Min)
	assert.Equal(t, 300.0, mean.Max)

	// Module spectrum: count-weighted mean over bin centers.
	sp := byName["CellSpectrumM1"]
	assert.Equal(t, 2, sp.NonZero)
	assert.InDelta(t, 200, sp.Mean, 10, "bin centers of the 100- and 300-count bins")

	// Empty artifacts digest to zeros, not NaNs.
	empty := byName["CellOccupancyM4"]
	assert.Equal(t, 0, empty.NonZero)
	assert.Equal(t, 0.0, empty.Mean)
	assert.False(t, empty.Mean != empty.Mean, "no NaN")
}

func TestSummariesHist2D(t *testing.T) {
	h := grid.NewHist2D("j", "joint", 10, 0, 100, 10, -1, 1)
	h.Fill(25, 0)
	h.Fill(25, 0.5)
	h.Fill(75, -0.5)
	s := Summaries([]qc.Artifact{{Kind: qc.KindHist2D, Joint: h}})
	require.Len(t, s, 1)
	assert.Equal(t, 2, s[0].NonZero, "two occupied x bins")
	assert.InDelta(t, (25+25+75)/3.0+0.0, s[0].Mean, 5.1, "weighted toward the double bin")
}

func TestWriteHTML(t *testing.T) {
	arts := testArtifacts(t)
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteHTML(path, arts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.True(t, strings.Contains(html, "CellOccupancyM1"), "grid chart present")
	assert.True(t, strings.Contains(html, "NumberOfErrors"), "error tally present")
	assert.True(t, strings.Contains(html, "BadMapSummary"), "bad map summary present")
}

func TestWritePlots(t *testing.T) {
	arts := testArtifacts(t)
	dir := filepath.Join(t.TempDir(), "plots")
	n, err := WritePlots(dir, arts)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	for _, name := range []string{"CellOccupancyM1.png", "CellSpectrumM1.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected plot %s: %v", name, err)
		}
	}
	// Joint distributions are HTML-only.
	if _, err := os.Stat(filepath.Join(dir, "TimevsE1.png")); err == nil {
		t.Error("joint distribution should not produce a PNG")
	}
}
