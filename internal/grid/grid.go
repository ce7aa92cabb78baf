// Package grid provides the dense accumulator primitives the QC engine is
// built on: 2D per-cell grids, 1D binned distributions and 2D joint
// distributions, plus the finalize/unfinalize transforms that convert a
// weighted-sum grid into a materialized mean and back.
package grid

import "fmt"

// Grid2D is a dense 2D accumulator over (row, column). Depending on the
// owning family's finalize state its cells hold either raw weighted sums or
// materialized means; the grid itself does not track which.
type Grid2D struct {
	Name   string
	Title  string
	XLabel string
	YLabel string

	Rows int
	Cols int

	// Display hints for downstream rendering. Nil means unconstrained.
	DisplayMin *float64
	DisplayMax *float64

	data []float64
}

// NewGrid2D allocates a zeroed grid.
func NewGrid2D(name, title string, rows, cols int) *Grid2D {
	return &Grid2D{
		Name:  name,
		Title: title,
		Rows:  rows,
		Cols:  cols,
		data:  make([]float64, rows*cols),
	}
}

func (g *Grid2D) idx(row, col int) int { return row*g.Cols + col }

// At returns the cell content.
func (g *Grid2D) At(row, col int) float64 { return g.data[g.idx(row, col)] }

// Set overwrites the cell content.
func (g *Grid2D) Set(row, col int, v float64) { g.data[g.idx(row, col)] = v }

// Add accumulates w into the cell.
func (g *Grid2D) Add(row, col int, w float64) { g.data[g.idx(row, col)] += w }

// Reset zeroes every cell.
func (g *Grid2D) Reset() {
	for i := range g.data {
		g.data[i] = 0
	}
}

// Clone returns a deep copy, sharing no state with the receiver.
func (g *Grid2D) Clone() *Grid2D {
	c := *g
	c.data = make([]float64, len(g.data))
	copy(c.data, g.data)
	if g.DisplayMin != nil {
		v := *g.DisplayMin
		c.DisplayMin = &v
	}
	if g.DisplayMax != nil {
		v := *g.DisplayMax
		c.DisplayMax = &v
	}
	return &c
}

// Values returns the backing slice in row-major order. The slice is live;
// callers that need a snapshot should Clone first.
func (g *Grid2D) Values() []float64 { return g.data }

func (g *Grid2D) sameShape(o *Grid2D) error {
	if g.Rows != o.Rows || g.Cols != o.Cols {
		return fmt.Errorf("grid shape mismatch: %dx%d vs %dx%d", g.Rows, g.Cols, o.Rows, o.Cols)
	}
	return nil
}

// Multiply scales every cell by the matching cell of o.
func (g *Grid2D) Multiply(o *Grid2D) error {
	if err := g.sameShape(o); err != nil {
		return err
	}
	for i := range g.data {
		g.data[i] *= o.data[i]
	}
	return nil
}

// Divide divides every cell by the matching cell of o. Cells whose
// denominator is zero are left at zero: a cell with no occupancy has no
// meaningful mean.
func (g *Grid2D) Divide(o *Grid2D) error {
	if err := g.sameShape(o); err != nil {
		return err
	}
	for i := range g.data {
		if o.data[i] == 0 {
			g.data[i] = 0
			continue
		}
		g.data[i] /= o.data[i]
	}
	return nil
}

// NonZeroRange returns the min and max over cells with non-zero content.
// ok is false when every cell is zero.
func (g *Grid2D) NonZeroRange() (min, max float64, ok bool) {
	for _, v := range g.data {
		if v == 0 {
			continue
		}
		if !ok {
			min, max, ok = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, ok
}

// FinalizePair materializes value into a mean by dividing cell-wise by occ.
// Never partially convert a grid: the full occupancy grid of identical shape
// is required.
func FinalizePair(value, occ *Grid2D) error {
	return value.Divide(occ)
}

// UnfinalizePair restores a materialized mean to its raw-sum form by
// multiplying cell-wise by occ. It exactly inverts FinalizePair when the
// occupancy is unchanged between the two calls.
func UnfinalizePair(value, occ *Grid2D) error {
	return value.Multiply(occ)
}
