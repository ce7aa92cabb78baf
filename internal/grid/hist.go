package grid

// Hist1D is a fixed-range 1D binned distribution. Fills outside [Min, Max)
// are dropped.
type Hist1D struct {
	Name   string
	Title  string
	XLabel string

	Bins int
	Min  float64
	Max  float64

	counts  []float64
	entries int64
}

// NewHist1D allocates an empty distribution over [min, max) with the given
// number of equal-width bins.
func NewHist1D(name, title string, bins int, min, max float64) *Hist1D {
	return &Hist1D{
		Name:   name,
		Title:  title,
		Bins:   bins,
		Min:    min,
		Max:    max,
		counts: make([]float64, bins),
	}
}

// FindBin returns the bin index for v, or -1 when v lies outside the range.
func (h *Hist1D) FindBin(v float64) int {
	if v < h.Min || v >= h.Max {
		return -1
	}
	b := int(float64(h.Bins) * (v - h.Min) / (h.Max - h.Min))
	if b >= h.Bins { // guard the v==Max-epsilon rounding edge
		b = h.Bins - 1
	}
	return b
}

// Fill adds one count at v.
func (h *Hist1D) Fill(v float64) {
	if b := h.FindBin(v); b >= 0 {
		h.counts[b]++
		h.entries++
	}
}

// Count returns the content of bin b.
func (h *Hist1D) Count(b int) float64 { return h.counts[b] }

// SetCount overwrites the content of bin b.
func (h *Hist1D) SetCount(b int, v float64) { h.counts[b] = v }

// BinCenter returns the center value of bin b.
func (h *Hist1D) BinCenter(b int) float64 {
	w := (h.Max - h.Min) / float64(h.Bins)
	return h.Min + (float64(b)+0.5)*w
}

// Entries returns the number of in-range fills since the last Reset.
func (h *Hist1D) Entries() int64 { return h.entries }

// Counts returns the live bin contents in order.
func (h *Hist1D) Counts() []float64 { return h.counts }

// Reset zeroes all bins.
func (h *Hist1D) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
	h.entries = 0
}

// Hist2D is a fixed-range 2D binned distribution used for joint
// distributions such as time versus energy. Fills outside either range are
// dropped.
type Hist2D struct {
	Name   string
	Title  string
	XLabel string
	YLabel string

	XBins int
	XMin  float64
	XMax  float64
	YBins int
	YMin  float64
	YMax  float64

	counts  []float64
	entries int64
}

// NewHist2D allocates an empty 2D distribution.
func NewHist2D(name, title string, xBins int, xMin, xMax float64, yBins int, yMin, yMax float64) *Hist2D {
	return &Hist2D{
		Name:   name,
		Title:  title,
		XBins:  xBins,
		XMin:   xMin,
		XMax:   xMax,
		YBins:  yBins,
		YMin:   yMin,
		YMax:   yMax,
		counts: make([]float64, xBins*yBins),
	}
}

func (h *Hist2D) bin(x, y float64) int {
	if x < h.XMin || x >= h.XMax || y < h.YMin || y >= h.YMax {
		return -1
	}
	bx := int(float64(h.XBins) * (x - h.XMin) / (h.XMax - h.XMin))
	if bx >= h.XBins {
		bx = h.XBins - 1
	}
	by := int(float64(h.YBins) * (y - h.YMin) / (h.YMax - h.YMin))
	if by >= h.YBins {
		by = h.YBins - 1
	}
	return by*h.XBins + bx
}

// Fill adds one count at (x, y).
func (h *Hist2D) Fill(x, y float64) {
	if b := h.bin(x, y); b >= 0 {
		h.counts[b]++
		h.entries++
	}
}

// Count returns the content of the (bx, by) bin.
func (h *Hist2D) Count(bx, by int) float64 { return h.counts[by*h.XBins+bx] }

// Entries returns the number of in-range fills since the last Reset.
func (h *Hist2D) Entries() int64 { return h.entries }

// Reset zeroes all bins.
func (h *Hist2D) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
	h.entries = 0
}
