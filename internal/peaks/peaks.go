// Package peaks implements a deterministic peak search over noisy binned
// spectra. A Gaussian smoothing pass suppresses bin-to-bin noise, then local
// maxima above a relative amplitude threshold are counted. The search is
// silent and side-effect free: the same bins and parameters always give the
// same count.
package peaks

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Searcher carries the fixed search parameters shared across channels.
type Searcher struct {
	// MaxPeaks caps the number of peaks reported per spectrum.
	MaxPeaks int
}

// NewSearcher returns a Searcher able to report up to maxPeaks peaks.
func NewSearcher(maxPeaks int) *Searcher {
	if maxPeaks <= 0 {
		maxPeaks = 1
	}
	return &Searcher{MaxPeaks: maxPeaks}
}

// Search counts peaks in bins. sigma is the expected peak width in bins;
// relThreshold discards candidates whose smoothed amplitude falls below
// relThreshold times the highest smoothed amplitude.
func (s *Searcher) Search(bins []float64, sigma, relThreshold float64) int {
	if len(bins) < 3 {
		return 0
	}
	if sigma <= 0 {
		sigma = 1
	}

	sm := smooth(bins, sigma)
	top := floats.Max(sm)
	if top <= 0 {
		return 0
	}
	floor := relThreshold * top

	// A candidate must rise from the left, not rise to the right, dominate
	// its ±w window and clear the amplitude floor. Plateaus count once,
	// at their left edge.
	w := int(math.Round(sigma))
	if w < 1 {
		w = 1
	}
	count := 0
	for i := 1; i < len(sm)-1; i++ {
		if !(sm[i] > sm[i-1] && sm[i] >= sm[i+1]) {
			continue
		}
		if sm[i] < floor {
			continue
		}
		if !dominatesWindow(sm, i, w) {
			continue
		}
		count++
		if count >= s.MaxPeaks {
			break
		}
	}
	return count
}

// smooth convolves bins with a normalized Gaussian kernel of the given sigma,
// truncated at three sigma. Edges are handled by renormalizing over the
// in-range part of the kernel.
func smooth(bins []float64, sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	for k := -radius; k <= radius; k++ {
		kernel[k+radius] = math.Exp(-float64(k*k) / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	out := make([]float64, len(bins))
	for i := range bins {
		var sum, weight float64
		for k := -radius; k <= radius; k++ {
			j := i + k
			if j < 0 || j >= len(bins) {
				continue
			}
			sum += bins[j] * kernel[k+radius]
			weight += kernel[k+radius]
		}
		out[i] = sum / weight
	}
	return out
}

func dominatesWindow(sm []float64, i, w int) bool {
	for j := i - w; j <= i+w; j++ {
		if j < 0 || j >= len(sm) || j == i {
			continue
		}
		if sm[j] > sm[i] {
			return false
		}
	}
	return true
}
