package qc

// Cell is one per-channel measurement delivered by the record source.
// Immutable once delivered.
type Cell struct {
	// Address is the flat channel address (see internal/geom).
	Address int `json:"address"`
	// Energy in ADC counts, on the gain scale indicated by HighGain.
	Energy float64 `json:"energy"`
	// Time of the sample relative to the trigger, seconds.
	Time float64 `json:"time"`
	// HighGain is true for the high-gain amplification path.
	HighGain bool `json:"high_gain"`
	// Label optionally tags the producing stage; carried through untouched.
	Label string `json:"label,omitempty"`
}

// TriggerRecord delimits the contiguous sub-range of a cycle's cells that
// belong to one physical event.
type TriggerRecord struct {
	FirstEntry int `json:"first_entry"`
	NumEntries int `json:"num_entries"`
}

// HardwareError is one hardware fault occurrence keyed by front-end card and
// data link.
type HardwareError struct {
	FEC  int `json:"fec"`
	DDL  int `json:"ddl"`
	Code int `json:"code"`
}

// CycleInput is one bounded batch of records between monitoring boundaries.
//
// FitQuality, present only when chi2 checking is enabled, is a flat sequence
// of alternating (encoded address, quality) pairs. The address carries the
// high/low gain flag in bit 14, which is masked off before channel decoding;
// the quality value is stored scaled and is multiplied by 0.2 to recover
// chi2/NDF.
type CycleInput struct {
	Cells      []Cell          `json:"cells"`
	Triggers   []TriggerRecord `json:"triggers"`
	Errors     []HardwareError `json:"errors,omitempty"`
	FitQuality []int16         `json:"fit_quality,omitempty"`
}
