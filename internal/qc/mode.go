package qc

// Mode selects which accumulator families the task maintains. It is chosen
// once at task construction and never changes for the task's lifetime.
type Mode int

const (
	// ModePhysics accumulates occupancy, running mean energy, time-vs-energy
	// and per-module spectra from physics triggers. The default.
	ModePhysics Mode = iota
	// ModePedestal accumulates pedestal mean/RMS/occupancy per gain.
	ModePedestal
	// ModeLED accumulates everything physics does plus per-channel spectra
	// for LED peak counting.
	ModeLED
)

func (m Mode) String() string {
	switch m {
	case ModePhysics:
		return "physics"
	case ModePedestal:
		return "pedestal"
	case ModeLED:
		return "LED"
	default:
		return "unknown"
	}
}

// ParseTaskParams resolves the task parameter map into a mode and the
// orthogonal chi2-checking flag. A key counts only when its value is exactly
// "on"; unrecognized keys are ignored. With no mode key set the task runs in
// physics mode. When several mode keys are set the later key in the fixed
// evaluation order (pedestal, LED, physics) wins, so an explicit physics=on
// overrides the calibration modes.
func ParseTaskParams(params map[string]string) (Mode, bool) {
	mode := ModePhysics
	if params["pedestal"] == "on" {
		mode = ModePedestal
	}
	if params["LED"] == "on" {
		mode = ModeLED
	}
	if params["physics"] == "on" {
		mode = ModePhysics
	}
	return mode, params["chi2"] == "on"
}
