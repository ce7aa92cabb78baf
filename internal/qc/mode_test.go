package qc

import "testing"

func TestParseTaskParams(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]string
		wantMode Mode
		wantChi2 bool
	}{
		{"nil params default to physics", nil, ModePhysics, false},
		{"empty params default to physics", map[string]string{}, ModePhysics, false},
		{"pedestal on", map[string]string{"pedestal": "on"}, ModePedestal, false},
		{"LED on", map[string]string{"LED": "on"}, ModeLED, false},
		{"physics on", map[string]string{"physics": "on"}, ModePhysics, false},
		{"chi2 orthogonal to mode", map[string]string{"pedestal": "on", "chi2": "on"}, ModePedestal, true},
		{"chi2 alone keeps physics", map[string]string{"chi2": "on"}, ModePhysics, true},
		{"value must be exactly on", map[string]string{"pedestal": "ON"}, ModePhysics, false},
		{"off is not on", map[string]string{"LED": "off"}, ModePhysics, false},
		{"unrecognized keys ignored", map[string]string{"beam": "on"}, ModePhysics, false},
		{"explicit physics overrides pedestal", map[string]string{"pedestal": "on", "physics": "on"}, ModePhysics, false},
		{"LED overrides pedestal", map[string]string{"pedestal": "on", "LED": "on"}, ModeLED, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, chi2 := ParseTaskParams(tt.params)
			if mode != tt.wantMode || chi2 != tt.wantChi2 {
				t.Errorf("ParseTaskParams(%v) = %v, %v; want %v, %v",
					tt.params, mode, chi2, tt.wantMode, tt.wantChi2)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if ModePhysics.String() != "physics" || ModePedestal.String() != "pedestal" || ModeLED.String() != "LED" {
		t.Error("Mode.String() mismatch")
	}
	if Mode(99).String() != "unknown" {
		t.Error("unknown mode should stringify as unknown")
	}
}
