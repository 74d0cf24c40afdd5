package config

import "testing"

func TestNewRuntimeConfigFillsDefaults(t *testing.T) {
	rc := NewRuntimeConfig(Config{})

	cases := map[string]float64{
		"MaxQueuePerApproach": float64(rc.T.MaxQueuePerApproach),
		"MinGreenSeconds":     rc.T.MinGreenSeconds,
		"MaxGreenSeconds":     rc.T.MaxGreenSeconds,
		"EmergencyMinGreen":   rc.T.EmergencyMinGreen,
		"StarvationSeconds":   rc.T.StarvationSeconds,
		"GapOutTicks":         float64(rc.T.GapOutTicks),
		"DecisionIntervalSec": float64(rc.T.DecisionIntervalSec),
		"WaitingSpeedMps":     rc.T.WaitingSpeedMps,
		"ArrivalWindowSec":    rc.T.ArrivalWindowSec,
		"QueueHistorySec":     rc.T.QueueHistorySec,
		"MemoryTopK":          float64(rc.T.MemoryTopK),
		"MemorySimThreshold":  rc.T.MemorySimThreshold,
		"MemoryConfidence":    rc.T.MemoryConfidence,
		"MemoryDecayHalfLife": rc.T.MemoryDecayHalfLife,
	}
	for name, v := range cases {
		if v == 0 {
			t.Errorf("%s left at zero value, expected a default", name)
		}
	}
	if rc.All.Control.ListenAddr == "" {
		t.Error("Control.ListenAddr left empty, expected a default")
	}
}

func TestNewRuntimeConfigPreservesExplicitValues(t *testing.T) {
	c := Config{Thresholds: Thresholds{MinGreenSeconds: 7, MaxGreenSeconds: 45, GapOutTicks: 9}}
	rc := NewRuntimeConfig(c)

	if rc.T.MinGreenSeconds != 7 {
		t.Errorf("MinGreenSeconds = %v, want 7 (explicit value should not be overwritten)", rc.T.MinGreenSeconds)
	}
	if rc.T.MaxGreenSeconds != 45 {
		t.Errorf("MaxGreenSeconds = %v, want 45", rc.T.MaxGreenSeconds)
	}
	if rc.T.GapOutTicks != 9 {
		t.Errorf("GapOutTicks = %v, want 9", rc.T.GapOutTicks)
	}
	// Untouched fields still get defaults.
	if rc.T.StarvationSeconds != 90 {
		t.Errorf("StarvationSeconds = %v, want default 90", rc.T.StarvationSeconds)
	}
}

func TestNewRuntimeConfigPreservesExplicitListenAddr(t *testing.T) {
	c := Config{Control: Control{ListenAddr: ":9999"}}
	rc := NewRuntimeConfig(c)
	if rc.All.Control.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", rc.All.Control.ListenAddr)
	}
}
