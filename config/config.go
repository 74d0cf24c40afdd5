package config

// RuntimeConfig derives the fixed operating parameters the core needs
// from the raw YAML document, filling in defaults for anything left at
// zero value.
type RuntimeConfig struct {
	All Config
	T   Thresholds
}

// NewRuntimeConfig fills in defaults wherever the YAML document leaves a
// threshold at zero value.
func NewRuntimeConfig(c Config) *RuntimeConfig {
	t := c.Thresholds
	if t.MaxQueuePerApproach == 0 {
		t.MaxQueuePerApproach = 40
	}
	if t.MinGreenSeconds == 0 {
		t.MinGreenSeconds = 10
	}
	if t.MaxGreenSeconds == 0 {
		t.MaxGreenSeconds = 60
	}
	if t.EmergencyMinGreen == 0 {
		t.EmergencyMinGreen = 15
	}
	if t.StarvationSeconds == 0 {
		t.StarvationSeconds = 90
	}
	if t.GapOutTicks == 0 {
		t.GapOutTicks = 3
	}
	if t.DecisionIntervalSec == 0 {
		t.DecisionIntervalSec = 5
	}
	if t.WaitingSpeedMps == 0 {
		t.WaitingSpeedMps = 2.0
	}
	if t.ArrivalWindowSec == 0 {
		t.ArrivalWindowSec = 60
	}
	if t.QueueHistorySec == 0 {
		t.QueueHistorySec = 30
	}
	if t.MemoryTopK == 0 {
		t.MemoryTopK = 5
	}
	if t.MemorySimThreshold == 0 {
		t.MemorySimThreshold = 0.5
	}
	if t.MemoryConfidence == 0 {
		t.MemoryConfidence = 0.7
	}
	if t.MemoryDecayHalfLife == 0 {
		t.MemoryDecayHalfLife = 900
	}
	if c.Control.ListenAddr == "" {
		c.Control.ListenAddr = ":8090"
	}
	c.Thresholds = t
	return &RuntimeConfig{All: c, T: t}
}
