package config

// PersistencePath describes a dual file/database input source: a record
// sink may be backed by a local file or, when a URI is given, a MongoDB
// collection.
type PersistencePath struct {
	File string `yaml:"file,omitempty"` // local path, used when URI is empty
	URI  string `yaml:"uri,omitempty"`  // mongodb:// connection string
	DB   string `yaml:"db,omitempty"`
	Col  string `yaml:"col,omitempty"`
}

// Simulator configures how the adapter reaches the external simulator.
type Simulator struct {
	// Address is the opaque configuration path/address of the simulator
	// process as a TCP host:port, e.g. "localhost:5555", or "mock" for the in-memory
	// adapter used in tests and demos.
	Address string `yaml:"address"`
}

// Thresholds carries the control core's fixed operating constants so they
// remain configurable instead of literal magic numbers scattered in code.
type Thresholds struct {
	MaxQueuePerApproach int     `yaml:"max_queue_per_approach"`
	MinGreenSeconds     float64 `yaml:"min_green_seconds"`
	MaxGreenSeconds     float64 `yaml:"max_green_seconds"`
	EmergencyMinGreen   float64 `yaml:"emergency_min_green_seconds"`
	StarvationSeconds   float64 `yaml:"starvation_seconds"`
	GapOutTicks         int     `yaml:"gap_out_ticks"`
	DecisionIntervalSec int     `yaml:"decision_interval_seconds"`
	WaitingSpeedMps     float64 `yaml:"waiting_speed_mps"`
	ArrivalWindowSec    float64 `yaml:"arrival_window_seconds"`
	QueueHistorySec     float64 `yaml:"queue_history_seconds"`
	MemoryTopK          int     `yaml:"memory_top_k"`
	MemorySimThreshold  float64 `yaml:"memory_similarity_threshold"`
	MemoryConfidence    float64 `yaml:"memory_confidence_threshold"`
	MemoryDecayHalfLife float64 `yaml:"memory_decay_seconds"`
}

// Control is the HTTP control-interface listen address.
type Control struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level YAML document loaded at startup.
type Config struct {
	Simulator   Simulator       `yaml:"simulator"`
	Thresholds  Thresholds      `yaml:"thresholds"`
	Control     Control         `yaml:"control"`
	Experience  PersistencePath `yaml:"experience_store"`
	EventLogDir string          `yaml:"event_log_path"`
	LogLevel    string          `yaml:"log_level"`
}
