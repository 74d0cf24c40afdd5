package adapter

import (
	"sync"

	"github.com/google/uuid"

	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/randengine"
)

// ArrivalProfile controls how often new vehicles appear on one approach
// of the mock simulator.
type ArrivalProfile struct {
	// ArrivalProbabilityPerSecond is the chance a new vehicle appears on
	// this approach in a given simulated second.
	ArrivalProbabilityPerSecond float64
	// StoppedProbability is the chance an on-edge vehicle is reported as
	// stopped (speed below the waiting threshold) rather than moving.
	StoppedProbability float64
	// VehicleType is the category assigned to generated vehicles; set to
	// Emergency to script an emergency-preemption scenario.
	VehicleType VehicleType
}

type mockVehicle struct {
	id      VehicleID
	vtype   VehicleType
	stopped bool
}

// MockAdapter is an in-memory Adapter implementation driven by a seeded
// random engine, used by tests and the -mock CLI flag when no live
// simulator is available.
type MockAdapter struct {
	mu sync.Mutex

	gen *randengine.Engine

	clock     float64
	vehicles  map[approach.Approach][]mockVehicle
	profiles  map[approach.Approach]ArrivalProfile
	greenNow  approach.Approach
	greenOk   bool
	remaining float64
	pending   *pendingGreen
}

// NewMockAdapter builds a mock adapter seeded deterministically; profiles
// may be customized per approach via SetProfile before use.
func NewMockAdapter(seed uint64) *MockAdapter {
	m := &MockAdapter{
		gen:      randengine.New(seed),
		vehicles: make(map[approach.Approach][]mockVehicle),
		profiles: make(map[approach.Approach]ArrivalProfile),
	}
	for _, a := range approach.All {
		m.profiles[a] = ArrivalProfile{ArrivalProbabilityPerSecond: 0.1, StoppedProbability: 0.5, VehicleType: Car}
	}
	return m
}

// SetProfile overrides the arrival behaviour for one approach.
func (m *MockAdapter) SetProfile(a approach.Approach, p ArrivalProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[a] = p
}

// InjectVehicle forces a specific vehicle onto an approach's edge,
// primarily used by tests to script an emergency vehicle deterministically.
func (m *MockAdapter) InjectVehicle(a approach.Approach, vt VehicleType, stopped bool) VehicleID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := VehicleID(uuid.NewString())
	m.vehicles[a] = append(m.vehicles[a], mockVehicle{id: id, vtype: vt, stopped: stopped})
	return id
}

func (m *MockAdapter) Step() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock += 1.0
	if m.remaining > 0 {
		m.remaining -= 1.0
	}
	for _, a := range approach.All {
		profile := m.profiles[a]
		if m.gen.PTrueSafe(profile.ArrivalProbabilityPerSecond) {
			m.vehicles[a] = append(m.vehicles[a], mockVehicle{
				id:      VehicleID(uuid.NewString()),
				vtype:   profile.VehicleType,
				stopped: m.gen.PTrueSafe(profile.StoppedProbability),
			})
		}
		// Vehicles on the green approach depart probabilistically.
		if m.greenOk && m.greenNow == a && len(m.vehicles[a]) > 0 {
			kept := m.vehicles[a][:0]
			for _, v := range m.vehicles[a] {
				if !v.stopped && m.gen.PTrueSafe(0.3) {
					continue // departs
				}
				kept = append(kept, v)
			}
			m.vehicles[a] = kept
		}
	}
	pending := advancePending(m.clock, m.pending, m.setGreenNowLocked)
	m.pending = pending
	return nil
}

func (m *MockAdapter) ListVehiclesOnEdge(a approach.Approach) map[VehicleID]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[VehicleID]struct{}, len(m.vehicles[a]))
	for _, v := range m.vehicles[a] {
		out[v.id] = struct{}{}
	}
	return out
}

func (m *MockAdapter) VehicleSpeed(id VehicleID) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, vs := range m.vehicles {
		for _, v := range vs {
			if v.id == id {
				if v.stopped {
					return 0, true
				}
				return 8.0, true
			}
		}
	}
	return 0, false
}

func (m *MockAdapter) VehicleType(id VehicleID) (VehicleType, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, vs := range m.vehicles {
		for _, v := range vs {
			if v.id == id {
				return v.vtype, true
			}
		}
	}
	return 0, false
}

func (m *MockAdapter) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

func (m *MockAdapter) setGreenNowLocked(a approach.Approach, duration float64) error {
	m.greenNow = a
	m.greenOk = true
	m.remaining = duration
	return nil
}

func (m *MockAdapter) SetGreen(a approach.Approach, durationSeconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	return m.setGreenNowLocked(a, durationSeconds)
}

func (m *MockAdapter) SetAllRed(durationSeconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.greenOk = false
	m.remaining = durationSeconds
	return nil
}

func (m *MockAdapter) ApplySafeTransition(from, to approach.Approach, durationSeconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending, err := stageSafeTransition(m.clock, from, to, durationSeconds, func(d float64) error {
		m.pending = nil
		m.greenOk = false
		m.remaining = d
		return nil
	}, m.setGreenNowLocked)
	if err != nil {
		Log.WithError(err).Debug("mock adapter: safe transition failed")
		return nil
	}
	m.pending = pending
	return nil
}

func (m *MockAdapter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles = make(map[approach.Approach][]mockVehicle)
	m.clock = 0
	m.greenOk = false
	m.remaining = 0
	m.pending = nil
}
