// Package adapter hides the external microscopic traffic simulator
// behind a fixed, narrow interface. Every method is fail-safe: a
// communication error with the simulator is caught, logged at debug
// level, and a sentinel default is returned so the control loop never
// stalls or terminates on a single adapter fault.
package adapter

import (
	"github.com/sirupsen/logrus"

	"github.com/junctionlab/signalcore/approach"
)

// VehicleType categorizes a vehicle as reported by the simulator.
type VehicleType int

const (
	Car VehicleType = iota
	Bike
	Bus
	Truck
	Lorry
	Auto
	Emergency
)

// VehicleID is an opaque identifier scoped to a vehicle's lifetime on the
// simulation; the core never persists it beyond the vehicle's presence on
// an approach.
type VehicleID string

// Adapter is the narrow interface every simulator binding must satisfy.
type Adapter interface {
	// Step advances the simulator by one unit of simulated time.
	Step() error
	// ListVehiclesOnEdge returns the vehicle identifiers currently on the
	// approach's incoming edge.
	ListVehiclesOnEdge(a approach.Approach) map[VehicleID]struct{}
	// VehicleSpeed returns a vehicle's speed in m/s, or ok=false if it
	// could not be determined.
	VehicleSpeed(id VehicleID) (speed float64, ok bool)
	// VehicleType returns a vehicle's category.
	VehicleType(id VehicleID) (VehicleType, bool)
	// CurrentTime returns the monotone non-decreasing simulated seconds.
	CurrentTime() float64
	// SetGreen enables the requested approach's green and all others'
	// red for duration seconds, replacing any in-flight command.
	SetGreen(a approach.Approach, durationSeconds float64) error
	// SetAllRed holds all approaches red for duration seconds.
	SetAllRed(durationSeconds float64) error
	// ApplySafeTransition inserts a 1-second all-red clearance before
	// granting the new green when from and to belong to different
	// groups; a same-group transition is direct.
	ApplySafeTransition(from, to approach.Approach, durationSeconds float64) error
	// Reset clears any internal caches associated with this adapter.
	Reset()
}

// clearanceSeconds is the fixed all-red clearance inserted between
// cross-group transitions.
const clearanceSeconds = 1.0

// Log is the module-tagged logger every adapter implementation uses to
// report swallowed communication failures at debug level.
var Log = logrus.WithField("module", "adapter")
