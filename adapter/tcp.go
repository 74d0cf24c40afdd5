package adapter

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/junctionlab/signalcore/approach"
)

// TCPAdapter speaks a narrow, length-prefixed JSON protocol to an
// external simulator process over a single persistent TCP connection,
// generalized from a SUMO bridge's vehicle-data/command loop to this
// core's adapter operations.
type TCPAdapter struct {
	mu      sync.Mutex
	addr    string
	conn    net.Conn
	dialer  net.Dialer
	pending *pendingGreen
	lastT   float64
}

// NewTCPAdapter creates an adapter bound to addr; it dials lazily on the
// first operation that reaches the simulator so construction never fails.
func NewTCPAdapter(addr string) *TCPAdapter {
	return &TCPAdapter{addr: addr, dialer: net.Dialer{Timeout: 5 * time.Second}}
}

func (t *TCPAdapter) ensureConn() error {
	if t.conn != nil {
		return nil
	}
	conn, err := t.dialer.Dial("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("dial simulator %s: %w", t.addr, err)
	}
	t.conn = conn
	return nil
}

func (t *TCPAdapter) call(req wireRequest) (wireResponse, error) {
	if err := t.ensureConn(); err != nil {
		return wireResponse{}, err
	}
	if err := writeFrame(t.conn, req); err != nil {
		t.conn = nil
		return wireResponse{}, err
	}
	var resp wireResponse
	if err := readFrame(t.conn, &resp); err != nil {
		t.conn = nil
		return wireResponse{}, err
	}
	if !resp.OK {
		return resp, fmt.Errorf("simulator error: %s", resp.Error)
	}
	return resp, nil
}

func (t *TCPAdapter) Step() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	resp, err := t.call(wireRequest{Op: "step"})
	if err != nil {
		Log.WithError(err).Debug("adapter: step failed")
		return nil
	}
	t.lastT = resp.CurrentTime
	t.pending = advancePending(t.lastT, t.pending, t.setGreenNowLocked)
	return nil
}

func (t *TCPAdapter) ListVehiclesOnEdge(a approach.Approach) map[VehicleID]struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	resp, err := t.call(wireRequest{Op: "list_vehicles", Approach: a.String()})
	if err != nil {
		Log.WithError(err).Debug("adapter: list_vehicles failed")
		return map[VehicleID]struct{}{}
	}
	out := make(map[VehicleID]struct{}, len(resp.Vehicles))
	for _, id := range resp.Vehicles {
		out[VehicleID(id)] = struct{}{}
	}
	return out
}

func (t *TCPAdapter) VehicleSpeed(id VehicleID) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	resp, err := t.call(wireRequest{Op: "vehicle_speed", VehicleID: string(id)})
	if err != nil || !resp.SpeedKnown {
		if err != nil {
			Log.WithError(err).Debug("adapter: vehicle_speed failed")
		}
		return 0, false
	}
	return resp.Speed, true
}

func (t *TCPAdapter) VehicleType(id VehicleID) (VehicleType, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	resp, err := t.call(wireRequest{Op: "vehicle_type", VehicleID: string(id)})
	if err != nil || !resp.TypeKnown {
		if err != nil {
			Log.WithError(err).Debug("adapter: vehicle_type failed")
		}
		return 0, false
	}
	return parseVehicleType(resp.VehicleType), true
}

func parseVehicleType(s string) VehicleType {
	switch s {
	case "bike":
		return Bike
	case "bus":
		return Bus
	case "truck":
		return Truck
	case "lorry":
		return Lorry
	case "auto":
		return Auto
	case "emergency":
		return Emergency
	default:
		return Car
	}
}

func (t *TCPAdapter) CurrentTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastT
}

func (t *TCPAdapter) setGreenNowLocked(a approach.Approach, duration float64) error {
	_, err := t.call(wireRequest{Op: "set_green", Approach: a.String(), Duration: duration})
	return err
}

func (t *TCPAdapter) SetGreen(a approach.Approach, durationSeconds float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
	if err := t.setGreenNowLocked(a, durationSeconds); err != nil {
		Log.WithError(err).Debug("adapter: set_green failed")
	}
	return nil
}

func (t *TCPAdapter) SetAllRed(durationSeconds float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
	if _, err := t.call(wireRequest{Op: "set_all_red", Duration: durationSeconds}); err != nil {
		Log.WithError(err).Debug("adapter: set_all_red failed")
	}
	return nil
}

func (t *TCPAdapter) ApplySafeTransition(from, to approach.Approach, durationSeconds float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	pending, err := stageSafeTransition(t.lastT, from, to, durationSeconds, func(d float64) error {
		_, err := t.call(wireRequest{Op: "set_all_red", Duration: d})
		return err
	}, t.setGreenNowLocked)
	if err != nil {
		Log.WithError(err).Debug("adapter: safe transition failed")
		return nil
	}
	t.pending = pending
	return nil
}

func (t *TCPAdapter) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.pending = nil
	t.lastT = 0
}
