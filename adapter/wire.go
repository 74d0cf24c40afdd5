package adapter

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
)

// wireRequest/wireResponse are the narrow JSON envelope exchanged with the
// external simulator process, length-prefixed the way the reference
// SUMO-bridge implementation frames its vehicle-data/command exchange.
type wireRequest struct {
	Op       string  `json:"op"`
	Approach string  `json:"approach,omitempty"`
	VehicleID string `json:"vehicle_id,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

type wireResponse struct {
	OK           bool                `json:"ok"`
	Error        string              `json:"error,omitempty"`
	Vehicles     []string            `json:"vehicles,omitempty"`
	Speed        float64             `json:"speed,omitempty"`
	SpeedKnown   bool                `json:"speed_known,omitempty"`
	VehicleType  string              `json:"vehicle_type,omitempty"`
	TypeKnown    bool                `json:"type_known,omitempty"`
	CurrentTime  float64             `json:"current_time,omitempty"`
}

func writeFrame(conn net.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

func readFrame(conn net.Conn, v any) error {
	var lenBuf [4]byte
	if _, err := readFull(conn, lenBuf[:]); err != nil {
		return fmt.Errorf("read length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := readFull(conn, buf); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return json.Unmarshal(buf, v)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
