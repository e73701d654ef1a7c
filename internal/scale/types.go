package scale

import (
	"encoding/json"
	"time"
)

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Simulating
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Simulating:
		return "simulating"
	default:
		return "disconnected"
	}
}

func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type WeightSample struct {
	Value     float64
	Timestamp time.Time
}

type WeightUpdate struct {
	Weight       float64
	Stable       bool
	StableWeight float64
	Simulation   bool
	Timestamp    time.Time
}

type Status struct {
	State      ConnectionState
	Connected  bool
	Simulation bool
	Port       string
	BaudRate   int
}

const (
	EventWeight = "weight"
	EventStatus = "status"
)

// Event is what subscribers receive: either a weight update or a status
// change, discriminated by Type.
type Event struct {
	Type   string
	Weight WeightUpdate
	Status Status
}

func WeightEvent(u WeightUpdate) Event {
	return Event{Type: EventWeight, Weight: u}
}

func StatusEvent(s Status) Event {
	return Event{Type: EventStatus, Status: s}
}

type weightMessage struct {
	Type         string  `json:"type"`
	Weight       float64 `json:"weight"`
	Stable       bool    `json:"stable"`
	StableWeight float64 `json:"stableWeight"`
	Simulation   bool    `json:"simulation"`
	Timestamp    int64   `json:"timestamp"`
}

type statusMessage struct {
	Type       string          `json:"type"`
	Connected  bool            `json:"connected"`
	Simulation bool            `json:"simulation"`
	State      ConnectionState `json:"state"`
	Port       string          `json:"port,omitempty"`
	BaudRate   int             `json:"baudRate,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.Type == EventWeight {
		return json.Marshal(weightMessage{
			Type:         EventWeight,
			Weight:       e.Weight.Weight,
			Stable:       e.Weight.Stable,
			StableWeight: e.Weight.StableWeight,
			Simulation:   e.Weight.Simulation,
			Timestamp:    e.Weight.Timestamp.UnixMilli(),
		})
	}

	return json.Marshal(statusMessage{
		Type:       EventStatus,
		Connected:  e.Status.Connected,
		Simulation: e.Status.Simulation,
		State:      e.Status.State,
		Port:       e.Status.Port,
		BaudRate:   e.Status.BaudRate,
	})
}
