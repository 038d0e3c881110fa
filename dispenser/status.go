package dispenser

import (
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/pourd/pour"
)

type State int

const (
	Idle State = iota
	Dispensing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispensing:
		return "dispensing"
	default:
		return "invalid"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "dispensing":
		*s = Dispensing
	default:
		return errors.Errorf("unknown state %q", text)
	}

	return nil
}

// Status is a snapshot of what the machine is doing.
type Status struct {
	State   State     `json:"state"`
	Busy    bool      `json:"busy"`
	Message string    `json:"message"`
	Portion string    `json:"portion"`
	Label   string    `json:"label,omitempty"`
	Kind    pour.Kind `json:"kind,omitempty"`
	PlanID  string    `json:"plan_id,omitempty"`
	Started time.Time `json:"started,omitempty"`
	Ends    time.Time `json:"ends,omitempty"`
}

type EventType string

const (
	EventStatusChanged EventType = "status_changed"
	EventPlanCompleted EventType = "plan_completed"
)

// Event is published to status subscribers.
type Event struct {
	Type      EventType  `json:"type"`
	Status    Status     `json:"status"`
	Plan      *pour.Plan `json:"plan,omitempty"`
	Cancelled bool       `json:"cancelled,omitempty"`
}
