package arm

import (
	"sync"

	"github.com/ZackeryPlovanic/controlsystems2019/imu"
)

// Name identifies one logical joint. The wrist differential gearbox is
// exposed as two logical joints (pitch and roll) over one pair of motors.
type Name string

const (
	Rotunda    Name = "rotunda"
	Elbow      Name = "elbow"
	Shoulder   Name = "shoulder"
	WristPitch Name = "wrist_pitch"
	WristRoll  Name = "wrist_roll"
	Claw       Name = "claw"
)

// AllJoints returns the joint names in supervisor spawn order.
func AllJoints() []Name {
	return []Name{Rotunda, Elbow, Shoulder, WristPitch, WristRoll, Claw}
}

// Direction is the commanded actuation direction. For position servos it is
// ignored (the target encodes it); for motors it drives the direction pin.
type Direction int

const (
	Stop Direction = iota
	Forward
	Reverse
)

// Valid reports whether the direction is one of the defined values. Commands
// arrive from an external supervisory layer, so this must be checked every
// cycle rather than trusted.
func (d Direction) Valid() bool {
	return d >= Stop && d <= Reverse
}

func (d Direction) String() string {
	switch d {
	case Stop:
		return "stop"
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	}
	return "invalid"
}

// Fault is the last fault recorded by a joint task.
type Fault int

const (
	FaultNone Fault = iota
	FaultOutOfRange
	FaultSensorTimeout
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultOutOfRange:
		return "out-of-range"
	case FaultSensorTimeout:
		return "sensor-timeout"
	}
	return "unknown"
}

// Phase is the joint task state machine position.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseRunning
	PhaseFaulted
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseRunning:
		return "running"
	case PhaseFaulted:
		return "faulted"
	case PhaseStopped:
		return "stopped"
	}
	return "unknown"
}

// Command is one supervisory target for a joint. Target is in joint units
// (degrees or counts, per the joint's limit range); Speed is a signed percent
// magnitude for open-loop motors.
type Command struct {
	Target    float64
	Speed     int
	Direction Direction
}

// State is the last published state of a joint. Owned exclusively by the
// joint task that produces it; read-only everywhere else.
type State struct {
	Position float64
	Sample   imu.Sample
	Fault    Fault
	Phase    Phase
}

// slot holds the command and state for a single joint. Each slot has its own
// lock so that unrelated joints never contend with each other.
type slot struct {
	mu    sync.Mutex
	cmd   Command
	seq   uint64
	state State
}

// Store is the shared parameter store: the supervisory layer posts commands
// into it, and each joint task publishes its own state slot.
type Store struct {
	slots map[Name]*slot
}

// NewStore creates a store with one slot per named joint.
func NewStore(names ...Name) *Store {
	slots := make(map[Name]*slot, len(names))
	for _, n := range names {
		slots[n] = &slot{}
	}
	return &Store{slots: slots}
}

// PostCommand replaces the pending command for a joint. Each post bumps the
// slot's sequence number, which is how joint tasks distinguish a fresh
// (corrected) command from a stale one while faulted or stopped.
func (s *Store) PostCommand(j Name, c Command) {
	sl := s.slots[j]
	sl.mu.Lock()
	sl.cmd = c
	sl.seq++
	sl.mu.Unlock()
}

// Halt posts an immediate stop command to one joint. The owning task must
// observe it within one control period.
func (s *Store) Halt(j Name) {
	s.PostCommand(j, Command{Direction: Stop})
}

// HaltAll halts every joint.
func (s *Store) HaltAll() {
	for j := range s.slots {
		s.Halt(j)
	}
}

// Command returns a non-blocking snapshot of the pending command and its
// sequence number.
func (s *Store) Command(j Name) (Command, uint64) {
	sl := s.slots[j]
	sl.mu.Lock()
	c, seq := sl.cmd, sl.seq
	sl.mu.Unlock()
	return c, seq
}

// PublishState records the joint's state for external observers.
func (s *Store) PublishState(j Name, st State) {
	sl := s.slots[j]
	sl.mu.Lock()
	sl.state = st
	sl.mu.Unlock()
}

// State returns a snapshot of the joint's last published state.
func (s *Store) State(j Name) State {
	sl := s.slots[j]
	sl.mu.Lock()
	st := sl.state
	sl.mu.Unlock()
	return st
}
