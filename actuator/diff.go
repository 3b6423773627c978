package actuator

import (
	"math"
	"sync"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
)

// DiffPair is the wrist differential gearbox: two motors whose sum drives
// pitch and whose difference drives roll. The pitch and roll joint tasks
// each hold one axis view; a single lock keeps the mixed output coherent
// when both tasks actuate in the same cycle.
type DiffPair struct {
	mu    sync.Mutex
	left  *Motor
	right *Motor
	pitch float64 // signed percent
	roll  float64 // signed percent
}

func NewDiffPair(left, right *Motor) *DiffPair {
	return &DiffPair{left: left, right: right}
}

// Pitch returns the actuator view driving both motors the same way.
func (p *DiffPair) Pitch() *DiffAxis {
	return &DiffAxis{pair: p, roll: false}
}

// Roll returns the actuator view driving the motors opposed.
func (p *DiffPair) Roll() *DiffAxis {
	return &DiffAxis{pair: p, roll: true}
}

// apply remixes both axis demands onto the two motors. Caller holds p.mu.
func (p *DiffPair) apply() error {
	left := p.pitch + p.roll
	right := p.pitch - p.roll

	if err := p.drive(p.left, left); err != nil {
		return err
	}
	return p.drive(p.right, right)
}

func (p *DiffPair) drive(m *Motor, signed float64) error {
	mag := math.Min(math.Abs(signed), 100)
	if mag == 0 {
		return m.Stop()
	}

	dir := arm.Forward
	if signed < 0 {
		dir = arm.Reverse
	}
	if err := m.SetDirection(dir); err != nil {
		return err
	}
	return m.SetPercent(mag)
}

// DiffAxis is one logical joint's handle on the pair. It satisfies the same
// contract as Servo and Motor.
type DiffAxis struct {
	pair *DiffPair
	roll bool
	mag  float64
	dir  arm.Direction
}

func (a *DiffAxis) SetPercent(p float64) error {
	clamped, cmdErr := clampPercent(p)
	a.mag = clamped
	if err := a.update(); err != nil {
		return err
	}
	return cmdErr
}

func (a *DiffAxis) SetDirection(d arm.Direction) error {
	if !d.Valid() {
		return ErrInvalidCommand
	}
	a.dir = d
	return a.update()
}

func (a *DiffAxis) Stop() error {
	a.mag = 0
	a.dir = arm.Stop
	return a.update()
}

func (a *DiffAxis) update() error {
	signed := a.mag
	switch a.dir {
	case arm.Reverse:
		signed = -signed
	case arm.Stop:
		signed = 0
	}

	a.pair.mu.Lock()
	defer a.pair.mu.Unlock()
	if a.roll {
		a.pair.roll = signed
	} else {
		a.pair.pitch = signed
	}
	return a.pair.apply()
}
