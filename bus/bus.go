// Package bus serializes access to the I2C bus shared by every sensor on the
// arm. Joint tasks run concurrently and may address different devices at the
// same time, so each transaction takes an exclusive gate; waiting on the gate
// is bounded, and exceeding the bound is reported as contention rather than
// blocking the control loop.
package bus

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// ErrContention is returned when the exclusive gate cannot be acquired within
// the configured wait. Callers treat it like a sensor timeout for that cycle.
var ErrContention = errors.New("bus contention timeout")

// DefaultWait bounds the gate acquisition. A full transaction at 100kHz is
// well under a millisecond, so a waiter that sits this long is stuck behind
// something wedged, not merely queued.
const DefaultWait = 20 * time.Millisecond

// Shared wraps an i2c.Bus with mutual exclusion. It implements i2c.Bus
// itself, so device clients work against either the real wrapped bus or a
// fake.
type Shared struct {
	inner i2c.Bus
	gate  chan struct{}
	wait  time.Duration
}

// NewShared wraps inner. A wait of zero selects DefaultWait.
func NewShared(inner i2c.Bus, wait time.Duration) *Shared {
	if wait == 0 {
		wait = DefaultWait
	}
	return &Shared{
		inner: inner,
		gate:  make(chan struct{}, 1),
		wait:  wait,
	}
}

// Tx performs one serialized transaction. A contention timeout leaves the
// gate untouched for whoever holds it; the next independent transaction is
// unaffected.
func (s *Shared) Tx(addr uint16, w, r []byte) error {
	select {
	case s.gate <- struct{}{}:
	case <-time.After(s.wait):
		return fmt.Errorf("%w (waited %s for device 0x%02x)", ErrContention, s.wait, addr)
	}
	defer func() { <-s.gate }()

	return s.inner.Tx(addr, w, r)
}

func (s *Shared) String() string {
	return fmt.Sprintf("shared(%s)", s.inner)
}

func (s *Shared) SetSpeed(f physic.Frequency) error {
	return s.inner.SetSpeed(f)
}
