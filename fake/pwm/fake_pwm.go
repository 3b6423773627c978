// Package pwm is a spy standing in for the PCA9685 PWM fan-out device.
// Tests assert duty values and count writes to prove idempotence.
package pwm

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
)

type Write struct {
	Channel int
	On      gpio.Duty
	Off     gpio.Duty
}

type Spy struct {
	mu     sync.Mutex
	writes []Write

	// Err, when set, is returned by every SetPwm call.
	Err error
}

func New() *Spy {
	return &Spy{}
}

func (s *Spy) SetPwm(channel int, onTime, offTime gpio.Duty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.writes = append(s.writes, Write{Channel: channel, On: onTime, Off: offTime})
	return nil
}

// Writes returns a copy of every recorded write, in order.
func (s *Spy) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Write, len(s.writes))
	copy(out, s.writes)
	return out
}

// Count returns the number of hardware writes issued.
func (s *Spy) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// Last returns the most recent write for a channel, if any.
func (s *Spy) Last(channel int) (Write, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.writes) - 1; i >= 0; i-- {
		if s.writes[i].Channel == channel {
			return s.writes[i], true
		}
	}
	return Write{}, false
}
