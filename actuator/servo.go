package actuator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
)

// ServoConfig describes one hobby servo channel on the 50Hz board.
// MinDuty/MaxDuty are the duty-cycle percentages of the period at 0% and
// 100% travel; the usual 1ms..2.5ms pulse at 50Hz is 2.5%..12.5%.
type ServoConfig struct {
	Channel int
	MinDuty float64
	MaxDuty float64
}

// Servo drives one position servo. Position percent maps linearly onto the
// duty span; there is no direction pin, the position encodes it.
type Servo struct {
	dev      Device
	cfg      ServoConfig
	last     int64
	haveLast bool
}

func NewServo(dev Device, cfg ServoConfig) *Servo {
	return &Servo{dev: dev, cfg: cfg}
}

// SetPercent commands a travel position in 0..100. Out-of-range input is
// clamped and still applied, and reported as ErrInvalidCommand. Repeating
// the same value issues no hardware write, to avoid PWM glitches.
func (s *Servo) SetPercent(p float64) error {
	clamped, cmdErr := clampPercent(p)
	if cmdErr != nil {
		log.WithFields(logrus.Fields{
			"channel": s.cfg.Channel,
			"percent": p,
		}).Warn("clamping out-of-range servo command")
	}

	duty := s.cfg.MinDuty + clamped/100*(s.cfg.MaxDuty-s.cfg.MinDuty)
	off := dutyTicks(duty)

	if s.haveLast && int64(off) == s.last {
		return cmdErr
	}

	if err := s.dev.SetPwm(s.cfg.Channel, 0, off); err != nil {
		return fmt.Errorf("servo channel %d: %w", s.cfg.Channel, err)
	}
	s.last = int64(off)
	s.haveLast = true
	return cmdErr
}

// SetDirection is accepted for interface symmetry; a position servo has no
// direction pin. An undefined direction is still rejected.
func (s *Servo) SetDirection(d arm.Direction) error {
	if !d.Valid() {
		return ErrInvalidCommand
	}
	return nil
}

// Stop drops the pulse entirely, leaving the servo unpowered rather than
// holding its last position.
func (s *Servo) Stop() error {
	if s.haveLast && s.last == 0 {
		return nil
	}
	if err := s.dev.SetPwm(s.cfg.Channel, 0, 0); err != nil {
		return fmt.Errorf("servo channel %d: stop: %w", s.cfg.Channel, err)
	}
	s.last = 0
	s.haveLast = true
	return nil
}
