package actuator

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
)

// MotorConfig describes one DC gearmotor: an enable PWM channel on the motor
// board plus a direction GPIO. The claw's linear actuator is the same shape,
// with its phase pin as the direction.
type MotorConfig struct {
	Channel int
	Dir     gpio.PinOut
}

// Motor drives one DC motor. Enable percent maps directly onto the duty
// cycle; forward/reverse toggles the direction pin.
type Motor struct {
	dev       Device
	cfg       MotorConfig
	last      int64
	haveLast  bool
	level     gpio.Level
	haveLevel bool
}

func NewMotor(dev Device, cfg MotorConfig) *Motor {
	return &Motor{dev: dev, cfg: cfg}
}

// SetPercent commands the enable duty in 0..100, clamping out-of-range input
// and reporting it as ErrInvalidCommand. Identical repeats issue no write.
func (m *Motor) SetPercent(p float64) error {
	clamped, cmdErr := clampPercent(p)
	if cmdErr != nil {
		log.WithFields(logrus.Fields{
			"channel": m.cfg.Channel,
			"percent": p,
		}).Warn("clamping out-of-range motor command")
	}

	off := dutyTicks(clamped)
	if m.haveLast && int64(off) == m.last {
		return cmdErr
	}

	if err := m.dev.SetPwm(m.cfg.Channel, 0, off); err != nil {
		return fmt.Errorf("motor channel %d: %w", m.cfg.Channel, err)
	}
	m.last = int64(off)
	m.haveLast = true
	return cmdErr
}

// SetDirection sets the direction pin: forward high, reverse low. Stop is
// handled by zeroing the enable duty, not the pin. Repeated identical levels
// issue no GPIO write.
func (m *Motor) SetDirection(d arm.Direction) error {
	var level gpio.Level
	switch d {
	case arm.Forward:
		level = gpio.High
	case arm.Reverse:
		level = gpio.Low
	case arm.Stop:
		return m.Stop()
	default:
		return ErrInvalidCommand
	}

	if m.haveLevel && level == m.level {
		return nil
	}
	if err := m.cfg.Dir.Out(level); err != nil {
		return fmt.Errorf("motor channel %d: direction: %w", m.cfg.Channel, err)
	}
	m.level = level
	m.haveLevel = true
	return nil
}

// Stop zeroes the enable duty immediately.
func (m *Motor) Stop() error {
	if m.haveLast && m.last == 0 {
		return nil
	}
	if err := m.dev.SetPwm(m.cfg.Channel, 0, 0); err != nil {
		return fmt.Errorf("motor channel %d: stop: %w", m.cfg.Channel, err)
	}
	m.last = 0
	m.haveLast = true
	return nil
}
