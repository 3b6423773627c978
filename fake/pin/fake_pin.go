// Package pin is a recording stand-in for a direction GPIO.
package pin

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin implements gpio.PinOut, recording every level written.
type Pin struct {
	mu     sync.Mutex
	name   string
	levels []gpio.Level
}

func New(name string) *Pin {
	return &Pin{name: name}
}

func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels = append(p.levels, l)
	return nil
}

// Levels returns every level written, in order.
func (p *Pin) Levels() []gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]gpio.Level, len(p.levels))
	copy(out, p.levels)
	return out
}

// Level returns the last written level, defaulting low.
func (p *Pin) Level() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.levels) == 0 {
		return gpio.Low
	}
	return p.levels[len(p.levels)-1]
}

func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return nil
}

func (p *Pin) String() string   { return p.name }
func (p *Pin) Name() string     { return p.name }
func (p *Pin) Number() int      { return -1 }
func (p *Pin) Function() string { return "Out" }
func (p *Pin) Halt() error      { return nil }
