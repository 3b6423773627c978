// Package actuator converts normalized position/speed/direction commands
// into PWM duty cycles and direction-pin states. All channels hang off
// PCA9685 PWM fan-out boards: one strapped for 50Hz hobby servos, one for
// the DC gearmotor enable lines.
package actuator

import (
	"errors"
	"math"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "actuator",
})

// ErrInvalidCommand is returned when a commanded percent falls outside
// [0,100] or a direction is not a defined value. The driver clamps and
// applies a safe value anyway; undefined duty cycles must never reach
// hardware.
var ErrInvalidCommand = errors.New("invalid actuator command")

// PWM fan-out device addresses, selected by the address straps.
const (
	ServoBoardAddr uint16 = 0x40
	MotorBoardAddr uint16 = 0x41
)

// ticks is the PCA9685 counter resolution per PWM period.
const ticks = 4096

// Device is the PWM fan-out chip as seen by the actuators. Satisfied by
// *pca9685.Dev and by the spy in fake/pwm.
type Device interface {
	SetPwm(channel int, onTime, offTime gpio.Duty) error
}

// dutyTicks converts a duty-cycle percentage of the period into an off-tick
// count for the device.
func dutyTicks(pct float64) gpio.Duty {
	return gpio.Duty(math.Round(pct / 100 * (ticks - 1)))
}

// clampPercent constrains p to [0,100], reporting ErrInvalidCommand when it
// had to.
func clampPercent(p float64) (float64, error) {
	if p < 0 {
		return 0, ErrInvalidCommand
	}
	if p > 100 {
		return 100, ErrInvalidCommand
	}
	return p, nil
}
