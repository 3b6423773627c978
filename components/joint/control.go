package joint

import (
	"math"
	"time"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
)

// actuate computes the actuator demand for one cycle, applies the limit
// policy, and drives the hardware with the clamped value and commanded
// direction. It reports whether the command had to be clamped; the returned
// error is the actuator's complaint about out-of-range demand, already
// applied safely.
func (t *Task) actuate(cmd arm.Command, dt time.Duration) (bool, error) {
	switch t.cfg.Mode {
	case ModeMotorOpen:
		return t.actuateOpenMotor(cmd)
	case ModeMotorClosed:
		return t.actuateClosedMotor(cmd, dt)
	default:
		return t.actuateServo(cmd)
	}
}

// actuateServo maps the clamped target straight onto travel percent. Open
// loop: the published position tracks the (optionally smoothed) target.
func (t *Task) actuateServo(cmd arm.Command) (bool, error) {
	clamped, wasClamped := t.cfg.Limits.Clamp(cmd.Target)

	t.position = smooth(t.position, clamped, t.cfg.Alpha)
	pct := t.cfg.Limits.PercentOf(t.position)

	return wasClamped, t.act.SetPercent(pct)
}

// actuateClosedMotor drives the motor from the error between the clamped
// target and the sensor-fed position estimate. The PID output sign picks the
// direction, its magnitude the enable duty.
func (t *Task) actuateClosedMotor(cmd arm.Command, dt time.Duration) (bool, error) {
	clamped, wasClamped := t.cfg.Limits.Clamp(cmd.Target)

	t.pid.Set(clamped)
	out := t.pid.UpdateDuration(t.position, dt)

	dir := arm.Forward
	if out < 0 {
		dir = arm.Reverse
	}
	if err := t.act.SetDirection(dir); err != nil {
		return wasClamped, err
	}
	return wasClamped, t.act.SetPercent(math.Abs(out))
}

// actuateOpenMotor maps the commanded speed magnitude onto enable duty,
// bounded by the joint's limit range, with the commanded direction.
func (t *Task) actuateOpenMotor(cmd arm.Command) (bool, error) {
	clamped, wasClamped := t.cfg.Limits.Clamp(math.Abs(float64(cmd.Speed)))

	if err := t.act.SetDirection(cmd.Direction); err != nil {
		return wasClamped, err
	}
	if err := t.act.SetPercent(clamped); err != nil {
		return wasClamped, err
	}

	t.position = clamped
	return wasClamped, nil
}

// smooth blends the current value toward the target with an exponential
// moving average. Alpha outside (0,1) disables smoothing.
func smooth(current, target, alpha float64) float64 {
	if alpha <= 0 || alpha >= 1 {
		return target
	}
	return target*alpha + current*(1-alpha)
}
