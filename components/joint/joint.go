// Package joint implements the per-joint periodic control task: read the
// shared command slot, sample feedback, enforce travel limits, drive the
// actuator, publish state. One Task is instantiated per logical joint.
package joint

import (
	"time"

	"github.com/felixge/pidctrl"
	"github.com/sirupsen/logrus"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
	"github.com/ZackeryPlovanic/controlsystems2019/imu"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "joint",
})

// Mode selects how a command becomes an actuator percentage.
type Mode int

const (
	// ModeServo maps the clamped target position directly onto travel
	// percent. Open loop: position is assumed reached within one period.
	ModeServo Mode = iota

	// ModeMotorClosed drives a motor from the position error against the
	// sensor feedback.
	ModeMotorClosed

	// ModeMotorOpen drives a motor from the commanded speed and direction;
	// the limit range bounds the speed percent.
	ModeMotorOpen
)

// DefaultMaxFailures is how many consecutive sensor failures a joint
// tolerates before faulting. Retries happen every cycle with no backoff, so
// this bounds the fault latency to a few control periods.
const DefaultMaxFailures = 3

// Actuator is the hardware output contract. Satisfied by actuator.Servo,
// actuator.Motor and actuator.DiffAxis.
type Actuator interface {
	SetPercent(p float64) error
	SetDirection(d arm.Direction) error
	Stop() error
}

// Axis selects which feedback angle a closed-loop joint tracks.
type Axis int

const (
	AxisYaw Axis = iota
	AxisRoll
	AxisPitch
)

// Config is one joint's immutable configuration, passed at spawn time. No
// task reads another task's config.
type Config struct {
	Name     arm.Name
	Period   time.Duration
	Priority int // diagnostic label only; goroutines have no priorities
	Limits   arm.Range
	Start    float64 // initial position / target before the first command
	Mode     Mode
	Axis     Axis    // feedback axis for closed-loop joints
	Alpha    float64 // open-loop target smoothing; 0 or 1 disables
	P, I, D  float64 // closed-loop gains

	// MaxFailures overrides DefaultMaxFailures when positive.
	MaxFailures int
}

// Task is one joint's control loop state. All fields are owned by the
// task's goroutine; the outside world sees only the published State.
type Task struct {
	cfg    Config
	store  *arm.Store
	act    Actuator
	sensor imu.Sensor
	pid    *pidctrl.PIDController
	jlog   *logrus.Entry

	phase    arm.Phase
	fault    arm.Fault
	position float64
	sample   imu.Sample
	failures int
	seenSeq  uint64
	faultSeq uint64
	lastTick time.Time
}

// New creates a joint task. sensor is nil for joints without feedback.
func New(cfg Config, store *arm.Store, act Actuator, sensor imu.Sensor) *Task {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}

	t := &Task{
		cfg:      cfg,
		store:    store,
		act:      act,
		sensor:   sensor,
		phase:    arm.PhaseInit,
		position: cfg.Start,
		jlog: log.WithFields(logrus.Fields{
			"joint":    string(cfg.Name),
			"priority": cfg.Priority,
		}),
	}

	if cfg.Mode == ModeMotorClosed {
		t.pid = pidctrl.NewPIDController(cfg.P, cfg.I, cfg.D)
		t.pid.SetOutputLimits(-100, 100)
		t.pid.Set(cfg.Start)
	}

	return t
}

func (t *Task) Name() string {
	return string(t.cfg.Name)
}

func (t *Task) Period() time.Duration {
	return t.cfg.Period
}

// Boot moves the joint to its start position so the first command has a
// known origin. Servos get their start duty; motors stay stopped.
func (t *Task) Boot() error {
	if t.cfg.Mode == ModeServo {
		pct := t.cfg.Limits.PercentOf(clampedStart(t.cfg))
		if err := t.act.SetPercent(pct); err != nil {
			return err
		}
		return nil
	}
	return t.act.Stop()
}

func clampedStart(cfg Config) float64 {
	v, _ := cfg.Limits.Clamp(cfg.Start)
	return v
}

// Tick runs one control cycle. The steps are strictly sequential: command
// snapshot, sensor sample, limit clamp, actuation, publish. Nothing here is
// ever fatal to the process; a joint that cannot actuate safely stops itself
// and keeps reporting its fault.
func (t *Task) Tick(now time.Time) error {
	dt := now.Sub(t.lastTick)
	if t.lastTick.IsZero() || dt <= 0 {
		dt = t.cfg.Period
	}
	t.lastTick = now

	// 1. Non-blocking snapshot of the pending command.
	cmd, seq := t.store.Command(t.cfg.Name)
	fresh := seq != t.seenSeq
	t.seenSeq = seq

	// A malformed command is logged and ignored for this cycle only.
	if !cmd.Direction.Valid() {
		t.jlog.WithFields(logrus.Fields{
			"direction": int(cmd.Direction),
		}).Warn("ignoring malformed command")
		t.publish()
		return nil
	}

	// 2. Sample feedback, if configured. Errors keep the previous position
	// estimate and bump the consecutive-failure counter.
	if t.sensor != nil {
		sample, err := t.sensor.Read()
		if err != nil {
			t.failures++
			t.jlog.WithFields(logrus.Fields{
				"error":    err,
				"failures": t.failures,
			}).Warn("sensor read failed")
		} else {
			t.failures = 0
			t.sample = sample
			t.position = feedback(sample, t.cfg.Axis)
		}
	}

	// Before the first command is posted the slot still holds its zero
	// value, which must not read as a halt: hold the boot position and
	// stay in Init until the supervisory layer says something.
	if seq == 0 {
		t.publish()
		return nil
	}

	// An explicit halt is honored before anything else, within this cycle.
	// The actuator Stop lands before the task re-enters its wait state.
	if cmd.Direction == arm.Stop {
		if t.phase != arm.PhaseStopped {
			if err := t.act.Stop(); err != nil {
				t.jlog.WithField("error", err).Error("stop failed")
			}
			t.jlog.Info("halted")
			t.phase = arm.PhaseStopped
		}
		t.fault = arm.FaultNone
		t.publish()
		return nil
	}

	// Escalate persistent sensor failures. Actuation stops on the
	// transition cycle and stays stopped until a fresh command arrives.
	if t.sensor != nil && t.failures >= t.cfg.MaxFailures {
		if t.phase != arm.PhaseFaulted {
			if err := t.act.Stop(); err != nil {
				t.jlog.WithField("error", err).Error("stop failed")
			}
			t.faultSeq = seq
			t.jlog.WithField("failures", t.failures).Error("sensor fault, halting actuation")
		}
		t.phase = arm.PhaseFaulted
		t.fault = arm.FaultSensorTimeout
		t.publish()
		return nil
	}

	switch t.phase {
	case arm.PhaseFaulted:
		// Recover only on a command posted after the fault.
		if seq == t.faultSeq {
			t.publish()
			return nil
		}
		t.jlog.Info("fault cleared, resuming")
		t.phase = arm.PhaseRunning

	case arm.PhaseStopped:
		// A stopped joint resumes only on a fresh command.
		if !fresh {
			t.publish()
			return nil
		}
		t.phase = arm.PhaseRunning

	case arm.PhaseInit:
		t.phase = arm.PhaseRunning
	}

	// 3-5. Compute the actuator demand, clamp it, and drive the hardware.
	wasClamped, err := t.actuate(cmd, dt)
	if err != nil {
		t.jlog.WithField("error", err).Warn("actuation rejected command")
	}

	if wasClamped {
		t.fault = arm.FaultOutOfRange
	} else {
		t.fault = arm.FaultNone
	}

	// 6. Publish; the caller then suspends until the next period.
	t.publish()
	return nil
}

func (t *Task) publish() {
	t.store.PublishState(t.cfg.Name, arm.State{
		Position: t.position,
		Sample:   t.sample,
		Fault:    t.fault,
		Phase:    t.phase,
	})
}

func feedback(s imu.Sample, a Axis) float64 {
	switch a {
	case AxisRoll:
		return s.Roll
	case AxisPitch:
		return s.Pitch
	}
	return s.Yaw
}
