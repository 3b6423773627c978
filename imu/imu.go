// Package imu provides register-level clients for the arm's feedback
// sensors: the BNO055 absolute-orientation sensor and the MPU6050
// accelerometer/gyroscope. Every read performs a fresh bus transaction;
// staleness is the caller's problem.
package imu

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "imu",
})

var (
	// ErrNoAck means the device did not answer at its strapped address, or
	// identified as something else entirely.
	ErrNoAck = errors.New("sensor did not acknowledge")

	// ErrTimeout means the bus transaction did not complete within its
	// bounded window (including losing the shared-bus gate to contention).
	ErrTimeout = errors.New("sensor transaction timed out")
)

// Sample is one sensor reading. Orientation reads fill the euler angles;
// inertial reads fill the raw axis counts and derive pitch/roll from the
// accelerometer tilt. Transient: produced fresh each cycle, never persisted.
type Sample struct {
	// Euler angles, degrees.
	Yaw   float64
	Roll  float64
	Pitch float64

	// Raw accelerometer and gyroscope counts.
	AccelX, AccelY, AccelZ int16
	GyroX, GyroY, GyroZ    int16
}

// Sensor is the feedback interface a joint task reads each cycle.
type Sensor interface {
	Read() (Sample, error)
}
