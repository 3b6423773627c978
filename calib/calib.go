// Package calib holds the arm's startup configuration: a JSON file of joint
// wiring and tuning, plus the fixed 100-byte calibration block persisted by
// the external configuration store. The block is read once at startup; the
// control core never writes it.
package calib

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
)

// JointConfig is one joint's wiring and tuning, as loaded from JSON.
type JointConfig struct {
	Channel    int     `json:"channel"`
	DirPin     string  `json:"dir_pin,omitempty"`
	PeriodMs   int     `json:"period_ms"`
	Priority   int     `json:"priority"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Start      float64 `json:"start"`
	Alpha      float64 `json:"alpha,omitempty"`
	P          float64 `json:"p,omitempty"`
	I          float64 `json:"i,omitempty"`
	D          float64 `json:"d,omitempty"`
	Sensor     string  `json:"sensor,omitempty"` // "bno055" or "mpu6050"
	SensorAddr uint16  `json:"sensor_addr,omitempty"`
}

// Period returns the joint's control period.
func (j JointConfig) Period() time.Duration {
	return time.Duration(j.PeriodMs) * time.Millisecond
}

// Limits returns the joint's configured travel range.
func (j JointConfig) Limits() arm.Range {
	return arm.Range{Min: j.Min, Max: j.Max}
}

// Config is the whole arm's startup configuration.
type Config struct {
	Bus         string                    `json:"bus"` // i2c bus name, e.g. "1"
	ServoBoard  uint16                    `json:"servo_board"`
	MotorBoard  uint16                    `json:"motor_board"`
	WristLeft   int                       `json:"wrist_left_channel"`
	WristRight  int                       `json:"wrist_right_channel"`
	WristLeftD  string                    `json:"wrist_left_dir"`
	WristRightD string                    `json:"wrist_right_dir"`
	Joints      map[arm.Name]*JointConfig `json:"joints"`
}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that every joint is configured and runnable. A bad entry
// here would otherwise only surface mid-startup as a panic.
func (c *Config) Validate() error {
	if c.Bus == "" {
		return fmt.Errorf("bus name is empty")
	}
	for _, name := range arm.AllJoints() {
		j, ok := c.Joints[name]
		if !ok || j == nil {
			return fmt.Errorf("joint %s: not configured", name)
		}
		if j.PeriodMs <= 0 {
			return fmt.Errorf("joint %s: period_ms must be positive, got %d", name, j.PeriodMs)
		}
		if j.Min >= j.Max {
			return fmt.Errorf("joint %s: min %v is not below max %v", name, j.Min, j.Max)
		}
	}
	return nil
}

// Save writes the configuration, for provisioning new arms.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Default returns the as-built wiring of the arm: pins, channels, travel
// limits, start positions and sensor straps.
func Default() *Config {
	return &Config{
		Bus:         "1",
		ServoBoard:  0x40,
		MotorBoard:  0x41,
		WristLeft:   2,
		WristRight:  3,
		WristLeftD:  "GPIO5",
		WristRightD: "GPIO6",
		Joints: map[arm.Name]*JointConfig{
			arm.Rotunda: {
				Channel:  0,
				PeriodMs: 100,
				Priority: 2,
				Min:      0,
				Max:      3600,
				Start:    1800,
				Alpha:    0.5,
			},
			arm.Elbow: {
				Channel:  1,
				PeriodMs: 100,
				Priority: 2,
				Min:      100,
				Max:      290,
				Start:    150,
				Alpha:    0.5,
			},
			arm.Shoulder: {
				Channel:    0,
				DirPin:     "GPIO13",
				PeriodMs:   100,
				Priority:   2,
				Min:        5,
				Max:        70,
				Start:      5,
				P:          2.0,
				I:          0.1,
				D:          0.05,
				Sensor:     "bno055",
				SensorAddr: 0x29,
			},
			arm.WristPitch: {
				PeriodMs:   100,
				Priority:   2,
				Min:        -90,
				Max:        90,
				Start:      0,
				P:          1.5,
				I:          0.05,
				D:          0.02,
				Sensor:     "mpu6050",
				SensorAddr: 0x68,
			},
			arm.WristRoll: {
				PeriodMs: 100,
				Priority: 2,
				Min:      -90,
				Max:      90,
				Start:    0,
				P:        1.5,
				I:        0.05,
				D:        0.02,
				Sensor:   "mpu6050",
				// Shares the pitch joint's sensor address.
				SensorAddr: 0x68,
			},
			arm.Claw: {
				Channel:  1,
				DirPin:   "GPIO12",
				PeriodMs: 200,
				Priority: 1,
				Min:      0,
				Max:      100,
				Start:    0,
			},
		},
	}
}
