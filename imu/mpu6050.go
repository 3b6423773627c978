package imu

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
)

// MPU6050 device addresses, selected by the AD0 strap pin.
const (
	MPU6050AddrLow  uint16 = 0x68
	MPU6050AddrHigh uint16 = 0x69
)

// MPU6050 register map.
const (
	mpuRegAccelXOutH = 0x3B
	mpuRegPwrMgmt1   = 0x6B
	mpuRegWhoAmI     = 0x75
)

// MPU6050 reads raw acceleration and angular rate over I2C, and derives a
// pitch/roll tilt estimate from the accelerometer so closed-loop joints can
// consume it like an orientation reading.
type MPU6050 struct {
	bus  i2c.Bus
	addr uint16
}

func NewMPU6050(b i2c.Bus, addr uint16) *MPU6050 {
	return &MPU6050{bus: b, addr: addr}
}

// Boot verifies the device answers at its strapped address and wakes it from
// sleep (the power-on default).
func (d *MPU6050) Boot() error {
	var id [1]byte
	if err := d.tx([]byte{mpuRegWhoAmI}, id[:]); err != nil {
		return fmt.Errorf("%w (mpu6050 at 0x%02x: %v)", ErrNoAck, d.addr, err)
	}
	if id[0] != byte(MPU6050AddrLow) {
		return fmt.Errorf("%w (mpu6050 at 0x%02x: who-am-i 0x%02x)", ErrNoAck, d.addr, id[0])
	}

	if err := d.tx([]byte{mpuRegPwrMgmt1, 0x00}, nil); err != nil {
		return fmt.Errorf("mpu6050 at 0x%02x: wake: %w", d.addr, err)
	}

	log.WithFields(logrus.Fields{
		"addr": fmt.Sprintf("0x%02x", d.addr),
	}).Info("mpu6050 online")
	return nil
}

// Read burst-reads accel, temperature and gyro (14 bytes) in one
// transaction, skipping the temperature words.
func (d *MPU6050) Read() (Sample, error) {
	var buf [14]byte
	if err := d.tx([]byte{mpuRegAccelXOutH}, buf[:]); err != nil {
		return Sample{}, fmt.Errorf("mpu6050 inertial read: %w", err)
	}

	s := Sample{
		AccelX: int16(uint16(buf[0])<<8 | uint16(buf[1])),
		AccelY: int16(uint16(buf[2])<<8 | uint16(buf[3])),
		AccelZ: int16(uint16(buf[4])<<8 | uint16(buf[5])),
		GyroX:  int16(uint16(buf[8])<<8 | uint16(buf[9])),
		GyroY:  int16(uint16(buf[10])<<8 | uint16(buf[11])),
		GyroZ:  int16(uint16(buf[12])<<8 | uint16(buf[13])),
	}
	s.Roll, s.Pitch = tilt(s.AccelX, s.AccelY, s.AccelZ)
	return s, nil
}

func (d *MPU6050) tx(w, r []byte) error {
	return classify(d.bus.Tx(d.addr, w, r))
}

// tilt estimates roll and pitch (degrees) from raw acceleration. Only the
// ratios matter, not physical units.
func tilt(ax, ay, az int16) (roll, pitch float64) {
	fx, fy, fz := float64(ax), float64(ay), float64(az)
	roll = math.Atan2(fy, fz) * 180 / math.Pi
	pitch = math.Atan2(-fx, math.Sqrt(fy*fy+fz*fz)) * 180 / math.Pi
	return roll, pitch
}
