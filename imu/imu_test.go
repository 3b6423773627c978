package imu

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ZackeryPlovanic/controlsystems2019/bus"
	fakebus "github.com/ZackeryPlovanic/controlsystems2019/fake/bus"
)

// bno055Regs returns a fake register file with the given euler angles, in
// 1/16th-degree fixed point, little endian.
func bno055Regs(yaw, roll, pitch int16) map[byte][]byte {
	return map[byte][]byte{
		0x00: {0xA0}, // CHIP_ID
		0x1A: {
			byte(yaw), byte(yaw >> 8),
			byte(roll), byte(roll >> 8),
			byte(pitch), byte(pitch >> 8),
		},
	}
}

func TestBNO055Boot(t *testing.T) {
	fake := fakebus.New()
	fake.SetRegs(0x29, bno055Regs(0, 0, 0))

	d := NewBNO055(fake, BNO055AddrHigh)
	assert.NoError(t, d.Boot())

	// The boot sequence leaves the chip in NDOF fusion mode.
	var mode [1]byte
	assert.NoError(t, fake.Tx(0x29, []byte{0x3D}, mode[:]))
	assert.EqualValues(t, 0x0C, mode[0])
}

func TestBNO055BootWrongChip(t *testing.T) {
	fake := fakebus.New()
	fake.SetRegs(0x28, map[byte][]byte{0x00: {0x55}})

	d := NewBNO055(fake, BNO055AddrLow)
	err := d.Boot()
	assert.True(t, errors.Is(err, ErrNoAck), "got %v", err)
}

func TestBNO055BootAbsent(t *testing.T) {
	fake := fakebus.New() // nothing at any address

	d := NewBNO055(fake, BNO055AddrLow)
	assert.True(t, errors.Is(d.Boot(), ErrNoAck))
}

func TestBNO055Read(t *testing.T) {
	fake := fakebus.New()
	// 90.0, -45.5 and 12.25 degrees.
	fake.SetRegs(0x29, bno055Regs(90*16, -728, 196))

	d := NewBNO055(fake, BNO055AddrHigh)
	s, err := d.Read()
	assert.NoError(t, err)
	assert.InDelta(t, 90.0, s.Yaw, 0.001)
	assert.InDelta(t, -45.5, s.Roll, 0.001)
	assert.InDelta(t, 12.25, s.Pitch, 0.001)
}

func TestBNO055ReadNoCaching(t *testing.T) {
	fake := fakebus.New()
	fake.SetRegs(0x28, bno055Regs(16, 0, 0))

	d := NewBNO055(fake, BNO055AddrLow)

	s, err := d.Read()
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, s.Yaw, 0.001)

	// A fresh bus transaction per call: updated registers are seen at once.
	fake.SetRegs(0x28, bno055Regs(32, 0, 0))
	s, err = d.Read()
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, s.Yaw, 0.001)
	assert.Len(t, fake.Log(), 2)
}

func TestContentionMapsToTimeout(t *testing.T) {
	fake := fakebus.New()
	fake.Delay = 50 * time.Millisecond
	fake.SetRegs(0x28, bno055Regs(0, 0, 0))

	shared := bus.NewShared(fake, 5*time.Millisecond)

	// Hold the gate with one read while another is attempted.
	go shared.Tx(0x28, []byte{0x1A}, make([]byte, 6))
	time.Sleep(10 * time.Millisecond)

	d := NewBNO055(shared, BNO055AddrLow)
	_, err := d.Read()
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestMPU6050Boot(t *testing.T) {
	fake := fakebus.New()
	fake.SetRegs(0x68, map[byte][]byte{
		0x75: {0x68}, // WHO_AM_I
	})

	d := NewMPU6050(fake, MPU6050AddrLow)
	assert.NoError(t, d.Boot())

	// Boot wakes the device out of sleep.
	var pwr [1]byte
	assert.NoError(t, fake.Tx(0x68, []byte{0x6B}, pwr[:]))
	assert.EqualValues(t, 0x00, pwr[0])
}

func TestMPU6050Read(t *testing.T) {
	fake := fakebus.New()

	// Gravity fully on +Z: level attitude.
	burst := make([]byte, 14)
	burst[4], burst[5] = 0x40, 0x00 // accel Z = 16384
	burst[12], burst[13] = 0x01, 0x02
	fake.SetRegs(0x69, map[byte][]byte{
		0x75: {0x68},
		0x3B: burst,
	})

	d := NewMPU6050(fake, MPU6050AddrHigh)
	s, err := d.Read()
	assert.NoError(t, err)
	assert.EqualValues(t, 16384, s.AccelZ)
	assert.EqualValues(t, 0x0102, s.GyroZ)
	assert.InDelta(t, 0.0, s.Pitch, 0.001)
	assert.InDelta(t, 0.0, s.Roll, 0.001)
}

func TestMPU6050Tilt(t *testing.T) {
	// Gravity fully on -X: nose up 90 degrees.
	roll, pitch := tilt(-16384, 0, 0)
	assert.InDelta(t, 90.0, pitch, 0.001)
	_ = roll

	// Gravity fully on +Y: rolled 90 degrees.
	roll, _ = tilt(0, 16384, 0)
	assert.InDelta(t, 90.0, roll, 0.001)
}

func TestSensorErrorsPropagate(t *testing.T) {
	fake := fakebus.New()
	fake.SetRegs(0x29, bno055Regs(0, 0, 0))
	d := NewBNO055(fake, BNO055AddrHigh)

	boom := errors.New("remote I/O error")
	fake.FailNext(boom)

	_, err := d.Read()
	assert.True(t, errors.Is(err, boom), "got %v", err)
}
