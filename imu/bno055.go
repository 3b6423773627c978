package imu

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"

	"github.com/ZackeryPlovanic/controlsystems2019/bus"
)

// BNO055 device addresses, selected by the COM3 strap pin.
const (
	BNO055AddrLow  uint16 = 0x28
	BNO055AddrHigh uint16 = 0x29
)

// BNO055 register map (page 0).
const (
	bnoRegChipID     = 0x00
	bnoRegEulYawLSB  = 0x1A
	bnoRegUnitSel    = 0x3B
	bnoRegOprMode    = 0x3D
	bnoRegPwrMode    = 0x3E
	bnoRegSysTrigger = 0x3F
	bnoRegPageID     = 0x07

	bnoChipID = 0xA0

	bnoPwrModeNormal = 0x00
	bnoOprModeConfig = 0x00
	bnoOprModeNDOF   = 0x0C
)

// Euler registers hold 1/16th-degree fixed point.
const bnoEulerLSBPerDeg = 16.0

// BNO055 reads absolute orientation (yaw/roll/pitch) over I2C.
type BNO055 struct {
	bus  i2c.Bus
	addr uint16
}

// NewBNO055 creates a client for the sensor at the given strapped address.
// The address is configuration, never hardcoded per joint.
func NewBNO055(b i2c.Bus, addr uint16) *BNO055 {
	return &BNO055{bus: b, addr: addr}
}

// Boot verifies the chip identity and switches it into NDOF fusion mode.
// A device that answers with the wrong ID is treated the same as one that
// doesn't answer at all.
func (d *BNO055) Boot() error {
	var id [1]byte
	if err := d.tx([]byte{bnoRegChipID}, id[:]); err != nil {
		return fmt.Errorf("%w (bno055 at 0x%02x: %v)", ErrNoAck, d.addr, err)
	}
	if id[0] != bnoChipID {
		return fmt.Errorf("%w (bno055 at 0x%02x: chip id 0x%02x)", ErrNoAck, d.addr, id[0])
	}

	for _, w := range [][2]byte{
		{bnoRegPageID, 0x00},
		{bnoRegOprMode, bnoOprModeConfig},
		{bnoRegPwrMode, bnoPwrModeNormal},
		{bnoRegSysTrigger, 0x00},
		{bnoRegOprMode, bnoOprModeNDOF},
	} {
		if err := d.tx(w[:], nil); err != nil {
			return fmt.Errorf("bno055 at 0x%02x: write 0x%02x: %w", d.addr, w[0], err)
		}
	}

	log.WithFields(logrus.Fields{
		"addr": fmt.Sprintf("0x%02x", d.addr),
	}).Info("bno055 online")
	return nil
}

// Read burst-reads the three euler angles in one transaction.
func (d *BNO055) Read() (Sample, error) {
	var buf [6]byte
	if err := d.tx([]byte{bnoRegEulYawLSB}, buf[:]); err != nil {
		return Sample{}, fmt.Errorf("bno055 euler read: %w", err)
	}

	yaw := int16(uint16(buf[1])<<8 | uint16(buf[0]))
	roll := int16(uint16(buf[3])<<8 | uint16(buf[2]))
	pitch := int16(uint16(buf[5])<<8 | uint16(buf[4]))

	return Sample{
		Yaw:   float64(yaw) / bnoEulerLSBPerDeg,
		Roll:  float64(roll) / bnoEulerLSBPerDeg,
		Pitch: float64(pitch) / bnoEulerLSBPerDeg,
	}, nil
}

// tx issues one transaction, mapping shared-bus contention to a timeout so
// callers see the sensor-error taxonomy, not bus internals.
func (d *BNO055) tx(w, r []byte) error {
	return classify(d.bus.Tx(d.addr, w, r))
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bus.ErrContention) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
