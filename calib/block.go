package calib

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
)

// BlockSize is the fixed size of the persisted calibration block.
const BlockSize = 0x64

// blockJoints is the joint order of the override records in the block.
var blockJoints = []arm.Name{
	arm.Rotunda, arm.Elbow, arm.Shoulder, arm.WristPitch, arm.WristRoll, arm.Claw,
}

// Override is one joint's persisted limit override. Present distinguishes a
// provisioned record from factory-blank bytes.
type Override struct {
	Present bool
	Min     int16
	Max     int16
}

// Block is the decoded calibration block: a boot counter byte followed by
// one override record per joint. Remaining bytes are reserved.
type Block struct {
	BootCount uint8
	Overrides map[arm.Name]Override
}

// ParseBlock decodes a raw block. The size is fixed; anything else is a
// corrupt read.
func ParseBlock(raw []byte) (Block, error) {
	if len(raw) != BlockSize {
		return Block{}, fmt.Errorf("calibration block is %d bytes, want %d", len(raw), BlockSize)
	}

	b := Block{
		BootCount: raw[0],
		Overrides: make(map[arm.Name]Override, len(blockJoints)),
	}

	r := bytes.NewReader(raw[1:])
	for _, j := range blockJoints {
		var rec struct {
			Present uint8
			Min     int16
			Max     int16
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return Block{}, fmt.Errorf("calibration record for %s: %w", j, err)
		}
		b.Overrides[j] = Override{
			Present: rec.Present == 1,
			Min:     rec.Min,
			Max:     rec.Max,
		}
	}

	return b, nil
}

// Encode serializes the block back to its fixed wire size.
func (b Block) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(b.BootCount)

	for _, j := range blockJoints {
		o := b.Overrides[j]
		var present uint8
		if o.Present {
			present = 1
		}
		// Writes into a bytes.Buffer cannot fail.
		_ = binary.Write(&buf, binary.LittleEndian, struct {
			Present uint8
			Min     int16
			Max     int16
		}{present, o.Min, o.Max})
	}

	raw := buf.Bytes()
	return append(raw, make([]byte, BlockSize-len(raw))...)
}

// Apply replaces configured limit ranges with provisioned overrides.
func (b Block) Apply(cfg *Config) {
	for j, o := range b.Overrides {
		if !o.Present {
			continue
		}
		jc, ok := cfg.Joints[j]
		if !ok {
			continue
		}
		jc.Min = float64(o.Min)
		jc.Max = float64(o.Max)
	}
}

// LoadBlock reads and decodes the block file exported by the configuration
// store.
func LoadBlock(path string) (Block, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Block{}, fmt.Errorf("read calibration block: %w", err)
	}
	return ParseBlock(raw)
}

// BumpBootCount increments the block's boot counter in place and returns the
// new count. Called by the launcher at startup, never by the control core.
func BumpBootCount(path string) (int, error) {
	b, err := LoadBlock(path)
	if err != nil {
		return 0, err
	}
	b.BootCount++
	if err := os.WriteFile(path, b.Encode(), 0644); err != nil {
		return 0, fmt.Errorf("write calibration block: %w", err)
	}
	return int(b.BootCount), nil
}
