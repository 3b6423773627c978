package calib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arm.json")

	cfg := Default()
	cfg.Joints[arm.Shoulder].Max = 65
	assert.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "1", loaded.Bus)
	assert.Equal(t, 65.0, loaded.Joints[arm.Shoulder].Max)
	assert.Equal(t, arm.Range{Min: 5, Max: 65}, loaded.Joints[arm.Shoulder].Limits())
}

func TestDefaultIsComplete(t *testing.T) {
	cfg := Default()
	for _, j := range arm.AllJoints() {
		jc, ok := cfg.Joints[j]
		assert.True(t, ok, "joint %s missing from default config", j)
		assert.Greater(t, jc.PeriodMs, 0, "joint %s has no period", j)
		assert.Less(t, jc.Min, jc.Max, "joint %s limits inverted", j)
		assert.True(t, jc.Limits().Contains(jc.Start), "joint %s start outside limits", j)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero period", func(c *Config) { c.Joints[arm.Claw].PeriodMs = 0 }},
		{"missing joint", func(c *Config) { delete(c.Joints, arm.Elbow) }},
		{"nil joint", func(c *Config) { c.Joints[arm.Rotunda] = nil }},
		{"inverted limits", func(c *Config) { c.Joints[arm.Shoulder].Min = 80 }},
		{"empty bus", func(c *Config) { c.Bus = "" }},
	}

	assert.NoError(t, Default().Validate())

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		assert.Error(t, cfg.Validate(), tt.name)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arm.json")

	cfg := Default()
	cfg.Joints[arm.Claw].PeriodMs = 0
	assert.NoError(t, cfg.Save(path))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestBlockRoundTrip(t *testing.T) {
	b := Block{
		BootCount: 41,
		Overrides: map[arm.Name]Override{
			arm.Shoulder: {Present: true, Min: 10, Max: 60},
			arm.Elbow:    {Present: false, Min: 999, Max: 999},
		},
	}

	raw := b.Encode()
	assert.Len(t, raw, BlockSize)

	decoded, err := ParseBlock(raw)
	assert.NoError(t, err)
	assert.EqualValues(t, 41, decoded.BootCount)
	assert.Equal(t, Override{Present: true, Min: 10, Max: 60}, decoded.Overrides[arm.Shoulder])
	assert.False(t, decoded.Overrides[arm.Rotunda].Present)
}

func TestParseBlockWrongSize(t *testing.T) {
	_, err := ParseBlock(make([]byte, 32))
	assert.Error(t, err)
}

func TestBlockApplyOverrides(t *testing.T) {
	cfg := Default()

	b := Block{
		Overrides: map[arm.Name]Override{
			arm.Shoulder: {Present: true, Min: 10, Max: 60},
			arm.Elbow:    {Present: false, Min: 1, Max: 2},
		},
	}
	b.Apply(cfg)

	// Provisioned override replaces the configured range.
	assert.Equal(t, arm.Range{Min: 10, Max: 60}, cfg.Joints[arm.Shoulder].Limits())

	// Factory-blank records leave the configuration alone.
	assert.Equal(t, arm.Range{Min: 100, Max: 290}, cfg.Joints[arm.Elbow].Limits())
}

func TestBumpBootCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.bin")

	b := Block{BootCount: 7, Overrides: map[arm.Name]Override{}}
	assert.NoError(t, os.WriteFile(path, b.Encode(), 0644))

	n, err := BumpBootCount(path)
	assert.NoError(t, err)
	assert.Equal(t, 8, n)

	again, err := LoadBlock(path)
	assert.NoError(t, err)
	assert.EqualValues(t, 8, again.BootCount)
}
