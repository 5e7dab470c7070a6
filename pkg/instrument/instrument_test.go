package instrument

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-muscat/pkg/core"
)

func TestNewRingInstrument(t *testing.T) {
	inst, err := NewRingInstrument(RingConfig{
		Name:        "ring",
		L1:          10,
		L2:          2,
		TwoThetaMin: 10,
		TwoThetaMax: 130,
		Count:       7,
		Monitor:     true,
		Frame:       core.DefaultReferenceFrame(),
	})
	require.NoError(t, err)
	require.NoError(t, inst.Validate())
	require.Len(t, inst.Detectors, 8)

	assert.True(t, inst.Detectors[0].IsMonitor)
	assert.InDelta(t, 0, inst.TwoTheta(inst.Detectors[0]), 1e-12)
	assert.Equal(t, core.NewVec3(0, 0, -10), inst.Source)

	for i, d := range inst.Detectors[1:] {
		assert.False(t, d.IsMonitor)
		assert.InDelta(t, 2, d.Position.Length(), 1e-12)
		expected := float64(10+20*i) * math.Pi / 180
		assert.InDelta(t, expected, inst.TwoTheta(d), 1e-12, "detector %d", d.ID)
		assert.InDelta(t, 0, d.Position.Y, 1e-12, "detectors lie in the horizontal plane")
	}
}

func TestNewRingInstrument_Invalid(t *testing.T) {
	_, err := NewRingInstrument(RingConfig{L1: 10, L2: 2, Count: 0})
	assert.Error(t, err)

	_, err = NewRingInstrument(RingConfig{L1: 0, L2: 2, Count: 3})
	assert.Error(t, err)

	empty := &Instrument{Source: core.NewVec3(0, 0, -1)}
	assert.ErrorIs(t, empty.Validate(), ErrNoDetectors)
}

func TestInstrument_InvalidFrame(t *testing.T) {
	_, err := NewRingInstrument(RingConfig{Name: "ring", L1: 10, L2: 2, Count: 3})
	assert.ErrorIs(t, err, core.ErrFrame)

	inst := &Instrument{
		Name:      "bare",
		Source:    core.NewVec3(0, 0, -10),
		Detectors: []Detector{{ID: 1, Position: core.NewVec3(1, 0, 0)}},
	}
	assert.ErrorIs(t, inst.Validate(), core.ErrFrame)

	inst.Frame = core.DefaultReferenceFrame()
	assert.NoError(t, inst.Validate())
}
