package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-muscat/pkg/core"
	"github.com/df07/go-muscat/pkg/instrument"
)

func TestWavelengthAxis(t *testing.T) {
	axis, err := WavelengthAxis(1, 3, 5)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2, 2.5, 3}, axis, 1e-12)

	single, err := WavelengthAxis(2, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, single)

	_, err = WavelengthAxis(0, 3, 5)
	assert.Error(t, err)
	_, err = WavelengthAxis(1, 3, 0)
	assert.Error(t, err)
}

func TestCloneEmpty(t *testing.T) {
	inst := &instrument.Instrument{
		Source: core.NewVec3(0, 0, -10),
		Detectors: []instrument.Detector{
			{ID: 1, IsMonitor: true},
			{ID: 2, Position: core.NewVec3(1, 0, 0)},
		},
	}
	in := NewWavelengthWorkspace("input", inst, []float64{1, 2, 3})
	in.Spectra[1].Y[0] = 42

	out := in.CloneEmpty("Scatter_1")
	assert.Equal(t, "Scatter_1", out.Name)
	assert.True(t, out.Distribution)
	assert.Equal(t, "Scattered Intensity", out.YUnitLabel)
	assert.Equal(t, 2, out.NumberHistograms())
	assert.Equal(t, 3, out.Blocksize())
	assert.True(t, out.Spectra[0].IsMonitor)
	assert.Equal(t, 0.0, out.Spectra[1].Y[0])

	out.Spectra[1].X[0] = 99
	assert.Equal(t, 1.0, in.Spectra[1].X[0], "clone must not share X")
}

func TestGroup(t *testing.T) {
	var g Group
	g.Add(&Workspace{Name: "Scatter_1_NoAbs"})
	g.Add(&Workspace{Name: "Scatter_1"})

	assert.Equal(t, []string{"Scatter_1_NoAbs", "Scatter_1"}, g.Names())
	ws, ok := g.Get("Scatter_1")
	require.True(t, ok)
	assert.Equal(t, "Scatter_1", ws.Name)
	_, ok = g.Get("Scatter_2")
	assert.False(t, ok)
}
