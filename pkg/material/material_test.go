package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-muscat/pkg/core"
	"github.com/df07/go-muscat/pkg/geometry"
)

// invertedShape reports a bounding box with min above max
type invertedShape struct{}

func (invertedShape) Intervals(core.Ray) []geometry.Interval { return nil }
func (invertedShape) BoundingBox() core.AABB {
	return core.NewAABB(core.NewVec3(1, 1, 1), core.NewVec3(-1, -1, -1))
}

func vanadium() *Material {
	return &Material{
		Name:            "V",
		NumberDensity:   0.0722,
		ScatterXSection: 5.1,
		AbsorbXSection:  5.08,
	}
}

func TestMaterial_CrossSections(t *testing.T) {
	m := vanadium()

	assert.InDelta(t, 5.08, m.AbsorbXSectionAt(ReferenceWavelength), 1e-12)
	assert.InDelta(t, 2*5.08, m.AbsorbXSectionAt(2*ReferenceWavelength), 1e-12)
	assert.Equal(t, 5.1, m.TotalScatterXSection())
	assert.Equal(t, 0.0722, m.NumberDensityEffective())

	m.PackingFraction = 0.5
	assert.InDelta(t, 0.0361, m.NumberDensityEffective(), 1e-12)
}

func TestSample_Validate(t *testing.T) {
	shape := geometry.NewSphere(core.NewVec3(0, 0, 0), 0.01)

	tests := []struct {
		name   string
		sample Sample
		err    error
	}{
		{"valid", Sample{Shape: shape, Material: vanadium()}, nil},
		{"no shape", Sample{Material: vanadium()}, ErrNoShape},
		{"no material", Sample{Shape: shape}, ErrNoMaterial},
		{"inverted bounding box", Sample{Shape: invertedShape{}, Material: vanadium()}, ErrBoundingBox},
		{"environment", Sample{Shape: shape, Material: vanadium(), HasEnvironment: true}, ErrEnvironment},
		{"zero density", Sample{Shape: shape, Material: &Material{ScatterXSection: 5}}, ErrNumberDensity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}
