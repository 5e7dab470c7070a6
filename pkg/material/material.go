// Package material describes the sample: its shape and the neutron
// cross sections of the substance it is made of.
package material

import (
	"errors"
	"fmt"

	"github.com/df07/go-muscat/pkg/geometry"
)

// ReferenceWavelength is the wavelength (Å) at which absorption cross
// sections are tabulated. Absorption scales linearly with wavelength.
const ReferenceWavelength = 1.7982

var (
	ErrNoShape       = errors.New("material: sample has no shape")
	ErrNoMaterial    = errors.New("material: sample has no material")
	ErrNumberDensity = errors.New("material: sample must have a material set up with a non-zero number density")
	ErrEnvironment   = errors.New("material: sample must not have a sample environment")
	ErrBoundingBox   = errors.New("material: sample shape has an invalid bounding box")
)

// Material holds the bulk cross sections of a substance
type Material struct {
	Name            string
	NumberDensity   float64 // Formula units per Å³
	PackingFraction float64 // Fraction of the volume filled; 0 means 1
	ScatterXSection float64 // Total bound scattering cross section, barns
	AbsorbXSection  float64 // Absorption cross section at ReferenceWavelength, barns
}

// NumberDensityEffective returns the number density scaled by the packing fraction
func (m *Material) NumberDensityEffective() float64 {
	if m.PackingFraction == 0 {
		return m.NumberDensity
	}
	return m.NumberDensity * m.PackingFraction
}

// TotalScatterXSection returns the total scattering cross section in barns
func (m *Material) TotalScatterXSection() float64 {
	return m.ScatterXSection
}

// AbsorbXSectionAt returns the absorption cross section at a wavelength in Å
func (m *Material) AbsorbXSectionAt(wavelength float64) float64 {
	return m.AbsorbXSection * wavelength / ReferenceWavelength
}

// Sample is the scattering object placed in the beam
type Sample struct {
	Shape          geometry.Solid
	Material       *Material
	HasEnvironment bool // A container or cryostat around the sample
}

// Validate reports problems that make the sample unusable for simulation
func (s *Sample) Validate() error {
	if s.Shape == nil {
		return ErrNoShape
	}
	if box := s.Shape.BoundingBox(); !box.IsValid() {
		return fmt.Errorf("%w: min %v, max %v", ErrBoundingBox, box.Min, box.Max)
	}
	if s.Material == nil {
		return ErrNoMaterial
	}
	if s.HasEnvironment {
		return ErrEnvironment
	}
	if !(s.Material.NumberDensityEffective() > 0) {
		return fmt.Errorf("%w: got %g", ErrNumberDensity, s.Material.NumberDensityEffective())
	}
	return nil
}
