// Package instrument enumerates the detector positions the simulation
// aims its final scattering leg at.
package instrument

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-muscat/pkg/core"
)

var ErrNoDetectors = errors.New("instrument: no detectors")

// Detector is a single pixel
type Detector struct {
	ID        int
	Position  core.Vec3
	IsMonitor bool
}

// Instrument holds the beamline geometry
type Instrument struct {
	Name           string
	Source         core.Vec3
	SamplePosition core.Vec3
	Frame          core.ReferenceFrame
	Detectors      []Detector
}

// Validate checks that the instrument can be simulated
func (inst *Instrument) Validate() error {
	if len(inst.Detectors) == 0 {
		return ErrNoDetectors
	}
	if err := inst.Frame.Validate(); err != nil {
		return fmt.Errorf("instrument %q: %w", inst.Name, err)
	}
	if inst.Source == inst.SamplePosition {
		return fmt.Errorf("instrument %q: source and sample positions coincide", inst.Name)
	}
	return nil
}

// TwoTheta returns the scattering angle of a detector in radians
func (inst *Instrument) TwoTheta(d Detector) float64 {
	beam := inst.SamplePosition.Subtract(inst.Source).Normalize()
	toDetector := d.Position.Subtract(inst.SamplePosition).Normalize()
	return math.Acos(math.Max(-1, math.Min(1, beam.Dot(toDetector))))
}

// RingConfig describes an equally spaced arc of detectors in the
// horizontal scattering plane
type RingConfig struct {
	Name        string
	L1          float64 // Source to sample distance, metres
	L2          float64 // Sample to detector distance, metres
	TwoThetaMin float64 // Degrees
	TwoThetaMax float64 // Degrees
	Count       int
	Monitor     bool // Prepend a transmission monitor on the beam axis
	Frame       core.ReferenceFrame
}

// NewRingInstrument creates an instrument with the sample at the origin
func NewRingInstrument(cfg RingConfig) (*Instrument, error) {
	if cfg.Count < 1 {
		return nil, fmt.Errorf("instrument %q: detector count must be >= 1, got %d", cfg.Name, cfg.Count)
	}
	if cfg.L1 <= 0 || cfg.L2 <= 0 {
		return nil, fmt.Errorf("instrument %q: L1 and L2 must be positive", cfg.Name)
	}
	if err := cfg.Frame.Validate(); err != nil {
		return nil, fmt.Errorf("instrument %q: %w", cfg.Name, err)
	}

	beam := cfg.Frame.AlongBeam()
	horizontal := cfg.Frame.Horizontal()

	inst := &Instrument{
		Name:   cfg.Name,
		Source: beam.Multiply(-cfg.L1),
		Frame:  cfg.Frame,
	}

	id := 1
	if cfg.Monitor {
		inst.Detectors = append(inst.Detectors, Detector{
			ID:        id,
			Position:  beam.Multiply(cfg.L2),
			IsMonitor: true,
		})
		id++
	}

	step := 0.0
	if cfg.Count > 1 {
		step = (cfg.TwoThetaMax - cfg.TwoThetaMin) / float64(cfg.Count-1)
	}
	for i := 0; i < cfg.Count; i++ {
		twoTheta := (cfg.TwoThetaMin + float64(i)*step) * math.Pi / 180
		direction := beam.Multiply(math.Cos(twoTheta)).Add(horizontal.Multiply(math.Sin(twoTheta)))
		inst.Detectors = append(inst.Detectors, Detector{
			ID:       id,
			Position: direction.Multiply(cfg.L2),
		})
		id++
	}

	return inst, nil
}
