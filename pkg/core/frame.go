package core

import (
	"errors"
	"fmt"
)

var ErrFrame = errors.New("core: invalid reference frame")

// Axis identifies a cartesian axis
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ParseAxis converts "x", "y" or "z" to an Axis
func ParseAxis(name string) (Axis, error) {
	switch name {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", name)
}

// Unit returns the unit vector along the axis
func (a Axis) Unit() Vec3 {
	return Vec3{}.WithComponent(a, 1)
}

func (a Axis) String() string {
	if !a.valid() {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return [...]string{"x", "y", "z"}[a]
}

func (a Axis) valid() bool { return a >= AxisX && a <= AxisZ }

// ReferenceFrame names the instrument's up and along-beam axes.
// The horizontal axis is whichever axis remains.
type ReferenceFrame struct {
	up   Axis
	beam Axis
}

// DefaultReferenceFrame has Y up and the beam along Z
func DefaultReferenceFrame() ReferenceFrame {
	return ReferenceFrame{up: AxisY, beam: AxisZ}
}

// NewReferenceFrame creates a frame from the up and along-beam axes
func NewReferenceFrame(up, beam Axis) (ReferenceFrame, error) {
	f := ReferenceFrame{up: up, beam: beam}
	if err := f.Validate(); err != nil {
		return ReferenceFrame{}, err
	}
	return f, nil
}

// Validate checks that up and beam are two different cartesian axes.
// The zero ReferenceFrame is not valid.
func (f ReferenceFrame) Validate() error {
	if !f.up.valid() || !f.beam.valid() {
		return fmt.Errorf("%w: up=%s beam=%s", ErrFrame, f.up, f.beam)
	}
	if f.up == f.beam {
		return fmt.Errorf("%w: up and beam axes must differ, both are %s", ErrFrame, f.up)
	}
	return nil
}

// PointingUp returns the index of the up axis
func (f ReferenceFrame) PointingUp() Axis { return f.up }

// PointingAlongBeam returns the index of the beam axis
func (f ReferenceFrame) PointingAlongBeam() Axis { return f.beam }

// PointingHorizontal returns the index of the remaining axis
func (f ReferenceFrame) PointingHorizontal() Axis {
	return 3 - f.up - f.beam
}

// Up returns the unit vector along the up axis
func (f ReferenceFrame) Up() Vec3 { return f.up.Unit() }

// AlongBeam returns the unit vector along the beam axis
func (f ReferenceFrame) AlongBeam() Vec3 { return f.beam.Unit() }

// Horizontal returns the unit vector along the horizontal axis
func (f ReferenceFrame) Horizontal() Vec3 { return f.PointingHorizontal().Unit() }
