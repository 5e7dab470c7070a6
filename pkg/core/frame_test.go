package core

import (
	"errors"
	"testing"
)

func TestReferenceFrame_Default(t *testing.T) {
	f := DefaultReferenceFrame()
	if f.PointingUp() != AxisY || f.PointingAlongBeam() != AxisZ || f.PointingHorizontal() != AxisX {
		t.Errorf("Unexpected default frame: up=%s beam=%s horizontal=%s",
			f.PointingUp(), f.PointingAlongBeam(), f.PointingHorizontal())
	}
}

func TestReferenceFrame_Horizontal(t *testing.T) {
	tests := []struct {
		up, beam, horizontal Axis
	}{
		{AxisY, AxisZ, AxisX},
		{AxisZ, AxisX, AxisY},
		{AxisX, AxisY, AxisZ},
		{AxisZ, AxisY, AxisX},
	}

	for _, tt := range tests {
		f, err := NewReferenceFrame(tt.up, tt.beam)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if f.PointingHorizontal() != tt.horizontal {
			t.Errorf("up=%s beam=%s: expected horizontal %s, got %s",
				tt.up, tt.beam, tt.horizontal, f.PointingHorizontal())
		}
	}

	if _, err := NewReferenceFrame(AxisX, AxisX); !errors.Is(err, ErrFrame) {
		t.Errorf("Expected ErrFrame for identical axes, got %v", err)
	}
}

func TestParseAxis(t *testing.T) {
	if a, err := ParseAxis("Z"); err != nil || a != AxisZ {
		t.Errorf("Expected z axis, got %v (%v)", a, err)
	}
	if _, err := ParseAxis("w"); err == nil {
		t.Error("Expected error for unknown axis")
	}
}

func TestReferenceFrame_Validate(t *testing.T) {
	tests := []struct {
		name  string
		frame ReferenceFrame
		valid bool
	}{
		{"default", DefaultReferenceFrame(), true},
		{"zero value", ReferenceFrame{}, false},
		{"axis out of range", ReferenceFrame{up: AxisY, beam: Axis(3)}, false},
		{"negative axis", ReferenceFrame{up: Axis(-1), beam: AxisZ}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid frame, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrFrame) {
				t.Errorf("Expected ErrFrame, got %v", err)
			}
		})
	}
}

func TestAxis_String(t *testing.T) {
	tests := []struct {
		axis Axis
		want string
	}{
		{AxisX, "x"},
		{AxisZ, "z"},
		{Axis(3), "Axis(3)"},
		{Axis(-1), "Axis(-1)"},
	}

	for _, tt := range tests {
		if got := tt.axis.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}
