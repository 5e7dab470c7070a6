package core

import (
	"math"
	"testing"
)

func TestAABB_Intersect(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name      string
		ray       Ray
		expectHit bool
		tNear     float64
		tFar      float64
	}{
		{
			name:      "through center",
			ray:       NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, 1)),
			expectHit: true,
			tNear:     4,
			tFar:      6,
		},
		{
			name:      "origin inside",
			ray:       NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)),
			expectHit: true,
			tNear:     -1,
			tFar:      1,
		},
		{
			name:      "parallel outside slab",
			ray:       NewRay(NewVec3(2, 0, -5), NewVec3(0, 0, 1)),
			expectHit: false,
		},
		{
			name:      "diagonal miss",
			ray:       NewRay(NewVec3(-5, 3, 0), NewVec3(1, 0, 0)),
			expectHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tNear, tFar, ok := box.Intersect(tt.ray)
			if ok != tt.expectHit {
				t.Fatalf("Expected hit=%t, got %t", tt.expectHit, ok)
			}
			if !ok {
				return
			}
			if math.Abs(tNear-tt.tNear) > 1e-12 || math.Abs(tFar-tt.tFar) > 1e-12 {
				t.Errorf("Expected [%f, %f], got [%f, %f]", tt.tNear, tt.tFar, tNear, tFar)
			}
		})
	}
}

func TestAABB_Width(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(-1, 0, 2), NewVec3(3, 0.5, -2))
	expected := []float64{4, 0.5, 4}
	for axis, w := range expected {
		if got := box.Width(Axis(axis)); math.Abs(got-w) > 1e-12 {
			t.Errorf("Axis %d: expected width %f, got %f", axis, w, got)
		}
	}
	if !box.Contains(NewVec3(0, 0.25, 0)) {
		t.Error("Expected center point to be contained")
	}
}

func TestAABB_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		box   AABB
		valid bool
	}{
		{"from points", NewAABBFromPoints(NewVec3(1, 1, 1), NewVec3(-1, 0, 2)), true},
		{"single point", NewAABB(NewVec3(1, 2, 3), NewVec3(1, 2, 3)), true},
		{"inverted", NewAABB(NewVec3(1, 0, 0), NewVec3(0, 1, 1)), false},
		{"NaN", NewAABB(NewVec3(math.NaN(), 0, 0), NewVec3(1, 1, 1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.IsValid(); got != tt.valid {
				t.Errorf("Expected IsValid=%t, got %t", tt.valid, got)
			}
		})
	}
}
