package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-muscat/pkg/core"
)

func TestShapes_PathLength(t *testing.T) {
	tests := []struct {
		name     string
		solid    Solid
		track    Track
		segments int
		total    float64
	}{
		{
			name:     "sphere diameter",
			solid:    NewSphere(core.NewVec3(1, 1, 1), 0.5),
			track:    NewTrack(core.NewVec3(1, 1, -3), core.NewVec3(0, 0, 1)),
			segments: 1,
			total:    1.0,
		},
		{
			name:     "box through faces",
			solid:    NewBox(core.NewVec3(0, 0, 0), core.NewVec3(0.5, 1, 0.1)),
			track:    NewTrack(core.NewVec3(0.2, 0.3, -1), core.NewVec3(0, 0, 1)),
			segments: 1,
			total:    0.2,
		},
		{
			name:     "cylinder across axis",
			solid:    NewCenteredCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), 0.5, 2),
			track:    NewTrack(core.NewVec3(0, 0, -2), core.NewVec3(0, 0, 1)),
			segments: 1,
			total:    1.0,
		},
		{
			name:     "cylinder along axis through caps",
			solid:    NewCenteredCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), 0.5, 2),
			track:    NewTrack(core.NewVec3(0.1, -5, 0), core.NewVec3(0, 1, 0)),
			segments: 1,
			total:    2.0,
		},
		{
			name:     "cylinder above caps",
			solid:    NewCenteredCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), 0.5, 2),
			track:    NewTrack(core.NewVec3(0, 1.5, -2), core.NewVec3(0, 0, 1)),
			segments: 0,
		},
		{
			name:     "hollow cylinder crosses wall twice",
			solid:    NewHollowCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), 0.4, 0.5, 2),
			track:    NewTrack(core.NewVec3(0, 0, -2), core.NewVec3(0, 0, 1)),
			segments: 2,
			total:    0.2,
		},
		{
			name:     "hollow cylinder through the bore only",
			solid:    NewHollowCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), 0.4, 0.5, 2),
			track:    NewTrack(core.NewVec3(0, -5, 0), core.NewVec3(0, 1, 0)),
			segments: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, n := InterceptSurface(tt.solid, tt.track)
			if n != tt.segments {
				t.Fatalf("Expected %d segments, got %d", tt.segments, n)
			}
			total := 0.0
			for _, s := range hit.Segments() {
				total += s.DistInside
			}
			if math.Abs(total-tt.total) > 1e-9 {
				t.Errorf("Expected total path %f, got %f", tt.total, total)
			}
		})
	}
}

func TestCylinder_BoundingBox(t *testing.T) {
	c := NewCenteredCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), 0.5, 2)
	bbox := c.BoundingBox()

	expected := core.NewAABB(core.NewVec3(-0.5, -1, -0.5), core.NewVec3(0.5, 1, 0.5))
	if bbox.Min.Subtract(expected.Min).Length() > 1e-12 || bbox.Max.Subtract(expected.Max).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", expected, bbox)
	}
}

func TestSphere_BoundingBox(t *testing.T) {
	s := NewSphere(core.NewVec3(1, 2, 3), 2)
	bbox := s.BoundingBox()
	if bbox.Min != core.NewVec3(-1, 0, 1) || bbox.Max != core.NewVec3(3, 4, 5) {
		t.Errorf("Unexpected bounding box %v", bbox)
	}
}
