package geometry

import (
	"math"

	"github.com/df07/go-muscat/pkg/core"
)

// SegmentTolerance is the shortest in-object path kept as a segment.
// Rays that only skim a surface produce nothing longer and count as a miss.
const SegmentTolerance = 1e-10

// Segment is one passage of a track through a solid
type Segment struct {
	Entry         core.Vec3 // Entry point, or the track origin when it starts inside
	Exit          core.Vec3 // Exit point
	DistFromStart float64   // Distance from the track origin to Exit
	DistInside    float64   // Path length inside the solid
}

// Track is a ray plus its recorded intersections with a solid.
// Tracks are values: every transition returns a new track and leaves the
// receiver untouched.
type Track struct {
	origin    core.Vec3
	direction core.Vec3
	segments  []Segment
}

// NewTrack creates a track with no intersections. The direction is normalized.
func NewTrack(origin, direction core.Vec3) Track {
	return Track{origin: origin, direction: direction.Normalize()}
}

// Origin returns the start point of the track
func (t Track) Origin() core.Vec3 { return t.origin }

// Direction returns the unit direction of the track
func (t Track) Direction() core.Vec3 { return t.direction }

// Segments returns the recorded intersections in order along the track
func (t Track) Segments() []Segment { return t.segments }

// Count returns the number of recorded intersections
func (t Track) Count() int { return len(t.segments) }

// Front returns the first recorded intersection
func (t Track) Front() (Segment, bool) {
	if len(t.segments) == 0 {
		return Segment{}, false
	}
	return t.segments[0], true
}

// Ray returns the track's origin and direction as a ray
func (t Track) Ray() core.Ray {
	return core.NewRay(t.origin, t.direction)
}

// WithOrigin moves the track start point and clears the intersections
func (t Track) WithOrigin(origin core.Vec3) Track {
	return Track{origin: origin, direction: t.direction}
}

// WithDirection points the track in a new direction and clears the intersections
func (t Track) WithDirection(direction core.Vec3) Track {
	return Track{origin: t.origin, direction: direction.Normalize()}
}

// Intersect records the passages of the track through the solid,
// replacing any previous intersections.
func (t Track) Intersect(s Solid) Track {
	ray := t.Ray()
	var segments []Segment
	for _, iv := range s.Intervals(ray) {
		in := math.Max(iv.In, 0)
		if iv.Out-in <= SegmentTolerance {
			continue
		}
		segments = append(segments, Segment{
			Entry:         ray.At(in),
			Exit:          ray.At(iv.Out),
			DistFromStart: iv.Out,
			DistInside:    iv.Out - in,
		})
	}
	return Track{origin: t.origin, direction: t.direction, segments: segments}
}

// InterceptSurface intersects the track with the solid and returns the
// updated track with the number of segments found. Zero means a miss.
func InterceptSurface(s Solid, t Track) (Track, int) {
	hit := t.Intersect(s)
	return hit, hit.Count()
}
