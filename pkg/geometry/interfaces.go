package geometry

import "github.com/df07/go-muscat/pkg/core"

// Interval is a range of ray parameters [In, Out] spent inside a solid
type Interval struct {
	In, Out float64
}

// Solid is a closed shape that a track can pass through
type Solid interface {
	// Intervals returns the sorted, disjoint parameter ranges along the ray
	// that lie inside the solid. Ranges behind the origin may be included;
	// the track clips them.
	Intervals(ray core.Ray) []Interval
	BoundingBox() core.AABB
}

// subtractIntervals removes the ranges in cut from the ranges in base.
// Both inputs must be sorted and disjoint.
func subtractIntervals(base, cut []Interval) []Interval {
	var out []Interval
	for _, b := range base {
		pieces := []Interval{b}
		for _, c := range cut {
			var next []Interval
			for _, p := range pieces {
				if c.Out <= p.In || c.In >= p.Out {
					next = append(next, p)
					continue
				}
				if c.In > p.In {
					next = append(next, Interval{In: p.In, Out: c.In})
				}
				if c.Out < p.Out {
					next = append(next, Interval{In: c.Out, Out: p.Out})
				}
			}
			pieces = next
		}
		out = append(out, pieces...)
	}
	return out
}
