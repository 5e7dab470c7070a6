package geometry

import (
	"math"

	"github.com/df07/go-muscat/pkg/core"
)

// Cylinder represents a solid cylinder closed by flat caps
type Cylinder struct {
	BaseCenter core.Vec3
	TopCenter  core.Vec3
	Radius     float64

	// Cached derived values
	axis   core.Vec3 // Unit vector from base to top
	height float64   // Distance between base and top
}

// NewCylinder creates a new cylinder
func NewCylinder(baseCenter, topCenter core.Vec3, radius float64) *Cylinder {
	axisVector := topCenter.Subtract(baseCenter)

	return &Cylinder{
		BaseCenter: baseCenter,
		TopCenter:  topCenter,
		Radius:     radius,
		axis:       axisVector.Normalize(),
		height:     axisVector.Length(),
	}
}

// NewCenteredCylinder creates a cylinder of the given height centered on a point
func NewCenteredCylinder(center, axis core.Vec3, radius, height float64) *Cylinder {
	half := axis.Normalize().Multiply(height / 2)
	return NewCylinder(center.Subtract(half), center.Add(half), radius)
}

// BoundingBox returns the axis-aligned bounding box for this cylinder
func (c *Cylinder) BoundingBox() core.AABB {
	// A cap disc with unit normal n extends r*sqrt(1-n_i²) along axis i
	extent := core.NewVec3(
		c.Radius*math.Sqrt(math.Max(0, 1-c.axis.X*c.axis.X)),
		c.Radius*math.Sqrt(math.Max(0, 1-c.axis.Y*c.axis.Y)),
		c.Radius*math.Sqrt(math.Max(0, 1-c.axis.Z*c.axis.Z)),
	)

	return core.NewAABBFromPoints(
		c.BaseCenter.Subtract(extent),
		c.BaseCenter.Add(extent),
		c.TopCenter.Subtract(extent),
		c.TopCenter.Add(extent),
	)
}

// Intervals returns the range of the ray inside the cylinder
func (c *Cylinder) Intervals(ray core.Ray) []Interval {
	in, out, ok := c.clip(ray)
	if !ok {
		return nil
	}
	return []Interval{{In: in, Out: out}}
}

func (c *Cylinder) clip(ray core.Ray) (float64, float64, bool) {
	const epsilon = 1e-12

	// Vector from ray origin to base center
	delta := ray.Origin.Subtract(c.BaseCenter)

	DV := ray.Direction.Dot(c.axis) // D · V̂
	deltaV := delta.Dot(c.axis)     // Δ · V̂

	// Slab between the caps: 0 <= Δ·V̂ + t(D·V̂) <= h
	capIn, capOut := math.Inf(-1), math.Inf(1)
	if math.Abs(DV) < epsilon {
		if deltaV < 0 || deltaV > c.height {
			return 0, 0, false
		}
	} else {
		capIn = -deltaV / DV
		capOut = (c.height - deltaV) / DV
		if capIn > capOut {
			capIn, capOut = capOut, capIn
		}
	}

	// Infinite side wall: at² + bt + cc = 0
	a := ray.Direction.LengthSquared() - DV*DV
	b := 2.0 * (delta.Dot(ray.Direction) - deltaV*DV)
	cc := delta.LengthSquared() - deltaV*deltaV - c.Radius*c.Radius

	sideIn, sideOut := math.Inf(-1), math.Inf(1)
	if math.Abs(a) < epsilon {
		// Ray parallel to the axis: inside for all t or never
		if cc > 0 {
			return 0, 0, false
		}
	} else {
		discriminant := b*b - 4*a*cc
		if discriminant <= 0 {
			return 0, 0, false
		}
		sqrtD := math.Sqrt(discriminant)
		sideIn = (-b - sqrtD) / (2 * a)
		sideOut = (-b + sqrtD) / (2 * a)
	}

	in := math.Max(capIn, sideIn)
	out := math.Min(capOut, sideOut)
	if in >= out {
		return 0, 0, false
	}
	return in, out, true
}

// HollowCylinder is an annular solid, such as the wall of a sample can
type HollowCylinder struct {
	Outer *Cylinder
	Inner *Cylinder
}

// NewHollowCylinder creates an annulus between two radii sharing one axis
func NewHollowCylinder(center, axis core.Vec3, innerRadius, outerRadius, height float64) *HollowCylinder {
	return &HollowCylinder{
		Outer: NewCenteredCylinder(center, axis, outerRadius, height),
		Inner: NewCenteredCylinder(center, axis, innerRadius, height),
	}
}

// Intervals returns up to two ranges: the ray crosses the wall on the way
// in and again on the way out
func (h *HollowCylinder) Intervals(ray core.Ray) []Interval {
	return subtractIntervals(h.Outer.Intervals(ray), h.Inner.Intervals(ray))
}

// BoundingBox returns the bounding box of the outer wall
func (h *HollowCylinder) BoundingBox() core.AABB {
	return h.Outer.BoundingBox()
}
