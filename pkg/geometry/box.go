package geometry

import "github.com/df07/go-muscat/pkg/core"

// Box represents a solid axis-aligned box, such as a flat-plate sample
type Box struct {
	Center core.Vec3 // Center point of the box
	Size   core.Vec3 // Half-extents along each axis
	bbox   core.AABB
}

// NewBox creates a new box. Size represents half-extents, so a size of
// (1,1,1) creates a 2x2x2 box.
func NewBox(center, size core.Vec3) *Box {
	return &Box{
		Center: center,
		Size:   size,
		bbox:   core.NewAABB(center.Subtract(size), center.Add(size)),
	}
}

// Intervals returns the range of the ray inside the box
func (b *Box) Intervals(ray core.Ray) []Interval {
	tNear, tFar, ok := b.bbox.Intersect(ray)
	if !ok || tFar <= tNear {
		return nil
	}
	return []Interval{{In: tNear, Out: tFar}}
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() core.AABB {
	return b.bbox
}
