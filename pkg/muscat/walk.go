package muscat

import (
	"fmt"
	"math"

	"github.com/df07/go-muscat/pkg/core"
	"github.com/df07/go-muscat/pkg/geometry"
	"github.com/df07/go-muscat/pkg/xsection"
)

// walkState is the mutable state of one neutron history
type walkState struct {
	weight float64
	qss    float64 // Running sum of Q*S(Q) over the scatters sampled so far
	track  geometry.Track
}

// updateWeightAndPosition samples the next interaction point along the
// front segment of the track. The free path is drawn from the exponential
// distribution truncated to the path length inside the sample, and the
// weight picks up the probability of interacting at all.
func (w *walkState) updateWeightAndPosition(vmu, sigmaTotal float64, sampler core.Sampler) {
	front, _ := w.track.Front()
	b4 := 1 - math.Exp(-front.DistInside*vmu)
	vl := -math.Log(1-sampler.Get1D()*b4) / vmu
	w.weight *= b4 / sigmaTotal
	w.track = w.track.WithOrigin(front.Entry.Add(w.track.Direction().Multiply(vl)))
}

// sampleScatteringDirection samples a momentum transfer from the flat distribution on
// [0, Qmax of the S(Q) table], keeping only values that are kinematically
// allowed for elastic scattering at kinc, then turns the track by the
// matching angle about a uniformly sampled azimuth.
func (w *walkState) sampleScatteringDirection(sofq *xsection.Table, kinc, sigmaS float64, frame core.ReferenceFrame, sampler core.Sampler) error {
	qmax := sofq.MaxX()
	var q, cosT float64
	found := false
	for i := 0; i < maxQAttempts; i++ {
		q = qmax * sampler.Get1D()
		cosT = 1 - q*q/(2*kinc*kinc)
		if math.Abs(cosT) <= 1 {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w for kinc=%g", ErrMomentumTransfer, kinc)
	}

	sq := sofq.Interpolate(q)
	w.qss += q * sq
	w.weight *= sigmaS * sq * q

	phi := 2 * math.Pi * sampler.Get1D()
	w.track = w.track.WithDirection(rotateDirection(w.track.Direction(), cosT, phi, frame))
	return nil
}

// rotateDirection returns the unit vector at polar angle acos(cosT) from dir
// and azimuth phi about it. The azimuth is measured from the projection of
// the frame's up axis onto the plane normal to dir. When dir is parallel to
// up the horizontal axis is used instead.
func rotateDirection(dir core.Vec3, cosT, phi float64, frame core.ReferenceFrame) core.Vec3 {
	sinT := math.Sqrt(math.Max(0, 1-cosT*cosT))
	up := frame.Up()

	var p1, p2 core.Vec3
	u := dir.Dot(up)
	if 1-math.Abs(u) > 1e-12 {
		a := math.Sqrt(1 - u*u)
		p1 = up.Subtract(dir.Multiply(u)).Multiply(1 / a)
		p2 = dir.Cross(up).Multiply(1 / a)
	} else {
		p1 = frame.Horizontal()
		p2 = frame.AlongBeam()
	}

	perp := p1.Multiply(math.Cos(phi)).Add(p2.Multiply(math.Sin(phi)))
	return dir.Multiply(cosT).Add(perp.Multiply(sinT)).Normalize()
}

// generateInitialTrack creates a track travelling along the beam, starting
// in the source plane at a uniformly sampled point of the sample's bounding
// box cross section.
func generateInitialTrack(bbox core.AABB, frame core.ReferenceFrame, source core.Vec3, sampler core.Sampler) geometry.Track {
	horizontal := frame.PointingHorizontal()
	up := frame.PointingUp()
	beam := frame.PointingAlongBeam()

	origin := core.Vec3{}.
		WithComponent(horizontal, bbox.Min.Component(horizontal)+sampler.Get1D()*bbox.Width(horizontal)).
		WithComponent(up, bbox.Min.Component(up)+sampler.Get1D()*bbox.Width(up)).
		WithComponent(beam, source.Component(beam))
	return geometry.NewTrack(origin, frame.AlongBeam())
}
