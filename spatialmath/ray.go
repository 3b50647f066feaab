package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Ray is a directed line segment: an origin, a unit direction, and a finite
// length. Construct with NewRay so that the direction is normalized and the
// per-axis inverse direction is precomputed once instead of on every slab
// test.
type Ray struct {
	Origin    r3.Vector
	Direction r3.Vector
	Length    float64

	invDir r3.Vector
}

// NewRay creates a ray from an origin, a direction of any nonzero magnitude,
// and a length. A zero-length or NaN direction cannot define a ray and is
// rejected here rather than producing a degenerate query later.
func NewRay(origin, direction r3.Vector, length float64) (Ray, error) {
	norm := direction.Norm()
	if norm == 0 || math.IsNaN(norm) {
		return Ray{}, errors.New("ray direction must have nonzero, non-NaN magnitude")
	}
	if length <= 0 || math.IsNaN(length) {
		return Ray{}, errors.Errorf("ray length must be positive, got %f", length)
	}
	dir := direction.Mul(1 / norm)
	return Ray{
		Origin:    origin,
		Direction: dir,
		Length:    length,
		// Axis-parallel directions yield ±Inf here, which the slab test
		// handles by checking the origin against the slab directly.
		invDir: r3.Vector{X: 1 / dir.X, Y: 1 / dir.Y, Z: 1 / dir.Z},
	}, nil
}

// PointAt returns the point at parameter distance t along the ray.
func (r Ray) PointAt(t float64) r3.Vector {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectsAabb reports whether the ray segment passes through the box,
// widened by epsilon on all sides to tolerate floating-point error at box
// boundaries. Callers scale epsilon to the overall extent of the geometry.
//
// A box with NaN components never intersects anything; that case is handled
// by an explicit check rather than depending on NaN falling through the slab
// arithmetic, because the axis-parallel branches below would otherwise skip
// a NaN slab.
func (r Ray) IntersectsAabb(box Aabb, epsilon float64) bool {
	if box.IsNaN() {
		return false
	}

	tMin := 0.0
	tMax := r.Length

	origin := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	inv := [3]float64{r.invDir.X, r.invDir.Y, r.invDir.Z}
	lo := [3]float64{box.Min.X - epsilon, box.Min.Y - epsilon, box.Min.Z - epsilon}
	hi := [3]float64{box.Max.X + epsilon, box.Max.Y + epsilon, box.Max.Z + epsilon}

	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			// Parallel to this slab pair: hit only if the origin lies between them.
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) * inv[i]
		t2 := (hi[i] - origin[i]) * inv[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
	}

	return tMin <= tMax
}
