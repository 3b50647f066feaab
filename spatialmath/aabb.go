// Package spatialmath defines the geometric primitives consumed and produced
// by the broad-phase spatial index: axis-aligned bounding boxes and rays.
//
// All predicates in this package have an explicit, tested NaN contract. A box
// or ray with a NaN component never produces a positive contact result; the
// comparisons are structured so that IEEE-754 NaN semantics make every
// overlap test fail rather than accidentally succeed.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/viam-labs/broadphase/utils"
)

// Aabb is an axis-aligned bounding box, the minimal box with edges parallel
// to the coordinate axes enclosing a shape.
type Aabb struct {
	Min r3.Vector
	Max r3.Vector
}

// NewAabb creates an Aabb from its extreme corners. It returns an error when
// any minimum exceeds the corresponding maximum. NaN components are accepted
// and propagate; see the package comment for the NaN contract.
func NewAabb(min, max r3.Vector) (Aabb, error) {
	if min.X > max.X || min.Y > max.Y || min.Z > max.Z {
		return Aabb{}, newInvalidAabbError(min, max)
	}
	return Aabb{Min: min, Max: max}, nil
}

// AabbFromCenterExtents creates an Aabb centered at center with the given
// full side lengths. Negative dimensions are not allowed; zero dimensions
// are, for point-like and flat bounds.
func AabbFromCenterExtents(center, dims r3.Vector) (Aabb, error) {
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return Aabb{}, errors.Errorf("aabb dimensions must be non-negative, got %v", dims)
	}
	half := dims.Mul(0.5)
	return Aabb{Min: center.Sub(half), Max: center.Add(half)}, nil
}

// AabbForPoint returns the degenerate box containing exactly the given point.
func AabbForPoint(pt r3.Vector) Aabb {
	return Aabb{Min: pt, Max: pt}
}

func newInvalidAabbError(min, max r3.Vector) error {
	return errors.Errorf("invalid aabb: min %v exceeds max %v", min, max)
}

// String returns a human readable representation of the box.
func (a Aabb) String() string {
	return fmt.Sprintf("Aabb[%v %v]", a.Min, a.Max)
}

// IsValid reports whether all components are finite, non-NaN, and ordered
// min<=max on every axis.
func (a Aabb) IsValid() bool {
	return !a.IsNaN() &&
		!math.IsInf(a.Min.X, 0) && !math.IsInf(a.Min.Y, 0) && !math.IsInf(a.Min.Z, 0) &&
		!math.IsInf(a.Max.X, 0) && !math.IsInf(a.Max.Y, 0) && !math.IsInf(a.Max.Z, 0) &&
		a.Min.X <= a.Max.X && a.Min.Y <= a.Max.Y && a.Min.Z <= a.Max.Z
}

// IsNaN reports whether any component of the box is NaN.
func (a Aabb) IsNaN() bool {
	return math.IsNaN(a.Min.X) || math.IsNaN(a.Min.Y) || math.IsNaN(a.Min.Z) ||
		math.IsNaN(a.Max.X) || math.IsNaN(a.Max.Y) || math.IsNaN(a.Max.Z)
}

// Intersects reports whether the two boxes overlap, boundary contact
// included. Every comparison must hold for a positive result, so a NaN
// component on either box yields false: no false positives from invalid
// geometry.
func (a Aabb) Intersects(other Aabb) bool {
	return a.Min.X <= other.Max.X && other.Min.X <= a.Max.X &&
		a.Min.Y <= other.Max.Y && other.Min.Y <= a.Max.Y &&
		a.Min.Z <= other.Max.Z && other.Min.Z <= a.Max.Z
}

// Contains reports whether other lies entirely inside the box. NaN on either
// box yields false.
func (a Aabb) Contains(other Aabb) bool {
	return a.Min.X <= other.Min.X && other.Max.X <= a.Max.X &&
		a.Min.Y <= other.Min.Y && other.Max.Y <= a.Max.Y &&
		a.Min.Z <= other.Min.Z && other.Max.Z <= a.Max.Z
}

// ContainsPoint reports whether the point lies inside the box, boundary
// included.
func (a Aabb) ContainsPoint(pt r3.Vector) bool {
	return a.Min.X <= pt.X && pt.X <= a.Max.X &&
		a.Min.Y <= pt.Y && pt.Y <= a.Max.Y &&
		a.Min.Z <= pt.Z && pt.Z <= a.Max.Z
}

// Union returns the smallest box enclosing both boxes. NaN components
// propagate into the result.
func (a Aabb) Union(other Aabb) Aabb {
	return Aabb{
		Min: r3.Vector{
			X: math.Min(a.Min.X, other.Min.X),
			Y: math.Min(a.Min.Y, other.Min.Y),
			Z: math.Min(a.Min.Z, other.Min.Z),
		},
		Max: r3.Vector{
			X: math.Max(a.Max.X, other.Max.X),
			Y: math.Max(a.Max.Y, other.Max.Y),
			Z: math.Max(a.Max.Z, other.Max.Z),
		},
	}
}

// Center returns the midpoint of the box.
func (a Aabb) Center() r3.Vector {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Extents returns the box's full side lengths.
func (a Aabb) Extents() r3.Vector {
	return a.Max.Sub(a.Min)
}

// ExtentLength returns the length of the box diagonal.
func (a Aabb) ExtentLength() float64 {
	return a.Extents().Norm()
}

// SurfaceArea returns the total area of the box faces, the cost metric used
// when choosing where to insert a leaf in the bounding-volume tree.
func (a Aabb) SurfaceArea() float64 {
	e := a.Extents()
	return 2 * (e.X*e.Y + e.Y*e.Z + e.Z*e.X)
}

// Volume returns the enclosed volume.
func (a Aabb) Volume() float64 {
	e := a.Extents()
	return e.X * e.Y * e.Z
}

// Grow returns the box expanded by margin on all sides. A zero margin
// returns the box unchanged.
func (a Aabb) Grow(margin float64) Aabb {
	if margin == 0 {
		return a
	}
	m := r3.Vector{X: margin, Y: margin, Z: margin}
	return Aabb{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Proximity returns the manhattan distance between the centers of two boxes,
// doubled. Used as a tie break between equal-cost insertion candidates.
func (a Aabb) Proximity(other Aabb) float64 {
	return math.Abs(a.Min.X+a.Max.X-other.Min.X-other.Max.X) +
		math.Abs(a.Min.Y+a.Max.Y-other.Min.Y-other.Max.Y) +
		math.Abs(a.Min.Z+a.Max.Z-other.Min.Z-other.Max.Z)
}

// DistanceSquaredToPoint returns the squared distance from the point to the
// closest point on the box, zero when the point is inside. NaN components in
// either argument produce NaN, never an underestimate of zero.
func (a Aabb) DistanceSquaredToPoint(pt r3.Vector) float64 {
	closest := r3.Vector{
		X: utils.Clamp(pt.X, a.Min.X, a.Max.X),
		Y: utils.Clamp(pt.Y, a.Min.Y, a.Max.Y),
		Z: utils.Clamp(pt.Z, a.Min.Z, a.Max.Z),
	}
	// Clamp passes NaN inputs through unordered comparisons unchanged, and a
	// NaN bound leaves pt's component in place; force NaN out explicitly.
	if a.IsNaN() || math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsNaN(pt.Z) {
		return math.NaN()
	}
	return pt.Sub(closest).Norm2()
}

// DistanceSquaredToAabb returns the squared distance between the two boxes,
// zero when they touch or overlap. This is the lower bound used to order and
// prune subtrees in closest-point queries. NaN components produce NaN;
// math.Max propagates NaN, so an invalid box can never report a spuriously
// small distance.
func (a Aabb) DistanceSquaredToAabb(other Aabb) float64 {
	dx := math.Max(0, math.Max(other.Min.X-a.Max.X, a.Min.X-other.Max.X))
	dy := math.Max(0, math.Max(other.Min.Y-a.Max.Y, a.Min.Y-other.Max.Y))
	dz := math.Max(0, math.Max(other.Min.Z-a.Max.Z, a.Min.Z-other.Max.Z))
	return dx*dx + dy*dy + dz*dz
}

// AlmostEqual reports whether two boxes are equal to within epsilon on every
// component.
func (a Aabb) AlmostEqual(other Aabb, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.Min.X, other.Min.X, epsilon) &&
		utils.Float64AlmostEqual(a.Min.Y, other.Min.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Min.Z, other.Min.Z, epsilon) &&
		utils.Float64AlmostEqual(a.Max.X, other.Max.X, epsilon) &&
		utils.Float64AlmostEqual(a.Max.Y, other.Max.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Max.Z, other.Max.Z, epsilon)
}
