package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewRay(t *testing.T) {
	r, err := NewRay(r3.Vector{X: 1}, r3.Vector{X: 0, Y: 3, Z: 4}, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Direction.Norm(), test.ShouldAlmostEqual, 1)
	test.That(t, r.PointAt(5), test.ShouldResemble, r3.Vector{X: 1, Y: 3, Z: 4})

	// an unnormalized direction is normalized, not rejected
	test.That(t, r.Direction, test.ShouldResemble, r3.Vector{X: 0, Y: 0.6, Z: 0.8})

	_, err = NewRay(r3.Vector{}, r3.Vector{}, 10)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRay(r3.Vector{}, r3.Vector{X: math.NaN()}, 10)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRay(r3.Vector{}, r3.Vector{X: 1}, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRay(r3.Vector{}, r3.Vector{X: 1}, math.NaN())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRayIntersectsAabb(t *testing.T) {
	unit := Aabb{Min: r3.Vector{X: -1, Y: -1, Z: -1}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}

	cases := []struct {
		name     string
		origin   r3.Vector
		dir      r3.Vector
		length   float64
		expected bool
	}{
		{"straight through", r3.Vector{X: -10}, r3.Vector{X: 1}, 20, true},
		{"offset miss", r3.Vector{X: -10, Y: 5, Z: 5}, r3.Vector{X: 1}, 20, false},
		{"too short", r3.Vector{X: -10}, r3.Vector{X: 1}, 5, false},
		{"pointing away", r3.Vector{X: -10}, r3.Vector{X: -1}, 20, false},
		{"starts inside", r3.Vector{}, r3.Vector{Y: 1}, 0.5, true},
		{"diagonal through corner region", r3.Vector{X: -5, Y: -5, Z: -5}, r3.Vector{X: 1, Y: 1, Z: 1}, 20, true},
		{"diagonal miss", r3.Vector{X: -5, Y: 5, Z: 0}, r3.Vector{X: 1, Y: 1, Z: 0}, 40, false},
		{"parallel inside slab", r3.Vector{X: -10, Y: 0.5, Z: 0.5}, r3.Vector{X: 1}, 20, true},
		{"parallel outside slab", r3.Vector{X: -10, Y: 1.5, Z: 0}, r3.Vector{X: 1}, 20, false},
		{"length exactly reaches face", r3.Vector{X: -3}, r3.Vector{X: 1}, 2, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := NewRay(c.origin, c.dir, c.length)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, r.IntersectsAabb(unit, 0), test.ShouldEqual, c.expected)
		})
	}
}

func TestRayIntersectsAabbEpsilon(t *testing.T) {
	unit := Aabb{Min: r3.Vector{X: -1, Y: -1, Z: -1}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}

	// grazing just outside the face: a miss with zero tolerance, a hit once
	// the box is widened by an epsilon larger than the gap
	r, err := NewRay(r3.Vector{X: -10, Y: 1 + 1e-9, Z: 0}, r3.Vector{X: 1}, 20)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.IntersectsAabb(unit, 0), test.ShouldBeFalse)
	test.That(t, r.IntersectsAabb(unit, 1e-8), test.ShouldBeTrue)
}

func TestRayIntersectsAabbNaN(t *testing.T) {
	nan := math.NaN()
	r, err := NewRay(r3.Vector{X: -10}, r3.Vector{X: 1}, 20)
	test.That(t, err, test.ShouldBeNil)

	nanBoxes := []Aabb{
		{Min: r3.Vector{X: nan, Y: -1, Z: -1}, Max: r3.Vector{X: 1, Y: 1, Z: 1}},
		{Min: r3.Vector{X: -1, Y: nan, Z: -1}, Max: r3.Vector{X: 1, Y: 1, Z: 1}},
		{Min: r3.Vector{X: -1, Y: -1, Z: nan}, Max: r3.Vector{X: 1, Y: 1, Z: 1}},
		{Min: r3.Vector{X: -1, Y: -1, Z: -1}, Max: r3.Vector{X: 1, Y: 1, Z: nan}},
	}
	for _, nb := range nanBoxes {
		test.That(t, r.IntersectsAabb(nb, 0), test.ShouldBeFalse)
		test.That(t, r.IntersectsAabb(nb, 1), test.ShouldBeFalse)
	}
}
