package bvtree

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/broadphase/pool"
	"github.com/viam-labs/broadphase/spatialmath"
)

// Queries on a settled tree may run from any number of goroutines at once,
// including the very first queries after a batch of mutations, which race to
// refit the stale region.
func TestConcurrentQueries(t *testing.T) {
	logger := golog.NewTestLogger(t)
	tree := NewTree[string](logger)

	const perAxis = 6
	for x := 0; x < perAxis; x++ {
		for y := 0; y < perAxis; y++ {
			for z := 0; z < perAxis; z++ {
				item := fmt.Sprintf("cell-%d-%d-%d", x, y, z)
				b := mkBox(t,
					float64(x)*10, float64(y)*10, float64(z)*10,
					float64(x)*10+1, float64(y)*10+1, float64(z)*10+1,
				)
				test.That(t, tree.Insert(item, b), test.ShouldBeNil)
			}
		}
	}
	// the root chain is stale; the workers below race to revalidate it
	test.That(t, tree.root.valid.Load(), test.ShouldBeFalse)

	probe := mkBox(t, -1, -1, -1, 11, 11, 11)
	wantOverlap := sorted([]string{"cell-0-0-0", "cell-0-0-1", "cell-0-1-0", "cell-0-1-1",
		"cell-1-0-0", "cell-1-0-1", "cell-1-1-0", "cell-1-1-1"})

	ray, err := spatialmath.NewRay(r3.Vector{X: -5, Y: 0.5, Z: 0.5}, r3.Vector{X: 1}, 100)
	test.That(t, err, test.ShouldBeNil)
	wantRay := make([]string, 0, perAxis)
	for x := 0; x < perAxis; x++ {
		wantRay = append(wantRay, fmt.Sprintf("cell-%d-0-0", x))
	}
	wantRay = sorted(wantRay)

	closestQuery := spatialmath.AabbForPoint(r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})

	const workers = 8
	const rounds = 50
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if got := sorted(tree.Overlapping(probe)); fmt.Sprint(got) != fmt.Sprint(wantOverlap) {
					results <- fmt.Errorf("overlap mismatch: %v", got)
					return
				}
				if got := sorted(tree.OverlappingRay(ray)); fmt.Sprint(got) != fmt.Sprint(wantRay) {
					results <- fmt.Errorf("ray mismatch: %v", got)
					return
				}
				best, err := tree.ClosestPointCandidates(closestQuery, math.Inf(1), func(item string) float64 {
					return tree.leaves[item].itemAabb.DistanceSquaredToPoint(closestQuery.Min)
				})
				if err != nil {
					results <- err
					return
				}
				if best != 0 {
					results <- fmt.Errorf("closest mismatch: %v", best)
					return
				}
			}
			results <- nil
		})
	}
	wg.Wait()
	close(results)
	for err := range results {
		test.That(t, err, test.ShouldBeNil)
	}

	test.That(t, tree.CheckInvariants(), test.ShouldBeNil)
}

func TestQueryStackPooling(t *testing.T) {
	logger := golog.NewTestLogger(t)
	tree := NewTree[string](logger)
	for i := 0; i < 20; i++ {
		test.That(t, tree.Insert(fmt.Sprintf("item-%d", i), mkBox(t,
			float64(i), 0, 0, float64(i)+1, 1, 1)), test.ShouldBeNil)
	}

	before := tree.stackPool.Metrics()
	for i := 0; i < 10; i++ {
		tree.Overlapping(mkBox(t, 0, 0, 0, 30, 1, 1))
	}
	after := tree.stackPool.Metrics()

	// every traversal stack handed out comes back
	test.That(t, after.Obtained-before.Obtained, test.ShouldEqual, 10)
	test.That(t, after.Recycled-before.Recycled, test.ShouldEqual, 10)
}

func TestTraversalStackResetReleasesNodes(t *testing.T) {
	s := &traversalStack[string]{}
	for i := 0; i < 4; i++ {
		s.push(&node[string]{})
	}
	s.reset()
	test.That(t, len(s.nodes), test.ShouldEqual, 0)
	// capacity is kept but the slots no longer pin nodes
	test.That(t, cap(s.nodes), test.ShouldBeGreaterThanOrEqualTo, 4)
	for _, n := range s.nodes[:cap(s.nodes)] {
		test.That(t, n, test.ShouldBeNil)
	}
}

func TestEarlyStopLeavesNoStackResidue(t *testing.T) {
	logger := golog.NewTestLogger(t)
	tree := NewTree[int](logger)
	for i := 0; i < 16; i++ {
		test.That(t, tree.Insert(i, mkBox(t, float64(i), 0, 0, float64(i)+1, 1, 1)), test.ShouldBeNil)
	}

	// stop on the first hit so the traversal abandons a non-empty stack
	tree.OverlappingFunc(mkBox(t, 0, 0, 0, 20, 1, 1), func(int) bool { return false })

	// the stack handed back by the pool must come back empty and unpinned
	s := tree.stackPool.Obtain()
	defer tree.stackPool.Recycle(s)
	test.That(t, len(s.nodes), test.ShouldEqual, 0)
	for _, n := range s.nodes[:cap(s.nodes)] {
		test.That(t, n, test.ShouldBeNil)
	}
}

func TestQueriesWithPoolingDisabled(t *testing.T) {
	logger := golog.NewTestLogger(t)

	pool.SetEnabled(false)
	defer pool.SetEnabled(true)

	tree := NewTree[string](logger)
	test.That(t, tree.Insert("a", mkBox(t, 0, 0, 0, 1, 1, 1)), test.ShouldBeNil)
	test.That(t, tree.Insert("b", mkBox(t, 5, 0, 0, 6, 1, 1)), test.ShouldBeNil)
	test.That(t, tree.Insert("c", mkBox(t, 10, 0, 0, 11, 1, 1)), test.ShouldBeNil)

	got := sorted(tree.Overlapping(mkBox(t, 0, 0, 0, 6, 1, 1)))
	test.That(t, got, test.ShouldResemble, []string{"a", "b"})

	test.That(t, tree.Remove("b"), test.ShouldBeNil)
	test.That(t, sorted(tree.Overlapping(mkBox(t, 0, 0, 0, 6, 1, 1))), test.ShouldResemble, []string{"a"})
	test.That(t, tree.CheckInvariants(), test.ShouldBeNil)
}
