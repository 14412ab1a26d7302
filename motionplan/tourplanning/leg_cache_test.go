package tourplanning

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/ptsp/motionplan"
)

func TestQuantization(t *testing.T) {
	for _, tc := range []struct {
		in  float64
		out int
	}{
		{0.5, 1},
		{-0.5, 0},
		{1.49, 1},
		{-1.5, -1},
		{math.Copysign(0, -1), 0},
	} {
		test.That(t, roundHalfUp(tc.in), test.ShouldEqual, tc.out)
	}

	for _, tc := range []struct {
		in  float64
		out int
	}{
		{0.7, 7},
		{0.71, 8},
		{0.3, 3},
		{1, 10},
		{-0.75, -7},
		{-0.01, 0},
		{0, 0},
		{math.Copysign(0, -1), 0},
	} {
		test.That(t, ceilTenths(tc.in), test.ShouldEqual, tc.out)
	}
}

func TestLegKey(t *testing.T) {
	root := motionplan.NewState(r2.Point{X: 0.7071, Y: -0.7071}, r2.Point{X: 1.4, Y: -0.2}, r2.Point{X: 5, Y: 5})
	goal := motionplan.Goal{Direction: r2.Point{X: 1}, Velocity: r2.Point{X: 0.5, Y: 2.6}, Position: r2.Point{X: 9, Y: 9}}
	key := newLegKey(2, 3, root, goal)
	test.That(t, key, test.ShouldResemble, legKey{
		from: 2, to: 3,
		dirX: 8, dirY: -7,
		velX: 1, velY: 0,
		headX: 10, headY: 0,
		targetX: 1, targetY: 3,
	})

	// Positions do not take part in the key, small velocity changes do not either.
	nearby := motionplan.NewState(root.Direction, r2.Point{X: 1.2, Y: 0.1}, r2.Point{X: 50, Y: 50})
	test.That(t, newLegKey(2, 3, nearby, goal), test.ShouldResemble, key)
	test.That(t, newLegKey(3, 2, root, goal), test.ShouldNotResemble, key)
}

func TestLegCache(t *testing.T) {
	cache := newLegCache()
	k := legKey{from: 0, to: 1}
	test.That(t, cache.get(k), test.ShouldBeNil)

	first := motionplan.Trajectory{*motionplan.NewState(r2.Point{X: 1}, r2.Point{}, r2.Point{X: 1, Y: 1})}
	second := motionplan.Trajectory{*motionplan.NewState(r2.Point{X: 1}, r2.Point{}, r2.Point{X: 2, Y: 2})}
	cache.addSuccess(k, first)
	cache.addSuccess(k, second)
	entry := cache.get(k)
	test.That(t, len(entry.legs), test.ShouldEqual, 2)
	test.That(t, entry.legs[0], test.ShouldResemble, second)
	test.That(t, entry.legs[1], test.ShouldResemble, first)
	test.That(t, entry.failed, test.ShouldBeFalse)

	other := legKey{from: 1, to: 2}
	cache.addFailure(other)
	cache.addFailure(k)
	lists, failures := cache.counts()
	test.That(t, lists, test.ShouldEqual, 1)
	test.That(t, failures, test.ShouldEqual, 2)
	test.That(t, len(cache.get(k).legs), test.ShouldEqual, 2)
}

func TestHeadings(t *testing.T) {
	dirs := headings(r2.Point{X: 0, Y: 0}, r2.Point{X: 0, Y: 10})
	test.That(t, len(dirs), test.ShouldEqual, 8)
	test.That(t, dirs[0].X, test.ShouldAlmostEqual, 0)
	test.That(t, dirs[0].Y, test.ShouldAlmostEqual, 1)
	test.That(t, dirs[2].X, test.ShouldAlmostEqual, -1)
	test.That(t, dirs[4].Y, test.ShouldAlmostEqual, -1)
	for _, d := range dirs {
		test.That(t, d.Norm(), test.ShouldAlmostEqual, 1)
	}
}
