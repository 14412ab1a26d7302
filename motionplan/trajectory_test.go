package motionplan

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func straightLeg(t *testing.T, from r2.Point, steps int) Trajectory {
	t.Helper()
	controls := make([]Controls, steps)
	for i := range controls {
		controls[i] = Controls{Acceleration: 0.05, Duration: 0.5}
	}
	traj, err := Replay(openGrid(t), NewState(r2.Point{X: 1}, r2.Point{}, from), controls)
	test.That(t, err, test.ShouldBeNil)
	return traj
}

func TestTrajectoryExtend(t *testing.T) {
	first := straightLeg(t, r2.Point{X: 10, Y: 50}, 2)
	second := straightLeg(t, first.End().Position, 3)

	var tour Trajectory
	tour = tour.Extend(first)
	test.That(t, len(tour), test.ShouldEqual, 3)
	test.That(t, tour.Cost(), test.ShouldAlmostEqual, 1)

	tour = tour.Extend(second)
	test.That(t, len(tour), test.ShouldEqual, 6)
	test.That(t, tour.Cost(), test.ShouldAlmostEqual, 2.5)
	test.That(t, len(tour.Controls()), test.ShouldEqual, 5)
	for i := 1; i < len(tour); i++ {
		test.That(t, tour[i].Parent(), test.ShouldEqual, i-1)
		test.That(t, tour[i].Cost, test.ShouldBeGreaterThan, tour[i-1].Cost)
	}

	// Inputs are left untouched.
	test.That(t, second.Cost(), test.ShouldAlmostEqual, 1.5)
	tour[len(tour)-1].WaypointHit = 2
	test.That(t, second.End().WaypointHit, test.ShouldEqual, 0)
}

func TestTrajectoryAccessors(t *testing.T) {
	var empty Trajectory
	test.That(t, empty.End(), test.ShouldBeNil)
	test.That(t, empty.Cost(), test.ShouldEqual, 0.)
	test.That(t, empty.Copy(), test.ShouldBeNil)

	leg := straightLeg(t, r2.Point{X: 10, Y: 10}, 1)
	test.That(t, leg[0].IsRoot(), test.ShouldBeTrue)
	test.That(t, leg[0].Controls, test.ShouldBeNil)
	test.That(t, leg.Controls(), test.ShouldResemble, []Controls{{Acceleration: 0.05, Duration: 0.5}})
}
