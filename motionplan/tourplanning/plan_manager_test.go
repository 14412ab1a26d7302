package tourplanning

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/ptsp/logging"
	"go.viam.com/ptsp/motionplan"
	"go.viam.com/ptsp/tsp"
	"go.viam.com/ptsp/world"
)

func openGrid(t *testing.T) *world.Grid {
	t.Helper()
	rows := make([]string, 10)
	for i := range rows {
		rows[i] = "__________"
	}
	g, err := world.NewGrid(100, 100, rows)
	test.That(t, err, test.ShouldBeNil)
	return g
}

func testOptions() *PlannerOptions {
	opts := NewBasicPlannerOptions()
	opts.Leg.PlanIter = 3000
	opts.Leg.RandomSeed = 7
	opts.Leg.StopAtFirstSolution = true
	return opts
}

// recordingSolver wraps the tree solver and keeps a copy of every matrix it is asked to order.
type recordingSolver struct {
	seen []*mat.Dense
	err  error
}

func (s *recordingSolver) Order(times *mat.Dense) ([]int, error) {
	s.seen = append(s.seen, mat.DenseCopyOf(times))
	if s.err != nil {
		return nil, s.err
	}
	return tsp.NewTreeSolver(0).Order(times)
}

func checkTour(t *testing.T, grid *world.Grid, dir r2.Point, coords []r2.Point, sum *Summary) {
	t.Helper()
	test.That(t, sum.Trajectory[0].Position, test.ShouldResemble, coords[0])
	test.That(t, sum.Trajectory.Cost(), test.ShouldAlmostEqual, sum.BestTime)

	start := motionplan.NewState(dir, r2.Point{}, coords[0])
	replayed, err := motionplan.Replay(grid, start, sum.Trajectory.Controls())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, replayed.Cost(), test.ShouldAlmostEqual, sum.BestTime)

	// Waypoints are marked in visiting order, each within reach of its position.
	var hits []int
	for i, s := range sum.Trajectory {
		if s.WaypointHit != 0 {
			hits = append(hits, s.WaypointHit)
			d := replayed[i].Position.Sub(coords[s.WaypointHit]).Norm()
			test.That(t, d, test.ShouldBeLessThanOrEqualTo, motionplan.WaypointRadius)
		}
	}
	test.That(t, hits, test.ShouldResemble, sum.Ordering[1:])
	test.That(t, len(sum.LegTimes), test.ShouldEqual, len(coords)-1)
}

func TestPlanTourSingleWaypoint(t *testing.T) {
	grid := openGrid(t)
	coords := []r2.Point{{X: 50, Y: 50}, {X: 62, Y: 50}}
	mock := clock.NewMock()
	sum, err := PlanTour(context.Background(), logging.NewTestLogger(t), &PlanRequest{
		Grid:             grid,
		InitialDirection: r2.Point{X: 1},
		Coords:           coords,
		PlannerOptions:   testOptions(),
		Clock:            mock,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum.Found(), test.ShouldBeTrue)
	test.That(t, sum.Orderings, test.ShouldEqual, 1)
	test.That(t, sum.PlannerCalls(), test.ShouldEqual, 1)
	test.That(t, sum.Successes, test.ShouldEqual, 1)
	test.That(t, sum.Ordering, test.ShouldResemble, []int{0, 1})
	test.That(t, sum.Convergence, test.ShouldResemble, []float64{sum.BestTime})
	test.That(t, sum.Runtime, test.ShouldEqual, time.Duration(0))
	test.That(t, sum.RunID.String(), test.ShouldNotBeEmpty)
	checkTour(t, grid, r2.Point{X: 1}, coords, sum)

	legStats, err := sum.LegTimeStats()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, legStats.Total, test.ShouldAlmostEqual, sum.BestTime)
	test.That(t, legStats.Max, test.ShouldAlmostEqual, sum.BestTime)
}

func TestPlanTourTwoWaypoints(t *testing.T) {
	grid := openGrid(t)
	coords := []r2.Point{{X: 50, Y: 50}, {X: 60, Y: 50}, {X: 60, Y: 62}}
	opts := testOptions()
	opts.Orderings = 2
	opts.Leg.PlanIter = 500
	solver := &recordingSolver{}

	run := func() *Summary {
		sum, err := PlanTour(context.Background(), logging.NewTestLogger(t), &PlanRequest{
			Grid:             grid,
			InitialDirection: r2.Point{X: 1},
			Coords:           coords,
			PlannerOptions:   opts,
			Solver:           solver,
		})
		test.That(t, err, test.ShouldBeNil)
		return sum
	}
	sum := run()

	test.That(t, sum.PlannerCalls(), test.ShouldBeGreaterThanOrEqualTo, 1)
	test.That(t, len(sum.Convergence), test.ShouldEqual, sum.Orderings)
	test.That(t, sum.LegsReused, test.ShouldBeLessThanOrEqualTo, sum.LegsTested)
	test.That(t, sum.CachedLegLists+sum.CachedFailures, test.ShouldBeGreaterThanOrEqualTo, 0)
	for i := 1; i < len(sum.Convergence); i++ {
		test.That(t, sum.Convergence[i], test.ShouldBeLessThanOrEqualTo, sum.Convergence[i-1])
	}
	if sum.Found() {
		checkTour(t, grid, r2.Point{X: 1}, coords, sum)
		test.That(t, len(solver.seen), test.ShouldEqual, 2)
		// The second ordering sees the leg times learned by the first.
		before := tsp.NewTimeMatrix(coords, tsp.MaxSpeed(100, 100))
		test.That(t, mat.Equal(solver.seen[1], before), test.ShouldBeFalse)
	}

	again := run()
	test.That(t, again.BestTime, test.ShouldEqual, sum.BestTime)
	test.That(t, again.PlannerCalls(), test.ShouldEqual, sum.PlannerCalls())
	test.That(t, again.LegsTested, test.ShouldEqual, sum.LegsTested)
	test.That(t, again.RunID, test.ShouldNotEqual, sum.RunID)
}

func TestPlanTourWorkers(t *testing.T) {
	grid := openGrid(t)
	coords := []r2.Point{{X: 50, Y: 50}, {X: 62, Y: 50}}
	opts := testOptions()
	opts.NumWorkers = 3
	sum, err := PlanTour(context.Background(), logging.NewTestLogger(t), &PlanRequest{
		Grid:             grid,
		InitialDirection: r2.Point{X: 1},
		Coords:           coords,
		PlannerOptions:   opts,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum.Worker, test.ShouldBeBetweenOrEqual, 0, 2)
	if sum.Found() {
		checkTour(t, grid, r2.Point{X: 1}, coords, sum)
	}
}

func TestPlanTourErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	grid := openGrid(t)
	coords := []r2.Point{{X: 50, Y: 50}, {X: 62, Y: 50}}

	_, err := PlanTour(context.Background(), logger, &PlanRequest{Grid: grid, Coords: coords[:1]})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = PlanTour(context.Background(), logger, &PlanRequest{Coords: coords})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = PlanTour(context.Background(), logger, &PlanRequest{
		Grid:             grid,
		InitialDirection: r2.Point{X: 1},
		Coords:           []r2.Point{{X: 0, Y: 50}, {X: 62, Y: 50}},
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "in collision")

	solverErr := errors.New("solver broke")
	_, err = PlanTour(context.Background(), logger, &PlanRequest{
		Grid:             grid,
		InitialDirection: r2.Point{X: 1},
		Coords:           coords,
		Solver:           &recordingSolver{err: solverErr},
	})
	test.That(t, err, test.ShouldBeError, solverErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := PlanTour(ctx, logger, &PlanRequest{
		Grid:             grid,
		InitialDirection: r2.Point{X: 1},
		Coords:           coords,
		PlannerOptions:   testOptions(),
	})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, sum.Found(), test.ShouldBeFalse)
	test.That(t, sum.Orderings, test.ShouldEqual, 0)
}

func TestPlanOrderingAbandonsSlowerTours(t *testing.T) {
	coords := []r2.Point{{X: 50, Y: 50}, {X: 62, Y: 50}, {X: 74, Y: 50}}
	request := &PlanRequest{
		Grid:             openGrid(t),
		InitialDirection: r2.Point{X: 1},
		Coords:           coords,
		PlannerOptions:   testOptions(),
	}
	test.That(t, request.validate(), test.ShouldBeNil)
	initial := tsp.NewTimeMatrix(coords, tsp.MaxSpeed(100, 100))
	pm := newPlanManager(request, 0, mat.DenseCopyOf(initial), atomic.NewInt64(0), logging.NewTestLogger(t))

	// Any leg is slower than the best tour already recorded.
	const bestTime = 1e-6
	pm.summary.BestTime = bestTime

	ordering := []int{0, 1, 2}
	done, err := pm.planOrdering(context.Background(), ordering)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, pm.summary.Found(), test.ShouldBeFalse)
	test.That(t, pm.summary.BestTime, test.ShouldEqual, bestTime)
	test.That(t, pm.summary.LegTimes, test.ShouldBeNil)

	// The first leg was planned and its time learned, but the ordering stopped before the last leg
	// was committed.
	learned := pm.times.At(0, 1)
	test.That(t, learned, test.ShouldBeGreaterThan, bestTime)
	test.That(t, learned, test.ShouldBeLessThan, request.PlannerOptions.FailurePenalty)
	test.That(t, learned, test.ShouldNotEqual, initial.At(0, 1))
	test.That(t, pm.times.At(1, 2), test.ShouldEqual, initial.At(1, 2))

	// The reference run and at least one pair of legs ran and the legs were cached.
	test.That(t, pm.summary.Successes, test.ShouldBeGreaterThanOrEqualTo, 3)
	lists, _ := pm.cache.counts()
	test.That(t, lists, test.ShouldBeGreaterThanOrEqualTo, 2)
	runs := pm.summary.PlannerCalls()

	// The same ordering again reuses the cached legs and is abandoned at the same leg.
	done, err = pm.planOrdering(context.Background(), ordering)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, done, test.ShouldBeFalse)
	test.That(t, pm.summary.Found(), test.ShouldBeFalse)
	test.That(t, pm.summary.LegsReused, test.ShouldBeGreaterThan, 0)
	test.That(t, pm.summary.PlannerCalls(), test.ShouldBeLessThan, 2*runs)
	test.That(t, pm.times.At(1, 2), test.ShouldEqual, initial.At(1, 2))
}

func TestRunLegCache(t *testing.T) {
	opts := testOptions()
	request := &PlanRequest{
		Grid:             openGrid(t),
		InitialDirection: r2.Point{X: 1},
		Coords:           []r2.Point{{X: 50, Y: 50}, {X: 62, Y: 50}},
		PlannerOptions:   opts,
	}
	test.That(t, request.validate(), test.ShouldBeNil)
	pm := newPlanManager(request, 0, mat.NewDense(2, 2, nil), atomic.NewInt64(0), logging.NewTestLogger(t))
	ctx := context.Background()

	root := motionplan.NewState(r2.Point{X: 1}, r2.Point{}, r2.Point{X: 50, Y: 50})
	goal := motionplan.Goal{Position: r2.Point{X: 62, Y: 50}}
	leg, err := pm.runLeg(ctx, root, goal, motionplan.PositionOnlyGoalCheck, 0, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, leg, test.ShouldNotBeNil)
	test.That(t, pm.summary.Successes, test.ShouldEqual, 1)

	reused, err := pm.runLeg(ctx, root, goal, motionplan.PositionOnlyGoalCheck, 0, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reused.Controls(), test.ShouldResemble, leg.Controls())
	test.That(t, pm.summary.LegsTested, test.ShouldEqual, 1)
	test.That(t, pm.summary.LegsReused, test.ShouldEqual, 1)
	test.That(t, pm.summary.PlannerCalls(), test.ShouldEqual, 1)

	// A single iteration can't reach a far goal, and the failure is remembered.
	pm.legOpts.PlanIter = 1
	far := motionplan.Goal{Position: r2.Point{X: 90, Y: 90}}
	missed, err := pm.runLeg(ctx, root, far, motionplan.PositionOnlyGoalCheck, 0, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, missed, test.ShouldBeNil)
	test.That(t, pm.summary.Failures, test.ShouldEqual, 1)

	missed, err = pm.runLeg(ctx, root, far, motionplan.PositionOnlyGoalCheck, 0, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, missed, test.ShouldBeNil)
	test.That(t, pm.summary.LegsSkipped, test.ShouldEqual, 1)
	test.That(t, pm.summary.PlannerCalls(), test.ShouldEqual, 2)

	lists, failures := pm.cache.counts()
	test.That(t, lists, test.ShouldEqual, 1)
	test.That(t, failures, test.ShouldEqual, 1)
}

func TestPlannerOptionsFromExtra(t *testing.T) {
	opts, err := NewPlannerOptionsFromExtra(map[string]interface{}{
		"orderings":   3,
		"num_workers": "2",
		"leg":         map[string]interface{}{"plan_iter": 500, "rseed": 4},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.Orderings, test.ShouldEqual, 3)
	test.That(t, opts.NumWorkers, test.ShouldEqual, 2)
	test.That(t, opts.NodeLimit, test.ShouldEqual, defaultNodeLimit)
	test.That(t, opts.FailurePenalty, test.ShouldEqual, defaultFailurePenalty)
	test.That(t, opts.Leg.PlanIter, test.ShouldEqual, 500)
	test.That(t, opts.Leg.RandomSeed, test.ShouldEqual, 4)
	test.That(t, opts.Leg.EdgesPerIteration, test.ShouldEqual, motionplan.NewBasicPlannerOptions().EdgesPerIteration)
	test.That(t, opts.orderings(5), test.ShouldEqual, 3)
	test.That(t, NewBasicPlannerOptions().orderings(5), test.ShouldEqual, 6)

	_, err = NewPlannerOptionsFromExtra(map[string]interface{}{"ordering": 3})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewPlannerOptionsFromExtra(map[string]interface{}{"num_workers": 0, "leg": map[string]interface{}{"plan_iter": -1}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "num_workers must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, "plan_iter must be positive")
}
