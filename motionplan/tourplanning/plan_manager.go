// Package tourplanning plans a full tour through a set of waypoints. It alternates between
// ordering the waypoints from a matrix of travel times and planning each leg of that ordering
// with DIRT, feeding the real leg times back into the matrix. Legs are cached so that later
// orderings can reuse them.
package tourplanning

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/ptsp/logging"
	"go.viam.com/ptsp/motionplan"
	"go.viam.com/ptsp/tsp"
	"go.viam.com/ptsp/world"
)

// TourSolver orders the tour nodes from a matrix of travel times. Orderings start at node 0.
type TourSolver interface {
	Order(times *mat.Dense) ([]int, error)
}

// PlanRequest is a struct to store all the data necessary to make a call to PlanTour.
type PlanRequest struct {
	Grid *world.Grid
	// InitialDirection is the heading of the vehicle at the start. It starts at rest.
	InitialDirection r2.Point
	// Coords holds the start position followed by every waypoint.
	Coords []r2.Point

	PlannerOptions *PlannerOptions
	// Solver orders the waypoints. Nil selects a tsp.TreeSolver with the options' node limit.
	Solver TourSolver
	// Clock measures the runtime. Nil selects the wall clock.
	Clock clock.Clock
}

func (req *PlanRequest) validate() error {
	if req.Grid == nil {
		return errors.New("PlanRequest cannot have nil grid")
	}
	if len(req.Coords) < 2 {
		return errors.New("PlanRequest needs a start and at least one waypoint")
	}
	if req.PlannerOptions == nil {
		req.PlannerOptions = NewBasicPlannerOptions()
	}
	if err := req.PlannerOptions.Validate(); err != nil {
		return err
	}
	if req.Solver == nil {
		req.Solver = tsp.NewTreeSolver(req.PlannerOptions.NodeLimit)
	}
	if req.Clock == nil {
		req.Clock = clock.New()
	}
	return nil
}

// expectedRuns estimates the DIRT runs of a tour with n nodes if nothing is cached or bounded.
func expectedRuns(n, orderings int) int {
	if n <= 2 {
		return 1
	}
	return orderings*(n-2)*48 + orderings
}

// PlanTour plans a tour visiting every waypoint of the request. Independent workers search in
// parallel and the summary of the one with the best tour is returned. Not finding a tour is not
// an error; the summary then reports Found() == false. When the timeout expires the best tour so
// far is returned. An error is returned together with the summary if ctx itself is cancelled.
func PlanTour(ctx context.Context, logger logging.Logger, request *PlanRequest) (*Summary, error) {
	ctx, span := trace.StartSpan(ctx, "PlanTour")
	defer span.End()

	if err := request.validate(); err != nil {
		return nil, err
	}
	opts := request.PlannerOptions
	start := request.Clock.Now()

	parent := ctx
	if opts.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, opts.timeoutDuration())
		defer cancel()
	}

	bounds := request.Grid.Bounds().Size()
	times := tsp.NewTimeMatrix(request.Coords, tsp.MaxSpeed(bounds.X, bounds.Y))
	progress := atomic.NewInt64(0)

	summaries := make([]*Summary, opts.NumWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.NumWorkers; w++ {
		workerLogger := logger
		if opts.NumWorkers > 1 {
			workerLogger = logger.Sublogger(fmt.Sprintf("worker%d", w))
		}
		pm := newPlanManager(request, w, mat.DenseCopyOf(times), progress, workerLogger)
		summaries[w] = pm.summary
		g.Go(func() error {
			return pm.planTour(gctx)
		})
	}
	err := g.Wait()

	best := lo.MinBy(summaries, func(a, b *Summary) bool { return a.BestTime < b.BestTime })
	best.RunID = uuid.New()
	best.Runtime = request.Clock.Since(start)
	if err != nil {
		return best, err
	}
	if err := parent.Err(); err != nil {
		return best, err
	}
	return best, nil
}

// planManager runs tour planning for one worker. It owns its time matrix and leg cache.
type planManager struct {
	request  *PlanRequest
	legOpts  *motionplan.PlannerOptions
	times    *mat.Dense
	cache    *legCache
	summary  *Summary
	progress *atomic.Int64
	logger   logging.Logger
}

func newPlanManager(
	request *PlanRequest,
	worker int,
	times *mat.Dense,
	progress *atomic.Int64,
	logger logging.Logger,
) *planManager {
	legOpts := *request.PlannerOptions.Leg
	legOpts.RandomSeed += worker
	return &planManager{
		request:  request,
		legOpts:  &legOpts,
		times:    times,
		cache:    newLegCache(),
		summary:  newSummary(worker),
		progress: progress,
		logger:   logger,
	}
}

// planTour tries orderings until the ordering budget is spent or an ordering cannot be started.
func (pm *planManager) planTour(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "planTour")
	defer span.End()

	n := len(pm.request.Coords)
	orderings := pm.request.PlannerOptions.orderings(n)
	for i := 0; i < orderings; i++ {
		if ctx.Err() != nil {
			pm.logger.CDebugf(ctx, "stopping after %d orderings: %v", i, ctx.Err())
			break
		}
		ordering, err := pm.request.Solver.Order(pm.times)
		if err != nil {
			return err
		}
		pm.summary.Orderings++
		pm.logger.Infof("ordering %d/%d: %v", i+1, orderings, ordering)

		done, err := pm.planOrdering(ctx, ordering)
		pm.summary.Convergence = append(pm.summary.Convergence, pm.summary.BestTime)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if done {
			break
		}
	}

	pm.summary.CachedLegLists, pm.summary.CachedFailures = pm.cache.counts()
	pm.logger.Infow("tour planning done",
		"best_time", pm.summary.BestTime,
		"cached_leg_lists", pm.summary.CachedLegLists,
		"cached_failures", pm.summary.CachedFailures,
		"legs_tested", pm.summary.LegsTested,
		"legs_reused", pm.summary.LegsReused,
		"legs_skipped", pm.summary.LegsSkipped,
		"successes", pm.summary.Successes,
		"failures", pm.summary.Failures,
	)
	return nil
}

// planOrdering plans the legs of one ordering, updating the time matrix with every leg time it
// learns. It returns done when no further ordering should be tried.
func (pm *planManager) planOrdering(ctx context.Context, ordering []int) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "planOrdering")
	defer span.End()

	coords := lo.Map(ordering, func(k, _ int) r2.Point { return pm.request.Coords[k] })
	root := motionplan.NewState(pm.request.InitialDirection, r2.Point{}, coords[0])

	// A first position-only run to the first waypoint tells which speeds are reachable there.
	mp, err := pm.newPlanner(root, motionplan.Goal{Position: coords[1]}, motionplan.PositionOnlyGoalCheck)
	if err != nil {
		return true, err
	}
	ref, err := pm.runDIRT(ctx, mp, ordering[0], ordering[1])
	if err != nil {
		return true, err
	}
	if !ref.Found() {
		pm.logger.Infof("no trajectory from the start to waypoint %d, giving up", ordering[1])
		return true, nil
	}

	if len(coords) == 2 {
		tour := motionplan.Trajectory(nil).Extend(ref.Trajectory)
		tour.End().WaypointHit = ordering[1]
		pm.record(tour, ordering, []float64{tour.Cost()})
		return true, nil
	}

	v := ref.Trajectory.End().Velocity
	bands := []r2.Point{{}, v.Mul(0.5), v}

	var tour motionplan.Trajectory
	var legTimes []float64
	total := 0.
	for j := 1; j < len(coords)-1; j++ {
		from, to, next := ordering[j-1], ordering[j], ordering[j+1]
		pm.logger.CDebugf(ctx, "planning legs from waypoint %d to waypoint %d", from, next)

		var bestA, bestB motionplan.Trajectory
		for _, band := range bands {
			for _, heading := range headings(coords[j-1], coords[j+1]) {
				goalA := motionplan.Goal{Direction: heading, Velocity: band, Position: coords[j]}
				legA, err := pm.runLeg(ctx, root, goalA, motionplan.FullGoalCheck, from, to)
				if err != nil {
					return true, err
				}
				if legA == nil {
					continue
				}
				goalB := motionplan.Goal{Position: coords[j+1]}
				legB, err := pm.runLeg(ctx, legA.End(), goalB, motionplan.PositionOnlyGoalCheck, to, next)
				if err != nil {
					return true, err
				}
				if legB == nil {
					continue
				}
				if bestA == nil || legA.Cost()+legB.Cost() < bestA.Cost()+bestB.Cost() {
					bestA, bestB = legA, legB
				}
			}
		}

		if bestA == nil {
			pm.logger.Infof("no trajectory found from waypoint %d to waypoint %d", from, to)
			pm.times.Set(from, to, pm.request.PlannerOptions.FailurePenalty)
			return false, nil
		}

		endVelocity := bestB.End().Velocity
		bands[1] = endVelocity.Mul(0.5)
		bands[2] = endVelocity

		t := bestA.Cost()
		pm.times.Set(from, to, t)
		total += t
		pm.logger.Infof("%d-%d time: %.4f", from, to, t)
		if total >= pm.summary.BestTime {
			pm.logger.CDebugf(ctx, "abandoning ordering, %.4f already exceeds best time %.4f", total, pm.summary.BestTime)
			return false, nil
		}
		tour = tour.Extend(bestA)
		tour.End().WaypointHit = to
		legTimes = append(legTimes, t)
		root = bestA.End()

		if j == len(coords)-2 {
			t = bestB.Cost()
			pm.times.Set(to, next, t)
			total += t
			pm.logger.Infof("%d-%d time: %.4f", to, next, t)
			if total < pm.summary.BestTime {
				tour = tour.Extend(bestB)
				tour.End().WaypointHit = next
				pm.record(tour, ordering, append(legTimes, t))
			}
		}
	}
	return false, nil
}

// record makes tour the best tour so far.
func (pm *planManager) record(tour motionplan.Trajectory, ordering []int, legTimes []float64) {
	pm.summary.BestTime = tour.Cost()
	pm.summary.Trajectory = tour
	pm.summary.Ordering = append([]int(nil), ordering...)
	pm.summary.LegTimes = legTimes
	pm.logger.Infof("new best tour %v, time %.4f", ordering, pm.summary.BestTime)
}

// runLeg plans from root to goal, reusing a cached leg when one still works from root. It
// returns nil when no leg was found or a past failure says not to try.
func (pm *planManager) runLeg(
	ctx context.Context,
	root *motionplan.State,
	goal motionplan.Goal,
	check motionplan.GoalCheckType,
	from, to int,
) (motionplan.Trajectory, error) {
	ctx, span := trace.StartSpan(ctx, "runLeg")
	defer span.End()

	mp, err := pm.newPlanner(root, goal, check)
	if err != nil {
		return nil, err
	}

	key := newLegKey(from, to, root, goal)
	var best motionplan.Trajectory
	if entry := pm.cache.get(key); entry != nil && len(entry.legs) > 0 {
		for _, leg := range entry.legs {
			pm.summary.LegsTested++
			if replayed := mp.ValidateTrajectory(leg); replayed != nil && (best == nil || replayed.Cost() < best.Cost()) {
				best = replayed
			}
		}
	} else if entry != nil && entry.failed {
		pm.logger.CDebugf(ctx, "skipping leg %d-%d after a past failure", from, to)
		pm.summary.LegsSkipped++
		return nil, nil
	}
	if best != nil {
		pm.logger.CDebugf(ctx, "reusing a cached leg %d-%d", from, to)
		pm.summary.LegsReused++
		return best, nil
	}

	sol, err := pm.runDIRT(ctx, mp, from, to)
	if err != nil {
		return nil, err
	}
	if sol.Found() {
		pm.cache.addSuccess(key, sol.Trajectory)
	} else {
		pm.cache.addFailure(key)
	}
	return sol.Trajectory, nil
}

func (pm *planManager) newPlanner(
	root *motionplan.State,
	goal motionplan.Goal,
	check motionplan.GoalCheckType,
) (*motionplan.DIRTPlanner, error) {
	return motionplan.NewDIRTPlanner(pm.request.Grid, root, goal, pm.legOpts.WithGoalCheck(check), pm.logger.Sublogger("dirt"))
}

// runDIRT runs one planner to completion and counts the outcome.
func (pm *planManager) runDIRT(ctx context.Context, mp *motionplan.DIRTPlanner, from, to int) (*motionplan.Solution, error) {
	run := pm.progress.Inc()
	n := len(pm.request.Coords)
	pm.logger.CDebugf(ctx, "DIRT run %d/%d from waypoint %d to waypoint %d",
		run, expectedRuns(n, pm.request.PlannerOptions.orderings(n))*pm.request.PlannerOptions.NumWorkers, from, to)

	sol, err := mp.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if sol.Found() {
		pm.summary.Successes++
	} else {
		pm.summary.Failures++
	}
	return sol, nil
}
