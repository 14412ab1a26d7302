package motionplan

import (
	"context"
	"math/rand"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/ptsp/logging"
	"go.viam.com/ptsp/world"
)

// Percent chance that a sample is the goal position itself.
const goalBiasPercent = 5

// Solution is the result of one DIRT search.
type Solution struct {
	// Trajectory is the best goal-satisfying chain found, nil if there was none.
	Trajectory Trajectory
	// TreeSize is the number of live states when the search ended.
	TreeSize int
	// NodesCreated counts every state committed, including the root and pruned states.
	NodesCreated int
	// Iterations is the number of main loop iterations run.
	Iterations int
}

// Found reports whether the search produced a trajectory.
func (s *Solution) Found() bool {
	return s != nil && s.Trajectory != nil
}

// DIRTPlanner grows a dominance-informed region tree from one start state toward one goal. A
// planner is single use and not safe for concurrent use.
type DIRTPlanner struct {
	grid     *world.Grid
	metric   *goalMetric
	planOpts *PlannerOptions
	randseed *rand.Rand
	tree     *Tree
	logger   logging.Logger
}

// NewDIRTPlanner returns a planner rooted at a copy of start with zero cost. Nil options select
// the defaults.
func NewDIRTPlanner(
	grid *world.Grid,
	start *State,
	goal Goal,
	opts *PlannerOptions,
	logger logging.Logger,
) (*DIRTPlanner, error) {
	if grid == nil {
		return nil, errors.New("nil world grid")
	}
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if grid.Collides(start.Position) {
		return nil, NewStartCollisionError(start)
	}
	metric := newGoalMetric(goal, opts.GoalCheck)
	root := NewState(start.Direction, start.Velocity, start.Position)
	metric.score(root)
	return &DIRTPlanner{
		grid:     grid,
		metric:   metric,
		planOpts: opts,
		randseed: rand.New(rand.NewSource(int64(opts.RandomSeed))), //nolint:gosec
		tree:     newTree(root),
		logger:   logger,
	}, nil
}

// Tree returns the search tree.
func (mp *DIRTPlanner) Tree() *Tree {
	return mp.tree
}

// Plan runs the search until the iteration budget is spent, the timeout expires, or a first
// solution is found when StopAtFirstSolution is set. Not finding a trajectory is not an error.
// An error is only returned when ctx itself is cancelled, together with the best result so far.
func (mp *DIRTPlanner) Plan(ctx context.Context) (*Solution, error) {
	ctx, span := trace.StartSpan(ctx, "DIRTPlanner.Plan")
	defer span.End()

	parent := ctx
	if mp.planOpts.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, mp.planOpts.timeoutDuration())
		defer cancel()
	}

	var sol *State
	xNew := mp.tree.Root()
	iter := 0
	for ; iter < mp.planOpts.PlanIter; iter++ {
		if ctx.Err() != nil {
			mp.logger.CDebugf(ctx, "stopping after %d iterations: %v", iter, ctx.Err())
			break
		}
		if mp.planOpts.StopAtFirstSolution && sol != nil {
			break
		}
		if interval := mp.planOpts.LoggingInterval; interval > 0 && iter > 0 && iter%interval == 0 {
			mp.logger.CDebugf(ctx, "iteration %d, tree size %d", iter, mp.tree.Size())
		}

		var xSel *State
		if xNew != nil && !xNew.IsRoot() && xNew.Heuristic < mp.tree.Node(xNew.parent).Heuristic {
			xSel = xNew
		} else {
			xSel = mp.selectDIR()
		}
		if len(xSel.candidates) == 0 {
			mp.blossom(xSel)
		}

		for len(xSel.candidates) > 0 {
			xNew = mp.bestNextState(xSel)
			if xNew == nil || (sol != nil && xNew.Quality > sol.Cost) {
				xNew = nil
				continue
			}
			mp.tree.add(xSel, xNew)
			mp.tree.updateDominanceRegions(xSel, xNew)
			if sol != nil {
				mp.tree.pruneDominated()
			}
			if xNew.Heuristic == 0 && (sol == nil || xNew.Cost < sol.Cost) {
				sol = xNew
				mp.logger.Infof("solution found, total time: %.4f", sol.Cost)
			}
			break
		}
	}

	result := &Solution{
		TreeSize:     mp.tree.Size(),
		NodesCreated: mp.tree.Created(),
		Iterations:   iter,
	}
	if sol != nil {
		result.Trajectory = mp.tree.trajectory(sol.index)
	} else {
		mp.logger.Info("no trajectory found")
	}
	mp.logger.Infof("tree size: %d", result.TreeSize)

	if err := parent.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// selectDIR picks the state to expand: a uniform choice among the states whose region contains a
// random sample, or failing that, among the states whose region contains the state nearest to it.
func (mp *DIRTPlanner) selectDIR() *State {
	sample := mp.randomSample()
	candidates := mp.tree.within(sample)
	if len(candidates) == 0 {
		nearest := mp.tree.nearest(sample)
		candidates = mp.tree.within(nearest.Position)
	}
	return candidates[mp.randseed.Intn(len(candidates))]
}

// randomSample returns the goal position with a small probability, otherwise a uniform
// collision-free point of the world.
func (mp *DIRTPlanner) randomSample() r2.Point {
	if mp.randseed.Intn(100) < goalBiasPercent {
		return mp.metric.goal.Position
	}
	w, h := float64(mp.grid.Width()), float64(mp.grid.Height())
	for {
		x := mp.randseed.Float64() * w
		y := mp.randseed.Float64() * h
		if p := (r2.Point{X: x, Y: y}); !mp.grid.Collides(p) {
			return p
		}
	}
}

// blossom gives x fresh edge candidates: a full set the first time, a single one afterwards.
func (mp *DIRTPlanner) blossom(x *State) {
	n := 1
	if !x.expanded {
		x.expanded = true
		n = mp.planOpts.EdgesPerIteration
	}
	x.candidates = make([]Controls, 0, n)
	for i := 0; i < n; i++ {
		x.candidates = append(x.candidates, mp.randomControl())
	}
}

func (mp *DIRTPlanner) randomControl() Controls {
	turn := float64(mp.randseed.Intn(3)-1) * mp.randseed.Float64()
	acc := mp.randseed.Float64() / 10
	dur := mp.randseed.Float64()/2 + 0.05
	return Controls{Turn: turn, Acceleration: acc, Duration: dur}
}

// bestNextState propagates every candidate of xSel and returns the child of lowest quality,
// consuming the candidate that produced it. If every candidate collides they are all discarded
// and nil is returned.
func (mp *DIRTPlanner) bestNextState(xSel *State) *State {
	var best *State
	bestIdx := -1
	for i, u := range xSel.candidates {
		child := propagate(mp.grid, mp.metric, xSel, u)
		if child == nil {
			continue
		}
		if best == nil || child.Quality < best.Quality {
			best = child
			bestIdx = i
		}
	}
	if best == nil {
		xSel.candidates = nil
		return nil
	}
	xSel.candidates = append(xSel.candidates[:bestIdx], xSel.candidates[bestIdx+1:]...)
	return best
}

// ValidateTrajectory replays the controls of traj from this planner's root and returns the
// replayed chain if it avoids every obstacle and its end satisfies this planner's goal.
// Otherwise it returns nil.
func (mp *DIRTPlanner) ValidateTrajectory(traj Trajectory) Trajectory {
	replayed, err := replay(mp.grid, mp.metric, mp.tree.Root(), traj.Controls())
	if err != nil {
		return nil
	}
	if !mp.metric.satisfied(replayed.End()) {
		return nil
	}
	return replayed
}

// Replay integrates controls from start and returns the resulting chain. Heuristics are zero
// since there is no goal. An error names the first step that collides.
func Replay(grid *world.Grid, start *State, controls []Controls) (Trajectory, error) {
	return replay(grid, nil, start, controls)
}

func replay(grid *world.Grid, metric *goalMetric, start *State, controls []Controls) (Trajectory, error) {
	root := NewState(start.Direction, start.Velocity, start.Position)
	metric.score(root)
	traj := make(Trajectory, 0, len(controls)+1)
	traj = append(traj, *root)
	prev := root
	for i, u := range controls {
		next := propagate(grid, metric, prev, u)
		if next == nil {
			return nil, NewReplayCollisionError(i + 1)
		}
		next.index = i + 1
		next.parent = i
		traj = append(traj, *next)
		prev = next
	}
	return traj, nil
}
