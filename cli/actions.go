package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/ptsp/config"
	"go.viam.com/ptsp/logging"
	"go.viam.com/ptsp/motionplan"
	"go.viam.com/ptsp/motionplan/tourplanning"
	"go.viam.com/ptsp/report"
	"go.viam.com/ptsp/spatialmath"
	"go.viam.com/ptsp/visualize"
	"go.viam.com/ptsp/world"
)

// SolveAction plans a full tour for a problem file.
func SolveAction(c *cli.Context) error {
	logger, err := newLogger(c, "ptsp")
	if err != nil {
		return err
	}
	problemPath, prob, grid, err := loadProblem(c, 1)
	if err != nil {
		return err
	}
	extra, err := readExtra(c)
	if err != nil {
		return err
	}
	opts, err := tourplanning.NewPlannerOptionsFromExtra(extra)
	if err != nil {
		return err
	}
	applyLegFlags(c, opts.Leg)
	if c.IsSet(nodeLimitFlag) {
		opts.NodeLimit = c.Int(nodeLimitFlag)
	}
	if c.IsSet(orderingsFlag) {
		opts.Orderings = c.Int(orderingsFlag)
	}
	if c.IsSet(workersFlag) {
		opts.NumWorkers = c.Int(workersFlag)
	}
	if c.IsSet(timeoutFlag) {
		opts.Timeout = c.Float64(timeoutFlag)
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	coords := prob.Coords()
	sum, err := tourplanning.PlanTour(planContext(c), logger, &tourplanning.PlanRequest{
		Grid:             grid,
		InitialDirection: prob.InitialDirection(),
		Coords:           coords,
		PlannerOptions:   opts,
	})
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", report.SummaryTable(sum))

	csvPath := c.String(csvOutFlag)
	if csvPath == "" {
		csvPath = strings.TrimSuffix(problemPath, filepath.Ext(problemPath)) + ".csv"
	}
	if err := report.AppendCSV(csvPath, sum); err != nil {
		return err
	}

	if !sum.Found() {
		warningf(c.App.ErrWriter, "no tour found")
	}
	if err := writeResults(c, &visualize.Scene{Grid: grid, Trajectory: sum.Trajectory, Waypoints: coords[1:]}); err != nil {
		return err
	}
	if path := c.String(plotOutFlag); path != "" && sum.Found() {
		return writeFile(path, func(w io.Writer) error {
			return visualize.PlotConvergence(w, sum.Convergence)
		})
	}
	return nil
}

// DIRTAction runs a single DIRT search from the start of a problem to one of its waypoints. The
// tree and image outputs are still written when no trajectory is found.
func DIRTAction(c *cli.Context) error {
	logger, err := newLogger(c, "dirt")
	if err != nil {
		return err
	}
	_, prob, grid, err := loadProblem(c, 1)
	if err != nil {
		return err
	}
	wp := c.Int(waypointFlag)
	if wp < 1 || wp > len(prob.Waypoints) {
		return errors.Errorf("waypoint must be between 1 and %d, got %d", len(prob.Waypoints), wp)
	}
	extra, err := readExtra(c)
	if err != nil {
		return err
	}
	opts, err := motionplan.NewPlannerOptionsFromExtra(extra)
	if err != nil {
		return err
	}
	applyLegFlags(c, opts)
	if c.IsSet(timeoutFlag) {
		opts.Timeout = c.Float64(timeoutFlag)
	}
	if c.IsSet(stopAtFirstFlag) {
		opts.StopAtFirstSolution = c.Bool(stopAtFirstFlag)
	}
	if c.Bool(fullGoalCheckFlag) {
		opts.GoalCheck = motionplan.FullGoalCheck
	} else if _, ok := extra["goal_check"]; !ok {
		opts.GoalCheck = motionplan.PositionOnlyGoalCheck
	}

	coords := prob.Coords()
	start := motionplan.NewState(prob.InitialDirection(), r2.Point{}, coords[0])
	goal := motionplan.Goal{Direction: prob.InitialDirection(), Position: coords[wp]}
	mp, err := motionplan.NewDIRTPlanner(grid, start, goal, opts, logger)
	if err != nil {
		return err
	}
	sol, err := mp.Plan(planContext(c))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "iterations: %d, tree size: %d, states created: %d", sol.Iterations, sol.TreeSize, sol.NodesCreated)
	if sol.Found() {
		sol.Trajectory.End().WaypointHit = wp
		printf(c.App.Writer, "solution time: %.4f over %d steps", sol.Trajectory.Cost(), len(sol.Trajectory)-1)
	}

	if path := c.String(treeOutFlag); path != "" {
		if err := writeFile(path, func(w io.Writer) error {
			return motionplan.WriteTree(w, mp.Tree(), sol.Trajectory)
		}); err != nil {
			return err
		}
	}
	if err := writeResults(c, &visualize.Scene{
		Grid:       grid,
		Tree:       mp.Tree(),
		Trajectory: sol.Trajectory,
		Waypoints:  []r2.Point{coords[wp]},
		Regions:    true,
	}); err != nil {
		return err
	}
	if !sol.Found() {
		return motionplan.NewPlannerFailedError()
	}
	return nil
}

// ReplayAction re-simulates a controls file from the start of a problem. It fails if the controls
// collide or a step marked as reaching a waypoint is not within reach of it.
func ReplayAction(c *cli.Context) error {
	_, prob, grid, err := loadProblem(c, 2)
	if err != nil {
		return err
	}
	//nolint:gosec
	f, err := os.Open(c.Args().Get(1))
	if err != nil {
		return err
	}
	records, err := motionplan.ReadControls(f)
	if err = multierr.Combine(err, f.Close()); err != nil {
		return err
	}

	controls := make([]motionplan.Controls, 0, len(records))
	for _, rec := range records {
		controls = append(controls, rec.Controls)
	}
	coords := prob.Coords()
	start := motionplan.NewState(prob.InitialDirection(), r2.Point{}, coords[0])
	traj, err := motionplan.Replay(grid, start, controls)
	if err != nil {
		return err
	}

	var problems error
	var order []string
	for i, rec := range records {
		hit := rec.WaypointHit
		if hit == 0 {
			continue
		}
		if hit < 1 || hit >= len(coords) {
			problems = multierr.Append(problems, errors.Errorf("step %d marks unknown waypoint %d", i+1, hit))
			continue
		}
		traj[i+1].WaypointHit = hit
		order = append(order, fmt.Sprint(hit))
		if d := spatialmath.Distance(traj[i+1].Position, coords[hit]); d > motionplan.WaypointRadius {
			problems = multierr.Append(problems, errors.Errorf("step %d is %.3f away from waypoint %d", i+1, d, hit))
		}
	}
	printf(c.App.Writer, "replayed %d steps, total time: %.4f", len(controls), traj.Cost())
	printf(c.App.Writer, "waypoints reached: %s", strings.Join(order, " "))
	if len(order) < len(coords)-1 {
		warningf(c.App.ErrWriter, "only %d of %d waypoints are marked as reached", len(order), len(coords)-1)
	}

	if err := writeResults(c, &visualize.Scene{Grid: grid, Trajectory: traj, Waypoints: coords[1:]}); err != nil {
		return err
	}
	return problems
}

// GenerateAction writes random solvable problems named problem<N>.txt.
func GenerateAction(c *cli.Context) error {
	extra, err := readExtra(c)
	if err != nil {
		return err
	}
	opts, err := config.NewGenerateOptionsFromExtra(extra)
	if err != nil {
		return err
	}
	count := c.Int(countFlag)
	if count < 1 {
		return errors.Errorf("count must be positive, got %d", count)
	}
	dir := c.String(dirFlag)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	//nolint:gosec
	rng := rand.New(rand.NewSource(int64(c.Int(seedFlag))))
	for i := 0; i < count; i++ {
		prob, err := config.GenerateProblem(rng, opts)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("problem%d.txt", i))
		if err := config.WriteProblemFile(path, prob); err != nil {
			return err
		}
		printf(c.App.Writer, "%s: %dx%d world, %d waypoints", path, prob.Width, prob.Height, len(prob.Waypoints))
	}
	return nil
}

func newLogger(c *cli.Context, name string) (logging.Logger, error) {
	level, err := logging.LevelFromString(c.String(logLevelFlag))
	if err != nil {
		return nil, err
	}
	logger := logging.NewBlankLogger(name)
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(level)
	return logger, nil
}

// planContext returns the context planners run under. With --debug their progress is logged
// whatever the log level.
func planContext(c *cli.Context) context.Context {
	if c.Bool(debugFlag) {
		return logging.EnableDebugMode(c.Context, "")
	}
	return c.Context
}

func loadProblem(c *cli.Context, nArgs int) (string, *config.Problem, *world.Grid, error) {
	if c.Args().Len() != nArgs {
		return "", nil, nil, errors.Errorf("expected %d arguments, got %d. usage: %s %s",
			nArgs, c.Args().Len(), c.Command.Name, c.Command.ArgsUsage)
	}
	path := c.Args().First()
	prob, err := config.ReadProblem(path)
	if err != nil {
		return "", nil, nil, err
	}
	grid, err := prob.Grid()
	if err != nil {
		return "", nil, nil, err
	}
	return path, prob, grid, nil
}

func readExtra(c *cli.Context) (map[string]interface{}, error) {
	path := c.String(configFlag)
	if path == "" {
		return map[string]interface{}{}, nil
	}
	return config.ReadPlannerConfig(path)
}

// applyLegFlags overrides DIRT options with the flags given on the command line.
func applyLegFlags(c *cli.Context, opts *motionplan.PlannerOptions) {
	if c.IsSet(iterationsFlag) {
		opts.PlanIter = c.Int(iterationsFlag)
	}
	if c.IsSet(edgesFlag) {
		opts.EdgesPerIteration = c.Int(edgesFlag)
	}
	if c.IsSet(seedFlag) {
		opts.RandomSeed = c.Int(seedFlag)
	}
}

// writeResults writes whichever of the controls, states and image outputs were asked for.
func writeResults(c *cli.Context, scene *visualize.Scene) error {
	if path := c.String(controlsOutFlag); path != "" {
		if err := writeFile(path, func(w io.Writer) error {
			return motionplan.WriteControls(w, scene.Trajectory)
		}); err != nil {
			return err
		}
	}
	if path := c.String(statesOutFlag); path != "" {
		if err := writeFile(path, func(w io.Writer) error {
			return motionplan.WriteStates(w, scene.Trajectory)
		}); err != nil {
			return err
		}
	}
	if path := c.String(imageOutFlag); path != "" {
		scale := c.Float64(imageScaleFlag)
		if limit := visualize.MaxScale(scene.Grid); scale > limit {
			warningf(c.App.ErrWriter, "image scale %v is too large for this world, using %v", scale, limit)
			scale = limit
		}
		return writeFile(path, func(w io.Writer) error {
			return visualize.DrawTree(w, scene, scale)
		})
	}
	return nil
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return write(f)
}

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, "Warning: "+format+"\n", a...)
}
