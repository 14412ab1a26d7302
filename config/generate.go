package config

import (
	"math/rand"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/ptsp/world"
)

// default values for problem generation.
const (
	defaultMinCells = 5
	defaultMaxCells = 10

	// Side length of one map cell in world units.
	defaultCellSize = 10

	defaultMinWaypoints = 2
	defaultMaxWaypoints = 6

	defaultMinObstaclePercent = 5
	defaultMaxObstaclePercent = 50

	defaultWaypointRadius = 3.

	// Random problems drawn before giving up on finding a solvable one.
	defaultMaxAttempts = 1000
)

// NewBasicGenerateOptions specifies a set of basic options for problem generation.
func NewBasicGenerateOptions() *GenerateOptions {
	opt := &GenerateOptions{}
	opt.MinCells = defaultMinCells
	opt.MaxCells = defaultMaxCells
	opt.CellSize = defaultCellSize
	opt.MinWaypoints = defaultMinWaypoints
	opt.MaxWaypoints = defaultMaxWaypoints
	opt.MinObstaclePercent = defaultMinObstaclePercent
	opt.MaxObstaclePercent = defaultMaxObstaclePercent
	opt.WaypointRadius = defaultWaypointRadius
	opt.MaxAttempts = defaultMaxAttempts
	return opt
}

// GenerateOptions bound the random problems drawn by GenerateProblem. Ranges are inclusive.
type GenerateOptions struct {
	// Map columns and rows, each drawn independently.
	MinCells int `json:"min_cells"`
	MaxCells int `json:"max_cells"`

	CellSize int `json:"cell_size"`

	MinWaypoints int `json:"min_waypoints"`
	MaxWaypoints int `json:"max_waypoints"`

	// Share of map cells turned into obstacles.
	MinObstaclePercent int `json:"min_obstacle_percent"`
	MaxObstaclePercent int `json:"max_obstacle_percent"`

	WaypointRadius float64 `json:"waypoint_radius"`

	MaxAttempts int `json:"max_attempts"`
}

// NewGenerateOptionsFromExtra returns basic default settings updated by overridden parameters
// found in extra.
func NewGenerateOptionsFromExtra(extra map[string]interface{}) (*GenerateOptions, error) {
	opt := NewBasicGenerateOptions()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           opt,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, errors.Wrap(err, "invalid generate options")
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate returns every problem with the options combined into one error.
func (o *GenerateOptions) Validate() error {
	var err error
	if o.MinCells < 1 || o.MaxCells < o.MinCells {
		err = multierr.Append(err, errors.Errorf("cells must satisfy 1 <= min_cells <= max_cells, got %d and %d", o.MinCells, o.MaxCells))
	}
	if o.CellSize < 1 {
		err = multierr.Append(err, errors.New("cell_size must be positive"))
	}
	if o.MinWaypoints < 1 || o.MaxWaypoints < o.MinWaypoints {
		err = multierr.Append(err, errors.Errorf(
			"waypoints must satisfy 1 <= min_waypoints <= max_waypoints, got %d and %d", o.MinWaypoints, o.MaxWaypoints))
	}
	if o.MinObstaclePercent < 0 || o.MaxObstaclePercent < o.MinObstaclePercent || o.MaxObstaclePercent >= 100 {
		err = multierr.Append(err, errors.Errorf(
			"obstacle percent must satisfy 0 <= min <= max < 100, got %d and %d", o.MinObstaclePercent, o.MaxObstaclePercent))
	}
	if o.WaypointRadius <= 0 {
		err = multierr.Append(err, errors.New("waypoint_radius must be positive"))
	}
	if o.MaxAttempts < 1 {
		err = multierr.Append(err, errors.New("max_attempts must be positive"))
	}
	return err
}

// GenerateProblem draws random problems until one has every waypoint reachable from the start
// through open cells. Start, waypoints and obstacles all sit in distinct cells, and positions are
// cell centers.
func GenerateProblem(rng *rand.Rand, opts *GenerateOptions) (*Problem, error) {
	if opts == nil {
		opts = NewBasicGenerateOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		prob, err := drawProblem(rng, opts)
		if err != nil {
			return nil, err
		}
		if prob != nil {
			return prob, nil
		}
	}
	return nil, errors.Errorf("no solvable problem found in %d attempts", opts.MaxAttempts)
}

func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// drawProblem draws one problem and returns nil if it does not fit or cannot be solved.
func drawProblem(rng *rand.Rand, opts *GenerateOptions) (*Problem, error) {
	cols := between(rng, opts.MinCells, opts.MaxCells)
	rows := between(rng, opts.MinCells, opts.MaxCells)
	numWaypoints := between(rng, opts.MinWaypoints, opts.MaxWaypoints)
	heading := rng.Intn(360)
	numObstacles := cols * rows * between(rng, opts.MinObstaclePercent, opts.MaxObstaclePercent) / 100
	if 1+numWaypoints+numObstacles > cols*rows {
		return nil, nil
	}

	taken := map[world.Cell]bool{}
	freeCell := func() world.Cell {
		for {
			c := world.Cell{I: rng.Intn(cols), J: rng.Intn(rows)}
			if !taken[c] {
				taken[c] = true
				return c
			}
		}
	}
	start := freeCell()
	waypoints := make([]world.Cell, numWaypoints)
	for k := range waypoints {
		waypoints[k] = freeCell()
	}
	blocked := map[world.Cell]bool{}
	for k := 0; k < numObstacles; k++ {
		blocked[freeCell()] = true
	}

	mapRows := make([]string, rows)
	for r := range mapRows {
		line := make([]byte, cols)
		for i := range line {
			line[i] = '_'
			if blocked[world.Cell{I: i, J: rows - 1 - r}] {
				line[i] = world.BlockedCell
			}
		}
		mapRows[r] = string(line)
	}

	size := float64(opts.CellSize)
	center := func(c world.Cell) r2.Point {
		return r2.Point{X: (float64(c.I) + 0.5) * size, Y: (float64(c.J) + 0.5) * size}
	}
	prob := &Problem{
		Width:           cols * opts.CellSize,
		Height:          rows * opts.CellSize,
		InitialHeading:  float64(heading),
		InitialPosition: center(start),
		Map:             mapRows,
	}
	for k, c := range waypoints {
		prob.Waypoints = append(prob.Waypoints, Waypoint{Index: k + 1, Position: center(c), Radius: opts.WaypointRadius})
	}

	grid, err := prob.Grid()
	if err != nil {
		return nil, err
	}
	reached := grid.ConnectedCells(start)
	for _, c := range waypoints {
		if !reached[c] {
			return nil, nil
		}
	}
	return prob, nil
}
