package config

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Section keys of a problem file.
const (
	worldDimensionsKey = "WORLD_DIMENSIONS:"
	numWaypointsKey    = "NUM_WAYPOINTS:"
	initialDirKey      = "INITIAL_DIR:"
	initialPosKey      = "INITIAL_POS:"
	mapKey             = "MAP"
	waypointsKey       = "WAYPOINTS"
)

// ReadProblem reads a problem file from disk.
func ReadProblem(path string) (prob *Problem, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	prob, err = ParseProblem(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading problem %q", path)
	}
	return prob, nil
}

// problemScanner walks a problem file token by token, while still allowing whole lines to be
// taken for the map section.
type problemScanner struct {
	lines  []string
	line   int
	fields []string
}

func (ps *problemScanner) next() (string, bool) {
	for len(ps.fields) == 0 {
		if ps.line >= len(ps.lines) {
			return "", false
		}
		ps.fields = strings.Fields(ps.lines[ps.line])
		ps.line++
	}
	tok := ps.fields[0]
	ps.fields = ps.fields[1:]
	return tok, true
}

func (ps *problemScanner) peek() (string, bool) {
	save := *ps
	tok, ok := ps.next()
	*ps = save
	return tok, ok
}

func (ps *problemScanner) nextLine() (string, bool) {
	ps.fields = nil
	if ps.line >= len(ps.lines) {
		return "", false
	}
	l := strings.TrimRight(ps.lines[ps.line], " \t\r")
	ps.line++
	return l, true
}

func (ps *problemScanner) nextInt(what string) (int, error) {
	tok, ok := ps.next()
	if !ok {
		return 0, errors.Errorf("missing %s", what)
	}
	v, err := strconv.Atoi(tok)
	return v, errors.Wrapf(err, "invalid %s", what)
}

func (ps *problemScanner) nextFloat(what string) (float64, error) {
	tok, ok := ps.next()
	if !ok {
		return 0, errors.Errorf("missing %s", what)
	}
	v, err := strconv.ParseFloat(tok, 64)
	return v, errors.Wrapf(err, "invalid %s", what)
}

// ParseProblem parses a problem description.
func ParseProblem(r io.Reader) (*Problem, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	ps := &problemScanner{lines: lines}
	prob := &Problem{}
	numWaypoints := -1
	var haveDims, haveDir, havePos bool
	var err error
	for {
		tok, ok := ps.next()
		if !ok {
			break
		}
		switch tok {
		case worldDimensionsKey:
			if prob.Width, err = ps.nextInt("world width"); err != nil {
				return nil, err
			}
			if prob.Height, err = ps.nextInt("world height"); err != nil {
				return nil, err
			}
			haveDims = true
		case numWaypointsKey:
			if numWaypoints, err = ps.nextInt("waypoint count"); err != nil {
				return nil, err
			}
		case initialDirKey:
			if prob.InitialHeading, err = ps.nextFloat("initial direction"); err != nil {
				return nil, err
			}
			haveDir = true
		case initialPosKey:
			x, err := ps.nextFloat("initial x")
			if err != nil {
				return nil, err
			}
			y, err := ps.nextFloat("initial y")
			if err != nil {
				return nil, err
			}
			prob.InitialPosition = r2.Point{X: x, Y: y}
			havePos = true
		case mapKey:
			if !haveDims {
				return nil, errors.New("MAP must come after WORLD_DIMENSIONS")
			}
			if prob.Map, err = readMapRows(ps, prob.Width, prob.Height); err != nil {
				return nil, err
			}
		case waypointsKey:
			for {
				if tok, ok := ps.peek(); !ok || !isNumber(tok) {
					break
				}
				idx, err := ps.nextInt("waypoint index")
				if err != nil {
					return nil, err
				}
				var vals [3]float64
				for k, what := range []string{"waypoint x", "waypoint y", "waypoint radius"} {
					if vals[k], err = ps.nextFloat(what); err != nil {
						return nil, err
					}
				}
				prob.Waypoints = append(prob.Waypoints, Waypoint{
					Index:    idx,
					Position: r2.Point{X: vals[0], Y: vals[1]},
					Radius:   vals[2],
				})
			}
		default:
			return nil, errors.Errorf("unexpected token %q", tok)
		}
	}

	var missing error
	if !haveDims {
		missing = multierr.Append(missing, errors.New("missing WORLD_DIMENSIONS"))
	}
	if !haveDir {
		missing = multierr.Append(missing, errors.New("missing INITIAL_DIR"))
	}
	if !havePos {
		missing = multierr.Append(missing, errors.New("missing INITIAL_POS"))
	}
	if prob.Map == nil {
		missing = multierr.Append(missing, errors.New("missing MAP"))
	}
	if len(prob.Waypoints) == 0 {
		missing = multierr.Append(missing, errors.New("no WAYPOINTS"))
	}
	if numWaypoints >= 0 && numWaypoints != len(prob.Waypoints) {
		missing = multierr.Append(missing, errors.Errorf("NUM_WAYPOINTS is %d but %d waypoints are listed", numWaypoints, len(prob.Waypoints)))
	}
	if missing != nil {
		return nil, missing
	}
	if _, err := prob.Grid(); err != nil {
		return nil, err
	}
	return prob, nil
}

// readMapRows takes the rows following the MAP line. The first row fixes the scale factor and
// thereby how many rows follow.
func readMapRows(ps *problemScanner, width, height int) ([]string, error) {
	// Anything left on the MAP line itself is ignored.
	ps.fields = nil
	first, ok := ps.nextLine()
	if !ok || first == "" {
		return nil, errors.New("MAP has no rows")
	}
	scale := width / len(first)
	if scale == 0 {
		return nil, errors.Errorf("map row of length %d is wider than world width %d", len(first), width)
	}
	rows := []string{first}
	for len(rows) < height/scale {
		row, ok := ps.nextLine()
		if !ok || row == waypointsKey {
			return nil, errors.Errorf("map needs %d rows, got %d", height/scale, len(rows))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isNumber(tok string) bool {
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}

// ReadPlannerConfig reads a JSON object of settings, in the form accepted by the planners'
// NewPlannerOptionsFromExtra and by NewGenerateOptionsFromExtra.
func ReadPlannerConfig(path string) (map[string]interface{}, error) {
	//nolint:gosec
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	extra := map[string]interface{}{}
	if err := json.Unmarshal(content, &extra); err != nil {
		return nil, errors.Wrapf(err, "parsing planner config %q", path)
	}
	return extra, nil
}
