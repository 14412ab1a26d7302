package motionplan

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/ptsp/spatialmath"
)

// Section headers of the tree format.
const (
	treeNodesHeader  = "TREE_NODES"
	trajectoryHeader = "TRAJECTORY"
)

// ControlRecord is one line of a controls file.
type ControlRecord struct {
	Controls
	WaypointHit int
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteControls writes the number of steps followed by one "turn acceleration duration waypoint"
// line per non-root state.
func WriteControls(w io.Writer, traj Trajectory) error {
	bw := bufio.NewWriter(w)
	steps := 0
	if len(traj) > 0 {
		steps = len(traj) - 1
	}
	fmt.Fprintln(bw, steps)
	for i := 1; i < len(traj); i++ {
		s := traj[i]
		if s.Controls == nil {
			return errors.Errorf("state %d has no controls", i)
		}
		fmt.Fprintln(bw, strings.Join([]string{
			formatFloat(s.Controls.Turn),
			formatFloat(s.Controls.Acceleration),
			formatFloat(s.Controls.Duration),
			strconv.Itoa(s.WaypointHit),
		}, " "))
	}
	return bw.Flush()
}

// WriteStates writes the number of states followed by one "x y heading" line per state.
func WriteStates(w io.Writer, traj Trajectory) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, len(traj))
	for _, s := range traj {
		fmt.Fprintln(bw, formatFloat(s.Position.X), formatFloat(s.Position.Y), formatFloat(spatialmath.Heading(s.Direction)))
	}
	return bw.Flush()
}

// WriteTree writes the live states of tree and then the states of traj as "x y radius" lines,
// each group under its own header.
func WriteTree(w io.Writer, tree *Tree, traj Trajectory) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, treeNodesHeader)
	for _, s := range tree.Live() {
		fmt.Fprintln(bw, formatFloat(s.Position.X), formatFloat(s.Position.Y), formatFloat(s.Radius))
	}
	fmt.Fprintln(bw, trajectoryHeader)
	for _, s := range traj {
		fmt.Fprintln(bw, formatFloat(s.Position.X), formatFloat(s.Position.Y), formatFloat(s.Radius))
	}
	return bw.Flush()
}

// ReadControls parses the format written by WriteControls.
func ReadControls(r io.Reader) ([]ControlRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	next := func(what string) (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", errors.Errorf("unexpected end of controls while reading %s", what)
		}
		return scanner.Text(), nil
	}

	tok, err := next("count")
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(tok)
	if err != nil {
		return nil, errors.Wrap(err, "invalid control count")
	}
	if count < 0 {
		return nil, errors.Errorf("negative control count %d", count)
	}

	// The count comes from the file, so records are appended as they are read rather than
	// allocated up front.
	var records []ControlRecord
	for i := 0; i < count; i++ {
		var vals [3]float64
		for k, name := range []string{"turn", "acceleration", "duration"} {
			tok, err := next(name)
			if err != nil {
				return nil, err
			}
			if vals[k], err = strconv.ParseFloat(tok, 64); err != nil {
				return nil, errors.Wrapf(err, "invalid %s on record %d", name, i+1)
			}
		}
		tok, err := next("waypoint")
		if err != nil {
			return nil, err
		}
		hit, err := strconv.Atoi(tok)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid waypoint on record %d", i+1)
		}
		records = append(records, ControlRecord{
			Controls:    Controls{Turn: vals[0], Acceleration: vals[1], Duration: vals[2]},
			WaypointHit: hit,
		})
	}
	return records, nil
}
