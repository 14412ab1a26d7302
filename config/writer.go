package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteProblem writes a problem in the format read by ParseProblem.
func WriteProblem(w io.Writer, prob *Problem) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %d %d\n", worldDimensionsKey, prob.Width, prob.Height)
	fmt.Fprintf(bw, "%s %d\n", numWaypointsKey, len(prob.Waypoints))
	fmt.Fprintf(bw, "%s %s\n", initialDirKey, formatFloat(prob.InitialHeading))
	fmt.Fprintf(bw, "%s %s %s\n", initialPosKey, formatFloat(prob.InitialPosition.X), formatFloat(prob.InitialPosition.Y))
	fmt.Fprintln(bw, mapKey)
	for _, row := range prob.Map {
		fmt.Fprintln(bw, row)
	}
	fmt.Fprintln(bw, waypointsKey)
	for _, wp := range prob.Waypoints {
		fmt.Fprintf(bw, "%d\t%s %s %s\n",
			wp.Index, formatFloat(wp.Position.X), formatFloat(wp.Position.Y), formatFloat(wp.Radius))
	}
	return bw.Flush()
}

// WriteProblemFile writes a problem to a new file at path.
func WriteProblemFile(path string, prob *Problem) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WriteProblem(f, prob)
}
