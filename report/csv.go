// Package report records the results of tour planning runs.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/ptsp/motionplan/tourplanning"
)

// CSVHeader names the columns written by AppendCSV.
var CSVHeader = []string{
	"Solution Cost",
	"Total CPU Time",
	"# of Calls to Motion Planner",
	"# of Runs Reused",
	"# of Runs Skipped",
	"# of Orderings",
	"Run ID",
}

// CSVRecord returns the row AppendCSV writes for a summary. The solution cost of a run without a
// tour is +Inf.
func CSVRecord(sum *tourplanning.Summary) []string {
	return []string{
		strconv.FormatFloat(sum.BestTime, 'f', -1, 64),
		strconv.FormatFloat(sum.Runtime.Seconds(), 'f', -1, 64),
		strconv.Itoa(sum.PlannerCalls()),
		strconv.Itoa(sum.LegsReused),
		strconv.Itoa(sum.LegsSkipped),
		strconv.Itoa(sum.Orderings),
		sum.RunID.String(),
	}
}

// AppendCSV appends one row for sum to the CSV file at path, writing the header first when the
// file does not exist yet.
func AppendCSV(path string, sum *tourplanning.Summary) (err error) {
	_, statErr := os.Stat(path)
	create := errors.Is(statErr, os.ErrNotExist)

	//nolint:gosec
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening report %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := csv.NewWriter(f)
	if create {
		if err := w.Write(CSVHeader); err != nil {
			return err
		}
	}
	if err := w.Write(CSVRecord(sum)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
