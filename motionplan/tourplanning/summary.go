package tourplanning

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/ptsp/motionplan"
)

// Summary describes the outcome of a tour planning run.
type Summary struct {
	RunID uuid.UUID
	// Worker is the index of the worker that produced this summary.
	Worker int

	// BestTime is the time of Trajectory, +Inf when no tour was found.
	BestTime   float64
	Trajectory motionplan.Trajectory
	// Ordering is the node order of Trajectory, starting with the start node 0.
	Ordering []int
	// LegTimes holds the time of each committed leg of Trajectory in order.
	LegTimes []float64

	// Orderings is the number of orderings attempted.
	Orderings int
	// Convergence holds BestTime after each attempted ordering.
	Convergence []float64

	LegsTested  int
	LegsReused  int
	LegsSkipped int
	Successes   int
	Failures    int

	CachedLegLists int
	CachedFailures int

	Runtime time.Duration
}

func newSummary(worker int) *Summary {
	return &Summary{Worker: worker, BestTime: math.Inf(1)}
}

// Found reports whether a complete tour was planned.
func (s *Summary) Found() bool {
	return s != nil && s.Trajectory != nil
}

// PlannerCalls returns the number of DIRT runs, successful or not.
func (s *Summary) PlannerCalls() int {
	return s.Successes + s.Failures
}

// LegTimeStats summarizes the leg times of the best tour.
type LegTimeStats struct {
	Total  float64
	Mean   float64
	Median float64
	Max    float64
}

// LegTimeStats returns statistics of the leg times. It errors when no tour was found.
func (s *Summary) LegTimeStats() (LegTimeStats, error) {
	data := stats.Float64Data(s.LegTimes)
	mean, err := data.Mean()
	if err != nil {
		return LegTimeStats{}, err
	}
	median, err := data.Median()
	if err != nil {
		return LegTimeStats{}, err
	}
	maxTime, err := data.Max()
	if err != nil {
		return LegTimeStats{}, err
	}
	return LegTimeStats{Total: floats.Sum(s.LegTimes), Mean: mean, Median: median, Max: maxTime}, nil
}
