package motionplan

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/ptsp/spatialmath"
)

const (
	// WaypointRadius is how close to the goal position a state must be to count as arrived.
	WaypointRadius = 3.

	// Heading and per-axis velocity tolerance of a full goal check.
	goalTolerance = 0.5
)

// GoalCheckType selects what must match for a state to satisfy a goal.
type GoalCheckType string

// The supported goal checks.
const (
	// FullGoalCheck requires position, heading and velocity to match.
	FullGoalCheck GoalCheckType = "full"
	// PositionOnlyGoalCheck only requires the position to match.
	PositionOnlyGoalCheck GoalCheckType = "position_only"
)

// Goal is the target a single planner searches for.
type Goal struct {
	Direction r2.Point `json:"direction"`
	Velocity  r2.Point `json:"velocity"`
	Position  r2.Point `json:"position"`
}

// goalMetric scores states against one goal under one goal check.
type goalMetric struct {
	goal    Goal
	check   GoalCheckType
	heading float64
}

func newGoalMetric(goal Goal, check GoalCheckType) *goalMetric {
	return &goalMetric{goal: goal, check: check, heading: spatialmath.Heading(goal.Direction)}
}

// satisfied reports whether the state reaches the goal.
func (gm *goalMetric) satisfied(s *State) bool {
	if spatialmath.Distance(s.Position, gm.goal.Position) > WaypointRadius {
		return false
	}
	if gm.check != FullGoalCheck {
		return true
	}
	// Headings are compared without wrapping around.
	return math.Abs(spatialmath.Heading(s.Direction)-gm.heading) <= goalTolerance &&
		math.Abs(gm.goal.Velocity.X-s.Velocity.X) <= goalTolerance &&
		math.Abs(gm.goal.Velocity.Y-s.Velocity.Y) <= goalTolerance
}

// heuristic returns the estimated time from s to the goal, 0 when the goal is satisfied.
func (gm *goalMetric) heuristic(s *State) float64 {
	if gm.satisfied(s) {
		return 0
	}
	dist := spatialmath.Distance(s.Position, gm.goal.Position)
	speed := spatialmath.Speed(s.Velocity)
	if gm.check == FullGoalCheck {
		return 2 * dist / (spatialmath.Speed(gm.goal.Velocity) + speed)
	}
	root := math.Sqrt(speed*speed + 2*dist)
	if tPlus := -speed + root; tPlus > 0 {
		return tPlus
	}
	return -speed - root
}

// score sets the heuristic and quality of s from its cost. A nil metric scores every state as
// having arrived.
func (gm *goalMetric) score(s *State) {
	s.Heuristic = 0
	if gm != nil {
		s.Heuristic = gm.heuristic(s)
	}
	s.Quality = s.Cost + s.Heuristic
}
