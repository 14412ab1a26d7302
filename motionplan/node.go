package motionplan

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Controls is one constant command held for Duration time units: a turn rate in radians per
// sub-step and a forward acceleration.
type Controls struct {
	Turn         float64 `json:"turn"`
	Acceleration float64 `json:"acceleration"`
	Duration     float64 `json:"duration"`
}

// State is a kinematic state of the vehicle. Inside a planner it is also a node of the search
// tree, addressed by its index in the tree arena.
type State struct {
	Direction r2.Point
	Velocity  r2.Point
	Position  r2.Point

	// Cost is the time accumulated since the root.
	Cost float64
	// Heuristic estimates the time remaining to the goal. It is zero when the goal is satisfied.
	Heuristic float64
	// Quality is Cost + Heuristic.
	Quality float64
	// Radius is the extent of the dominance region around Position.
	Radius float64

	// Controls produced this state from its parent. Nil at a root.
	Controls *Controls
	// WaypointHit is the index of the waypoint reached at this state, 0 for none.
	WaypointHit int

	index      int
	parent     int
	expanded   bool
	candidates []Controls
}

// NewState returns a parentless state with zero cost.
func NewState(direction, velocity, position r2.Point) *State {
	return &State{
		Direction: direction,
		Velocity:  velocity,
		Position:  position,
		parent:    -1,
	}
}

// Parent returns the arena index of the parent state, or -1 for a root.
func (s *State) Parent() int {
	return s.parent
}

// IsRoot reports whether the state has no parent.
func (s *State) IsRoot() bool {
	return s.parent < 0
}

// Expanded reports whether the full set of edge candidates has already been generated here.
func (s *State) Expanded() bool {
	return s.expanded
}

// detached returns a copy of the kinematic and planning attributes without any pending edge
// candidates. The controls are copied so the result shares nothing with s.
func (s *State) detached() State {
	c := *s
	c.candidates = nil
	c.expanded = false
	if s.Controls != nil {
		u := *s.Controls
		c.Controls = &u
	}
	return c
}

func (s *State) String() string {
	return fmt.Sprintf("pos: (%.3f, %.3f) vel: (%.3f, %.3f) dir: (%.3f, %.3f) g: %.3f h: %.3f r: %.3f",
		s.Position.X, s.Position.Y, s.Velocity.X, s.Velocity.Y, s.Direction.X, s.Direction.Y, s.Cost, s.Heuristic, s.Radius)
}
