package motionplan

import "github.com/pkg/errors"

// NewPlannerFailedError is returned when a search ends without a trajectory and the caller
// requires one.
func NewPlannerFailedError() error {
	return errors.New("motion planner failed to find a trajectory")
}

// NewStartCollisionError is returned when the start position is inside an obstacle or outside
// the world.
func NewStartCollisionError(s *State) error {
	return errors.Errorf("start position (%.3f, %.3f) is in collision", s.Position.X, s.Position.Y)
}

// NewReplayCollisionError is returned when replaying controls collides at the given step.
func NewReplayCollisionError(step int) error {
	return errors.Errorf("replayed controls collide at step %d", step)
}
