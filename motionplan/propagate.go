package motionplan

import (
	"go.viam.com/ptsp/spatialmath"
	"go.viam.com/ptsp/world"
)

const (
	// Integration step of the vehicle model in time units.
	propagationStep = 0.05

	// Fraction of the velocity kept after each step.
	friction = 0.99

	// Upper bound applied to each velocity component after each step.
	maxAxisVelocity = 2.
)

// propagate integrates u from a copy of from. It returns nil if any intermediate position leaves
// the world or touches an obstacle. The returned state has no parent index yet; the cost,
// heuristic and quality are derived from from.Cost.
func propagate(grid *world.Grid, metric *goalMetric, from *State, u Controls) *State {
	dir, vel, pos := from.Direction, from.Velocity, from.Position
	rot := spatialmath.NewRotation2(u.Turn)
	for t := 0.; t < u.Duration; t += propagationStep {
		dir = rot.Apply(dir)
		vel = vel.Add(dir.Mul(u.Acceleration)).Mul(friction)
		vel = spatialmath.CapAxes(vel, maxAxisVelocity)
		pos = pos.Add(vel)
		if grid.Collides(pos) {
			return nil
		}
	}
	child := NewState(dir, vel, pos)
	child.Controls = &u
	child.Cost = from.Cost + u.Duration
	metric.score(child)
	return child
}
