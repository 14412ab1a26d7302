package tourplanning

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/ptsp/motionplan"
	"go.viam.com/ptsp/spatialmath"
)

// legKey identifies a leg up to the tolerance within which cached trajectories are worth
// retrying. Velocities are rounded to the nearest integer, half up. Directions are rounded up to
// one decimal and kept as integer tenths.
type legKey struct {
	from, to         int
	dirX, dirY       int
	velX, velY       int
	headX, headY     int
	targetX, targetY int
}

func newLegKey(from, to int, root *motionplan.State, goal motionplan.Goal) legKey {
	return legKey{
		from:    from,
		to:      to,
		dirX:    ceilTenths(root.Direction.X),
		dirY:    ceilTenths(root.Direction.Y),
		velX:    roundHalfUp(root.Velocity.X),
		velY:    roundHalfUp(root.Velocity.Y),
		headX:   ceilTenths(goal.Direction.X),
		headY:   ceilTenths(goal.Direction.Y),
		targetX: roundHalfUp(goal.Velocity.X),
		targetY: roundHalfUp(goal.Velocity.Y),
	}
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// ceilTenths returns ceil(10x), correcting for products that land just above an integer, so that
// a value printed as exactly one decimal is not bumped to the next tenth. -0.0 and 0.0 both map to 0.
func ceilTenths(x float64) int {
	t := math.Ceil(x * 10)
	if (t-1)/10 >= x {
		t--
	}
	return int(t)
}

// legEntry is what a key has seen: the trajectories that succeeded, newest first, and whether a
// DIRT run for it ever failed.
type legEntry struct {
	legs   []motionplan.Trajectory
	failed bool
}

// legCache remembers planned legs for one worker. Entries are never evicted.
type legCache struct {
	entries map[legKey]*legEntry
}

func newLegCache() *legCache {
	return &legCache{entries: map[legKey]*legEntry{}}
}

func (c *legCache) get(k legKey) *legEntry {
	return c.entries[k]
}

func (c *legCache) entry(k legKey) *legEntry {
	e, ok := c.entries[k]
	if !ok {
		e = &legEntry{}
		c.entries[k] = e
	}
	return e
}

// addSuccess puts traj in front of the key's trajectories.
func (c *legCache) addSuccess(k legKey, traj motionplan.Trajectory) {
	e := c.entry(k)
	e.legs = append([]motionplan.Trajectory{traj}, e.legs...)
}

func (c *legCache) addFailure(k legKey) {
	c.entry(k).failed = true
}

// counts returns the number of keys holding trajectories and the number holding a failure.
func (c *legCache) counts() (legLists, failures int) {
	for _, e := range c.entries {
		if len(e.legs) > 0 {
			legLists++
		}
		if e.failed {
			failures++
		}
	}
	return legLists, failures
}

// headings returns the eight directions at 45 degree steps starting from the direction of from
// to to.
func headings(from, to r2.Point) []r2.Point {
	angle := spatialmath.RadToDeg(spatialmath.Heading(to.Sub(from)))
	dirs := make([]r2.Point, 0, 8)
	for k := 0; k < 8; k++ {
		dirs = append(dirs, spatialmath.DirectionFromDegrees(angle+float64(45*k)))
	}
	return dirs
}
