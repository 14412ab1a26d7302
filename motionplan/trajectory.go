package motionplan

import "github.com/samber/lo"

// Trajectory is a self-contained chain of states, root first. Element i was produced from element
// i-1 by element i's controls. A nil Trajectory means no trajectory was found.
type Trajectory []State

// End returns the last state, or nil for an empty trajectory.
func (t Trajectory) End() *State {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Cost returns the time of the last state.
func (t Trajectory) Cost() float64 {
	if end := t.End(); end != nil {
		return end.Cost
	}
	return 0
}

// Controls returns the controls of every non-root step in order.
func (t Trajectory) Controls() []Controls {
	steps := lo.Filter(t, func(s State, _ int) bool { return s.Controls != nil })
	return lo.Map(steps, func(s State, _ int) Controls { return *s.Controls })
}

// Copy returns a deep copy that can be modified without touching t.
func (t Trajectory) Copy() Trajectory {
	if t == nil {
		return nil
	}
	return lo.Map(t, func(s State, _ int) State { return s.detached() })
}

// Extend returns t followed by leg. Leg's root duplicates t's end and is dropped, and the costs of
// the appended states continue from t's cost. An empty t takes the whole leg. Neither input is
// modified.
func (t Trajectory) Extend(leg Trajectory) Trajectory {
	out := make(Trajectory, 0, len(t)+len(leg))
	out = append(out, t.Copy()...)
	steps := leg
	offset := 0.
	if len(t) > 0 && len(leg) > 0 {
		steps = leg[1:]
		offset = t.Cost()
	}
	for _, s := range steps {
		c := s.detached()
		c.Cost += offset
		c.Quality += offset
		c.index = len(out)
		c.parent = len(out) - 1
		out = append(out, c)
	}
	return out
}
