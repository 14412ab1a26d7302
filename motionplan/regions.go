package motionplan

import (
	"math"

	"go.viam.com/ptsp/spatialmath"
)

// updateDominanceRegions shrinks the regions of the worse states that xNew now competes with and
// sizes the region of xNew. Only states within dist(xSel, xNew) of xNew are considered. A dominated
// root still sizes xNew, but is never shrunk: its radius is the running maximum of every assigned
// radius.
func (t *Tree) updateDominanceRegions(xSel, xNew *State) {
	reach := spatialmath.Distance(xSel.Position, xNew.Position)
	maxDist := 0.
	for _, i := range t.live {
		x := t.nodes[i]
		if x == xNew {
			continue
		}
		d := spatialmath.Distance(x.Position, xNew.Position)
		if d > reach || x.Quality <= xNew.Quality {
			continue
		}
		if !x.IsRoot() {
			x.Radius = math.Min(x.Radius, d)
		}
		maxDist = math.Max(maxDist, d)
	}
	xNew.Radius = maxDist
	root := t.Root()
	root.Radius = math.Max(root.Radius, maxDist)
}

// pruneDominated removes every non-root state whose region lies strictly inside the region of
// another live state. States are visited in insertion order and a removed state no longer counts
// as a container. It returns the number of states removed.
func (t *Tree) pruneDominated() int {
	removed := make([]bool, len(t.nodes))
	count := 0
	for _, i := range t.live {
		x := t.nodes[i]
		if x.IsRoot() {
			continue
		}
		for _, j := range t.live {
			if removed[j] {
				continue
			}
			x2 := t.nodes[j]
			if x.Radius+spatialmath.Distance(x.Position, x2.Position) < x2.Radius {
				removed[i] = true
				count++
				break
			}
		}
	}
	if count == 0 {
		return 0
	}
	kept := make([]int, 0, len(t.live)-count)
	for _, i := range t.live {
		if !removed[i] {
			kept = append(kept, i)
		}
	}
	t.live = kept
	return count
}
