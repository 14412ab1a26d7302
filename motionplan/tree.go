package motionplan

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"

	"go.viam.com/ptsp/spatialmath"
)

// Tree is the explored state tree of one planner. States live in an arena and refer to their
// parent by index. Pruned states stay in the arena so the parent chains of their descendants
// stay valid, but they are dropped from the live list that selection and region maintenance see.
type Tree struct {
	nodes []*State
	live  []int
}

func newTree(root *State) *Tree {
	root.index = 0
	root.parent = -1
	return &Tree{nodes: []*State{root}, live: []int{0}}
}

// add commits child under parent and returns its index.
func (t *Tree) add(parent, child *State) int {
	child.index = len(t.nodes)
	child.parent = parent.index
	t.nodes = append(t.nodes, child)
	t.live = append(t.live, child.index)
	return child.index
}

// Root returns the root state.
func (t *Tree) Root() *State {
	return t.nodes[0]
}

// Node returns the state stored at index i, pruned or not.
func (t *Tree) Node(i int) *State {
	return t.nodes[i]
}

// Size returns the number of live (unpruned) states.
func (t *Tree) Size() int {
	return len(t.live)
}

// Created returns the number of states ever added, including the root and pruned states.
func (t *Tree) Created() int {
	return len(t.nodes)
}

// Live returns the live states in insertion order.
func (t *Tree) Live() []*State {
	return lo.Map(t.live, func(i, _ int) *State { return t.nodes[i] })
}

// within returns the live states whose dominance region contains p, in insertion order.
func (t *Tree) within(p r2.Point) []*State {
	var out []*State
	for _, i := range t.live {
		s := t.nodes[i]
		if spatialmath.Distance(p, s.Position) <= s.Radius {
			out = append(out, s)
		}
	}
	return out
}

// nearest returns the first live state closest to p.
func (t *Tree) nearest(p r2.Point) *State {
	var best *State
	bestDist := math.Inf(1)
	for _, i := range t.live {
		s := t.nodes[i]
		if d := spatialmath.Distance(p, s.Position); d < bestDist {
			bestDist = d
			best = s
		}
	}
	return best
}

// trajectory copies the chain from the root to the state at index i.
func (t *Tree) trajectory(i int) Trajectory {
	var chain []int
	for ; i >= 0; i = t.nodes[i].parent {
		chain = append(chain, i)
	}
	traj := make(Trajectory, len(chain))
	for k := range traj {
		s := t.nodes[chain[len(chain)-1-k]].detached()
		s.index = k
		s.parent = k - 1
		traj[k] = s
	}
	return traj
}
