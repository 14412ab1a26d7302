package tsp

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TreeSolver finds the open tour from node 0 through every other node with the least total time
// using a depth-first branch-and-bound search. Nearer nodes are tried first so good tours are
// found early.
type TreeSolver struct {
	// NodeLimit caps the number of search nodes visited. Zero or negative means no limit.
	NodeLimit int
}

// NewTreeSolver returns a solver visiting at most nodeLimit search nodes.
func NewTreeSolver(nodeLimit int) *TreeSolver {
	return &TreeSolver{NodeLimit: nodeLimit}
}

// Order returns the best ordering found, starting at node 0.
func (s *TreeSolver) Order(times *mat.Dense) ([]int, error) {
	rows, cols := times.Dims()
	if rows != cols {
		return nil, errors.Errorf("time matrix must be square, got %dx%d", rows, cols)
	}
	if rows < 2 {
		return nil, errors.New("need at least one waypoint besides the start")
	}

	srch := &treeSearch{times: times, limit: s.NodeLimit, bestTime: math.Inf(1)}
	remaining := make([]int, 0, rows-1)
	for i := 1; i < rows; i++ {
		remaining = append(remaining, i)
	}
	srch.solve([]int{0}, 0, remaining)
	if srch.best == nil {
		return nil, errors.Errorf("no tour found within %d search nodes", s.NodeLimit)
	}
	return srch.best, nil
}

type treeSearch struct {
	times    *mat.Dense
	limit    int
	count    int
	done     bool
	best     []int
	bestTime float64
}

func (ts *treeSearch) solve(tour []int, elapsed float64, remaining []int) {
	if ts.limit > 0 && ts.count == ts.limit {
		ts.done = true
		return
	}
	ts.count++

	last := tour[len(tour)-1]
	if len(remaining) == 1 {
		total := elapsed + ts.times.At(last, remaining[0])
		if ts.best == nil || total < ts.bestTime {
			ts.best = append(append(make([]int, 0, len(tour)+1), tour...), remaining[0])
			ts.bestTime = total
		}
		return
	}

	order := append([]int(nil), remaining...)
	sort.SliceStable(order, func(i, j int) bool {
		return ts.times.At(last, order[i]) < ts.times.At(last, order[j])
	})
	for i, node := range order {
		if ts.done {
			return
		}
		t := elapsed + ts.times.At(last, node)
		if ts.best != nil && t >= ts.bestTime {
			continue
		}
		rest := make([]int, 0, len(order)-1)
		rest = append(rest, order[:i]...)
		rest = append(rest, order[i+1:]...)
		ts.solve(append(tour, node), t, rest)
	}
}
