// Package tsp orders waypoints for the tour planner. Travel times between waypoints are kept in a
// dense matrix that the tour planner refines as it learns real leg times.
package tsp

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/ptsp/spatialmath"
)

// MaxSpeed estimates the top speed reachable on a width x height world: the final speed after
// accelerating at unit rate along its diagonal.
func MaxSpeed(width, height float64) float64 {
	return math.Sqrt(2 * math.Hypot(width, height))
}

// NewTimeMatrix returns the symmetric matrix of straight-line travel times between coords at
// maxSpeed, with zeros on the diagonal.
func NewTimeMatrix(coords []r2.Point, maxSpeed float64) *mat.Dense {
	n := len(coords)
	times := mat.NewDense(n, n, nil)
	for row := 0; row < n; row++ {
		for col := row + 1; col < n; col++ {
			t := spatialmath.Distance(coords[row], coords[col]) / maxSpeed
			times.Set(row, col, t)
			times.Set(col, row, t)
		}
	}
	return times
}

// TourTime returns the time of visiting ordering in sequence, without returning to the start.
func TourTime(times mat.Matrix, ordering []int) float64 {
	total := 0.
	for i := 1; i < len(ordering); i++ {
		total += times.At(ordering[i-1], ordering[i])
	}
	return total
}
