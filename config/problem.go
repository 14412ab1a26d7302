// Package config reads tour problems and planner settings from disk.
package config

import (
	"github.com/golang/geo/r2"

	"go.viam.com/ptsp/spatialmath"
	"go.viam.com/ptsp/world"
)

// Problem is a parsed tour problem: a world, a start state and the waypoints to visit.
type Problem struct {
	Width  int
	Height int

	// InitialHeading is the starting heading in degrees.
	InitialHeading  float64
	InitialPosition r2.Point

	// Map holds the obstacle rows, top row first.
	Map       []string
	Waypoints []Waypoint
}

// Waypoint is one waypoint record of a problem file.
type Waypoint struct {
	Index    int
	Position r2.Point
	Radius   float64
}

// InitialDirection returns the unit vector of the initial heading.
func (p *Problem) InitialDirection() r2.Point {
	return spatialmath.DirectionFromDegrees(p.InitialHeading)
}

// Coords returns the start position followed by every waypoint position, so waypoint k of the
// file sits at index k.
func (p *Problem) Coords() []r2.Point {
	coords := make([]r2.Point, 0, len(p.Waypoints)+1)
	coords = append(coords, p.InitialPosition)
	for _, w := range p.Waypoints {
		coords = append(coords, w.Position)
	}
	return coords
}

// Grid builds the obstacle grid of the problem.
func (p *Problem) Grid() (*world.Grid, error) {
	return world.NewGrid(p.Width, p.Height, p.Map)
}
