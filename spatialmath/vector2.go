// Package spatialmath defines the planar vector helpers used by the vehicle model.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// Rotation2 is a 2x2 matrix applied to direction vectors. Entries are named by the position
// they occupy when written out as (m00 m01; m10 m11).
type Rotation2 struct {
	m00, m01, m10, m11 float64
}

// NewRotation2 returns the matrix (cos t, -sin t; sin t, cos t) for turn rate t.
func NewRotation2(turn float64) Rotation2 {
	sin, cos := math.Sincos(turn)
	return Rotation2{m00: cos, m01: -sin, m10: sin, m11: cos}
}

// Apply multiplies the vector by the matrix. A positive turn rotates clockwise.
func (r Rotation2) Apply(p r2.Point) r2.Point {
	return r2.Point{
		X: r.m00*p.X + r.m10*p.Y,
		Y: r.m01*p.X + r.m11*p.Y,
	}
}

// Distance returns the euclidean distance between two points.
func Distance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// Heading returns the angle of a direction vector in radians, in (-pi, pi].
func Heading(direction r2.Point) float64 {
	return math.Atan2(direction.Y, direction.X)
}

// DirectionFromRadians returns the unit vector pointing along the given angle.
func DirectionFromRadians(angle float64) r2.Point {
	sin, cos := math.Sincos(angle)
	return r2.Point{X: cos, Y: sin}
}

// DirectionFromDegrees returns the unit vector pointing along the given angle in degrees.
func DirectionFromDegrees(degrees float64) r2.Point {
	return DirectionFromRadians(DegToRad(degrees))
}

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// CapAxes caps each component of the vector at max. Components below -max are left alone.
func CapAxes(p r2.Point, maxValue float64) r2.Point {
	return r2.Point{X: math.Min(p.X, maxValue), Y: math.Min(p.Y, maxValue)}
}

// Speed returns the magnitude of a velocity vector.
func Speed(velocity r2.Point) float64 {
	return velocity.Norm()
}
