// Package visualize renders planning results as PNG images.
package visualize

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/ptsp/motionplan"
	"go.viam.com/ptsp/world"
)

var (
	backgroundColor = color.White
	obstacleColor   = color.RGBA{60, 60, 60, 255}
	edgeColor       = color.RGBA{150, 170, 220, 255}
	regionColor     = color.RGBA{150, 170, 220, 60}
	trajectoryColor = color.RGBA{220, 40, 40, 255}
	waypointColor   = color.RGBA{30, 160, 60, 255}
)

// MaxImageSide is the largest width or height, in pixels, of a rendered scene.
const MaxImageSide = 8192

// MaxScale returns the largest scale at which the world of grid still renders within MaxImageSide.
func MaxScale(grid *world.Grid) float64 {
	return MaxImageSide / float64(max(grid.Width(), grid.Height()))
}

// Scene is what DrawTree renders. Only Grid is required.
type Scene struct {
	Grid       *world.Grid
	Tree       *motionplan.Tree
	Trajectory motionplan.Trajectory
	Waypoints  []r2.Point
	// Regions draws the dominance region of every live tree node.
	Regions bool
}

// Image renders the scene at scale pixels per world unit, with the world's y axis pointing up.
func (s *Scene) Image(scale float64) (image.Image, error) {
	if s.Grid == nil {
		return nil, errors.New("scene has no grid")
	}
	if scale <= 0 {
		return nil, errors.Errorf("scale must be positive, got %v", scale)
	}
	if limit := MaxScale(s.Grid); scale > limit {
		return nil, errors.Errorf("scale %v would render wider than %d pixels, at most %v fits", scale, MaxImageSide, limit)
	}
	width := int(float64(s.Grid.Width()) * scale)
	height := int(float64(s.Grid.Height()) * scale)
	dc := gg.NewContext(width, height)
	toImage := func(p r2.Point) (float64, float64) {
		return p.X * scale, float64(height) - p.Y*scale
	}

	dc.SetColor(backgroundColor)
	dc.Clear()

	dc.SetColor(obstacleColor)
	for _, c := range s.Grid.BlockedCells() {
		rect := s.Grid.CellRect(c)
		x, y := toImage(r2.Point{X: rect.X.Lo, Y: rect.Y.Hi})
		dc.DrawRectangle(x, y, rect.X.Length()*scale, rect.Y.Length()*scale)
		dc.Fill()
	}

	if s.Tree != nil {
		live := s.Tree.Live()
		if s.Regions {
			dc.SetColor(regionColor)
			for _, n := range live {
				if n.IsRoot() {
					continue
				}
				x, y := toImage(n.Position)
				dc.DrawCircle(x, y, n.Radius*scale)
				dc.Fill()
			}
		}
		dc.SetColor(edgeColor)
		dc.SetLineWidth(1)
		for _, n := range live {
			if n.IsRoot() {
				continue
			}
			x1, y1 := toImage(s.Tree.Node(n.Parent()).Position)
			x2, y2 := toImage(n.Position)
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
		}
	}

	if len(s.Trajectory) > 1 {
		dc.SetColor(trajectoryColor)
		dc.SetLineWidth(2)
		x, y := toImage(s.Trajectory[0].Position)
		dc.MoveTo(x, y)
		for _, st := range s.Trajectory[1:] {
			x, y := toImage(st.Position)
			dc.LineTo(x, y)
		}
		dc.Stroke()
	}

	dc.SetColor(waypointColor)
	for _, wp := range s.Waypoints {
		x, y := toImage(wp)
		dc.DrawCircle(x, y, motionplan.WaypointRadius*scale)
		dc.Stroke()
	}
	return dc.Image(), nil
}

// DrawTree writes the scene as a PNG image at scale pixels per world unit.
func DrawTree(w io.Writer, scene *Scene, scale float64) error {
	img, err := scene.Image(scale)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}
