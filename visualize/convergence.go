package visualize

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotConvergence writes a PNG line plot of the best tour time after each ordering. Orderings
// before the first tour was found are left out.
func PlotConvergence(w io.Writer, convergence []float64) error {
	pts := make(plotter.XYs, 0, len(convergence))
	for i, t := range convergence {
		if math.IsInf(t, 0) || math.IsNaN(t) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i + 1), Y: t})
	}
	if len(pts) == 0 {
		return errors.New("no tour was found, nothing to plot")
	}

	p := plot.New()
	p.Title.Text = "Best tour time"
	p.X.Label.Text = "ordering"
	p.Y.Label.Text = "time"

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	p.Add(line, points, plotter.NewGrid())

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
