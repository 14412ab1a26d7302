package motionplan

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/ptsp/world"
)

var corridorMap = []string{
	"##########################",
	"#__###_____####__#__###__#",
	"#__###__#___###__#__###__#",
	"#__###__#____##__#__###__#",
	"#__###__#__#__#__#_______#",
	"#__###__#__##____#__###__#",
	"#__###__#__###___#__###__#",
	"#_______#__####_____###__#",
	"##########################",
}

func corridorGrid(t *testing.T) *world.Grid {
	t.Helper()
	g, err := world.NewGrid(260, 90, corridorMap)
	test.That(t, err, test.ShouldBeNil)
	return g
}

func openGrid(t *testing.T) *world.Grid {
	t.Helper()
	rows := make([]string, 10)
	for i := range rows {
		rows[i] = "__________"
	}
	g, err := world.NewGrid(100, 100, rows)
	test.That(t, err, test.ShouldBeNil)
	return g
}

// checkTrajectory asserts cost consistency and re-simulates every sub-step against the grid.
func checkTrajectory(t *testing.T, grid *world.Grid, traj Trajectory) {
	t.Helper()
	test.That(t, traj[0].Cost, test.ShouldEqual, 0.)
	test.That(t, traj[0].Controls, test.ShouldBeNil)
	for i := 1; i < len(traj); i++ {
		prev, cur := traj[i-1], traj[i]
		test.That(t, cur.Controls, test.ShouldNotBeNil)
		test.That(t, cur.Cost, test.ShouldAlmostEqual, prev.Cost+cur.Controls.Duration)
		test.That(t, cur.Quality, test.ShouldAlmostEqual, cur.Cost+cur.Heuristic)

		dir, vel, pos := prev.Direction, prev.Velocity, prev.Position
		for tm := 0.; tm < cur.Controls.Duration; tm += propagationStep {
			dir = r2.Point{
				X: cosTurn(cur.Controls.Turn)*dir.X + sinTurn(cur.Controls.Turn)*dir.Y,
				Y: -sinTurn(cur.Controls.Turn)*dir.X + cosTurn(cur.Controls.Turn)*dir.Y,
			}
			vel = vel.Add(dir.Mul(cur.Controls.Acceleration)).Mul(friction)
			vel.X = min(vel.X, maxAxisVelocity)
			vel.Y = min(vel.Y, maxAxisVelocity)
			pos = pos.Add(vel)
			test.That(t, grid.Collides(pos), test.ShouldBeFalse)
		}
		test.That(t, pos.X, test.ShouldAlmostEqual, cur.Position.X)
		test.That(t, pos.Y, test.ShouldAlmostEqual, cur.Position.Y)
	}
}
