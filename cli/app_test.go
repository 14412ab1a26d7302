package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/ptsp/config"
	"go.viam.com/ptsp/motionplan"
)

const openProblem = `WORLD_DIMENSIONS: 100 100
NUM_WAYPOINTS: 1
INITIAL_DIR: 0
INITIAL_POS: 50 50
MAP
__________
__________
__________
__________
__________
__________
__________
__________
__________
__________
WAYPOINTS
1	62 50 3
`

func writeProblem(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "open.txt")
	test.That(t, os.WriteFile(path, []byte(openProblem), 0o600), test.ShouldBeNil)
	return path
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	err := NewApp(out, errOut).Run(append([]string{"ptsp"}, args...))
	return out.String(), errOut.String(), err
}

func readControls(t *testing.T, path string) []motionplan.ControlRecord {
	t.Helper()
	//nolint:gosec
	f, err := os.Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	records, err := motionplan.ReadControls(f)
	test.That(t, err, test.ShouldBeNil)
	return records
}

func TestDIRTAndReplay(t *testing.T) {
	problem := writeProblem(t)
	dir := t.TempDir()
	controls := filepath.Join(dir, "controls.txt")
	tree := filepath.Join(dir, "tree.txt")
	image := filepath.Join(dir, "tree.png")

	out, _, err := runApp(t, "dirt",
		"--iterations", "3000", "--seed", "7",
		"--controls", controls, "--tree", tree, "--image", image,
		problem)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "solution time")

	records := readControls(t, controls)
	test.That(t, len(records), test.ShouldBeGreaterThan, 0)
	test.That(t, records[len(records)-1].WaypointHit, test.ShouldEqual, 1)

	treeOut, err := os.ReadFile(tree)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(treeOut), test.ShouldStartWith, "TREE_NODES")
	_, err = os.Stat(image)
	test.That(t, err, test.ShouldBeNil)

	states := filepath.Join(dir, "states.txt")
	out, errOut, err := runApp(t, "replay", "--states", states, problem, controls)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "waypoints reached: 1")
	test.That(t, errOut, test.ShouldNotContainSubstring, "Warning")
	statesOut, err := os.ReadFile(states)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Split(string(statesOut), "\n")[0], test.ShouldEqual, strconv.Itoa(len(records)+1))
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	return string(content)
}

func TestReplayRejectsBadMarks(t *testing.T) {
	problem := writeProblem(t)
	controls := filepath.Join(t.TempDir(), "controls.txt")
	test.That(t, os.WriteFile(controls, []byte("1\n0 0.05 0.5 1\n"), 0o600), test.ShouldBeNil)

	_, _, err := runApp(t, "replay", problem, controls)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "away from waypoint 1")

	test.That(t, os.WriteFile(controls, []byte("1\n0 0.05 0.5 0\n"), 0o600), test.ShouldBeNil)
	_, errOut, err := runApp(t, "replay", problem, controls)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "only 0 of 1 waypoints")
}

func TestSolve(t *testing.T) {
	problem := writeProblem(t)
	dir := t.TempDir()
	controls := filepath.Join(dir, "controls.txt")
	plot := filepath.Join(dir, "convergence.png")

	out, _, err := runApp(t, "solve",
		"--iterations", "3000", "--seed", "7",
		"--controls", controls, "--plot", plot,
		problem)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "0 -> 1")

	records := readControls(t, controls)
	test.That(t, records[len(records)-1].WaypointHit, test.ShouldEqual, 1)
	_, err = os.Stat(plot)
	test.That(t, err, test.ShouldBeNil)

	// The result row goes next to the problem file by default.
	csvOut := mustRead(t, strings.TrimSuffix(problem, ".txt")+".csv")
	lines := strings.Split(strings.TrimSpace(csvOut), "\n")
	test.That(t, len(lines), test.ShouldEqual, 2)
	test.That(t, lines[0], test.ShouldStartWith, "Solution Cost,")
}

func TestArgumentErrors(t *testing.T) {
	_, _, err := runApp(t, "solve")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 1 arguments")

	_, _, err = runApp(t, "dirt", filepath.Join(t.TempDir(), "missing.txt"))
	test.That(t, err, test.ShouldNotBeNil)

	problem := writeProblem(t)
	_, _, err = runApp(t, "dirt", "--waypoint", "2", problem)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "waypoint must be between 1 and 1")

	config := filepath.Join(t.TempDir(), "planner.json")
	test.That(t, os.WriteFile(config, []byte(`{"plan_iterations": 10}`), 0o600), test.ShouldBeNil)
	_, _, err = runApp(t, "dirt", "--config", config, problem)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "problems")
	out, _, err := runApp(t, "generate", "--count", "3", "--seed", "5", "--dir", dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Count(out, "waypoints"), test.ShouldEqual, 3)

	for i := 0; i < 3; i++ {
		prob, err := config.ReadProblem(filepath.Join(dir, fmt.Sprintf("problem%d.txt", i)))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(prob.Waypoints), test.ShouldBeGreaterThan, 0)
	}

	// The same seed writes the same problems.
	again := filepath.Join(t.TempDir(), "again")
	_, _, err = runApp(t, "generate", "--count", "3", "--seed", "5", "--dir", again)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mustRead(t, filepath.Join(again, "problem2.txt")), test.ShouldEqual, mustRead(t, filepath.Join(dir, "problem2.txt")))

	_, _, err = runApp(t, "generate", "--count", "0", "--dir", dir)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "count must be positive")
}

func TestLogFlags(t *testing.T) {
	problem := writeProblem(t)

	_, _, err := runApp(t, "--log-level", "loud", "dirt", problem)
	test.That(t, err, test.ShouldNotBeNil)

	_, errOut, err := runApp(t, "solve", "--iterations", "3000", "--seed", "7", "--csv", filepath.Join(t.TempDir(), "a.csv"), problem)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "new best tour")
	test.That(t, errOut, test.ShouldNotContainSubstring, "DIRT run 1/")

	_, errOut, err = runApp(t, "--debug", "solve", "--iterations", "3000", "--seed", "7", "--csv", filepath.Join(t.TempDir(), "b.csv"), problem)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "DIRT run 1/")

	_, errOut, err = runApp(t, "--log-level", "error", "solve", "--iterations", "3000", "--seed", "7", "--csv", filepath.Join(t.TempDir(), "c.csv"), problem)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldNotContainSubstring, "new best tour")
}

func TestImageScaleIsClamped(t *testing.T) {
	problem := writeProblem(t)
	image := filepath.Join(t.TempDir(), "tree.png")
	_, errOut, err := runApp(t, "dirt", "--iterations", "3000", "--seed", "7", "--image", image, "--image-scale", "1e6", problem)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "too large for this world")
	_, err = os.Stat(image)
	test.That(t, err, test.ShouldBeNil)
}
