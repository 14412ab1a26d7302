// Package cli contains the ptsp command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	debugFlag         = "debug"
	logLevelFlag      = "log-level"
	configFlag        = "config"
	seedFlag          = "seed"
	iterationsFlag    = "iterations"
	edgesFlag         = "edges"
	timeoutFlag       = "timeout"
	nodeLimitFlag     = "node-limit"
	orderingsFlag     = "orderings"
	workersFlag       = "workers"
	waypointFlag      = "waypoint"
	fullGoalCheckFlag = "full-goal-check"
	stopAtFirstFlag   = "stop-at-first"
	controlsOutFlag   = "controls"
	statesOutFlag     = "states"
	treeOutFlag       = "tree"
	csvOutFlag        = "csv"
	imageOutFlag      = "image"
	plotOutFlag       = "plot"
	imageScaleFlag    = "image-scale"
	countFlag         = "count"
	dirFlag           = "dir"

	defaultControlsOut = "controls.txt"
)

// legFlags are shared by the commands that run DIRT.
func legFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "load planner options from JSON `FILE`",
		},
		&cli.IntFlag{
			Name:  iterationsFlag,
			Usage: "DIRT iterations per planning call",
		},
		&cli.IntFlag{
			Name:  edgesFlag,
			Usage: "edge candidates generated when a state is first expanded",
		},
		&cli.IntFlag{
			Name:  seedFlag,
			Usage: "random seed",
		},
		&cli.Float64Flag{
			Name:  timeoutFlag,
			Usage: "give up after this many seconds and keep the best result",
		},
		&cli.StringFlag{
			Name:  controlsOutFlag,
			Value: defaultControlsOut,
			Usage: "write the controls of the result to `FILE`",
		},
		&cli.StringFlag{
			Name:  statesOutFlag,
			Usage: "write the states of the result to `FILE`",
		},
		&cli.StringFlag{
			Name:  imageOutFlag,
			Usage: "render the result as a PNG to `FILE`",
		},
		&cli.Float64Flag{
			Name:  imageScaleFlag,
			Value: 4,
			Usage: "pixels per world unit of rendered images",
		},
	}
}

var app = &cli.App{
	Name:            "ptsp",
	Usage:           "plan fast vehicle tours through waypoints",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "log planner progress regardless of the log level",
		},
		&cli.StringFlag{
			Name:  logLevelFlag,
			Value: "info",
			Usage: "minimum level logged, one of debug, info, warn or error",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "solve",
			Usage:     "plan a tour visiting every waypoint of a problem",
			ArgsUsage: "<problem file>",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  nodeLimitFlag,
					Usage: "search nodes the waypoint ordering solver may visit per ordering",
				},
				&cli.IntFlag{
					Name:  orderingsFlag,
					Usage: "number of waypoint orderings to try",
				},
				&cli.IntFlag{
					Name:  workersFlag,
					Usage: "number of independent workers",
				},
				&cli.StringFlag{
					Name:  csvOutFlag,
					Usage: "append a result row to `FILE`, defaults to the problem name with a .csv extension",
				},
				&cli.StringFlag{
					Name:  plotOutFlag,
					Usage: "plot the best tour time per ordering as a PNG to `FILE`",
				},
			}, legFlags()...),
			Action: SolveAction,
		},
		{
			Name:      "dirt",
			Usage:     "run DIRT once from the start to a single waypoint",
			ArgsUsage: "<problem file>",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  waypointFlag,
					Value: 1,
					Usage: "waypoint to plan to",
				},
				&cli.BoolFlag{
					Name:  fullGoalCheckFlag,
					Usage: "also require the initial heading and a standstill at the waypoint",
				},
				&cli.BoolFlag{
					Name:  stopAtFirstFlag,
					Usage: "stop at the first solution instead of improving it",
				},
				&cli.StringFlag{
					Name:  treeOutFlag,
					Usage: "write the final search tree to `FILE`",
				},
			}, legFlags()...),
			Action: DIRTAction,
		},
		{
			Name:      "replay",
			Usage:     "re-simulate a controls file and check it against a problem",
			ArgsUsage: "<problem file> <controls file>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  statesOutFlag,
					Usage: "write the replayed states to `FILE`",
				},
				&cli.StringFlag{
					Name:  imageOutFlag,
					Usage: "render the replayed trajectory as a PNG to `FILE`",
				},
				&cli.Float64Flag{
					Name:  imageScaleFlag,
					Value: 4,
					Usage: "pixels per world unit of rendered images",
				},
			},
			Action: ReplayAction,
		},
		{
			Name:  "generate",
			Usage: "write random problems whose waypoints are all reachable from the start",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  countFlag,
					Value: 1,
					Usage: "number of problems to write",
				},
				&cli.StringFlag{
					Name:  dirFlag,
					Value: ".",
					Usage: "write the problems into `DIR`",
				},
				&cli.IntFlag{
					Name:  seedFlag,
					Usage: "random seed",
				},
				&cli.StringFlag{
					Name:    configFlag,
					Aliases: []string{"c"},
					Usage:   "load generator options from JSON `FILE`",
				},
			},
			Action: GenerateAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
