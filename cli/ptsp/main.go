// Package main is the ptsp command itself.
package main

import (
	"os"

	"go.viam.com/ptsp/cli"
	"go.viam.com/ptsp/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("ptsp").Error(err)
		os.Exit(1)
	}
}
