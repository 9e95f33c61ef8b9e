// Command threadbench exercises the threading runtime with scripted
// scenarios: scripted thread lifecycles from a YAML file and a semaphore
// ping-pong benchmark, optionally exporting Prometheus metrics while it runs.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "threadbench",
		Usage: "Exercise the threading runtime with scripted scenarios",
		Commands: []*cli.Command{
			runCommand(),
			pingpongCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
