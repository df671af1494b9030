// Command tasklet-replay drives the graph editor from a recorded YAML event script.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "tasklet-replay",
		Usage: "Replay host input scripts through cooperative tasklets",
		Commands: []*cli.Command{
			replayCommand(),
			validateCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
