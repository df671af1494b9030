package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Swind/go-tasklet/host"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check an event script without running it",
		ArgsUsage: "SCRIPT",
		Action:    validateAction,
	}
}

func validateAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("validate takes exactly one script path", 1)
	}

	script, err := host.LoadScriptFile(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid script: %v", err), 1)
	}

	fmt.Printf("✓ %d events\n", len(script.Events))
	return nil
}
