package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "relmap"
	app.Usage = "inspect and maintain the brand, employee, street and master graphs"

	confFlag := cli.StringFlag{
		Name:   "config, c",
		Usage:  "Path to yaml config",
		EnvVar: "RELMAP_CONFIG",
	}
	app.Flags = []cli.Flag{confFlag}

	entityUsage := fmt.Sprintf("<entity> (one of %s)", entityNames())

	app.Commands = []cli.Command{
		{
			Name:   "ping",
			Usage:  "Check the database and, when enabled, the cache",
			Action: run(ping),
		},
		{
			Name:      "list",
			Usage:     "Print every entity of a kind with its related entities",
			ArgsUsage: entityUsage,
			Action:    run(list),
		},
		{
			Name:      "get",
			Usage:     "Print one entity with its related entities",
			ArgsUsage: entityUsage + " <id>",
			Action:    run(get),
		},
		{
			Name:      "related",
			Usage:     "Print the entities related to one entity",
			ArgsUsage: entityUsage + " <id>",
			Action:    run(related),
		},
		{
			Name:      "delete",
			Usage:     "Delete one entity, or every entity of a kind with --all",
			ArgsUsage: entityUsage + " [<id>]",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "all", Usage: "delete every entity of the kind"},
			},
			Action: run(remove),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
