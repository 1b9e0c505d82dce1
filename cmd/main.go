package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("cmd")

func main() {
	app := &cli.App{
		Name:  "locations",
		Usage: "Manage the San Francisco film locations service.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
				Usage:   "log level for every subsystem",
			},
		},
		Before: func(cCtx *cli.Context) error {
			return logging.SetLogLevel("*", cCtx.String("log-level"))
		},
		Commands: []*cli.Command{
			serverCmd,
			ingestCmd,
			purgeCmd,
			queryCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
