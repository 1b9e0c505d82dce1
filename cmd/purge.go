package main

import (
	"errors"
	"fmt"

	"github.com/sfmovies/locations-service/pkg/construct"
	"github.com/urfave/cli/v2"
)

var purgeCmd = &cli.Command{
	Name:      "purge",
	Usage:     "remove records from the catalog",
	ArgsUsage: "[id...]",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "all",
			Usage: "remove the whole catalog",
		},
	}, serviceFlags...),
	Action: func(cCtx *cli.Context) error {
		ids := cCtx.Args().Slice()
		if !cCtx.Bool("all") && len(ids) == 0 {
			return errors.New("missing ids to remove, or --all")
		}

		svc, err := construct.Construct(serviceConfig(cCtx))
		if err != nil {
			return err
		}
		defer svc.Shutdown(cCtx.Context)

		if cCtx.Bool("all") {
			return svc.RemoveAll(cCtx.Context)
		}
		for _, id := range ids {
			if err := svc.Remove(cCtx.Context, id); err != nil {
				return fmt.Errorf("removing %s: %w", id, err)
			}
		}
		return nil
	},
}
