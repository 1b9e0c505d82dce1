package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sfmovies/locations-service/pkg/client"
	"github.com/sfmovies/locations-service/pkg/types"
	"github.com/urfave/cli/v2"
)

var queryCmd = &cli.Command{
	Name:      "query",
	Usage:     "query a film locations server and print out the results",
	ArgsUsage: "<search|explore|popular|get|rate> [args...]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Aliases: []string{"u"},
			Value:   "http://localhost:9000",
			Usage:   "URL of the server to query.",
		},
		&cli.Uint64Flag{
			Name:  "increment",
			Value: 1,
			Usage: "rating increment used by rate",
		},
	},
	Action: func(cCtx *cli.Context) error {
		serviceURL, err := url.Parse(cCtx.String("url"))
		if err != nil {
			return fmt.Errorf("parsing service URL: %w", err)
		}
		c := client.New(*serviceURL)

		args := cCtx.Args().Slice()
		if len(args) == 0 {
			return errors.New("missing query kind")
		}
		ctx := cCtx.Context

		var out any
		switch args[0] {
		case "search":
			out, err = c.Search(ctx, strings.Join(args[1:], " "))
		case "explore":
			out, err = c.Random(ctx)
		case "popular":
			out, err = c.MostPopular(ctx)
		case "get", "rate":
			if len(args) != 2 {
				return fmt.Errorf("%s takes exactly one id", args[0])
			}
			var record types.Record
			if args[0] == "get" {
				record, err = c.Get(ctx, args[1])
			} else {
				record, err = c.IncreaseRating(ctx, args[1], cCtx.Uint64("increment"))
			}
			out = record
		default:
			return fmt.Errorf("unknown query kind: %s", args[0])
		}
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}
