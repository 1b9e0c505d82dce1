package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sfmovies/locations-service/pkg/construct"
	"github.com/sfmovies/locations-service/pkg/feed"
	"github.com/urfave/cli/v2"
)

var ingestCmd = &cli.Command{
	Name:      "ingest",
	Usage:     "pull the open data feed, geocode new locations and add them to the catalog",
	ArgsUsage: "[dump.json]",
	Flags:     serviceFlags,
	Action: func(cCtx *cli.Context) error {
		var opts []construct.Option
		if path := cCtx.Args().First(); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening dump: %w", err)
			}
			records, err := feed.Decode(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("reading dump: %w", err)
			}
			opts = append(opts, construct.WithFeedSource(feed.Static(records)))
		}

		svc, err := construct.Construct(serviceConfig(cCtx), opts...)
		if err != nil {
			return err
		}
		defer svc.Shutdown(cCtx.Context)

		res, err := svc.Update(cCtx.Context)
		if err != nil {
			log.Errorw("ingestion aborted", "seen", res.Seen, "added", res.Added, "err", err)
			return err
		}
		return printJSON(res)
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
