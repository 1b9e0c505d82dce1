package main

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sfmovies/locations-service/pkg/construct"
	"github.com/sfmovies/locations-service/pkg/server"
	"github.com/sfmovies/locations-service/pkg/telemetry"
	"github.com/urfave/cli/v2"
)

var serverCmd = &cli.Command{
	Name:  "server",
	Usage: "HTTP server interface to the film locations service",
	Subcommands: []*cli.Command{
		{
			Name:  "start",
			Usage: "start a film locations HTTP server",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:    "port",
					Aliases: []string{"p"},
					EnvVars: []string{"PORT"},
					Value:   9000,
					Usage:   "port to bind the server to",
				},
				&cli.StringFlag{
					Name:    "sentry-dsn",
					EnvVars: []string{"SENTRY_DSN"},
					Usage:   "report server errors to this Sentry project",
				},
				&cli.StringFlag{
					Name:    "sentry-environment",
					EnvVars: []string{"SENTRY_ENVIRONMENT"},
					Value:   "development",
					Usage:   "environment reported to Sentry",
				},
			}, serviceFlags...),
			Action: func(cCtx *cli.Context) error {
				addr := fmt.Sprintf(":%d", cCtx.Int("port"))
				var opts []server.Option

				shutdownTelemetry, err := telemetry.SetupClientTelemetry(cCtx.Context, "locations-service")
				if err != nil {
					return fmt.Errorf("setting up telemetry: %w", err)
				}
				defer shutdownTelemetry(cCtx.Context)

				if dsn := cCtx.String("sentry-dsn"); dsn != "" {
					err := sentry.Init(sentry.ClientOptions{
						Dsn:         dsn,
						Environment: cCtx.String("sentry-environment"),
					})
					if err != nil {
						return fmt.Errorf("initializing sentry: %w", err)
					}
					opts = append(opts, server.WithErrorLogger(telemetry.NewSentryLogger("server")))
				}

				svc, err := construct.Construct(serviceConfig(cCtx))
				if err != nil {
					return err
				}
				defer func() {
					svc.Shutdown(cCtx.Context)
				}()
				return server.ListenAndServe(addr, svc, opts...)
			},
		},
	},
}
