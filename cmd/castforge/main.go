package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// main is the application entrypoint.
func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	appCtx := &appContext{
		logger: logger,
	}
	app := &cli.App{
		Name:  "castforge",
		Usage: "podcast release description toolkit",
		Commands: []*cli.Command{
			{
				Name:      "describe",
				Usage:     "renders the description of a release directory or name",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "the configuration path, defaults to config.toml",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "the release name, derived from the path when empty",
					},
				},
				Action: appCtx.handleDescribe,
			},
			{
				Name:  "serve",
				Usage: "launches the server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "the configuration path, defaults to config.toml",
						Value:   "config.toml",
					},
				},
				Action: appCtx.handleServe,
			},
			{
				Name:  "config",
				Usage: "generates an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "the configuration path, defaults to config.toml",
						Value:   "config.toml",
					},
				},
				Action: appCtx.handleConfig,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("failed to run cli", zap.Error(err))
	}
}
