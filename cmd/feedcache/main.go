package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "feedcache",
		Usage:          "time-windowed cache in front of upstream data feeds",
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "service config file",
				Sources: cli.NewValueSourceChain(cli.EnvVar("CACHE_CONFIG_FILE")),
				Value:   "/app/feedcache.yaml",
			},
			&cli.StringFlag{
				Name:    "resources",
				Aliases: []string{"r"},
				Usage:   "resource registry file",
				Sources: cli.NewValueSourceChain(cli.EnvVar("CACHE_RESOURCES_FILE")),
				Value:   "/app/resources.yaml",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			warmCommand(),
			tokenCommand(),
		},
	}
}
