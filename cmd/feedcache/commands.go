package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"go-feed-cache/internal/auth"
	"go-feed-cache/internal/config"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP server and periodic warmers",
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	root, err := NewCompositionRoot(cmd.String("config"), cmd.String("resources"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if err := root.Cleanup(); err != nil {
			root.Logger.Error("Failed to cleanup resources", zap.Error(err))
		}
	}()

	root.StartWarmers()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- root.HTTPServer.Start()
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-ctx.Done():
		root.Logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), root.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := root.HTTPServer.Stop(shutdownCtx); err != nil {
		root.Logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	root.Logger.Info("Server exited")
	return nil
}

func warmCommand() *cli.Command {
	return &cli.Command{
		Name:      "warm",
		Usage:     "recompute resources once and exit",
		ArgsUsage: "[resource...]",
		Action:    warmAction,
	}
}

func warmAction(ctx context.Context, cmd *cli.Command) error {
	root, err := NewCompositionRoot(cmd.String("config"), cmd.String("resources"))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() { _ = root.Cleanup() }()

	names := cmd.Args().Slice()
	if len(names) == 0 {
		names = root.Service.Resources()
	}

	var errs []error
	for _, name := range names {
		start := time.Now()
		if err := root.Service.Warm(ctx, name); err != nil {
			root.Logger.Error("Warm failed", zap.String("resource", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		root.Logger.Info("Warmed resource", zap.String("resource", name), zap.Duration("elapsed", time.Since(start)))
	}
	return errors.Join(errs...)
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint a bearer token for the debug and refresh endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "subject",
				Usage: "token subject",
				Value: "operator",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: tokenAction,
	}
}

func tokenAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig(cmd.String("config"), zap.NewNop())
	if err != nil {
		return err
	}

	token, exp, err := auth.Generate(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cmd.String("subject"), cmd.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "%s\n# expires %s\n", token, exp.UTC().Format(time.RFC3339))
	return err
}
