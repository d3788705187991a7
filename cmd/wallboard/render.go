package main

import (
	"context"
	"fmt"

	"github.com/infracollect/wallboard/internal/runner"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var renderCommand = &cli.Command{
	Name:  "render",
	Usage: "Collect widgets and render the dashboard image",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   runner.DefaultConfigPath,
			Usage:   "Configuration file",
		},
		&cli.StringFlag{
			Name:  "renderer",
			Usage: "Override renderer.kind from the config (raster, pillow, browser, web)",
		},
		&cli.BoolFlag{
			Name:  "no-set",
			Usage: "Do not install the image as the GNOME wallpaper",
		},
		&cli.DurationFlag{
			Name:  "every",
			Usage: "Render repeatedly at this interval until interrupted",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		configPath := command.String("config")
		logger = logger.With(zap.String("config", configPath))

		cfg, err := runner.LoadConfig(afero.NewOsFs(), configPath, runner.NewExpander())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", formatValidationError(err))
		}

		var opts []runner.Option
		if kind := command.String("renderer"); kind != "" {
			opts = append(opts, runner.WithRendererKind(kind))
		}
		if command.Bool("no-set") {
			opts = append(opts, runner.WithoutWallpaper())
		}

		r, err := runner.New(logger.Named("runner"), cfg, opts...)
		if err != nil {
			return fmt.Errorf("failed to create runner: %w", err)
		}

		if every := command.Duration("every"); every > 0 {
			return r.RunEvery(ctx, every)
		}

		path, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}

		if isInteractive(ctx) {
			fmt.Printf("✓ Wrote %s\n", path)
		}
		return nil
	},
}
