package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/infracollect/wallboard/internal/render"
	"github.com/infracollect/wallboard/internal/runner"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a configuration file",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "config",
			UsageText: "The configuration file to validate",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		configPath := command.StringArg("config")
		if configPath == "" {
			configPath = runner.DefaultConfigPath
		}

		logger = logger.With(zap.String("config", configPath))
		logger.Debug("validating config file")

		cfg, err := runner.LoadConfig(afero.NewOsFs(), configPath, runner.NewExpander())
		if err != nil {
			fmt.Println(formatValidationError(err))
			return fmt.Errorf("config file '%s' is invalid", configPath)
		}

		if _, err := render.ThemeFromSpec(cfg.Theme); err != nil {
			fmt.Println(err)
			return fmt.Errorf("config file '%s' is invalid", configPath)
		}

		fmt.Printf("✓ Config file '%s' is valid\n", configPath)
		return nil
	},
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("config file has %d validation error(s):", len(validationErrs)))
		for _, fe := range validationErrs {
			sb.WriteString(fmt.Sprintf("\n  • %s: failed '%s' validation", fe.Namespace(), fe.Tag()))
			if fe.Param() != "" {
				sb.WriteString(fmt.Sprintf(" (param: %s)", fe.Param()))
			}
		}
		return errors.New(sb.String())
	}
	return err
}
