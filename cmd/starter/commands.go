package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/webstack/starter/internal/config"
	"github.com/webstack/starter/internal/logging"
	"github.com/webstack/starter/internal/server"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

type cli struct {
	stdout    io.Writer
	stderr    io.Writer
	envFile   string
	noEnvFile bool
}

// run executes the CLI and maps the outcome to a process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case config.IsConfigurationError(err):
		c.reportConfigError(err)
		return exitConfig
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitFailure
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "starter",
		Short:         "Starter API service",
		Long:          "Starter API service with layered settings, structured request logs, metrics and tracing.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.serve,
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "local override file (ignored in production)")
	root.PersistentFlags().BoolVar(&c.noEnvFile, "no-env-file", false, "do not read the local override file")
	root.SetVersionTemplate("starter {{.Version}}\n")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			Args:  cobra.NoArgs,
			RunE:  c.serve,
		},
		c.settingsCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "starter %s (commit %s)\n", version, commit)
			},
		},
	)
	return root
}

func (c *cli) settingsCommand() *cobra.Command {
	var schema bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Validate the configuration and print the non-secret settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if schema {
				return enc.Encode(config.Fields())
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return enc.Encode(cfg.Redacted())
		},
	}
	cmd.Flags().BoolVar(&schema, "schema", false, "describe every setting instead")
	return cmd
}

func (c *cli) loadConfig() (*config.Config, error) {
	var opts []config.Option
	if c.noEnvFile {
		opts = append(opts, config.WithoutEnvFile())
	} else {
		opts = append(opts, config.WithEnvFile(c.envFile))
	}
	return config.Load(opts...)
}

func (c *cli) serve(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Service:     cfg.Observability.ServiceName,
		Version:     cfg.Version,
		Environment: string(cfg.Environment),
		Out:         c.stdout,
	})

	ctx := cmd.Context()
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build server")
		return err
	}
	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	return nil
}

// reportConfigError writes one structured line listing every problem, before
// any logger configured from the settings can exist.
func (c *cli) reportConfigError(err error) {
	var cerr *config.ConfigurationError
	if !errors.As(err, &cerr) {
		return
	}
	arr := zerolog.Arr()
	for _, p := range cerr.Problems {
		arr.Str(p.Error())
	}
	logger := zerolog.New(c.stderr).With().Timestamp().Logger()
	logger.Error().Array("problems", arr).Msg("Invalid configuration")
}
