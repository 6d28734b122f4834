package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/batchkit/internal/config"
	"github.com/rshade/batchkit/internal/logging"
)

// app is the state shared by the command tree for one invocation.
type app struct {
	lookupEnv func(string) (string, bool)
	cfg       *config.Config
	logger    zerolog.Logger
	logResult *logging.LogPathResult
}

// NewRootCmd creates the root Cobra command for the batchkit CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithEnv(ver, os.LookupEnv)
}

// NewRootCmdWithEnv creates the root command with an explicit environment
// lookup for testability.
func NewRootCmdWithEnv(ver string, lookupEnv func(string) (string, bool)) *cobra.Command {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	a := &app{lookupEnv: lookupEnv, logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "batchkit",
		Short:         "Fault-isolating batch runner",
		Long:          "batchkit applies a transform to every item of an input file, isolates failing items, and reports them by position.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.cleanup(cmd)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default $BATCHKIT_CONFIG or ~/.batchkit/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "",
		"directory holding a .batchkit.yaml overlay (default: nearest one above the working directory)")
	cmd.AddCommand(newRunCmd(a), newTransformsCmd(), newConfigCmd(a))

	return cmd
}

const rootCmdExample = `  # Divide every number in a JSON array by 5, keeping failures in place
  batchkit run --input numbers.json --format json --transform divide --arg 5

  # Parse a text file line by line with 8 workers, dropping bad lines
  batchkit run --input values.txt --transform parse-int --mode skip --workers 8

  # Write the failed subset for a second pass
  batchkit run --input values.txt --transform parse-int --failed-out retry.json

  # List built-in transforms
  batchkit transforms

  # Validate the effective configuration
  batchkit config validate`

// setup loads configuration and installs the logger on the command context.
func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	projectDir, _ := cmd.Flags().GetString("project-dir")
	cwd, _ := os.Getwd()
	projectFile := config.ResolveProjectFile(projectDir, cwd, a.lookupEnv)

	cfg, err := config.LoadWithProject(path, projectFile, a.lookupEnv)
	if err != nil {
		return err
	}
	a.cfg = cfg

	result := setupLogging(cmd, cfg)
	a.logResult = &result
	a.logger = logging.ComponentLogger(result.Logger, "cli")

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = result.Logger.WithContext(ctx)
	cmd.SetContext(ctx)

	a.logger.Debug().
		Str("trace_id", traceID).
		Str("command", cmd.Name()).
		Str("project_file", projectFile).
		Msg("command started")
	return nil
}

func (a *app) cleanup(_ *cobra.Command) error {
	if a.logResult != nil {
		return a.logResult.Close()
	}
	return nil
}
