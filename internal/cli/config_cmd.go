package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect batchkit configuration",
	}
	cmd.AddCommand(newConfigValidateCmd(a), newConfigShowCmd(a))
	return cmd
}

// newConfigValidateCmd creates the config validate command.
func newConfigValidateCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Long: `Loads the configuration file (--config, $BATCHKIT_CONFIG or ~/.batchkit/config.yaml),
applies BATCHKIT_* environment overrides and checks every setting:

- run.mode is skip or diagnose
- run.workers, run.bar_width and run.item_timeout are not negative
- run.chunk_size is within bounds
- run.progress is auto, bar, tui or none
- logging.level and logging.format are recognized
- requires, when set, is satisfied by this binary's version`,
		Example: `  # Validate current configuration
  batchkit config validate

  # Validate a specific file and show the effective values
  batchkit config validate --config ./batchkit.yaml --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			cmd.Println("Configuration is valid")
			if verbose {
				printConfigDetails(cmd, a)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	return cmd
}

func printConfigDetails(cmd *cobra.Command, a *app) {
	cfg := a.cfg
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Mode: %s\n", cfg.Run.Mode)
	cmd.Printf("  Workers: %d\n", cfg.Run.Workers)
	cmd.Printf("  Chunk size: %d\n", cfg.Run.ChunkSize)
	cmd.Printf("  Progress: %s\n", cfg.Run.Progress)
	if cfg.Run.ItemTimeout > 0 {
		cmd.Printf("  Item timeout: %s\n", cfg.Run.ItemTimeout)
	}
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	}
	if cfg.Requires != "" {
		cmd.Printf("  Requires: %s\n", cfg.Requires)
	}
}

// newConfigShowCmd prints the effective configuration as YAML.
func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
