// Package cmd wires the workbench CLI: building run documents, dispatching
// them to the benchai agent, and managing stored sessions.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bench-ai/workbench-go/internal/config"
	"github.com/bench-ai/workbench-go/internal/observability"
)

// appConfig is resolved once in PersistentPreRunE and read by subcommands.
var appConfig *config.Config

// activeConfig returns the resolved configuration, falling back to defaults
// when a command runs outside the root PersistentPreRunE (tests).
func activeConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	return config.NewDefaultConfig()
}

// NewRootCommand builds a fresh root command tree. Each invocation gets its
// own flag state.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "workbench",
		Short:         "Workbench builds browser and LLM workloads and dispatches them to the benchai agent.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "workbench",
				})
				return fmt.Errorf("loading configuration: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			appConfig = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./workbench.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newRunCmd(),
		newVersionCmd(),
		newSessionCmd(),
		newEndLiveCmd(),
	)
	return rootCmd
}

// Execute runs the CLI under the given signal-aware context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}
