package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bench-ai/workbench-go/internal/observability"
	"github.com/bench-ai/workbench-go/pkg/conduit"
	"github.com/bench-ai/workbench-go/pkg/session"
)

// newRunCmd dispatches a persisted run document to the agent in batch mode.
func newRunCmd() *cobra.Command {
	var (
		useBase64 bool
		useHTTP   bool
	)

	runCmd := &cobra.Command{
		Use:   "run <config.json>",
		Short: "Execute a run document through the agent",
		Long: `Loads a run document, validates it against the client's command and
operation schemas, and dispatches it to the agent. By default the document is
handed to the agent executable; --http posts it to the configured base URL
instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := activeConfig()
			logger := observability.GetLogger()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading run document: %w", err)
			}

			// Round-trip through the session loader so malformed documents
			// fail here instead of inside the agent.
			s, err := session.Load(data, session.Config{
				SessionLifetime: cfg.Session.SessionLifetime,
				CommandLifetime: cfg.Session.CommandLifetime,
				SaveRoot:        cfg.Session.SaveRoot,
				Log:             logger,
			})
			if err != nil {
				return err
			}
			doc, err := s.Doc()
			if err != nil {
				return err
			}

			var out string
			switch {
			case useHTTP:
				if cfg.Agent.BaseURL == "" {
					return fmt.Errorf("--http requires agent.base_url to be configured")
				}
				out, err = conduit.NewHTTP(cfg.Agent, logger).Run(cmd.Context(), doc)
			case useBase64:
				out, err = conduit.New(cfg.Agent, logger).RunBase64(cmd.Context(), doc)
			default:
				out, err = conduit.New(cfg.Agent, logger).Run(cmd.Context(), doc)
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	runCmd.Flags().BoolVar(&useBase64, "base64", false, "inline the document as a base64 argument instead of a temp file")
	runCmd.Flags().BoolVar(&useHTTP, "http", false, "dispatch over HTTP to agent.base_url")
	return runCmd
}
