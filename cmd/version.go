package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bench-ai/workbench-go/internal/observability"
	"github.com/bench-ai/workbench-go/pkg/conduit"
)

// Version is the client version, set at build time via ldflags:
// go build -ldflags "-X github.com/bench-ai/workbench-go/cmd.Version=1.0.0"
var Version = "0.1.0"

// newVersionCmd reports the external agent's version, verifying the
// executable on the configured path actually is the agent.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the external agent's version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := activeConfig()
			c := conduit.New(cfg.Agent, observability.GetLogger())

			agentVersion, err := c.Version(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "client: %s\nagent: %s\n", Version, agentVersion)
			return nil
		},
	}
}
