package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bench-ai/workbench-go/internal/observability"
	"github.com/bench-ai/workbench-go/pkg/conduit"
)

// newSessionCmd groups the agent's stored-session management surface.
func newSessionCmd() *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the agent's stored sessions",
	}
	sessionCmd.AddCommand(newSessionLsCmd(), newSessionRmCmd())
	return sessionCmd
}

func newSessionLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List stored session ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := conduit.New(activeConfig().Agent, observability.GetLogger())

			ids, err := c.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no stored sessions")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newSessionRmCmd() *cobra.Command {
	var removeAll bool

	rmCmd := &cobra.Command{
		Use:   "rm [session-id]",
		Short: "Remove one stored session, or all of them with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := conduit.New(activeConfig().Agent, observability.GetLogger())

			if removeAll {
				if len(args) != 0 {
					return fmt.Errorf("--all does not take a session id")
				}
				return c.RemoveAll(cmd.Context())
			}
			if len(args) == 0 {
				return fmt.Errorf("a session id or --all is required")
			}
			return c.RemoveSession(cmd.Context(), args[0])
		},
	}

	rmCmd.Flags().BoolVar(&removeAll, "all", false, "remove every stored session")
	return rmCmd
}
