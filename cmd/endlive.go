package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bench-ai/workbench-go/internal/observability"
	"github.com/bench-ai/workbench-go/pkg/session"
)

// newEndLiveCmd signals a running live session to terminate by publishing the
// exit command into its command channel.
func newEndLiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end-live <session-id>",
		Short: "Terminate a running live session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := activeConfig()

			s, err := session.New(session.Config{
				ID:              args[0],
				Live:            true,
				SessionLifetime: cfg.Session.SessionLifetime,
				CommandLifetime: cfg.Session.CommandLifetime,
				SaveRoot:        cfg.Session.SaveRoot,
				PollInterval:    cfg.Session.PollInterval,
				Log:             observability.GetLogger(),
			})
			if err != nil {
				return err
			}

			started, err := s.Started()
			if err != nil {
				return err
			}
			if !started {
				return fmt.Errorf("session %s has not started", args[0])
			}

			if err := s.EndLive(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s signaled to exit\n", args[0])
			return nil
		},
	}
}
