package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treefold/treefold/internal/sink"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show the committed offset and pending backlog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	task, err := sink.Open(cfg, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open sink", err)
	}
	defer task.Close()

	st, err := task.Status(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read sink status", err)
	}

	text := fmt.Sprintf("log_table=%s offset=%d pending=%d", cfg.Log.Table, st.Offset, st.Pending)
	return printResult(cmd.OutOrStdout(), opts.Format, text, map[string]any{
		"log_table": cfg.Log.Table,
		"offset":    st.Offset,
		"pending":   st.Pending,
	})
}
