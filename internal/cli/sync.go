package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treefold/treefold/internal/sink"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization cycle",
		Long: `Fold every pending change-log entry into the nested-set table in a
single transaction. A cycle with invalid coordinates or an invalid
projected forest is skipped without touching the table.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
	return cmd
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	task, err := sink.Open(cfg, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open sink", err)
	}
	defer task.Close()

	res, err := task.Sync(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "synchronization failed", err)
	}

	var text string
	switch {
	case res.Skipped != "":
		text = fmt.Sprintf("Skipped: %s (%d pending)", res.Skipped, res.Pending)
	case !res.Applied:
		text = "Nothing to synchronize"
	default:
		text = fmt.Sprintf("Applied %d inserts, %d updates, %d deletes (offset %d)",
			res.Inserts, res.Updates, res.Deletes, res.Offset)
	}
	return printResult(cmd.OutOrStdout(), opts.Format, text, res)
}
