package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treefold/treefold/internal/sink"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	PayloadColumns []string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the destination, log, and offset tables",
		Long: `Create the nested-set table, its change-log table, and the offset table
for the configured destination. Existing tables are left untouched.

Payload columns beyond the node id and coordinates are declared with
--payload-column, one name:TYPE pair per flag:

  treefold init --payload-column name:TEXT --payload-column rank:BIGINT`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.PayloadColumns, "payload-column", nil,
		"payload column as name:TYPE (repeatable)")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	// Schema creation is the whole point of this command.
	cfg.AutoCreate = true

	payload, err := parsePayloadColumns(opts.PayloadColumns)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --payload-column", err)
	}

	task, err := sink.Open(cfg, payload)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize sink tables", err)
	}
	defer task.Close()

	text := fmt.Sprintf("Initialized tables %s, %s, %s", cfg.Table.Name, cfg.Log.Table, cfg.Offset.Table)
	return printResult(cmd.OutOrStdout(), opts.Format, text, map[string]any{
		"table":        cfg.Table.Name,
		"log_table":    cfg.Log.Table,
		"offset_table": cfg.Offset.Table,
	})
}

// parsePayloadColumns splits repeated name:TYPE flags into column
// definitions.
func parsePayloadColumns(specs []string) ([]sink.Column, error) {
	columns := make([]sink.Column, 0, len(specs))
	for _, spec := range specs {
		name, sqlType, ok := strings.Cut(spec, ":")
		if !ok || name == "" || sqlType == "" {
			return nil, fmt.Errorf("expected name:TYPE, got %q", spec)
		}
		columns = append(columns, sink.Column{Name: name, Type: sqlType})
	}
	return columns, nil
}
