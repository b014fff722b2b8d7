package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/graphparity/internal/report"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the parity report",
		Long: `Print the JSON Schema describing the report written by check.

Example:
  graphparity schema > resolver-parity-report.schema.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			data, err := report.MarshalSchema()
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeGeneric, "render schema", err)
			}
			if formatter.JSON() {
				return formatter.Success(json.RawMessage(data))
			}
			fmt.Fprintln(formatter.Writer, string(data))
			return nil
		},
	}
}
