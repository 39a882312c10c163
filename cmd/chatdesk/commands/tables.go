// ABOUTME: Tables command listing what the sql mode can query
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTablesCmd creates the tables command
func NewTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List database tables available to sql mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			tables, err := a.client.Tables(cmd.Context())
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), map[string]any{"tables": tables})
			}
			if len(tables) == 0 {
				if !quiet {
					fmt.Fprintln(cmd.OutOrStdout(), "No tables found")
				}
				return nil
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}
