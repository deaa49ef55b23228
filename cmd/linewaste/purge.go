package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove corrupt sentinel rows from the record store",
	Long: `Remove rows whose machine, variant and defect type all hold the sentinel
value. Such rows cannot be mapped back to any entry and are ignored by every
aggregate; this command deletes them from the store for good.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		removed, err := a.Entries.PurgeCorrupt(cmd.Context())
		if err != nil {
			return err
		}
		if removed == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No corrupt rows found.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d corrupt row(s).\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
