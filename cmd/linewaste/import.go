package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"linewaste/internal/importer"
)

var importClear bool

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Merge observation rows from an Excel workbook into the record store",
	Long: `Read every sheet whose header carries a date and a defect type column
(canonical or legacy Indonesian names) and merge its rows into the record store.
Rows sharing the (date, shift, machine, variant, defect type) key replace the
stored row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		coord := importer.NewCoordinator(a.Repo, a.Logger.Named("import"))
		report, err := importer.Drain(coord.Import(cmd.Context(), importer.ImportOptions{
			FilePath:      args[0],
			ClearExisting: importClear,
		}), func(evt importer.ProgressEvent) {
			switch evt.Type {
			case "sheet_done", "sheet_skipped":
				fmt.Fprintf(cmd.ErrOrStderr(), "%-14s %s\n", evt.Type, evt.Message)
			}
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s row(s); store now holds %s row(s).\n",
			humanize.Comma(int64(report.Imported)), humanize.Comma(int64(report.StoreRows)))
		if report.Diagnostics.HasIssues() {
			fmt.Fprintf(cmd.OutOrStdout(), "Warnings: %d row(s) with bad dates, %d corrupt row(s), %d unparseable cell(s).\n",
				report.Diagnostics.DroppedBadDate, report.Diagnostics.DroppedCorrupt, report.Diagnostics.UnparseableCells)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importClear, "clear", false, "replace the store contents instead of merging")
	rootCmd.AddCommand(importCmd)
}
