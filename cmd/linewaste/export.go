package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"linewaste/internal/exporter"
)

var (
	exportScope scopeFlags
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the Excel production report",
	Long: `Write the production report workbook with the sheets Ringkasan,
Detail_Reject, Pareto and KPI.

Without --out the file is written to <data_dir>/exports/Laporan_Produksi_<from>.xlsx.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := exportScope.scope()
		if err != nil {
			return err
		}
		a, _, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		snap, err := a.Repo.Snapshot(cmd.Context())
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = filepath.Join(a.DataDir, "exports", exporter.FileName(snap.Rows, scope))
		}

		f, err := exporter.NewExporter(a.Engine).Export(snap.Rows, exporter.ExportOptions{Scope: scope}, func(ev exporter.ProgressEvent) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r%3d%% %-16s", ev.Percent, ev.Stage)
		})
		if err != nil {
			return err
		}
		defer f.Close()
		fmt.Fprintln(cmd.ErrOrStderr())

		if err := f.SaveAs(out); err != nil {
			return fmt.Errorf("failed to save %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", out)
		return nil
	},
}

func init() {
	exportScope.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output .xlsx path")
	rootCmd.AddCommand(exportCmd)
}
