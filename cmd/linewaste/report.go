package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"linewaste/internal/service/calculator"
)

var reportScope scopeFlags

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the KPI summary and the date x shift report",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := reportScope.scope()
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
		dash := a.Engine.Dashboard(snap.Rows, scope)
		report := a.Engine.Report(snap.Rows, scope)
		printReport(cmd.OutOrStdout(), dash, report, a.Engine.CompareShifts(report))
		return nil
	},
}

func init() {
	reportScope.register(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

func printReport(out io.Writer, dash calculator.Dashboard, report []calculator.ReportRow, shifts calculator.ShiftComparison) {
	s := dash.Summary
	if s.Empty {
		fmt.Fprintln(out, "No data for the selected scope.")
		return
	}

	fmt.Fprintf(out, "Output           %s pcs (%s kg)\n", humanize.Comma(int64(math.Round(s.OutputPcs))), humanize.CommafWithDigits(s.OutputWeightKg, 2))
	fmt.Fprintf(out, "Audited waste    %s kg\n", humanize.CommafWithDigits(s.AuditedWasteKg, 2))
	fmt.Fprintf(out, "Field reject     %s kg\n", humanize.CommafWithDigits(s.FieldRejectKg, 2))
	review := ""
	if s.NeedsReview {
		review = "  (needs review)"
	}
	fmt.Fprintf(out, "Discrepancy      %s kg%s\n", humanize.CommafWithDigits(s.DiscrepancyKg, 2), review)
	fmt.Fprintf(out, "Waste rate       %s%% [%s]\n", humanize.FtoaWithDigits(s.WasteRatePct, 2), s.WasteBand)
	fmt.Fprintf(out, "Achievement      %s%% %s\n", humanize.FtoaWithDigits(s.AchievementPct, 2), s.StatusLabel)
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tShift\tOutput (pcs)\tSTT Waste (kg)\tReject (kg)\tDiff (kg)\tWaste %\t")
	for _, r := range report {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Date, r.Shift,
			humanize.Comma(int64(math.Round(r.OutputPcs))),
			humanize.CommafWithDigits(r.AuditedWasteKg, 2),
			humanize.CommafWithDigits(r.FieldRejectKg, 2),
			humanize.CommafWithDigits(r.DiscrepancyKg, 2),
			humanize.FtoaWithDigits(r.WasteRatePct, 2),
		)
	}
	_ = tw.Flush()

	if shifts.BestShift != "" {
		fmt.Fprintf(out, "\nHighest output: %s with %s pcs\n", shifts.BestShift, humanize.Comma(int64(math.Round(shifts.BestOutputPcs))))
	}
	verdict := "within limit"
	if shifts.ExceedsLimit {
		verdict = "above limit"
	}
	fmt.Fprintf(out, "Mean waste rate: %s%% (%s %s%%)\n", humanize.FtoaWithDigits(shifts.MeanWastePct, 2), verdict, humanize.FtoaWithDigits(shifts.LimitPct, 2))
}
