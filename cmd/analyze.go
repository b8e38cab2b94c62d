package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/inventory-cli/internal/engine"
	"github.com/sells-group/inventory-cli/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <vehicle-id>",
	Short: "Run the 30-60-90 analysis for a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Service.Analyze(ctx, dealership(), args[0])
		if err != nil {
			return eris.Wrap(err, "analyze")
		}
		if jsonOutput {
			return printJSON(os.Stdout, report)
		}
		formatReport(os.Stdout, report)
		return nil
	},
}

var analyzeAllCmd = &cobra.Command{
	Use:   "analyze-all",
	Short: "Analyze every active vehicle",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.AnalyzeAll(ctx, dealership())
		if err != nil {
			return eris.Wrap(err, "analyze-all")
		}
		return printBatch(res)
	},
}

var curveCmd = &cobra.Command{
	Use:   "curve <vehicle-id>",
	Short: "Print the daily sale-probability curve from the latest analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		days, _ := cmd.Flags().GetInt("days")
		curve, err := env.Service.Curve(ctx, dealership(), args[0], days)
		if err != nil {
			return eris.Wrap(err, "curve")
		}
		if jsonOutput {
			return printJSON(os.Stdout, curve)
		}
		formatCurve(curve.Curve)
		return nil
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Dashboard view of vehicles with their latest analysis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		status, _ := cmd.Flags().GetString("status")
		out, err := env.Service.Insights(ctx, dealership(), model.VehicleStatus(status))
		if err != nil {
			return eris.Wrap(err, "insights")
		}
		if jsonOutput {
			return printJSON(os.Stdout, out)
		}
		if len(out) == 0 {
			fmt.Fprintln(os.Stderr, "No vehicles found.")
			return nil
		}
		formatInsights(os.Stdout, out)
		return nil
	},
}

func formatCurve(points []model.CurvePoint) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tDAILY\tCUMULATIVE\tCARRY TO DATE")
	for _, p := range points {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.Day,
			engine.Percent(p.DailySellProbability, 2),
			engine.Percent(p.CumulativeSellProbability, 1),
			engine.Cents(p.FloorplanCostToDate))
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	curveCmd.Flags().Int("days", 90, "number of days to print (1-180)")
	insightsCmd.Flags().String("status", "active", "vehicle status")

	rootCmd.AddCommand(analyzeCmd, analyzeAllCmd, curveCmd, insightsCmd)
}
