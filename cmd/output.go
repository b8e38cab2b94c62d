package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/inventory-cli/internal/engine"
	"github.com/sells-group/inventory-cli/internal/model"
)

var jsonOutput bool

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatVehicles(w io.Writer, vehicles []model.Vehicle) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVIN\tVEHICLE\tSTATUS\tDAYS\tLIST\tCOST")
	for i := range vehicles {
		v := &vehicles[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			v.ID, v.VIN, v.Label(), v.Status, v.DaysInInventory,
			engine.Dollars(v.ListPrice), engine.Dollars(v.TotalCost()))
	}
	tw.Flush() //nolint:errcheck
}

func formatInsights(w io.Writer, insights []model.Insight) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVIN\tDAYS\tP30\tP60\tP90\tAGING\tACTION")
	for _, in := range insights {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			in.VehicleID, in.VIN, in.DaysInInventory,
			pct(in.P30), pct(in.P60), pct(in.P90), in.AgingClass, in.OneLineAction)
	}
	tw.Flush() //nolint:errcheck
}

func pct(p *float64) string {
	if p == nil {
		return "-"
	}
	return engine.Percent(*p, 0)
}

func formatReport(w io.Writer, r *model.AnalysisReport) {
	fmt.Fprintf(w, "Sale probability: 30d %s  60d %s  90d %s\n",
		engine.Percent(r.P30, 1), engine.Percent(r.P60, 1), engine.Percent(r.P90, 1))
	fmt.Fprintf(w, "Aging: %s (inflection day %d)\n", r.AgingClass, r.InflectionDay)
	fmt.Fprintf(w, "Carry: %s/day, %s over 30 days\n", engine.Cents(r.DailyCarryCost), engine.Dollars(r.CarryCost30))
	fmt.Fprintf(w, "Pricing: %s %s (%s elasticity)\n", r.PriceAction, engine.Dollars(r.PriceChangeAmount), r.PriceElasticity)
	fmt.Fprintf(w, "Exit: %s, expected gross %s in %.0f days\n", r.OptimalExit, engine.Dollars(r.ExitExpectedGross), r.ExitExpectedDays)
	fmt.Fprintf(w, "Confidence: %s\n\nAction plan:\n", r.Confidence)
	for i, a := range r.ActionPlan {
		fmt.Fprintf(w, "  %d. %s\n", i+1, a)
	}
	if len(r.Risks) > 0 {
		fmt.Fprintln(w, "\nRisks:")
		for _, risk := range r.Risks {
			fmt.Fprintf(w, "  - %s\n", risk)
		}
	}
}

func formatPlan(w io.Writer, p *model.WaterfallPlan) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tDAY\tPRICE\tCHANGE\tLIFT\tSTOP")
	for _, s := range p.Steps {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			s.Step, s.TriggerDay, engine.Dollars(s.NewPrice), engine.Dollars(s.DollarChange),
			engine.Percent(s.ExpectedProbabilityLift, 1), s.StopCondition)
	}
	tw.Flush() //nolint:errcheck
	fmt.Fprintln(w, p.Recommendation)
}

func formatEvents(w io.Writer, events []model.PriceEvent) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tVEHICLE\tTYPE\tOLD\tNEW\tBY")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.VehicleID, e.EventType,
			engine.Dollars(e.OldPrice), engine.Dollars(e.NewPrice), e.TriggeredBy)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
}
