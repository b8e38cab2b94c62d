package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/inventory-cli/internal/model"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the price change audit trail",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		vehicleID, _ := cmd.Flags().GetString("vehicle")
		limit, _ := cmd.Flags().GetInt("limit")

		var events []model.PriceEvent
		if vehicleID != "" {
			events, err = env.Service.VehiclePriceEvents(ctx, dealership(), vehicleID)
		} else {
			events, err = env.Service.PriceEvents(ctx, dealership(), limit)
		}
		if err != nil {
			return eris.Wrap(err, "events")
		}
		if jsonOutput {
			return printJSON(os.Stdout, events)
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No price events found.")
			return nil
		}
		formatEvents(os.Stdout, events)
		return nil
	},
}

func init() {
	eventsCmd.Flags().String("vehicle", "", "only events for this vehicle")
	eventsCmd.Flags().Int("limit", 50, "number of events (1-500)")
	rootCmd.AddCommand(eventsCmd)
}
