package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/inventory-cli/internal/inventory"
	"github.com/sells-group/inventory-cli/internal/model"
)

const dateLayout = "2006-01-02"

var vehicleCmd = &cobra.Command{
	Use:   "vehicle",
	Short: "Manage inventory units",
}

var vehicleAddCmd = &cobra.Command{
	Use:   "add <vin>",
	Short: "Decode a VIN and add the unit to inventory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f := cmd.Flags()
		in := inventory.VehicleInput{VIN: args[0]}
		in.AcquisitionCost, _ = f.GetFloat64("cost")
		in.ReconCost, _ = f.GetFloat64("recon")
		in.ListPrice, _ = f.GetFloat64("list-price")
		in.FloorplanRateAPR, _ = f.GetFloat64("apr")
		in.WholesaleExitPrice, _ = f.GetFloat64("wholesale")
		in.MinAcceptableMargin, _ = f.GetFloat64("min-margin")
		in.Mileage, _ = f.GetInt("mileage")
		if in.DateAcquired, err = dateFlag(f, "acquired"); err != nil {
			return err
		}

		v, err := env.Service.AddFromVIN(ctx, dealership(), in)
		if err != nil {
			return eris.Wrap(err, "vehicle add")
		}
		if jsonOutput {
			return printJSON(os.Stdout, v)
		}
		formatVehicles(os.Stdout, []model.Vehicle{*v})
		return nil
	},
}

var vehicleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vehicles, oldest in stock first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		status, _ := cmd.Flags().GetString("status")
		vehicles, err := env.Service.ListVehicles(ctx, dealership(), model.VehicleStatus(status))
		if err != nil {
			return eris.Wrap(err, "vehicle list")
		}
		if jsonOutput {
			return printJSON(os.Stdout, vehicles)
		}
		formatVehicles(os.Stdout, vehicles)
		return nil
	},
}

var vehicleShowCmd = &cobra.Command{
	Use:   "show <vehicle-id>",
	Short: "Show a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		v, err := env.Service.GetVehicle(ctx, dealership(), args[0])
		if err != nil {
			return eris.Wrap(err, "vehicle show")
		}
		return printJSON(os.Stdout, v)
	},
}

var vehicleUpdateCmd = &cobra.Command{
	Use:   "update <vehicle-id>",
	Short: "Update a vehicle's price, costs or status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f := cmd.Flags()
		u := inventory.VehicleUpdate{
			ListPrice:           floatFlag(f, "list-price"),
			AcquisitionCost:     floatFlag(f, "cost"),
			ReconCost:           floatFlag(f, "recon"),
			FloorplanRateAPR:    floatFlag(f, "apr"),
			WholesaleExitPrice:  floatFlag(f, "wholesale"),
			MinAcceptableMargin: floatFlag(f, "min-margin"),
			SoldPrice:           floatFlag(f, "sold-price"),
			Mileage:             intFlag(f, "mileage"),
		}
		if f.Changed("status") {
			s, _ := f.GetString("status")
			status := model.VehicleStatus(s)
			u.Status = &status
		}
		if u.DateAcquired, err = dateFlag(f, "acquired"); err != nil {
			return err
		}
		if u.DateSold, err = dateFlag(f, "sold"); err != nil {
			return err
		}

		v, err := env.Service.UpdateVehicle(ctx, dealership(), args[0], u)
		if err != nil {
			return eris.Wrap(err, "vehicle update")
		}
		return printJSON(os.Stdout, v)
	},
}

func floatFlag(f *pflag.FlagSet, name string) *float64 {
	if !f.Changed(name) {
		return nil
	}
	v, _ := f.GetFloat64(name)
	return &v
}

func intFlag(f *pflag.FlagSet, name string) *int {
	if !f.Changed(name) {
		return nil
	}
	v, _ := f.GetInt(name)
	return &v
}

func dateFlag(f *pflag.FlagSet, name string) (*time.Time, error) {
	if !f.Changed(name) {
		return nil, nil
	}
	raw, _ := f.GetString(name)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, eris.Wrapf(err, "parse --%s (want YYYY-MM-DD)", name)
	}
	return &t, nil
}

func addMoneyFlags(f *pflag.FlagSet) {
	f.Float64("cost", 0, "acquisition cost")
	f.Float64("recon", 0, "reconditioning cost")
	f.Float64("list-price", 0, "list price")
	f.Float64("apr", 0, "floorplan APR percent (default from config)")
	f.Float64("wholesale", 0, "expected wholesale exit price")
	f.Float64("min-margin", 0, "minimum acceptable margin (default from config)")
	f.Int("mileage", 0, "odometer reading")
	f.String("acquired", "", "date acquired, YYYY-MM-DD (default today)")
}

func init() {
	addMoneyFlags(vehicleAddCmd.Flags())
	vehicleListCmd.Flags().String("status", "", "filter by status: active, sold, wholesale, traded")

	addMoneyFlags(vehicleUpdateCmd.Flags())
	vehicleUpdateCmd.Flags().String("status", "", "new status: active, sold, wholesale, traded")
	vehicleUpdateCmd.Flags().Float64("sold-price", 0, "final sale price")
	vehicleUpdateCmd.Flags().String("sold", "", "date sold, YYYY-MM-DD")

	vehicleCmd.AddCommand(vehicleAddCmd, vehicleListCmd, vehicleShowCmd, vehicleUpdateCmd)
	rootCmd.AddCommand(vehicleCmd)
}
