package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/inventory-cli/internal/inventory"
	"github.com/sells-group/inventory-cli/internal/model"
)

var compsCmd = &cobra.Command{
	Use:   "comps",
	Short: "Manage comparable market listings",
}

var compsRefreshCmd = &cobra.Command{
	Use:   "refresh <vehicle-id>",
	Short: "Replace automated comps and rebuild the summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.RefreshComps(ctx, dealership(), args[0])
		if err != nil {
			return eris.Wrap(err, "comps refresh")
		}
		return printCompResult(res)
	},
}

var compsRefreshAllCmd = &cobra.Command{
	Use:   "refresh-all",
	Short: "Refresh automated comps for every active vehicle",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.RefreshAllComps(ctx, dealership())
		if err != nil {
			return eris.Wrap(err, "comps refresh-all")
		}
		return printBatch(res)
	},
}

var compsAddCmd = &cobra.Command{
	Use:   "add <vehicle-id>",
	Short: "Add a dealer-sourced comp",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f := cmd.Flags()
		in := inventory.CompInput{
			Mileage:       intFlag(f, "mileage"),
			Price:         floatFlag(f, "price"),
			SoldPrice:     floatFlag(f, "sold-price"),
			DaysOnMarket:  intFlag(f, "dom"),
			DistanceMiles: floatFlag(f, "distance"),
		}
		in.Year, _ = f.GetInt("year")
		in.Make, _ = f.GetString("make")
		in.Model, _ = f.GetString("model")
		in.Trim, _ = f.GetString("trim")
		in.DealerName, _ = f.GetString("dealer")
		status, _ := f.GetString("status")
		in.ListingStatus = model.ListingStatus(status)

		c, err := env.Service.AddManualComp(ctx, dealership(), args[0], in)
		if err != nil {
			return eris.Wrap(err, "comps add")
		}
		return printJSON(os.Stdout, c)
	},
}

var compsUploadCmd = &cobra.Command{
	Use:   "upload <vehicle-id> <file.csv|file.xlsx>",
	Short: "Import dealer-sourced comps from a spreadsheet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		file, err := os.Open(args[1])
		if err != nil {
			return eris.Wrap(err, "open upload")
		}
		defer file.Close() //nolint:errcheck

		res, err := env.Service.UploadComps(ctx, dealership(), args[0], filepath.Base(args[1]), file)
		if err != nil {
			return eris.Wrap(err, "comps upload")
		}
		return printCompResult(res)
	},
}

var compsListCmd = &cobra.Command{
	Use:   "list <vehicle-id>",
	Short: "List a vehicle's comps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		source, _ := cmd.Flags().GetString("source")
		out, err := env.Service.ListComps(ctx, dealership(), args[0], model.CompSource(source))
		if err != nil {
			return eris.Wrap(err, "comps list")
		}
		return printJSON(os.Stdout, out)
	},
}

var compsSummaryCmd = &cobra.Command{
	Use:   "summary <vehicle-id>",
	Short: "Show the comp summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sum, err := env.Service.CompSummary(ctx, dealership(), args[0])
		if err != nil {
			return eris.Wrap(err, "comps summary")
		}
		return printJSON(os.Stdout, sum)
	},
}

func printCompResult(res *inventory.CompResult) error {
	if jsonOutput {
		return printJSON(os.Stdout, res)
	}
	fmt.Println(res.Message)
	if res.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d unreadable rows.\n", res.Skipped)
	}
	if res.Summary.DiscrepancyFlag {
		fmt.Println(res.Summary.DiscrepancyNote)
	}
	return nil
}

func printBatch(res *inventory.BatchResult) error {
	if jsonOutput {
		return printJSON(os.Stdout, res)
	}
	fmt.Println(res.Message)
	if res.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d vehicles failed; see log for details.\n", res.Failed)
	}
	return nil
}

func init() {
	f := compsAddCmd.Flags()
	f.Int("year", 0, "model year")
	f.String("make", "", "make")
	f.String("model", "", "model")
	f.String("trim", "", "trim")
	f.Int("mileage", 0, "odometer reading")
	f.Float64("price", 0, "listed price")
	f.Float64("sold-price", 0, "sold price")
	f.Int("dom", 0, "days on market")
	f.Float64("distance", 0, "distance in miles")
	f.String("dealer", "", "selling dealer")
	f.String("status", "active", "listing status: active, sold, delisted")

	compsListCmd.Flags().String("source", "", "filter by source: auto, manual")

	compsCmd.AddCommand(compsRefreshCmd, compsRefreshAllCmd, compsAddCmd, compsUploadCmd, compsListCmd, compsSummaryCmd)
	rootCmd.AddCommand(compsCmd)
}
