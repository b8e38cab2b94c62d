package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/inventory-cli/internal/inventory"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "View or record listing engagement",
}

var signalsShowCmd = &cobra.Command{
	Use:   "show <vehicle-id>",
	Short: "Show engagement counts for a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sig, err := env.Service.GetSignals(ctx, dealership(), args[0])
		if err != nil {
			return eris.Wrap(err, "signals show")
		}
		return printJSON(os.Stdout, sig)
	},
}

var signalsSetCmd = &cobra.Command{
	Use:   "set <vehicle-id>",
	Short: "Update engagement counts; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f := cmd.Flags()
		u := inventory.SignalsUpdate{
			ViewsTotal: intFlag(f, "views"),
			ViewsLast7: intFlag(f, "views-7d"),
			LeadsTotal: intFlag(f, "leads"),
			LeadsLast7: intFlag(f, "leads-7d"),
			TestDrives: intFlag(f, "test-drives"),
		}
		if f.Changed("notes") {
			notes, _ := f.GetString("notes")
			u.Notes = &notes
		}

		sig, err := env.Service.UpdateSignals(ctx, dealership(), args[0], u)
		if err != nil {
			return eris.Wrap(err, "signals set")
		}
		return printJSON(os.Stdout, sig)
	},
}

func init() {
	f := signalsSetCmd.Flags()
	f.Int("views", 0, "total listing views")
	f.Int("views-7d", 0, "views in the last 7 days")
	f.Int("leads", 0, "total leads")
	f.Int("leads-7d", 0, "leads in the last 7 days")
	f.Int("test-drives", 0, "test drives")
	f.String("notes", "", "free-form notes")

	signalsCmd.AddCommand(signalsShowCmd, signalsSetCmd)
	rootCmd.AddCommand(signalsCmd)
}
