package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/inventory-cli/internal/engine"
	"github.com/sells-group/inventory-cli/internal/inventory"
	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/waterfall"
)

var waterfallCmd = &cobra.Command{
	Use:   "waterfall",
	Short: "Scheduled price-reduction plans",
}

var waterfallSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the dealership's waterfall rules",
	Long:  "With --rules-file, replaces the rules with a YAML rule set. --policy and --auto change single fields. With no flags, prints the current settings.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f := cmd.Flags()
		var settings *model.WaterfallSettings
		switch {
		case f.Changed("rules-file"):
			path, _ := f.GetString("rules-file")
			loaded, err := waterfall.LoadRulesFile(path)
			if err != nil {
				return err
			}
			settings, err = env.Service.SaveWaterfallSettings(ctx, dealership(), loaded)
			if err != nil {
				return eris.Wrap(err, "waterfall settings")
			}
		case f.Changed("policy") || f.Changed("auto"):
			var u inventory.WaterfallSettingsUpdate
			if f.Changed("policy") {
				p, _ := f.GetString("policy")
				policy := model.FloorPolicy(p)
				u.PriceFloorPolicy = &policy
			}
			if f.Changed("auto") {
				auto, _ := f.GetBool("auto")
				u.AutoMode = &auto
			}
			settings, err = env.Service.UpdateWaterfallSettings(ctx, dealership(), u)
			if err != nil {
				return eris.Wrap(err, "waterfall settings")
			}
		default:
			settings, err = env.Service.WaterfallSettings(ctx, dealership())
			if err != nil {
				return eris.Wrap(err, "waterfall settings")
			}
		}
		return printJSON(os.Stdout, settings)
	},
}

var waterfallPlanCmd = &cobra.Command{
	Use:   "plan <vehicle-id>",
	Short: "Simulate the price-reduction schedule for a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		plan, err := env.Service.PlanWaterfall(ctx, dealership(), args[0])
		if err != nil {
			return eris.Wrap(err, "waterfall plan")
		}
		if jsonOutput {
			return printJSON(os.Stdout, plan)
		}
		formatPlan(os.Stdout, plan)
		return nil
	},
}

var waterfallApplyCmd = &cobra.Command{
	Use:   "apply <vehicle-id>",
	Short: "Approve a planned step and set the new list price",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		step, _ := cmd.Flags().GetInt("step")
		v, err := env.Service.ApplyStep(ctx, dealership(), args[0], step)
		if err != nil {
			return eris.Wrap(err, "waterfall apply")
		}
		if jsonOutput {
			return printJSON(os.Stdout, v)
		}
		fmt.Printf("%s now listed at %s.\n", v.VIN, engine.Dollars(v.ListPrice))
		return nil
	},
}

func init() {
	f := waterfallSettingsCmd.Flags()
	f.String("rules-file", "", "YAML rule set to install")
	f.String("policy", "", "price floor policy: total_cost or wholesale")
	f.Bool("auto", false, "auto mode")

	waterfallApplyCmd.Flags().Int("step", 1, "step number to apply")

	waterfallCmd.AddCommand(waterfallSettingsCmd, waterfallPlanCmd, waterfallApplyCmd)
	rootCmd.AddCommand(waterfallCmd)
}
