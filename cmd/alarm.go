package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/inventory-cli/internal/inventory"
	"github.com/sells-group/inventory-cli/internal/model"
)

var alarmCmd = &cobra.Command{
	Use:   "alarm",
	Short: "Daily floorplan burn alarm",
}

var alarmRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate today's alarm and deliver it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Service.RunAlarm(ctx, dealership(), inventory.AlarmManual)
		if err != nil {
			return eris.Wrap(err, "alarm run")
		}
		return printAlarm(report)
	},
}

var alarmLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent alarm",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Service.LatestAlarm(ctx, dealership())
		if err != nil {
			return eris.Wrap(err, "alarm latest")
		}
		return printAlarm(report)
	},
}

var alarmHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List past alarms, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		alarms, err := env.Service.AlarmHistory(ctx, dealership(), limit)
		if err != nil {
			return eris.Wrap(err, "alarm history")
		}
		if jsonOutput {
			return printJSON(os.Stdout, alarms)
		}
		for _, a := range alarms {
			fmt.Printf("%s  %s\n", a.AlarmDate.Format(dateLayout), a.ExecutiveSummary)
		}
		return nil
	},
}

var alarmConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change alarm settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f := cmd.Flags()
		var u inventory.AlarmSettingsUpdate
		changed := false
		if f.Changed("thresholds") {
			t, _ := f.GetIntSlice("thresholds")
			u.Thresholds, changed = &t, true
		}
		if f.Changed("emails") {
			e, _ := f.GetStringSlice("emails")
			u.EmailTargets, changed = &e, true
		}
		if f.Changed("enabled") {
			b, _ := f.GetBool("enabled")
			u.Enabled, changed = &b, true
		}
		if f.Changed("hour") {
			u.AlarmHour, changed = intFlag(f, "hour"), true
		}

		var settings *model.AlarmSettings
		if changed {
			settings, err = env.Service.UpdateAlarmSettings(ctx, dealership(), u)
		} else {
			settings, err = env.Service.AlarmSettings(ctx, dealership())
		}
		if err != nil {
			return eris.Wrap(err, "alarm config")
		}
		return printJSON(os.Stdout, settings)
	},
}

func printAlarm(report *model.AlarmReport) error {
	if jsonOutput {
		return printJSON(os.Stdout, report)
	}
	fmt.Println(report.ExecutiveSummary)
	return nil
}

func init() {
	alarmHistoryCmd.Flags().Int("limit", 30, "number of alarms (1-365)")

	f := alarmConfigCmd.Flags()
	f.IntSlice("thresholds", nil, "aging thresholds in days, e.g. 30,45,60,75")
	f.StringSlice("emails", nil, "alarm email recipients")
	f.Bool("enabled", true, "enable the scheduled alarm")
	f.Int("hour", 6, "local hour to run the scheduled alarm (0-23)")

	alarmCmd.AddCommand(alarmRunCmd, alarmLatestCmd, alarmHistoryCmd, alarmConfigCmd)
	rootCmd.AddCommand(alarmCmd)
}
