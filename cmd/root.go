package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/config"
)

var cfg *config.Config

var dealershipFlag string

var rootCmd = &cobra.Command{
	Use:   "inventory-cli",
	Short: "Used-vehicle inventory 30-60-90 decision engine",
	Long:  "Tracks dealer inventory, models sale probability over 30/60/90 days, prices units against comps and floorplan carry, and raises daily aging alarms.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dealershipFlag, "dealership", "", "dealership ID (default from config)")
}

// dealership returns the dealership selected by flag or config.
func dealership() string {
	if dealershipFlag != "" {
		return dealershipFlag
	}
	return cfg.Dealership.DefaultID
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
