package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/monitoring"
	"github.com/sells-group/inventory-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the daily alarm scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if cfg.Alarm.Enabled {
			sched, err := monitoring.NewScheduler(cfg.Alarm, env.Service)
			if err != nil {
				return err
			}
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()
		}

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg.Port = servePort
		}
		srv := server.New(env.Service, env.Metrics, serverCfg)

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		if err := srv.Start(); err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
