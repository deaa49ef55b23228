package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linewaste/internal/server"
	"linewaste/internal/util"
)

var (
	servePort int
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP dashboard API",
	Long: `Start the HTTP API serving dashboard, report, preview, data entry and
Excel export endpoints.

Example usage:
  linewaste serve                  # port from config.toml (default 8501)
  linewaste serve --port 9000      # only when config.toml does not set a port
  linewaste serve --open           # open the browser once listening`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, info, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp(a)

		cfg := a.Config
		// config.toml 优先；仅当未显式配置 port 时命令行生效
		if servePort > 0 && !info.PortSpecified {
			cfg.Server.Port = servePort
		}
		if !info.PortSpecified {
			cfg.Server.Port = util.FindAvailablePort(cfg.Server.Port, 20)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		a.WatchData(ctx)

		srv := server.NewServer(a)
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

		a.Logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("data_dir", a.DataDir),
			zap.String("store", a.Store.Location()),
		)
		if serveOpen {
			if err := util.OpenBrowserWithFallback(url); err != nil {
				fmt.Printf("Could not open a browser, visit %s manually\n", url)
			}
		}
		fmt.Printf("Listening on %s, press Ctrl+C to stop...\n", url)

		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (config.toml takes precedence)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the default browser")
	rootCmd.AddCommand(serveCmd)
}
