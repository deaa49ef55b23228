package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linewaste/internal/app"
	"linewaste/internal/config"
	"linewaste/internal/logging"
	"linewaste/internal/model"
	"linewaste/internal/service/calculator"
)

var (
	configPath  string
	dataDirFlag string
	backendFlag string
	devFlag     bool
)

var rootCmd = &cobra.Command{
	Use:           "linewaste",
	Short:         "Production line reject and waste tracking",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `linewaste records per-machine hourly defect weights and per-variant output,
reconciles field rejects against audited waste and reports KPIs.

Configuration is read from config.toml next to the executable unless --config
is given. LINEWASTE_DATA_DIR and LINEWASTE_BACKEND override the file.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "record store backend: csv | sqlite")
	rootCmd.PersistentFlags().BoolVar(&devFlag, "dev", false, "development mode (debug logging)")
}

// loadConfig 加载配置并应用命令行覆盖
func loadConfig() (*config.AppConfig, config.LoadConfigInfo, error) {
	cfg, info, err := config.LoadConfigWithInfo(configPath)
	if err != nil {
		return nil, info, fmt.Errorf("failed to load config %s: %w", info.Path, err)
	}
	if dataDirFlag != "" {
		cfg.Data.DataDir = dataDirFlag
	}
	if backendFlag != "" {
		cfg.Data.Backend = strings.ToLower(backendFlag)
	}
	if devFlag {
		cfg.Server.DevMode = true
	}
	return cfg, info, nil
}

// openApp 加载配置、创建 logger 并组装组件
func openApp() (*app.App, config.LoadConfigInfo, error) {
	cfg, info, err := loadConfig()
	if err != nil {
		return nil, info, err
	}
	logger, err := logging.New(cfg.Log, cfg.Server.DevMode)
	if err != nil {
		return nil, info, err
	}
	a, err := app.Open(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, info, err
	}
	return a, info, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("close store failed", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

// scope 标志
type scopeFlags struct {
	from  string
	to    string
	shift string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "start date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&f.to, "to", "", "end date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&f.shift, "shift", calculator.ShiftAll, `shift filter, "all" for every shift`)
}

func (f *scopeFlags) scope() (calculator.Scope, error) {
	s := calculator.Scope{Shift: f.shift}
	if f.from != "" {
		d, err := model.ParseDate(f.from)
		if err != nil {
			return s, fmt.Errorf("invalid --from: %w", err)
		}
		s.From = d
	}
	if f.to != "" {
		d, err := model.ParseDate(f.to)
		if err != nil {
			return s, fmt.Errorf("invalid --to: %w", err)
		}
		s.To = d
	}
	return s, nil
}
