package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"linewaste/internal/service/calculator"
	"linewaste/internal/store"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Business BusinessConfig `toml:"business"`
	Auth     AuthConfig     `toml:"auth"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir    string `toml:"data_dir"`
	Backend    string `toml:"backend"` // csv | sqlite
	FileName   string `toml:"file_name"`
	AutoBackup bool   `toml:"auto_backup"`
	MaxBackups int    `toml:"max_backups"` // 保留的备份份数，0 表示不清理
}

// BusinessConfig 业务配置
type BusinessConfig struct {
	UnitWeightKg         float64 `toml:"unit_weight_kg"`
	ShiftTargetPcs       float64 `toml:"shift_target_pcs"`
	ReconcileToleranceKg float64 `toml:"reconcile_tolerance_kg"`
	WasteGoodPct         float64 `toml:"waste_good_pct"`
	WasteAlertPct        float64 `toml:"waste_alert_pct"`
	ReportWasteLimitPct  float64 `toml:"report_waste_limit_pct"`
}

// AuthConfig 登录凭据
type AuthConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// CacheConfig 快照缓存
type CacheConfig struct {
	TTLSeconds int  `toml:"ttl_seconds"`
	WatchFile  bool `toml:"watch_file"`
}

// LogConfig 日志配置，File 为空时只输出到标准错误
type LogConfig struct {
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// CatalogConfig 主数据文件
type CatalogConfig struct {
	Path string `toml:"path"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	params := calculator.DefaultParams()
	return &AppConfig{
		Server: ServerConfig{
			Port:    8501,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:    "data",
			Backend:    store.BackendCSV,
			FileName:   "",
			AutoBackup: true,
			MaxBackups: 20,
		},
		Business: BusinessConfig{
			UnitWeightKg:         params.UnitWeightKg,
			ShiftTargetPcs:       params.ShiftTargetPcs,
			ReconcileToleranceKg: params.ReconcileToleranceKg,
			WasteGoodPct:         params.WasteGoodPct,
			WasteAlertPct:        params.WasteAlertPct,
			ReportWasteLimitPct:  params.ReportWasteLimitPct,
		},
		Auth: AuthConfig{
			Username: "admin",
			Password: "admin123",
		},
		Cache: CacheConfig{
			TTLSeconds: 300,
			WatchFile:  true,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 5,
		},
	}
}

// Params 业务参数
func (c *AppConfig) Params() calculator.Params {
	return calculator.Params{
		UnitWeightKg:         c.Business.UnitWeightKg,
		ShiftTargetPcs:       c.Business.ShiftTargetPcs,
		ReconcileToleranceKg: c.Business.ReconcileToleranceKg,
		WasteGoodPct:         c.Business.WasteGoodPct,
		WasteAlertPct:        c.Business.WasteAlertPct,
		ReportWasteLimitPct:  c.Business.ReportWasteLimitPct,
	}
}

// DataFileName 数据文件名，未配置时按后端取默认值
func (c *AppConfig) DataFileName() string {
	if c.Data.FileName != "" {
		return c.Data.FileName
	}
	if c.Data.Backend == store.BackendSQLite {
		return "linewaste.db"
	}
	return "data_reject.csv"
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从指定路径加载配置并返回元信息；path 为空时使用默认位置
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, info, err
		}
		// 配置文件不存在，使用默认配置
	} else {
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	}

	applyEnv(config)
	return config, info, nil
}

// 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("LINEWASTE_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("LINEWASTE_BACKEND"); v != "" {
		config.Data.Backend = strings.ToLower(strings.TrimSpace(v))
	}
}

// SaveConfig 保存配置到指定路径；path 为空时使用默认位置
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir 数据目录的绝对位置；相对路径基于可执行文件目录
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports", "backups"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据目录下的文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}

// StoreOptions 打开记录存储所需的参数
func StoreOptions(config *AppConfig) store.Options {
	opts := store.Options{
		Backend: config.Data.Backend,
		Path:    GetDataPath(config, "", config.DataFileName()),
	}
	if config.Data.AutoBackup {
		opts.BackupDir = GetDataPath(config, "backups", "")
		opts.MaxBackups = config.Data.MaxBackups
	}
	return opts
}
