package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	Optimizer OptimizerConfig `toml:"optimizer"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// OptimizerConfig 求解器与结果下载配置
type OptimizerConfig struct {
	SolveTimeoutSeconds int     `toml:"solve_timeout_seconds"`
	Tolerance           float64 `toml:"tolerance"`
	CokeLoss            float64 `toml:"coke_loss"`
	ResultTTLMinutes    int     `toml:"result_ttl_minutes"`
	MaxUploadMB         int     `toml:"max_upload_mb"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level      string `toml:"level"`  // debug | info | warn | error
	Format     string `toml:"format"` // console | json
	OutputFile string `toml:"output_file"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    5000,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Optimizer: OptimizerConfig{
			SolveTimeoutSeconds: 10,
			Tolerance:           1e-10,
			CokeLoss:            0.012,
			ResultTTLMinutes:    30,
			MaxUploadMB:         16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SolveTimeout 求解时间预算
func (c *AppConfig) SolveTimeout() time.Duration {
	return time.Duration(c.Optimizer.SolveTimeoutSeconds) * time.Second
}

// ResultTTL 下载令牌有效期
func (c *AppConfig) ResultTTL() time.Duration {
	return time.Duration(c.Optimizer.ResultTTLMinutes) * time.Minute
}

// MaxUploadBytes 上传大小上限
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.Optimizer.MaxUploadMB) << 20
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Data.DataDir == "" {
		return fmt.Errorf("config: data.data_dir is empty")
	}
	o := c.Optimizer
	if o.SolveTimeoutSeconds < 0 {
		return fmt.Errorf("config: optimizer.solve_timeout_seconds must be >= 0")
	}
	if o.Tolerance <= 0 {
		return fmt.Errorf("config: optimizer.tolerance must be > 0")
	}
	if o.CokeLoss < 0 || o.CokeLoss >= 1 {
		return fmt.Errorf("config: optimizer.coke_loss must be in [0,1)")
	}
	if o.ResultTTLMinutes <= 0 {
		return fmt.Errorf("config: optimizer.result_ttl_minutes must be > 0")
	}
	if o.MaxUploadMB <= 0 {
		return fmt.Errorf("config: optimizer.max_upload_mb must be > 0")
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	serverMap, ok := raw["server"].(map[string]any)
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

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return LoadConfigFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFrom 从指定路径加载配置，文件不存在时使用默认值
func LoadConfigFrom(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, info, err
	default:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// 环境变量覆盖
	if v := os.Getenv("MEZCLA_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}

	return config, info, nil
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// ResolveDataDir 数据目录绝对路径；相对路径基于可执行文件目录
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

// EnsureDataDir 确保数据目录及 uploads 子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)
	for _, dir := range []string{dataDir, filepath.Join(dataDir, "uploads")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}
