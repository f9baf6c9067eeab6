package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ToolConfig 命令行工具的环境配置，命令行参数可以覆盖这些值
type ToolConfig struct {
	// LogLevel 日志级别：debug / info / warn / error
	LogLevel string `env:"PARTICLES_LOG_LEVEL" envDefault:"info"`

	// OutDir 导出 ZIP 的输出目录
	OutDir string `env:"PARTICLES_OUT_DIR" envDefault:"."`

	// StoreName 导出库在 gdata 中的应用名，为空时不保存
	StoreName string `env:"PARTICLES_STORE"`

	// Debounce 文件监听合并连续写入的时间窗口
	Debounce time.Duration `env:"PARTICLES_WATCH_DEBOUNCE" envDefault:"200ms"`

	// Seed 覆盖预设中的随机种子，0 表示使用预设的值
	Seed int64 `env:"PARTICLES_SEED"`
}

// LoadToolConfig reads ToolConfig from the environment.
func LoadToolConfig() (ToolConfig, error) {
	var cfg ToolConfig
	if err := env.Parse(&cfg); err != nil {
		return ToolConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	return cfg, nil
}
