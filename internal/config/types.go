package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// DefaultCacheSubpath 是未显式配置 CacheDir 时相对 HOME 的缓存目录。
const DefaultCacheSubpath = ".local/share/dict/cache"

// CacheConfig 描述磁盘缓存的位置与容量约束。
type CacheConfig struct {
	CacheDir        string `mapstructure:"CacheDir"`
	CacheMax        int    `mapstructure:"CacheMax"`
	MaxPathLen      int    `mapstructure:"MaxPathLen"`
	ListColumnWidth int    `mapstructure:"ListColumnWidth"`
}

// UpstreamConfig 描述 dictionaryapi.dev 的访问参数。
type UpstreamConfig struct {
	APIBaseURL      string   `mapstructure:"APIBaseURL"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	MaxRetries      int      `mapstructure:"MaxRetries"`
	InitialBackoff  Duration `mapstructure:"InitialBackoff"`
	MaxPayloadBytes int64    `mapstructure:"MaxPayloadBytes"`
}

// LogConfig 控制日志级别、格式与可选的滚动文件输出。
type LogConfig struct {
	LogLevel      string `mapstructure:"LogLevel"`
	LogFormat     string `mapstructure:"LogFormat"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
}

// OutputConfig 控制终端渲染与本地 HTTP 服务。
type OutputConfig struct {
	Color      string `mapstructure:"Color"`
	ListenPort int    `mapstructure:"ListenPort"`
}

// Config 是 TOML 文件映射的整体结构，所有键位于顶层。
type Config struct {
	Cache    CacheConfig    `mapstructure:",squash"`
	Upstream UpstreamConfig `mapstructure:",squash"`
	Log      LogConfig      `mapstructure:",squash"`
	Output   OutputConfig   `mapstructure:",squash"`
}

// ResolveCacheDir 计算缓存根目录：优先使用 CacheDir（支持 ~/ 前缀），
// 否则回退到 $HOME/.local/share/dict/cache；两者都不可用时返回空串（禁用缓存）。
func (c *Config) ResolveCacheDir(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	home := strings.TrimSpace(getenv("HOME"))

	if dir := strings.TrimSpace(c.Cache.CacheDir); dir != "" {
		if strings.HasPrefix(dir, "~/") {
			if home == "" {
				return ""
			}
			return filepath.Join(home, dir[2:])
		}
		return dir
	}
	if home == "" {
		return ""
	}
	return filepath.Join(home, filepath.FromSlash(DefaultCacheSubpath))
}

// DefaultConfigPath 返回默认配置文件位置：$XDG_CONFIG_HOME/dict/config.toml
// 或 $HOME/.config/dict/config.toml。
func DefaultConfigPath(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if xdg := strings.TrimSpace(getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "dict", "config.toml")
	}
	if home := strings.TrimSpace(getenv("HOME")); home != "" {
		return filepath.Join(home, ".config", "dict", "config.toml")
	}
	return ""
}
