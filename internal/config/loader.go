package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 是环境变量覆盖的前缀，例如 DICT_CACHEMAX=50。
const EnvPrefix = "DICT"

// DefaultAPIBaseURL 指向 dictionaryapi.dev 的英文词条接口。
const DefaultAPIBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// Load 读取可选的 TOML 配置文件，叠加 DICT_ 前缀的环境变量，再注入默认值并校验。
// path 为空时仅使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回不读取任何文件与环境变量时的配置。
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CacheDir", "")
	v.SetDefault("CacheMax", 200)
	v.SetDefault("MaxPathLen", 260)
	v.SetDefault("ListColumnWidth", 16)
	v.SetDefault("APIBaseURL", DefaultAPIBaseURL)
	v.SetDefault("UpstreamTimeout", "30s")
	v.SetDefault("MaxRetries", 2)
	v.SetDefault("InitialBackoff", "500ms")
	v.SetDefault("MaxPayloadBytes", 65536)
	v.SetDefault("LogLevel", "warn")
	v.SetDefault("LogFormat", "text")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 10)
	v.SetDefault("LogMaxBackups", 3)
	v.SetDefault("LogCompress", true)
	v.SetDefault("Color", "auto")
	v.SetDefault("ListenPort", 5080)
}

func applyDefaults(c *Config) {
	if c.Cache.CacheMax == 0 {
		c.Cache.CacheMax = 200
	}
	if c.Cache.MaxPathLen == 0 {
		c.Cache.MaxPathLen = 260
	}
	if c.Cache.ListColumnWidth == 0 {
		c.Cache.ListColumnWidth = 16
	}

	c.Upstream.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Upstream.APIBaseURL), "/")
	if c.Upstream.APIBaseURL == "" {
		c.Upstream.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Upstream.UpstreamTimeout.DurationValue() == 0 {
		c.Upstream.UpstreamTimeout = Duration(30 * time.Second)
	}
	if c.Upstream.InitialBackoff.DurationValue() == 0 {
		c.Upstream.InitialBackoff = Duration(500 * time.Millisecond)
	}
	if c.Upstream.MaxPayloadBytes == 0 {
		c.Upstream.MaxPayloadBytes = 65536
	}

	c.Log.LogLevel = strings.ToLower(strings.TrimSpace(c.Log.LogLevel))
	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "warn"
	}
	c.Log.LogFormat = strings.ToLower(strings.TrimSpace(c.Log.LogFormat))
	if c.Log.LogFormat == "" {
		c.Log.LogFormat = "text"
	}

	c.Output.Color = strings.ToLower(strings.TrimSpace(c.Output.Color))
	if c.Output.Color == "" {
		c.Output.Color = "auto"
	}
	if c.Output.ListenPort == 0 {
		c.Output.ListenPort = 5080
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
