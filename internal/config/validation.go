package config

import (
	"errors"
	"fmt"
	"net/url"
)

// listLineWidth 与缓存列表的行宽保持一致，列宽必须能整除它。
const listLineWidth = 80

var supportedLogLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "warning": {},
	"error": {}, "fatal": {}, "panic": {},
}

// Validate 针对语义级别做进一步校验，防止非法配置启动命令。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	cache := c.Cache
	if cache.CacheMax <= 0 {
		return newFieldError("CacheMax", "必须大于 0")
	}
	if cache.MaxPathLen <= 0 {
		return newFieldError("MaxPathLen", "必须大于 0")
	}
	if cache.ListColumnWidth <= 3 || listLineWidth%cache.ListColumnWidth != 0 {
		return newFieldError("ListColumnWidth", fmt.Sprintf("必须大于 3 且能整除 %d", listLineWidth))
	}

	up := c.Upstream
	if err := validateUpstream(up.APIBaseURL); err != nil {
		return fmt.Errorf("APIBaseURL: %w", err)
	}
	if up.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("UpstreamTimeout", "必须大于 0")
	}
	if up.MaxRetries < 0 {
		return newFieldError("MaxRetries", "不能为负数")
	}
	if up.InitialBackoff.DurationValue() <= 0 {
		return newFieldError("InitialBackoff", "必须大于 0")
	}
	if up.MaxPayloadBytes <= 0 {
		return newFieldError("MaxPayloadBytes", "必须大于 0")
	}

	log := c.Log
	if _, ok := supportedLogLevels[log.LogLevel]; !ok {
		return newFieldError("LogLevel", "仅支持 trace/debug/info/warn/error/fatal/panic")
	}
	switch log.LogFormat {
	case "text", "json":
	default:
		return newFieldError("LogFormat", "仅支持 text/json")
	}
	if log.LogMaxSize < 0 {
		return newFieldError("LogMaxSize", "不能为负数")
	}
	if log.LogMaxBackups < 0 {
		return newFieldError("LogMaxBackups", "不能为负数")
	}

	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return newFieldError("Color", "仅支持 auto/always/never")
	}
	if c.Output.ListenPort <= 0 || c.Output.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}

	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("缺少上游地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，上游: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	return nil
}
