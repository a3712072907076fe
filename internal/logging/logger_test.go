package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/dict-cli/dict/internal/config"
)

func TestConfigureDefaultsToStderr(t *testing.T) {
	logger, err := InitLogger(config.LogConfig{LogLevel: "info"})
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	if logger.Out != os.Stderr {
		t.Fatalf("未指定文件时应输出到 stderr")
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("默认应使用 text 格式，实际 %T", logger.Formatter)
	}
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := InitLogger(config.LogConfig{LogLevel: "loud"}); err == nil {
		t.Fatalf("未知日志级别应返回错误")
	}
}

func TestInitLoggerRejectsUnknownFormat(t *testing.T) {
	if _, err := InitLogger(config.LogConfig{LogLevel: "info", LogFormat: "xml"}); err == nil {
		t.Fatalf("未知日志格式应返回错误")
	}
}

func TestInitLoggerFallbackWhenDirectoryCannotBeCreated(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
		t.Fatalf("创建文件失败: %v", err)
	}

	cfg := config.LogConfig{
		LogLevel:    "info",
		LogFilePath: filepath.Join(blocker, "sub", "dict.log"),
	}
	logger, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("初始化不应失败: %v", err)
	}
	if logger.Out != os.Stderr {
		t.Fatalf("fallback 时应退回 stderr")
	}
}

func TestConfigureCreatesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.log")
	cfg := config.LogConfig{LogLevel: "debug", LogFormat: "json", LogFilePath: path}
	logger, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	logger.WithFields(LookupFields("hello", true, false, false)).Info("lookup")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("预期创建日志文件: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("日志应为 JSON: %v (%s)", err, data)
	}
	if entry["word"] != "hello" || entry["cache_hit"] != true {
		t.Fatalf("查询字段缺失: %v", entry)
	}
}

func TestTextFormatterOmitsTimestamp(t *testing.T) {
	logger, err := InitLogger(config.LogConfig{LogLevel: "warn"})
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithFields(BaseFields("list", "/etc/dict.toml")).Warn("cache disabled")

	line := buf.String()
	if strings.Contains(line, "time=") {
		t.Fatalf("text 格式不应包含时间戳: %s", line)
	}
	if !strings.Contains(line, "action=list") || !strings.Contains(line, `msg="cache disabled"`) {
		t.Fatalf("text 格式缺少字段: %s", line)
	}
}
