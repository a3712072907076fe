package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingFallbackToStderr(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
		t.Fatalf("创建文件失败: %v", err)
	}

	logPath := filepath.Join(blocker, "sub", "dict.log")
	configPath := writeConfigFile(t, fmt.Sprintf(`
LogLevel = "info"
LogFilePath = %q
CacheDir = %q
`, logPath, filepath.Join(dir, "cache")))

	useBufferWriters(t)
	code := run(cliOptions{configPath: configPath, list: true})
	if code != 0 {
		t.Fatalf("日志 fallback 不应导致失败，得到 %d", code)
	}
	if !strings.Contains(stdOutBuffer().String(), "The cache contains 0 words") {
		t.Fatalf("列表应照常输出: %s", stdOutBuffer().String())
	}
}

func TestLoggingWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "dict.log")
	configPath := writeConfigFile(t, fmt.Sprintf(`
LogLevel = "warn"
LogFormat = "json"
LogFilePath = %q
CacheDir = %q
`, logPath, filepath.Join(dir, "cache")))

	useBufferWriters(t)
	run(cliOptions{configPath: configPath, word: "ghost", remove: true})

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("日志文件应被创建: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"Word ghost not found in cache"`) {
		t.Fatalf("日志文件缺少删除失败记录: %s", data)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}
