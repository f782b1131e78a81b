package config

import (
	"os"
	"path/filepath"
	"testing"
)

func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

// clearEnv 屏蔽宿主机上可能存在的环境变量，避免干扰默认值断言。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REGISTRY", "PORT",
		"ANY_CDN_LISTENPORT", "ANY_CDN_REGISTRY", "ANY_CDN_CACHEBACKEND",
		"ANY_CDN_LOGLEVEL", "ANY_CDN_LOGFILEPATH",
	} {
		t.Setenv(key, "")
	}
}
