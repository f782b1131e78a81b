package config

import (
	"fmt"
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

// GlobalConfig 描述进程级运行参数：监听、日志、回源与两级缓存。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	Registry        string   `mapstructure:"Registry"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	MaxTarballSize  int64    `mapstructure:"MaxTarballSize"`
}

// CacheConfig 控制 metadata / package 两个缓存池的容量、TTL 与后端实现。
type CacheConfig struct {
	Backend         string   `mapstructure:"CacheBackend"`
	MetadataSize    int      `mapstructure:"MetadataCacheSize"`
	MetadataTTL     Duration `mapstructure:"MetadataCacheTTL"`
	PackageSize     int      `mapstructure:"PackageCacheSize"`
	PackageTTL      Duration `mapstructure:"PackageCacheTTL"`
	MaxSizeMB       int      `mapstructure:"CacheMaxSizeMB"`
	CoalesceFetches bool     `mapstructure:"CoalesceFetches"`
}

// Config 是配置文件 + 环境变量合并后的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Cache  CacheConfig  `mapstructure:",squash"`
}

// RegistryBase 返回去掉末尾斜杠的 Registry 地址，便于拼接包名。
func (g GlobalConfig) RegistryBase() string {
	return strings.TrimRight(strings.TrimSpace(g.Registry), "/")
}
