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

const (
	defaultListenPort = 3000
	defaultRegistry   = "https://registry.npmjs.org"
	envPrefix         = "ANY_CDN"
)

// legacyEnvKeys 保留最早版本直接读取的环境变量名，优先级低于 ANY_CDN_ 前缀变量。
var legacyEnvKeys = map[string]string{
	"Registry":   "REGISTRY",
	"ListenPort": "PORT",
}

// Load 读取可选的 TOML 配置文件并叠加环境变量，同时注入默认值与校验逻辑。
// path 为空时仅使用默认值 + 环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("绑定环境变量失败: %w", err)
	}

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

	applyGlobalDefaults(&cfg.Global)
	applyCacheDefaults(&cfg.Cache)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", defaultListenPort)
	v.SetDefault("Registry", defaultRegistry)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("UpstreamTimeout", "0s")
	v.SetDefault("MaxTarballSize", 0)
	v.SetDefault("CacheBackend", "lru")
	v.SetDefault("MetadataCacheSize", 1000)
	v.SetDefault("MetadataCacheTTL", "5m")
	v.SetDefault("PackageCacheSize", 500)
	v.SetDefault("PackageCacheTTL", "1h")
	v.SetDefault("CacheMaxSizeMB", 0)
	v.SetDefault("CoalesceFetches", false)
}

// bindEnv 为每个配置项绑定 ANY_CDN_<KEY> 环境变量，Registry/ListenPort 额外兼容 REGISTRY/PORT。
func bindEnv(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		names := []string{key, envPrefix + "_" + strings.ToUpper(key)}
		for field, legacy := range legacyEnvKeys {
			if strings.EqualFold(field, key) {
				names = append(names, legacy)
			}
		}
		if err := v.BindEnv(names...); err != nil {
			return err
		}
	}
	return nil
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = defaultListenPort
	}
	if strings.TrimSpace(g.Registry) == "" {
		g.Registry = defaultRegistry
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
}

func applyCacheDefaults(c *CacheConfig) {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = "lru"
	}
	if c.MetadataSize == 0 {
		c.MetadataSize = 1000
	}
	if c.MetadataTTL.DurationValue() == 0 {
		c.MetadataTTL = Duration(5 * time.Minute)
	}
	if c.PackageSize == 0 {
		c.PackageSize = 500
	}
	if c.PackageTTL.DurationValue() == 0 {
		c.PackageTTL = Duration(time.Hour)
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
