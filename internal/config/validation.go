package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

var supportedCacheBackends = map[string]struct{}{
	"lru":       {},
	"ristretto": {},
	"bigcache":  {},
}

const supportedCacheBackendList = "lru|ristretto|bigcache"

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if err := validateRegistry(g.Registry); err != nil {
		return fmt.Errorf("Global.Registry: %w", err)
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别: "+g.LogLevel)
	}
	if g.UpstreamTimeout.DurationValue() < 0 {
		return newFieldError("Global.UpstreamTimeout", "不能为负数")
	}
	if g.MaxTarballSize < 0 {
		return newFieldError("Global.MaxTarballSize", "不能为负数")
	}

	cc := c.Cache
	backend := strings.ToLower(strings.TrimSpace(cc.Backend))
	if _, ok := supportedCacheBackends[backend]; !ok {
		return newFieldError(cacheField("Backend"), "仅支持 "+supportedCacheBackendList)
	}
	c.Cache.Backend = backend

	if cc.MetadataSize <= 0 {
		return newFieldError(cacheField("MetadataCacheSize"), "必须大于 0")
	}
	if cc.PackageSize <= 0 {
		return newFieldError(cacheField("PackageCacheSize"), "必须大于 0")
	}
	if cc.MetadataTTL.DurationValue() <= 0 {
		return newFieldError(cacheField("MetadataCacheTTL"), "必须大于 0")
	}
	if cc.PackageTTL.DurationValue() <= 0 {
		return newFieldError(cacheField("PackageCacheTTL"), "必须大于 0")
	}
	if cc.MaxSizeMB < 0 {
		return newFieldError(cacheField("CacheMaxSizeMB"), "不能为负数")
	}

	return nil
}

func validateRegistry(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("缺少 Registry 地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，Registry: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("Registry 缺少 Host: %s", raw)
	}
	return nil
}
