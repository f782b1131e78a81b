package npm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/any-hub/any-cdn/internal/cache"
	"github.com/any-hub/any-cdn/internal/logging"
)

// Store 是 Client 使用的两级缓存。
type Store = cache.Manager[*Metadata, *Contents]

// ClientOptions 控制回源行为。
type ClientOptions struct {
	Registry       string
	UserAgent      string
	MaxTarballSize int64
	// CoalesceFetches 为 true 时，同一缓存键的并发未命中只回源一次。
	CoalesceFetches bool
}

// Client 以读穿透方式获取包元数据与包内容。
type Client struct {
	http     *http.Client
	store    *Store
	logger   *logrus.Logger
	registry string
	agent    string
	maxSize  int64
	group    *singleflight.Group
}

// NewClient 组合共享 http.Client、缓存与日志。
func NewClient(httpClient *http.Client, store *Store, logger *logrus.Logger, opts ClientOptions) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Client{
		http:     httpClient,
		store:    store,
		logger:   logger,
		registry: strings.TrimRight(opts.Registry, "/"),
		agent:    opts.UserAgent,
		maxSize:  opts.MaxTarballSize,
	}
	if opts.CoalesceFetches {
		c.group = &singleflight.Group{}
	}
	return c
}

// Metadata 返回包元数据，优先读缓存。
// registry 返回 404 时为 NotFound，其余失败均为内部错误。
func (c *Client) Metadata(ctx context.Context, name string) (*Metadata, error) {
	if meta, ok := c.cachedMetadata(name); ok {
		return meta, nil
	}
	v, err := c.coalesce(ctx, cache.MetadataKey(name), func(ctx context.Context) (any, error) {
		return c.fetchMetadata(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Metadata), nil
}

// Package 返回 name@version 解包后的内容，tarball 地址取自 meta。
func (c *Client) Package(ctx context.Context, name, version string, meta *Metadata) (*Contents, error) {
	if contents, ok := c.cachedPackage(name, version); ok {
		return contents, nil
	}
	v, err := c.coalesce(ctx, cache.PackageKey(name, version), func(ctx context.Context) (any, error) {
		return c.fetchPackage(ctx, name, version, meta)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Contents), nil
}

// coalesce 在开启合并时让同一 key 的并发未命中共享一次回源。
// 共享回源不随发起者的 ctx 取消，每个调用方只按自己的 ctx 放弃等待。
func (c *Client) coalesce(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if c.group == nil {
		return fn(ctx)
	}
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(shared)
	})
	select {
	case <-ctx.Done():
		return nil, Internal(ctx.Err(), "wait for %s", key)
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (c *Client) cachedMetadata(name string) (*Metadata, bool) {
	meta, err := c.store.Metadata(name)
	if err != nil {
		c.logCacheError("metadata", name, err)
		return nil, false
	}
	return meta, true
}

func (c *Client) cachedPackage(name, version string) (*Contents, bool) {
	contents, err := c.store.Package(name, version)
	if err != nil {
		c.logCacheError("package", name+"@"+version, err)
		return nil, false
	}
	return contents, true
}

func (c *Client) fetchMetadata(ctx context.Context, name string) (*Metadata, error) {
	url := c.registry + "/" + name
	resp, err := c.get(ctx, "metadata", url)
	if err != nil {
		return nil, Internal(err, "fetch metadata for %s", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NotFound("package not found: %s", name)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Internal(nil, "registry returned status %d for %s", resp.StatusCode, name)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, Internal(err, "decode metadata for %s", name)
	}
	if doc == nil {
		return nil, Internal(nil, "empty metadata for %s", name)
	}

	meta := &Metadata{Name: name, Doc: doc}
	if err := c.store.SetMetadata(name, meta); err != nil {
		c.logCacheError("metadata", name, err)
	}
	return meta, nil
}

func (c *Client) fetchPackage(ctx context.Context, name, version string, meta *Metadata) (*Contents, error) {
	tarball, ok := meta.Tarball(version)
	if !ok {
		return nil, NotFound("version %s not found for %s", version, name)
	}

	resp, err := c.get(ctx, "tarball", tarball)
	if err != nil {
		return nil, Internal(err, "download tarball for %s@%s", name, version)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Internal(nil, "tarball returned status %d for %s@%s", resp.StatusCode, name, version)
	}
	if c.maxSize > 0 && resp.ContentLength > c.maxSize {
		return nil, Internal(ErrTarballTooLarge, "download tarball for %s@%s", name, version)
	}
	data, err := readLimited(resp.Body, c.maxSize)
	if err != nil {
		return nil, Internal(err, "download tarball for %s@%s", name, version)
	}

	files, err := extractTarball(data)
	if err != nil {
		return nil, Internal(err, "extract tarball for %s@%s", name, version)
	}
	manifestRaw, ok := files["package.json"]
	if !ok {
		return nil, Internal(nil, "package.json not found in tarball")
	}
	var manifest Document
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		return nil, Internal(err, "parse package.json for %s@%s", name, version)
	}

	c.logger.WithFields(logrus.Fields{
		"package": name,
		"version": version,
		"files":   len(files),
		"bytes":   len(data),
	}).Debug("tarball_extracted")

	contents := &Contents{Name: name, Version: version, Files: files, Manifest: manifest}
	if err := c.store.SetPackage(name, version, contents); err != nil {
		c.logCacheError("package", name+"@"+version, err)
	}
	return contents, nil
}

func (c *Client) get(ctx context.Context, kind, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if kind == "metadata" {
		req.Header.Set("Accept", "application/json")
	}
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithFields(logging.UpstreamFields(kind, url, 0, time.Since(started))).
			WithError(err).Warn("upstream_failed")
		return nil, err
	}
	c.logger.WithFields(logging.UpstreamFields(kind, url, resp.StatusCode, time.Since(started))).
		Debug("upstream_fetched")
	return resp, nil
}

func (c *Client) logCacheError(pool, key string, err error) {
	if errors.Is(err, cache.ErrNotFound) {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"action": "cache",
		"pool":   pool,
		"key":    key,
	}).WithError(err).Warn("cache_error")
}
