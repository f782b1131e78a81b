package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// bigcachePool 把值编码为字节存入分片环形缓冲，适合大体积 package 内容。
// bigcache 只按时间窗口批量清理，因此读取时还要检查信封里的过期时间。
// 容量满时按写入先后淘汰最旧条目，读取不会刷新顺序，只是近似 LRU。
type bigcachePool[V any] struct {
	opts  Options
	inner *bigcache.BigCache
	now   func() time.Time
	counters
}

func newBigCachePool[V any](opts Options) (*bigcachePool[V], error) {
	p := &bigcachePool[V]{opts: opts, now: time.Now}

	cfg := bigcache.DefaultConfig(opts.TTL)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = opts.Capacity
	cfg.MaxEntrySize = 4096
	cfg.HardMaxCacheSize = opts.MaxSizeMB
	cfg.CleanWindow = cleanWindow(opts.TTL)
	cfg.Verbose = false
	cfg.OnRemoveWithReason = func(_ string, _ []byte, reason bigcache.RemoveReason) {
		if reason != bigcache.Deleted {
			p.evictions.Add(1)
		}
	}

	inner, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w", opts.Name, err)
	}
	p.inner = inner
	return p, nil
}

func cleanWindow(ttl time.Duration) time.Duration {
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func (p *bigcachePool[V]) Get(key string) (V, error) {
	var zero V
	raw, err := p.inner.Get(key)
	if err != nil {
		p.miss()
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	value, expires, err := decodeEnvelope[V](raw)
	if err != nil {
		p.miss()
		_ = p.inner.Delete(key)
		return zero, fmt.Errorf("cache %s: decode %s: %w", p.opts.Name, key, err)
	}
	if !p.now().Before(expires) {
		p.miss()
		if p.inner.Delete(key) == nil {
			p.evictions.Add(1)
		}
		return zero, ErrNotFound
	}
	p.hit()
	return value, nil
}

func (p *bigcachePool[V]) Set(key string, value V) error {
	raw, err := encodeEnvelope(value, p.now().Add(p.opts.TTL))
	if err != nil {
		return fmt.Errorf("cache %s: encode %s: %w", p.opts.Name, key, err)
	}
	if err := p.inner.Set(key, raw); err != nil {
		return fmt.Errorf("cache %s: %w", p.opts.Name, err)
	}
	p.writes.Add(1)
	return nil
}

func (p *bigcachePool[V]) Remove(key string) { _ = p.inner.Delete(key) }

func (p *bigcachePool[V]) Len() int { return p.inner.Len() }

func (p *bigcachePool[V]) Stats() Stats {
	return p.snapshot(BackendBigCache, p.opts, p.inner.Len())
}

func (p *bigcachePool[V]) Close() error { return p.inner.Close() }
