package cache

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// ErrNotFound 表示缓存不存在或已过期。
var ErrNotFound = errors.New("cache entry not found")

// ErrUnknownBackend 表示配置中的后端名称无法识别。
var ErrUnknownBackend = errors.New("unknown cache backend")

const (
	BackendLRU       = "lru"
	BackendRistretto = "ristretto"
	BackendBigCache  = "bigcache"
)

// Pool 是单个缓存池的最小读写接口。
type Pool[V any] interface {
	// Get 返回未过期的值；不存在时返回 ErrNotFound。
	Get(key string) (V, error)
	// Set 写入或覆盖条目，TTL 从本次写入开始计算。
	Set(key string, value V) error
	Remove(key string)
	Len() int
	Stats() Stats
	Close() error
}

// Options 描述一个缓存池的容量与过期策略。
type Options struct {
	Name     string
	Capacity int
	TTL      time.Duration
	// MaxSizeMB 仅对 bigcache 生效，0 表示不限制。
	MaxSizeMB int
}

// Stats 是缓存池的累计计数，供诊断接口输出。
type Stats struct {
	Name      string `json:"name"`
	Backend   string `json:"backend"`
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
	TTL       string `json:"ttl"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Writes    uint64 `json:"writes"`
	Evictions uint64 `json:"evictions"`
}

// NewPool 按后端名称构造缓存池。
func NewPool[V any](backend string, opts Options) (Pool[V], error) {
	if opts.Capacity <= 0 {
		return nil, fmt.Errorf("cache %s: capacity must be positive", opts.Name)
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("cache %s: ttl must be positive", opts.Name)
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendLRU:
		return newLRUPool[V](opts), nil
	case BackendRistretto:
		return newRistrettoPool[V](opts)
	case BackendBigCache:
		return newBigCachePool[V](opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

// counters 由各后端共享，负责命中/写入/淘汰的原子计数。
type counters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	writes    atomic.Uint64
	evictions atomic.Uint64
}

func (c *counters) snapshot(backend string, opts Options, entries int) Stats {
	return Stats{
		Name:      opts.Name,
		Backend:   backend,
		Entries:   entries,
		Capacity:  opts.Capacity,
		TTL:       opts.TTL.String(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Writes:    c.writes.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *counters) hit()  { c.hits.Add(1) }
func (c *counters) miss() { c.misses.Add(1) }
