package cache

import (
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// lruPool 基于 expirable LRU：容量满时淘汰最久未使用的条目，过期条目在读取时不可见。
// 淘汰计数包含容量淘汰、过期清理与显式 Remove。
type lruPool[V any] struct {
	opts  Options
	inner *expirable.LRU[string, V]
	counters
}

func newLRUPool[V any](opts Options) *lruPool[V] {
	p := &lruPool[V]{opts: opts}
	p.inner = expirable.NewLRU[string, V](opts.Capacity, func(string, V) {
		p.evictions.Add(1)
	}, opts.TTL)
	return p
}

func (p *lruPool[V]) Get(key string) (V, error) {
	value, ok := p.inner.Get(key)
	if !ok {
		p.miss()
		var zero V
		return zero, ErrNotFound
	}
	p.hit()
	return value, nil
}

func (p *lruPool[V]) Set(key string, value V) error {
	// 已存在的键会被移到队首并刷新过期时间。
	p.inner.Add(key, value)
	p.writes.Add(1)
	return nil
}

func (p *lruPool[V]) Remove(key string) {
	p.inner.Remove(key)
}

func (p *lruPool[V]) Len() int { return p.inner.Len() }

func (p *lruPool[V]) Stats() Stats {
	return p.snapshot(BackendLRU, p.opts, p.inner.Len())
}

func (p *lruPool[V]) Close() error {
	p.inner.Purge()
	return nil
}
