package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// ristrettoPool 每个条目计 1 个 cost，MaxCost 即条目上限；准入由 TinyLFU 决定，
// 写入在 Wait 之后才对读可见。
type ristrettoPool[V any] struct {
	opts  Options
	inner *ristretto.Cache
	counters
}

func newRistrettoPool[V any](opts Options) (*ristrettoPool[V], error) {
	p := &ristrettoPool[V]{opts: opts}
	onEvict := func(*ristretto.Item) { p.evictions.Add(1) }
	inner, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(opts.Capacity) * 10,
		MaxCost:            int64(opts.Capacity),
		BufferItems:        64,
		IgnoreInternalCost: true,
		Metrics:            true,
		OnEvict:            onEvict,
	})
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w", opts.Name, err)
	}
	p.inner = inner
	return p, nil
}

func (p *ristrettoPool[V]) Get(key string) (V, error) {
	var zero V
	raw, ok := p.inner.Get(key)
	if !ok {
		p.miss()
		return zero, ErrNotFound
	}
	value, ok := raw.(V)
	if !ok {
		p.miss()
		return zero, ErrNotFound
	}
	p.hit()
	return value, nil
}

func (p *ristrettoPool[V]) Set(key string, value V) error {
	if !p.inner.SetWithTTL(key, value, 1, p.opts.TTL) {
		// 被缓冲区丢弃或准入拒绝，等同于未缓存。
		return nil
	}
	p.inner.Wait()
	p.writes.Add(1)
	return nil
}

func (p *ristrettoPool[V]) Remove(key string) { p.inner.Del(key) }

// Len 由 ristretto 的新增/淘汰计数推算，是近似值。
func (p *ristrettoPool[V]) Len() int {
	if p.inner.Metrics == nil {
		return 0
	}
	added := p.inner.Metrics.KeysAdded()
	evicted := p.inner.Metrics.KeysEvicted()
	if evicted > added {
		return 0
	}
	return int(added - evicted)
}

func (p *ristrettoPool[V]) Stats() Stats {
	return p.snapshot(BackendRistretto, p.opts, p.Len())
}

func (p *ristrettoPool[V]) Close() error {
	p.inner.Close()
	return nil
}
