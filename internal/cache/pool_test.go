package cache

import (
	"errors"
	"testing"
	"time"
)

type sample struct {
	Name  string            `msgpack:"name"`
	Files map[string][]byte `msgpack:"files"`
}

var allBackends = []string{BackendLRU, BackendRistretto, BackendBigCache}

func newTestPool(t *testing.T, backend string, capacity int, ttl time.Duration) Pool[sample] {
	t.Helper()
	pool, err := NewPool[sample](backend, Options{Name: "test", Capacity: capacity, TTL: ttl})
	if err != nil {
		t.Fatalf("创建 %s 缓存池失败: %v", backend, err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestPoolSetAndGet(t *testing.T) {
	for _, backend := range allBackends {
		t.Run(backend, func(t *testing.T) {
			pool := newTestPool(t, backend, 100, time.Minute)
			value := sample{Name: "left-pad", Files: map[string][]byte{"index.js": []byte("module.exports = 1")}}
			if err := pool.Set("package:left-pad@1.3.0", value); err != nil {
				t.Fatalf("写入失败: %v", err)
			}

			got, err := pool.Get("package:left-pad@1.3.0")
			if err != nil {
				t.Fatalf("读取失败: %v", err)
			}
			if got.Name != "left-pad" || string(got.Files["index.js"]) != "module.exports = 1" {
				t.Fatalf("缓存内容不一致: %+v", got)
			}

			stats := pool.Stats()
			if stats.Backend != backend || stats.Hits != 1 || stats.Writes != 1 {
				t.Fatalf("统计不正确: %+v", stats)
			}
		})
	}
}

func TestPoolMissReturnsErrNotFound(t *testing.T) {
	for _, backend := range allBackends {
		t.Run(backend, func(t *testing.T) {
			pool := newTestPool(t, backend, 10, time.Minute)
			if _, err := pool.Get("metadata:missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("期望 ErrNotFound，得到 %v", err)
			}
			if pool.Stats().Misses != 1 {
				t.Fatalf("miss 计数应为 1")
			}
		})
	}
}

func TestPoolRemove(t *testing.T) {
	for _, backend := range allBackends {
		t.Run(backend, func(t *testing.T) {
			pool := newTestPool(t, backend, 10, time.Minute)
			_ = pool.Set("k", sample{Name: "x"})
			pool.Remove("k")
			if _, err := pool.Get("k"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("删除后应读取不到，得到 %v", err)
			}
		})
	}
}

func TestLRUPoolEvictsLeastRecentlyUsed(t *testing.T) {
	pool := newTestPool(t, BackendLRU, 2, time.Minute)
	_ = pool.Set("a", sample{Name: "a"})
	_ = pool.Set("b", sample{Name: "b"})
	if _, err := pool.Get("a"); err != nil {
		t.Fatalf("a 应命中: %v", err)
	}
	_ = pool.Set("c", sample{Name: "c"})

	if _, err := pool.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("b 应被淘汰")
	}
	if _, err := pool.Get("a"); err != nil {
		t.Fatalf("a 最近使用过，应保留")
	}
	if pool.Len() != 2 {
		t.Fatalf("容量上限应为 2，得到 %d", pool.Len())
	}
	if pool.Stats().Evictions != 1 {
		t.Fatalf("淘汰计数应为 1，得到 %d", pool.Stats().Evictions)
	}
}

func TestLRUPoolExpiresEntries(t *testing.T) {
	pool := newTestPool(t, BackendLRU, 10, 20*time.Millisecond)
	_ = pool.Set("a", sample{Name: "a"})
	time.Sleep(50 * time.Millisecond)
	if _, err := pool.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("过期条目不应返回")
	}
}

func TestBigCachePoolHonoursEnvelopeExpiry(t *testing.T) {
	pool, err := newBigCachePool[sample](Options{Name: "test", Capacity: 10, TTL: time.Minute})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	now := time.Now()
	pool.now = func() time.Time { return now }
	_ = pool.Set("a", sample{Name: "a"})

	pool.now = func() time.Time { return now.Add(59 * time.Second) }
	if _, err := pool.Get("a"); err != nil {
		t.Fatalf("TTL 内应命中: %v", err)
	}

	pool.now = func() time.Time { return now.Add(time.Minute) }
	if _, err := pool.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("到达 TTL 后应视为不存在，得到 %v", err)
	}
}

func TestNewPoolRejectsUnknownBackend(t *testing.T) {
	_, err := NewPool[sample]("redis", Options{Name: "x", Capacity: 1, TTL: time.Second})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("期望 ErrUnknownBackend，得到 %v", err)
	}
}

func TestNewPoolRejectsZeroCapacity(t *testing.T) {
	if _, err := NewPool[sample](BackendLRU, Options{Name: "x", TTL: time.Second}); err == nil {
		t.Fatalf("容量为 0 应返回错误")
	}
}

func TestEnvelopeRejectsShortInput(t *testing.T) {
	if _, _, err := decodeEnvelope[sample]([]byte{1, 2}); err == nil {
		t.Fatalf("过短的数据应解码失败")
	}
}
