package cache

import (
	"errors"
	"fmt"
	"time"
)

// Settings 汇总两个缓存池的配置，由 config.CacheConfig 转换而来。
type Settings struct {
	Backend      string
	MetadataSize int
	MetadataTTL  time.Duration
	PackageSize  int
	PackageTTL   time.Duration
	MaxSizeMB    int
}

// Manager 持有 metadata 与 package 两个相互独立的缓存池。
// M 为包元数据类型，P 为解包后的包内容类型。
type Manager[M any, P any] struct {
	backend  string
	metadata Pool[M]
	packages Pool[P]
}

// NewManager 根据 Settings 构造两个同后端的缓存池。
func NewManager[M any, P any](s Settings) (*Manager[M, P], error) {
	metadata, err := NewPool[M](s.Backend, Options{
		Name:      "metadata",
		Capacity:  s.MetadataSize,
		TTL:       s.MetadataTTL,
		MaxSizeMB: s.MaxSizeMB,
	})
	if err != nil {
		return nil, err
	}
	packages, err := NewPool[P](s.Backend, Options{
		Name:      "package",
		Capacity:  s.PackageSize,
		TTL:       s.PackageTTL,
		MaxSizeMB: s.MaxSizeMB,
	})
	if err != nil {
		_ = metadata.Close()
		return nil, err
	}
	backend := s.Backend
	if backend == "" {
		backend = BackendLRU
	}
	return &Manager[M, P]{backend: backend, metadata: metadata, packages: packages}, nil
}

// MetadataKey 返回包元数据的缓存键。
func MetadataKey(name string) string { return "metadata:" + name }

// PackageKey 返回具体版本包内容的缓存键。
func PackageKey(name, version string) string {
	return fmt.Sprintf("package:%s@%s", name, version)
}

func (m *Manager[M, P]) Metadata(name string) (M, error) {
	return m.metadata.Get(MetadataKey(name))
}

func (m *Manager[M, P]) SetMetadata(name string, value M) error {
	return m.metadata.Set(MetadataKey(name), value)
}

func (m *Manager[M, P]) Package(name, version string) (P, error) {
	return m.packages.Get(PackageKey(name, version))
}

func (m *Manager[M, P]) SetPackage(name, version string, value P) error {
	return m.packages.Set(PackageKey(name, version), value)
}

// Backend 返回实际使用的后端名称。
func (m *Manager[M, P]) Backend() string { return m.backend }

// Stats 依次返回 metadata 与 package 池的统计。
func (m *Manager[M, P]) Stats() []Stats {
	return []Stats{m.metadata.Stats(), m.packages.Stats()}
}

func (m *Manager[M, P]) Close() error {
	return errors.Join(m.metadata.Close(), m.packages.Close())
}
