package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/any-cdn/internal/cache"
	"github.com/any-hub/any-cdn/internal/version"
)

// CacheStats 由 cache.Manager 实现，诊断接口只读取统计。
type CacheStats interface {
	Backend() string
	Stats() []cache.Stats
}

// RegisterCacheRoutes 暴露 /-/cache 诊断接口，返回两个缓存池的命中、写入与淘汰计数。
func RegisterCacheRoutes(app *fiber.App, stats CacheStats) {
	if app == nil || stats == nil {
		return
	}

	app.Get("/-/cache", func(c fiber.Ctx) error {
		return c.JSON(cachePayload{
			Backend: stats.Backend(),
			Version: version.Full(),
			Pools:   encodePools(stats.Stats()),
		})
	})

	app.Get("/-/cache/:pool", func(c fiber.Ctx) error {
		name := strings.ToLower(strings.TrimSpace(c.Params("pool")))
		for _, pool := range encodePools(stats.Stats()) {
			if pool.Name == name {
				return c.JSON(pool)
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "pool_not_found"})
	})
}

type cachePayload struct {
	Backend string        `json:"backend"`
	Version string        `json:"version"`
	Pools   []poolPayload `json:"pools"`
}

type poolPayload struct {
	cache.Stats
	HitRatio float64 `json:"hit_ratio"`
}

func encodePools(stats []cache.Stats) []poolPayload {
	if len(stats) == 0 {
		return nil
	}
	result := make([]poolPayload, 0, len(stats))
	for _, s := range stats {
		item := poolPayload{Stats: s}
		if total := s.Hits + s.Misses; total > 0 {
			item.HitRatio = float64(s.Hits) / float64(total)
		}
		result = append(result, item)
	}
	return result
}
