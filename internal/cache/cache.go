// Package cache keeps the hot article listing in Redis so dashboard loads
// do not hit Postgres on every request. The cache is best-effort: any
// Redis failure is treated as a miss and logged, never surfaced.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prajxal/fakenews-api/pkg/models"
)

const listKey = "articles:recent"

type ArticleCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewArticleCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *ArticleCache {
	return &ArticleCache{rdb: rdb, ttl: ttl, log: log}
}

// GetList returns the cached listing and whether it was present.
func (c *ArticleCache) GetList(ctx context.Context) ([]*models.ArticleView, bool) {
	raw, err := c.rdb.Get(ctx, listKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("article cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var out []*models.ArticleView
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("article cache decode failed", zap.Error(err))
		return nil, false
	}
	return out, true
}

// SetList stores the listing with the configured TTL.
func (c *ArticleCache) SetList(ctx context.Context, articles []*models.ArticleView) {
	raw, err := json.Marshal(articles)
	if err != nil {
		c.log.Warn("article cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, listKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("article cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached listing. Called after every submission so a
// fresh article shows up on the next dashboard load.
func (c *ArticleCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, listKey).Err(); err != nil {
		c.log.Warn("article cache invalidate failed", zap.Error(err))
	}
}
