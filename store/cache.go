package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/santiagomed/pagegen/logger"
)

const cacheKeyPrefix = "pagegen:template:"

// NewRedis creates a redis client for addr.
func NewRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// CachedTemplates is a read-through redis cache in front of a Repository.
// Cache failures fall back to the repository.
type CachedTemplates struct {
	repo   Repository
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedTemplates(repo Repository, client redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedTemplates {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &CachedTemplates{repo: repo, client: client, ttl: ttl, logger: log}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, id)
}

func (c *CachedTemplates) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	key := cacheKey(id)
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var t Template
		if err := json.Unmarshal(data, &t); err == nil {
			return &t, nil
		}
		c.logger.WithField("key", key).Warn("Discarding unreadable cached template")
	case !errors.Is(err, redis.Nil):
		c.logger.WithField("error", err).Warn("Template cache read failed")
	}

	t, err := c.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err = json.Marshal(t)
	if err != nil {
		return t, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithField("error", err).Warn("Template cache write failed")
	}
	return t, nil
}

func (c *CachedTemplates) ListTemplates(ctx context.Context, pageType string) ([]*Template, error) {
	return c.repo.ListTemplates(ctx, pageType)
}

func (c *CachedTemplates) SaveTemplate(ctx context.Context, t *Template) (int64, error) {
	id, err := c.repo.SaveTemplate(ctx, t)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, id)
	return id, nil
}

func (c *CachedTemplates) DeleteTemplate(ctx context.Context, id int64) error {
	if err := c.repo.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedTemplates) invalidate(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.WithField("error", err).Warn("Template cache invalidation failed")
	}
}
