package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache stores encoded survey reports by survey id.
type ReportCache interface {
	Get(ctx context.Context, surveyID uint) ([]byte, bool, error)
	Set(ctx context.Context, surveyID uint, data []byte) error
	Invalidate(ctx context.Context, surveyID uint) error
}

type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a redis backed report cache. Entries expire after
// ttl even when no submission invalidates them.
func NewReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	return &reportCache{client: client, ttl: ttl}
}

// Key returns the redis key of a survey report.
func Key(surveyID uint) string {
	return fmt.Sprintf("enquete:report:%d", surveyID)
}

func (c *reportCache) Get(ctx context.Context, surveyID uint) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, Key(surveyID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *reportCache) Set(ctx context.Context, surveyID uint, data []byte) error {
	return c.client.Set(ctx, Key(surveyID), data, c.ttl).Err()
}

func (c *reportCache) Invalidate(ctx context.Context, surveyID uint) error {
	return c.client.Del(ctx, Key(surveyID)).Err()
}

// Connect opens a redis client and checks it answers.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

type noopCache struct{}

// NewNoopReportCache returns a cache that never holds anything. It is used
// when no redis address is configured.
func NewNoopReportCache() ReportCache {
	return noopCache{}
}

func (noopCache) Get(context.Context, uint) ([]byte, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, uint, []byte) error         { return nil }
func (noopCache) Invalidate(context.Context, uint) error          { return nil }
