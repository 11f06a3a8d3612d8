// Package redis 期权系列读模型缓存
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/quantfabric/optionvault/internal/series/domain"
)

type SeriesRedisRepository struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSeriesRedisRepository 创建基于 Redis 的系列读模型缓存。
// 命令路径不经过缓存，查询读到的状态最多滞后一个 TTL。
func NewSeriesRedisRepository(client goredis.UniversalClient) *SeriesRedisRepository {
	return &SeriesRedisRepository{
		client: client,
		prefix: "optionvault:series:",
		ttl:    30 * time.Second,
	}
}

func (r *SeriesRedisRepository) Save(ctx context.Context, series *domain.Series) error {
	if series == nil {
		return nil
	}
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}
	return r.client.Set(ctx, r.prefix+series.SeriesID, data, r.ttl).Err()
}

func (r *SeriesRedisRepository) Get(ctx context.Context, seriesID string) (*domain.Series, error) {
	if seriesID == "" {
		return nil, nil
	}
	data, err := r.client.Get(ctx, r.prefix+seriesID).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get series from redis: %w", err)
	}
	var series domain.Series
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("failed to unmarshal series: %w", err)
	}
	return &series, nil
}

func (r *SeriesRedisRepository) Delete(ctx context.Context, seriesID string) error {
	return r.client.Del(ctx, r.prefix+seriesID).Err()
}
