// Package persistence 组合仓储：MySQL 为准，Redis 作读穿透缓存
package persistence

import (
	"context"
	"log/slog"

	"github.com/quantfabric/optionvault/internal/series/domain"
	"github.com/quantfabric/optionvault/internal/series/infrastructure/persistence/redis"
	"github.com/quantfabric/optionvault/pkg/contextx"
)

type CompositeSeriesRepository struct {
	primary domain.SeriesRepository
	cache   *redis.SeriesRedisRepository
	logger  *slog.Logger
}

// NewCompositeSeriesRepository 创建组合仓储。cache 可为 nil，此时退化为纯 MySQL。
func NewCompositeSeriesRepository(primary domain.SeriesRepository, cache *redis.SeriesRedisRepository, logger *slog.Logger) domain.SeriesRepository {
	return &CompositeSeriesRepository{
		primary: primary,
		cache:   cache,
		logger:  logger.With("module", "series_repository"),
	}
}

func (r *CompositeSeriesRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.primary.WithTx(ctx, fn)
}

func (r *CompositeSeriesRepository) Save(ctx context.Context, series *domain.Series) error {
	if err := r.primary.Save(ctx, series); err != nil {
		return err
	}
	if r.cache == nil {
		return nil
	}
	// 事务尚未提交，只作失效处理，提交后由读穿透回填
	if contextx.GetTx(ctx) != nil {
		if err := r.cache.Delete(ctx, series.SeriesID); err != nil {
			r.logger.WarnContext(ctx, "failed to invalidate series cache",
				"series_id", series.SeriesID, "error", err)
		}
		return nil
	}
	if err := r.cache.Save(ctx, series); err != nil {
		// 回写失败必须删除旧条目，避免后续读到滞后状态
		r.logger.WarnContext(ctx, "failed to refresh series cache",
			"series_id", series.SeriesID, "error", err)
		if derr := r.cache.Delete(ctx, series.SeriesID); derr != nil {
			r.logger.ErrorContext(ctx, "stale series cache entry could not be invalidated",
				"series_id", series.SeriesID, "error", derr)
		}
	}
	return nil
}

func (r *CompositeSeriesRepository) FindBySeriesID(ctx context.Context, seriesID string) (*domain.Series, error) {
	// 事务内的读取直接走主存储，缓存只服务查询路径
	if r.cache != nil && contextx.GetTx(ctx) == nil {
		if cached, err := r.cache.Get(ctx, seriesID); err == nil && cached != nil {
			return cached, nil
		}
	}
	series, err := r.primary.FindBySeriesID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if r.cache != nil && contextx.GetTx(ctx) == nil {
		if err := r.cache.Save(ctx, series); err != nil {
			r.logger.WarnContext(ctx, "failed to backfill series cache",
				"series_id", seriesID, "error", err)
		}
	}
	return series, nil
}

func (r *CompositeSeriesRepository) List(ctx context.Context, limit, offset int) ([]*domain.Series, int64, error) {
	return r.primary.List(ctx, limit, offset)
}
