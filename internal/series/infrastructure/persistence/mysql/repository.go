// Package mysql 期权系列 MySQL 仓储实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/quantfabric/optionvault/internal/series/domain"
	"github.com/quantfabric/optionvault/pkg/contextx"
)

// getDB 优先使用 ctx 携带的事务句柄
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db
}

type SeriesRepositoryImpl struct {
	db *gorm.DB
}

func NewSeriesRepository(db *gorm.DB) domain.SeriesRepository {
	return &SeriesRepositoryImpl{db: db}
}

func (r *SeriesRepositoryImpl) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *SeriesRepositoryImpl) Save(ctx context.Context, series *domain.Series) error {
	return getDB(ctx, r.db).WithContext(ctx).Save(series).Error
}

func (r *SeriesRepositoryImpl) FindBySeriesID(ctx context.Context, seriesID string) (*domain.Series, error) {
	var series domain.Series
	err := getDB(ctx, r.db).WithContext(ctx).Where("series_id = ?", seriesID).First(&series).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSeriesNotFound
	}
	if err != nil {
		return nil, err
	}
	return &series, nil
}

func (r *SeriesRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*domain.Series, int64, error) {
	var list []*domain.Series
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Series{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, total, err
}

type WriterLockRepositoryImpl struct {
	db *gorm.DB
}

func NewWriterLockRepository(db *gorm.DB) domain.WriterLockRepository {
	return &WriterLockRepositoryImpl{db: db}
}

func (r *WriterLockRepositoryImpl) Save(ctx context.Context, lock *domain.WriterLock) error {
	return getDB(ctx, r.db).WithContext(ctx).Save(lock).Error
}

func (r *WriterLockRepositoryImpl) FindBySeriesAndAccount(ctx context.Context, seriesID, account string) (*domain.WriterLock, error) {
	var lock domain.WriterLock
	err := getDB(ctx, r.db).WithContext(ctx).
		Where("series_id = ? AND account = ?", seriesID, account).
		First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *WriterLockRepositoryImpl) ListBySeries(ctx context.Context, seriesID string) ([]*domain.WriterLock, error) {
	var locks []*domain.WriterLock
	err := r.db.WithContext(ctx).Where("series_id = ?", seriesID).Find(&locks).Error
	return locks, err
}

type RecordRepositoryImpl struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) domain.RecordRepository {
	return &RecordRepositoryImpl{db: db}
}

func (r *RecordRepositoryImpl) SaveExercise(ctx context.Context, record *domain.ExerciseRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *RecordRepositoryImpl) SaveWithdrawal(ctx context.Context, record *domain.WithdrawalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *RecordRepositoryImpl) ListExercises(ctx context.Context, seriesID string, limit, offset int) ([]*domain.ExerciseRecord, int64, error) {
	var list []*domain.ExerciseRecord
	var total int64
	q := r.db.WithContext(ctx).Model(&domain.ExerciseRecord{}).Where("series_id = ?", seriesID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("exercised_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *RecordRepositoryImpl) ListWithdrawals(ctx context.Context, seriesID string, limit, offset int) ([]*domain.WithdrawalRecord, int64, error) {
	var list []*domain.WithdrawalRecord
	var total int64
	q := r.db.WithContext(ctx).Model(&domain.WithdrawalRecord{}).Where("series_id = ?", seriesID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("withdrawn_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
