package domain

import "context"

type SeriesRepository interface {
	Save(ctx context.Context, series *Series) error
	FindBySeriesID(ctx context.Context, seriesID string) (*Series, error)
	List(ctx context.Context, limit, offset int) ([]*Series, int64, error)
	// WithTx 在单个事务中执行 fn。fn 收到的 ctx 携带事务句柄，
	// 同一存储上的其他仓储经由该 ctx 加入同一事务；fn 出错则整体回滚。
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type WriterLockRepository interface {
	Save(ctx context.Context, lock *WriterLock) error
	// FindBySeriesAndAccount 未找到时返回 (nil, nil)
	FindBySeriesAndAccount(ctx context.Context, seriesID, account string) (*WriterLock, error)
	ListBySeries(ctx context.Context, seriesID string) ([]*WriterLock, error)
}

type RecordRepository interface {
	SaveExercise(ctx context.Context, record *ExerciseRecord) error
	SaveWithdrawal(ctx context.Context, record *WithdrawalRecord) error
	ListExercises(ctx context.Context, seriesID string, limit, offset int) ([]*ExerciseRecord, int64, error)
	ListWithdrawals(ctx context.Context, seriesID string, limit, offset int) ([]*WithdrawalRecord, int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event Event) error
}
