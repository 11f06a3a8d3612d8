package application

import (
	"context"
	"time"

	"github.com/quantfabric/optionvault/internal/series/domain"
)

// SeriesQueryService 查询侧应用服务，只读，不触发状态迁移
type SeriesQueryService struct {
	seriesRepo domain.SeriesRepository
	lockRepo   domain.WriterLockRepository
	recordRepo domain.RecordRepository
	ledgers    domain.LedgerProvider
}

func NewSeriesQueryService(
	seriesRepo domain.SeriesRepository,
	lockRepo domain.WriterLockRepository,
	recordRepo domain.RecordRepository,
	ledgers domain.LedgerProvider,
) *SeriesQueryService {
	return &SeriesQueryService{
		seriesRepo: seriesRepo,
		lockRepo:   lockRepo,
		recordRepo: recordRepo,
		ledgers:    ledgers,
	}
}

// SeriesDTO 对外的系列视图，金额以十进制字符串表示
type SeriesDTO struct {
	SeriesID           string    `json:"series_id"`
	Name               string    `json:"name"`
	Symbol             string    `json:"symbol"`
	Variant            string    `json:"variant"`
	Owner              string    `json:"owner"`
	UnderlyingAsset    string    `json:"underlying_asset"`
	StrikeAsset        string    `json:"strike_asset"`
	StrikePrice        string    `json:"strike_price"`
	PriceDecimals      int32     `json:"price_decimals"`
	UnderlyingDecimals int32     `json:"underlying_decimals"`
	StrikeDecimals     int32     `json:"strike_decimals"`
	OptionDecimals     int32     `json:"option_decimals"`
	ExpiresAt          time.Time `json:"expires_at"`
	TestMode           bool      `json:"test_mode"`
	State              string    `json:"state"`
	Expired            bool      `json:"expired"`
	TotalLocked        string    `json:"total_locked"`
	UnderlyingBalance  string    `json:"underlying_balance"`
	StrikeBalance      string    `json:"strike_balance"`
}

func (q *SeriesQueryService) GetSeries(ctx context.Context, seriesID string) (*SeriesDTO, error) {
	series, err := q.seriesRepo.FindBySeriesID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	return toSeriesDTO(series), nil
}

func (q *SeriesQueryService) ListSeries(ctx context.Context, limit, offset int) ([]*SeriesDTO, int64, error) {
	list, total, err := q.seriesRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]*SeriesDTO, 0, len(list))
	for _, s := range list {
		dtos = append(dtos, toSeriesDTO(s))
	}
	return dtos, total, nil
}

func (q *SeriesQueryService) HasExpired(ctx context.Context, seriesID string) (bool, error) {
	series, err := q.seriesRepo.FindBySeriesID(ctx, seriesID)
	if err != nil {
		return false, err
	}
	return series.HasExpired(time.Now()), nil
}

// LockedBalance 某账户在该系列中锁定且未取回的抵押数量
func (q *SeriesQueryService) LockedBalance(ctx context.Context, seriesID, account string) (string, error) {
	lock, err := q.lockRepo.FindBySeriesAndAccount(ctx, seriesID, account)
	if err != nil {
		return "", err
	}
	if lock == nil {
		return "0", nil
	}
	return lock.Amount.String(), nil
}

// OptionBalance 某账户持有的期权代币数量
func (q *SeriesQueryService) OptionBalance(ctx context.Context, seriesID, account string) (string, error) {
	optionToken, err := q.ledgers.OptionToken(seriesID)
	if err != nil {
		return "", err
	}
	balance, err := optionToken.BalanceOf(ctx, account)
	if err != nil {
		return "", err
	}
	return balance.String(), nil
}

func (q *SeriesQueryService) ListExercises(ctx context.Context, seriesID string, limit, offset int) ([]*domain.ExerciseRecord, int64, error) {
	return q.recordRepo.ListExercises(ctx, seriesID, limit, offset)
}

func (q *SeriesQueryService) ListWithdrawals(ctx context.Context, seriesID string, limit, offset int) ([]*domain.WithdrawalRecord, int64, error) {
	return q.recordRepo.ListWithdrawals(ctx, seriesID, limit, offset)
}

func toSeriesDTO(s *domain.Series) *SeriesDTO {
	return &SeriesDTO{
		SeriesID:           s.SeriesID,
		Name:               s.Name,
		Symbol:             s.Symbol,
		Variant:            string(s.Variant),
		Owner:              s.Owner,
		UnderlyingAsset:    s.UnderlyingAsset,
		StrikeAsset:        s.StrikeAsset,
		StrikePrice:        s.StrikePrice.String(),
		PriceDecimals:      s.PriceDecimals,
		UnderlyingDecimals: s.UnderlyingDecimals,
		StrikeDecimals:     s.StrikeDecimals,
		OptionDecimals:     s.Decimals(),
		ExpiresAt:          s.ExpiresAt,
		TestMode:           s.TestMode,
		State:              s.State.String(),
		Expired:            s.HasExpired(time.Now()),
		TotalLocked:        s.TotalLocked.String(),
		UnderlyingBalance:  s.UnderlyingPool.String(),
		StrikeBalance:      s.StrikePool.String(),
	}
}
