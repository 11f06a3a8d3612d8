// Package application 期权系列应用服务：编排领域操作、账本划转与事件发布
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfabric/optionvault/internal/series/domain"
)

const (
	TopicSeriesEvents = "optionvault.series.events"
)

// SeriesService 命令侧应用服务。
// 每个操作遵循同一顺序：先拉取入账资产，再在单个事务中变更并持久化
// 内部账目，最后才对外划转资产，保证重入时观察到的是已更新的状态。
// 事务失败时已拉取的资产原路退回。
type SeriesService struct {
	seriesRepo domain.SeriesRepository
	lockRepo   domain.WriterLockRepository
	recordRepo domain.RecordRepository
	ledgers    domain.LedgerProvider
	publisher  domain.EventPublisher
	logger     *slog.Logger
}

func NewSeriesService(
	seriesRepo domain.SeriesRepository,
	lockRepo domain.WriterLockRepository,
	recordRepo domain.RecordRepository,
	ledgers domain.LedgerProvider,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *SeriesService {
	return &SeriesService{
		seriesRepo: seriesRepo,
		lockRepo:   lockRepo,
		recordRepo: recordRepo,
		ledgers:    ledgers,
		publisher:  publisher,
		logger:     logger.With("module", "series_service"),
	}
}

// CreateSeries 创建新系列并登记其期权代币账本
func (s *SeriesService) CreateSeries(ctx context.Context, cmd CreateSeriesCmd) (string, error) {
	seriesID := fmt.Sprintf("SER-%s", uuid.NewString())
	series, err := domain.NewSeries(domain.NewSeriesParams{
		SeriesID:           seriesID,
		Name:               cmd.Name,
		Symbol:             cmd.Symbol,
		Variant:            cmd.Variant,
		Owner:              cmd.Owner,
		UnderlyingAsset:    cmd.UnderlyingAsset,
		StrikeAsset:        cmd.StrikeAsset,
		StrikePrice:        cmd.StrikePrice,
		PriceDecimals:      cmd.PriceDecimals,
		UnderlyingDecimals: cmd.UnderlyingDecimals,
		StrikeDecimals:     cmd.StrikeDecimals,
		ExpiresAt:          cmd.ExpiresAt,
		TestMode:           cmd.TestMode,
	})
	if err != nil {
		return "", err
	}

	if _, err := s.ledgers.CreateOptionToken(seriesID, cmd.Name, cmd.Symbol, series.Decimals()); err != nil {
		return "", err
	}
	if err := s.seriesRepo.Save(ctx, series); err != nil {
		return "", err
	}

	s.publish(ctx, seriesID, domain.SeriesCreatedEvent{
		SeriesID:      seriesID,
		Symbol:        series.Symbol,
		Variant:       string(series.Variant),
		StrikePrice:   series.StrikePrice.String(),
		PriceDecimals: series.PriceDecimals,
		ExpiresAt:     series.ExpiresAt,
		Timestamp:     time.Now(),
	})
	return seriesID, nil
}

// Mint 锁定抵押铸造期权：拉取抵押 → 记账并持久化 → 增发代币
func (s *SeriesService) Mint(ctx context.Context, cmd MintCmd) error {
	series, err := s.loadSeries(ctx, cmd.SeriesID)
	if err != nil {
		return err
	}
	required, err := series.RequiredCollateral(cmd.Amount)
	if err != nil {
		return err
	}

	locking, err := s.ledgers.Asset(series.LockingAsset())
	if err != nil {
		return err
	}
	optionToken, err := s.ledgers.OptionToken(series.SeriesID)
	if err != nil {
		return err
	}

	// 抵押从卖方划入托管账户，失败则整个操作无任何效果
	if err := locking.TransferFrom(ctx, series.VaultAccount(), cmd.Writer, series.VaultAccount(), required); err != nil {
		return err
	}

	// 锁定与池内账目在同一事务中落库
	if err := s.seriesRepo.WithTx(ctx, func(txCtx context.Context) error {
		lock, err := s.loadOrCreateLock(txCtx, series.SeriesID, cmd.Writer)
		if err != nil {
			return err
		}
		if _, err := series.Mint(lock, cmd.Amount); err != nil {
			return err
		}
		if err := s.lockRepo.Save(txCtx, lock); err != nil {
			return err
		}
		if err := s.seriesRepo.Save(txCtx, series); err != nil {
			return err
		}
		return optionToken.Mint(txCtx, cmd.Writer, cmd.Amount)
	}); err != nil {
		// 记账失败，退回已拉取的抵押
		s.returnFunds(ctx, locking, series, cmd.Writer, required)
		return err
	}

	s.publish(ctx, series.SeriesID, domain.OptionsMintedEvent{
		SeriesID:         series.SeriesID,
		Writer:           cmd.Writer,
		Amount:           cmd.Amount.String(),
		CollateralLocked: required.String(),
		TotalLocked:      series.TotalLocked.String(),
		Timestamp:        time.Now(),
	})
	return nil
}

// Burn 卖方销毁自己的期权，取回等量锁定资产
func (s *SeriesService) Burn(ctx context.Context, cmd BurnCmd) error {
	series, err := s.loadSeries(ctx, cmd.SeriesID)
	if err != nil {
		return err
	}
	optionToken, err := s.ledgers.OptionToken(series.SeriesID)
	if err != nil {
		return err
	}
	balance, err := optionToken.BalanceOf(ctx, cmd.Writer)
	if err != nil {
		return err
	}

	lock, err := s.lockRepo.FindBySeriesAndAccount(ctx, series.SeriesID, cmd.Writer)
	if err != nil {
		return err
	}
	if lock == nil {
		lock = domain.NewWriterLock(series.SeriesID, cmd.Writer)
	}

	refund, err := series.Burn(lock, balance, cmd.Amount)
	if err != nil {
		return err
	}
	// 先销毁代币，锁定与池内账目在同一事务中落库
	if err := optionToken.Burn(ctx, cmd.Writer, cmd.Amount); err != nil {
		return err
	}
	if err := s.seriesRepo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.lockRepo.Save(txCtx, lock); err != nil {
			return err
		}
		return s.seriesRepo.Save(txCtx, series)
	}); err != nil {
		// 落库失败，恢复已销毁的代币
		if rerr := optionToken.Mint(ctx, cmd.Writer, cmd.Amount); rerr != nil {
			s.logger.ErrorContext(ctx, "failed to restore burned options after aborted burn",
				"series_id", series.SeriesID, "writer", cmd.Writer, "error", rerr)
		}
		return err
	}

	// 内部账目已更新，最后才向外退还锁定资产
	locking, err := s.ledgers.Asset(series.LockingAsset())
	if err != nil {
		return err
	}
	if err := locking.Transfer(ctx, series.VaultAccount(), cmd.Writer, refund); err != nil {
		return err
	}

	s.publish(ctx, series.SeriesID, domain.OptionsBurnedEvent{
		SeriesID:  series.SeriesID,
		Writer:    cmd.Writer,
		Amount:    cmd.Amount.String(),
		Refund:    refund.String(),
		Timestamp: time.Now(),
	})
	return nil
}

// Exercise 行权：附带对手资产支付，换回锁定资产
func (s *SeriesService) Exercise(ctx context.Context, cmd ExerciseCmd) error {
	series, err := s.loadSeries(ctx, cmd.SeriesID)
	if err != nil {
		return err
	}
	required, err := series.ExercisePayment(cmd.Amount)
	if err != nil {
		return err
	}
	if !cmd.Payment.Equal(required) {
		return domain.ErrIncorrectPaymentAmount
	}

	optionToken, err := s.ledgers.OptionToken(series.SeriesID)
	if err != nil {
		return err
	}
	balance, err := optionToken.BalanceOf(ctx, cmd.Exerciser)
	if err != nil {
		return err
	}

	counter, err := s.ledgers.Asset(series.CounterAsset())
	if err != nil {
		return err
	}
	locking, err := s.ledgers.Asset(series.LockingAsset())
	if err != nil {
		return err
	}

	// 先拉取行权支付，再销毁代币并记账
	if err := counter.TransferFrom(ctx, series.VaultAccount(), cmd.Exerciser, series.VaultAccount(), required); err != nil {
		return err
	}
	payout, err := series.Exchange(balance, cmd.Amount, cmd.Payment)
	if err != nil {
		s.returnFunds(ctx, counter, series, cmd.Exerciser, required)
		return err
	}
	if err := optionToken.Burn(ctx, cmd.Exerciser, cmd.Amount); err != nil {
		s.returnFunds(ctx, counter, series, cmd.Exerciser, required)
		return err
	}
	if err := s.seriesRepo.Save(ctx, series); err != nil {
		// 落库失败，恢复代币并退回支付
		if rerr := optionToken.Mint(ctx, cmd.Exerciser, cmd.Amount); rerr != nil {
			s.logger.ErrorContext(ctx, "failed to restore burned options after aborted exercise",
				"series_id", series.SeriesID, "exerciser", cmd.Exerciser, "error", rerr)
		}
		s.returnFunds(ctx, counter, series, cmd.Exerciser, required)
		return err
	}

	record := &domain.ExerciseRecord{
		RecordID:    fmt.Sprintf("EXR-%s", uuid.NewString()),
		SeriesID:    series.SeriesID,
		Account:     cmd.Exerciser,
		Amount:      cmd.Amount,
		Payment:     cmd.Payment,
		Payout:      payout,
		ExercisedAt: time.Now(),
	}
	if err := s.recordRepo.SaveExercise(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "failed to save exercise record",
			"series_id", series.SeriesID, "error", err)
	}

	if err := locking.Transfer(ctx, series.VaultAccount(), cmd.Exerciser, payout); err != nil {
		return err
	}

	s.publish(ctx, series.SeriesID, domain.OptionsExercisedEvent{
		SeriesID:  series.SeriesID,
		Exerciser: cmd.Exerciser,
		Amount:    cmd.Amount.String(),
		Payment:   cmd.Payment.String(),
		Payout:    payout.String(),
		Timestamp: time.Now(),
	})
	return nil
}

// Withdraw 到期后卖方按冻结份额提取剩余资产组合
func (s *SeriesService) Withdraw(ctx context.Context, cmd WithdrawCmd) error {
	series, err := s.loadSeries(ctx, cmd.SeriesID)
	if err != nil {
		return err
	}
	lock, err := s.lockRepo.FindBySeriesAndAccount(ctx, series.SeriesID, cmd.Account)
	if err != nil {
		return err
	}

	var locked decimal.Decimal
	if lock != nil {
		locked = lock.Amount
	}
	payout, err := series.Withdraw(lock)
	if err != nil {
		return err
	}

	// 清零的锁定与扣减后的池余额在同一事务中落库
	if err := s.seriesRepo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.lockRepo.Save(txCtx, lock); err != nil {
			return err
		}
		return s.seriesRepo.Save(txCtx, series)
	}); err != nil {
		return err
	}

	if payout.Underlying.Sign() > 0 {
		underlying, err := s.ledgers.Asset(series.UnderlyingAsset)
		if err != nil {
			return err
		}
		if err := underlying.Transfer(ctx, series.VaultAccount(), cmd.Account, payout.Underlying); err != nil {
			return err
		}
	}
	if payout.Strike.Sign() > 0 {
		strike, err := s.ledgers.Asset(series.StrikeAsset)
		if err != nil {
			return err
		}
		if err := strike.Transfer(ctx, series.VaultAccount(), cmd.Account, payout.Strike); err != nil {
			return err
		}
	}

	record := &domain.WithdrawalRecord{
		RecordID:         fmt.Sprintf("WDR-%s", uuid.NewString()),
		SeriesID:         series.SeriesID,
		Account:          cmd.Account,
		LockedAmount:     locked,
		UnderlyingPayout: payout.Underlying,
		StrikePayout:     payout.Strike,
		WithdrawnAt:      time.Now(),
	}
	if err := s.recordRepo.SaveWithdrawal(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "failed to save withdrawal record",
			"series_id", series.SeriesID, "error", err)
	}

	s.publish(ctx, series.SeriesID, domain.CollateralWithdrawnEvent{
		SeriesID:         series.SeriesID,
		Account:          cmd.Account,
		UnderlyingPayout: payout.Underlying.String(),
		StrikePayout:     payout.Strike.String(),
		Timestamp:        time.Now(),
	})
	return nil
}

// ForceExpiration 测试模式下由系列所有者显式触发到期
func (s *SeriesService) ForceExpiration(ctx context.Context, seriesID, caller string) error {
	series, err := s.seriesRepo.FindBySeriesID(ctx, seriesID)
	if err != nil {
		return err
	}
	if err := series.ForceExpiration(caller, time.Now()); err != nil {
		return err
	}
	if err := s.seriesRepo.Save(ctx, series); err != nil {
		return err
	}
	s.publishExpired(ctx, series, true)
	return nil
}

// loadSeries 读取系列并同步到期状态；发生迁移时立即持久化快照
func (s *SeriesService) loadSeries(ctx context.Context, seriesID string) (*domain.Series, error) {
	series, err := s.seriesRepo.FindBySeriesID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if series.SyncExpiration(time.Now()) {
		if err := s.seriesRepo.Save(ctx, series); err != nil {
			return nil, err
		}
		s.publishExpired(ctx, series, false)
	}
	return series, nil
}

// returnFunds 操作中止时把已拉取的资产退回原账户，失败只能记录
func (s *SeriesService) returnFunds(ctx context.Context, ledger domain.AssetLedger, series *domain.Series, account string, amount decimal.Decimal) {
	if err := ledger.Transfer(ctx, series.VaultAccount(), account, amount); err != nil {
		s.logger.ErrorContext(ctx, "failed to return funds after aborted operation",
			"series_id", series.SeriesID, "account", account, "amount", amount.String(), "error", err)
	}
}

func (s *SeriesService) loadOrCreateLock(ctx context.Context, seriesID, account string) (*domain.WriterLock, error) {
	lock, err := s.lockRepo.FindBySeriesAndAccount(ctx, seriesID, account)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		lock = domain.NewWriterLock(seriesID, account)
	}
	return lock, nil
}

func (s *SeriesService) publishExpired(ctx context.Context, series *domain.Series, forced bool) {
	s.publish(ctx, series.SeriesID, domain.SeriesExpiredEvent{
		SeriesID:         series.SeriesID,
		FrozenLocked:     series.FrozenLocked.String(),
		FrozenUnderlying: series.FrozenUnderlying.String(),
		FrozenStrike:     series.FrozenStrike.String(),
		Forced:           forced,
		Timestamp:        time.Now(),
	})
}

func (s *SeriesService) publish(ctx context.Context, key string, event domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, TopicSeriesEvents, key, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "key", key, "error", err)
	}
}

type CreateSeriesCmd struct {
	Name               string
	Symbol             string
	Variant            domain.OptionVariant
	Owner              string
	UnderlyingAsset    string
	StrikeAsset        string
	StrikePrice        decimal.Decimal
	PriceDecimals      int32
	UnderlyingDecimals int32
	StrikeDecimals     int32
	ExpiresAt          time.Time
	TestMode           bool
}

type MintCmd struct {
	SeriesID string
	Writer   string
	Amount   decimal.Decimal
}

type BurnCmd struct {
	SeriesID string
	Writer   string
	Amount   decimal.Decimal
}

type ExerciseCmd struct {
	SeriesID  string
	Exerciser string
	Amount    decimal.Decimal
	Payment   decimal.Decimal
}

type WithdrawCmd struct {
	SeriesID string
	Account  string
}
