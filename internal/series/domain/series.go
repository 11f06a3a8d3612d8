// Package domain 期权系列领域模型：抵押锁定、行权、到期按比例清算
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrSeriesNotFound            = errors.New("option series not found")
	ErrInvalidSeriesConfig       = errors.New("invalid series configuration")
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrInsufficientTokenBalance  = errors.New("insufficient option token balance")
	ErrInsufficientLockedBalance = errors.New("insufficient locked balance")
	ErrIncorrectPaymentAmount    = errors.New("incorrect payment amount")
	ErrSeriesExpired             = errors.New("series expired")
	ErrSeriesNotExpired          = errors.New("series not expired")
	ErrNothingToWithdraw         = errors.New("nothing to withdraw")
	ErrNotSeriesOwner            = errors.New("caller is not the series owner")
	ErrNotTestMode               = errors.New("forced expiration is only available in test mode")
)

type OptionVariant string

const (
	VariantCall OptionVariant = "CALL"
	VariantPut  OptionVariant = "PUT"
)

type SeriesState int8

const (
	StateActive  SeriesState = 1
	StateExpired SeriesState = 2
)

func (s SeriesState) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// OptionDecimals 期权代币精度固定为 18：1 个期权最小单位对应 1 个锁定资产最小单位
const OptionDecimals int32 = 18

const maxAssetDecimals int32 = 18

// Series 期权系列聚合根。
// 配置字段在创建后不可变；可变部分是状态机、资金池余额与锁定总额。
// 所有金额均为对应资产最小单位的整数值。
type Series struct {
	gorm.Model
	SeriesID           string          `gorm:"column:series_id;type:varchar(64);uniqueIndex;not null" json:"series_id"`
	Name               string          `gorm:"column:name;type:varchar(64);not null" json:"name"`
	Symbol             string          `gorm:"column:symbol;type:varchar(32);not null" json:"symbol"`
	Variant            OptionVariant   `gorm:"column:variant;type:varchar(8);not null" json:"variant"`
	Owner              string          `gorm:"column:owner;type:varchar(64);not null" json:"owner"`
	UnderlyingAsset    string          `gorm:"column:underlying_asset;type:varchar(64);not null" json:"underlying_asset"`
	StrikeAsset        string          `gorm:"column:strike_asset;type:varchar(64);not null" json:"strike_asset"`
	StrikePrice        decimal.Decimal `gorm:"column:strike_price;type:decimal(38,0);not null" json:"strike_price"`
	PriceDecimals      int32           `gorm:"column:price_decimals;not null" json:"price_decimals"`
	UnderlyingDecimals int32           `gorm:"column:underlying_decimals;not null" json:"underlying_decimals"`
	StrikeDecimals     int32           `gorm:"column:strike_decimals;not null" json:"strike_decimals"`
	ExpiresAt          time.Time       `gorm:"column:expires_at;not null" json:"expires_at"`
	TestMode           bool            `gorm:"column:test_mode;default:false" json:"test_mode"`
	State              SeriesState     `gorm:"column:state;type:tinyint;not null;default:1" json:"state"`

	TotalLocked    decimal.Decimal `gorm:"column:total_locked;type:decimal(38,0);not null" json:"total_locked"`
	UnderlyingPool decimal.Decimal `gorm:"column:underlying_pool;type:decimal(38,0);not null" json:"underlying_pool"`
	StrikePool     decimal.Decimal `gorm:"column:strike_pool;type:decimal(38,0);not null" json:"strike_pool"`

	// 到期时刻冻结的清算快照，之后提取按该快照的比例计算
	FrozenLocked     decimal.Decimal `gorm:"column:frozen_locked;type:decimal(38,0)" json:"frozen_locked"`
	FrozenUnderlying decimal.Decimal `gorm:"column:frozen_underlying;type:decimal(38,0)" json:"frozen_underlying"`
	FrozenStrike     decimal.Decimal `gorm:"column:frozen_strike;type:decimal(38,0)" json:"frozen_strike"`
	ExpiredAt        *time.Time      `gorm:"column:expired_at" json:"expired_at"`
}

func (Series) TableName() string { return "option_series" }

// NewSeriesParams 创建系列所需的全部不可变参数
type NewSeriesParams struct {
	SeriesID           string
	Name               string
	Symbol             string
	Variant            OptionVariant
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

func NewSeries(p NewSeriesParams) (*Series, error) {
	if p.SeriesID == "" || p.Name == "" || p.Symbol == "" || p.Owner == "" {
		return nil, ErrInvalidSeriesConfig
	}
	if p.Variant != VariantCall && p.Variant != VariantPut {
		return nil, ErrInvalidSeriesConfig
	}
	if p.UnderlyingAsset == "" || p.StrikeAsset == "" || p.UnderlyingAsset == p.StrikeAsset {
		return nil, ErrInvalidSeriesConfig
	}
	if !p.StrikePrice.IsInteger() || p.StrikePrice.Sign() <= 0 {
		return nil, ErrInvalidSeriesConfig
	}
	for _, d := range []int32{p.PriceDecimals, p.UnderlyingDecimals, p.StrikeDecimals} {
		if d < 0 || d > maxAssetDecimals {
			return nil, ErrInvalidSeriesConfig
		}
	}
	if !p.TestMode && p.ExpiresAt.IsZero() {
		return nil, ErrInvalidSeriesConfig
	}
	return &Series{
		SeriesID:           p.SeriesID,
		Name:               p.Name,
		Symbol:             p.Symbol,
		Variant:            p.Variant,
		Owner:              p.Owner,
		UnderlyingAsset:    p.UnderlyingAsset,
		StrikeAsset:        p.StrikeAsset,
		StrikePrice:        p.StrikePrice,
		PriceDecimals:      p.PriceDecimals,
		UnderlyingDecimals: p.UnderlyingDecimals,
		StrikeDecimals:     p.StrikeDecimals,
		ExpiresAt:          p.ExpiresAt,
		TestMode:           p.TestMode,
		State:              StateActive,
		TotalLocked:        decimal.Zero,
		UnderlyingPool:     decimal.Zero,
		StrikePool:         decimal.Zero,
		FrozenLocked:       decimal.Zero,
		FrozenUnderlying:   decimal.Zero,
		FrozenStrike:       decimal.Zero,
	}, nil
}

// Decimals 期权代币精度，固定 18
func (s *Series) Decimals() int32 { return OptionDecimals }

// VaultAccount 系列托管账户，在资产账本中持有资金池余额
func (s *Series) VaultAccount() string { return "vault:" + s.SeriesID }

// LockingAsset 铸造时锁定的资产：Call 锁标的资产，Put 锁行权资产
func (s *Series) LockingAsset() string {
	if s.Variant == VariantPut {
		return s.StrikeAsset
	}
	return s.UnderlyingAsset
}

// CounterAsset 行权方支付的资产，与锁定资产互为对手
func (s *Series) CounterAsset() string {
	if s.Variant == VariantPut {
		return s.UnderlyingAsset
	}
	return s.StrikeAsset
}

// HasExpired 纯查询，无副作用。测试模式下仅显式触发才会到期。
func (s *Series) HasExpired(now time.Time) bool {
	if s.State == StateExpired {
		return true
	}
	if s.TestMode {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// SyncExpiration 检查到期谓词并执行 Active→Expired 迁移。
// 返回本次调用是否发生了迁移。迁移时冻结清算快照：
// 此后提取按冻结的分母与池余额计算，相互之间顺序无关。
func (s *Series) SyncExpiration(now time.Time) bool {
	if s.State != StateActive || !s.HasExpired(now) {
		return false
	}
	s.expire(now)
	return true
}

// ForceExpiration 测试模式下由系列所有者显式触发到期
func (s *Series) ForceExpiration(caller string, now time.Time) error {
	if !s.TestMode {
		return ErrNotTestMode
	}
	if caller != s.Owner {
		return ErrNotSeriesOwner
	}
	if s.State == StateExpired {
		return ErrSeriesExpired
	}
	s.expire(now)
	return nil
}

func (s *Series) expire(now time.Time) {
	s.State = StateExpired
	s.FrozenLocked = s.TotalLocked
	s.FrozenUnderlying = s.UnderlyingPool
	s.FrozenStrike = s.StrikePool
	t := now
	s.ExpiredAt = &t
}

func (s *Series) requireActive() error {
	if s.State != StateActive {
		return ErrSeriesExpired
	}
	return nil
}

func (s *Series) addToLockingPool(amount decimal.Decimal) {
	if s.Variant == VariantPut {
		s.StrikePool = s.StrikePool.Add(amount)
	} else {
		s.UnderlyingPool = s.UnderlyingPool.Add(amount)
	}
}

func (s *Series) lockingPoolBalance() decimal.Decimal {
	if s.Variant == VariantPut {
		return s.StrikePool
	}
	return s.UnderlyingPool
}

func (s *Series) subFromLockingPool(amount decimal.Decimal) {
	if s.Variant == VariantPut {
		s.StrikePool = s.StrikePool.Sub(amount)
	} else {
		s.UnderlyingPool = s.UnderlyingPool.Sub(amount)
	}
}

func (s *Series) addToCounterPool(amount decimal.Decimal) {
	if s.Variant == VariantPut {
		s.UnderlyingPool = s.UnderlyingPool.Add(amount)
	} else {
		s.StrikePool = s.StrikePool.Add(amount)
	}
}
