package domain

import "time"

// Event 领域事件，EventType 用于消费端分发
type Event interface {
	EventType() string
}

const (
	EventSeriesCreated       = "series.created"
	EventOptionsMinted       = "series.options_minted"
	EventOptionsExercised    = "series.options_exercised"
	EventOptionsBurned       = "series.options_burned"
	EventSeriesExpired       = "series.expired"
	EventCollateralWithdrawn = "series.collateral_withdrawn"
)

// SeriesCreatedEvent 系列创建事件
type SeriesCreatedEvent struct {
	SeriesID      string    `json:"series_id"`
	Symbol        string    `json:"symbol"`
	Variant       string    `json:"variant"`
	StrikePrice   string    `json:"strike_price"`
	PriceDecimals int32     `json:"price_decimals"`
	ExpiresAt     time.Time `json:"expires_at"`
	Timestamp     time.Time `json:"timestamp"`
}

// OptionsMintedEvent 铸造事件
type OptionsMintedEvent struct {
	SeriesID         string    `json:"series_id"`
	Writer           string    `json:"writer"`
	Amount           string    `json:"amount"`
	CollateralLocked string    `json:"collateral_locked"`
	TotalLocked      string    `json:"total_locked"`
	Timestamp        time.Time `json:"timestamp"`
}

// OptionsExercisedEvent 行权事件
type OptionsExercisedEvent struct {
	SeriesID  string    `json:"series_id"`
	Exerciser string    `json:"exerciser"`
	Amount    string    `json:"amount"`
	Payment   string    `json:"payment"`
	Payout    string    `json:"payout"`
	Timestamp time.Time `json:"timestamp"`
}

// OptionsBurnedEvent 卖方销毁事件
type OptionsBurnedEvent struct {
	SeriesID  string    `json:"series_id"`
	Writer    string    `json:"writer"`
	Amount    string    `json:"amount"`
	Refund    string    `json:"refund"`
	Timestamp time.Time `json:"timestamp"`
}

// SeriesExpiredEvent 到期事件，携带冻结的清算快照
type SeriesExpiredEvent struct {
	SeriesID         string    `json:"series_id"`
	FrozenLocked     string    `json:"frozen_locked"`
	FrozenUnderlying string    `json:"frozen_underlying"`
	FrozenStrike     string    `json:"frozen_strike"`
	Forced           bool      `json:"forced"`
	Timestamp        time.Time `json:"timestamp"`
}

// CollateralWithdrawnEvent 到期清算提取事件
type CollateralWithdrawnEvent struct {
	SeriesID         string    `json:"series_id"`
	Account          string    `json:"account"`
	UnderlyingPayout string    `json:"underlying_payout"`
	StrikePayout     string    `json:"strike_payout"`
	Timestamp        time.Time `json:"timestamp"`
}

func (SeriesCreatedEvent) EventType() string       { return EventSeriesCreated }
func (OptionsMintedEvent) EventType() string       { return EventOptionsMinted }
func (OptionsExercisedEvent) EventType() string    { return EventOptionsExercised }
func (OptionsBurnedEvent) EventType() string       { return EventOptionsBurned }
func (SeriesExpiredEvent) EventType() string       { return EventSeriesExpired }
func (CollateralWithdrawnEvent) EventType() string { return EventCollateralWithdrawn }
