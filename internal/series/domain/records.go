package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExerciseRecord 行权流水
type ExerciseRecord struct {
	gorm.Model
	RecordID    string          `gorm:"column:record_id;type:varchar(64);uniqueIndex;not null" json:"record_id"`
	SeriesID    string          `gorm:"column:series_id;type:varchar(64);index;not null" json:"series_id"`
	Account     string          `gorm:"column:account;type:varchar(64);index;not null" json:"account"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(38,0);not null" json:"amount"`
	Payment     decimal.Decimal `gorm:"column:payment;type:decimal(38,0);not null" json:"payment"`
	Payout      decimal.Decimal `gorm:"column:payout;type:decimal(38,0);not null" json:"payout"`
	ExercisedAt time.Time       `gorm:"column:exercised_at;not null" json:"exercised_at"`
}

func (ExerciseRecord) TableName() string { return "series_exercise_records" }

// WithdrawalRecord 到期清算提取流水
type WithdrawalRecord struct {
	gorm.Model
	RecordID         string          `gorm:"column:record_id;type:varchar(64);uniqueIndex;not null" json:"record_id"`
	SeriesID         string          `gorm:"column:series_id;type:varchar(64);index;not null" json:"series_id"`
	Account          string          `gorm:"column:account;type:varchar(64);index;not null" json:"account"`
	LockedAmount     decimal.Decimal `gorm:"column:locked_amount;type:decimal(38,0);not null" json:"locked_amount"`
	UnderlyingPayout decimal.Decimal `gorm:"column:underlying_payout;type:decimal(38,0);not null" json:"underlying_payout"`
	StrikePayout     decimal.Decimal `gorm:"column:strike_payout;type:decimal(38,0);not null" json:"strike_payout"`
	WithdrawnAt      time.Time       `gorm:"column:withdrawn_at;not null" json:"withdrawn_at"`
}

func (WithdrawalRecord) TableName() string { return "series_withdrawal_records" }
