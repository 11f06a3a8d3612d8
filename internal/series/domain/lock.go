package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WriterLock 某个卖方在某个系列中锁定且尚未取回的抵押数量（锁定资产最小单位）。
// 期权代币可以自由转让，锁定余额始终绑定在最初的铸造方账户上，
// 两者分别记账，互不派生。
type WriterLock struct {
	gorm.Model
	SeriesID string          `gorm:"column:series_id;type:varchar(64);uniqueIndex:idx_series_account;not null" json:"series_id"`
	Account  string          `gorm:"column:account;type:varchar(64);uniqueIndex:idx_series_account;not null" json:"account"`
	Amount   decimal.Decimal `gorm:"column:amount;type:decimal(38,0);not null" json:"amount"`
}

func (WriterLock) TableName() string { return "writer_locks" }

func NewWriterLock(seriesID, account string) *WriterLock {
	return &WriterLock{
		SeriesID: seriesID,
		Account:  account,
		Amount:   decimal.Zero,
	}
}

func (l *WriterLock) add(amount decimal.Decimal) {
	l.Amount = l.Amount.Add(amount)
}

func (l *WriterLock) sub(amount decimal.Decimal) error {
	if l.Amount.LessThan(amount) {
		return ErrInsufficientLockedBalance
	}
	l.Amount = l.Amount.Sub(amount)
	return nil
}
