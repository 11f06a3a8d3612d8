package domain

import "github.com/shopspring/decimal"

// SettlementPayout 到期后一次提取应付的两种资产数量
type SettlementPayout struct {
	Underlying decimal.Decimal
	Strike     decimal.Decimal
}

// Withdraw 到期后卖方按冻结快照的比例取回资金池中剩余的资产组合。
// 分母使用到期时刻冻结的 FrozenLocked，而非随提取递减的 TotalLocked，
// 因此提取顺序不影响任何卖方的应得份额。
// 截断产生的残余留在池中，由最后提取者放弃，不做清扫。
func (s *Series) Withdraw(lock *WriterLock) (SettlementPayout, error) {
	if s.State != StateExpired {
		return SettlementPayout{}, ErrSeriesNotExpired
	}
	if lock == nil || lock.Amount.Sign() <= 0 {
		return SettlementPayout{}, ErrNothingToWithdraw
	}
	payout := SettlementPayout{
		Underlying: prorata(s.FrozenUnderlying, lock.Amount, s.FrozenLocked),
		Strike:     prorata(s.FrozenStrike, lock.Amount, s.FrozenLocked),
	}
	s.UnderlyingPool = s.UnderlyingPool.Sub(payout.Underlying)
	s.StrikePool = s.StrikePool.Sub(payout.Strike)
	s.TotalLocked = s.TotalLocked.Sub(lock.Amount)
	lock.Amount = decimal.Zero
	return payout, nil
}

// prorata pool·locked/total，向下截断。每份额向下取整保证所有提取
// 之和不超过池余额。
func prorata(pool, locked, total decimal.Decimal) decimal.Decimal {
	if total.Sign() <= 0 {
		return decimal.Zero
	}
	q, _ := pool.Mul(locked).QuoRem(total, 0)
	return q
}
