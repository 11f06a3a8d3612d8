package domain

import "github.com/shopspring/decimal"

// RequiredCollateral 铸造 amount 期权需要锁定的抵押数量。
// 纯计算，供应用层在拉取资产前预先校验。
func (s *Series) RequiredCollateral(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := s.requireActive(); err != nil {
		return decimal.Zero, err
	}
	if !isPositiveInteger(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	// 小到折算不出一个锁定资产最小单位的数量直接拒绝
	if s.LockingEquivalent(amount).IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}
	return s.LockingRequirement(amount), nil
}

// ExercisePayment 行权 amount 期权必须附带的对手资产支付额
func (s *Series) ExercisePayment(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := s.requireActive(); err != nil {
		return decimal.Zero, err
	}
	if !isPositiveInteger(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	payment := s.CounterEquivalent(amount)
	if payment.IsZero() || s.LockingEquivalent(amount).IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}
	return payment, nil
}

// Mint 锁定抵押并记账。返回锁定的抵押数量；期权代币由调用方向持有人增发。
// 抵押资产必须已经划入托管账户，见应用层的先拉取后记账顺序。
func (s *Series) Mint(lock *WriterLock, amount decimal.Decimal) (decimal.Decimal, error) {
	required, err := s.RequiredCollateral(amount)
	if err != nil {
		return decimal.Zero, err
	}
	lock.add(required)
	s.TotalLocked = s.TotalLocked.Add(required)
	s.addToLockingPool(required)
	return required, nil
}

// Burn 卖方销毁自己持有的期权，按 1:1 取回锁定资产。
// 卖方最多只能销毁 min(代币余额, 自己锁定的数量)，
// 持有他人转来的代币不能动用他人的抵押。
func (s *Series) Burn(lock *WriterLock, tokenBalance, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := s.requireActive(); err != nil {
		return decimal.Zero, err
	}
	if !isPositiveInteger(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	refund := s.LockingEquivalent(amount)
	if refund.IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}
	if tokenBalance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientTokenBalance
	}
	if err := lock.sub(refund); err != nil {
		return decimal.Zero, err
	}
	s.TotalLocked = s.TotalLocked.Sub(refund)
	s.subFromLockingPool(refund)
	return refund, nil
}

// Exchange 行权：销毁期权代币，对手资产入池，锁定资产出池给行权人。
// 任何卖方的锁定余额都不变，变化的只是资金池的资产构成。
func (s *Series) Exchange(tokenBalance, amount, payment decimal.Decimal) (decimal.Decimal, error) {
	required, err := s.ExercisePayment(amount)
	if err != nil {
		return decimal.Zero, err
	}
	if tokenBalance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientTokenBalance
	}
	if !payment.Equal(required) {
		return decimal.Zero, ErrIncorrectPaymentAmount
	}
	payout := s.LockingEquivalent(amount)
	if payout.GreaterThan(s.lockingPoolBalance()) {
		return decimal.Zero, ErrInsufficientLockedBalance
	}
	s.subFromLockingPool(payout)
	s.addToCounterPool(payment)
	return payout, nil
}
