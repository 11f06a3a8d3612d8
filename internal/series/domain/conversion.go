package domain

import "github.com/shopspring/decimal"

func pow10(n int32) decimal.Decimal { return decimal.New(1, n) }

// Rescale 在不同精度的最小单位之间转换整数金额。
// 缩小精度时向零截断，整个转换只有这一个舍入点。
func Rescale(amount decimal.Decimal, from, to int32) decimal.Decimal {
	if from == to {
		return amount
	}
	q, _ := amount.Mul(pow10(to)).QuoRem(pow10(from), 0)
	return q
}

// RescaleUp 同 Rescale，但缩小精度时向上取整
func RescaleUp(amount decimal.Decimal, from, to int32) decimal.Decimal {
	if from == to {
		return amount
	}
	q, r := amount.Mul(pow10(to)).QuoRem(pow10(from), 0)
	if !r.IsZero() {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q
}

// UnderlyingEquivalent 期权数量对应的标的资产数量（标的最小单位）
func (s *Series) UnderlyingEquivalent(amount decimal.Decimal) decimal.Decimal {
	return Rescale(amount, OptionDecimals, s.UnderlyingDecimals)
}

// StrikeEquivalent 期权数量按行权价折算的行权资产数量（行权资产最小单位）。
// amount·strikePrice/10^priceDecimals 再换算到 strikeDecimals，单次截断。
func (s *Series) StrikeEquivalent(amount decimal.Decimal) decimal.Decimal {
	q, _ := amount.Mul(s.StrikePrice).Mul(pow10(s.StrikeDecimals)).
		QuoRem(pow10(s.PriceDecimals+OptionDecimals), 0)
	return q
}

func (s *Series) strikeEquivalentUp(amount decimal.Decimal) decimal.Decimal {
	q, r := amount.Mul(s.StrikePrice).Mul(pow10(s.StrikeDecimals)).
		QuoRem(pow10(s.PriceDecimals+OptionDecimals), 0)
	if !r.IsZero() {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q
}

// LockingEquivalent 期权数量对应的锁定资产数量
func (s *Series) LockingEquivalent(amount decimal.Decimal) decimal.Decimal {
	if s.Variant == VariantPut {
		return s.StrikeEquivalent(amount)
	}
	return s.UnderlyingEquivalent(amount)
}

// LockingRequirement 铸造 amount 期权实际锁定的抵押数量，向上取整。
// 锁定入池取上整、兑付与退还出池取下整，池中余额始终覆盖未了结的期权。
func (s *Series) LockingRequirement(amount decimal.Decimal) decimal.Decimal {
	if s.Variant == VariantPut {
		return s.strikeEquivalentUp(amount)
	}
	return RescaleUp(amount, OptionDecimals, s.UnderlyingDecimals)
}

// CounterEquivalent 行权时需支付的对手资产数量
func (s *Series) CounterEquivalent(amount decimal.Decimal) decimal.Decimal {
	if s.Variant == VariantPut {
		return s.UnderlyingEquivalent(amount)
	}
	return s.StrikeEquivalent(amount)
}

func isPositiveInteger(amount decimal.Decimal) bool {
	return amount.Sign() > 0 && amount.IsInteger()
}
