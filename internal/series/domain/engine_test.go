package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredCollateral(t *testing.T) {
	call := newCallSeries(t)

	required, err := call.RequiredCollateral(d("1000000000000000000"))
	require.NoError(t, err)
	assert.True(t, required.Equal(d("1000000000000000000")), "call locks underlying 1:1")

	put := newPutSeries(t)
	required, err = put.RequiredCollateral(d("1000000000000000000"))
	require.NoError(t, err)
	assert.True(t, required.Equal(d("270000000")), "put locks the strike equivalent")
}

func TestRequiredCollateralRejectsBadAmounts(t *testing.T) {
	s := newCallSeries(t)

	for _, amount := range []string{"0", "-1", "0.5"} {
		_, err := s.RequiredCollateral(d(amount))
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
	}

	// 折算为零抵押的微小数量
	put := newPutSeries(t)
	_, err := put.RequiredCollateral(d("1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMintAccumulatesLock(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")

	locked, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)
	assert.True(t, locked.Equal(d("1000000000000000000")))

	_, err = s.Mint(lock, d("500000000000000000"))
	require.NoError(t, err)

	assert.True(t, lock.Amount.Equal(d("1500000000000000000")))
	assert.True(t, s.TotalLocked.Equal(d("1500000000000000000")))
	assert.True(t, s.UnderlyingPool.Equal(d("1500000000000000000")))
	assert.True(t, s.StrikePool.IsZero())
}

func TestMintAfterExpirationFails(t *testing.T) {
	s := newCallSeries(t)
	s.SyncExpiration(s.ExpiresAt)
	lock := NewWriterLock(s.SeriesID, "alice")

	_, err := s.Mint(lock, d("1000000000000000000"))
	assert.ErrorIs(t, err, ErrSeriesExpired)
}

func TestBurnRefundsCollateral(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)

	refund, err := s.Burn(lock, d("1000000000000000000"), d("400000000000000000"))
	require.NoError(t, err)
	assert.True(t, refund.Equal(d("400000000000000000")))
	assert.True(t, lock.Amount.Equal(d("600000000000000000")))
	assert.True(t, s.TotalLocked.Equal(d("600000000000000000")))
	assert.True(t, s.UnderlyingPool.Equal(d("600000000000000000")))
}

func TestBurnCappedByTokenBalance(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)

	// 卖方把一半代币转给了别人，销毁上限随之下降
	_, err = s.Burn(lock, d("500000000000000000"), d("600000000000000000"))
	assert.ErrorIs(t, err, ErrInsufficientTokenBalance)
}

func TestBurnCappedByLockedBalance(t *testing.T) {
	s := newCallSeries(t)
	alice := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(alice, d("1000000000000000000"))
	require.NoError(t, err)

	// bob 持有转让来的代币但没有自己的锁定余额
	bob := NewWriterLock(s.SeriesID, "bob")
	_, err = s.Burn(bob, d("1000000000000000000"), d("1000000000000000000"))
	assert.ErrorIs(t, err, ErrInsufficientLockedBalance)
	assert.True(t, alice.Amount.Equal(d("1000000000000000000")), "other writers' locks untouched")
}

func TestBurnAfterExpirationFails(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)

	s.SyncExpiration(s.ExpiresAt)
	_, err = s.Burn(lock, d("1000000000000000000"), d("1000000000000000000"))
	assert.ErrorIs(t, err, ErrSeriesExpired)
}

func TestExercisePayment(t *testing.T) {
	call := newCallSeries(t)
	payment, err := call.ExercisePayment(d("500000000000000000"))
	require.NoError(t, err)
	assert.True(t, payment.Equal(d("135000000")), "0.5 option at strike 270 costs 135 USDC")

	put := newPutSeries(t)
	payment, err = put.ExercisePayment(d("500000000000000000"))
	require.NoError(t, err)
	assert.True(t, payment.Equal(d("500000000000000000")), "put exerciser pays underlying 1:1")
}

func TestExchangeSwapsPoolComposition(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)

	payout, err := s.Exchange(d("500000000000000000"), d("500000000000000000"), d("135000000"))
	require.NoError(t, err)
	assert.True(t, payout.Equal(d("500000000000000000")))

	// 池构成改变，锁定记账不变
	assert.True(t, s.UnderlyingPool.Equal(d("500000000000000000")))
	assert.True(t, s.StrikePool.Equal(d("135000000")))
	assert.True(t, s.TotalLocked.Equal(d("1000000000000000000")))
	assert.True(t, lock.Amount.Equal(d("1000000000000000000")))
}

func TestExchangeRejectsWrongPayment(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)

	for _, payment := range []string{"134999999", "135000001", "0"} {
		_, err := s.Exchange(d("500000000000000000"), d("500000000000000000"), d(payment))
		assert.ErrorIs(t, err, ErrIncorrectPaymentAmount, payment)
	}
}

func TestExchangeRequiresTokenBalance(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)

	_, err = s.Exchange(d("100"), d("500000000000000000"), d("135000000"))
	assert.ErrorIs(t, err, ErrInsufficientTokenBalance)
}

func TestExchangeAfterExpirationFails(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)

	s.SyncExpiration(s.ExpiresAt.Add(time.Second))
	_, err = s.Exchange(d("500000000000000000"), d("500000000000000000"), d("135000000"))
	assert.ErrorIs(t, err, ErrSeriesExpired)
}

// 锁定资产精度低于期权精度时，铸造抵押向上取整
func TestMintRoundsCollateralUp(t *testing.T) {
	p := callParams()
	p.UnderlyingDecimals = 0
	s, err := NewSeries(p)
	require.NoError(t, err)
	lock := NewWriterLock(s.SeriesID, "alice")

	locked, err := s.Mint(lock, d("1500000000000000000"))
	require.NoError(t, err)
	assert.True(t, locked.Equal(d("2")))
	assert.True(t, lock.Amount.Equal(d("2")))
	assert.True(t, s.UnderlyingPool.Equal(d("2")))
}

// 多个向上取整的铸造合并行权后，锁定池不会透支
func TestExchangeCannotOverdrawLockingPool(t *testing.T) {
	p := callParams()
	p.UnderlyingDecimals = 0
	s, err := NewSeries(p)
	require.NoError(t, err)

	alice := NewWriterLock(s.SeriesID, "alice")
	bob := NewWriterLock(s.SeriesID, "bob")
	_, err = s.Mint(alice, d("1500000000000000000"))
	require.NoError(t, err)
	_, err = s.Mint(bob, d("1500000000000000000"))
	require.NoError(t, err)
	require.True(t, s.UnderlyingPool.Equal(d("4")))

	payment, err := s.ExercisePayment(d("3000000000000000000"))
	require.NoError(t, err)
	payout, err := s.Exchange(d("3000000000000000000"), d("3000000000000000000"), payment)
	require.NoError(t, err)
	assert.True(t, payout.Equal(d("3")))
	assert.True(t, s.UnderlyingPool.Equal(d("1")))
	assert.False(t, s.UnderlyingPool.IsNegative())
}

// 池余额不足以覆盖兑付时行权被拒绝而不是把池打成负数
func TestExchangeGuardsLockingPool(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)
	// 模拟历史数据中池余额被侵蚀的情形
	s.UnderlyingPool = d("400000000000000000")

	_, err = s.Exchange(d("500000000000000000"), d("500000000000000000"), d("135000000"))
	assert.ErrorIs(t, err, ErrInsufficientLockedBalance)
	assert.True(t, s.UnderlyingPool.Equal(d("400000000000000000")))
}

// 池余额守恒：任何操作序列后锁定池余额等于 TotalLocked 对应的锁定资产，
// 行权只改变构成不改变总价值记账。
func TestPoolConservation(t *testing.T) {
	s := newCallSeries(t)
	alice := NewWriterLock(s.SeriesID, "alice")
	bob := NewWriterLock(s.SeriesID, "bob")

	_, err := s.Mint(alice, d("2000000000000000000"))
	require.NoError(t, err)
	_, err = s.Mint(bob, d("1000000000000000000"))
	require.NoError(t, err)
	_, err = s.Burn(bob, d("1000000000000000000"), d("500000000000000000"))
	require.NoError(t, err)
	_, err = s.Exchange(d("1000000000000000000"), d("1000000000000000000"), d("270000000"))
	require.NoError(t, err)

	assert.True(t, s.TotalLocked.Equal(alice.Amount.Add(bob.Amount)))
	assert.True(t, s.UnderlyingPool.Equal(d("1500000000000000000")))
	assert.True(t, s.StrikePool.Equal(d("270000000")))
}
