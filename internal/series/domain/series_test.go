package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func callParams() NewSeriesParams {
	return NewSeriesParams{
		SeriesID:           "SER-call",
		Name:               "WETH Call 270",
		Symbol:             "WETHC270",
		Variant:            VariantCall,
		Owner:              "alice",
		UnderlyingAsset:    "asset:weth",
		StrikeAsset:        "asset:usdc",
		StrikePrice:        d("270000000"),
		PriceDecimals:      6,
		UnderlyingDecimals: 18,
		StrikeDecimals:     6,
		ExpiresAt:          time.Now().Add(24 * time.Hour),
	}
}

func putParams() NewSeriesParams {
	p := callParams()
	p.SeriesID = "SER-put"
	p.Name = "WETH Put 270"
	p.Symbol = "WETHP270"
	p.Variant = VariantPut
	return p
}

func newCallSeries(t *testing.T) *Series {
	t.Helper()
	s, err := NewSeries(callParams())
	require.NoError(t, err)
	return s
}

func newPutSeries(t *testing.T) *Series {
	t.Helper()
	s, err := NewSeries(putParams())
	require.NoError(t, err)
	return s
}

func TestNewSeriesValidation(t *testing.T) {
	valid := callParams()
	if _, err := NewSeries(valid); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*NewSeriesParams)
	}{
		{"empty series id", func(p *NewSeriesParams) { p.SeriesID = "" }},
		{"empty owner", func(p *NewSeriesParams) { p.Owner = "" }},
		{"unknown variant", func(p *NewSeriesParams) { p.Variant = "STRADDLE" }},
		{"same assets", func(p *NewSeriesParams) { p.StrikeAsset = p.UnderlyingAsset }},
		{"zero strike price", func(p *NewSeriesParams) { p.StrikePrice = decimal.Zero }},
		{"negative strike price", func(p *NewSeriesParams) { p.StrikePrice = d("-1") }},
		{"fractional strike price", func(p *NewSeriesParams) { p.StrikePrice = d("270.5") }},
		{"negative decimals", func(p *NewSeriesParams) { p.StrikeDecimals = -1 }},
		{"decimals beyond max", func(p *NewSeriesParams) { p.UnderlyingDecimals = 19 }},
		{"no expiration outside test mode", func(p *NewSeriesParams) { p.ExpiresAt = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := callParams()
			tc.mutate(&p)
			_, err := NewSeries(p)
			assert.ErrorIs(t, err, ErrInvalidSeriesConfig)
		})
	}
}

func TestNewSeriesTestModeWithoutExpiration(t *testing.T) {
	p := callParams()
	p.TestMode = true
	p.ExpiresAt = time.Time{}
	s, err := NewSeries(p)
	require.NoError(t, err)
	assert.Equal(t, StateActive, s.State)
}

func TestLockingAndCounterAssets(t *testing.T) {
	call := newCallSeries(t)
	assert.Equal(t, "asset:weth", call.LockingAsset())
	assert.Equal(t, "asset:usdc", call.CounterAsset())

	put := newPutSeries(t)
	assert.Equal(t, "asset:usdc", put.LockingAsset())
	assert.Equal(t, "asset:weth", put.CounterAsset())
}

func TestHasExpiredIsPure(t *testing.T) {
	s := newCallSeries(t)
	after := s.ExpiresAt.Add(time.Second)

	assert.False(t, s.HasExpired(s.ExpiresAt.Add(-time.Second)))
	assert.True(t, s.HasExpired(s.ExpiresAt), "expiration instant itself counts as expired")
	assert.True(t, s.HasExpired(after))
	// 查询不得触发状态迁移
	assert.Equal(t, StateActive, s.State)
	assert.Nil(t, s.ExpiredAt)
}

func TestSyncExpirationFreezesSnapshot(t *testing.T) {
	s := newCallSeries(t)
	lock := NewWriterLock(s.SeriesID, "alice")
	_, err := s.Mint(lock, d("1000000000000000000"))
	require.NoError(t, err)

	moved := s.SyncExpiration(s.ExpiresAt.Add(-time.Minute))
	assert.False(t, moved)
	assert.Equal(t, StateActive, s.State)

	moved = s.SyncExpiration(s.ExpiresAt)
	assert.True(t, moved)
	assert.Equal(t, StateExpired, s.State)
	assert.True(t, s.FrozenLocked.Equal(s.TotalLocked))
	assert.True(t, s.FrozenUnderlying.Equal(s.UnderlyingPool))
	assert.True(t, s.FrozenStrike.Equal(s.StrikePool))
	require.NotNil(t, s.ExpiredAt)

	// 迁移只发生一次
	assert.False(t, s.SyncExpiration(s.ExpiresAt.Add(time.Hour)))
}

func TestTestModeIgnoresClock(t *testing.T) {
	p := callParams()
	p.TestMode = true
	s, err := NewSeries(p)
	require.NoError(t, err)

	assert.False(t, s.HasExpired(s.ExpiresAt.Add(time.Hour)))
	assert.False(t, s.SyncExpiration(s.ExpiresAt.Add(time.Hour)))
}

func TestForceExpiration(t *testing.T) {
	p := callParams()
	p.TestMode = true
	s, err := NewSeries(p)
	require.NoError(t, err)

	assert.ErrorIs(t, s.ForceExpiration("mallory", time.Now()), ErrNotSeriesOwner)

	require.NoError(t, s.ForceExpiration("alice", time.Now()))
	assert.Equal(t, StateExpired, s.State)
	assert.True(t, s.HasExpired(time.Now()))

	assert.ErrorIs(t, s.ForceExpiration("alice", time.Now()), ErrSeriesExpired)
}

func TestForceExpirationOutsideTestMode(t *testing.T) {
	s := newCallSeries(t)
	assert.ErrorIs(t, s.ForceExpiration("alice", time.Now()), ErrNotTestMode)
}

func TestRescale(t *testing.T) {
	// 缩小精度向零截断
	assert.True(t, Rescale(d("1999"), 3, 0).Equal(d("1")))
	assert.True(t, Rescale(d("1000000000000000000"), 18, 6).Equal(d("1000000")))
	// 放大精度无损
	assert.True(t, Rescale(d("7"), 0, 6).Equal(d("7000000")))
	// 同精度恒等
	assert.True(t, Rescale(d("42"), 6, 6).Equal(d("42")))
}

func TestRescaleUp(t *testing.T) {
	// 缩小精度有余数时进一
	assert.True(t, RescaleUp(d("1999"), 3, 0).Equal(d("2")))
	assert.True(t, RescaleUp(d("1000"), 3, 0).Equal(d("1")))
	// 放大与同精度不变
	assert.True(t, RescaleUp(d("7"), 0, 6).Equal(d("7000000")))
	assert.True(t, RescaleUp(d("42"), 6, 6).Equal(d("42")))
}

func TestLockingRequirementRoundsUp(t *testing.T) {
	put := newPutSeries(t)
	// 整除时与截断折算一致
	assert.True(t, put.LockingRequirement(d("1000000000000000000")).Equal(d("270000000")))
	// 有余数时向上取整到一个行权资产最小单位
	assert.True(t, put.LockingRequirement(d("1")).Equal(d("1")))
}

func TestStrikeEquivalent(t *testing.T) {
	s := newCallSeries(t)

	// 1 份期权（1e18 最小单位）按 270 USDC 折算为 270e6
	assert.True(t, s.StrikeEquivalent(d("1000000000000000000")).Equal(d("270000000")))
	// 0.5 份折算 135e6
	assert.True(t, s.StrikeEquivalent(d("500000000000000000")).Equal(d("135000000")))
	// 单个最小单位折算为零：270e6·1/1e18 截断
	assert.True(t, s.StrikeEquivalent(d("1")).IsZero())
}

func TestUnderlyingEquivalent(t *testing.T) {
	s := newCallSeries(t)
	assert.True(t, s.UnderlyingEquivalent(d("1000000000000000000")).Equal(d("1000000000000000000")))

	// 标的精度低于期权精度时截断
	p := callParams()
	p.UnderlyingDecimals = 8
	s2, err := NewSeries(p)
	require.NoError(t, err)
	assert.True(t, s2.UnderlyingEquivalent(d("1999999999")).IsZero())
	assert.True(t, s2.UnderlyingEquivalent(d("10000000000")).Equal(d("1")))
}
