package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// AssetLedger 外部同质化资产账本（标准余额/授权语义）。
// 引擎只依赖这组接口，不关心账本如何实现；
// ETH 计价变体中的原生资产同样以一个账本建模。
type AssetLedger interface {
	BalanceOf(ctx context.Context, account string) (decimal.Decimal, error)
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
	TransferFrom(ctx context.Context, spender, from, to string, amount decimal.Decimal) error
}

// OptionToken 期权代币账本。Mint/Burn 仅引擎可调用；
// 转让与授权即使在系列到期后也保持可用。
type OptionToken interface {
	AssetLedger
	TotalSupply(ctx context.Context) (decimal.Decimal, error)
	Mint(ctx context.Context, to string, amount decimal.Decimal) error
	Burn(ctx context.Context, from string, amount decimal.Decimal) error
}

// LedgerProvider 按资产标识解析账本实例
type LedgerProvider interface {
	Asset(id string) (AssetLedger, error)
	OptionToken(seriesID string) (OptionToken, error)
	CreateOptionToken(seriesID, name, symbol string, decimals int32) (OptionToken, error)
}
