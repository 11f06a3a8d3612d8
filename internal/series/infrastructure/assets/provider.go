// Package assets 把资产账本注册表适配成领域层的 LedgerProvider 端口
package assets

import (
	"github.com/quantfabric/optionvault/internal/series/domain"
	"github.com/quantfabric/optionvault/internal/token"
)

// 期权代币与结算资产共用一个注册表，用前缀区分命名空间
const optionTokenPrefix = "option:"

type LedgerProvider struct {
	registry *token.Registry
}

func NewLedgerProvider(registry *token.Registry) *LedgerProvider {
	return &LedgerProvider{registry: registry}
}

func (p *LedgerProvider) Asset(id string) (domain.AssetLedger, error) {
	return p.registry.Get(id)
}

func (p *LedgerProvider) OptionToken(seriesID string) (domain.OptionToken, error) {
	return p.registry.Get(optionTokenPrefix + seriesID)
}

func (p *LedgerProvider) CreateOptionToken(seriesID, name, symbol string, decimals int32) (domain.OptionToken, error) {
	return p.registry.Register(optionTokenPrefix+seriesID, name, symbol, decimals)
}

var _ domain.LedgerProvider = (*LedgerProvider)(nil)
