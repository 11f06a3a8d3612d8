package token

import "sync"

// Registry 按资产标识管理账本实例
type Registry struct {
	mu      sync.RWMutex
	ledgers map[string]*Ledger
}

func NewRegistry() *Registry {
	return &Registry{ledgers: make(map[string]*Ledger)}
}

func (r *Registry) Register(id, name, symbol string, decimals int32) (*Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ledgers[id]; ok {
		return nil, ErrAssetExists
	}
	l := NewLedger(name, symbol, decimals)
	r.ledgers[id] = l
	return l, nil
}

func (r *Registry) Get(id string) (*Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[id]
	if !ok {
		return nil, ErrUnknownAsset
	}
	return l, nil
}
