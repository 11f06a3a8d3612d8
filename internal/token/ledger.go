// Package token 内存实现的同质化资产账本，提供标准的余额/授权语义。
// 期权代币与两种结算资产都用它来建模；守恒约束 sum(balances) == totalSupply。
package token

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount         = errors.New("invalid transfer amount")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrUnknownAsset          = errors.New("unknown asset")
	ErrAssetExists           = errors.New("asset already registered")
)

// Ledger 单一资产的余额账本。
// Mint/Burn 的权限控制由持有该实例引用的一方负责：
// 期权代币账本只由引擎创建并持有，外部只能拿到转账接口。
type Ledger struct {
	mu          sync.Mutex
	name        string
	symbol      string
	decimals    int32
	totalSupply decimal.Decimal
	balances    map[string]decimal.Decimal
	allowances  map[string]map[string]decimal.Decimal
}

func NewLedger(name, symbol string, decimals int32) *Ledger {
	return &Ledger{
		name:        name,
		symbol:      symbol,
		decimals:    decimals,
		totalSupply: decimal.Zero,
		balances:    make(map[string]decimal.Decimal),
		allowances:  make(map[string]map[string]decimal.Decimal),
	}
}

func (l *Ledger) Name() string    { return l.name }
func (l *Ledger) Symbol() string  { return l.symbol }
func (l *Ledger) Decimals() int32 { return l.decimals }

func (l *Ledger) BalanceOf(_ context.Context, account string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(account), nil
}

func (l *Ledger) TotalSupply(_ context.Context) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply, nil
}

func (l *Ledger) Allowance(_ context.Context, owner, spender string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowance(owner, spender), nil
}

func (l *Ledger) Transfer(_ context.Context, from, to string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

func (l *Ledger) Approve(_ context.Context, owner, spender string, amount decimal.Decimal) error {
	if amount.Sign() < 0 || !amount.IsInteger() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]decimal.Decimal)
	}
	l.allowances[owner][spender] = amount
	return nil
}

func (l *Ledger) TransferFrom(_ context.Context, spender, from, to string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	allowed := l.allowance(from, spender)
	if allowed.LessThan(amount) {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][spender] = allowed.Sub(amount)
	return nil
}

func (l *Ledger) Mint(_ context.Context, to string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 || !amount.IsInteger() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to] = l.balanceOf(to).Add(amount)
	l.totalSupply = l.totalSupply.Add(amount)
	return nil
}

func (l *Ledger) Burn(_ context.Context, from string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 || !amount.IsInteger() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balanceOf(from)
	if balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	l.balances[from] = balance.Sub(amount)
	l.totalSupply = l.totalSupply.Sub(amount)
	return nil
}

func (l *Ledger) balanceOf(account string) decimal.Decimal {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return decimal.Zero
}

func (l *Ledger) allowance(owner, spender string) decimal.Decimal {
	if m, ok := l.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return decimal.Zero
}

func (l *Ledger) move(from, to string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 || !amount.IsInteger() {
		return ErrInvalidAmount
	}
	balance := l.balanceOf(from)
	if balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	l.balances[from] = balance.Sub(amount)
	l.balances[to] = l.balanceOf(to).Add(amount)
	return nil
}
