// Package contextx 在 context 中传递事务句柄
package contextx

import "context"

type txKey struct{}

// WithTx 返回携带事务句柄的 context
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx 取出 context 中的事务句柄，没有则返回 nil
func GetTx(ctx context.Context) any {
	return ctx.Value(txKey{})
}
