package tx

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// txKey - ключ для хранения транзакции в контексте. Используем приватный тип, чтобы избежать коллизий.
type txKeyType struct{}

var txKey = txKeyType{}

// WithTx кладет транзакцию в контекст. Репозитории, получившие такой контекст,
// выполняют запросы внутри этой транзакции вместо пула.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// FromContext извлекает транзакцию из контекста.
// Возвращает false, если транзакция не начиналась.
func FromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}
