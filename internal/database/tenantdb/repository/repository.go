// Package repository 租戶資料庫的資料存取；Handle 必須指向租戶連線。
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewAccountRepository,
	NewProductRepository,
	NewSaleRepository,
)

// ErrNotFound 查無資料
var ErrNotFound = errors.New("record not found")

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Querier *sql.DB 與 *sql.Tx 共同的查詢介面
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
