// Package sqldb 以 database/sql 開啟租戶與控制平面資料庫，並將 driver 錯誤分類。
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"salesdesk/internal/tenancy"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// OpenOptions 連線取得策略
type OpenOptions struct {
	// 最大嘗試次數（含第一次），0 視為 1
	Retries uint
	// 單次 ping 逾時
	PingTimeout time.Duration
	// 第一次重試前的等待時間，0 使用 backoff 預設值
	InitialInterval time.Duration
}

// Open 開啟並 ping 資料庫；只有 unreachable 類錯誤會重試。
// 回傳的 attempts 供 trace 使用。
func Open(ctx context.Context, d tenancy.Descriptor, opts OpenOptions) (_ *sql.DB, attempts int, returnedError error) {
	if d.Engine.IsEmbedded() && d.Path != "" {
		if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
			return nil, 0, wrap("prepare data directory", err)
		}
	}

	db, err := sql.Open(d.DriverName(), d.DSN())
	if err != nil {
		return nil, 0, &Error{Op: "open", Kind: KindDriver, Err: err}
	}
	if d.MaxOpenConns > 0 {
		db.SetMaxOpenConns(d.MaxOpenConns)
	}
	if d.MaxIdleConns > 0 {
		db.SetMaxIdleConns(d.MaxIdleConns)
	}
	if d.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(d.ConnMaxLifetime)
	}

	tries := opts.Retries
	if tries == 0 {
		tries = 1
	}
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	policy := backoff.NewExponentialBackOff()
	if opts.InitialInterval > 0 {
		policy.InitialInterval = opts.InitialInterval
	}
	policy.MaxInterval = 2 * time.Second

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if pingErr := db.PingContext(pingCtx); pingErr != nil {
			if Classify(pingErr) != KindUnreachable {
				return struct{}{}, backoff.Permanent(pingErr)
			}
			return struct{}{}, pingErr
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(tries))
	if err != nil {
		_ = db.Close()
		return nil, attempts, wrap("ping", err)
	}
	return db, attempts, nil
}

// Exists 內嵌引擎的資料檔是否已存在；網路型引擎一律回傳 true
func Exists(d tenancy.Descriptor) bool {
	if !d.Engine.IsEmbedded() {
		return true
	}
	_, err := os.Stat(d.Path)
	return !errors.Is(err, os.ErrNotExist)
}
