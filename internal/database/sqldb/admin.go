package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"salesdesk/internal/core"
	"salesdesk/internal/tenancy"

	"github.com/jackc/pgx/v5"
)

// EnsureDatabase 確保資料庫存在；server 為維護資料庫連線（內嵌引擎可傳 nil）。
// created=false 代表資料庫原本就存在。
func EnsureDatabase(ctx context.Context, server *sql.DB, d tenancy.Descriptor) (created bool, returnedError error) {
	switch d.Engine {
	case core.EngineSQLite:
		if d.Path == "" {
			return false, &Error{Op: "create database", Kind: KindSchema, Err: errors.New("embedded database path is empty")}
		}
		return !Exists(d), nil
	case core.EnginePostgres:
		var one int
		err := server.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", d.Name).Scan(&one)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, wrap("lookup database", err)
		}
		if _, err := server.ExecContext(ctx, "CREATE DATABASE "+pgx.Identifier{d.Name}.Sanitize()); err != nil {
			return false, wrap("create database", err)
		}
		return true, nil
	case core.EngineMySQL:
		result, err := server.ExecContext(ctx,
			"CREATE DATABASE IF NOT EXISTS "+quoteMySQL(d.Name)+" CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci")
		if err != nil {
			return false, wrap("create database", err)
		}
		// 已存在時 MySQL 回報 0 rows affected 並附 warning
		n, _ := result.RowsAffected()
		return n > 0, nil
	default:
		return false, &Error{Op: "create database", Kind: KindDriver, Err: fmt.Errorf("unsupported engine %q", d.Engine)}
	}
}

// DropDatabase 刪除資料庫；不存在時視為成功
func DropDatabase(ctx context.Context, server *sql.DB, d tenancy.Descriptor) error {
	switch d.Engine {
	case core.EngineSQLite:
		for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
			if err := os.Remove(d.Path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
				return wrap("drop database", err)
			}
		}
		return nil
	case core.EnginePostgres:
		if _, err := server.ExecContext(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{d.Name}.Sanitize()); err != nil {
			return wrap("drop database", err)
		}
		return nil
	case core.EngineMySQL:
		if _, err := server.ExecContext(ctx, "DROP DATABASE IF EXISTS "+quoteMySQL(d.Name)); err != nil {
			return wrap("drop database", err)
		}
		return nil
	default:
		return &Error{Op: "drop database", Kind: KindDriver, Err: fmt.Errorf("unsupported engine %q", d.Engine)}
	}
}

// WithServer 開啟維護資料庫連線執行 fn；內嵌引擎不開連線
func WithServer(ctx context.Context, d tenancy.Descriptor, opts OpenOptions, fn func(server *sql.DB) error) error {
	if d.Engine.IsEmbedded() {
		return fn(nil)
	}
	server, _, err := Open(ctx, d.Server(), opts)
	if err != nil {
		return err
	}
	defer server.Close()
	return fn(server)
}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
