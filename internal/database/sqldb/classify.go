package sqldb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Kind 資料庫錯誤分類；provision 與連線失敗依此對應錯誤碼
type Kind string

const (
	KindUnreachable Kind = "unreachable"
	KindPermission  Kind = "permission"
	KindDriver      Kind = "driver"
	KindSchema      Kind = "schema"
	KindUnknown     Kind = "unknown"
)

// Error 帶分類的資料庫錯誤
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return err
	}
	return &Error{Op: op, Kind: Classify(err), Err: err}
}

// IsUniqueViolation 唯一索引衝突（三種引擎）
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// KindOf 已分類的錯誤直接取 Kind，否則即時分類
func KindOf(err error) Kind {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Kind
	}
	return Classify(err)
}

// Classify 依 driver 錯誤碼與網路錯誤判斷類別
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "28000" || pgErr.Code == "28P01" || pgErr.Code == "42501":
			return KindPermission
		case pgErr.Code == "3D000":
			// database 不存在
			return KindUnreachable
		case strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P"):
			return KindUnreachable
		case strings.HasPrefix(pgErr.Code, "42"):
			return KindSchema
		default:
			return KindUnknown
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045, 1142, 1227:
			return KindPermission
		case 1049:
			return KindUnreachable
		case 1050, 1054, 1064, 1146:
			return KindSchema
		default:
			return KindUnknown
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrAuth:
			return KindPermission
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked:
			return KindUnreachable
		case sqlite3.ErrError, sqlite3.ErrConstraint:
			return KindSchema
		default:
			return KindUnknown
		}
	}

	if errors.Is(err, os.ErrPermission) {
		return KindPermission
	}
	if strings.Contains(err.Error(), "unknown driver") {
		return KindDriver
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindUnreachable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnreachable
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mysql.ErrInvalidConn) {
		return KindUnreachable
	}
	return KindUnknown
}
