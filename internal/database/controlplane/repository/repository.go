// Package repository 控制平面（租戶註冊表）的資料存取；每個方法都帶明確的 *routing.Handle。
package repository

import (
	"errors"
	"strings"

	"salesdesk/internal/database/sqldb"

	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewTenantRepository,
	NewTenantLocationRepository,
)

// ErrNotFound 查無資料
var ErrNotFound = errors.New("record not found")

// DuplicateError 唯一欄位衝突
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return e.Field + " already taken"
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// duplicateFrom 由 driver 訊息判斷衝突欄位；依索引名稱 ux_{table}_{column}
func duplicateFrom(err error, fields ...string) error {
	if !sqldb.IsUniqueViolation(err) {
		return err
	}
	message := strings.ToLower(err.Error())
	for _, field := range fields {
		if strings.Contains(message, field) {
			return &DuplicateError{Field: field, Err: err}
		}
	}
	return &DuplicateError{Field: "record", Err: err}
}

type rowScanner interface {
	Scan(dest ...any) error
}
