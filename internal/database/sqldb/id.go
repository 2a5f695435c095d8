package sqldb

import (
	"time"

	"github.com/google/uuid"
)

// NewID 時間有序的 uuid v7，所有資料表主鍵共用
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Now 以微秒精度的 UTC 時間寫入，postgres/mysql 讀回後可直接比對
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
