package model

import (
	"time"

	"salesdesk/internal/core"
)

// Tenant 控制平面中的租戶紀錄
type Tenant struct {
	ID                    string               `json:"id"`
	Name                  string               `json:"name"`
	Subdomain             string               `json:"subdomain"`
	DatabaseName          string               `json:"databaseName"`
	DatabaseEngine        core.Engine          `json:"databaseEngine"`
	DatabaseURL           string               `json:"-"`
	DatabaseHost          string               `json:"databaseHost,omitempty"`
	DatabasePort          int                  `json:"databasePort,omitempty"` // 0 代表未設定
	DatabaseUser          string               `json:"databaseUser,omitempty"`
	DatabasePassword      string               `json:"-"`
	IsActive              bool                 `json:"isActive"`
	MaxUsers              int                  `json:"maxUsers"`
	SupportsMultiLocation bool                 `json:"supportsMultiLocation"`
	AdminEmail            string               `json:"adminEmail"`
	ProvisionStatus       core.ProvisionStatus `json:"provisionStatus"`
	ProvisionError        string               `json:"provisionError,omitempty"`
	ProvisionedAt         *time.Time           `json:"provisionedAt,omitempty"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

// IsProvisioned 資料庫 schema 與 seed 已完成
func (t *Tenant) IsProvisioned() bool {
	return t.ProvisionStatus == core.ProvisionProvisioned
}

// TenantColumns 查詢欄位順序，與 scan 對應
const TenantColumns = "id, name, subdomain, database_name, database_engine, database_url, database_host, " +
	"database_port, database_user, database_password, is_active, max_users, supports_multi_location, " +
	"admin_email, provision_status, provision_error, provisioned_at, created_at, updated_at"
