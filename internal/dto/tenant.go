package dto

import (
	"time"

	"salesdesk/internal/core"
	"salesdesk/internal/pkg/request"
)

// 建立租戶；連線欄位擇一：DatabaseURL 或 host/port/user/password
type CreateTenantDto struct {
	Name                  string `json:"name" binding:"required,min=2,max=100"`
	Subdomain             string `json:"subdomain" binding:"required"`
	AdminEmail            string `json:"adminEmail" binding:"required,email"`
	DatabaseEngine        string `json:"databaseEngine,omitempty"`
	DatabaseName          string `json:"databaseName,omitempty" binding:"omitempty,max=63"`
	DatabaseURL           string `json:"databaseUrl,omitempty"`
	DatabaseHost          string `json:"databaseHost,omitempty" binding:"omitempty,hostname_rfc1123|ip"`
	DatabasePort          *int   `json:"databasePort,omitempty" binding:"omitempty,min=0,max=65535"` // 0 視為未設定
	DatabaseUser          string `json:"databaseUser,omitempty"`
	DatabasePassword      string `json:"databasePassword,omitempty"`
	MaxUsers              *int   `json:"maxUsers,omitempty" binding:"omitempty,min=1"`
	SupportsMultiLocation *bool  `json:"supportsMultiLocation,omitempty"`
	// true 則只建立註冊資料，稍後再 provision
	DeferProvisioning bool `json:"deferProvisioning,omitempty"`
}

func (CreateTenantDto) GetMessages() request.ValidatorMessages {
	return request.ValidatorMessages{
		"Name.min":                         "name must be at least 2 characters",
		"Subdomain.required":               "subdomain is required",
		"AdminEmail.email":                 "adminEmail must be a valid email address",
		"DatabaseName.max":                 "databaseName must be at most 63 characters",
		"DatabaseHost.hostname_rfc1123|ip": "databaseHost must be a hostname or IP address",
		"DatabasePort.min":                 "databasePort must be between 0 and 65535",
		"DatabasePort.max":                 "databasePort must be between 0 and 65535",
		"MaxUsers.min":                     "maxUsers must be at least 1",
	}
}

// 更新租戶；連線欄位建立後不可變更
type UpdateTenantDto struct {
	Name                  *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	AdminEmail            *string `json:"adminEmail,omitempty" binding:"omitempty,email"`
	MaxUsers              *int    `json:"maxUsers,omitempty" binding:"omitempty,min=1"`
	SupportsMultiLocation *bool   `json:"supportsMultiLocation,omitempty"`
	IsActive              *bool   `json:"isActive,omitempty"`
}

type TenantResponseDto struct {
	ID                    string               `json:"id"`
	Name                  string               `json:"name"`
	Subdomain             string               `json:"subdomain"`
	URL                   string               `json:"url"`
	DatabaseName          string               `json:"databaseName"`
	DatabaseEngine        core.Engine          `json:"databaseEngine"`
	DatabaseTarget        string               `json:"databaseTarget"` // 密碼已遮蔽
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

// ProvisionResultDto AdminPassword 只在帳號首次建立時回傳一次
type ProvisionResultDto struct {
	Status             core.ProvisionStatus `json:"status"`
	DatabaseCreated    bool                 `json:"databaseCreated"`
	MigrationsApplied  int                  `json:"migrationsApplied"`
	AdminUsername      string               `json:"adminUsername,omitempty"`
	AdminPassword      string               `json:"adminPassword,omitempty"`
	MustChangePassword bool                 `json:"mustChangePassword,omitempty"`
	ErrorKind          string               `json:"errorKind,omitempty"`
	Error              string               `json:"error,omitempty"`
}

type CreateTenantResponseDto struct {
	Tenant    *TenantResponseDto  `json:"tenant"`
	Provision *ProvisionResultDto `json:"provision,omitempty"`
}

type DeleteTenantResponseDto struct {
	TenantID        string `json:"tenantId"`
	PoolEvicted     bool   `json:"poolEvicted"`
	DatabaseDropped bool   `json:"databaseDropped"`
	// 註冊資料已刪除但資料庫刪除失敗時的原因
	DropError string `json:"dropError,omitempty"`
}

type CreateTenantLocationDto struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Code    string `json:"code" binding:"required,alphanum,max=20"`
	Address string `json:"address,omitempty" binding:"omitempty,max=255"`
}

// 沒有子網域時回給前端的租戶選擇清單
type TenantLinkDto struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	URL       string `json:"url"`
}

type TenantSelectionDto struct {
	Tenants []TenantLinkDto `json:"tenants"`
}

// 租戶端 GET /api/tenant
type CurrentTenantDto struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Subdomain             string `json:"subdomain"`
	MaxUsers              int    `json:"maxUsers"`
	SupportsMultiLocation bool   `json:"supportsMultiLocation"`
	Users                 int    `json:"users"`
}
