package model

import "time"

// TenantLocation 多據點租戶的營業據點
type TenantLocation struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

const TenantLocationColumns = "id, tenant_id, name, code, address, is_active, created_at"
