// Package tenancy 處理租戶識別：請求範圍的租戶綁定、子網域解析與連線描述解析。
package tenancy

import (
	"context"

	"salesdesk/internal/database/controlplane/model"
)

type tenantCtxKey struct{}

// binding 允許明確綁定「沒有租戶」（控制平面）
type binding struct {
	tenant *model.Tenant
}

// WithTenant 回傳綁定租戶的 context；存放的是副本，呼叫端之後的修改不影響已綁定的值
func WithTenant(ctx context.Context, tenant *model.Tenant) context.Context {
	if tenant == nil {
		return WithoutTenant(ctx)
	}
	snapshot := *tenant
	return context.WithValue(ctx, tenantCtxKey{}, binding{tenant: &snapshot})
}

// WithoutTenant 明確綁定為控制平面（覆蓋外層的租戶）
func WithoutTenant(ctx context.Context) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, binding{})
}

// FromContext 取得目前租戶；未綁定或綁定為 none 時 ok=false
func FromContext(ctx context.Context) (*model.Tenant, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(tenantCtxKey{}).(binding)
	if !ok || b.tenant == nil {
		return nil, false
	}
	return b.tenant, true
}

// TenantIDFromContext 方便 log / trace 使用
func TenantIDFromContext(ctx context.Context) string {
	if t, ok := FromContext(ctx); ok {
		return t.ID
	}
	return ""
}
