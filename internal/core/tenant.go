package core

// ProvisionStatus 租戶資料庫 provision 狀態（持久化於註冊表）
type ProvisionStatus string

const (
	ProvisionPending      ProvisionStatus = "pending"      // 已建立，尚未 provision
	ProvisionProvisioning ProvisionStatus = "provisioning" // 進行中
	ProvisionProvisioned  ProvisionStatus = "provisioned"  // 可服務
	ProvisionFailed       ProvisionStatus = "failed"       // 失敗，可重試
)

// HostState 依 Host header 判定的路由狀態
type HostState string

const (
	HostNoSubdomain       HostState = "no_subdomain"
	HostReservedSubdomain HostState = "reserved_subdomain"
	HostValidTenant       HostState = "valid_tenant"
	HostUnknownSubdomain  HostState = "unknown_subdomain"
)

// gin context keys
const (
	ContextHostStateKey = "tenant_host_state"
	ContextTenantKey    = "tenant_current"
	ContextClaimsKey    = "admin_claims"
	ContextRequestIDKey = "request_id"
)

// TenantAuditAction 租戶生命週期稽核動作
type TenantAuditAction string

const (
	AuditActionCreate    TenantAuditAction = "create"
	AuditActionProvision TenantAuditAction = "provision"
	AuditActionUpdate    TenantAuditAction = "update"
	AuditActionDelete    TenantAuditAction = "delete"
)

type TenantAuditStatus string

const (
	AuditStatusStart   TenantAuditStatus = "start"
	AuditStatusSuccess TenantAuditStatus = "success"
	AuditStatusError   TenantAuditStatus = "error"
)

// 預設角色群組
const (
	RoleGroupAdmin    = "Admin"
	RoleGroupManagers = "Managers"
	RoleGroupCashiers = "Cashiers"
)

var DefaultRoleGroups = []string{RoleGroupAdmin, RoleGroupManagers, RoleGroupCashiers}
