package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"salesdesk/internal/core"
	"salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/telemetry"

	"go.uber.org/zap"
)

type TenantRepository struct {
	logger *zap.Logger
	trace  *telemetry.Trace
}

func NewTenantRepository(logger *zap.Logger, trace *telemetry.Trace) *TenantRepository {
	return &TenantRepository{logger: logger, trace: trace}
}

// 依序檢查，database_name 必須在 name 之前（name 是子字串）
var tenantUniqueFields = []string{"database_name", "subdomain", "name"}

func (repository *TenantRepository) Create(contextValue context.Context, handle *routing.Handle, tenant *model.Tenant) (_ *model.Tenant, returnedError error) {
	if returnedError = handle.Check(core.EntityTenant); returnedError != nil {
		return nil, returnedError
	}
	ctx, span, end := repository.trace.WithSpan(contextValue)
	defer func() { end(returnedError) }()

	nowUTC := sqldb.Now()
	if tenant.ID == "" {
		tenant.ID = sqldb.NewID()
	}
	tenant.CreatedAt = nowUTC
	tenant.UpdatedAt = nowUTC
	if tenant.ProvisionStatus == "" {
		tenant.ProvisionStatus = core.ProvisionPending
	}

	query := handle.Rebind("INSERT INTO tenants (" + model.TenantColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, execError := handle.DB.ExecContext(ctx, query,
		tenant.ID, tenant.Name, tenant.Subdomain, tenant.DatabaseName, string(tenant.DatabaseEngine),
		tenant.DatabaseURL, tenant.DatabaseHost, tenant.DatabasePort, tenant.DatabaseUser, tenant.DatabasePassword,
		tenant.IsActive, tenant.MaxUsers, tenant.SupportsMultiLocation, tenant.AdminEmail,
		string(tenant.ProvisionStatus), tenant.ProvisionError, nullTime(tenant.ProvisionedAt),
		tenant.CreatedAt, tenant.UpdatedAt,
	)
	if execError != nil {
		return nil, duplicateFrom(execError, tenantUniqueFields...)
	}
	repository.trace.ApplyTraceAttributes(span, core.TraceTenantRepoMeta{Op: "create", TenantID: tenant.ID, Subdomain: tenant.Subdomain})
	return tenant, nil
}

func (repository *TenantRepository) GetByID(contextValue context.Context, handle *routing.Handle, tenantID string) (_ *model.Tenant, returnedError error) {
	if returnedError = handle.Check(core.EntityTenant); returnedError != nil {
		return nil, returnedError
	}
	row := handle.DB.QueryRowContext(contextValue, handle.Rebind("SELECT "+model.TenantColumns+" FROM tenants WHERE id = ?"), tenantID)
	return scanTenant(row)
}

// FindBySubdomain activeOnly=true 為路由使用的查詢
func (repository *TenantRepository) FindBySubdomain(contextValue context.Context, handle *routing.Handle, subdomain string, activeOnly bool) (_ *model.Tenant, returnedError error) {
	if returnedError = handle.Check(core.EntityTenant); returnedError != nil {
		return nil, returnedError
	}
	query := "SELECT " + model.TenantColumns + " FROM tenants WHERE subdomain = ?"
	args := []any{subdomain}
	if activeOnly {
		query += " AND is_active = ?"
		args = append(args, true)
	}
	return scanTenant(handle.DB.QueryRowContext(contextValue, handle.Rebind(query), args...))
}

// List 依名稱排序
func (repository *TenantRepository) List(contextValue context.Context, handle *routing.Handle, activeOnly bool) (_ []*model.Tenant, returnedError error) {
	query := "SELECT " + model.TenantColumns + " FROM tenants"
	var args []any
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	return repository.list(contextValue, handle, query+" ORDER BY name", args...)
}

// ListByStatus 依 provision 狀態篩選（僅 active）
func (repository *TenantRepository) ListByStatus(contextValue context.Context, handle *routing.Handle, statuses ...core.ProvisionStatus) (_ []*model.Tenant, returnedError error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := []any{true}
	for _, status := range statuses {
		args = append(args, string(status))
	}
	query := "SELECT " + model.TenantColumns + " FROM tenants WHERE is_active = ? AND provision_status IN (" + placeholders + ") ORDER BY name"
	return repository.list(contextValue, handle, query, args...)
}

func (repository *TenantRepository) list(contextValue context.Context, handle *routing.Handle, query string, args ...any) (_ []*model.Tenant, returnedError error) {
	if returnedError = handle.Check(core.EntityTenant); returnedError != nil {
		return nil, returnedError
	}
	rows, queryError := handle.DB.QueryContext(contextValue, handle.Rebind(query), args...)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	var results []*model.Tenant
	for rows.Next() {
		tenant, scanError := scanTenant(rows)
		if scanError != nil {
			return nil, scanError
		}
		results = append(results, tenant)
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, rowsError
	}
	return results, nil
}

// ExistsBy 唯一欄位是否已被使用
func (repository *TenantRepository) ExistsBy(contextValue context.Context, handle *routing.Handle, field string, value string) (_ bool, returnedError error) {
	if returnedError = handle.Check(core.EntityTenant); returnedError != nil {
		return false, returnedError
	}
	switch field {
	case "name", "subdomain", "database_name":
	default:
		return false, fmt.Errorf("unsupported unique field %q", field)
	}
	var count int
	query := handle.Rebind("SELECT COUNT(*) FROM tenants WHERE " + field + " = ?")
	if returnedError = handle.DB.QueryRowContext(contextValue, query, value).Scan(&count); returnedError != nil {
		return false, returnedError
	}
	return count > 0, nil
}

// Update 只更新可變欄位；連線欄位建立後不可修改
func (repository *TenantRepository) Update(contextValue context.Context, handle *routing.Handle, tenant *model.Tenant) (returnedError error) {
	if returnedError = handle.Check(core.EntityTenant); returnedError != nil {
		return returnedError
	}
	tenant.UpdatedAt = sqldb.Now()
	result, execError := handle.DB.ExecContext(contextValue, handle.Rebind(
		"UPDATE tenants SET name = ?, admin_email = ?, max_users = ?, supports_multi_location = ?, is_active = ?, updated_at = ? WHERE id = ?"),
		tenant.Name, tenant.AdminEmail, tenant.MaxUsers, tenant.SupportsMultiLocation, tenant.IsActive, tenant.UpdatedAt, tenant.ID,
	)
	if execError != nil {
		return duplicateFrom(execError, tenantUniqueFields...)
	}
	return requireAffected(result)
}

// Delete 連同據點一起刪除
func (repository *TenantRepository) Delete(contextValue context.Context, handle *routing.Handle, tenantID string) (returnedError error) {
	if returnedError = handle.Check(core.EntityTenant); returnedError != nil {
		return returnedError
	}
	tx, beginError := handle.DB.BeginTx(contextValue, nil)
	if beginError != nil {
		return beginError
	}
	defer func() {
		if returnedError != nil {
			_ = tx.Rollback()
		}
	}()

	if _, returnedError = tx.ExecContext(contextValue, handle.Rebind("DELETE FROM tenant_locations WHERE tenant_id = ?"), tenantID); returnedError != nil {
		return returnedError
	}
	result, execError := tx.ExecContext(contextValue, handle.Rebind("DELETE FROM tenants WHERE id = ?"), tenantID)
	if execError != nil {
		return execError
	}
	if returnedError = requireAffected(result); returnedError != nil {
		return returnedError
	}
	return tx.Commit()
}

func (repository *TenantRepository) MarkProvisioning(contextValue context.Context, handle *routing.Handle, tenantID string) error {
	return repository.setStatus(contextValue, handle, tenantID, core.ProvisionProvisioning, "", nil)
}

func (repository *TenantRepository) MarkProvisioned(contextValue context.Context, handle *routing.Handle, tenantID string) error {
	now := sqldb.Now()
	return repository.setStatus(contextValue, handle, tenantID, core.ProvisionProvisioned, "", &now)
}

func (repository *TenantRepository) MarkFailed(contextValue context.Context, handle *routing.Handle, tenantID string, cause string) error {
	return repository.setStatus(contextValue, handle, tenantID, core.ProvisionFailed, cause, nil)
}

func (repository *TenantRepository) setStatus(contextValue context.Context, handle *routing.Handle, tenantID string, status core.ProvisionStatus, cause string, provisionedAt *time.Time) (returnedError error) {
	if returnedError = handle.Check(core.EntityTenant); returnedError != nil {
		return returnedError
	}
	result, execError := handle.DB.ExecContext(contextValue, handle.Rebind(
		"UPDATE tenants SET provision_status = ?, provision_error = ?, provisioned_at = ?, updated_at = ? WHERE id = ?"),
		string(status), cause, nullTime(provisionedAt), sqldb.Now(), tenantID,
	)
	if execError != nil {
		return execError
	}
	if returnedError = requireAffected(result); returnedError != nil {
		return returnedError
	}
	repository.logger.Info("tenant provision status changed",
		zap.String("tenant_id", tenantID),
		zap.String("status", string(status)))
	return nil
}

func scanTenant(row rowScanner) (*model.Tenant, error) {
	var (
		tenant        model.Tenant
		engine        string
		status        string
		provisionedAt sql.NullTime
	)
	err := row.Scan(
		&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.DatabaseName, &engine,
		&tenant.DatabaseURL, &tenant.DatabaseHost, &tenant.DatabasePort, &tenant.DatabaseUser, &tenant.DatabasePassword,
		&tenant.IsActive, &tenant.MaxUsers, &tenant.SupportsMultiLocation, &tenant.AdminEmail,
		&status, &tenant.ProvisionError, &provisionedAt,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	tenant.DatabaseEngine = core.Engine(engine)
	tenant.ProvisionStatus = core.ProvisionStatus(status)
	if provisionedAt.Valid {
		at := provisionedAt.Time.UTC()
		tenant.ProvisionedAt = &at
	}
	tenant.CreatedAt = tenant.CreatedAt.UTC()
	tenant.UpdatedAt = tenant.UpdatedAt.UTC()
	return &tenant, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
