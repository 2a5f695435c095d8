package repository

import (
	"context"

	"salesdesk/internal/core"
	"salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
)

type TenantLocationRepository struct{}

func NewTenantLocationRepository() *TenantLocationRepository {
	return &TenantLocationRepository{}
}

func (repository *TenantLocationRepository) Create(contextValue context.Context, handle *routing.Handle, location *model.TenantLocation) (_ *model.TenantLocation, returnedError error) {
	if returnedError = handle.Check(core.EntityTenantLocation); returnedError != nil {
		return nil, returnedError
	}
	if location.ID == "" {
		location.ID = sqldb.NewID()
	}
	location.CreatedAt = sqldb.Now()
	_, execError := handle.DB.ExecContext(contextValue, handle.Rebind(
		"INSERT INTO tenant_locations ("+model.TenantLocationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)"),
		location.ID, location.TenantID, location.Name, location.Code, location.Address, location.IsActive, location.CreatedAt,
	)
	if execError != nil {
		return nil, duplicateFrom(execError, "code")
	}
	return location, nil
}

func (repository *TenantLocationRepository) ListByTenant(contextValue context.Context, handle *routing.Handle, tenantID string) (_ []*model.TenantLocation, returnedError error) {
	if returnedError = handle.Check(core.EntityTenantLocation); returnedError != nil {
		return nil, returnedError
	}
	rows, queryError := handle.DB.QueryContext(contextValue, handle.Rebind(
		"SELECT "+model.TenantLocationColumns+" FROM tenant_locations WHERE tenant_id = ? ORDER BY code"), tenantID)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	var results []*model.TenantLocation
	for rows.Next() {
		var location model.TenantLocation
		if scanError := rows.Scan(&location.ID, &location.TenantID, &location.Name, &location.Code,
			&location.Address, &location.IsActive, &location.CreatedAt); scanError != nil {
			return nil, scanError
		}
		location.CreatedAt = location.CreatedAt.UTC()
		results = append(results, &location)
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, rowsError
	}
	return results, nil
}
