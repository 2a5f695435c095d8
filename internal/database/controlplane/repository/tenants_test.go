package repository

import (
	"context"
	"path/filepath"
	"testing"

	"salesdesk/internal/core"
	"salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/migrate"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newControlPlane(t *testing.T) *routing.Handle {
	t.Helper()
	d, err := tenancy.ParseURL("sqlite:///" + filepath.Join(t.TempDir(), "controlplane.sqlite3"))
	require.NoError(t, err)
	d.Options = map[string]string{"_foreign_keys": "on", "_busy_timeout": "5000"}

	db, _, err := sqldb.Open(context.Background(), d, sqldb.OpenOptions{Retries: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handle := routing.NewControlPlaneFromDB(db, d).Handle()
	_, err = migrate.NewRunner(zap.NewNop(), &telemetry.Trace{}).Up(context.Background(), handle)
	require.NoError(t, err)
	return handle
}

func newTenant(name, subdomain string) *model.Tenant {
	return &model.Tenant{
		Name:                  name,
		Subdomain:             subdomain,
		DatabaseName:          tenancy.DatabaseNameFor("sales", subdomain),
		DatabaseEngine:        core.EngineSQLite,
		IsActive:              true,
		MaxUsers:              50,
		SupportsMultiLocation: true,
		AdminEmail:            "owner@" + subdomain + ".com",
	}
}

func TestTenantCreateAndFind(t *testing.T) {
	handle := newControlPlane(t)
	repo := NewTenantRepository(zap.NewNop(), &telemetry.Trace{})
	ctx := context.Background()

	created, err := repo.Create(ctx, handle, newTenant("Acme Co", "acme"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, core.ProvisionPending, created.ProvisionStatus)

	found, err := repo.FindBySubdomain(ctx, handle, "acme", true)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "sales_acme", found.DatabaseName)
	assert.True(t, found.IsActive)
	assert.Nil(t, found.ProvisionedAt)
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt))

	byID, err := repo.GetByID(ctx, handle, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", byID.Name)

	_, err = repo.FindBySubdomain(ctx, handle, "missing", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantUniqueFields(t *testing.T) {
	handle := newControlPlane(t)
	repo := NewTenantRepository(zap.NewNop(), &telemetry.Trace{})
	ctx := context.Background()

	_, err := repo.Create(ctx, handle, newTenant("Acme Co", "acme"))
	require.NoError(t, err)

	cases := []struct {
		tenant *model.Tenant
		field  string
	}{
		{newTenant("Other", "acme"), "subdomain"},
		{newTenant("Acme Co", "acme2"), "name"},
		{func() *model.Tenant { x := newTenant("Third", "third"); x.DatabaseName = "sales_acme"; return x }(), "database_name"},
	}
	for _, tc := range cases {
		_, err := repo.Create(ctx, handle, tc.tenant)
		var dup *DuplicateError
		require.ErrorAs(t, err, &dup, tc.field)
		assert.Equal(t, tc.field, dup.Field)
		assert.Equal(t, tc.field+" already taken", dup.Error())
	}

	exists, err := repo.ExistsBy(ctx, handle, "subdomain", "acme")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ExistsBy(ctx, handle, "name", "Nope")
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = repo.ExistsBy(ctx, handle, "admin_email", "x")
	assert.Error(t, err)
}

func TestTenantListAndStatus(t *testing.T) {
	handle := newControlPlane(t)
	repo := NewTenantRepository(zap.NewNop(), &telemetry.Trace{})
	ctx := context.Background()

	beta, err := repo.Create(ctx, handle, newTenant("Beta", "beta"))
	require.NoError(t, err)
	alpha, err := repo.Create(ctx, handle, newTenant("Alpha", "alpha"))
	require.NoError(t, err)
	inactive := newTenant("Gamma", "gamma")
	inactive.IsActive = false
	_, err = repo.Create(ctx, handle, inactive)
	require.NoError(t, err)

	all, err := repo.List(ctx, handle, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, []string{all[0].Name, all[1].Name, all[2].Name})

	active, err := repo.List(ctx, handle, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = repo.FindBySubdomain(ctx, handle, "gamma", true)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.MarkFailed(ctx, handle, beta.ID, "unreachable: connection refused"))
	require.NoError(t, repo.MarkProvisioned(ctx, handle, alpha.ID))

	failed, err := repo.ListByStatus(ctx, handle, core.ProvisionFailed, core.ProvisionPending)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, beta.ID, failed[0].ID)
	assert.Equal(t, "unreachable: connection refused", failed[0].ProvisionError)

	got, err := repo.GetByID(ctx, handle, alpha.ID)
	require.NoError(t, err)
	assert.True(t, got.IsProvisioned())
	require.NotNil(t, got.ProvisionedAt)
	assert.Empty(t, got.ProvisionError)

	assert.ErrorIs(t, repo.MarkProvisioning(ctx, handle, "missing"), ErrNotFound)
}

func TestTenantUpdateAndDelete(t *testing.T) {
	handle := newControlPlane(t)
	repo := NewTenantRepository(zap.NewNop(), &telemetry.Trace{})
	locations := NewTenantLocationRepository()
	ctx := context.Background()

	tenant, err := repo.Create(ctx, handle, newTenant("Acme Co", "acme"))
	require.NoError(t, err)

	tenant.Name = "Acme Holdings"
	tenant.MaxUsers = 5
	require.NoError(t, repo.Update(ctx, handle, tenant))
	got, err := repo.GetByID(ctx, handle, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", got.Name)
	assert.Equal(t, 5, got.MaxUsers)

	_, err = locations.Create(ctx, handle, &model.TenantLocation{TenantID: tenant.ID, Name: "Main", Code: "HQ", IsActive: true})
	require.NoError(t, err)
	_, err = locations.Create(ctx, handle, &model.TenantLocation{TenantID: tenant.ID, Name: "Dup", Code: "HQ", IsActive: true})
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "code", dup.Field)

	require.NoError(t, repo.Delete(ctx, handle, tenant.ID))
	assert.ErrorIs(t, repo.Delete(ctx, handle, tenant.ID), ErrNotFound)
	remaining, err := locations.ListByTenant(ctx, handle, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRepositoryRejectsTenantHandle(t *testing.T) {
	controlPlane := newControlPlane(t)
	repo := NewTenantRepository(zap.NewNop(), &telemetry.Trace{})
	tenantHandle := &routing.Handle{DB: controlPlane.DB, Engine: core.EngineSQLite, Tenant: &model.Tenant{ID: "a"}, Key: "sales_a"}

	_, err := repo.List(context.Background(), tenantHandle, false)
	assert.ErrorIs(t, err, routing.ErrRoutingContractViolation)
	_, err = NewTenantLocationRepository().ListByTenant(context.Background(), tenantHandle, "a")
	assert.ErrorIs(t, err, routing.ErrRoutingContractViolation)
}
