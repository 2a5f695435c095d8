package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"salesdesk/internal/core"
	cpmodel "salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/migrate"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/database/tenantdb/model"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTenantHandle(t *testing.T, dir, subdomain string) *routing.Handle {
	t.Helper()
	d, err := tenancy.ParseURL("sqlite:///" + filepath.Join(dir, "sales_"+subdomain+".sqlite3"))
	require.NoError(t, err)
	d.Options = map[string]string{"_foreign_keys": "on", "_busy_timeout": "5000"}

	db, _, err := sqldb.Open(context.Background(), d, sqldb.OpenOptions{Retries: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handle := &routing.Handle{
		DB:     db,
		Engine: core.EngineSQLite,
		Tenant: &cpmodel.Tenant{ID: sqldb.NewID(), Subdomain: subdomain, DatabaseName: "sales_" + subdomain},
		Key:    "sales_" + subdomain,
	}
	_, err = migrate.NewRunner(zap.NewNop(), &telemetry.Trace{}).Up(context.Background(), handle)
	require.NoError(t, err)
	return handle
}

func seedCashier(t *testing.T, handle *routing.Handle) *model.User {
	t.Helper()
	ctx := context.Background()
	accounts := NewAccountRepository()

	tx, err := handle.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	roles, err := accounts.EnsureRoles(ctx, tx, handle, core.DefaultRoleGroups)
	require.NoError(t, err)
	user, err := accounts.CreateUser(ctx, tx, handle, &model.User{
		Username: "cashier", Email: "cashier@example.com", PasswordHash: "x", IsActive: true,
	})
	require.NoError(t, err)
	require.NoError(t, accounts.AssignRole(ctx, tx, handle, user.ID, roles[core.RoleGroupCashiers]))
	require.NoError(t, tx.Commit())
	return user
}

func TestEnsureRolesIsIdempotent(t *testing.T) {
	handle := newTenantHandle(t, t.TempDir(), "acme")
	ctx := context.Background()
	accounts := NewAccountRepository()

	ids := make([]map[string]string, 2)
	for i := range ids {
		tx, err := handle.DB.BeginTx(ctx, nil)
		require.NoError(t, err)
		ids[i], err = accounts.EnsureRoles(ctx, tx, handle, core.DefaultRoleGroups)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}
	assert.Equal(t, ids[0], ids[1])

	roles, err := accounts.ListRoles(ctx, handle)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, "Admin", roles[0].Name)
}

func TestUserLookup(t *testing.T) {
	handle := newTenantHandle(t, t.TempDir(), "acme")
	ctx := context.Background()
	accounts := NewAccountRepository()
	cashier := seedCashier(t, handle)

	found, err := accounts.FindUserByUsername(ctx, nil, handle, "cashier")
	require.NoError(t, err)
	assert.Equal(t, cashier.ID, found.ID)
	assert.True(t, found.IsActive)

	_, err = accounts.FindUserByUsername(ctx, nil, handle, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := accounts.CountUsers(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaleTotalsAndSummary(t *testing.T) {
	handle := newTenantHandle(t, t.TempDir(), "acme")
	ctx := context.Background()
	cashier := seedCashier(t, handle)
	sales := NewSaleRepository(&telemetry.Trace{})

	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first, err := sales.Create(ctx, handle, &model.Sale{
		CashierID: cashier.ID, JobType: "printing", UnitPriceCents: 250, Quantity: 4, AmountPaidCents: 600, SaleDate: day,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), first.TotalCents)
	assert.Equal(t, int64(400), first.BalanceCents)

	_, err = sales.Create(ctx, handle, &model.Sale{
		CashierID: cashier.ID, JobType: "binding", UnitPriceCents: 500, Quantity: 1, AmountPaidCents: 500, SaleDate: day.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	all, err := sales.List(ctx, handle, time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "binding", all[0].JobType)

	got, err := sales.GetByID(ctx, handle, first.ID)
	require.NoError(t, err)
	assert.True(t, day.Equal(got.SaleDate))

	summary, err := sales.Summary(ctx, handle, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.SalesSummary{Count: 1, TotalCents: 1000, PaidCents: 600, BalanceCents: 400}, *summary)

	_, err = sales.GetByID(ctx, handle, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantDataIsIsolated(t *testing.T) {
	dir := t.TempDir()
	acme := newTenantHandle(t, dir, "acme")
	globex := newTenantHandle(t, dir, "globex")
	ctx := context.Background()
	products := NewProductRepository(&telemetry.Trace{})

	_, err := products.Create(ctx, acme, &model.Product{Name: "Widget", PriceCents: 1999, Stock: 3})
	require.NoError(t, err)

	onAcme, err := products.List(ctx, acme)
	require.NoError(t, err)
	require.Len(t, onAcme, 1)
	assert.Equal(t, "Widget", onAcme[0].Name)

	onGlobex, err := products.List(ctx, globex)
	require.NoError(t, err)
	assert.Empty(t, onGlobex)

	_, err = products.GetByID(ctx, globex, onAcme[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBusinessEntityRejectsControlPlaneHandle(t *testing.T) {
	tenant := newTenantHandle(t, t.TempDir(), "acme")
	controlPlane := &routing.Handle{DB: tenant.DB, Engine: core.EngineSQLite, Key: routing.ControlPlaneKey}
	ctx := context.Background()

	_, err := NewProductRepository(&telemetry.Trace{}).List(ctx, controlPlane)
	assert.ErrorIs(t, err, routing.ErrRoutingContractViolation)

	_, err = NewSaleRepository(&telemetry.Trace{}).Summary(ctx, nil, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, routing.ErrRoutingContractViolation)

	var tx *sql.Tx
	_, err = NewAccountRepository().EnsureRoles(ctx, tx, controlPlane, core.DefaultRoleGroups)
	assert.ErrorIs(t, err, routing.ErrRoutingContractViolation)
}
