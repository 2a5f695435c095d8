package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/database/client"
	cpRepo "salesdesk/internal/database/controlplane/repository"
	"salesdesk/internal/database/migrate"
	mongoRepo "salesdesk/internal/database/mongodb/repository"
	"salesdesk/internal/database/pool"
	redisRepo "salesdesk/internal/database/redis/repository"
	"salesdesk/internal/database/routing"
	tenantRepo "salesdesk/internal/database/tenantdb/repository"
	"salesdesk/internal/dto"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testStack struct {
	conf      *config.Configuration
	pools     *pool.Manager
	router    *routing.Router
	accounts  *tenantRepo.AccountRepository
	tenants   *TenantService
	provision *ProvisionService
	products  *ProductService
	sales     *SaleService
}

func newTestStack(t *testing.T, mutate func(*config.Configuration)) *testStack {
	t.Helper()
	dir := t.TempDir()
	conf := &config.Configuration{}
	conf.Database.URL = "sqlite:///" + filepath.Join(dir, "controlplane.sqlite3")
	conf.Tenant.DataRoot = filepath.Join(dir, "tenant_dbs")
	conf.Tenant.ConnectRetries = 1
	conf.Tenant.ConnectTimeout = 1000
	if mutate != nil {
		mutate(conf)
	}
	conf.ApplyDefaults()

	logger := zap.NewNop()
	trace := &telemetry.Trace{}
	metric := &telemetry.Metric{}
	resolver := tenancy.NewResolver(conf)

	controlPlane, closeControlPlane, err := routing.NewControlPlane(logger, conf, resolver)
	require.NoError(t, err)
	t.Cleanup(closeControlPlane)
	runner := migrate.NewRunner(logger, trace)
	_, err = runner.Up(context.Background(), controlPlane.Handle())
	require.NoError(t, err)

	pools, closePools := pool.NewManager(logger, conf, resolver, trace, metric)
	t.Cleanup(closePools)
	router := routing.NewRouter(logger, metric, pools, controlPlane)

	mongoClient, closeMongo, err := client.NewMongoClient(logger, conf)
	require.NoError(t, err)
	t.Cleanup(closeMongo)
	audit := NewAuditService(logger, mongoRepo.NewTenantEventRepository(trace, mongoClient))

	redisClient := &client.RedisClient{}
	if conf.Redis.Host != "" {
		var closeRedis func()
		redisClient, closeRedis, err = client.NewRedisClient(logger, conf)
		require.NoError(t, err)
		t.Cleanup(closeRedis)
	}

	tenantRepository := cpRepo.NewTenantRepository(logger, trace)
	accounts := tenantRepo.NewAccountRepository()
	provision := NewProvisionService(logger, conf, trace, metric, resolver, router, runner,
		tenantRepository, accounts, redisRepo.NewProvisionLockRepository(trace, redisClient), audit)

	return &testStack{
		conf:      conf,
		pools:     pools,
		router:    router,
		accounts:  accounts,
		provision: provision,
		tenants: NewTenantService(logger, conf, trace, resolver, router, pools,
			tenantRepository, cpRepo.NewTenantLocationRepository(), provision, audit),
		products: NewProductService(trace, router, tenantRepo.NewProductRepository(trace)),
		sales:    NewSaleService(trace, router, tenantRepo.NewSaleRepository(trace), accounts),
	}
}

func createInput(name, subdomain string) *dto.CreateTenantDto {
	return &dto.CreateTenantDto{Name: name, Subdomain: subdomain, AdminEmail: "owner@" + subdomain + ".example.com"}
}

func errorCode(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return cErr.From(err).ErrorCode()
}

func TestCreateTenantProvisionsAndSeeds(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()

	created, err := stack.tenants.Create(ctx, createInput("Acme Co", "Acme"))
	require.NoError(t, err)
	require.NotNil(t, created.Provision)

	assert.Equal(t, "acme", created.Tenant.Subdomain)
	assert.Equal(t, "sales_acme", created.Tenant.DatabaseName)
	assert.Equal(t, core.ProvisionProvisioned, created.Tenant.ProvisionStatus)
	assert.NotNil(t, created.Tenant.ProvisionedAt)
	assert.Equal(t, core.ProvisionProvisioned, created.Provision.Status)
	assert.True(t, created.Provision.DatabaseCreated)
	assert.Equal(t, 2, created.Provision.MigrationsApplied)
	assert.Equal(t, "admin", created.Provision.AdminUsername)
	assert.NotEmpty(t, created.Provision.AdminPassword)
	assert.True(t, created.Provision.MustChangePassword)
	assert.FileExists(t, filepath.Join(stack.conf.Tenant.DataRoot, "sales_acme.sqlite3"))

	tenant, err := stack.tenants.Get(ctx, created.Tenant.ID)
	require.NoError(t, err)
	handle, err := stack.router.ForTenant(ctx, tenant)
	require.NoError(t, err)

	admin, err := stack.accounts.FindUserByUsername(ctx, nil, handle, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsSuperuser)
	assert.True(t, admin.MustChangePassword)
	assert.Equal(t, "owner@acme.example.com", admin.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(created.Provision.AdminPassword)))

	roles, err := stack.accounts.ListRoles(ctx, handle)
	require.NoError(t, err)
	assert.Len(t, roles, 3)
	assert.Equal(t, 1, stack.pools.Len())
}

func TestCreateTenantUsesConfiguredSeedPassword(t *testing.T) {
	stack := newTestStack(t, func(c *config.Configuration) { c.Tenant.Seed.AdminPassword = "change-me-now" })

	created, err := stack.tenants.Create(context.Background(), createInput("Acme Co", "acme"))
	require.NoError(t, err)
	assert.Equal(t, "change-me-now", created.Provision.AdminPassword)
}

func TestCreateTenantValidation(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()
	_, err := stack.tenants.Create(ctx, createInput("Acme Co", "acme"))
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*dto.CreateTenantDto)
	}{
		{"reserved www", func(d *dto.CreateTenantDto) { d.Subdomain = "www" }},
		{"control plane label", func(d *dto.CreateTenantDto) { d.Subdomain = "admin" }},
		{"single character subdomain", func(d *dto.CreateTenantDto) { d.Subdomain = "a" }},
		{"underscore subdomain", func(d *dto.CreateTenantDto) { d.Subdomain = "bad_name" }},
		{"short name", func(d *dto.CreateTenantDto) { d.Name = "A" }},
		{"bad email", func(d *dto.CreateTenantDto) { d.AdminEmail = "not-an-email" }},
		{"unknown engine", func(d *dto.CreateTenantDto) { d.DatabaseEngine = "oracle" }},
		{"unsupported url scheme", func(d *dto.CreateTenantDto) { d.DatabaseURL = "mssql://db/x" }},
		{"engine and url disagree", func(d *dto.CreateTenantDto) {
			d.DatabaseEngine = "mysql"
			d.DatabaseURL = "postgres://u:p@db/x"
		}},
		{"duplicate subdomain", func(d *dto.CreateTenantDto) { d.Subdomain = "ACME" }},
		{"duplicate name", func(d *dto.CreateTenantDto) { d.Name = "Acme Co" }},
		{"duplicate database name", func(d *dto.CreateTenantDto) { d.DatabaseName = "sales_acme" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := createInput("Globex", "globex")
			tc.mutate(input)
			_, err := stack.tenants.Create(ctx, input)
			assert.Equal(t, cErr.TENANT_VALIDATION, errorCode(t, err))
		})
	}

	tenants, err := stack.tenants.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
	assert.Equal(t, 1, stack.pools.Len())
}

func TestDuplicateSubdomainMessage(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()
	_, err := stack.tenants.Create(ctx, createInput("Acme Co", "acme"))
	require.NoError(t, err)

	_, err = stack.tenants.Create(ctx, createInput("Other", "acme"))
	require.Error(t, err)
	assert.Equal(t, "subdomain already taken", cErr.From(err).ErrorDesc())
}

func TestEmbeddedDatabaseURLIsUniquePerFile(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()
	url := "sqlite:///" + filepath.Join(t.TempDir(), "shared.sqlite3")

	first := createInput("Acme Co", "acme")
	first.DatabaseURL = url
	created, err := stack.tenants.Create(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "shared", created.Tenant.DatabaseName)
	assert.Equal(t, core.ProvisionProvisioned, created.Tenant.ProvisionStatus)

	second := createInput("Globex", "globex")
	second.DatabaseURL = url
	_, err = stack.tenants.Create(ctx, second)
	assert.Equal(t, cErr.TENANT_VALIDATION, errorCode(t, err))
	assert.Equal(t, "database name already taken", cErr.From(err).ErrorDesc())

	mismatch := createInput("Initech", "initech")
	mismatch.DatabaseURL = "sqlite:///" + filepath.Join(t.TempDir(), "initech.sqlite3")
	mismatch.DatabaseName = "sales_other"
	_, err = stack.tenants.Create(ctx, mismatch)
	assert.Equal(t, cErr.TENANT_VALIDATION, errorCode(t, err))

	tenants, err := stack.tenants.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
	assert.Equal(t, 1, stack.pools.Len())
}

func TestAdminEmailDomainIsLowercased(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()

	input := createInput("Acme Co", "acme")
	input.AdminEmail = "Owner@ACME.Example.COM"
	created, err := stack.tenants.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "Owner@acme.example.com", created.Tenant.AdminEmail)

	email := "Billing@Acme.Example.com"
	updated, err := stack.tenants.Update(ctx, created.Tenant.ID, &dto.UpdateTenantDto{AdminEmail: &email})
	require.NoError(t, err)
	assert.Equal(t, "Billing@acme.example.com", updated.AdminEmail)
}

func TestProvisionFailureLeavesFailedStatus(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()

	port := 1
	input := createInput("Remote Co", "remote")
	input.DatabaseEngine = "postgres"
	input.DatabaseHost = "127.0.0.1"
	input.DatabasePort = &port
	input.DatabaseUser = "sales"
	input.DatabasePassword = "secret"

	created, err := stack.tenants.Create(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, created.Provision)
	assert.Equal(t, core.ProvisionFailed, created.Provision.Status)
	assert.Equal(t, "unreachable", created.Provision.ErrorKind)
	assert.Empty(t, created.Provision.AdminPassword)
	assert.Equal(t, core.ProvisionFailed, created.Tenant.ProvisionStatus)
	assert.Contains(t, created.Tenant.ProvisionError, "unreachable")
	assert.NotContains(t, created.Tenant.DatabaseTarget, "secret")

	_, err = stack.provision.Reprovision(ctx, created.Tenant.ID)
	assert.Equal(t, cErr.PROVISION_UNREACHABLE, errorCode(t, err))

	tenant, err := stack.tenants.Get(ctx, created.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ProvisionFailed, tenant.ProvisionStatus)
	assert.Equal(t, 0, stack.pools.Len())
}

func TestDeferredProvisioningAndRetry(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()

	input := createInput("Acme Co", "acme")
	input.DeferProvisioning = true
	created, err := stack.tenants.Create(ctx, input)
	require.NoError(t, err)
	assert.Nil(t, created.Provision)
	assert.Equal(t, core.ProvisionPending, created.Tenant.ProvisionStatus)
	assert.Equal(t, 0, stack.pools.Len())

	succeeded, failed, err := stack.provision.RetryUnprovisioned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, failed)

	tenant, err := stack.tenants.Get(ctx, created.Tenant.ID)
	require.NoError(t, err)
	assert.True(t, tenant.IsProvisioned())
}

func TestConcurrentProvisionSeedsOnce(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()

	input := createInput("Acme Co", "acme")
	input.DeferProvisioning = true
	created, err := stack.tenants.Create(ctx, input)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		passwords []string
		errs      []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := stack.provision.Reprovision(ctx, created.Tenant.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if result.AdminPassword != "" {
				passwords = append(passwords, result.AdminPassword)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Len(t, passwords, 1)
	assert.Equal(t, 1, stack.pools.Len())
}

func TestUpdateTenant(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()
	created, err := stack.tenants.Create(ctx, createInput("Acme Co", "acme"))
	require.NoError(t, err)
	_, err = stack.tenants.Create(ctx, createInput("Globex", "globex"))
	require.NoError(t, err)

	name, maxUsers, active := "Acme Corporation", 5, false
	updated, err := stack.tenants.Update(ctx, created.Tenant.ID, &dto.UpdateTenantDto{Name: &name, MaxUsers: &maxUsers, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", updated.Name)
	assert.Equal(t, 5, updated.MaxUsers)
	assert.False(t, updated.IsActive)

	_, err = stack.tenants.FindActiveBySubdomain(ctx, "acme")
	assert.ErrorIs(t, err, cpRepo.ErrNotFound)

	taken := "Globex"
	_, err = stack.tenants.Update(ctx, created.Tenant.ID, &dto.UpdateTenantDto{Name: &taken})
	assert.Equal(t, cErr.TENANT_VALIDATION, errorCode(t, err))

	blank := "   "
	_, err = stack.tenants.Update(ctx, created.Tenant.ID, &dto.UpdateTenantDto{Name: &blank})
	assert.Equal(t, cErr.TENANT_VALIDATION, errorCode(t, err))
	assert.Equal(t, "name must be at least 2 characters", cErr.From(err).ErrorDesc())

	stored, err := stack.tenants.Get(ctx, created.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", stored.Name)
}

func TestDeleteTenantEvictsPoolAndDropsDatabase(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()
	created, err := stack.tenants.Create(ctx, createInput("Acme Co", "acme"))
	require.NoError(t, err)
	_, err = stack.tenants.AddLocation(ctx, created.Tenant.ID, &dto.CreateTenantLocationDto{Name: "Main Street", Code: "main"})
	require.NoError(t, err)
	path := filepath.Join(stack.conf.Tenant.DataRoot, "sales_acme.sqlite3")
	require.FileExists(t, path)

	result, err := stack.tenants.Delete(ctx, created.Tenant.ID, false)
	require.NoError(t, err)
	assert.True(t, result.PoolEvicted)
	assert.True(t, result.DatabaseDropped)
	assert.Empty(t, result.DropError)
	assert.Equal(t, 0, stack.pools.Len())
	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	_, err = stack.tenants.Get(ctx, created.Tenant.ID)
	assert.Equal(t, cErr.NOT_FOUND, errorCode(t, err))
	_, err = stack.tenants.Delete(ctx, created.Tenant.ID, false)
	assert.Equal(t, cErr.NOT_FOUND, errorCode(t, err))
}

func TestDeleteTenantKeepDatabase(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()
	created, err := stack.tenants.Create(ctx, createInput("Acme Co", "acme"))
	require.NoError(t, err)

	result, err := stack.tenants.Delete(ctx, created.Tenant.ID, true)
	require.NoError(t, err)
	assert.False(t, result.DatabaseDropped)
	assert.FileExists(t, filepath.Join(stack.conf.Tenant.DataRoot, "sales_acme.sqlite3"))
}

func TestLocationsRequireMultiLocationSupport(t *testing.T) {
	stack := newTestStack(t, nil)
	ctx := context.Background()

	single := false
	input := createInput("Solo Shop", "solo")
	input.SupportsMultiLocation = &single
	input.DeferProvisioning = true
	created, err := stack.tenants.Create(ctx, input)
	require.NoError(t, err)

	_, err = stack.tenants.AddLocation(ctx, created.Tenant.ID, &dto.CreateTenantLocationDto{Name: "Main", Code: "main"})
	assert.Equal(t, cErr.TENANT_VALIDATION, errorCode(t, err))

	locations, err := stack.tenants.ListLocations(ctx, created.Tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestPublicURLAndSelection(t *testing.T) {
	stack := newTestStack(t, func(c *config.Configuration) {
		c.Tenant.BaseDomain = "salesdesk.test"
		c.App.Port = 8080
	})
	ctx := context.Background()
	input := createInput("Acme Co", "acme")
	input.DeferProvisioning = true
	_, err := stack.tenants.Create(ctx, input)
	require.NoError(t, err)

	selection, err := stack.tenants.Selection(ctx)
	require.NoError(t, err)
	require.Len(t, selection.Tenants, 1)
	assert.Equal(t, "http://acme.salesdesk.test:8080", selection.Tenants[0].URL)
}
