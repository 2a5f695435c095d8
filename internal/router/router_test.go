package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"salesdesk/config"
	"salesdesk/internal/database/client"
	cpRepo "salesdesk/internal/database/controlplane/repository"
	fluentdRepo "salesdesk/internal/database/fluentd/repository"
	"salesdesk/internal/database/migrate"
	mongoRepo "salesdesk/internal/database/mongodb/repository"
	"salesdesk/internal/database/pool"
	redisRepo "salesdesk/internal/database/redis/repository"
	"salesdesk/internal/database/routing"
	tenantRepo "salesdesk/internal/database/tenantdb/repository"
	"salesdesk/internal/handler"
	"salesdesk/internal/middleware"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	engine *gin.Engine
	token  string
	pools  *pool.Manager
}

// newTestServer 以與正式環境相同的順序組裝 router，資料庫用 sqlite
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	conf := &config.Configuration{}
	conf.App.Env = "test"
	conf.App.Version = "1.2.3"
	conf.App.SecretKey = "test-secret"
	conf.Database.URL = "sqlite:///" + filepath.Join(dir, "controlplane.sqlite3")
	conf.Tenant.DataRoot = filepath.Join(dir, "tenant_dbs")
	conf.Tenant.BaseDomain = "example.com"
	conf.Tenant.ConnectRetries = 1
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
	dbRouter := routing.NewRouter(logger, metric, pools, controlPlane)

	mongoClient, closeMongo, err := client.NewMongoClient(logger, conf)
	require.NoError(t, err)
	t.Cleanup(closeMongo)
	fluentdClient, closeFluentd, err := client.NewFluentdClient(logger, conf)
	require.NoError(t, err)
	t.Cleanup(closeFluentd)
	logRepo := fluentdRepo.NewLogRepository(conf, fluentdClient)
	redisClient := &client.RedisClient{}

	audit := service.NewAuditService(logger, mongoRepo.NewTenantEventRepository(trace, mongoClient))
	tenantRepository := cpRepo.NewTenantRepository(logger, trace)
	accounts := tenantRepo.NewAccountRepository()
	provision := service.NewProvisionService(logger, conf, trace, metric, resolver, dbRouter, runner,
		tenantRepository, accounts, redisRepo.NewProvisionLockRepository(trace, redisClient), audit)
	tenants := service.NewTenantService(logger, conf, trace, resolver, dbRouter, pools,
		tenantRepository, cpRepo.NewTenantLocationRepository(), provision, audit)
	sales := service.NewSaleService(trace, dbRouter, tenantRepo.NewSaleRepository(trace), accounts)
	products := service.NewProductService(trace, dbRouter, tenantRepo.NewProductRepository(trace))
	auth := service.NewAuthService(conf)

	tenantMiddleware := middleware.NewTenant(logger, trace, metric, conf, dbRouter, tenants)
	engine := NewRouter(
		conf,
		middleware.NewTraceEntry(trace, metric, conf),
		middleware.NewRecovery(logger, trace, metric, conf, logRepo),
		middleware.NewCors(trace, conf),
		middleware.NewLogger(logger, trace, conf, logRepo),
		tenantMiddleware,
		middleware.NewResponse(logger, trace, metric, conf, logRepo),
		NewAdminRouter(
			handler.NewAdminTenantHandler(trace, tenants, provision),
			handler.NewAdminPoolHandler(trace, service.NewPoolService(logger, metric, pools)),
			tenantMiddleware,
			middleware.NewAdminAuth(trace, auth),
		),
		NewAPIRouter(handler.NewBusinessHandler(trace, products, sales), tenantMiddleware),
		NewHealthRouter(
			handler.NewHealthHandler(service.NewHealthService(dbRouter, redisClient)),
			handler.NewHomeHandler(trace, tenants, sales),
		),
	)

	token, err := auth.IssueToken("ops", 0)
	require.NoError(t, err)
	return &testServer{engine: engine, token: token.Token, pools: pools}
}

type envelope struct {
	Code        int             `json:"code"`
	Data        json.RawMessage `json:"data"`
	Description string          `json:"description"`
}

func (s *testServer) do(t *testing.T, method, host, path string, body any, authorized bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Host = host
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (s *testServer) createTenant(t *testing.T, name, subdomain string) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "admin.example.com", "/admin/tenants", map[string]any{
		"name":       name,
		"subdomain":  subdomain,
		"adminEmail": "owner@" + subdomain + ".example.com",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Tenant struct {
			ID              string `json:"id"`
			ProvisionStatus string `json:"provisionStatus"`
		} `json:"tenant"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "provisioned", created.Tenant.ProvisionStatus)
	return created.Tenant.ID
}

func TestAdminCreatesTenantAndTenantHostServesIt(t *testing.T) {
	server := newTestServer(t)
	server.createTenant(t, "Acme Co", "acme")

	rec, env := server.do(t, http.MethodGet, "acme.example.com", "/api/tenant", nil, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var current struct {
		Subdomain string `json:"subdomain"`
		Users     int    `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, "acme", current.Subdomain)
	assert.Equal(t, 1, current.Users)
	assert.Equal(t, "1.2.3", rec.Header().Get("X-App-Version"))
}

func TestProductsAreIsolatedPerTenant(t *testing.T) {
	server := newTestServer(t)
	server.createTenant(t, "Acme Co", "acme")
	server.createTenant(t, "Globex Inc", "globex")

	rec, _ := server.do(t, http.MethodPost, "acme.example.com", "/api/products",
		map[string]any{"name": "Ink", "priceCents": 1200, "stock": 3}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := server.do(t, http.MethodGet, "acme.example.com", "/api/products", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var products []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &products))
	assert.Len(t, products, 1)

	rec, env = server.do(t, http.MethodGet, "globex.example.com", "/api/products", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	products = nil
	require.NoError(t, json.Unmarshal(env.Data, &products))
	assert.Empty(t, products)

	assert.Equal(t, 2, server.pools.Len())
}

func TestRoutesAreBoundToTheirHost(t *testing.T) {
	server := newTestServer(t)
	server.createTenant(t, "Acme Co", "acme")

	// admin API 不在租戶 host 上提供
	rec, env := server.do(t, http.MethodGet, "acme.example.com", "/admin/tenants", nil, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, cErr.WRONG_HOST_FOR_ROUTE, env.Code)

	// 業務 API 不在控制平面 host 上提供
	rec, env = server.do(t, http.MethodGet, "admin.example.com", "/api/products", nil, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, cErr.WRONG_HOST_FOR_ROUTE, env.Code)

	// 沒有子網域時要求選擇租戶
	rec, env = server.do(t, http.MethodGet, "example.com", "/api/products", nil, false)
	assert.Equal(t, cErr.TENANT_REQUIRED, env.Code)
	assert.Contains(t, string(env.Data), "acme")
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec, env = server.do(t, http.MethodGet, "nope.example.com", "/api/products", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, cErr.UNKNOWN_TENANT, env.Code)

	rec, _ = server.do(t, http.MethodGet, "admin.example.com", "/admin/tenants", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminTenantLifecycle(t *testing.T) {
	server := newTestServer(t)
	id := server.createTenant(t, "Acme Co", "acme")

	rec, env := server.do(t, http.MethodPost, "admin.example.com", "/admin/tenants", map[string]any{
		"name": "Acme Again", "subdomain": "ACME", "adminEmail": "x@acme.example.com",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, cErr.TENANT_VALIDATION, env.Code)
	assert.Equal(t, "subdomain already taken", env.Description)

	rec, _ = server.do(t, http.MethodPatch, "admin.example.com", "/admin/tenants/"+id,
		map[string]any{"maxUsers": 5}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = server.do(t, http.MethodGet, "admin.example.com", "/admin/pools", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "sales_acme")

	rec, _ = server.do(t, http.MethodDelete, "admin.example.com", "/admin/tenants/"+id, nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, server.pools.Len())

	rec, env = server.do(t, http.MethodGet, "acme.example.com", "/api/tenant", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, cErr.UNKNOWN_TENANT, env.Code)
}

func TestHealthIsServedWithoutTenant(t *testing.T) {
	server := newTestServer(t)
	rec, _ := server.do(t, http.MethodGet, "localhost:3000", "/health/liveness", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = server.do(t, http.MethodGet, "localhost:3000", "/health/dependencies", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}
