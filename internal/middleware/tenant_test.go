package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
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
	"salesdesk/internal/dto"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/pkg/response"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type httpStack struct {
	engine  *gin.Engine
	pools   *pool.Manager
	tenants *service.TenantService
	auth    *service.AuthService
	// 被呼叫的 handler 數
	reached int
	mu      sync.Mutex
}

func newHTTPStack(t *testing.T) *httpStack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	conf := &config.Configuration{}
	conf.App.SecretKey = "test-secret"
	conf.Database.URL = "sqlite:///" + filepath.Join(dir, "controlplane.sqlite3")
	conf.Tenant.DataRoot = filepath.Join(dir, "tenant_dbs")
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
	router := routing.NewRouter(logger, metric, pools, controlPlane)

	mongoClient, closeMongo, err := client.NewMongoClient(logger, conf)
	require.NoError(t, err)
	t.Cleanup(closeMongo)
	audit := service.NewAuditService(logger, mongoRepo.NewTenantEventRepository(trace, mongoClient))
	tenantRepository := cpRepo.NewTenantRepository(logger, trace)
	provision := service.NewProvisionService(logger, conf, trace, metric, resolver, router, runner,
		tenantRepository, tenantRepo.NewAccountRepository(),
		redisRepo.NewProvisionLockRepository(trace, &client.RedisClient{}), audit)
	tenants := service.NewTenantService(logger, conf, trace, resolver, router, pools,
		tenantRepository, cpRepo.NewTenantLocationRepository(), provision, audit)
	auth := service.NewAuthService(conf)

	fluentdClient, _, err := client.NewFluentdClient(logger, conf)
	require.NoError(t, err)
	logRepo := fluentdRepo.NewLogRepository(conf, fluentdClient)

	stack := &httpStack{pools: pools, tenants: tenants, auth: auth}
	tenantMiddleware := NewTenant(logger, trace, metric, conf, router, tenants)
	adminAuth := NewAdminAuth(trace, auth)

	probe := func(c *gin.Context) {
		stack.mu.Lock()
		stack.reached++
		stack.mu.Unlock()
		subdomain := ""
		if tenant, ok := tenancy.FromContext(c.Request.Context()); ok {
			subdomain = tenant.Subdomain
		}
		response.Success(c, gin.H{"tenant": subdomain})
	}

	engine := gin.New()
	engine.Use(NewRecovery(logger, trace, metric, conf, logRepo).ErrorHandler())
	engine.Use(tenantMiddleware.Handler())
	engine.Use(NewResponse(logger, trace, metric, conf, logRepo).FormatHandler())
	engine.GET("/", probe)
	engine.GET("/health/liveness", probe)
	engine.GET("/api/whoami", tenantMiddleware.RequireTenant(), probe)
	engine.GET("/api/panic", tenantMiddleware.RequireTenant(), func(c *gin.Context) { panic("boom") })
	engine.GET("/admin/ping", tenantMiddleware.RequireControlPlane(), adminAuth.Handler(), probe)
	stack.engine = engine
	return stack
}

func (s *httpStack) createTenant(t *testing.T, subdomain string, deferred bool) {
	t.Helper()
	_, err := s.tenants.Create(context.Background(), &dto.CreateTenantDto{
		Name:              subdomain + " Inc",
		Subdomain:         subdomain,
		AdminEmail:        "owner@" + subdomain + ".example.com",
		DeferProvisioning: deferred,
	})
	require.NoError(t, err)
}

type envelope struct {
	Code int            `json:"code"`
	Data map[string]any `json:"data"`
}

func (s *httpStack) do(t *testing.T, host, path string, header ...string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec.Code, body
}

func TestUnknownSubdomainIsRejectedWithoutPool(t *testing.T) {
	stack := newHTTPStack(t)

	status, body := stack.do(t, "ghost.example.com", "/api/whoami")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, cErr.UNKNOWN_TENANT, body.Code)
	assert.Equal(t, 0, stack.reached)
	assert.Equal(t, 0, stack.pools.Len())
}

func TestValidTenantIsBoundForRequest(t *testing.T) {
	stack := newHTTPStack(t)
	stack.createTenant(t, "acme", false)

	status, body := stack.do(t, "ACME.example.com:8080", "/api/whoami")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "acme", body.Data["tenant"])
	assert.Equal(t, 1, stack.pools.Len())
}

func TestUnprovisionedTenantIsUnavailable(t *testing.T) {
	stack := newHTTPStack(t)
	stack.createTenant(t, "acme", true)
	stack.pools.Reset()

	status, body := stack.do(t, "acme.example.com", "/api/whoami")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, cErr.TENANT_NOT_PROVISIONED, body.Code)
	assert.Equal(t, 0, stack.reached)
	assert.Equal(t, 0, stack.pools.Len())
}

func TestNoSubdomainRequiresTenantUnlessPublic(t *testing.T) {
	stack := newHTTPStack(t)
	stack.createTenant(t, "acme", false)

	status, body := stack.do(t, "localhost:3000", "/api/whoami")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, cErr.TENANT_REQUIRED, body.Code)
	tenants, ok := body.Data["tenants"].([]any)
	require.True(t, ok, "selection data is missing")
	require.Len(t, tenants, 1)
	assert.Equal(t, "acme", tenants[0].(map[string]any)["subdomain"])

	status, body = stack.do(t, "127.0.0.1:3000", "/health/liveness")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body.Data["tenant"])

	// www 視同沒有子網域
	status, body = stack.do(t, "www.example.com", "/api/whoami")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, cErr.TENANT_REQUIRED, body.Code)
}

func TestRouteGuardsMatchHostState(t *testing.T) {
	stack := newHTTPStack(t)
	stack.createTenant(t, "acme", false)

	status, body := stack.do(t, "admin.example.com", "/api/whoami")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, cErr.WRONG_HOST_FOR_ROUTE, body.Code)

	status, body = stack.do(t, "acme.example.com", "/admin/ping")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, cErr.WRONG_HOST_FOR_ROUTE, body.Code)
	assert.Equal(t, 0, stack.reached)
}

func TestAdminRoutesRequireBearerToken(t *testing.T) {
	stack := newHTTPStack(t)

	status, body := stack.do(t, "admin.example.com", "/admin/ping")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, cErr.UNAUTHORIZED, body.Code)

	status, body = stack.do(t, "admin.example.com", "/admin/ping", "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, cErr.UNAUTHORIZED, body.Code)

	token, err := stack.auth.IssueToken("ops", 0)
	require.NoError(t, err)
	status, body = stack.do(t, "admin.example.com", "/admin/ping", "Authorization", "Bearer "+token.Token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body.Data["tenant"])
}

func TestPanicIsRenderedAndBindingEnds(t *testing.T) {
	stack := newHTTPStack(t)
	stack.createTenant(t, "acme", false)

	status, body := stack.do(t, "acme.example.com", "/api/panic")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, cErr.INTERNAL_ERROR, body.Code)

	status, body = stack.do(t, "localhost", "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body.Data["tenant"])
}

func TestConcurrentRequestsKeepTheirOwnTenant(t *testing.T) {
	stack := newHTTPStack(t)
	stack.createTenant(t, "acme", false)
	stack.createTenant(t, "globex", false)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		subdomain := "acme"
		if i%2 == 1 {
			subdomain = "globex"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
			req.Host = subdomain + ".example.com"
			rec := httptest.NewRecorder()
			stack.engine.ServeHTTP(rec, req)
			var body envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				errs <- err
				return
			}
			if body.Data["tenant"] != subdomain {
				errs <- fmt.Errorf("request for %s saw %v", subdomain, body.Data["tenant"])
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 2, stack.pools.Len())
}

func TestIsPublicPath(t *testing.T) {
	m := &Tenant{conf: (&config.Configuration{}).ApplyDefaults()}

	assert.True(t, m.IsPublicPath("/"))
	assert.True(t, m.IsPublicPath("/health/liveness"))
	assert.True(t, m.IsPublicPath("/static"))
	assert.True(t, m.IsPublicPath("/swagger/index.html"))
	assert.False(t, m.IsPublicPath("/healthz"))
	assert.False(t, m.IsPublicPath("/api/products"))
}
