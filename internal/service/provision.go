package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"salesdesk/config"
	"salesdesk/internal/core"
	cpmodel "salesdesk/internal/database/controlplane/model"
	cpRepo "salesdesk/internal/database/controlplane/repository"
	"salesdesk/internal/database/migrate"
	redisRepo "salesdesk/internal/database/redis/repository"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/database/tenantdb/model"
	tenantRepo "salesdesk/internal/database/tenantdb/repository"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ProvisionResult AdminPassword 只在管理員帳號首次建立時有值，呼叫端必須要求變更
type ProvisionResult struct {
	Tenant            *cpmodel.Tenant
	DatabaseCreated   bool
	MigrationsApplied int
	AdminUsername     string
	AdminPassword     string
}

type ProvisionService struct {
	logger      *zap.Logger
	conf        *config.Configuration
	trace       *telemetry.Trace
	metric      *telemetry.Metric
	resolver    *tenancy.Resolver
	router      *routing.Router
	runner      *migrate.Runner
	tenantRepo  *cpRepo.TenantRepository
	accountRepo *tenantRepo.AccountRepository
	lockRepo    *redisRepo.ProvisionLockRepository
	audit       *AuditService
	locks       *keyedMutex
}

func NewProvisionService(
	logger *zap.Logger,
	conf *config.Configuration,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	resolver *tenancy.Resolver,
	router *routing.Router,
	runner *migrate.Runner,
	tenantRepository *cpRepo.TenantRepository,
	accountRepository *tenantRepo.AccountRepository,
	lockRepository *redisRepo.ProvisionLockRepository,
	audit *AuditService,
) *ProvisionService {
	return &ProvisionService{
		logger:      logger,
		conf:        conf,
		trace:       trace,
		metric:      metric,
		resolver:    resolver,
		router:      router,
		runner:      runner,
		tenantRepo:  tenantRepository,
		accountRepo: accountRepository,
		lockRepo:    lockRepository,
		audit:       audit,
		locks:       newKeyedMutex(),
	}
}

// Provision 建立資料庫、套用 migration、建立預設角色與管理員。
// 失敗時註冊資料保留為 failed，可再次呼叫；成功與否都持久化於 provision_status。
func (s *ProvisionService) Provision(ctx context.Context, tenant *cpmodel.Tenant) (_ *ProvisionResult, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx, string(core.SpanTenantProvision))
	defer func() { end(returnedError) }()
	meta := core.TraceProvisionMeta{
		TenantID:     tenant.ID,
		Subdomain:    tenant.Subdomain,
		Engine:       string(tenant.DatabaseEngine),
		DatabaseName: tenant.DatabaseName,
		Step:         "lock",
	}

	unlock := s.locks.Lock(tenant.ID)
	defer unlock()

	token, err := s.lockRepo.Acquire(ctx, tenant.ID, time.Duration(s.conf.Tenant.ProvisionLockTTL)*time.Second)
	if err != nil {
		s.metric.ObserveProvision("busy")
		s.trace.ApplyTraceAttributes(span, meta)
		if errors.Is(err, redisRepo.ErrLockHeld) {
			return nil, cErr.ProvisioningBusy(fmt.Sprintf("tenant '%s' is being provisioned by another process", tenant.Subdomain))
		}
		return nil, cErr.ServiceUnavailable("provision lock unavailable")
	}
	defer func() {
		if released, releaseErr := s.lockRepo.Release(context.WithoutCancel(ctx), tenant.ID, token); releaseErr != nil || !released {
			s.logger.Warn("provision lock release failed",
				zap.String("tenant_id", tenant.ID),
				zap.Bool("released", released),
				zap.Error(releaseErr))
		}
	}()

	controlPlane := s.router.ControlPlane()
	ctx = tenancy.WithTenant(ctx, tenant)
	s.audit.Record(ctx, tenant, core.AuditActionProvision, core.AuditStatusStart, "")
	if err := s.tenantRepo.MarkProvisioning(ctx, controlPlane, tenant.ID); err != nil {
		if errors.Is(err, cpRepo.ErrNotFound) {
			return nil, cErr.NotFound("tenant not found")
		}
		return nil, cErr.DatabaseError("mark provisioning failed")
	}

	result, step, runErr := s.run(ctx, tenant)
	meta.Step = step
	if result != nil {
		meta.Migrations = result.MigrationsApplied
	}
	if runErr != nil {
		kind := sqldb.KindOf(runErr)
		cause := fmt.Sprintf("%s: %s: %v", kind, step, runErr)
		meta.Kind = string(kind)
		meta.Error = &cause
		s.trace.ApplyTraceAttributes(span, meta)

		if markErr := s.tenantRepo.MarkFailed(context.WithoutCancel(ctx), controlPlane, tenant.ID, cause); markErr != nil {
			s.logger.Error("mark provision failed status failed", zap.String("tenant_id", tenant.ID), zap.Error(markErr))
		}
		s.metric.ObserveProvision("failed")
		s.audit.Record(ctx, tenant, core.AuditActionProvision, core.AuditStatusError, cause)
		s.logger.Error("tenant provisioning failed",
			zap.String("tenant_id", tenant.ID),
			zap.String("subdomain", tenant.Subdomain),
			zap.String("step", step),
			zap.String("kind", string(kind)),
			zap.Error(runErr))
		return nil, cErr.ProvisionFailed(string(kind), cause)
	}

	if err := s.tenantRepo.MarkProvisioned(ctx, controlPlane, tenant.ID); err != nil {
		return nil, cErr.DatabaseError("mark provisioned failed")
	}
	updated, err := s.tenantRepo.GetByID(ctx, controlPlane, tenant.ID)
	if err != nil {
		return nil, cErr.DatabaseError("reload tenant failed")
	}
	result.Tenant = updated

	meta.Step = "done"
	s.trace.ApplyTraceAttributes(span, meta)
	s.metric.ObserveProvision("success")
	s.audit.Record(ctx, tenant, core.AuditActionProvision, core.AuditStatusSuccess,
		fmt.Sprintf("migrations=%d database_created=%t", result.MigrationsApplied, result.DatabaseCreated))
	s.logger.Info("tenant provisioned",
		zap.String("tenant_id", tenant.ID),
		zap.String("subdomain", tenant.Subdomain),
		zap.String("database", tenant.DatabaseName),
		zap.Int("migrations_applied", result.MigrationsApplied),
		zap.Bool("database_created", result.DatabaseCreated),
		zap.Bool("admin_created", result.AdminPassword != ""))
	return result, nil
}

// Reprovision 以 id 重新執行 provision（failed/pending 租戶的重試入口）
func (s *ProvisionService) Reprovision(ctx context.Context, tenantID string) (*ProvisionResult, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, s.router.ControlPlane(), tenantID)
	if err != nil {
		if errors.Is(err, cpRepo.ErrNotFound) {
			return nil, cErr.NotFound("tenant not found")
		}
		return nil, cErr.DatabaseError("get tenant failed")
	}
	return s.Provision(ctx, tenant)
}

// RetryUnprovisioned 重試所有 pending/failed 的啟用中租戶，以及停在 provisioning
// 超過鎖 TTL 的租戶（程序中斷留下的狀態）；回傳成功與失敗數
func (s *ProvisionService) RetryUnprovisioned(ctx context.Context) (succeeded, failed int, err error) {
	tenants, err := s.tenantRepo.ListByStatus(ctx, s.router.ControlPlane(),
		core.ProvisionPending, core.ProvisionFailed, core.ProvisionProvisioning)
	if err != nil {
		return 0, 0, err
	}
	staleBefore := sqldb.Now().Add(-time.Duration(s.conf.Tenant.ProvisionLockTTL) * time.Second)
	for _, tenant := range tenants {
		if tenant.ProvisionStatus == core.ProvisionProvisioning && tenant.UpdatedAt.After(staleBefore) {
			continue
		}
		if _, provisionErr := s.Provision(ctx, tenant); provisionErr != nil {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed, nil
}

// run 依序執行各步驟；回傳最後執行的步驟名稱
func (s *ProvisionService) run(ctx context.Context, tenant *cpmodel.Tenant) (*ProvisionResult, string, error) {
	result := &ProvisionResult{}

	descriptor, err := s.resolver.Resolve(tenant)
	if err != nil {
		return result, "resolve", &sqldb.Error{Op: "resolve", Kind: sqldb.KindDriver, Err: err}
	}

	opts := sqldb.OpenOptions{
		Retries:     s.conf.Tenant.ConnectRetries,
		PingTimeout: time.Duration(s.conf.Tenant.ConnectTimeout) * time.Millisecond,
	}
	err = sqldb.WithServer(ctx, descriptor, opts, func(server *sql.DB) error {
		created, createErr := sqldb.EnsureDatabase(ctx, server, descriptor)
		result.DatabaseCreated = created
		return createErr
	})
	if err != nil {
		return result, "create_database", err
	}

	handle, err := s.router.ForTenant(ctx, tenant)
	if err != nil {
		return result, "connect", err
	}

	applied, err := s.runner.Up(ctx, handle)
	result.MigrationsApplied = applied
	if err != nil {
		return result, "migrate", withKind("migrate", sqldb.KindSchema, err)
	}

	if err := s.seed(ctx, handle, tenant, result); err != nil {
		return result, "seed", withKind("seed", sqldb.KindSchema, err)
	}
	return result, "seed", nil
}

// seed 冪等：角色已存在不重建，管理員帳號已存在不覆寫密碼
func (s *ProvisionService) seed(ctx context.Context, handle *routing.Handle, tenant *cpmodel.Tenant, result *ProvisionResult) error {
	tx, err := handle.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	roles, err := s.accountRepo.EnsureRoles(ctx, tx, handle, core.DefaultRoleGroups)
	if err != nil {
		return err
	}

	username := s.conf.Tenant.Seed.AdminUsername
	result.AdminUsername = username
	admin, err := s.accountRepo.FindUserByUsername(ctx, tx, handle, username)
	switch {
	case err == nil:
	case errors.Is(err, tenantRepo.ErrNotFound):
		password := s.conf.Tenant.Seed.AdminPassword
		if password == "" {
			if password, err = generatePassword(); err != nil {
				return err
			}
		}
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return hashErr
		}
		admin, err = s.accountRepo.CreateUser(ctx, tx, handle, &model.User{
			Username:           username,
			Email:              tenant.AdminEmail,
			PasswordHash:       string(hash),
			IsSuperuser:        true,
			IsActive:           true,
			MustChangePassword: true,
		})
		if err != nil {
			return err
		}
		result.AdminPassword = password
	default:
		return err
	}

	if err := s.accountRepo.AssignRole(ctx, tx, handle, admin.ID, roles[core.RoleGroupAdmin]); err != nil {
		return err
	}
	return tx.Commit()
}

// withKind driver 無法分類的錯誤以該步驟的預設類別包裝
func withKind(op string, fallback sqldb.Kind, err error) error {
	if sqldb.KindOf(err) != sqldb.KindUnknown {
		return err
	}
	return &sqldb.Error{Op: op, Kind: fallback, Err: err}
}

func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// keyedMutex 同一個 key 的呼叫依序執行；不再使用的 key 會被移除
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*keyedLock{}}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
