package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"salesdesk/config"
	"salesdesk/internal/core"
	cpmodel "salesdesk/internal/database/controlplane/model"
	cpRepo "salesdesk/internal/database/controlplane/repository"
	mongoModel "salesdesk/internal/database/mongodb/model"
	"salesdesk/internal/database/pool"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/dto"
	cErr "salesdesk/internal/pkg/error"
	"salesdesk/internal/pkg/request"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var databaseNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,63}$`)

type TenantService struct {
	logger       *zap.Logger
	conf         *config.Configuration
	trace        *telemetry.Trace
	resolver     *tenancy.Resolver
	router       *routing.Router
	pools        *pool.Manager
	tenantRepo   *cpRepo.TenantRepository
	locationRepo *cpRepo.TenantLocationRepository
	provision    *ProvisionService
	audit        *AuditService
	validate     *validator.Validate
}

func NewTenantService(
	logger *zap.Logger,
	conf *config.Configuration,
	trace *telemetry.Trace,
	resolver *tenancy.Resolver,
	router *routing.Router,
	pools *pool.Manager,
	tenantRepository *cpRepo.TenantRepository,
	locationRepository *cpRepo.TenantLocationRepository,
	provision *ProvisionService,
	audit *AuditService,
) *TenantService {
	// 與 gin binding 使用相同的 tag，CLI 路徑也走同一套驗證
	validate := validator.New()
	validate.SetTagName("binding")
	return &TenantService{
		logger:       logger,
		conf:         conf,
		trace:        trace,
		resolver:     resolver,
		router:       router,
		pools:        pools,
		tenantRepo:   tenantRepository,
		locationRepo: locationRepository,
		provision:    provision,
		audit:        audit,
		validate:     validate,
	}
}

// Create 所有驗證在寫入前完成；寫入後除非 DeferProvisioning 否則同步 provision。
// provision 失敗時仍回傳建立好的租戶（狀態 failed）與錯誤描述。
func (s *TenantService) Create(ctx context.Context, input *dto.CreateTenantDto) (_ *dto.CreateTenantResponseDto, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	tenant, err := s.buildTenant(ctx, input)
	if err != nil {
		return nil, err
	}

	created, err := s.tenantRepo.Create(ctx, s.router.ControlPlane(), tenant)
	if err != nil {
		var duplicate *cpRepo.DuplicateError
		if errors.As(err, &duplicate) {
			return nil, cErr.TenantValidation(duplicateMessage(duplicate.Field))
		}
		return nil, cErr.DatabaseError("create tenant failed")
	}
	s.trace.ApplyTraceAttributes(span, core.TraceTenantRepoMeta{Op: "create", TenantID: created.ID, Subdomain: created.Subdomain})
	s.audit.Record(ctx, created, core.AuditActionCreate, core.AuditStatusSuccess, "")
	s.logger.Info("tenant created",
		zap.String("tenant_id", created.ID),
		zap.String("subdomain", created.Subdomain),
		zap.String("engine", string(created.DatabaseEngine)),
		zap.String("database", created.DatabaseName))

	response := &dto.CreateTenantResponseDto{Tenant: s.toResponse(created)}
	if input.DeferProvisioning {
		return response, nil
	}

	result, err := s.provision.Provision(ctx, created)
	if err != nil {
		var appErr *cErr.Error
		if !errors.As(err, &appErr) {
			return nil, err
		}
		// 註冊資料保留；鎖被占用或無法取得時狀態仍為 pending
		reloaded, getErr := s.tenantRepo.GetByID(ctx, s.router.ControlPlane(), created.ID)
		if getErr == nil {
			response.Tenant = s.toResponse(reloaded)
		}
		response.Provision = provisionFailure(reloaded, appErr)
		return response, nil
	}
	response.Tenant = s.toResponse(result.Tenant)
	response.Provision = ToProvisionResultDto(result)
	return response, nil
}

// provisionFailure 狀態取自重新讀取的註冊資料，讀取失敗時視為 failed
func provisionFailure(reloaded *cpmodel.Tenant, appErr *cErr.Error) *dto.ProvisionResultDto {
	status := core.ProvisionFailed
	if reloaded != nil && reloaded.ProvisionStatus != "" {
		status = reloaded.ProvisionStatus
	}
	return &dto.ProvisionResultDto{
		Status:    status,
		ErrorKind: strings.TrimPrefix(appErr.Error(), "provision-failed/"),
		Error:     appErr.ErrorDesc(),
	}
}

// buildTenant 驗證輸入並組出尚未寫入的租戶
func (s *TenantService) buildTenant(ctx context.Context, input *dto.CreateTenantDto) (*cpmodel.Tenant, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, cErr.TenantValidation(request.Message(input, err))
	}

	name := strings.TrimSpace(input.Name)
	if len(name) < 2 {
		return nil, cErr.TenantValidation("name must be at least 2 characters")
	}
	subdomain := tenancy.NormalizeSubdomain(input.Subdomain)
	reserved := append([]string{s.conf.Tenant.ControlPlaneLabel}, s.conf.Tenant.ReservedSubdomains...)
	if err := tenancy.ValidateSubdomain(subdomain, reserved); err != nil {
		return nil, cErr.TenantValidation(err.Error())
	}

	tenant := &cpmodel.Tenant{
		Name:                  name,
		Subdomain:             subdomain,
		AdminEmail:            normalizeEmail(input.AdminEmail),
		DatabaseURL:           strings.TrimSpace(input.DatabaseURL),
		DatabaseHost:          input.DatabaseHost,
		DatabaseUser:          input.DatabaseUser,
		DatabasePassword:      input.DatabasePassword,
		IsActive:              true,
		MaxUsers:              50,
		SupportsMultiLocation: true,
	}
	if input.DatabasePort != nil {
		tenant.DatabasePort = *input.DatabasePort
	}
	if input.MaxUsers != nil {
		tenant.MaxUsers = *input.MaxUsers
	}
	if input.SupportsMultiLocation != nil {
		tenant.SupportsMultiLocation = *input.SupportsMultiLocation
	}

	engine, err := s.engineFor(input)
	if err != nil {
		return nil, err
	}
	tenant.DatabaseEngine = engine

	tenant.DatabaseName = strings.TrimSpace(input.DatabaseName)
	if tenant.DatabaseName == "" {
		tenant.DatabaseName = tenancy.DatabaseNameFor(s.conf.Tenant.DatabasePrefix, subdomain)
	}
	if !databaseNamePattern.MatchString(tenant.DatabaseName) {
		return nil, cErr.TenantValidation("database name may only contain letters, digits and underscores (max 63)")
	}
	if tenant.DatabaseURL != "" {
		// URL 指定的資料庫（內嵌引擎為檔名）即連線池與唯一性檢查的鍵
		if named := tenancy.DatabaseNameFromURL(tenant.DatabaseURL); named != "" {
			if input.DatabaseName != "" && tenant.DatabaseName != named {
				return nil, cErr.TenantValidation(fmt.Sprintf("database name '%s' does not match database url ('%s')", tenant.DatabaseName, named))
			}
			tenant.DatabaseName = named
		}
	}

	if _, err := s.resolver.Resolve(tenant); err != nil {
		return nil, cErr.TenantValidation(err.Error())
	}

	controlPlane := s.router.ControlPlane()
	for _, check := range []struct{ field, value string }{
		{"name", tenant.Name},
		{"subdomain", tenant.Subdomain},
		{"database_name", tenant.DatabaseName},
	} {
		exists, err := s.tenantRepo.ExistsBy(ctx, controlPlane, check.field, check.value)
		if err != nil {
			return nil, cErr.DatabaseError("tenant uniqueness check failed")
		}
		if exists {
			return nil, cErr.TenantValidation(duplicateMessage(check.field))
		}
	}
	return tenant, nil
}

// normalizeEmail domain 不分大小寫，統一轉小寫；local part 保留原樣
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func (s *TenantService) engineFor(input *dto.CreateTenantDto) (core.Engine, error) {
	var explicit core.Engine
	if input.DatabaseEngine != "" {
		engine, ok := core.ParseEngine(strings.ToLower(input.DatabaseEngine))
		if !ok {
			return "", cErr.TenantValidation(fmt.Sprintf("unsupported database engine '%s'", input.DatabaseEngine))
		}
		explicit = engine
	}
	if url := strings.TrimSpace(input.DatabaseURL); url != "" {
		parsed, err := tenancy.ParseURL(url)
		if err != nil {
			return "", cErr.TenantValidation(err.Error())
		}
		if explicit != "" && explicit != parsed.Engine {
			return "", cErr.TenantValidation(fmt.Sprintf("database engine '%s' does not match database url scheme", explicit))
		}
		return parsed.Engine, nil
	}
	if explicit != "" {
		return explicit, nil
	}
	engine, ok := core.ParseEngine(s.conf.Tenant.Defaults.Engine)
	if !ok {
		return core.EngineSQLite, nil
	}
	return engine, nil
}

func (s *TenantService) Get(ctx context.Context, tenantID string) (*cpmodel.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, s.router.ControlPlane(), tenantID)
	if err != nil {
		if errors.Is(err, cpRepo.ErrNotFound) {
			return nil, cErr.NotFound(fmt.Sprintf("tenant with id %s not found", tenantID))
		}
		return nil, cErr.DatabaseError("get tenant failed")
	}
	return tenant, nil
}

// FindActiveBySubdomain 路由使用；找不到回傳 repository.ErrNotFound 讓 middleware 決定回應
func (s *TenantService) FindActiveBySubdomain(ctx context.Context, subdomain string) (*cpmodel.Tenant, error) {
	return s.tenantRepo.FindBySubdomain(ctx, s.router.ControlPlane(), subdomain, true)
}

func (s *TenantService) List(ctx context.Context, activeOnly bool) ([]*cpmodel.Tenant, error) {
	tenants, err := s.tenantRepo.List(ctx, s.router.ControlPlane(), activeOnly)
	if err != nil {
		return nil, cErr.DatabaseError("list tenants failed")
	}
	return tenants, nil
}

func (s *TenantService) Update(ctx context.Context, tenantID string, input *dto.UpdateTenantDto) (_ *cpmodel.Tenant, returnedError error) {
	ctx, _, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	if err := s.validate.Struct(input); err != nil {
		return nil, cErr.TenantValidation(request.Message(input, err))
	}
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var changed []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len(name) < 2 {
			return nil, cErr.TenantValidation("name must be at least 2 characters")
		}
		if name != tenant.Name {
			exists, err := s.tenantRepo.ExistsBy(ctx, s.router.ControlPlane(), "name", name)
			if err != nil {
				return nil, cErr.DatabaseError("tenant uniqueness check failed")
			}
			if exists {
				return nil, cErr.TenantValidation(duplicateMessage("name"))
			}
			tenant.Name = name
			changed = append(changed, "name")
		}
	}
	if input.AdminEmail != nil {
		tenant.AdminEmail = normalizeEmail(*input.AdminEmail)
		changed = append(changed, "admin_email")
	}
	if input.MaxUsers != nil {
		tenant.MaxUsers = *input.MaxUsers
		changed = append(changed, "max_users")
	}
	if input.SupportsMultiLocation != nil {
		tenant.SupportsMultiLocation = *input.SupportsMultiLocation
		changed = append(changed, "supports_multi_location")
	}
	if input.IsActive != nil {
		tenant.IsActive = *input.IsActive
		changed = append(changed, "is_active")
	}
	if len(changed) == 0 {
		return tenant, nil
	}

	if err := s.tenantRepo.Update(ctx, s.router.ControlPlane(), tenant); err != nil {
		var duplicate *cpRepo.DuplicateError
		if errors.As(err, &duplicate) {
			return nil, cErr.TenantValidation(duplicateMessage(duplicate.Field))
		}
		return nil, cErr.DatabaseError("update tenant failed")
	}
	s.audit.Record(ctx, tenant, core.AuditActionUpdate, core.AuditStatusSuccess, strings.Join(changed, ","))
	return s.Get(ctx, tenantID)
}

// Delete 刪除註冊資料、移除連線池，再視 keepDatabase 刪除資料庫。
// 資料庫刪除失敗不會回復註冊資料，原因放在 DropError。
func (s *TenantService) Delete(ctx context.Context, tenantID string, keepDatabase bool) (_ *dto.DeleteTenantResponseDto, returnedError error) {
	ctx, span, end := s.trace.WithSpan(ctx)
	defer func() { end(returnedError) }()

	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	s.trace.ApplyTraceAttributes(span, core.TraceTenantRepoMeta{Op: "delete", TenantID: tenant.ID, Subdomain: tenant.Subdomain})
	s.audit.Record(ctx, tenant, core.AuditActionDelete, core.AuditStatusStart, fmt.Sprintf("keep_database=%t", keepDatabase))

	// 先算好 descriptor，刪除後就無法再從註冊表取得連線資訊
	descriptor, resolveErr := s.resolver.Resolve(tenant)

	if err := s.tenantRepo.Delete(ctx, s.router.ControlPlane(), tenant.ID); err != nil {
		s.audit.Record(ctx, tenant, core.AuditActionDelete, core.AuditStatusError, err.Error())
		if errors.Is(err, cpRepo.ErrNotFound) {
			return nil, cErr.NotFound(fmt.Sprintf("tenant with id %s not found", tenantID))
		}
		return nil, cErr.DatabaseError("delete tenant failed")
	}

	result := &dto.DeleteTenantResponseDto{TenantID: tenant.ID}
	if _, ok := s.pools.Lookup(pool.KeyFor(tenant)); ok {
		if err := s.pools.Evict(pool.KeyFor(tenant)); err != nil {
			s.logger.Warn("close evicted tenant pool failed", zap.String("tenant_id", tenant.ID), zap.Error(err))
		}
		result.PoolEvicted = true
	}

	if !keepDatabase {
		dropErr := resolveErr
		if dropErr == nil {
			opts := sqldb.OpenOptions{Retries: 1}
			dropErr = sqldb.WithServer(ctx, descriptor, opts, func(server *sql.DB) error {
				return sqldb.DropDatabase(ctx, server, descriptor)
			})
		}
		if dropErr != nil {
			result.DropError = dropErr.Error()
			s.logger.Error("drop tenant database failed",
				zap.String("tenant_id", tenant.ID),
				zap.String("database", tenant.DatabaseName),
				zap.Error(dropErr))
		} else {
			result.DatabaseDropped = true
		}
	}

	status := core.AuditStatusSuccess
	if result.DropError != "" {
		status = core.AuditStatusError
	}
	s.audit.Record(ctx, tenant, core.AuditActionDelete, status, result.DropError)
	s.logger.Info("tenant deleted",
		zap.String("tenant_id", tenant.ID),
		zap.String("subdomain", tenant.Subdomain),
		zap.Bool("pool_evicted", result.PoolEvicted),
		zap.Bool("database_dropped", result.DatabaseDropped))
	return result, nil
}

func (s *TenantService) AddLocation(ctx context.Context, tenantID string, input *dto.CreateTenantLocationDto) (*cpmodel.TenantLocation, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, cErr.TenantValidation(request.Message(input, err))
	}
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.SupportsMultiLocation {
		return nil, cErr.TenantValidation("tenant does not support multiple locations")
	}
	location, err := s.locationRepo.Create(ctx, s.router.ControlPlane(), &cpmodel.TenantLocation{
		TenantID: tenant.ID,
		Name:     strings.TrimSpace(input.Name),
		Code:     strings.ToUpper(input.Code),
		Address:  input.Address,
		IsActive: true,
	})
	if err != nil {
		var duplicate *cpRepo.DuplicateError
		if errors.As(err, &duplicate) {
			return nil, cErr.TenantValidation("location code already taken")
		}
		return nil, cErr.DatabaseError("create location failed")
	}
	return location, nil
}

func (s *TenantService) ListLocations(ctx context.Context, tenantID string) ([]*cpmodel.TenantLocation, error) {
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	locations, err := s.locationRepo.ListByTenant(ctx, s.router.ControlPlane(), tenantID)
	if err != nil {
		return nil, cErr.DatabaseError("list locations failed")
	}
	return locations, nil
}

func (s *TenantService) Events(ctx context.Context, tenantID string, limit int64) ([]*mongoModel.TenantEvent, error) {
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, tenantID, limit)
}

// Selection 沒有子網域時提供的租戶清單
func (s *TenantService) Selection(ctx context.Context) (*dto.TenantSelectionDto, error) {
	tenants, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	selection := &dto.TenantSelectionDto{Tenants: make([]dto.TenantLinkDto, 0, len(tenants))}
	for _, tenant := range tenants {
		selection.Tenants = append(selection.Tenants, dto.TenantLinkDto{
			Name:      tenant.Name,
			Subdomain: tenant.Subdomain,
			URL:       s.PublicURL(tenant),
		})
	}
	return selection, nil
}

// PublicURL 租戶網址；未設定 base domain 時以 localhost 表示
func (s *TenantService) PublicURL(tenant *cpmodel.Tenant) string {
	base := strings.Trim(s.conf.Tenant.BaseDomain, ".")
	if base == "" {
		base = "localhost"
	}
	host := tenant.Subdomain + "." + base
	if s.conf.App.Port != 0 && s.conf.App.Port != 80 && s.conf.App.Port != 443 {
		host = fmt.Sprintf("%s:%d", host, s.conf.App.Port)
	}
	return s.conf.App.PublicScheme + "://" + host
}

// DatabaseTarget 遮蔽密碼後的連線位址
func (s *TenantService) DatabaseTarget(tenant *cpmodel.Tenant) string {
	descriptor, err := s.resolver.Resolve(tenant)
	if err != nil {
		return tenancy.MaskURL(tenant.DatabaseURL)
	}
	return descriptor.Redacted()
}

func (s *TenantService) ToResponse(tenant *cpmodel.Tenant) *dto.TenantResponseDto {
	return s.toResponse(tenant)
}

func (s *TenantService) toResponse(tenant *cpmodel.Tenant) *dto.TenantResponseDto {
	return &dto.TenantResponseDto{
		ID:                    tenant.ID,
		Name:                  tenant.Name,
		Subdomain:             tenant.Subdomain,
		URL:                   s.PublicURL(tenant),
		DatabaseName:          tenant.DatabaseName,
		DatabaseEngine:        tenant.DatabaseEngine,
		DatabaseTarget:        s.DatabaseTarget(tenant),
		IsActive:              tenant.IsActive,
		MaxUsers:              tenant.MaxUsers,
		SupportsMultiLocation: tenant.SupportsMultiLocation,
		AdminEmail:            tenant.AdminEmail,
		ProvisionStatus:       tenant.ProvisionStatus,
		ProvisionError:        tenant.ProvisionError,
		ProvisionedAt:         tenant.ProvisionedAt,
		CreatedAt:             tenant.CreatedAt,
		UpdatedAt:             tenant.UpdatedAt,
	}
}

func ToProvisionResultDto(result *ProvisionResult) *dto.ProvisionResultDto {
	return &dto.ProvisionResultDto{
		Status:             core.ProvisionProvisioned,
		DatabaseCreated:    result.DatabaseCreated,
		MigrationsApplied:  result.MigrationsApplied,
		AdminUsername:      result.AdminUsername,
		AdminPassword:      result.AdminPassword,
		MustChangePassword: result.AdminPassword != "",
	}
}

func duplicateMessage(field string) string {
	return strings.ReplaceAll(field, "_", " ") + " already taken"
}
