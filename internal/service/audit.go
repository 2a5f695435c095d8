package service

import (
	"context"

	"salesdesk/internal/core"
	cpmodel "salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/mongodb/model"
	"salesdesk/internal/database/mongodb/repository"
	cErr "salesdesk/internal/pkg/error"

	"go.uber.org/zap"
)

// AuditService 租戶生命週期稽核；寫入失敗只記 log，不影響主流程
type AuditService struct {
	logger    *zap.Logger
	eventRepo *repository.TenantEventRepository
}

func NewAuditService(logger *zap.Logger, eventRepo *repository.TenantEventRepository) *AuditService {
	return &AuditService{logger: logger, eventRepo: eventRepo}
}

func (s *AuditService) Enabled() bool {
	return s.eventRepo.Enabled()
}

func (s *AuditService) Record(
	ctx context.Context,
	tenant *cpmodel.Tenant,
	action core.TenantAuditAction,
	status core.TenantAuditStatus,
	detail string,
) {
	event := &model.TenantEvent{
		TenantID:  tenant.ID,
		Subdomain: tenant.Subdomain,
		Action:    action,
		Status:    status,
		Actor:     actorFrom(ctx),
		Detail:    detail,
	}
	if _, err := s.eventRepo.Create(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("tenant audit write failed",
			zap.String("tenant_id", tenant.ID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

func (s *AuditService) List(ctx context.Context, tenantID string, limit int64) ([]*model.TenantEvent, error) {
	events, err := s.eventRepo.ListByTenant(ctx, tenantID, limit)
	if err != nil {
		return nil, cErr.DatabaseError("list tenant events failed")
	}
	return events, nil
}

type actorCtxKey struct{}

// WithActor 稽核紀錄的操作者（JWT username 或 cli）
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorCtxKey{}).(string)
	return actor
}
