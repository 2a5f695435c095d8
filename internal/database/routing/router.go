// Package routing 決定每一次資料存取使用哪一個資料庫：共用實體走控制平面，其餘走目前綁定的租戶。
package routing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"salesdesk/internal/core"
	"salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/pool"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"go.uber.org/zap"
)

// ErrRoutingContractViolation 共用實體走租戶連線，或業務實體沒有綁定租戶
var ErrRoutingContractViolation = errors.New("routing contract violation")

// ControlPlaneKey 控制平面 Handle 的 Key
const ControlPlaneKey = "controlplane"

// Handle 明確的連線；repository 的每個方法都帶著它
type Handle struct {
	DB     *sql.DB
	Engine core.Engine
	// 控制平面為 nil
	Tenant *model.Tenant
	Key    string
}

// IsControlPlane Handle 是否指向控制平面
func (h *Handle) IsControlPlane() bool {
	return h.Tenant == nil
}

// Check 實體與 Handle 不相符時回傳 ErrRoutingContractViolation
func (h *Handle) Check(entity core.Entity) error {
	if h == nil || h.DB == nil {
		return fmt.Errorf("%w: %s accessed without a connection", ErrRoutingContractViolation, entity)
	}
	if entity.IsShared() && !h.IsControlPlane() {
		return fmt.Errorf("%w: shared entity %s accessed through tenant connection %s", ErrRoutingContractViolation, entity, h.Key)
	}
	if !entity.IsShared() && h.IsControlPlane() {
		return fmt.Errorf("%w: business entity %s accessed through the control-plane connection", ErrRoutingContractViolation, entity)
	}
	return nil
}

// Rebind 將 ? placeholder 換成引擎的格式（postgres 為 $n）
func (h *Handle) Rebind(query string) string {
	return Rebind(h.Engine, query)
}

func Rebind(engine core.Engine, query string) string {
	if engine != core.EnginePostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Pools Router 需要的連線池能力
type Pools interface {
	EnsureRegistered(ctx context.Context, tenant *model.Tenant) (*pool.Entry, bool, error)
}

type Router struct {
	logger       *zap.Logger
	metric       *telemetry.Metric
	pools        Pools
	controlPlane *Handle
}

func NewRouter(logger *zap.Logger, metric *telemetry.Metric, pools *pool.Manager, controlPlane *ControlPlane) *Router {
	return newRouter(logger, metric, pools, controlPlane.Handle())
}

func newRouter(logger *zap.Logger, metric *telemetry.Metric, pools Pools, controlPlane *Handle) *Router {
	return &Router{logger: logger, metric: metric, pools: pools, controlPlane: controlPlane}
}

// ControlPlane 控制平面的 Handle（僅供共用實體）
func (r *Router) ControlPlane() *Handle {
	return r.controlPlane
}

// For 依實體與 context 中的租戶決定連線
func (r *Router) For(ctx context.Context, entity core.Entity) (*Handle, error) {
	if entity.IsShared() {
		return r.controlPlane, nil
	}
	tenant, ok := tenancy.FromContext(ctx)
	if !ok {
		err := fmt.Errorf("%w: business entity %s accessed with no tenant bound", ErrRoutingContractViolation, entity)
		r.Violation(entity, err)
		return nil, err
	}
	return r.ForTenant(ctx, tenant)
}

// ForTenant 直接以租戶取得 Handle（provision、migrate 使用）
func (r *Router) ForTenant(ctx context.Context, tenant *model.Tenant) (*Handle, error) {
	entry, _, err := r.pools.EnsureRegistered(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return &Handle{DB: entry.DB, Engine: entry.Descriptor.Engine, Tenant: tenant, Key: entry.Key}, nil
}

// Violation 記錄違反路由契約；一律 error level
func (r *Router) Violation(entity core.Entity, err error) {
	r.metric.ObserveRoutingViolation(entity)
	r.logger.Error("routing contract violation",
		zap.String("entity", string(entity)),
		zap.Error(err),
		zap.Stack("stack"))
}

// IsViolation 方便上層判斷
func IsViolation(err error) bool {
	return errors.Is(err, ErrRoutingContractViolation)
}
