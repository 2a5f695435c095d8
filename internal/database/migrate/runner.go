// Package migrate 以 goose 套用版本化 schema；控制平面與租戶各有一組，依引擎分 dialect。
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"time"

	"salesdesk/internal/core"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/telemetry"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var embedded embed.FS

// Scope schema 類別
type Scope string

const (
	ScopeControlPlane Scope = "controlplane"
	ScopeTenant       Scope = "tenant"
)

// MigrationStatus 單一 migration 狀態
type MigrationStatus struct {
	Version   int64      `json:"version"`
	Source    string     `json:"source"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"appliedAt,omitempty"`
}

type Runner struct {
	logger *zap.Logger
	trace  *telemetry.Trace
}

func NewRunner(logger *zap.Logger, trace *telemetry.Trace) *Runner {
	return &Runner{logger: logger, trace: trace}
}

// ScopeOf 控制平面 Handle 套控制平面 schema，其餘套租戶 schema
func ScopeOf(handle *routing.Handle) Scope {
	if handle.IsControlPlane() {
		return ScopeControlPlane
	}
	return ScopeTenant
}

// Up 套用所有尚未執行的 migration；已是最新時回傳 0
func (r *Runner) Up(ctx context.Context, handle *routing.Handle) (applied int, returnedError error) {
	ctx, span, end := r.trace.WithSpan(ctx, string(core.SpanTenantMigrate))
	defer func() { end(returnedError) }()

	provider, err := newProvider(handle)
	if err != nil {
		return 0, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("migrate %s: %w", handle.Key, err)
	}
	version, _ := provider.GetDBVersion(ctx)
	r.trace.ApplyTraceAttributes(span, core.TraceProvisionMeta{
		TenantID:   tenantID(handle),
		Engine:     string(handle.Engine),
		Step:       "migrate",
		Migrations: len(results),
	})
	if len(results) > 0 {
		r.logger.Info("migrations applied",
			zap.String("database", handle.Key),
			zap.String("scope", string(ScopeOf(handle))),
			zap.Int("applied", len(results)),
			zap.Int64("version", version))
	}
	return len(results), nil
}

// Version 目前 schema 版本
func (r *Runner) Version(ctx context.Context, handle *routing.Handle) (int64, error) {
	provider, err := newProvider(handle)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

// Status 每個 migration 的套用狀態
func (r *Runner) Status(ctx context.Context, handle *routing.Handle) ([]MigrationStatus, error) {
	provider, err := newProvider(handle)
	if err != nil {
		return nil, err
	}
	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		item := MigrationStatus{
			Version: s.Source.Version,
			Source:  path.Base(s.Source.Path),
			Applied: s.State == goose.StateApplied,
		}
		if item.Applied {
			at := s.AppliedAt
			item.AppliedAt = &at
		}
		out = append(out, item)
	}
	return out, nil
}

func newProvider(handle *routing.Handle) (*goose.Provider, error) {
	dialect, dir, err := dialectFor(handle.Engine)
	if err != nil {
		return nil, err
	}
	fsys, err := fs.Sub(embedded, path.Join("migrations", string(ScopeOf(handle)), dir))
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, handle.DB, fsys)
}

func dialectFor(engine core.Engine) (goose.Dialect, string, error) {
	switch engine {
	case core.EngineSQLite:
		return goose.DialectSQLite3, "sqlite", nil
	case core.EnginePostgres:
		return goose.DialectPostgres, "postgres", nil
	case core.EngineMySQL:
		return goose.DialectMySQL, "mysql", nil
	default:
		return "", "", fmt.Errorf("no migrations for engine %q", engine)
	}
}

func tenantID(handle *routing.Handle) string {
	if handle.Tenant == nil {
		return ""
	}
	return handle.Tenant.ID
}
