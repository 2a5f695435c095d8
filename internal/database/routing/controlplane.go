package routing

import (
	"context"
	"database/sql"
	"time"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/tenancy"

	"go.uber.org/zap"
)

// ControlPlane 租戶註冊表所在的共用資料庫連線
type ControlPlane struct {
	handle     *Handle
	descriptor tenancy.Descriptor
}

// NewControlPlane 以 DATABASE__URL 開啟控制平面資料庫
func NewControlPlane(logger *zap.Logger, conf *config.Configuration, resolver *tenancy.Resolver) (*ControlPlane, func(), error) {
	descriptor, err := resolver.ResolveURL(conf.Database.URL, "controlplane")
	if err != nil {
		logger.Error("invalid control-plane database URL", zap.String("url", tenancy.MaskURL(conf.Database.URL)), zap.Error(err))
		return nil, nil, err
	}
	if conf.Database.MaxOpenConns > 0 {
		descriptor.MaxOpenConns = conf.Database.MaxOpenConns
	}
	if conf.Database.MaxIdleConns > 0 {
		descriptor.MaxIdleConns = conf.Database.MaxIdleConns
	}
	if conf.Database.ConnMaxLifetime > 0 {
		descriptor.ConnMaxLifetime = time.Duration(conf.Database.ConnMaxLifetime) * time.Second
	}

	db, _, err := sqldb.Open(context.Background(), descriptor, sqldb.OpenOptions{
		Retries:     conf.Tenant.ConnectRetries,
		PingTimeout: time.Duration(conf.Tenant.ConnectTimeout) * time.Millisecond,
	})
	if err != nil {
		logger.Error("failed to connect to control-plane database", zap.String("target", descriptor.Redacted()), zap.Error(err))
		return nil, nil, err
	}
	logger.Info("Connected to control-plane database", zap.String("target", descriptor.Redacted()))

	controlPlane := NewControlPlaneFromDB(db, descriptor)
	cleanup := func() {
		logger.Info("closing the control-plane database")
		if err := db.Close(); err != nil {
			logger.Error("failed to close control-plane database", zap.Error(err))
		}
	}
	return controlPlane, cleanup, nil
}

// NewControlPlaneFromDB 測試與 CLI 直接包裝既有連線
func NewControlPlaneFromDB(db *sql.DB, descriptor tenancy.Descriptor) *ControlPlane {
	return &ControlPlane{
		handle:     &Handle{DB: db, Engine: descriptor.Engine, Key: ControlPlaneKey},
		descriptor: descriptor,
	}
}

func (c *ControlPlane) Handle() *Handle {
	return c.handle
}

func (c *ControlPlane) Descriptor() tenancy.Descriptor {
	return c.descriptor
}

func (c *ControlPlane) Engine() core.Engine {
	return c.descriptor.Engine
}
