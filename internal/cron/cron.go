package cron

import (
	"context"
	"time"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/service"
	"salesdesk/internal/telemetry"

	"github.com/google/wire"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ProviderSet = wire.NewSet(NewCron)

const (
	sweepPingTimeout = 3 * time.Second
	retryJobTimeout  = 5 * time.Minute
)

type Cron struct {
	logger           *zap.Logger
	conf             *config.Configuration
	trace            *telemetry.Trace
	server           *cron.Cron
	poolService      *service.PoolService
	provisionService *service.ProvisionService
}

// NewCron .
func NewCron(
	logger *zap.Logger,
	conf *config.Configuration,
	trace *telemetry.Trace,
	poolService *service.PoolService,
	provisionService *service.ProvisionService,
) *Cron {
	server := cron.New(
		cron.WithSeconds(),
		// 同一個 job 上一輪還沒跑完就跳過
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Cron{
		logger:           logger,
		conf:             conf,
		trace:            trace,
		server:           server,
		poolService:      poolService,
		provisionService: provisionService,
	}
}

func (c *Cron) Run() error {
	if _, err := c.server.AddFunc(c.conf.Cron.PoolSweepSpec, c.SweepPools); err != nil {
		return err
	}
	if c.conf.Cron.RetryProvision {
		if _, err := c.server.AddFunc(c.conf.Cron.RetryProvisionSpec, c.RetryProvisioning); err != nil {
			return err
		}
	}

	c.server.Start()
	return nil
}

// SweepPools ping 所有已註冊的連線池並更新 gauge
func (c *Cron) SweepPools() {
	ctx, _, end := c.trace.WithSpan(context.Background(), string(core.SpanCronPoolSweep))
	defer end(nil)

	healthy, unhealthy := c.poolService.Sweep(ctx, sweepPingTimeout)
	if unhealthy > 0 {
		c.logger.Warn("tenant pool sweep found unhealthy pools",
			zap.Int("healthy", healthy),
			zap.Int("unhealthy", unhealthy))
		return
	}
	c.logger.Debug("tenant pool sweep", zap.Int("healthy", healthy))
}

// RetryProvisioning 重試 failed / pending 的租戶
func (c *Cron) RetryProvisioning() {
	ctx, cancel := context.WithTimeout(context.Background(), retryJobTimeout)
	defer cancel()
	ctx, _, end := c.trace.WithSpan(ctx, string(core.SpanCronProvisionRetry))

	succeeded, failed, err := c.provisionService.RetryUnprovisioned(ctx)
	end(err)
	if err != nil {
		c.logger.Error("provision retry job failed", zap.Error(err))
		return
	}
	if succeeded+failed > 0 {
		c.logger.Info("provision retry job finished",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed))
	}
}

func (c *Cron) Stop(ctx context.Context) error {
	stopped := c.server.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
