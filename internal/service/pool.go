package service

import (
	"context"
	"time"

	"salesdesk/internal/database/pool"
	"salesdesk/internal/telemetry"

	"go.uber.org/zap"
)

// PoolService 連線池的管理操作（admin API 與排程共用）
type PoolService struct {
	logger *zap.Logger
	metric *telemetry.Metric
	pools  *pool.Manager
}

func NewPoolService(logger *zap.Logger, metric *telemetry.Metric, pools *pool.Manager) *PoolService {
	return &PoolService{logger: logger, metric: metric, pools: pools}
}

func (s *PoolService) Snapshot() []pool.EntryInfo {
	return s.pools.Snapshot()
}

// Reset 關閉並移除所有連線池；下一個請求會重新註冊
func (s *PoolService) Reset() int {
	closed := s.pools.Reset()
	s.metric.SetPoolsRegistered(s.pools.Len())
	s.logger.Warn("tenant connection pools reset", zap.Int("closed", closed))
	return closed
}

// Sweep ping 每個已註冊的連線池並更新健康狀態；不會自動移除失敗的連線池
func (s *PoolService) Sweep(ctx context.Context, timeout time.Duration) (healthy, unhealthy int) {
	registered := s.pools.Len()
	failures := s.pools.Ping(ctx, timeout)
	for key, err := range failures {
		s.logger.Warn("tenant pool unhealthy", zap.String("database", key), zap.Error(err))
	}
	s.metric.SetPoolsRegistered(registered)
	return max(registered-len(failures), 0), len(failures)
}
