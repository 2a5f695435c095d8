package service

import (
	"context"
	"sync/atomic"
	"time"

	"salesdesk/internal/database/client"
	"salesdesk/internal/database/routing"
)

type HealthService struct {
	live  atomic.Bool
	ready atomic.Bool

	router *routing.Router
	redis  *client.RedisClient
}

func NewHealthService(router *routing.Router, redis *client.RedisClient) *HealthService {
	s := &HealthService{router: router, redis: redis}
	s.live.Store(true)
	s.ready.Store(false) // 啟動完成後再打開
	return s
}

func (s *HealthService) SetReady(v bool) {
	s.ready.Store(v)
}

func (s *HealthService) IsLive() bool {
	return s.live.Load()
}

func (s *HealthService) IsReady() bool {
	return s.ready.Load()
}

// Dependencies 控制平面與 redis 的連線狀態；停用的元件回報 disabled
func (s *HealthService) Dependencies(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ok := true
	status := map[string]string{"controlplane": "up", "redis": "disabled"}
	if err := s.router.ControlPlane().DB.PingContext(ctx); err != nil {
		status["controlplane"] = "down"
		ok = false
	}
	if s.redis != nil && s.redis.Enabled() {
		status["redis"] = "up"
		if err := s.redis.Ping(ctx); err != nil {
			status["redis"] = "down"
			ok = false
		}
	}
	return status, ok
}
