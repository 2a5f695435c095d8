package database

import (
	client "salesdesk/internal/database/client"
	cpRepo "salesdesk/internal/database/controlplane/repository"
	fluentdRepo "salesdesk/internal/database/fluentd/repository"
	"salesdesk/internal/database/migrate"
	mongoRepo "salesdesk/internal/database/mongodb/repository"
	"salesdesk/internal/database/pool"
	redisRepo "salesdesk/internal/database/redis/repository"
	"salesdesk/internal/database/routing"
	tenantRepo "salesdesk/internal/database/tenantdb/repository"
	"salesdesk/internal/tenancy"

	"github.com/google/wire"
)

// ProviderSet 定義所有 DB Client、連線路由與 repository 的依賴
var ProviderSet = wire.NewSet(
	client.NewMongoClient,
	client.NewRedisClient,
	client.NewFluentdClient,
	tenancy.NewResolver,
	routing.NewControlPlane,
	pool.NewManager,
	routing.NewRouter,
	migrate.NewRunner,
	cpRepo.ProviderSet,
	tenantRepo.ProviderSet,
	mongoRepo.ProviderSet,
	redisRepo.ProviderSet,
	fluentdRepo.ProviderSet,
)
