package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesdesk/internal/core"
	client "salesdesk/internal/database/client"
	"salesdesk/internal/telemetry"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 另一個程序正在 provision 同一個租戶
var ErrLockHeld = errors.New("provision lock is held by another process")

// 只刪除自己持有的鎖
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ProvisionLockRepository 以 SET NX PX 實作的跨程序 provision 鎖；Redis 停用時永遠取得成功
type ProvisionLockRepository struct {
	trace  *telemetry.Trace
	client *redis.Client
}

func NewProvisionLockRepository(trace *telemetry.Trace, client *client.RedisClient) *ProvisionLockRepository {
	return &ProvisionLockRepository{trace: trace, client: client.Client()}
}

// Distributed 是否真的跨程序
func (repository *ProvisionLockRepository) Distributed() bool {
	return repository.client != nil
}

// Acquire 取得鎖並回傳 token；已被持有時回傳 ErrLockHeld
func (repository *ProvisionLockRepository) Acquire(
	contextValue context.Context,
	tenantID string,
	ttl time.Duration,
) (token string, returnedError error) {
	token = uuid.NewString()
	if repository.client == nil {
		return token, nil
	}

	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	traceMetadata := core.TraceProvisionLockMeta{
		Op:       "acquire",
		TenantID: tenantID,
		TTLSec:   int64(ttl.Seconds()),
	}

	acquired, setError := repository.client.SetNX(contextValue, repository.buildKey(tenantID), token, ttl).Result()
	if setError != nil {
		returnedError = setError
		return "", returnedError
	}
	traceMetadata.Acquired = acquired
	repository.trace.ApplyTraceAttributes(span, traceMetadata)
	if !acquired {
		return "", ErrLockHeld
	}
	return token, nil
}

// Release 僅在 token 相符時刪除；鎖已過期或被他人取得時回傳 released=false
func (repository *ProvisionLockRepository) Release(
	contextValue context.Context,
	tenantID string,
	token string,
) (released bool, returnedError error) {
	if repository.client == nil {
		return true, nil
	}

	contextValue, span, endSpan := repository.trace.WithSpan(contextValue)
	defer func() { endSpan(returnedError) }()

	deleted, runError := releaseScript.Run(contextValue, repository.client, []string{repository.buildKey(tenantID)}, token).Int()
	if runError != nil {
		returnedError = runError
		return false, returnedError
	}
	released = deleted == 1
	repository.trace.ApplyTraceAttributes(span, core.TraceProvisionLockMeta{
		Op:       "release",
		TenantID: tenantID,
		Acquired: released,
	})
	return released, nil
}

// buildKey 建構 provision 鎖的 Redis key
func (repository *ProvisionLockRepository) buildKey(tenantID string) string {
	return fmt.Sprintf("%s:%s:%s", core.RedisKeyServerName, core.RedisKeyProvisionLock, tenantID)
}
