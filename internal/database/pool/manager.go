// Package pool 管理每個租戶資料庫的 *sql.DB，一個 database name 在行程內最多一組連線池。
package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrClosed Manager 已關閉
	ErrClosed = errors.New("pool manager is closed")
	// ErrEvicted 開啟連線期間該 key 被 Evict/Reset，新開的連線已關閉不註冊
	ErrEvicted = errors.New("tenant pool was evicted while opening")
)

// Opener 開啟並驗證一組連線；測試可替換
type Opener func(ctx context.Context, d tenancy.Descriptor) (*sql.DB, int, error)

// Entry 已註冊的連線池
type Entry struct {
	Key        string
	TenantID   string
	Descriptor tenancy.Descriptor
	DB         *sql.DB
	OpenedAt   time.Time
}

// EntryInfo Snapshot 輸出；連線字串已遮蔽
type EntryInfo struct {
	Key             string      `json:"key"`
	TenantID        string      `json:"tenantId"`
	Engine          core.Engine `json:"engine"`
	Target          string      `json:"target"`
	OpenedAt        time.Time   `json:"openedAt"`
	OpenConnections int         `json:"openConnections"`
	InUse           int         `json:"inUse"`
	Idle            int         `json:"idle"`
}

type Manager struct {
	logger   *zap.Logger
	trace    *telemetry.Trace
	metric   *telemetry.Metric
	resolver *tenancy.Resolver
	open     Opener

	mu      sync.RWMutex
	entries map[string]*Entry
	closed  bool
	group   singleflight.Group
	// Evict 遞增單一 key，Reset 遞增 epoch；開啟中的連線以此判斷是否已失效
	gens  map[string]uint64
	epoch uint64
}

type generation struct {
	epoch uint64
	key   uint64
}

func (g generation) flightKey(key string) string {
	return fmt.Sprintf("%s#%d.%d", key, g.epoch, g.key)
}

func NewManager(
	logger *zap.Logger,
	conf *config.Configuration,
	resolver *tenancy.Resolver,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
) (*Manager, func()) {
	opts := sqldb.OpenOptions{
		Retries:     conf.Tenant.ConnectRetries,
		PingTimeout: time.Duration(conf.Tenant.ConnectTimeout) * time.Millisecond,
	}
	manager := &Manager{
		logger:   logger,
		trace:    trace,
		metric:   metric,
		resolver: resolver,
		entries:  map[string]*Entry{},
		gens:     map[string]uint64{},
		open: func(ctx context.Context, d tenancy.Descriptor) (*sql.DB, int, error) {
			return sqldb.Open(ctx, d, opts)
		},
	}
	cleanup := func() {
		logger.Info("closing tenant connection pools")
		manager.Close()
	}
	return manager, cleanup
}

// KeyFor 連線池以 database name 為鍵
func KeyFor(tenant *model.Tenant) string {
	return tenant.DatabaseName
}

// EnsureRegistered 冪等；同一個 key 併發呼叫只會開一次連線。
// created 只有實際建立連線的那個呼叫者為 true。
func (m *Manager) EnsureRegistered(ctx context.Context, tenant *model.Tenant) (_ *Entry, created bool, returnedError error) {
	key := KeyFor(tenant)
	if entry, ok := m.Lookup(key); ok {
		return entry, false, nil
	}

	ctx, span, end := m.trace.WithSpan(ctx, string(core.SpanPoolEnsureRegistered))
	defer func() { end(returnedError) }()
	meta := core.TracePoolMeta{Op: "ensure_registered", Key: key}
	defer func() {
		meta.Created = created
		meta.Entries = m.Len()
		m.trace.ApplyTraceAttributes(span, meta)
	}()

	// flight 以 generation 區分，Evict/Reset 之後的呼叫者不會共用舊的 flight
	gen := m.generation(key)
	value, err, _ := m.group.Do(gen.flightKey(key), func() (any, error) {
		// double-check：前一個 flight 可能剛完成
		if entry, ok := m.Lookup(key); ok {
			return entry, nil
		}
		descriptor, err := m.resolver.Resolve(tenant)
		if err != nil {
			return nil, err
		}
		meta.Engine = string(descriptor.Engine)

		// 連線池由所有等待者共用，不受單一請求取消影響
		db, attempts, err := m.open(context.WithoutCancel(ctx), descriptor)
		meta.Attempts = attempts
		if err != nil {
			m.metric.ObservePoolOpen(descriptor.Engine, "error")
			m.logger.Error("failed to open tenant database",
				zap.String("tenant_id", tenant.ID),
				zap.String("database", key),
				zap.String("target", descriptor.Redacted()),
				zap.Int("attempts", attempts),
				zap.Error(err))
			return nil, err
		}

		entry := &Entry{Key: key, TenantID: tenant.ID, Descriptor: descriptor, DB: db, OpenedAt: time.Now().UTC()}
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			_ = db.Close()
			return nil, ErrClosed
		}
		if m.currentGeneration(key) != gen {
			m.mu.Unlock()
			_ = db.Close()
			m.metric.ObservePoolOpen(descriptor.Engine, "evicted")
			m.logger.Warn("tenant pool evicted while opening, discarded",
				zap.String("tenant_id", tenant.ID),
				zap.String("database", key))
			return nil, ErrEvicted
		}
		if existing, ok := m.entries[key]; ok {
			m.mu.Unlock()
			_ = db.Close()
			return existing, nil
		}
		m.entries[key] = entry
		n := len(m.entries)
		m.mu.Unlock()

		created = true
		m.metric.ObservePoolOpen(descriptor.Engine, "ok")
		m.metric.SetPoolsRegistered(n)
		m.logger.Info("tenant pool registered",
			zap.String("tenant_id", tenant.ID),
			zap.String("database", key),
			zap.String("target", descriptor.Redacted()),
			zap.Int("pools", n))
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.(*Entry), created, nil
}

func (m *Manager) generation(key string) generation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentGeneration(key)
}

// currentGeneration 呼叫端須持有 m.mu
func (m *Manager) currentGeneration(key string) generation {
	return generation{epoch: m.epoch, key: m.gens[key]}
}

// ConnectionFor 取得租戶的連線池（必要時建立）
func (m *Manager) ConnectionFor(ctx context.Context, tenant *model.Tenant) (*sql.DB, error) {
	entry, _, err := m.EnsureRegistered(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return entry.DB, nil
}

func (m *Manager) Lookup(key string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	return entry, ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Evict 關閉並移除單一連線池（刪除租戶時使用）
func (m *Manager) Evict(key string) error {
	m.mu.Lock()
	entry, ok := m.entries[key]
	delete(m.entries, key)
	m.gens[key]++
	n := len(m.entries)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	m.metric.SetPoolsRegistered(n)
	m.logger.Info("tenant pool evicted", zap.String("database", key), zap.Int("pools", n))
	return entry.DB.Close()
}

// Reset 關閉並移除所有連線池；回傳被移除的數量
func (m *Manager) Reset() int {
	m.mu.Lock()
	entries := m.entries
	m.entries = map[string]*Entry{}
	m.epoch++
	m.gens = map[string]uint64{}
	m.mu.Unlock()

	for key, entry := range entries {
		if err := entry.DB.Close(); err != nil {
			m.logger.Warn("failed to close tenant pool", zap.String("database", key), zap.Error(err))
		}
	}
	m.metric.SetPoolsRegistered(0)
	m.logger.Info("tenant pools reset", zap.Int("closed", len(entries)))
	return len(entries)
}

// Snapshot 依 key 排序
func (m *Manager) Snapshot() []EntryInfo {
	m.mu.RLock()
	infos := make([]EntryInfo, 0, len(m.entries))
	for _, entry := range m.entries {
		stats := entry.DB.Stats()
		infos = append(infos, EntryInfo{
			Key:             entry.Key,
			TenantID:        entry.TenantID,
			Engine:          entry.Descriptor.Engine,
			Target:          entry.Descriptor.Redacted(),
			OpenedAt:        entry.OpenedAt,
			OpenConnections: stats.OpenConnections,
			InUse:           stats.InUse,
			Idle:            stats.Idle,
		})
	}
	m.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

// Ping 檢查所有已註冊的連線池；回傳失敗的 key 與錯誤
func (m *Manager) Ping(ctx context.Context, timeout time.Duration) map[string]error {
	m.mu.RLock()
	entries := make([]*Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	failures := map[string]error{}
	for _, entry := range entries {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err := entry.DB.PingContext(pingCtx)
		cancel()
		m.metric.SetPoolHealthy(entry.Key, err == nil)
		if err != nil {
			failures[entry.Key] = err
		}
	}
	return failures
}

// Close 關閉所有連線池，之後的 EnsureRegistered 回傳 ErrClosed
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.Reset()
}
