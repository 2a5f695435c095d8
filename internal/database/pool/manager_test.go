package pool

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"salesdesk/config"
	"salesdesk/internal/database/controlplane/model"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/telemetry"
	"salesdesk/internal/tenancy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*Manager, *atomic.Int32) {
	t.Helper()
	conf := &config.Configuration{}
	conf.Tenant.DataRoot = filepath.Join(t.TempDir(), "tenant_dbs")
	conf.ApplyDefaults()

	manager, cleanup := NewManager(zap.NewNop(), conf, tenancy.NewResolver(conf), &telemetry.Trace{}, &telemetry.Metric{})
	t.Cleanup(cleanup)

	opens := &atomic.Int32{}
	manager.open = func(ctx context.Context, d tenancy.Descriptor) (*sql.DB, int, error) {
		opens.Add(1)
		// 讓併發呼叫者有機會在第一次開啟完成前抵達
		time.Sleep(20 * time.Millisecond)
		return sqldb.Open(ctx, d, sqldb.OpenOptions{Retries: 1})
	}
	return manager, opens
}

func TestEnsureRegisteredConcurrentSingleEntry(t *testing.T) {
	manager, opens := newTestManager(t)
	tenant := &model.Tenant{ID: "t1", Subdomain: "acme", DatabaseName: "sales_acme"}

	const callers = 50
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		dbs     sync.Map
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			entry, isNew, err := manager.EnsureRegistered(context.Background(), tenant)
			if !assert.NoError(t, err) {
				return
			}
			if isNew {
				created.Add(1)
			}
			dbs.Store(entry.DB, true)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, 1, manager.Len())

	distinct := 0
	dbs.Range(func(_, _ any) bool { distinct++; return true })
	assert.Equal(t, 1, distinct)
}

func TestEnsureRegisteredIsIdempotent(t *testing.T) {
	manager, opens := newTestManager(t)
	tenant := &model.Tenant{ID: "t1", DatabaseName: "sales_acme"}

	first, created, err := manager.EnsureRegistered(context.Background(), tenant)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := manager.EnsureRegistered(context.Background(), tenant)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opens.Load())

	// sqlite 資料目錄在第一次連線前建立
	assert.FileExists(t, first.Descriptor.Path)
}

func TestRegistrationDoesNotDisturbOtherEntries(t *testing.T) {
	manager, _ := newTestManager(t)
	a := &model.Tenant{ID: "a", DatabaseName: "sales_a"}
	b := &model.Tenant{ID: "b", DatabaseName: "sales_b"}

	entryA, _, err := manager.EnsureRegistered(context.Background(), a)
	require.NoError(t, err)
	_, _, err = manager.EnsureRegistered(context.Background(), b)
	require.NoError(t, err)

	again, ok := manager.Lookup("sales_a")
	require.True(t, ok)
	assert.Same(t, entryA, again)

	snapshot := manager.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "sales_a", snapshot[0].Key)
	assert.Equal(t, "sales_b", snapshot[1].Key)
}

func TestEvictAndReset(t *testing.T) {
	manager, opens := newTestManager(t)
	a := &model.Tenant{ID: "a", DatabaseName: "sales_a"}
	b := &model.Tenant{ID: "b", DatabaseName: "sales_b"}

	_, _, err := manager.EnsureRegistered(context.Background(), a)
	require.NoError(t, err)
	_, _, err = manager.EnsureRegistered(context.Background(), b)
	require.NoError(t, err)

	require.NoError(t, manager.Evict("sales_a"))
	_, ok := manager.Lookup("sales_a")
	assert.False(t, ok)
	require.NoError(t, manager.Evict("sales_a"))

	_, created, err := manager.EnsureRegistered(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int32(3), opens.Load())

	assert.Equal(t, 2, manager.Reset())
	assert.Zero(t, manager.Len())
}

// blockingOpen 開啟前通知 entered，等 release 關閉才繼續
func blockingOpen(manager *Manager) (entered chan struct{}, release chan struct{}) {
	entered = make(chan struct{}, 1)
	release = make(chan struct{})
	manager.open = func(ctx context.Context, d tenancy.Descriptor) (*sql.DB, int, error) {
		entered <- struct{}{}
		<-release
		return sqldb.Open(ctx, d, sqldb.OpenOptions{Retries: 1})
	}
	return entered, release
}

func TestEvictDuringOpenDiscardsConnection(t *testing.T) {
	manager, _ := newTestManager(t)
	entered, release := blockingOpen(manager)
	tenant := &model.Tenant{ID: "a", DatabaseName: "sales_a"}

	errs := make(chan error, 1)
	go func() {
		_, _, err := manager.EnsureRegistered(context.Background(), tenant)
		errs <- err
	}()
	<-entered
	require.NoError(t, manager.Evict("sales_a"))
	close(release)

	assert.ErrorIs(t, <-errs, ErrEvicted)
	_, ok := manager.Lookup("sales_a")
	assert.False(t, ok)
	assert.Zero(t, manager.Len())

	manager.open = func(ctx context.Context, d tenancy.Descriptor) (*sql.DB, int, error) {
		return sqldb.Open(ctx, d, sqldb.OpenOptions{Retries: 1})
	}
	_, created, err := manager.EnsureRegistered(context.Background(), tenant)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, manager.Len())
}

func TestResetDuringOpenDiscardsConnection(t *testing.T) {
	manager, _ := newTestManager(t)
	entered, release := blockingOpen(manager)
	tenant := &model.Tenant{ID: "a", DatabaseName: "sales_a"}

	errs := make(chan error, 1)
	go func() {
		_, _, err := manager.EnsureRegistered(context.Background(), tenant)
		errs <- err
	}()
	<-entered
	assert.Zero(t, manager.Reset())
	close(release)

	assert.ErrorIs(t, <-errs, ErrEvicted)
	assert.Zero(t, manager.Len())
}

func TestCallerAfterEvictStartsNewOpen(t *testing.T) {
	manager, _ := newTestManager(t)
	entered, release := blockingOpen(manager)
	tenant := &model.Tenant{ID: "a", DatabaseName: "sales_a"}

	stale := make(chan error, 1)
	go func() {
		_, _, err := manager.EnsureRegistered(context.Background(), tenant)
		stale <- err
	}()
	<-entered
	require.NoError(t, manager.Evict("sales_a"))

	fresh := make(chan error, 1)
	go func() {
		_, _, err := manager.EnsureRegistered(context.Background(), tenant)
		fresh <- err
	}()
	// 第二個呼叫者不共用舊的開啟，而是自己開一次
	<-entered
	close(release)

	assert.ErrorIs(t, <-stale, ErrEvicted)
	require.NoError(t, <-fresh)
	_, ok := manager.Lookup("sales_a")
	assert.True(t, ok)
}

func TestOpenFailureLeavesNoEntry(t *testing.T) {
	manager, _ := newTestManager(t)
	boom := errors.New("boom")
	manager.open = func(context.Context, tenancy.Descriptor) (*sql.DB, int, error) {
		return nil, 1, boom
	}

	_, _, err := manager.EnsureRegistered(context.Background(), &model.Tenant{ID: "a", DatabaseName: "sales_a"})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, manager.Len())
}

func TestClosedManagerRejectsRegistration(t *testing.T) {
	manager, _ := newTestManager(t)
	manager.Close()

	_, _, err := manager.EnsureRegistered(context.Background(), &model.Tenant{ID: "a", DatabaseName: "sales_a"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPingReportsHealthyPools(t *testing.T) {
	manager, _ := newTestManager(t)
	_, _, err := manager.EnsureRegistered(context.Background(), &model.Tenant{ID: "a", DatabaseName: "sales_a"})
	require.NoError(t, err)

	assert.Empty(t, manager.Ping(context.Background(), time.Second))
}
