// internal/core/compare-set/manager_test.go
package compareset

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/storage"
	"shopping-assistant/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Capacity: 3, Key: "compareList"}
}

func createTestManager(t *testing.T, store storage.Store) *Manager {
	t.Helper()
	m, err := NewManager(createTestConfig(), store, logger.NewTestLogger(t))
	require.NoError(t, err)
	return m
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *storage.RedisStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, storage.NewRedisFromClient(client)
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []models.ProductID
	fail  map[models.ProductID]error
}

func (f *fakeFetcher) GetProduct(_ context.Context, id models.ProductID) (*models.Product, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if err, ok := f.fail[id]; ok {
		return nil, err
	}
	return &models.Product{ID: id, Name: "Product " + id.String()}, nil
}

// failingStore fails every write while reads succeed.
type failingStore struct {
	*storage.MemoryStore
}

func (f failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }
func (f failingStore) Del(context.Context, ...string) error      { return errors.New("disk full") }

// ==========================
// Core Functionality Tests
// ==========================

func TestAdd_CapacityAndUniqueness(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, storage.NewMemoryStore())

	ids, err := m.Add(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"a"}, ids)

	_, err = m.Add(ctx, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrAlreadyPresent))
	assert.Contains(t, err.Error(), "Product already in compare list")

	_, err = m.Add(ctx, "b")
	require.NoError(t, err)
	ids, err = m.Add(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"a", "b", "c"}, ids)

	_, err = m.Add(ctx, "d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrCapacityExceeded))
	assert.Contains(t, err.Error(), "You can compare maximum 3 products at a time")

	// A full set reports capacity even for a member.
	_, err = m.Add(ctx, "a")
	assert.True(t, errors.Is(err, commonerrors.ErrCapacityExceeded))

	ids, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"a", "b", "c"}, ids)
}

func TestAdd_RepeatOfThirdMemberReportsCapacity(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, storage.NewMemoryStore())

	for _, id := range []models.ProductID{"a", "b"} {
		_, err := m.Add(ctx, id)
		require.NoError(t, err)
	}

	// Below capacity a repeat is AlreadyPresent.
	_, err := m.Add(ctx, "a")
	assert.True(t, errors.Is(err, commonerrors.ErrAlreadyPresent))

	ids, err := m.Add(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"a", "b", "x"}, ids)

	// x filled the last slot, so capacity is checked first and wins.
	_, err = m.Add(ctx, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrCapacityExceeded))
	assert.False(t, errors.Is(err, commonerrors.ErrAlreadyPresent))

	ids, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"a", "b", "x"}, ids)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := createTestManager(t, store)

	for _, id := range []models.ProductID{"a", "b", "c"} {
		_, err := m.Add(ctx, id)
		require.NoError(t, err)
	}

	ids, err := m.Remove(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"a", "c"}, ids)

	ids, err = m.Remove(ctx, "zzz")
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"a", "c"}, ids)

	raw, err := store.Get(ctx, "compareList")
	require.NoError(t, err)
	assert.JSONEq(t, `["a","c"]`, raw)
}

func TestClear_DeletesRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := createTestManager(t, store)

	_, err := m.Add(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, m.Clear(ctx))

	_, err = store.Get(ctx, "compareList")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestContains(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, storage.NewMemoryStore())
	_, err := m.Add(ctx, "a")
	require.NoError(t, err)

	ok, err := m.Contains(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Contains(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistence_ReloadAcrossInstances(t *testing.T) {
	ctx := context.Background()
	mr, store := setupRedis(t)

	first := createTestManager(t, store)
	_, err := first.Add(ctx, "x")
	require.NoError(t, err)
	_, err = first.Add(ctx, "y")
	require.NoError(t, err)

	stored, err := mr.Get("compareList")
	require.NoError(t, err)
	assert.JSONEq(t, `["x","y"]`, stored)

	second := createTestManager(t, store)
	ids, err := second.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"x", "y"}, ids)
}

func TestLoad_RecordVariants(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   []models.ProductID
	}{
		{"numeric ids", `[1, 2]`, []models.ProductID{"1", "2"}},
		{"mixed duplicates", `[1, "1", "b"]`, []models.ProductID{"1", "b"}},
		{"malformed json", `[1,`, []models.ProductID{}},
		{"not an array", `{"ids": ["a"]}`, []models.ProductID{}},
		{"over capacity", `["a","b","c","d"]`, []models.ProductID{}},
		{"duplicate strings", `["a","a"]`, []models.ProductID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, "compareList", tt.record))

			m := createTestManager(t, store)
			ids, err := m.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRandomOperations_NeverExceedCapacityOrDuplicate(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	m := createTestManager(t, storage.NewMemoryStore())

	for i := 0; i < 500; i++ {
		id := models.ProductID(fmt.Sprintf("p%d", rng.Intn(6)))
		if rng.Intn(3) == 0 {
			_, err := m.Remove(ctx, id)
			require.NoError(t, err)
		} else {
			_, err := m.Add(ctx, id)
			if err != nil {
				code := commonerrors.CodeOf(err)
				require.Contains(t, []commonerrors.ErrorCode{
					commonerrors.ErrCodeCapacityExceeded,
					commonerrors.ErrCodeAlreadyPresent,
				}, code)
			}
		}

		ids, err := m.List(ctx)
		require.NoError(t, err)
		require.LessOrEqual(t, len(ids), 3)
		seen := map[models.ProductID]bool{}
		for _, id := range ids {
			require.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
		}
	}
}

func TestConcurrentAdds_RespectCapacity(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, storage.NewMemoryStore())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.Add(ctx, models.ProductID(fmt.Sprintf("p%d", i%5))); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Equal(t, 3, successes)
}

func TestIndependentInstances(t *testing.T) {
	ctx := context.Background()
	a := createTestManager(t, storage.NewMemoryStore())
	b := createTestManager(t, storage.NewMemoryStore())

	_, err := a.Add(ctx, "only-a")
	require.NoError(t, err)

	ids, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// ==========================
// Error Handling Tests
// ==========================

func TestPersistFailure_LeavesSetUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, "compareList", `["a"]`))
	m := createTestManager(t, failingStore{mem})

	_, err := m.Add(ctx, "b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrStorageFailed))

	_, err = m.Remove(ctx, "a")
	assert.True(t, errors.Is(err, commonerrors.ErrStorageFailed))

	err = m.Clear(ctx)
	assert.True(t, errors.Is(err, commonerrors.ErrStorageFailed))

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ProductID{"a"}, ids)
}

func TestRedisFailure(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	store := storage.NewRedisFromClient(client)

	mock.ExpectGet("compareList").SetErr(errors.New("connection refused"))
	mock.ExpectGet("compareList").RedisNil()
	mock.ExpectSet("compareList", `["a"]`, 0).SetErr(errors.New("READONLY"))

	m := createTestManager(t, store)

	_, err := m.List(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrStorageFailed))

	_, err = m.Add(ctx, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrStorageFailed))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Resolve Tests
// ==========================

func TestResolve_PerIDResultsInOrder(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, storage.NewMemoryStore())
	for _, id := range []models.ProductID{"a", "b", "c"} {
		_, err := m.Add(ctx, id)
		require.NoError(t, err)
	}

	fetcher := &fakeFetcher{fail: map[models.ProductID]error{
		"b": commonerrors.NewNotFoundError("product", "b"),
	}}
	results, err := m.Resolve(ctx, fetcher)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, models.ProductID("a"), results[0].ID)
	require.NotNil(t, results[0].Product)
	assert.Equal(t, "Product a", results[0].Product.Name)

	assert.Equal(t, models.ProductID("b"), results[1].ID)
	assert.Nil(t, results[1].Product)
	assert.True(t, errors.Is(results[1].Err, commonerrors.ErrNotFound))

	assert.Equal(t, models.ProductID("c"), results[2].ID)
	assert.NoError(t, results[2].Err)
	assert.Len(t, fetcher.calls, 3)
}

func TestResolve_EmptySet(t *testing.T) {
	m := createTestManager(t, storage.NewMemoryStore())
	fetcher := &fakeFetcher{}

	results, err := m.Resolve(context.Background(), fetcher)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, fetcher.calls)
}
