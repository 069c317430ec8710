package snapshot

import (
	"context"
	"testing"
	"time"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	snapshotv1 "github.com/quantfold/exchange-sim/internal/domain/snapshot/v1"
	"github.com/quantfold/exchange-sim/pkg/config"
	"github.com/quantfold/exchange-sim/pkg/logger"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the redis client interface over a map.
type fakeRedis struct {
	values map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) Connect(ctx context.Context) error    { return nil }
func (f *fakeRedis) Disconnect(ctx context.Context) error { return nil }
func (f *fakeRedis) Ping(ctx context.Context) error       { return nil }
func (f *fakeRedis) Reconnect(ctx context.Context) bool   { return true }

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	return nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	return true, f.Set(ctx, key, value, expiration)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) (int64, error) {
	var deleted int64
	for _, key := range keys {
		if _, exists := f.values[key]; exists {
			delete(f.values, key)
			deleted++
		}
	}
	return deleted, nil
}

func newTestStore(t *testing.T) (*Store, *fakeRedis) {
	t.Helper()
	log, err := logger.NewLogger()
	require.NoError(t, err)

	client := newFakeRedis()
	cfg := config.RedisConfig{SnapshotKey: "matching:snapshot"}
	return NewStore(client, cfg, log), client
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	snapshot := &snapshotv1.Snapshot{
		TakenAt:     time.Now().UTC(),
		OrderOffset: 42,
		Books: []snapshotv1.BookSnapshot{
			{
				Symbol:        "BTC-USD",
				QuoteCurrency: "USD",
				Orders: []snapshotv1.BookOrder{
					{
						OrderID:  "buy1",
						Symbol:   "BTC-USD",
						Side:     orderv1.SideBuy,
						Price:    money.FromFloat(45_000, "USD"),
						Quantity: decimal.NewFromInt(10),
						Status:   orderv1.StatusPending,
						Sequence: 1,
					},
				},
			},
		},
	}

	require.NoError(t, store.Store(ctx, snapshot))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, int64(42), loaded.OrderOffset)
	require.Len(t, loaded.Books, 1)
	assert.Equal(t, "BTC-USD", loaded.Books[0].Symbol)
	require.Len(t, loaded.Books[0].Orders, 1)
	assert.Equal(t, "buy1", loaded.Books[0].Orders[0].OrderID)
	assert.True(t, loaded.Books[0].Orders[0].Quantity.Equal(decimal.NewFromInt(10)))
}

func TestStore_Load_Empty(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_Store_HoldsAndReleasesLock(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, &snapshotv1.Snapshot{OrderOffset: 7}))

	// the writer lock does not outlive the write
	_, held := client.values["matching:snapshot:lock"]
	assert.False(t, held)
}

func TestStore_Store_LockedByAnotherWriter(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	client.values["matching:snapshot:lock"] = "1"

	err := store.Store(ctx, &snapshotv1.Snapshot{OrderOffset: 7})
	assert.ErrorIs(t, err, ErrStoreLocked)

	// nothing was written
	_, written := client.values["matching:snapshot"]
	assert.False(t, written)
}

func TestStore_Store_Overwrites(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, &snapshotv1.Snapshot{OrderOffset: 1}))
	require.NoError(t, store.Store(ctx, &snapshotv1.Snapshot{OrderOffset: 2}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(2), loaded.OrderOffset)
}
