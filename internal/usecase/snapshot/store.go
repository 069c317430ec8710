package snapshot

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	snapshotv1 "github.com/quantfold/exchange-sim/internal/domain/snapshot/v1"
	"github.com/quantfold/exchange-sim/pkg/config"
	"github.com/quantfold/exchange-sim/pkg/errors"
	"github.com/quantfold/exchange-sim/pkg/logger"
	"github.com/quantfold/exchange-sim/pkg/redis"
)

// ErrStoreLocked is returned when another writer holds the snapshot lock.
// The caller retries on the next snapshot tick.
var ErrStoreLocked = stderrors.New("snapshot store is locked by another writer")

// writeLockTTL bounds how long a crashed writer can block snapshots.
const writeLockTTL = 30 * time.Second

// Store persists engine snapshots in Redis under a single key. Each Store
// call overwrites the previous snapshot, so recovery always restores the
// most recent consistent state. Writes are guarded by a SetNX lock so two
// engine instances pointed at the same key cannot interleave.
type Store struct {
	redisClient redis.Client
	key         string
	lockKey     string
	logger      logger.Interface
}

// NewStore creates a Redis-backed snapshot store.
func NewStore(redisClient redis.Client, cfg config.RedisConfig, log logger.Interface) *Store {
	return &Store{
		redisClient: redisClient,
		key:         cfg.SnapshotKey,
		lockKey:     cfg.SnapshotKey + ":lock",
		logger:      log,
	}
}

// Store serializes the snapshot and writes it to Redis without expiration,
// holding the writer lock for the duration of the write.
func (s *Store) Store(ctx context.Context, snap *snapshotv1.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.NewTracer("failed to marshal snapshot").Wrap(err)
	}

	acquired, err := s.redisClient.SetNX(ctx, s.lockKey, "1", writeLockTTL)
	if err != nil {
		return errors.NewTracer("failed to acquire snapshot lock").Wrap(err)
	}
	if !acquired {
		return ErrStoreLocked
	}
	defer func() {
		if _, err := s.redisClient.Del(ctx, s.lockKey); err != nil {
			s.logger.ErrorContext(ctx, err,
				logger.Field{Key: "operation", Value: "release_snapshot_lock"},
			)
		}
	}()

	if err := s.redisClient.Set(ctx, s.key, data, 0); err != nil {
		return errors.NewTracer("failed to store snapshot").Wrap(err)
	}

	s.logger.InfoContext(ctx, "snapshot stored",
		logger.Field{Key: "order_offset", Value: snap.OrderOffset},
		logger.Field{Key: "books", Value: len(snap.Books)},
	)

	return nil
}

// Load reads the latest snapshot from Redis. It returns a nil snapshot and
// nil error when no snapshot has been stored yet.
func (s *Store) Load(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisClient.Get(ctx, s.key)
	if err != nil {
		return nil, errors.NewTracer("failed to load snapshot").Wrap(err)
	}

	if data == "" {
		return nil, nil
	}

	var snap snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, errors.NewTracer("failed to unmarshal snapshot").Wrap(err)
	}

	s.logger.InfoContext(ctx, "snapshot loaded",
		logger.Field{Key: "order_offset", Value: snap.OrderOffset},
		logger.Field{Key: "books", Value: len(snap.Books)},
	)

	return &snap, nil
}
