package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepstack/mockexam-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	SnapshotBatchSize    = 100
	SnapshotBatchTimeout = 3 * time.Second
	SnapshotPollTimeout  = 1 * time.Second
)

// SnapshotWorker drains the snapshot queue and upserts attempt snapshots
// into PostgreSQL. Redis already holds the latest copy for fast resume; this
// table is what survives a Redis flush. Only the newest snapshot per attempt
// in a batch is written.
type SnapshotWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "snapshot_worker").Logger(),
	}
}

type snapshotPayload struct {
	AttemptID string          `json:"attempt_id"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SnapshotWorker started")

	batch := make([]*snapshotPayload, 0, SnapshotBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= SnapshotBatchSize || time.Since(lastFlush) >= SnapshotBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, SnapshotPollTimeout, config.WorkerKey.PersistSnapshotsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p snapshotPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *SnapshotWorker) flushSafe(ctx context.Context, batch []*snapshotPayload) {
	if len(batch) == 0 {
		return
	}

	// Ticks make the queue write-heavy per attempt; collapse to the last
	// snapshot per attempt before touching PostgreSQL. Queue order is
	// autosave order, so the last entry wins.
	latest := make(map[string]*snapshotPayload, len(batch))
	order := make([]string, 0, len(batch))
	for _, p := range batch {
		if _, seen := latest[p.AttemptID]; !seen {
			order = append(order, p.AttemptID)
		}
		latest[p.AttemptID] = p
	}

	for _, id := range order {
		p := latest[id]
		if err := w.upsertSingle(ctx, p); err != nil {
			w.log.Error().Err(err).Str("attempt_id", p.AttemptID).Msg("upsert failed — requeueing")
			raw, _ := json.Marshal(p)
			w.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotsQueue, raw)
		}
	}
}

func (w *SnapshotWorker) upsertSingle(ctx context.Context, p *snapshotPayload) error {
	aID, err := uuid.Parse(p.AttemptID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO attempt_snapshots (attempt_id, snapshot, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (attempt_id)
		 DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		aID, []byte(p.Snapshot),
	)
	return err
}
