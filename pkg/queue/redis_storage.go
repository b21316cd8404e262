package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps batches in Redis. Ids come from an INCR counter, order
// from a sorted set scored by id, and payloads from a hash keyed by id.
type RedisStorage struct {
	db     redis.UniversalClient
	prefix string
}

// NewRedisStorage creates a Repository on top of an existing client.
// An empty prefix falls back to "notification:batches".
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "notification:batches"
	}
	return &RedisStorage{db: client, prefix: prefix}
}

func (s *RedisStorage) seqKey() string     { return s.prefix + ":seq" }
func (s *RedisStorage) orderKey() string   { return s.prefix + ":order" }
func (s *RedisStorage) payloadKey() string { return s.prefix + ":payload" }
func (s *RedisStorage) createdKey() string { return s.prefix + ":created" }

func (s *RedisStorage) CreateBatch(ctx context.Context, payload []byte) (Batch, error) {
	id, err := s.db.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return Batch{}, fmt.Errorf("allocate batch id: %w", err)
	}

	now := time.Now().UTC()
	field := strconv.FormatInt(id, 10)
	_, err = s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.payloadKey(), field, payload)
		pipe.HSet(ctx, s.createdKey(), field, now.UnixNano())
		pipe.ZAdd(ctx, s.orderKey(), redis.Z{Score: float64(id), Member: field})
		return nil
	})
	if err != nil {
		return Batch{}, fmt.Errorf("store batch %d: %w", id, err)
	}
	return Batch{ID: id, Payload: payload, CreatedAt: now}, nil
}

func (s *RedisStorage) ListBatches(ctx context.Context) ([]Batch, error) {
	ids, err := s.db.ZRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list batch ids: %w", err)
	}
	if len(ids) == 0 {
		return []Batch{}, nil
	}

	payloads, err := s.db.HMGet(ctx, s.payloadKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load batch payloads: %w", err)
	}
	created, err := s.db.HMGet(ctx, s.createdKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load batch timestamps: %w", err)
	}

	out := make([]Batch, 0, len(ids))
	for i, raw := range ids {
		data, ok := payloads[i].(string)
		if !ok {
			// Order entry without a payload: a half-deleted row, skip it.
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Join(ErrMalformedPayload, err)
		}
		b := Batch{ID: id, Payload: []byte(data)}
		if ts, ok := created[i].(string); ok {
			if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
				b.CreatedAt = time.Unix(0, n).UTC()
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *RedisStorage) DeleteBatch(ctx context.Context, id int64) error {
	field := strconv.FormatInt(id, 10)
	var removed *redis.IntCmd
	_, err := s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, s.orderKey(), field)
		pipe.HDel(ctx, s.payloadKey(), field)
		pipe.HDel(ctx, s.createdKey(), field)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete batch %d: %w", id, err)
	}
	if removed.Val() == 0 {
		return ErrBatchNotFound
	}
	return nil
}

func (s *RedisStorage) CountBatches(ctx context.Context) (int, error) {
	n, err := s.db.ZCard(ctx, s.orderKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return int(n), nil
}
