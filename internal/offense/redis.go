package offense

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis layout, one hash per user:
//
//	Key:    offense:<user_id>
//	Fields: offense_count, timeout_until
const (
	OffensePrefix = "offense:"

	fieldCount   = "offense_count"
	fieldTimeout = "timeout_until"

	// maxTxRetries bounds how often Update retries a WATCH conflict.
	maxTxRetries = 100
)

// RedisStore shares offense records across moderator processes. Update is an
// optimistic WATCH/MULTI transaction retried on conflict.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store using the provided Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (Record, error) {
	vals, err := s.client.HGetAll(ctx, OffensePrefix+userID).Result()
	if err != nil {
		return Record{}, storageErr("get", userID, err)
	}
	rec, err := parseRecord(userID, vals)
	if err != nil {
		return Record{}, storageErr("get", userID, err)
	}
	return rec, nil
}

func (s *RedisStore) Update(ctx context.Context, userID string, fn func(*Record)) (Record, error) {
	key := OffensePrefix + userID
	var out Record

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		rec, err := parseRecord(userID, vals)
		if err != nil {
			return err
		}
		fn(&rec)
		rec.UserID = userID

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldCount, rec.OffenseCount, fieldTimeout, rec.TimeoutUntil)
			return nil
		})
		if err == nil {
			out = rec
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Record{}, storageErr("update", userID, err)
	}
	return Record{}, storageErr("update", userID, ErrConflict)
}

func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	err := s.client.HSet(ctx, OffensePrefix+rec.UserID,
		fieldCount, rec.OffenseCount,
		fieldTimeout, rec.TimeoutUntil,
	).Err()
	if err != nil {
		return storageErr("put", rec.UserID, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// parseRecord decodes an HGETALL reply. An empty reply is a missing record.
func parseRecord(userID string, vals map[string]string) (Record, error) {
	rec := Record{UserID: userID}
	if v, ok := vals[fieldCount]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Record{}, fmt.Errorf("parse %s: %w", fieldCount, err)
		}
		rec.OffenseCount = n
	}
	if v, ok := vals[fieldTimeout]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("parse %s: %w", fieldTimeout, err)
		}
		rec.TimeoutUntil = n
	}
	return rec, nil
}
