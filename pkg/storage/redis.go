package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps samples in two keys:
//
//	<prefix>:dates   sorted set, member = date, score = days since the Unix epoch
//	<prefix>:counts  hash, field = date, value = count
//
// Both keys are always written in the same MULTI/EXEC block.
type RedisStore struct {
	client    *redis.Client
	datesKey  string
	countsKey string
}

// NewRedisStore connects to a Redis server. The connection is lazy; call Ping
// to verify it.
func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreWithClient(client, prefix)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "followcast"
	}
	return &RedisStore{
		client:    client,
		datesKey:  prefix + ":dates",
		countsKey: prefix + ":counts",
	}
}

func (r *RedisStore) Add(ctx context.Context, s Sample) error {
	if err := validate(s); err != nil {
		return err
	}
	key := s.Key()

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, r.countsKey, key).Result()
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateKey
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.countsKey, key, s.Count)
			pipe.ZAdd(ctx, r.datesKey, redis.Z{Score: dayScore(s.Date), Member: key})
			return nil
		})
		return err
	}, r.countsKey)

	return r.wrap("add", err)
}

func (r *RedisStore) AddBatch(ctx context.Context, samples []Sample) error {
	if err := validateBatch(samples); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	keys := make([]string, len(samples))
	for i, s := range samples {
		keys[i] = s.Key()
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		existing, err := tx.HMGet(ctx, r.countsKey, keys...).Result()
		if err != nil {
			return err
		}
		for i, v := range existing {
			if v != nil {
				return fmt.Errorf("%s: %w", keys[i], ErrDuplicateKey)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, s := range samples {
				pipe.HSet(ctx, r.countsKey, s.Key(), s.Count)
				pipe.ZAdd(ctx, r.datesKey, redis.Z{Score: dayScore(s.Date), Member: s.Key()})
			}
			return nil
		})
		return err
	}, r.countsKey)

	return r.wrap("add batch", err)
}

func (r *RedisStore) List(ctx context.Context) ([]Sample, error) {
	keys, err := r.client.ZRange(ctx, r.datesKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable("list", err)
	}
	return r.load(ctx, "list", keys)
}

func (r *RedisStore) ListPage(ctx context.Context, page, limit int) ([]Sample, int, error) {
	if err := validatePage(page, limit); err != nil {
		return nil, 0, err
	}

	total, err := r.client.ZCard(ctx, r.datesKey).Result()
	if err != nil {
		return nil, 0, unavailable("list page", err)
	}

	start, end := pageBounds(page, limit, int(total))
	if start == end {
		return []Sample{}, int(total), nil
	}
	keys, err := r.client.ZRange(ctx, r.datesKey, int64(start), int64(end-1)).Result()
	if err != nil {
		return nil, 0, unavailable("list page", err)
	}
	samples, err := r.load(ctx, "list page", keys)
	if err != nil {
		return nil, 0, err
	}
	return samples, int(total), nil
}

func (r *RedisStore) Recent(ctx context.Context, n int) ([]Sample, error) {
	if n <= 0 {
		return []Sample{}, nil
	}

	keys, err := r.client.ZRevRange(ctx, r.datesKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, unavailable("recent", err)
	}
	samples, err := r.load(ctx, "recent", keys)
	if err != nil {
		return nil, err
	}
	reverse(samples)
	return samples, nil
}

func (r *RedisStore) Update(ctx context.Context, date, newDate time.Time, count int) error {
	if err := validate(Sample{Date: newDate, Count: count}); err != nil {
		return err
	}
	oldKey, newKey := date.Format(DateLayout), newDate.Format(DateLayout)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, r.countsKey, oldKey).Result()
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if newKey != oldKey {
			taken, err := tx.HExists(ctx, r.countsKey, newKey).Result()
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateKey
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if newKey != oldKey {
				pipe.HDel(ctx, r.countsKey, oldKey)
				pipe.ZRem(ctx, r.datesKey, oldKey)
				pipe.ZAdd(ctx, r.datesKey, redis.Z{Score: dayScore(newDate), Member: newKey})
			}
			pipe.HSet(ctx, r.countsKey, newKey, count)
			return nil
		})
		return err
	}, r.countsKey)

	return r.wrap("update", err)
}

func (r *RedisStore) Delete(ctx context.Context, date time.Time) error {
	key := date.Format(DateLayout)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.countsKey, key)
		pipe.ZRem(ctx, r.datesKey, key)
		return nil
	})
	if err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.datesKey, r.countsKey).Err(); err != nil {
		return unavailable("clear", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// load fetches the counts for keys, preserving their order.
func (r *RedisStore) load(ctx context.Context, op string, keys []string) ([]Sample, error) {
	samples := make([]Sample, 0, len(keys))
	if len(keys) == 0 {
		return samples, nil
	}

	values, err := r.client.HMGet(ctx, r.countsKey, keys...).Result()
	if err != nil {
		return nil, unavailable(op, err)
	}

	for i, key := range keys {
		raw, ok := values[i].(string)
		if !ok {
			return nil, unavailable(op, fmt.Errorf("missing count for %s", key))
		}
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, unavailable(op, fmt.Errorf("count for %s: %w", key, err))
		}
		date, err := ParseDate(key)
		if err != nil {
			return nil, unavailable(op, err)
		}
		samples = append(samples, Sample{Date: date, Count: count})
	}
	return samples, nil
}

// wrap passes domain errors through and marks everything else unavailable.
func (r *RedisStore) wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return unavailable(op, fmt.Errorf("concurrent modification: %w", err))
	default:
		return unavailable(op, err)
	}
}

func dayScore(t time.Time) float64 {
	return float64(Day(t).Unix() / 86400)
}
