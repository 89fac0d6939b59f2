package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "otp:v1:"
	maxTxRetries   = 3
)

var errCorrupt = errors.New("otp: corrupt entry")

// RedisRegistry shares entries between processes through Redis. Keys outlive
// the code by one extra TTL, which is the stale window during which a resend
// can still revive the pending registration. Read-modify-write paths run under WATCH so concurrent
// updates to the same email cannot interleave.
type RedisRegistry struct {
	client *redis.Client
	opts   Options
}

// NewRedisRegistry builds a Redis-backed registry.
func NewRedisRegistry(client *redis.Client, opts Options) *RedisRegistry {
	return &RedisRegistry{client: client, opts: opts.withDefaults()}
}

func (r *RedisRegistry) redisKey(email string) string {
	return redisKeyPrefix + key(email)
}

func (r *RedisRegistry) retention() time.Duration {
	return 2 * r.opts.TTL
}

func (r *RedisRegistry) Issue(ctx context.Context, email string, pending Pending) (string, error) {
	k := r.redisKey(email)
	var code string
	err := r.watch(ctx, k, func(tx *redis.Tx) error {
		var prev *entry
		current, err := load(ctx, tx, k)
		switch {
		case err == nil:
			prev = &current
		case errors.Is(err, ErrNotFound), errors.Is(err, errCorrupt):
			// nothing usable to carry over
		default:
			return err
		}
		e, err := r.opts.replace(prev, pending)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, raw, r.retention())
			return nil
		})
		if err != nil {
			return fmt.Errorf("store otp: %w", err)
		}
		code = e.Code
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

func (r *RedisRegistry) Reissue(ctx context.Context, email string) (string, error) {
	k := r.redisKey(email)
	var code string
	err := r.watch(ctx, k, func(tx *redis.Tx) error {
		e, err := load(ctx, tx, k)
		if err != nil {
			return err
		}
		if err := r.opts.refresh(&e); err != nil {
			return err
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, raw, r.retention())
			return nil
		})
		if err == nil {
			code = e.Code
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

func (r *RedisRegistry) Verify(ctx context.Context, email, code string) (Pending, error) {
	k := r.redisKey(email)
	var (
		pending Pending
		verdict error
	)
	err := r.watch(ctx, k, func(tx *redis.Tx) error {
		e, err := load(ctx, tx, k)
		if err != nil {
			return err
		}
		keep, vErr := r.opts.judge(&e, code)

		switch {
		case !keep:
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Del(ctx, k)
				return nil
			})
		case errors.Is(vErr, ErrMismatch) && r.opts.MaxAttempts > 0:
			raw, mErr := json.Marshal(e)
			if mErr != nil {
				return mErr
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, k, raw, redis.KeepTTL)
				return nil
			})
		}
		if err != nil {
			return err
		}
		verdict = vErr
		pending = e.Pending
		return nil
	})
	if err != nil {
		return Pending{}, err
	}
	if verdict != nil {
		return Pending{}, verdict
	}
	return pending, nil
}

func (r *RedisRegistry) Cancel(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.redisKey(email)).Err()
}

func (r *RedisRegistry) watch(ctx context.Context, k string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, fn, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func load(ctx context.Context, tx *redis.Tx, k string) (entry, error) {
	raw, err := tx.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entry{}, ErrNotFound
		}
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	return e, nil
}
