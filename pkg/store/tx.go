// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

// Tx is the read-check-write view handed to an Update callback. Reads go straight to the
// store, writes are buffered and committed in one MULTI/EXEC once the callback returns nil.
type Tx struct {
	ctx    context.Context
	tx     *redis.Tx
	writes []func(pipe redis.Pipeliner) error
}

// callbackError marks errors raised by the caller's logic so they are not retried.
type callbackError struct {
	err error
}

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

// readError marks a failed Redis read inside the callback. It keeps the update retryable.
type readError struct {
	err error
}

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// Get decodes the item at key. It returns models.ErrNotFound when the key is absent.
func (t *Tx) Get(key string, out interface{}) error {
	bz, err := t.tx.Get(t.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ErrNotFound
	}
	if err != nil {
		return &readError{err: eris.Wrapf(err, "get %s", key)}
	}
	return eris.Wrapf(json.Unmarshal(bz, out), "decode %s", key)
}

func (t *Tx) Exists(key string) (bool, error) {
	n, err := t.tx.Exists(t.ctx, key).Result()
	if err != nil {
		return false, &readError{err: eris.Wrapf(err, "exists %s", key)}
	}
	return n > 0, nil
}

func (t *Tx) Put(key string, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "encode %s", key)
	}
	t.writes = append(t.writes, func(pipe redis.Pipeliner) error {
		return pipe.Set(t.ctx, key, bz, 0).Err()
	})
	return nil
}

func (t *Tx) Delete(keys ...string) {
	if len(keys) == 0 {
		return
	}
	t.writes = append(t.writes, func(pipe redis.Pipeliner) error {
		return pipe.Del(t.ctx, keys...).Err()
	})
}

func (t *Tx) Append(key string, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "encode %s", key)
	}
	t.writes = append(t.writes, func(pipe redis.Pipeliner) error {
		return pipe.RPush(t.ctx, key, bz).Err()
	})
	return nil
}

// Update runs fn as a conditional update over the watched keys. If any watched key changes
// before commit the whole callback runs again, so fn must derive every write from what it
// reads inside the callback. Errors returned by fn abort without retry and are returned as is,
// except failed reads through tx, which are retried like any other Redis error.
func (s *Store) Update(ctx context.Context, keys []string, fn func(tx *Tx) error) error {
	return s.retry(ctx, func() error {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			t := &Tx{ctx: ctx, tx: rtx}
			if err := fn(t); err != nil {
				return &callbackError{err: err}
			}
			if len(t.writes) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, write := range t.writes {
					if err := write(pipe); err != nil {
						return err
					}
				}
				return nil
			})
			return err
		}, keys...)

		var cbErr *callbackError
		var rdErr *readError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &rdErr):
			return rdErr.err
		case errors.As(err, &cbErr):
			return backoff.Permanent(cbErr.err)
		case errors.Is(err, redis.TxFailedErr):
			return ErrConflict
		default:
			return eris.Wrap(err, "conditional update")
		}
	})
}
