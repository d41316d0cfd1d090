// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package store is the typed adapter over the Redis key-value store. Every item is a JSON
// document; conditional updates use WATCH/MULTI so a concurrent writer aborts the
// transaction instead of being overwritten.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

const keySeparator = ":"

// ErrConflict is returned when a conditional update kept losing against concurrent writers.
var ErrConflict = errors.New("conditional update conflict")

type Store struct {
	client      redis.UniversalClient
	namespace   string
	maxAttempts int
}

func New(client redis.UniversalClient, namespace string, maxAttempts int) *Store {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Store{client: client, namespace: namespace, maxAttempts: maxAttempts}
}

func (s *Store) Client() redis.UniversalClient {
	return s.client
}

// Key builds a namespaced key.
func (s *Store) Key(parts ...string) string {
	return s.namespace + keySeparator + strings.Join(parts, keySeparator)
}

func (s *Store) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxAttempts-1)), ctx)
}

// retry runs op with bounded attempts. Errors wrapped with backoff.Permanent stop immediately.
func (s *Store) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(op, s.newBackOff(ctx))
}

// Get decodes the item at key into out. It returns models.ErrNotFound when the key is absent.
func (s *Store) Get(ctx context.Context, key string, out interface{}) error {
	return s.retry(ctx, func() error {
		bz, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return backoff.Permanent(models.ErrNotFound)
		}
		if err != nil {
			return eris.Wrapf(err, "get %s", key)
		}
		if err := json.Unmarshal(bz, out); err != nil {
			return backoff.Permanent(eris.Wrapf(err, "decode %s", key))
		}
		return nil
	})
}

// Put writes the item unconditionally. Only use it for items with a single writer.
func (s *Store) Put(ctx context.Context, key string, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "encode %s", key)
	}
	return s.retry(ctx, func() error {
		return eris.Wrapf(s.client.Set(ctx, key, bz, 0).Err(), "set %s", key)
	})
}

// PutIfAbsent writes the item only when key does not exist yet.
func (s *Store) PutIfAbsent(ctx context.Context, key string, v interface{}) (created bool, err error) {
	bz, err := json.Marshal(v)
	if err != nil {
		return false, eris.Wrapf(err, "encode %s", key)
	}
	err = s.retry(ctx, func() error {
		created, err = s.client.SetNX(ctx, key, bz, 0).Result()
		return eris.Wrapf(err, "setnx %s", key)
	})
	return created, err
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.retry(ctx, func() error {
		return eris.Wrap(s.client.Del(ctx, keys...).Err(), "del")
	})
}

// Append pushes v at the tail of the list at key.
func (s *Store) Append(ctx context.Context, key string, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "encode %s", key)
	}
	return s.retry(ctx, func() error {
		return eris.Wrapf(s.client.RPush(ctx, key, bz).Err(), "rpush %s", key)
	})
}

// Range decodes list items in [start, stop] (redis LRANGE semantics, negative indexes count
// from the tail) and hands each one to decode.
func (s *Store) Range(ctx context.Context, key string, start, stop int64, decode func(raw []byte) error) error {
	var items []string
	err := s.retry(ctx, func() (err error) {
		items, err = s.client.LRange(ctx, key, start, stop).Result()
		return eris.Wrapf(err, "lrange %s", key)
	})
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := decode([]byte(item)); err != nil {
			return eris.Wrapf(err, "decode %s", key)
		}
	}
	return nil
}

// GetMany decodes every existing key, calling decode with the key and its raw value.
// Missing keys are skipped.
func (s *Store) GetMany(ctx context.Context, keys []string, decode func(key string, raw []byte) error) error {
	if len(keys) == 0 {
		return nil
	}
	var values []interface{}
	err := s.retry(ctx, func() (err error) {
		values, err = s.client.MGet(ctx, keys...).Result()
		return eris.Wrap(err, "mget")
	})
	if err != nil {
		return err
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if err := decode(keys[i], []byte(raw)); err != nil {
			return eris.Wrapf(err, "decode %s", keys[i])
		}
	}
	return nil
}

// Publish sends a message on a pub/sub channel.
func (s *Store) Publish(ctx context.Context, channel string, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "encode %s", channel)
	}
	return eris.Wrapf(s.client.Publish(ctx, channel, bz).Err(), "publish %s", channel)
}
