// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/AccelByte/extend-ranked-queue/pkg/store"
)

const TestNamespace = "test"

// NewRedis starts an in-memory redis for the test and returns a store bound to it.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *store.Store) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, store.New(client, TestNamespace, 3)
}
