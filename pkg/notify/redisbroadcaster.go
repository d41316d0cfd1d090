// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/store"
)

// RedisBroadcaster publishes JSON events on the namespace pub/sub channels.
type RedisBroadcaster struct {
	store *store.Store
}

func NewRedisBroadcaster(st *store.Store) *RedisBroadcaster {
	return &RedisBroadcaster{store: st}
}

func (b *RedisBroadcaster) QueueChannel() string {
	return b.store.Key("events", "queue")
}

func (b *RedisBroadcaster) MatchChannel() string {
	return b.store.Key("events", "match")
}

func (b *RedisBroadcaster) PublishQueueDelta(scope *envelope.Scope, delta QueueDelta) error {
	return b.store.Publish(scope.Ctx, b.QueueChannel(), delta)
}

func (b *RedisBroadcaster) PublishMatchUpdate(scope *envelope.Scope, update MatchUpdate) error {
	return b.store.Publish(scope.Ctx, b.MatchChannel(), update)
}
