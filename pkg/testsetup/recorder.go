// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"sync"

	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/notify"
)

// RecordingNotifier keeps every notification and broadcast it receives. Err, when set, is
// returned from every call so best-effort handling can be tested.
type RecordingNotifier struct {
	Err error

	mu           sync.Mutex
	formed       []int64
	queueDeltas  []notify.QueueDelta
	matchUpdates []notify.MatchUpdate
}

func (r *RecordingNotifier) NotifyMatchFormed(scope *envelope.Scope, matchID int64, channels models.ChannelPair, teamA, teamB []models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formed = append(r.formed, matchID)
	return r.Err
}

func (r *RecordingNotifier) PublishQueueDelta(scope *envelope.Scope, delta notify.QueueDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueDeltas = append(r.queueDeltas, delta)
	return r.Err
}

func (r *RecordingNotifier) PublishMatchUpdate(scope *envelope.Scope, update notify.MatchUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchUpdates = append(r.matchUpdates, update)
	return r.Err
}

func (r *RecordingNotifier) Formed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64{}, r.formed...)
}

func (r *RecordingNotifier) QueueDeltas() []notify.QueueDelta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.QueueDelta{}, r.queueDeltas...)
}

func (r *RecordingNotifier) MatchUpdates() []notify.MatchUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.MatchUpdate{}, r.matchUpdates...)
}

// Dispatcher wires the recorder as both notifier and broadcaster.
func (r *RecordingNotifier) Dispatcher() *notify.Dispatcher {
	return notify.NewDispatcher(r, r)
}
