// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package notify holds the outbound collaborator contracts. Every delivery is best-effort:
// failures are logged and never abort the operation that triggered them.
package notify

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

// Notifier tells the ten players where to go once a match is formed.
type Notifier interface {
	NotifyMatchFormed(scope *envelope.Scope, matchID int64, channels models.ChannelPair, teamA, teamB []models.TeamMember) error
}

// Broadcaster pushes realtime queue and match events.
type Broadcaster interface {
	PublishQueueDelta(scope *envelope.Scope, delta QueueDelta) error
	PublishMatchUpdate(scope *envelope.Scope, update MatchUpdate) error
}

type QueueDelta struct {
	Kind      string               `json:"kind"`
	PlayerIDs []string             `json:"playerIDs"`
	Snapshot  models.QueueSnapshot `json:"snapshot"`
	At        time.Time            `json:"at"`
}

type MatchUpdate struct {
	MatchID int64          `json:"matchID"`
	Kind    string         `json:"kind"`
	Outcome models.Outcome `json:"outcome,omitempty"`
	At      time.Time      `json:"at"`
}

// Dispatcher fans events out to the configured collaborators. Both may be nil.
type Dispatcher struct {
	notifier    Notifier
	broadcaster Broadcaster
}

func NewDispatcher(notifier Notifier, broadcaster Broadcaster) *Dispatcher {
	return &Dispatcher{notifier: notifier, broadcaster: broadcaster}
}

func (d *Dispatcher) MatchFormed(scope *envelope.Scope, match models.MatchRecord) {
	if d == nil || d.notifier == nil {
		return
	}
	err := d.notifier.NotifyMatchFormed(scope, match.MatchID, match.Channels, match.TeamA, match.TeamB)
	if err != nil {
		scope.Log.WithError(err).WithField("matchID", match.MatchID).Warn("failed to notify match formed")
	}
}

func (d *Dispatcher) QueueDelta(scope *envelope.Scope, delta QueueDelta) {
	if d == nil || d.broadcaster == nil {
		return
	}
	if err := d.broadcaster.PublishQueueDelta(scope, delta); err != nil {
		scope.Log.WithError(err).WithFields(logrus.Fields{
			"kind":    delta.Kind,
			"players": len(delta.PlayerIDs),
		}).Warn("failed to publish queue delta")
	}
}

func (d *Dispatcher) MatchUpdate(scope *envelope.Scope, update MatchUpdate) {
	if d == nil || d.broadcaster == nil {
		return
	}
	if err := d.broadcaster.PublishMatchUpdate(scope, update); err != nil {
		scope.Log.WithError(err).WithFields(logrus.Fields{
			"matchID": update.MatchID,
			"kind":    update.Kind,
		}).Warn("failed to publish match update")
	}
}
