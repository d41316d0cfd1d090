// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package lifecycle creates match records, moves them to done and releases what they hold.
package lifecycle

import (
	"errors"
	"reflect"

	"github.com/go-openapi/swag"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/notify"
	"github.com/AccelByte/extend-ranked-queue/pkg/profile"
	"github.com/AccelByte/extend-ranked-queue/pkg/queue"
	"github.com/AccelByte/extend-ranked-queue/pkg/store"
)

const defaultCancelReason = "canceled by operator"

type Manager struct {
	store       *store.Store
	queue       *queue.Repository
	profiles    profile.Service
	dispatcher  *notify.Dispatcher
	clock       clockwork.Clock
	maxAttempts int
}

func NewManager(st *store.Store, repo *queue.Repository, profiles profile.Service, dispatcher *notify.Dispatcher, clock clockwork.Clock, maxAttempts int) *Manager {
	return &Manager{
		store:       st,
		queue:       repo,
		profiles:    profiles,
		dispatcher:  dispatcher,
		clock:       clock,
		maxAttempts: maxAttempts,
	}
}

// CreateMatch persists a formed match. The record, the queue removals and the meta registration
// commit together or not at all; ErrResourceExhausted means the channel pool is empty and nothing
// was written. Player match pointers are set afterwards with per-player retries.
func (m *Manager) CreateMatch(rootScope *envelope.Scope, teamA, teamB []models.TeamMember) (models.MatchRecord, error) {
	scope := rootScope.NewChildScope(constants.CreateMatchFunction)
	defer scope.Finish()

	now := m.clock.Now().UTC()
	playerIDs := models.MatchRecord{TeamA: teamA, TeamB: teamB}.PlayerIDs()
	record, err := m.queue.CommitMatch(scope, playerIDs, func(matchID int64, channels models.ChannelPair) models.MatchRecord {
		return models.MatchRecord{
			MatchID:   matchID,
			TeamA:     teamA,
			TeamB:     teamB,
			Channels:  channels,
			Status:    models.MatchStatusMatched,
			CreatedAt: now,
			Reports:   []models.ResultReport{},
		}
	})
	if err != nil {
		return models.MatchRecord{}, err
	}
	scope.SetAttributes(envelope.MatchIDTag, record.MatchID)

	for _, playerID := range playerIDs {
		_, err := profile.Mutate(scope, m.profiles, playerID, m.maxAttempts, func(p *models.RatingProfile) (bool, error) {
			if p.CurrentMatchID == record.MatchID {
				return false, nil
			}
			p.CurrentMatchID = record.MatchID
			return true, nil
		})
		if err != nil {
			scope.Log.WithError(err).WithFields(logrus.Fields{
				"playerID": playerID,
				"matchID":  record.MatchID,
			}).Warn("failed to set player match pointer")
		}
	}

	scope.Log.WithFields(logrus.Fields{
		"matchID":  record.MatchID,
		"channelA": record.Channels.TeamA,
		"channelB": record.Channels.TeamB,
	}).Info("match created")

	m.dispatcher.MatchFormed(scope, record)
	m.dispatcher.QueueDelta(scope, notify.QueueDelta{Kind: constants.QueueDeltaMatched, PlayerIDs: playerIDs, At: now})
	m.dispatcher.MatchUpdate(scope, notify.MatchUpdate{MatchID: record.MatchID, Kind: constants.MatchUpdateFormed, At: now})
	return record, nil
}

func (m *Manager) GetMatch(rootScope *envelope.Scope, matchID int64) (models.MatchRecord, error) {
	scope := rootScope.NewChildScope("lifecycle.GetMatch")
	defer scope.Finish()

	var record models.MatchRecord
	if err := m.store.Get(scope.Ctx, m.store.MatchKey(matchID), &record); err != nil {
		return models.MatchRecord{}, err
	}
	return record, nil
}

// UpdateMatch applies fn to the match record as a conditional update and returns the committed
// record. When fn returns an error, or leaves the record unchanged, nothing is written.
// Status transitions are logged with the before-image as an audit entry.
func (m *Manager) UpdateMatch(rootScope *envelope.Scope, matchID int64, fn func(record *models.MatchRecord) error) (models.MatchRecord, error) {
	scope := rootScope.NewChildScope("lifecycle.UpdateMatch")
	defer scope.Finish()

	key := m.store.MatchKey(matchID)
	var before, committed models.MatchRecord
	err := m.store.Update(scope.Ctx, []string{key}, func(tx *store.Tx) error {
		var record models.MatchRecord
		if err := tx.Get(key, &record); err != nil {
			return err
		}
		// fn may edit nested slices in place
		before = record.Copy()
		if err := fn(&record); err != nil {
			return err
		}
		committed = record
		if reflect.DeepEqual(before, record) {
			return nil
		}
		return tx.Put(key, record)
	})
	if err != nil {
		return committed, err
	}

	if before.Status != committed.Status {
		scope.Log.WithFields(logrus.Fields{
			"matchID":       matchID,
			"statusBefore":  before.Status,
			"statusAfter":   committed.Status,
			"outcomeBefore": before.Outcome,
			"outcomeAfter":  committed.Outcome,
			"reportsBefore": len(before.Reports),
			"reportsAfter":  len(committed.Reports),
			"cancelReason":  committed.CancelReason,
		}).Info("match status changed")
	}
	return committed, nil
}

// Finish moves the match to done with outcome. It returns ErrMatchClosed when the match was
// already done, together with the stored record.
func (m *Manager) Finish(rootScope *envelope.Scope, matchID int64, outcome models.Outcome, cancelReason string) (models.MatchRecord, error) {
	now := m.clock.Now().UTC()
	var closed models.MatchRecord
	record, err := m.UpdateMatch(rootScope, matchID, func(record *models.MatchRecord) error {
		if record.IsDone() {
			closed = *record
			return models.ErrMatchClosed
		}
		record.Status = models.MatchStatusDone
		record.Outcome = outcome
		record.ResolvedAt = swag.Time(now)
		record.CancelReason = cancelReason
		return nil
	})
	if errors.Is(err, models.ErrMatchClosed) {
		return closed, err
	}
	return record, err
}

// Release clears the players' match pointers that still point at this match, then returns the
// channel pair and leaves the ongoing set. Leaving the ongoing set comes last so an interrupted
// release is picked up again by the next cycle.
func (m *Manager) Release(rootScope *envelope.Scope, record models.MatchRecord) error {
	scope := rootScope.NewChildScope("lifecycle.Release")
	defer scope.Finish()
	scope.SetAttributes(envelope.MatchIDTag, record.MatchID)

	for _, playerID := range record.PlayerIDs() {
		_, err := profile.Mutate(scope, m.profiles, playerID, m.maxAttempts, func(p *models.RatingProfile) (bool, error) {
			if p.CurrentMatchID != record.MatchID {
				return false, nil
			}
			p.CurrentMatchID = 0
			return true, nil
		})
		if err != nil {
			scope.Log.WithError(err).WithFields(logrus.Fields{
				"playerID": playerID,
				"matchID":  record.MatchID,
			}).Warn("failed to clear player match pointer")
		}
	}

	released, err := m.queue.ReleaseMatch(scope, record)
	if err != nil {
		return err
	}
	scope.Log.WithFields(logrus.Fields{
		"matchID":  record.MatchID,
		"released": released,
	}).Debug("match resources released")
	return nil
}

// CancelMatch forces the match to done with an invalid outcome and releases it. Ratings and
// penalties are skipped. Cancelling an already cancelled match only repeats the release.
func (m *Manager) CancelMatch(rootScope *envelope.Scope, matchID int64, reason string) (models.MatchRecord, error) {
	scope := rootScope.NewChildScope("lifecycle.CancelMatch")
	defer scope.Finish()
	scope.SetAttributes(envelope.MatchIDTag, matchID)

	if reason == "" {
		reason = defaultCancelReason
	}
	record, err := m.Finish(scope, matchID, models.OutcomeInvalid, reason)
	if errors.Is(err, models.ErrMatchClosed) && record.IsCanceled() {
		err = nil
	}
	if err != nil {
		return record, err
	}

	if err := m.Release(scope, record); err != nil {
		return record, err
	}

	scope.Log.WithFields(logrus.Fields{
		"matchID": matchID,
		"reason":  record.CancelReason,
	}).Info("match canceled")
	m.dispatcher.MatchUpdate(scope, notify.MatchUpdate{
		MatchID: matchID,
		Kind:    constants.MatchUpdateCanceled,
		Outcome: record.Outcome,
		At:      m.clock.Now().UTC(),
	})
	return record, nil
}
