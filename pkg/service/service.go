// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package service exposes the ranked queue operations to callers: players, operators and the scheduler.
package service

import (
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/config"
	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/cycle"
	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/history"
	"github.com/AccelByte/extend-ranked-queue/pkg/judge"
	"github.com/AccelByte/extend-ranked-queue/pkg/lifecycle"
	"github.com/AccelByte/extend-ranked-queue/pkg/matchmaker"
	"github.com/AccelByte/extend-ranked-queue/pkg/metrics"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/notify"
	"github.com/AccelByte/extend-ranked-queue/pkg/penalty"
	"github.com/AccelByte/extend-ranked-queue/pkg/profile"
	"github.com/AccelByte/extend-ranked-queue/pkg/queue"
	"github.com/AccelByte/extend-ranked-queue/pkg/rating"
	"github.com/AccelByte/extend-ranked-queue/pkg/store"
)

type Service struct {
	queue       *queue.Repository
	penalties   *penalty.Engine
	judge       *judge.Judge
	lifecycle   *lifecycle.Manager
	coordinator *cycle.Coordinator
	history     *history.Recorder
	profiles    profile.Service
	dispatcher  *notify.Dispatcher
	clock       clockwork.Clock
}

// Collaborators are the external services the queue talks to. Any of them may be nil except
// Metrics; a nil Profiles uses the Redis backed implementation.
type Collaborators struct {
	Profiles    profile.Service
	Notifier    notify.Notifier
	Broadcaster notify.Broadcaster
	Metrics     metrics.QueueMetrics
	Clock       clockwork.Clock
}

// New wires every component on top of one Redis client.
func New(cfg *config.Config, client redis.UniversalClient, collab Collaborators) *Service {
	clock := collab.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	st := store.New(client, cfg.Namespace, cfg.StoreMaxAttempts)
	profiles := collab.Profiles
	if profiles == nil {
		profiles = profile.NewRedisService(st, cfg.DefaultRating)
	}
	dispatcher := notify.NewDispatcher(collab.Notifier, collab.Broadcaster)

	repo := queue.NewRepository(st, clock, queue.Options{
		ChannelBase:  cfg.ChannelBase,
		ChannelPairs: cfg.ChannelPairs,
	})
	manager := lifecycle.NewManager(st, repo, profiles, dispatcher, clock, cfg.StoreMaxAttempts)
	penalties := penalty.NewEngine(profiles, clock, penalty.Options{
		SameTeamThreshold:          cfg.SameTeamAccusationThreshold,
		TotalThreshold:             cfg.TotalAccusationThreshold,
		TimeoutPerPoint:            cfg.PenaltyTimeout(),
		RatingDeductionPerPoint:    cfg.PenaltyRatingDeduction,
		BanThreshold:               cfg.PenaltyBanThreshold,
		ReliefMatchesPerCorrection: cfg.ReliefMatchesPerCorrection,
		MaxAttempts:                cfg.StoreMaxAttempts,
	})
	calculator := rating.NewCalculator(rating.Options{
		KFactor:          cfg.EloKFactor,
		PlacementMatches: cfg.PlacementMatches,
		PlacementBonus:   cfg.PlacementBonus,
	})
	recorder := history.NewRecorder(st)
	j := judge.New(manager, profiles, recorder, penalties, calculator, dispatcher, collab.Metrics, clock, judge.Options{
		Namespace:   cfg.Namespace,
		Quorum:      cfg.ReportQuorum,
		MaxAttempts: cfg.StoreMaxAttempts,
	})
	coordinator := cycle.NewCoordinator(repo, j, manager, profiles, matchmaker.NewEngine(), collab.Metrics, clock, cycle.Options{
		Namespace: cfg.Namespace,
		LockLease: cfg.LockLease(),
	})

	return &Service{
		queue:       repo,
		penalties:   penalties,
		judge:       j,
		lifecycle:   manager,
		coordinator: coordinator,
		history:     recorder,
		profiles:    profiles,
		dispatcher:  dispatcher,
		clock:       clock,
	}
}

// Bootstrap creates the MetaRecord on first start.
func (s *Service) Bootstrap(rootScope *envelope.Scope) error {
	scope := rootScope.NewChildScope("service.Bootstrap")
	defer scope.Finish()

	created, err := s.queue.EnsureMeta(scope)
	if err != nil {
		return err
	}
	if created {
		scope.Log.Info("queue meta record created")
	}
	return nil
}

// JoinQueue validates the request, checks penalties and queues the player.
func (s *Service) JoinQueue(rootScope *envelope.Scope, req models.JoinRequest) (models.QueueSnapshot, error) {
	scope := rootScope.NewChildScope("service.JoinQueue")
	defer scope.Finish()

	req, err := req.Validate()
	if err != nil {
		return models.QueueSnapshot{}, err
	}
	scope.SetAttributes(envelope.PlayerIDTag, req.PlayerID)

	if err := s.penalties.CanJoinQueue(scope, req.PlayerID); err != nil {
		return models.QueueSnapshot{}, err
	}

	entry, snapshot, err := s.queue.Join(scope, req)
	if err != nil {
		return snapshot, err
	}

	scope.Log.WithFields(logrus.Fields{
		"playerID": entry.PlayerID,
		"roles":    entry.Roles,
		"waiting":  snapshot.TotalWaiting,
	}).Info("player joined queue")
	s.dispatcher.QueueDelta(scope, notify.QueueDelta{
		Kind:      constants.QueueDeltaJoin,
		PlayerIDs: []string{entry.PlayerID},
		Snapshot:  snapshot,
		At:        entry.EnqueuedAt,
	})
	return snapshot, nil
}

// LeaveQueue removes the player. Leaving when not queued succeeds.
func (s *Service) LeaveQueue(rootScope *envelope.Scope, playerID string) (models.QueueSnapshot, error) {
	scope := rootScope.NewChildScope("service.LeaveQueue")
	defer scope.Finish()

	_, snapshot, err := s.leave(scope, playerID, constants.QueueDeltaLeave)
	return snapshot, err
}

// RemoveFromQueue is the operator variant of LeaveQueue. It reports whether the player was queued.
func (s *Service) RemoveFromQueue(rootScope *envelope.Scope, playerID string) (bool, error) {
	scope := rootScope.NewChildScope("service.RemoveFromQueue")
	defer scope.Finish()

	removed, _, err := s.leave(scope, playerID, constants.QueueDeltaRemoved)
	return removed, err
}

func (s *Service) leave(scope *envelope.Scope, playerID string, kind string) (bool, models.QueueSnapshot, error) {
	scope.SetAttributes(envelope.PlayerIDTag, playerID)

	removed, snapshot, err := s.queue.Leave(scope, playerID)
	if err != nil || !removed {
		return removed, snapshot, err
	}

	scope.Log.WithFields(logrus.Fields{
		"playerID": playerID,
		"kind":     kind,
		"waiting":  snapshot.TotalWaiting,
	}).Info("player left queue")
	s.dispatcher.QueueDelta(scope, notify.QueueDelta{
		Kind:      kind,
		PlayerIDs: []string{playerID},
		Snapshot:  snapshot,
		At:        s.clock.Now().UTC(),
	})
	return removed, snapshot, nil
}

func (s *Service) SubmitReport(rootScope *envelope.Scope, req models.ReportRequest) error {
	_, err := s.judge.SubmitReport(rootScope, req)
	return err
}

// SubmitReportPayload accepts a loosely typed report body, legacy field names included.
func (s *Service) SubmitReportPayload(rootScope *envelope.Scope, matchID int64, playerID string, payload map[string]interface{}) error {
	req, err := models.ReportFromPayload(matchID, playerID, payload)
	if err != nil {
		return err
	}
	return s.SubmitReport(rootScope, req)
}

func (s *Service) GetQueueSnapshot(rootScope *envelope.Scope) (models.QueueSnapshot, error) {
	return s.queue.Snapshot(rootScope)
}

func (s *Service) RunCycle(rootScope *envelope.Scope) (cycle.Summary, error) {
	return s.coordinator.RunCycle(rootScope)
}

func (s *Service) CancelMatch(rootScope *envelope.Scope, matchID int64, reason string) (models.MatchRecord, error) {
	return s.lifecycle.CancelMatch(rootScope, matchID, reason)
}

func (s *Service) GetMatch(rootScope *envelope.Scope, matchID int64) (models.MatchRecord, error) {
	return s.lifecycle.GetMatch(rootScope, matchID)
}

func (s *Service) GetHistory(rootScope *envelope.Scope, playerID string, limit int) ([]models.HistoryRecord, error) {
	return s.history.List(rootScope, playerID, limit)
}

func (s *Service) GetRatingProfile(rootScope *envelope.Scope, playerID string) (models.RatingProfile, error) {
	return s.profiles.GetRatingProfile(rootScope, playerID)
}
