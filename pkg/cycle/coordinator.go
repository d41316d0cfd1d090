// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package cycle runs one matchmaking cycle: lock, resolve ongoing matches, form new ones, unlock.
package cycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/judge"
	"github.com/AccelByte/extend-ranked-queue/pkg/lifecycle"
	"github.com/AccelByte/extend-ranked-queue/pkg/matchmaker"
	"github.com/AccelByte/extend-ranked-queue/pkg/metrics"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/profile"
	"github.com/AccelByte/extend-ranked-queue/pkg/queue"
)

type Options struct {
	Namespace string
	LockLease time.Duration
}

type Coordinator struct {
	queue     *queue.Repository
	judge     *judge.Judge
	lifecycle *lifecycle.Manager
	profiles  profile.Service
	engine    matchmaker.MatchLogic
	metrics   metrics.QueueMetrics
	clock     clockwork.Clock
	opts      Options
}

func NewCoordinator(
	repo *queue.Repository,
	j *judge.Judge,
	manager *lifecycle.Manager,
	profiles profile.Service,
	engine matchmaker.MatchLogic,
	metrics metrics.QueueMetrics,
	clock clockwork.Clock,
	opts Options,
) *Coordinator {
	return &Coordinator{
		queue:     repo,
		judge:     j,
		lifecycle: manager,
		profiles:  profiles,
		engine:    engine,
		metrics:   metrics,
		clock:     clock,
		opts:      opts,
	}
}

// RunCycle takes the cycle lock, resolves every ongoing match, then forms as many matches as the
// queue permits. The lock is released on every path once taken. ErrLocked is returned without
// touching queue or match state when another cycle holds the lock.
func (c *Coordinator) RunCycle(rootScope *envelope.Scope) (summary Summary, err error) {
	scope := rootScope.NewChildScope(constants.RunCycleFunction)
	defer scope.Finish()

	start := c.clock.Now().UTC()
	summary = Summary{
		Timestamp: start,
		Namespace: c.opts.Namespace,
		HolderID:  ulid.MustNew(ulid.Timestamp(start), ulid.DefaultEntropy()).String(),
	}

	meta, err := c.queue.AcquireLock(scope, summary.HolderID, c.opts.LockLease)
	if err != nil {
		if errors.Is(err, models.ErrLocked) {
			c.metrics.AddCycleSkip(c.opts.Namespace, constants.SkipReasonLocked)
			scope.Log.Debug("cycle skipped, lock held")
		} else {
			c.metrics.AddCycleSkip(c.opts.Namespace, constants.SkipReasonStoreError)
			scope.Log.WithError(err).Error("cycle skipped, failed to acquire lock")
		}
		return summary, err
	}
	defer func() {
		releaseScope := scope.Detached("cycle.ReleaseLock")
		defer releaseScope.Finish()
		if releaseErr := c.queue.ReleaseLock(releaseScope, summary.HolderID); releaseErr != nil {
			releaseScope.Log.WithError(releaseErr).WithField("holderID", summary.HolderID).Error("failed to release cycle lock")
			if err == nil {
				err = releaseErr
			}
		}
	}()

	summary.CycleID = meta.Counters.Cycles
	summary.Ascending = meta.Counters.Cycles%2 == 1
	scope.SetAttributes(envelope.CycleTag, summary.CycleID)

	err = c.resolve(scope, meta.Matches.Ongoing, &summary)
	if err == nil {
		err = c.makeMatches(scope, &summary)
	}
	if err != nil {
		c.metrics.AddCycleSkip(c.opts.Namespace, constants.SkipReasonStoreError)
		scope.RecordError(err)
		scope.Log.WithError(err).WithFields(summary.fields()).Error("cycle aborted")
		return summary, err
	}

	c.reportGauges(scope)
	summary.Elapsed = c.clock.Since(start)
	c.metrics.AddCycleElapsedTimeMs(c.opts.Namespace, constants.RunCycleFunction, summary.Elapsed)
	scope.Log.WithFields(summary.fields()).Info("cycle done")
	return summary, nil
}

// resolve runs the result aggregator over the ongoing matches. A match whose settlement is
// incomplete stays ongoing and is picked up again by the next cycle. Failing to read or close a
// match aborts the cycle.
func (c *Coordinator) resolve(rootScope *envelope.Scope, ongoing []int64, summary *Summary) error {
	scope := rootScope.NewChildScope(constants.ResolveFunction)
	defer scope.Finish()
	start := c.clock.Now()

	for _, matchID := range ongoing {
		summary.OngoingChecked++
		res, err := c.judge.Process(scope, matchID)
		if res.Resolved {
			summary.MatchesResolved++
		}
		if res.Released {
			summary.MatchesReleased++
		}
		summary.Penalized += len(res.Penalized)

		switch {
		case err == nil:
		case errors.Is(err, judge.ErrSettlementIncomplete):
			summary.SettleErrors++
			scope.Log.WithError(err).WithField("matchID", matchID).Warn("failed to settle match, retrying next cycle")
		case errors.Is(err, models.ErrNotFound):
			summary.SettleErrors++
			scope.Log.WithField("matchID", matchID).Error("ongoing match has no record")
		default:
			return fmt.Errorf("resolve match %d: %w", matchID, err)
		}
	}

	c.metrics.AddCycleElapsedTimeMs(c.opts.Namespace, constants.ResolveFunction, c.clock.Since(start))
	return nil
}

func (c *Coordinator) makeMatches(rootScope *envelope.Scope, summary *Summary) error {
	scope := rootScope.NewChildScope(constants.CreateMatchFunction)
	defer scope.Finish()
	start := c.clock.Now()

	entries, err := c.queue.ListEntries(scope)
	if err != nil {
		return err
	}

	candidates := make([]matchmaker.Candidate, 0, len(entries))
	for _, entry := range entries {
		p, err := c.profiles.GetRatingProfile(scope, entry.PlayerID)
		if err != nil {
			scope.Log.WithError(err).WithField("playerID", entry.PlayerID).Warn("failed to load rating, player skipped this cycle")
			continue
		}
		candidates = append(candidates, matchmaker.CandidateFromEntry(entry, p.Rating, p.PeakRating))
	}
	summary.Candidates = len(candidates)

	result := c.engine.MakeMatches(scope, matchmaker.OrderByRating(candidates, !summary.Ascending))
	summary.Leftover = len(result.Leftover)
	summary.UnmatchedReason = result.UnmatchedReason
	if result.UnmatchedReason != "" {
		c.metrics.AddUnmatchedReason(c.opts.Namespace, result.UnmatchedReason)
	}

	for i, match := range result.Matches {
		_, err := c.lifecycle.CreateMatch(scope, match.TeamA, match.TeamB)
		switch {
		case errors.Is(err, models.ErrResourceExhausted):
			summary.ResourceErrors++
			summary.Leftover += constants.MatchSize * (len(result.Matches) - i)
			c.metrics.AddCycleSkip(c.opts.Namespace, constants.SkipReasonResourceExhausted)
			scope.Log.WithFields(logrus.Fields{
				"formed":  summary.MatchesFormed,
				"pending": len(result.Matches) - i,
			}).Error("channel pool exhausted, remaining players stay queued")
			c.metrics.AddMatchesFormed(c.opts.Namespace, summary.MatchesFormed)
			return nil
		case err != nil:
			c.metrics.AddMatchesFormed(c.opts.Namespace, summary.MatchesFormed)
			return err
		}
		summary.MatchesFormed++
	}

	c.metrics.AddMatchesFormed(c.opts.Namespace, summary.MatchesFormed)
	c.metrics.AddCycleElapsedTimeMs(c.opts.Namespace, constants.CreateMatchFunction, c.clock.Since(start))
	return nil
}

func (c *Coordinator) reportGauges(scope *envelope.Scope) {
	snapshot, err := c.queue.Snapshot(scope)
	if err != nil {
		scope.Log.WithError(err).Warn("failed to read queue snapshot for metrics")
		return
	}
	for _, role := range models.Roles {
		c.metrics.SetWaitingPlayers(c.opts.Namespace, string(role), snapshot.PerRoleCounts[role])
	}
	c.metrics.SetOngoingMatches(c.opts.Namespace, snapshot.OngoingMatchCount)
}
