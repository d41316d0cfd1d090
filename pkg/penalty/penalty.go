// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package penalty tallies report based accusations and keeps the penalty state of rating profiles.
package penalty

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/mathutil"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/profile"
)

type Options struct {
	SameTeamThreshold          int
	TotalThreshold             int
	TimeoutPerPoint            time.Duration
	RatingDeductionPerPoint    int
	BanThreshold               int
	ReliefMatchesPerCorrection int
	MaxAttempts                int
}

type Engine struct {
	profiles profile.Service
	clock    clockwork.Clock
	opts     Options
}

func NewEngine(profiles profile.Service, clock clockwork.Clock, opts Options) *Engine {
	return &Engine{profiles: profiles, clock: clock, opts: opts}
}

// Punishable reports whether a tally crosses either accusation threshold.
func (o Options) Punishable(t Tally) bool {
	return t.SameTeam >= o.SameTeamThreshold || t.Total >= o.TotalThreshold
}

// Apply adds one penalty point to p at now: the timeout and the rating deduction both scale
// with the resulting effective penalty.
func (o Options) Apply(p *models.RatingProfile, now time.Time) {
	p.PenaltyCount++
	p.LastPenaltyAt = now
	effective := p.EffectivePenalty()
	p.PenaltyTimeoutUntil = now.Add(time.Duration(effective) * o.TimeoutPerPoint)
	p.Rating = mathutil.FloorZero(p.Rating-effective*o.RatingDeductionPerPoint)
}

// CheckJoin returns ErrPenaltyBlocked when p may not queue at now.
func (o Options) CheckJoin(p models.RatingProfile, now time.Time) error {
	switch {
	case p.Banned:
		return fmt.Errorf("player %s is banned: %w", p.PlayerID, models.ErrPenaltyBlocked)
	case p.EffectivePenalty() >= o.BanThreshold:
		return fmt.Errorf("player %s has effective penalty %d: %w", p.PlayerID, p.EffectivePenalty(), models.ErrPenaltyBlocked)
	case now.Before(p.PenaltyTimeoutUntil):
		return fmt.Errorf("player %s is timed out until %s: %w", p.PlayerID, p.PenaltyTimeoutUntil.Format(time.RFC3339), models.ErrPenaltyBlocked)
	}
	return nil
}

// Relief raises the correction to floor(matchesPlayed / ReliefMatchesPerCorrection). It never lowers it.
func (o Options) Relief(p *models.RatingProfile, matchesPlayed int) bool {
	if o.ReliefMatchesPerCorrection <= 0 {
		return false
	}
	correction := matchesPlayed / o.ReliefMatchesPerCorrection
	if correction <= p.PenaltyCorrection {
		return false
	}
	p.PenaltyCorrection = correction
	return true
}

// ApplyPenalty penalizes the player once. When matchID is set a second call for the same match
// is a no-op.
func (e *Engine) ApplyPenalty(rootScope *envelope.Scope, playerID string, reason string, matchID int64) (models.RatingProfile, bool, error) {
	scope := rootScope.NewChildScope("penalty.ApplyPenalty")
	defer scope.Finish()

	applied := false
	now := e.clock.Now().UTC()
	p, err := profile.Mutate(scope, e.profiles, playerID, e.opts.MaxAttempts, func(p *models.RatingProfile) (bool, error) {
		applied = false
		if matchID != 0 && p.LastPenaltyMatchID == matchID {
			return false, nil
		}
		e.opts.Apply(p, now)
		if matchID != 0 {
			p.LastPenaltyMatchID = matchID
		}
		applied = true
		return true, nil
	})
	if err != nil {
		return p, false, err
	}

	if applied {
		scope.Log.WithFields(logrus.Fields{
			"playerID":         playerID,
			"matchID":          matchID,
			"reason":           reason,
			"penaltyCount":     p.PenaltyCount,
			"effectivePenalty": p.EffectivePenalty(),
			"timeoutUntil":     p.PenaltyTimeoutUntil,
			"rating":           p.Rating,
		}).Info("penalty applied")
	}
	return p, applied, nil
}

// CanJoinQueue fails with ErrPenaltyBlocked if the player is banned, has reached the ban
// threshold or is still timed out.
func (e *Engine) CanJoinQueue(rootScope *envelope.Scope, playerID string) error {
	scope := rootScope.NewChildScope("penalty.CanJoinQueue")
	defer scope.Finish()

	p, err := e.profiles.GetRatingProfile(scope, playerID)
	if err != nil {
		return err
	}
	return e.opts.CheckJoin(p, e.clock.Now())
}

// ReducePenaltyByMatches grants the correction earned by matchesPlayed.
func (e *Engine) ReducePenaltyByMatches(rootScope *envelope.Scope, playerID string, matchesPlayed int) (models.RatingProfile, error) {
	scope := rootScope.NewChildScope("penalty.ReducePenaltyByMatches")
	defer scope.Finish()

	return profile.Mutate(scope, e.profiles, playerID, e.opts.MaxAttempts, func(p *models.RatingProfile) (bool, error) {
		return e.opts.Relief(p, matchesPlayed), nil
	})
}

// ProcessReports penalizes every player whose accusations in match cross a threshold. Players are
// handled independently; a failure is logged and the remaining players are still processed.
func (e *Engine) ProcessReports(rootScope *envelope.Scope, match models.MatchRecord) (penalized []string, err error) {
	scope := rootScope.NewChildScope("penalty.ProcessReports")
	defer scope.Finish()
	scope.SetAttributes(envelope.MatchIDTag, match.MatchID)

	var firstErr error
	for _, tally := range TallyAccusations(match) {
		if !e.opts.Punishable(tally) {
			continue
		}
		_, applied, applyErr := e.ApplyPenalty(scope, tally.PlayerID, reasonFor(tally), match.MatchID)
		if applyErr != nil {
			scope.Log.WithError(applyErr).WithFields(logrus.Fields{
				"playerID": tally.PlayerID,
				"matchID":  match.MatchID,
			}).Warn("failed to apply penalty")
			if firstErr == nil {
				firstErr = applyErr
			}
			continue
		}
		if applied {
			penalized = append(penalized, tally.PlayerID)
		}
	}
	return penalized, firstErr
}
