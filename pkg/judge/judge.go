// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package judge collects result reports and resolves matches once the report quorum is reached.
package judge

import (
	"errors"
	"fmt"

	"github.com/go-openapi/swag"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/history"
	"github.com/AccelByte/extend-ranked-queue/pkg/lifecycle"
	"github.com/AccelByte/extend-ranked-queue/pkg/mathutil"
	"github.com/AccelByte/extend-ranked-queue/pkg/metrics"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/notify"
	"github.com/AccelByte/extend-ranked-queue/pkg/penalty"
	"github.com/AccelByte/extend-ranked-queue/pkg/profile"
	"github.com/AccelByte/extend-ranked-queue/pkg/rating"
)

// ErrSettlementIncomplete wraps per-player failures while settling a done match. The match
// stays ongoing and a later Process call completes it. Any other error from Process is a
// failure to read or write the match itself.
var ErrSettlementIncomplete = errors.New("settlement incomplete")

type Options struct {
	Namespace   string
	Quorum      int
	MaxAttempts int
}

type Judge struct {
	lifecycle  *lifecycle.Manager
	profiles   profile.Service
	history    *history.Recorder
	penalties  *penalty.Engine
	calculator *rating.Calculator
	dispatcher *notify.Dispatcher
	metrics    metrics.QueueMetrics
	clock      clockwork.Clock
	opts       Options
}

func New(
	manager *lifecycle.Manager,
	profiles profile.Service,
	recorder *history.Recorder,
	penalties *penalty.Engine,
	calculator *rating.Calculator,
	dispatcher *notify.Dispatcher,
	metrics metrics.QueueMetrics,
	clock clockwork.Clock,
	opts Options,
) *Judge {
	return &Judge{
		lifecycle:  manager,
		profiles:   profiles,
		history:    recorder,
		penalties:  penalties,
		calculator: calculator,
		dispatcher: dispatcher,
		metrics:    metrics,
		clock:      clock,
		opts:       opts,
	}
}

// Resolution describes what one Process call did to a match.
type Resolution struct {
	MatchID int64
	Outcome models.Outcome
	// Resolved is set when this call moved the match to done.
	Resolved  bool
	Released  bool
	Penalized []string
}

// SubmitReport appends the player's report to an open match.
func (j *Judge) SubmitReport(rootScope *envelope.Scope, req models.ReportRequest) (models.MatchRecord, error) {
	scope := rootScope.NewChildScope("judge.SubmitReport")
	defer scope.Finish()

	req, err := req.Validate()
	if err != nil {
		return models.MatchRecord{}, err
	}
	scope.SetAttributes(envelope.MatchIDTag, req.MatchID)
	scope.SetAttributes(envelope.PlayerIDTag, req.PlayerID)

	now := j.clock.Now().UTC()
	record, err := j.lifecycle.UpdateMatch(scope, req.MatchID, func(record *models.MatchRecord) error {
		if record.IsDone() {
			return models.ErrMatchClosed
		}
		if record.TeamOf(req.PlayerID) == models.TeamNone {
			return fmt.Errorf("player %s, match %d: %w", req.PlayerID, req.MatchID, models.ErrNotInMatch)
		}
		if record.HasReported(req.PlayerID) {
			return models.ErrAlreadyReported
		}
		record.Reports = append(record.Reports, models.ResultReport{
			PlayerID:    req.PlayerID,
			Outcome:     req.Outcome,
			Accusations: req.Accusations,
			Reason:      req.Reason,
			Character:   req.Character,
			SubmittedAt: now,
		})
		return nil
	})
	if err != nil {
		return record, err
	}

	scope.Log.WithFields(logrus.Fields{
		"matchID":  req.MatchID,
		"playerID": req.PlayerID,
		"outcome":  req.Outcome,
		"reports":  len(record.Reports),
		"quorum":   j.QuorumReached(record),
	}).Info("report submitted")
	j.dispatcher.MatchUpdate(scope, notify.MatchUpdate{MatchID: req.MatchID, Kind: constants.MatchUpdateReport, At: now})
	return record, nil
}

func (j *Judge) QuorumReached(record models.MatchRecord) bool {
	return len(record.Reports) >= j.opts.Quorum
}

// Process resolves the match if it has reached the quorum, then applies ratings, penalties and
// relief and releases the match. Every step is idempotent per player, so calling Process again
// on a match whose post-processing failed half way completes it. The match stays ongoing until
// every player was handled; per-player failures come back wrapped in ErrSettlementIncomplete.
func (j *Judge) Process(rootScope *envelope.Scope, matchID int64) (Resolution, error) {
	scope := rootScope.NewChildScope("judge.Process")
	defer scope.Finish()
	scope.SetAttributes(envelope.MatchIDTag, matchID)

	res := Resolution{MatchID: matchID}
	record, err := j.lifecycle.GetMatch(scope, matchID)
	if err != nil {
		return res, err
	}

	if !record.IsDone() {
		if !j.QuorumReached(record) {
			return res, nil
		}
		outcome := ResolveOutcome(record.Reports, j.opts.Quorum)
		record, err = j.lifecycle.Finish(scope, matchID, outcome, "")
		switch {
		case errors.Is(err, models.ErrMatchClosed):
			scope.Log.WithField("matchID", matchID).Debug("match already resolved, completing settlement")
		case err != nil:
			return res, err
		default:
			res.Resolved = true
			j.announce(scope, record)
		}
	}
	res.Outcome = record.Outcome

	penalized, err := j.settle(scope, record)
	res.Penalized = penalized
	if err != nil {
		scope.RecordError(err)
		return res, fmt.Errorf("%w: match %d: %w", ErrSettlementIncomplete, matchID, err)
	}

	if err := j.lifecycle.Release(scope, record); err != nil {
		return res, err
	}
	res.Released = true
	return res, nil
}

func (j *Judge) announce(scope *envelope.Scope, record models.MatchRecord) {
	deciding := record.Reports
	if len(deciding) > j.opts.Quorum {
		deciding = deciding[:j.opts.Quorum]
	}
	counts := CountOutcomes(deciding)
	scope.Log.WithFields(logrus.Fields{
		"matchID":  record.MatchID,
		"outcome":  record.Outcome,
		"aWin":     counts.AWin,
		"bWin":     counts.BWin,
		"invalid":  counts.Invalid,
		"reports":  len(record.Reports),
		"duration": swag.TimeValue(record.ResolvedAt).Sub(record.CreatedAt).String(),
	}).Info("match resolved")

	j.metrics.AddMatchResolved(j.opts.Namespace, string(record.Outcome))
	j.dispatcher.MatchUpdate(scope, notify.MatchUpdate{
		MatchID: record.MatchID,
		Kind:    constants.MatchUpdateResolved,
		Outcome: record.Outcome,
		At:      swag.TimeValue(record.ResolvedAt),
	})
}

// settle applies the per-player effects of a done match. A failing player is logged and the
// others are still handled; the first failure is returned.
func (j *Judge) settle(scope *envelope.Scope, record models.MatchRecord) ([]string, error) {
	var errs []error
	var penalized []string

	if !record.IsCanceled() {
		if record.Outcome.Winner() != models.TeamNone {
			errs = append(errs, j.applyRatings(scope, record))
		}

		var err error
		penalized, err = j.penalties.ProcessReports(scope, record)
		errs = append(errs, err)
		for range penalized {
			j.metrics.AddPenaltyApplied(j.opts.Namespace)
		}
	}

	for _, playerID := range record.PlayerIDs() {
		if err := j.relieve(scope, playerID); err != nil {
			scope.Log.WithError(err).WithField("playerID", playerID).Warn("failed to apply penalty relief")
			errs = append(errs, err)
		}
	}

	for _, err := range errs {
		if err != nil {
			return penalized, err
		}
	}
	return penalized, nil
}

func (j *Judge) relieve(scope *envelope.Scope, playerID string) error {
	p, err := j.profiles.GetRatingProfile(scope, playerID)
	if err != nil {
		return err
	}
	_, err = j.penalties.ReducePenaltyByMatches(scope, playerID, p.Matches)
	return err
}

// applyRatings pairs the players holding the same roster index on opposite teams.
func (j *Judge) applyRatings(scope *envelope.Scope, record models.MatchRecord) error {
	winners, losers := record.TeamA, record.TeamB
	if record.Outcome.Winner() == models.TeamB {
		winners, losers = losers, winners
	}

	var firstErr error
	for i := range winners {
		pairs := [][2]models.TeamMember{{winners[i], losers[i]}, {losers[i], winners[i]}}
		for k, pair := range pairs {
			if err := j.applyResult(scope, record, pair[0], pair[1], k == 0); err != nil {
				scope.Log.WithError(err).WithFields(logrus.Fields{
					"playerID": pair[0].PlayerID,
					"matchID":  record.MatchID,
				}).Warn("failed to apply rating result")
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

func (j *Judge) delta(self, opponent models.TeamMember, win bool, matches int) int {
	if win {
		return j.calculator.Pair(self.Rating, opponent.Rating, matches).WinnerDelta
	}
	return j.calculator.Pair(opponent.Rating, self.Rating, 0).LoserDelta
}

// applyResult writes the history record first and the profile second. Both are keyed by the
// match id, so a retry after a partial failure neither duplicates the record nor the rating change.
func (j *Judge) applyResult(scope *envelope.Scope, record models.MatchRecord, self, opponent models.TeamMember, win bool) error {
	current, err := j.profiles.GetRatingProfile(scope, self.PlayerID)
	if err != nil {
		return err
	}
	if current.LastMatchID == record.MatchID {
		return nil
	}

	delta := j.delta(self, opponent, win, current.Matches)
	entry := models.HistoryRecord{
		PlayerID:     self.PlayerID,
		MatchID:      record.MatchID,
		Team:         record.TeamOf(self.PlayerID),
		Role:         self.Assignment.Role,
		RatingBefore: current.Rating,
		RatingAfter:  mathutil.FloorZero(current.Rating+delta),
		Delta:        delta,
		Win:          win,
		MatchAt:      swag.TimeValue(record.ResolvedAt),
	}
	if report, ok := record.ReportOf(self.PlayerID); ok {
		entry.Character = report.Character
	}
	if _, _, err := j.history.Append(scope, entry); err != nil {
		return err
	}

	updated, err := profile.Mutate(scope, j.profiles, self.PlayerID, j.opts.MaxAttempts, func(p *models.RatingProfile) (bool, error) {
		if p.LastMatchID == record.MatchID {
			return false, nil
		}
		p.RecordResult(record.MatchID, j.delta(self, opponent, win, p.Matches), win)
		return true, nil
	})
	if err != nil {
		return err
	}

	scope.Log.WithFields(logrus.Fields{
		"playerID": self.PlayerID,
		"matchID":  record.MatchID,
		"win":      win,
		"delta":    delta,
		"rating":   updated.Rating,
	}).Debug("rating applied")
	return nil
}
