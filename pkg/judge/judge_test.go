// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package judge

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/history"
	"github.com/AccelByte/extend-ranked-queue/pkg/lifecycle"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/penalty"
	"github.com/AccelByte/extend-ranked-queue/pkg/profile"
	"github.com/AccelByte/extend-ranked-queue/pkg/queue"
	"github.com/AccelByte/extend-ranked-queue/pkg/rating"
	"github.com/AccelByte/extend-ranked-queue/pkg/testsetup"
)

type fixture struct {
	judge    *Judge
	manager  *lifecycle.Manager
	repo     *queue.Repository
	profiles *profile.RedisService
	history  *history.Recorder
	recorder *testsetup.RecordingNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	_, st := testsetup.NewRedis(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC))
	repo := queue.NewRepository(st, clock, queue.Options{ChannelBase: 1, ChannelPairs: 2})
	profiles := profile.NewRedisService(st, 1000)
	recorder := &testsetup.RecordingNotifier{}
	dispatcher := recorder.Dispatcher()
	manager := lifecycle.NewManager(st, repo, profiles, dispatcher, clock, 3)
	penalties := penalty.NewEngine(profiles, clock, penalty.Options{
		SameTeamThreshold:          constants.DefaultSameTeamAccusationThreshold,
		TotalThreshold:             constants.DefaultTotalAccusationThreshold,
		TimeoutPerPoint:            30 * time.Minute,
		RatingDeductionPerPoint:    4,
		BanThreshold:               6,
		ReliefMatchesPerCorrection: 50,
		MaxAttempts:                3,
	})
	calculator := rating.NewCalculator(rating.Options{
		KFactor:          constants.DefaultEloKFactor,
		PlacementMatches: constants.DefaultPlacementMatches,
		PlacementBonus:   constants.DefaultPlacementBonus,
	})
	recorderHistory := history.NewRecorder(st)
	j := New(manager, profiles, recorderHistory, penalties, calculator, dispatcher, testsetup.NewMetrics(), clock, Options{
		Namespace:   testsetup.TestNamespace,
		Quorum:      constants.DefaultReportQuorum,
		MaxAttempts: 3,
	})
	return fixture{
		judge:    j,
		manager:  manager,
		repo:     repo,
		profiles: profiles,
		history:  recorderHistory,
		recorder: recorder,
	}
}

// createMatch queues a0..a4 against b0..b4, team members holding the role of their index.
func (f fixture) createMatch(t *testing.T, ratingA, ratingB int) models.MatchRecord {
	t.Helper()
	var teamA, teamB []models.TeamMember
	for i, role := range models.Roles {
		for _, member := range []struct {
			id     string
			slot   int
			rating int
		}{{fmt.Sprintf("a%d", i), 0, ratingA}, {fmt.Sprintf("b%d", i), 1, ratingB}} {
			_, _, err := f.repo.Join(testsetup.NewTestScope(), models.JoinRequest{PlayerID: member.id, Roles: models.Roles})
			require.NoError(t, err)
			tm := models.TeamMember{
				PlayerID:   member.id,
				Assignment: models.RoleAssignment{Role: role, SlotIndex: member.slot},
				Rating:     member.rating,
				PeakRating: member.rating,
			}
			if member.slot == 0 {
				teamA = append(teamA, tm)
			} else {
				teamB = append(teamB, tm)
			}
		}
	}
	record, err := f.manager.CreateMatch(testsetup.NewTestScope(), teamA, teamB)
	require.NoError(t, err)
	return record
}

func (f fixture) report(t *testing.T, matchID int64, playerID string, outcome models.Outcome, accusations ...string) {
	t.Helper()
	_, err := f.judge.SubmitReport(testsetup.NewTestScope(), models.ReportRequest{
		MatchID:     matchID,
		PlayerID:    playerID,
		Outcome:     outcome,
		Accusations: accusations,
	})
	require.NoError(t, err)
}

func reports(outcomes ...models.Outcome) []models.ResultReport {
	out := make([]models.ResultReport, 0, len(outcomes))
	for i, o := range outcomes {
		out = append(out, models.ResultReport{PlayerID: fmt.Sprintf("p%d", i), Outcome: o})
	}
	return out
}

func repeat(o models.Outcome, n int) []models.Outcome {
	out := make([]models.Outcome, n)
	for i := range out {
		out[i] = o
	}
	return out
}

func TestResolveOutcome(t *testing.T) {
	a, b, i := models.OutcomeAWin, models.OutcomeBWin, models.OutcomeInvalid
	join := func(parts ...[]models.Outcome) []models.Outcome {
		var out []models.Outcome
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	tests := []struct {
		name     string
		outcomes []models.Outcome
		want     models.Outcome
	}{
		{"5 A 2 invalid", join(repeat(a, 5), repeat(i, 2)), a},
		{"3 A 3 B 1 invalid", join(repeat(a, 3), repeat(b, 3), repeat(i, 1)), i},
		{"4 A 2 B 1 invalid", join(repeat(a, 4), repeat(b, 2), repeat(i, 1)), a},
		{"4 A 1 B 2 invalid", join(repeat(a, 4), repeat(b, 1), repeat(i, 2)), a},
		{"3 A 1 B 3 invalid", join(repeat(a, 3), repeat(b, 1), repeat(i, 3)), i},
		{"5 B 2 A", join(repeat(b, 5), repeat(a, 2)), b},
		{"4 B 3 invalid", join(repeat(b, 4), repeat(i, 3)), b},
		{"all invalid", repeat(i, 7), i},
		{"late reports are ignored", join(repeat(a, 4), repeat(b, 3), repeat(b, 3)), a},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveOutcome(reports(tt.outcomes...), constants.DefaultReportQuorum), tt.name)
	}
}

func TestSubmitReport(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	match := f.createMatch(t, 1000, 1000)

	record, err := f.judge.SubmitReport(g.TestScope, models.ReportRequest{
		MatchID:     match.MatchID,
		PlayerID:    "a1",
		Outcome:     "teamA",
		Accusations: []string{" a0 ", "a1", "a0", ""},
		Character:   "ranger",
	})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(record.Reports).To(HaveLen(1))
	g.Expect(record.Reports[0].Outcome).To(Equal(models.OutcomeAWin))
	g.Expect(record.Reports[0].Accusations).To(Equal([]string{"a0"}))
	g.Expect(record.Reports[0].Character).To(Equal("ranger"))

	_, err = f.judge.SubmitReport(g.TestScope, models.ReportRequest{MatchID: match.MatchID, PlayerID: "a1", Outcome: models.OutcomeBWin})
	g.Expect(err).To(MatchError(models.ErrAlreadyReported))

	_, err = f.judge.SubmitReport(g.TestScope, models.ReportRequest{MatchID: match.MatchID, PlayerID: "stranger", Outcome: models.OutcomeBWin})
	g.Expect(err).To(MatchError(models.ErrNotInMatch))

	_, err = f.judge.SubmitReport(g.TestScope, models.ReportRequest{MatchID: match.MatchID, PlayerID: "a2", Outcome: "draw"})
	g.Expect(err).To(MatchError(models.ErrInvalidOutcome))

	_, err = f.judge.SubmitReport(g.TestScope, models.ReportRequest{MatchID: 99, PlayerID: "a2", Outcome: models.OutcomeAWin})
	g.Expect(err).To(MatchError(models.ErrNotFound))

	updates := f.recorder.MatchUpdates()
	g.Expect(updates[len(updates)-1].Kind).To(Equal(constants.MatchUpdateReport))

	_, err = f.manager.CancelMatch(g.TestScope, match.MatchID, "")
	g.Expect(err).ToNot(HaveOccurred())
	_, err = f.judge.SubmitReport(g.TestScope, models.ReportRequest{MatchID: match.MatchID, PlayerID: "a2", Outcome: models.OutcomeAWin})
	g.Expect(err).To(MatchError(models.ErrMatchClosed))
}

func TestProcessWaitsForQuorum(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	match := f.createMatch(t, 1000, 1000)

	for _, id := range []string{"a0", "a1", "a2", "a3", "a4", "b0"} {
		f.report(t, match.MatchID, id, models.OutcomeAWin)
	}

	res, err := f.judge.Process(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(res.Resolved).To(BeFalse())
	g.Expect(res.Released).To(BeFalse())

	stored, err := f.manager.GetMatch(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stored.Status).To(Equal(models.MatchStatusMatched))
	g.Expect(stored.Reports).To(HaveLen(6))
}

func TestProcessAppliesRatingsOnce(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	match := f.createMatch(t, 1000, 1000)

	for _, id := range []string{"a0", "a1", "a2", "a3", "a4", "b0", "b1"} {
		f.report(t, match.MatchID, id, models.OutcomeAWin)
	}

	res, err := f.judge.Process(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(res.Resolved).To(BeTrue())
	g.Expect(res.Released).To(BeTrue())
	g.Expect(res.Outcome).To(Equal(models.OutcomeAWin))

	// equal ratings give 8, first time winners get the placement bonus on top
	for i := range models.Roles {
		winner, err := f.profiles.GetRatingProfile(g.TestScope, fmt.Sprintf("a%d", i))
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(winner.Rating).To(Equal(1013))
		g.Expect(winner.PeakRating).To(Equal(1013))
		g.Expect(winner.Matches).To(Equal(1))
		g.Expect(winner.Wins).To(Equal(1))
		g.Expect(winner.WinRate).To(Equal(1.0))
		g.Expect(winner.CurrentMatchID).To(Equal(int64(0)))

		loser, err := f.profiles.GetRatingProfile(g.TestScope, fmt.Sprintf("b%d", i))
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(loser.Rating).To(Equal(992))
		g.Expect(loser.Matches).To(Equal(1))
		g.Expect(loser.Wins).To(Equal(0))
		g.Expect(loser.LastMatchID).To(Equal(match.MatchID))
	}

	records, err := f.history.List(g.TestScope, "a0", 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(records).To(HaveLen(1))
	g.Expect(records[0].Delta).To(Equal(13))
	g.Expect(records[0].RatingBefore).To(Equal(1000))
	g.Expect(records[0].RatingAfter).To(Equal(1013))
	g.Expect(records[0].Team).To(Equal(models.TeamA))
	g.Expect(records[0].Role).To(Equal(models.RoleTop))

	meta, err := f.repo.GetMeta(g.TestScope)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(meta.Matches.Ongoing).To(BeEmpty())
	g.Expect(meta.Channels.Free).To(ConsistOf(1, 3))

	// a second run changes nothing
	res, err = f.judge.Process(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(res.Resolved).To(BeFalse())

	winner, err := f.profiles.GetRatingProfile(g.TestScope, "a0")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(winner.Rating).To(Equal(1013))
	g.Expect(winner.Matches).To(Equal(1))
	records, err = f.history.List(g.TestScope, "a0", 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(records).To(HaveLen(1))

	resolved := 0
	for _, update := range f.recorder.MatchUpdates() {
		if update.Kind == constants.MatchUpdateResolved {
			resolved++
		}
	}
	g.Expect(resolved).To(Equal(1))
}

func TestProcessIsZeroSumForVeterans(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)

	for i := range models.Roles {
		for id, rating := range map[string]int{fmt.Sprintf("a%d", i): 1200, fmt.Sprintf("b%d", i): 1000} {
			p := models.NewRatingProfile(id, rating)
			p.Matches = 30
			p.Wins = 15
			g.Expect(f.profiles.SaveRatingProfile(g.TestScope, p)).To(Succeed())
		}
	}
	match := f.createMatch(t, 1200, 1000)
	for _, id := range []string{"b0", "b1", "b2", "b3", "b4", "a0", "a1"} {
		f.report(t, match.MatchID, id, models.OutcomeBWin)
	}

	res, err := f.judge.Process(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(res.Outcome).To(Equal(models.OutcomeBWin))

	for i := range models.Roles {
		loser, err := f.profiles.GetRatingProfile(g.TestScope, fmt.Sprintf("a%d", i))
		g.Expect(err).ToNot(HaveOccurred())
		winner, err := f.profiles.GetRatingProfile(g.TestScope, fmt.Sprintf("b%d", i))
		g.Expect(err).ToNot(HaveOccurred())

		g.Expect(winner.Rating).To(Equal(1012))
		g.Expect(loser.Rating).To(Equal(1188))
		g.Expect(winner.Rating - 1000).To(Equal(1200 - loser.Rating))
		g.Expect(loser.PeakRating).To(Equal(1200))
	}
}

func TestProcessInvalidOutcomeSkipsRatings(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	match := f.createMatch(t, 1000, 1000)

	for _, id := range []string{"a0", "a1", "a2"} {
		f.report(t, match.MatchID, id, models.OutcomeAWin)
	}
	for _, id := range []string{"b0", "b1", "b2"} {
		f.report(t, match.MatchID, id, models.OutcomeBWin)
	}
	f.report(t, match.MatchID, "a3", models.OutcomeInvalid)

	res, err := f.judge.Process(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(res.Outcome).To(Equal(models.OutcomeInvalid))
	g.Expect(res.Released).To(BeTrue())

	for _, id := range match.PlayerIDs() {
		p, err := f.profiles.GetRatingProfile(g.TestScope, id)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(p.Rating).To(Equal(1000))
		g.Expect(p.Matches).To(Equal(0))

		records, err := f.history.List(g.TestScope, id, 0)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(records).To(BeEmpty())
	}
}

func TestProcessPenalizesAccusedPlayers(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	match := f.createMatch(t, 1000, 1000)

	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		f.report(t, match.MatchID, id, models.OutcomeAWin, "a0")
	}
	for _, id := range []string{"a0", "b0", "b1"} {
		f.report(t, match.MatchID, id, models.OutcomeAWin)
	}

	res, err := f.judge.Process(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(res.Penalized).To(Equal([]string{"a0"}))

	a0, err := f.profiles.GetRatingProfile(g.TestScope, "a0")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(a0.PenaltyCount).To(Equal(1))
	g.Expect(a0.Rating).To(Equal(1013 - 4))
	g.Expect(a0.PeakRating).To(Equal(1013))

	a1, err := f.profiles.GetRatingProfile(g.TestScope, "a1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(a1.PenaltyCount).To(Equal(0))
}

func TestProcessCanceledMatch(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t)
	match := f.createMatch(t, 1000, 1000)

	for _, id := range []string{"a1", "a2", "a3", "a4", "b0", "b1"} {
		f.report(t, match.MatchID, id, models.OutcomeAWin, "a0")
	}
	_, err := f.manager.CancelMatch(g.TestScope, match.MatchID, "server crashed")
	g.Expect(err).ToNot(HaveOccurred())

	res, err := f.judge.Process(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(res.Resolved).To(BeFalse())
	g.Expect(res.Outcome).To(Equal(models.OutcomeInvalid))
	g.Expect(res.Penalized).To(BeEmpty())

	// four same-team accusations would penalize a0 on a played match
	a0, err := f.profiles.GetRatingProfile(g.TestScope, "a0")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(a0.PenaltyCount).To(Equal(0))
	g.Expect(a0.LastPenaltyMatchID).To(Equal(int64(0)))
	g.Expect(a0.PenaltyTimeoutUntil.IsZero()).To(BeTrue())
	g.Expect(a0.Rating).To(Equal(1000))

	records, err := f.history.List(g.TestScope, "a0", 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(records).To(BeEmpty())

	// processing again stays a no-op for penalties
	res, err = f.judge.Process(g.TestScope, match.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(res.Penalized).To(BeEmpty())
}
