// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/profile"
	"github.com/AccelByte/extend-ranked-queue/pkg/queue"
	"github.com/AccelByte/extend-ranked-queue/pkg/testsetup"
)

type fixture struct {
	repo     *queue.Repository
	manager  *Manager
	profiles *profile.RedisService
	recorder *testsetup.RecordingNotifier
	clock    *clockwork.FakeClock
}

func newFixture(t *testing.T, pairs int) fixture {
	t.Helper()
	_, st := testsetup.NewRedis(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	repo := queue.NewRepository(st, clock, queue.Options{ChannelBase: 100, ChannelPairs: pairs})
	profiles := profile.NewRedisService(st, 1000)
	recorder := &testsetup.RecordingNotifier{}
	return fixture{
		repo:     repo,
		manager:  NewManager(st, repo, profiles, recorder.Dispatcher(), clock, 3),
		profiles: profiles,
		recorder: recorder,
		clock:    clock,
	}
}

// queueTeams enqueues ten players prefixed with prefix and returns them as two teams.
func (f fixture) queueTeams(t *testing.T, prefix string) ([]models.TeamMember, []models.TeamMember) {
	t.Helper()
	var teamA, teamB []models.TeamMember
	for i, role := range models.Roles {
		for slot := 0; slot < models.SlotsPerRole; slot++ {
			id := fmt.Sprintf("%s%d", prefix, i*models.SlotsPerRole+slot)
			_, _, err := f.repo.Join(testsetup.NewTestScope(), models.JoinRequest{PlayerID: id, Roles: models.Roles})
			require.NoError(t, err)
			member := models.TeamMember{PlayerID: id, Assignment: models.RoleAssignment{Role: role, SlotIndex: slot}, Rating: 1000, PeakRating: 1000}
			if slot == 0 {
				teamA = append(teamA, member)
			} else {
				teamB = append(teamB, member)
			}
		}
	}
	return teamA, teamB
}

func TestCreateMatch(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t, 2)
	teamA, teamB := f.queueTeams(t, "p")

	record, err := f.manager.CreateMatch(g.TestScope, teamA, teamB)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(record.MatchID).To(Equal(int64(1)))
	g.Expect(record.Channels).To(Equal(models.ChannelPair{TeamA: 100, TeamB: 101}))
	g.Expect(record.Status).To(Equal(models.MatchStatusMatched))
	g.Expect(record.Reports).To(BeEmpty())
	g.Expect(record.CreatedAt).To(BeTemporally("==", f.clock.Now()))

	stored, err := f.manager.GetMatch(g.TestScope, record.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stored.TeamA).To(Equal(teamA))
	g.Expect(stored.TeamB).To(Equal(teamB))

	for _, id := range record.PlayerIDs() {
		p, err := f.profiles.GetRatingProfile(g.TestScope, id)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(p.CurrentMatchID).To(Equal(record.MatchID))
	}

	snapshot, err := f.repo.Snapshot(g.TestScope)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(snapshot.TotalWaiting).To(Equal(0))
	g.Expect(snapshot.OngoingMatchCount).To(Equal(1))

	g.Expect(f.recorder.Formed()).To(Equal([]int64{1}))
	g.Expect(f.recorder.MatchUpdates()).To(HaveLen(1))
	g.Expect(f.recorder.MatchUpdates()[0].Kind).To(Equal(constants.MatchUpdateFormed))
	g.Expect(f.recorder.QueueDeltas()).To(HaveLen(1))
	g.Expect(f.recorder.QueueDeltas()[0].PlayerIDs).To(HaveLen(10))
}

func TestCreateMatchSurvivesNotificationFailure(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t, 2)
	f.recorder.Err = fmt.Errorf("push service down")
	teamA, teamB := f.queueTeams(t, "p")

	record, err := f.manager.CreateMatch(g.TestScope, teamA, teamB)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(record.MatchID).To(Equal(int64(1)))
}

func TestCreateMatchResourceExhausted(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t, 1)

	teamA, teamB := f.queueTeams(t, "a")
	_, err := f.manager.CreateMatch(g.TestScope, teamA, teamB)
	g.Expect(err).ToNot(HaveOccurred())

	teamA, teamB = f.queueTeams(t, "b")
	_, err = f.manager.CreateMatch(g.TestScope, teamA, teamB)
	g.Expect(err).To(MatchError(models.ErrResourceExhausted))

	snapshot, err := f.repo.Snapshot(g.TestScope)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(snapshot.TotalWaiting).To(Equal(10))
	g.Expect(snapshot.OngoingMatchCount).To(Equal(1))

	p, err := f.profiles.GetRatingProfile(g.TestScope, "b0")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(p.CurrentMatchID).To(Equal(int64(0)))
}

func TestCancelMatchReleasesResources(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t, 1)
	teamA, teamB := f.queueTeams(t, "p")

	record, err := f.manager.CreateMatch(g.TestScope, teamA, teamB)
	g.Expect(err).ToNot(HaveOccurred())

	canceled, err := f.manager.CancelMatch(g.TestScope, record.MatchID, "")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(canceled.Status).To(Equal(models.MatchStatusDone))
	g.Expect(canceled.Outcome).To(Equal(models.OutcomeInvalid))
	g.Expect(canceled.CancelReason).To(Equal(defaultCancelReason))
	g.Expect(canceled.ResolvedAt).ToNot(BeNil())

	meta, err := f.repo.GetMeta(g.TestScope)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(meta.Channels.Free).To(Equal([]int{100}))
	g.Expect(meta.Matches.Ongoing).To(BeEmpty())
	g.Expect(meta.Matches.InMatch).To(BeEmpty())

	for _, id := range record.PlayerIDs() {
		p, err := f.profiles.GetRatingProfile(g.TestScope, id)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(p.CurrentMatchID).To(Equal(int64(0)))
		g.Expect(p.PenaltyCount).To(Equal(0))
		g.Expect(p.Matches).To(Equal(0))
	}

	// cancelling again only repeats the release
	_, err = f.manager.CancelMatch(g.TestScope, record.MatchID, "again")
	g.Expect(err).ToNot(HaveOccurred())
	meta, err = f.repo.GetMeta(g.TestScope)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(meta.Channels.Free).To(Equal([]int{100}))

	// the released pair can be allocated again
	teamA, teamB = f.queueTeams(t, "q")
	next, err := f.manager.CreateMatch(g.TestScope, teamA, teamB)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(next.Channels).To(Equal(models.ChannelPair{TeamA: 100, TeamB: 101}))
	g.Expect(next.MatchID).To(Equal(int64(2)))
}

func TestCancelResolvedMatch(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t, 1)
	teamA, teamB := f.queueTeams(t, "p")

	record, err := f.manager.CreateMatch(g.TestScope, teamA, teamB)
	g.Expect(err).ToNot(HaveOccurred())
	_, err = f.manager.Finish(g.TestScope, record.MatchID, models.OutcomeAWin, "")
	g.Expect(err).ToNot(HaveOccurred())

	_, err = f.manager.CancelMatch(g.TestScope, record.MatchID, "late")
	g.Expect(err).To(MatchError(models.ErrMatchClosed))
}

func TestCancelUnknownMatch(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t, 1)

	_, err := f.manager.CancelMatch(g.TestScope, 404, "")
	g.Expect(err).To(MatchError(models.ErrNotFound))
}

func TestUpdateMatchPersistsInPlaceEdits(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newFixture(t, 1)
	teamA, teamB := f.queueTeams(t, "p")

	record, err := f.manager.CreateMatch(g.TestScope, teamA, teamB)
	g.Expect(err).ToNot(HaveOccurred())

	_, err = f.manager.UpdateMatch(g.TestScope, record.MatchID, func(r *models.MatchRecord) error {
		r.Reports = append(r.Reports, models.ResultReport{PlayerID: "p0", Outcome: models.OutcomeAWin, Accusations: []string{"p1"}})
		return nil
	})
	g.Expect(err).ToNot(HaveOccurred())

	// edits inside nested slices must not be mistaken for a no-op
	updated, err := f.manager.UpdateMatch(g.TestScope, record.MatchID, func(r *models.MatchRecord) error {
		r.Reports[0].Accusations[0] = "p3"
		r.TeamA[0].Rating = 1111
		return nil
	})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(updated.Reports[0].Accusations).To(Equal([]string{"p3"}))

	stored, err := f.manager.GetMatch(g.TestScope, record.MatchID)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stored.Reports[0].Accusations).To(Equal([]string{"p3"}))
	g.Expect(stored.TeamA[0].Rating).To(Equal(1111))

	unchanged, err := f.manager.UpdateMatch(g.TestScope, record.MatchID, func(r *models.MatchRecord) error { return nil })
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(unchanged).To(Equal(stored))
}
