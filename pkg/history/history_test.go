// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package history

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/testsetup"
)

func TestAppendAndList(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, st := testsetup.NewRedis(t)
	recorder := NewRecorder(st)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for matchID := int64(1); matchID <= 5; matchID++ {
		rec, added, err := recorder.Append(g.TestScope, models.HistoryRecord{
			PlayerID: "p1",
			MatchID:  matchID,
			MatchAt:  at.Add(time.Duration(matchID) * time.Minute),
		})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(added).To(BeTrue())
		g.Expect(rec.ID).To(HaveLen(26))
	}

	records, err := recorder.List(g.TestScope, "p1", 3)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(records).To(HaveLen(3))
	g.Expect(records[0].MatchID).To(Equal(int64(5)))
	g.Expect(records[2].MatchID).To(Equal(int64(3)))
	g.Expect(records[0].ID > records[1].ID).To(BeTrue(), "ids sort by match time")

	records, err = recorder.List(g.TestScope, "p1", 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(records).To(HaveLen(5))

	records, err = recorder.List(g.TestScope, "nobody", 10)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(records).To(BeEmpty())
}

func TestAppendSkipsDuplicateMatch(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, st := testsetup.NewRedis(t)
	recorder := NewRecorder(st)

	rec := models.HistoryRecord{PlayerID: "p1", MatchID: 9, Delta: 8, MatchAt: time.Now()}
	first, added, err := recorder.Append(g.TestScope, rec)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(added).To(BeTrue())

	again, added, err := recorder.Append(g.TestScope, rec)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(added).To(BeFalse())
	g.Expect(again.ID).To(Equal(first.ID))

	records, err := recorder.List(g.TestScope, "p1", 10)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(records).To(HaveLen(1))
}
