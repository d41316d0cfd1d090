// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package penalty

import (
	"fmt"

	"github.com/elliotchance/pie/v2"

	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

// Tally counts the accusations against one rostered player.
type Tally struct {
	PlayerID string
	Total    int
	SameTeam int
}

// TallyAccusations counts accusations over every report of the match, in roster order.
// Self accusations, accusations of players outside the roster and repeated names within one
// report are ignored.
func TallyAccusations(match models.MatchRecord) []Tally {
	counts := make(map[string]*Tally, constants.MatchSize)
	for _, report := range match.Reports {
		reporterTeam := match.TeamOf(report.PlayerID)
		for _, accused := range pie.Unique(report.Accusations) {
			if accused == report.PlayerID {
				continue
			}
			accusedTeam := match.TeamOf(accused)
			if accusedTeam == models.TeamNone {
				continue
			}
			tally, ok := counts[accused]
			if !ok {
				tally = &Tally{PlayerID: accused}
				counts[accused] = tally
			}
			tally.Total++
			if reporterTeam == accusedTeam {
				tally.SameTeam++
			}
		}
	}

	tallies := make([]Tally, 0, len(counts))
	for _, id := range match.PlayerIDs() {
		if tally, ok := counts[id]; ok {
			tallies = append(tallies, *tally)
		}
	}
	return tallies
}

func reasonFor(t Tally) string {
	return fmt.Sprintf("%s: total=%d sameTeam=%d", constants.PenaltyReasonReports, t.Total, t.SameTeam)
}
