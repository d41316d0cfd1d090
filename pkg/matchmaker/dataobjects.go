// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"github.com/elliotchance/pie/v2"

	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

// Candidate is a waiting player as seen by the engine.
type Candidate struct {
	PlayerID   string
	Rating     int
	PeakRating int
	Roles      []models.Role
}

// Match is one formed 5v5. Both teams are in role order, so TeamA[i] and TeamB[i] hold the same role.
type Match struct {
	TeamA []models.TeamMember
	TeamB []models.TeamMember
}

func (m Match) PlayerIDs() []string {
	toID := func(member models.TeamMember) string { return member.PlayerID }
	return append(pie.Map(m.TeamA, toID), pie.Map(m.TeamB, toID)...)
}

func (m Match) RatingSums() (teamA, teamB int) {
	toRating := func(member models.TeamMember) int { return member.Rating }
	return pie.Sum(pie.Map(m.TeamA, toRating)), pie.Sum(pie.Map(m.TeamB, toRating))
}

// RatingDiff is the absolute difference between both team rating sums.
func (m Match) RatingDiff() int {
	a, b := m.RatingSums()
	if a > b {
		return a - b
	}
	return b - a
}

type Result struct {
	Matches []Match
	// Leftover are the candidates still waiting, in input order.
	Leftover []Candidate
	// UnmatchedReason tells why the search stopped, empty when every candidate was matched.
	UnmatchedReason string
}
