// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

type MatchStatus string

const (
	MatchStatusMatched MatchStatus = "matched"
	MatchStatusDone    MatchStatus = "done"
)

type Outcome string

const (
	OutcomeAWin    Outcome = "A-win"
	OutcomeBWin    Outcome = "B-win"
	OutcomeInvalid Outcome = "invalid"
)

func (o Outcome) Valid() bool {
	return o == OutcomeAWin || o == OutcomeBWin || o == OutcomeInvalid
}

type Team int

const (
	TeamNone Team = iota
	TeamA
	TeamB
)

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return "none"
	}
}

// Winner returns the winning team for an outcome, TeamNone when invalid.
func (o Outcome) Winner() Team {
	switch o {
	case OutcomeAWin:
		return TeamA
	case OutcomeBWin:
		return TeamB
	default:
		return TeamNone
	}
}

// TeamMember is a roster entry, with the ratings captured when the match formed.
type TeamMember struct {
	PlayerID   string         `json:"playerID"`
	Assignment RoleAssignment `json:"assignment"`
	Rating     int            `json:"rating"`
	PeakRating int            `json:"peakRating"`
}

// ResultReport is the canonical report schema. Legacy payloads go through ReportFromPayload.
type ResultReport struct {
	PlayerID    string    `json:"playerID"`
	Outcome     Outcome   `json:"outcome"`
	Accusations []string  `json:"accusations,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Character   string    `json:"character,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type MatchRecord struct {
	MatchID      int64          `json:"matchID"`
	TeamA        []TeamMember   `json:"teamA"`
	TeamB        []TeamMember   `json:"teamB"`
	Channels     ChannelPair    `json:"channels"`
	Status       MatchStatus    `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	Reports      []ResultReport `json:"reports"`
	Outcome      Outcome        `json:"outcome,omitempty"`
	ResolvedAt   *time.Time     `json:"resolvedAt,omitempty"`
	CancelReason string         `json:"cancelReason,omitempty"`
}

func (r MatchRecord) IsDone() bool {
	return r.Status == MatchStatusDone
}

func (r MatchRecord) IsCanceled() bool {
	return r.CancelReason != ""
}

// PlayerIDs returns team A then team B, in roster order.
func (r MatchRecord) PlayerIDs() []string {
	toID := func(m TeamMember) string { return m.PlayerID }
	return append(pie.Map(r.TeamA, toID), pie.Map(r.TeamB, toID)...)
}

func (r MatchRecord) TeamOf(playerID string) Team {
	for _, m := range r.TeamA {
		if m.PlayerID == playerID {
			return TeamA
		}
	}
	for _, m := range r.TeamB {
		if m.PlayerID == playerID {
			return TeamB
		}
	}
	return TeamNone
}

func (r MatchRecord) HasReported(playerID string) bool {
	for _, rep := range r.Reports {
		if rep.PlayerID == playerID {
			return true
		}
	}
	return false
}

// ReportOf returns the report submitted by playerID, if any.
func (r MatchRecord) ReportOf(playerID string) (ResultReport, bool) {
	for _, rep := range r.Reports {
		if rep.PlayerID == playerID {
			return rep, true
		}
	}
	return ResultReport{}, false
}

// Copy deep copies the record, used to keep a before-image for audit logging.
func (r MatchRecord) Copy() MatchRecord {
	copied, err := copystructure.Copy(r)
	if err != nil {
		logrus.Warn("failed copy match record:", err)
		return r
	}
	return copied.(MatchRecord)
}
