// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package cycle

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Summary stores what one cycle did
type Summary struct {
	Timestamp time.Time `json:"timestamp"`
	Namespace string    `json:"namespace"`
	HolderID  string    `json:"holderID"`
	CycleID   int64     `json:"cycleID"`
	Ascending bool      `json:"ascending"`

	OngoingChecked  int `json:"ongoingChecked"`
	MatchesResolved int `json:"matchesResolved"`
	MatchesReleased int `json:"matchesReleased"`
	SettleErrors    int `json:"settleErrors"`
	Penalized       int `json:"penalized"`

	Candidates      int    `json:"candidates"`
	MatchesFormed   int    `json:"matchesFormed"`
	ResourceErrors  int    `json:"resourceErrors"`
	Leftover        int    `json:"leftover"`
	UnmatchedReason string `json:"unmatchedReason,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

func (s Summary) fields() logrus.Fields {
	return logrus.Fields{
		"cycleID":         s.CycleID,
		"holderID":        s.HolderID,
		"ascending":       s.Ascending,
		"ongoingChecked":  s.OngoingChecked,
		"matchesResolved": s.MatchesResolved,
		"matchesReleased": s.MatchesReleased,
		"settleErrors":    s.SettleErrors,
		"penalized":       s.Penalized,
		"candidates":      s.Candidates,
		"matchesFormed":   s.MatchesFormed,
		"resourceErrors":  s.ResourceErrors,
		"leftover":        s.Leftover,
		"unmatchedReason": s.UnmatchedReason,
		"elapsed":         s.Elapsed.String(),
	}
}
