// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"time"

	"github.com/AccelByte/extend-ranked-queue/pkg/mathutil"
)

// RatingProfile is the rating and penalty state embedded in a player's profile.
type RatingProfile struct {
	PlayerID   string  `json:"playerID"`
	Rating     int     `json:"rating"`
	PeakRating int     `json:"peakRating"`
	Matches    int     `json:"matches"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"winRate"`
	Banned     bool    `json:"banned"`

	// PenaltyCount and PenaltyCorrection only ever increase.
	PenaltyCount        int       `json:"penaltyCount"`
	PenaltyCorrection   int       `json:"penaltyCorrection"`
	LastPenaltyAt       time.Time `json:"lastPenaltyAt,omitempty"`
	PenaltyTimeoutUntil time.Time `json:"penaltyTimeoutUntil,omitempty"`
	LastPenaltyMatchID  int64     `json:"lastPenaltyMatchID,omitempty"`

	// CurrentMatchID is 0 when the player is not in a match.
	CurrentMatchID int64 `json:"currentMatchID"`
	// LastMatchID is the last match whose rating result was applied.
	LastMatchID int64 `json:"lastMatchID"`
}

func NewRatingProfile(playerID string, rating int) RatingProfile {
	return RatingProfile{PlayerID: playerID, Rating: rating, PeakRating: rating}
}

// EffectivePenalty is penalty count minus correction, floored at zero.
func (p RatingProfile) EffectivePenalty() int {
	return mathutil.FloorZero(p.PenaltyCount-p.PenaltyCorrection)
}

// RecordResult applies a rating delta and a win or loss. The rating never drops below zero.
func (p *RatingProfile) RecordResult(matchID int64, delta int, win bool) {
	p.Rating = mathutil.FloorZero(p.Rating+delta)
	p.PeakRating = max(p.PeakRating, p.Rating)
	p.Matches++
	if win {
		p.Wins++
	}
	p.WinRate = float64(p.Wins) / float64(p.Matches)
	p.LastMatchID = matchID
}

// HistoryRecord is written once per player per resolved match.
type HistoryRecord struct {
	ID           string    `json:"id"`
	PlayerID     string    `json:"playerID"`
	MatchID      int64     `json:"matchID"`
	Team         Team      `json:"team"`
	Role         Role      `json:"role"`
	RatingBefore int       `json:"ratingBefore"`
	RatingAfter  int       `json:"ratingAfter"`
	Delta        int       `json:"delta"`
	Win          bool      `json:"win"`
	Character    string    `json:"character,omitempty"`
	MatchAt      time.Time `json:"matchAt"`
}
