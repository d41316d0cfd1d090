// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package rating computes ELO deltas for a resolved match.
package rating

import (
	"math"
)

type Options struct {
	KFactor          int
	PlacementMatches int
	PlacementBonus   int
}

type Calculator struct {
	opts Options
}

func NewCalculator(opts Options) *Calculator {
	return &Calculator{opts: opts}
}

// Delta is the ELO gain of self against opponent, round(K * (1 - expected score)).
func (c *Calculator) Delta(self, opponent int) int {
	expected := 1 / (math.Pow(10, float64(opponent-self)/400) + 1)
	return int(math.Round(float64(c.opts.KFactor) * (1 - expected)))
}

// PairResult is the rating change of two players who held the same role on opposite teams.
type PairResult struct {
	WinnerDelta int
	LoserDelta  int
	// Bonus is the placement bonus included in WinnerDelta.
	Bonus int
}

// Pair computes the change for a winner and a loser. The loser loses exactly what the winner
// gains, the placement bonus is added on top for a winner with fewer than PlacementMatches
// lifetime matches.
func (c *Calculator) Pair(winnerRating, loserRating, winnerMatches int) PairResult {
	delta := c.Delta(winnerRating, loserRating)
	bonus := 0
	if winnerMatches < c.opts.PlacementMatches {
		bonus = c.opts.PlacementBonus
	}
	return PairResult{
		WinnerDelta: delta + bonus,
		LoserDelta:  -delta,
		Bonus:       bonus,
	}
}
