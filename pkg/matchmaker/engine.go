// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/mathutil"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

const unassigned = -1

// swapCombinations lists, for every role, whether slot 0 (0) or slot 1 (1) goes to team A.
// The order is lexicographic so the first minimal combination is deterministic.
var swapCombinations = combin.Cartesian(teamSwapLens())

func teamSwapLens() []int {
	lens := make([]int, len(models.Roles))
	for i := range lens {
		lens[i] = models.SlotsPerRole
	}
	return lens
}

type Engine struct {
	pool *Pool
}

func NewEngine() *Engine {
	return &Engine{pool: NewPool()}
}

func (e *Engine) MakeMatches(rootScope *envelope.Scope, candidates []Candidate) Result {
	scope := rootScope.NewChildScope(constants.MakeMatchesFunction)
	defer scope.Finish()
	start := time.Now()

	result := Result{}
	remaining := append([]Candidate{}, candidates...)
	for {
		if len(remaining) < constants.MatchSize {
			if len(remaining) > 0 {
				result.UnmatchedReason = constants.ReasonNotEnoughPlayers
			}
			break
		}

		owners, ok := e.assignSlots(remaining)
		if !ok {
			result.UnmatchedReason = constants.ReasonNoRoleCoverage
			break
		}
		match := balanceTeams(remaining, owners)
		result.Matches = append(result.Matches, match)
		remaining = removeAssigned(remaining, owners)
		e.pool.SlotOwners.Put(owners)
	}
	result.Leftover = remaining

	scope.Log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"matches":    len(result.Matches),
		"leftover":   len(result.Leftover),
		"reason":     result.UnmatchedReason,
		"elapsed":    time.Since(start).String(),
	}).Debug("make matches done")
	return result
}

// assignSlots runs Kuhn's augmenting path search over candidates in input order and stops at
// the shortest prefix that fills every role slot. owners[slot] is an index into candidates.
func (e *Engine) assignSlots(candidates []Candidate) ([]int, bool) {
	owners := e.pool.SlotOwners.Get()
	for i := range owners {
		owners[i] = unassigned
	}

	edges := make([][]int, len(candidates))
	filled := 0
	for i := range candidates {
		edges[i] = slotsOf(candidates[i].Roles)
		var visited [constants.MatchSize]bool
		if augment(i, edges, owners, visited[:]) {
			filled++
		}
		if filled == len(owners) {
			return owners, true
		}
	}

	e.pool.SlotOwners.Put(owners)
	return nil, false
}

// augment tries to give candidate a free slot, displacing earlier owners along an augmenting path.
func augment(candidate int, edges [][]int, owners []int, visited []bool) bool {
	for _, slot := range edges[candidate] {
		if visited[slot] {
			continue
		}
		visited[slot] = true
		if owners[slot] == unassigned || augment(owners[slot], edges, owners, visited) {
			owners[slot] = candidate
			return true
		}
	}
	return false
}

func slotsOf(roles []models.Role) []int {
	slots := make([]int, 0, len(roles)*models.SlotsPerRole)
	for _, role := range roles {
		if !role.Valid() {
			continue
		}
		for i := 0; i < models.SlotsPerRole; i++ {
			slots = append(slots, models.RoleAssignment{Role: role, SlotIndex: i}.Slot())
		}
	}
	return slots
}

// balanceTeams picks, among the same-role swaps, the split whose team A sum is closest to half
// of the total. The first minimal combination wins.
func balanceTeams(candidates []Candidate, owners []int) Match {
	total := 0
	for _, owner := range owners {
		total += candidates[owner].Rating
	}

	best, bestDiff := 0, -1
	for i, combination := range swapCombinations {
		sumA := 0
		for roleIdx, toA := range combination {
			sumA += candidates[owners[roleIdx*models.SlotsPerRole+toA]].Rating
		}
		diff := mathutil.Abs(2*sumA - total)
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}

	match := Match{
		TeamA: make([]models.TeamMember, 0, constants.TeamSize),
		TeamB: make([]models.TeamMember, 0, constants.TeamSize),
	}
	for roleIdx, toA := range swapCombinations[best] {
		for slotIndex := 0; slotIndex < models.SlotsPerRole; slotIndex++ {
			slot := roleIdx*models.SlotsPerRole + slotIndex
			candidate := candidates[owners[slot]]
			member := models.TeamMember{
				PlayerID:   candidate.PlayerID,
				Assignment: models.AssignmentForSlot(slot),
				Rating:     candidate.Rating,
				PeakRating: candidate.PeakRating,
			}
			if slotIndex == toA {
				match.TeamA = append(match.TeamA, member)
			} else {
				match.TeamB = append(match.TeamB, member)
			}
		}
	}
	return match
}

func removeAssigned(candidates []Candidate, owners []int) []Candidate {
	taken := make(map[int]bool, len(owners))
	for _, owner := range owners {
		taken[owner] = true
	}
	remaining := make([]Candidate, 0, len(candidates)-len(owners))
	for i, candidate := range candidates {
		if !taken[i] {
			remaining = append(remaining, candidate)
		}
	}
	return remaining
}
