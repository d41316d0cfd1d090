// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"cmp"
	"slices"

	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

// OrderByRating returns a copy sorted by rating. Equal ratings keep their input order.
func OrderByRating(candidates []Candidate, descending bool) []Candidate {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		if descending {
			return cmp.Compare(b.Rating, a.Rating)
		}
		return cmp.Compare(a.Rating, b.Rating)
	})
	return sorted
}

// CandidateFromEntry combines a queue entry with the player's current ratings.
func CandidateFromEntry(entry models.QueueEntry, rating, peakRating int) Candidate {
	return Candidate{
		PlayerID:   entry.PlayerID,
		Rating:     rating,
		PeakRating: peakRating,
		Roles:      models.NormalizeRoles(entry.Roles),
	}
}
