// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package matchmaker turns a rated, role-tagged player list into balanced 5v5 matches.
// It is pure: it reads nothing from the store and has no side effects besides logging.
package matchmaker

import (
	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
)

/*
MatchLogic takes a snapshot of waiting candidates and returns as many matches as the snapshot
permits. Role feasibility is a hard constraint checked before balance is optimized.

The candidate order matters: the search scans the shortest feasible prefix, so callers may
alternate ascending and descending rating order between cycles to avoid favouring one end
of the rating distribution.
*/
type MatchLogic interface {
	// MakeMatches forms matches until fewer than ten candidates remain or no role-complete
	// assignment exists among the remainder.
	MakeMatches(scope *envelope.Scope, candidates []Candidate) Result
}
