// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

const (
	TeamSize    = 5
	MatchSize   = 2 * TeamSize
	MinJoinRole = 2
)

// Tunable thresholds. The values are kept for behavioural compatibility with the
// existing deployment; config overrides them per environment.
const (
	DefaultReportQuorum                = 7
	DefaultSameTeamAccusationThreshold = 4
	DefaultTotalAccusationThreshold    = 6
	DefaultEloKFactor                  = 16
	DefaultPlacementMatches            = 20
	DefaultPlacementBonus              = 5
)

const (
	RunCycleFunction     = "runCycle"
	ResolveFunction      = "resolveMatches"
	MakeMatchesFunction  = "makeMatches"
	CreateMatchFunction  = "createMatches"
	PenaltyReasonReports = "accused_by_reports"

	// cycle skip reason constants.
	SkipReasonLocked            = "locked"
	SkipReasonResourceExhausted = "resource_exhausted"
	SkipReasonStoreError        = "store_error"

	// not matched reason constants.
	ReasonNotEnoughPlayers = "not_enough_players"
	ReasonNoRoleCoverage   = "no_role_coverage"
)

// match update kinds published to the realtime broadcast.
const (
	MatchUpdateFormed   = "formed"
	MatchUpdateReport   = "report"
	MatchUpdateResolved = "resolved"
	MatchUpdateCanceled = "canceled"
)

// queue delta kinds published to the realtime broadcast.
const (
	QueueDeltaJoin    = "join"
	QueueDeltaLeave   = "leave"
	QueueDeltaRemoved = "removed"
	QueueDeltaMatched = "matched"
)
