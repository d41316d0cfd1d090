// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type QueueMetrics interface {
	SetWaitingPlayers(namespace string, role string, count int)
	SetOngoingMatches(namespace string, count int)
	AddCycleElapsedTimeMs(namespace, function string, elapsedTime time.Duration)
	AddMatchesFormed(namespace string, count int)
	AddMatchResolved(namespace string, outcome string)
	AddPenaltyApplied(namespace string)
	AddCycleSkip(namespace string, reason string)
	AddUnmatchedReason(namespace string, reason string)
}

func NewMetrics(registry *prometheus.Registry) QueueMetrics {
	return setupPrometheusMetrics(registry)
}
