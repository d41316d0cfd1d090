// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"time"

	"github.com/AccelByte/extend-ranked-queue/pkg/metrics"
)

type stubMetricsCollection struct{}

func (s stubMetricsCollection) SetWaitingPlayers(namespace string, role string, count int) {
}

func (s stubMetricsCollection) SetOngoingMatches(namespace string, count int) {
}

func (s stubMetricsCollection) AddCycleElapsedTimeMs(namespace, function string, elapsedTime time.Duration) {
}

func (s stubMetricsCollection) AddMatchesFormed(namespace string, count int) {
}

func (s stubMetricsCollection) AddMatchResolved(namespace string, outcome string) {
}

func (s stubMetricsCollection) AddPenaltyApplied(namespace string) {
}

func (s stubMetricsCollection) AddCycleSkip(namespace string, reason string) {
}

func (s stubMetricsCollection) AddUnmatchedReason(namespace string, reason string) {
}

func NewMetrics() metrics.QueueMetrics {
	return stubMetricsCollection{}
}
