// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	waitingPlayers   prometheus.GaugeVec
	ongoingMatches   prometheus.GaugeVec
	cycleElapsedTime prometheus.HistogramVec
	matchesFormed    prometheus.CounterVec
	matchesResolved  prometheus.CounterVec
	penaltiesApplied prometheus.CounterVec
	cycleSkips       prometheus.CounterVec
	unmatchedReasons prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	waitingPlayers := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ranked_queue_waiting_players",
			Help: "Number of players waiting in the queue per offered role",
		}, []string{"game_namespace", "role"})

	ongoingMatches := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ranked_queue_ongoing_matches",
			Help: "Number of matches waiting for their result",
		}, []string{"game_namespace"})

	//nolint:promlinter
	cycleElapsedTime := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranked_queue_cycle_elapsed_time_ms",
			Help:    "A histogram of matchmaking cycle functions elapsed time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"game_namespace", "function"})

	//nolint:promlinter
	matchesFormed := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranked_queue_matches_formed",
			Help: "Number of matches formed by the matchmaking cycle",
		}, []string{"game_namespace"})

	//nolint:promlinter
	matchesResolved := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranked_queue_matches_resolved",
			Help: "Number of matches resolved per outcome",
		}, []string{"game_namespace", "outcome"})

	//nolint:promlinter
	penaltiesApplied := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranked_queue_penalties_applied",
			Help: "Number of report based penalties applied",
		}, []string{"game_namespace"})

	//nolint:promlinter
	cycleSkips := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranked_queue_cycle_skips",
			Help: "Number of cycles or cycle steps skipped per reason",
		}, []string{"game_namespace", "reason"})

	//nolint:promlinter
	unmatchedReasons := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranked_queue_unmatched_reasons",
			Help: "Reasons a cycle stopped forming matches",
		}, []string{"game_namespace", "reason"})

	return prometheusMetrics{
		waitingPlayers:   *waitingPlayers,
		ongoingMatches:   *ongoingMatches,
		cycleElapsedTime: *cycleElapsedTime,
		matchesFormed:    *matchesFormed,
		matchesResolved:  *matchesResolved,
		penaltiesApplied: *penaltiesApplied,
		cycleSkips:       *cycleSkips,
		unmatchedReasons: *unmatchedReasons,
	}
}

func (metrics prometheusMetrics) SetWaitingPlayers(namespace string, role string, count int) {
	metrics.waitingPlayers.With(prometheus.Labels{"game_namespace": namespace, "role": role}).Set(float64(count))
}

func (metrics prometheusMetrics) SetOngoingMatches(namespace string, count int) {
	metrics.ongoingMatches.With(prometheus.Labels{"game_namespace": namespace}).Set(float64(count))
}

func (metrics prometheusMetrics) AddCycleElapsedTimeMs(namespace, function string, elapsedTime time.Duration) {
	metrics.cycleElapsedTime.With(prometheus.Labels{"game_namespace": namespace, "function": function}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddMatchesFormed(namespace string, count int) {
	metrics.matchesFormed.With(prometheus.Labels{"game_namespace": namespace}).Add(float64(count))
}

func (metrics prometheusMetrics) AddMatchResolved(namespace string, outcome string) {
	metrics.matchesResolved.With(prometheus.Labels{"game_namespace": namespace, "outcome": outcome}).Add(float64(1))
}

func (metrics prometheusMetrics) AddPenaltyApplied(namespace string) {
	metrics.penaltiesApplied.With(prometheus.Labels{"game_namespace": namespace}).Add(float64(1))
}

func (metrics prometheusMetrics) AddCycleSkip(namespace string, reason string) {
	metrics.cycleSkips.With(prometheus.Labels{"game_namespace": namespace, "reason": reason}).Add(float64(1))
}

func (metrics prometheusMetrics) AddUnmatchedReason(namespace string, reason string) {
	metrics.unmatchedReasons.With(prometheus.Labels{"game_namespace": namespace, "reason": reason}).Add(float64(1))
}
