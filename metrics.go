package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay bounded; session ids never become label values.
var (
	raceSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "race_sessions_active",
		Help: "Race sessions currently held in memory",
	})

	raceConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "race_websocket_connections_active",
		Help: "Currently connected screens",
	})

	racesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "race_races_started_total",
		Help: "Races that left the countdown",
	})

	racesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "race_races_finished_total",
		Help: "Races won by a player",
	})

	raceAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "race_answers_total",
		Help: "Answers submitted during races",
	}, []string{"outcome"}) // "correct", "wrong"

	raceIntentsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "race_intents_dropped_total",
		Help: "Client messages that changed nothing",
	}, []string{"reason"}) // "rate_limit", "unknown", "ignored"

	questionLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "race_question_load_duration_seconds",
		Help:    "Time spent resolving a session's question set",
		Buckets: []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10},
	})
)
