// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	relayedMessages *prometheus.CounterVec
	failedMessages  *prometheus.CounterVec
	skippedMessages *prometheus.CounterVec
	proofLatencyMS  *prometheus.GaugeVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		relayedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relayed_message_count",
				Help: "Number of messages delivered to their destination chain",
			},
			[]string{"source_chain_id", "destination_chain_id"},
		),
		failedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "failed_relay_message_count",
				Help: "Number of messages that failed to relay",
			},
			[]string{"source_chain_id", "destination_chain_id", "failure_reason"},
		),
		skippedMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skipped_relay_message_count",
				Help: "Number of messages skipped because another party must deliver them",
			},
			[]string{"source_chain_id", "destination_chain_id"},
		),
		proofLatencyMS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "proof_collection_latency_ms",
				Help: "Latency of collecting an inclusion proof in milliseconds",
			},
			[]string{"source_chain_id", "destination_chain_id"},
		),
	}

	registerer.MustRegister(m.relayedMessages)
	registerer.MustRegister(m.failedMessages)
	registerer.MustRegister(m.skippedMessages)
	registerer.MustRegister(m.proofLatencyMS)

	return &m
}
