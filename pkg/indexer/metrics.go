// Copyright 2025 zkSL Labs
//
// Indexer metrics

package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_indexer_scans_total",
		Help: "Polling cycles started.",
	})
	proofsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_indexer_proofs_indexed_total",
		Help: "Proof records upserted by the polling path.",
	})
	validatorsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_indexer_validators_indexed_total",
		Help: "Validator records upserted.",
	})
	proofsReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_indexer_proofs_reconciled_total",
		Help: "Commitment level bumps applied by reconciliation.",
	})
	proofsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_indexer_proofs_purged_total",
		Help: "Rows deleted after their transaction was presumed dropped.",
	})
	decodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_indexer_decode_failures_total",
		Help: "Account records that failed to decode.",
	})
	streamProofEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_indexer_stream_proof_events_total",
		Help: "Proof-record events observed on the stream and deferred to polling.",
	})
)
