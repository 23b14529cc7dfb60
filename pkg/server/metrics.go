// Copyright 2025 zkSL Labs
//
// Submitter metrics

package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zksl_http_requests_total",
		Help: "API requests by route.",
	}, []string{"route"})
	httpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zksl_http_errors_total",
		Help: "API error responses by taxonomy code.",
	}, []string{"code"})
	anchorsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_anchors_submitted_total",
		Help: "Successful anchor submissions.",
	})
	idempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zksl_idempotent_replays_total",
		Help: "Requests answered from the idempotency cache.",
	})
)

// instrument counts requests per route.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpRequestsTotal.WithLabelValues(route).Inc()
		next(w, r)
	}
}
