// Copyright 2025 zkSL Labs
//
// Submitter HTTP Server - route assembly and shared response helpers.

package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zksllabs/zksealevel-anchor/pkg/anchor"
	"github.com/zksllabs/zksealevel-anchor/pkg/apierr"
	"github.com/zksllabs/zksealevel-anchor/pkg/artifact"
	"github.com/zksllabs/zksealevel-anchor/pkg/database"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Options configures the server.
type Options struct {
	APIKeys         []string
	RateLimitMax    int
	RateLimitWindow time.Duration
	IdempMaxEntries int
	MinFinality     int16
}

// Server hosts the submitter API.
type Server struct {
	store     *artifact.Store
	submitter *anchor.Submitter
	repos     *database.Repositories // nil when no database is attached
	dbClient  *database.Client       // nil when no database is attached

	idemp   *IdempotencyCache
	limiter *RateLimiter
	apiKeys []string

	minFinality int16
	logger      *log.Logger
}

// New assembles the server.
func New(store *artifact.Store, submitter *anchor.Submitter, dbClient *database.Client, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[Server] ", log.LstdFlags)
	}
	s := &Server{
		store:       store,
		submitter:   submitter,
		dbClient:    dbClient,
		idemp:       NewIdempotencyCache(opts.IdempMaxEntries),
		limiter:     NewRateLimiter(opts.RateLimitMax, opts.RateLimitWindow),
		apiKeys:     opts.APIKeys,
		minFinality: opts.MinFinality,
		logger:      logger,
	}
	if dbClient != nil {
		s.repos = database.NewRepositories(dbClient)
	}
	return s
}

// Handler returns the route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/prove", s.protect(s.instrument("prove", s.handleCreateArtifact)))
	mux.HandleFunc("/artifact", s.protect(s.instrument("artifact", s.handleCreateArtifact)))
	mux.HandleFunc("/anchor", s.protect(s.instrument("anchor", s.handleAnchor)))
	mux.HandleFunc("/proof/", s.protect(s.instrument("proof", s.handleGetProof)))
	mux.HandleFunc("/proofs", s.protect(s.instrument("proofs", s.handleListProofs)))
	mux.HandleFunc("/validator/", s.protect(s.instrument("validator", s.handleGetValidator)))

	return mux
}

// ============================================================================
// RESPONSE HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	httpErrorsTotal.WithLabelValues(code).Inc()
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeAPIError renders a taxonomy error.
func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	kind := apierr.KindOf(err, apierr.AnchorSubmitFailed)
	message := err.Error()
	var ae *apierr.Error
	if errors.As(err, &ae) {
		message = ae.Message
	}
	s.writeError(w, kind.HTTPStatus(), string(kind), message)
}
