// Copyright 2025 zkSL Labs
//
// HTTP Middleware - API-key authentication and rate limiting applied
// ahead of every API handler.

package server

import (
	"net"
	"net/http"

	"github.com/zksllabs/zksealevel-anchor/pkg/apierr"
)

// APIKeyHeader carries the client credential.
const APIKeyHeader = "X-API-Key"

// authenticate checks the API-key header against the configured set.
// An empty configured set refuses every request: deployments must
// provision keys explicitly.
func (s *Server) authenticate(r *http.Request) *apierr.Error {
	if len(s.apiKeys) == 0 {
		return apierr.New(apierr.AuthRequired, "no API keys configured")
	}
	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		return apierr.New(apierr.AuthRequired, "missing "+APIKeyHeader+" header")
	}
	for _, k := range s.apiKeys {
		if k == key {
			return nil
		}
	}
	return apierr.New(apierr.Forbidden, "invalid API key")
}

// protect wraps an API handler with rate limiting and authentication.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		if !s.limiter.Allow(client) {
			s.writeAPIError(w, apierr.New(apierr.RateLimitExceeded, "rate limit exceeded"))
			return
		}
		if err := s.authenticate(r); err != nil {
			s.writeAPIError(w, err)
			return
		}
		next(w, r)
	}
}

// clientAddr extracts the client address used for rate limiting.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
