// Copyright 2025 zkSL Labs
//
// Read-Side Handlers - proof and validator queries over the relational
// store, plus health reporting.

package server

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/zksllabs/zksealevel-anchor/pkg/apierr"
	"github.com/zksllabs/zksealevel-anchor/pkg/artifact"
	"github.com/zksllabs/zksealevel-anchor/pkg/database"
)

type proofStatus struct {
	Seq             int64  `json:"seq"`
	CommitmentLevel int16  `json:"commitment_level"`
	TransactionID   string `json:"transaction_id,omitempty"`
	Final           bool   `json:"final"`
}

// handleGetProof handles GET /proof/{artifact_id}: the stored artifact
// plus its indexed status, null until the indexer has observed it.
func (s *Server) handleGetProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	idStr := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/proof/"), "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.BadRequest, "invalid artifact id", err))
		return
	}

	var art *artifact.Artifact
	if canon, err := s.store.Read(id); err == nil {
		var a artifact.Artifact
		if err := json.Unmarshal(canon, &a); err == nil {
			art = &a
		}
	}

	var row *database.Proof
	if s.repos != nil {
		row, err = s.repos.Proofs.GetByArtifactID(r.Context(), id)
		if err != nil {
			s.logger.Printf("Error getting proof %s: %v", id, err)
			s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve proof")
			return
		}
	}

	if art == nil && row == nil {
		s.writeAPIError(w, apierr.Newf(apierr.NotFound, "unknown artifact %s", id))
		return
	}
	if art == nil {
		art = artifactFromRow(row)
	}

	var status *proofStatus
	if row != nil {
		status = &proofStatus{
			Seq:             row.Seq,
			CommitmentLevel: row.CommitmentLevel,
			TransactionID:   row.Txid,
			Final:           row.CommitmentLevel >= s.minFinality,
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"artifact": art,
		"status":   status,
	})
}

// handleListProofs handles GET /proofs?limit=&offset=.
func (s *Server) handleListProofs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	if s.repos == nil {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"proofs": []*database.Proof{}, "count": 0})
		return
	}

	limit := parseIntParam(r, "limit", 100)
	offset := parseIntParam(r, "offset", 0)
	proofs, err := s.repos.Proofs.List(r.Context(), limit, offset)
	if err != nil {
		s.logger.Printf("Error listing proofs: %v", err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list proofs")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"proofs": proofs,
		"count":  len(proofs),
	})
}

// handleGetValidator handles GET /validator/{pubkey}.
func (s *Server) handleGetValidator(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	pubkey := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/validator/"), "/")
	if pubkey == "" {
		s.writeAPIError(w, apierr.New(apierr.BadRequest, "validator pubkey is required"))
		return
	}

	if s.repos == nil {
		s.writeAPIError(w, apierr.Newf(apierr.NotFound, "unknown validator %s", pubkey))
		return
	}

	v, err := s.repos.Validators.GetByPubkey(r.Context(), pubkey)
	if err != nil {
		s.logger.Printf("Error getting validator %s: %v", pubkey, err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve validator")
		return
	}
	if v == nil {
		s.writeAPIError(w, apierr.Newf(apierr.NotFound, "unknown validator %s", pubkey))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"validator": v})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": Version,
	}
	if r.URL.Query().Get("detailed") != "" && s.dbClient != nil {
		if err := s.dbClient.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["database"] = err.Error()
		} else {
			resp["database"] = "ok"
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func artifactFromRow(row *database.Proof) *artifact.Artifact {
	return &artifact.Artifact{
		StartSlot:       uint64(row.StartSlot),
		EndSlot:         uint64(row.EndSlot),
		StateRootBefore: hexString(row.StateRootBefore),
		StateRootAfter:  hexString(row.StateRootAfter),
	}
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
