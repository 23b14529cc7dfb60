// Copyright 2025 zkSL Labs
//
// Artifact and Anchor Handlers - the submitter's write-side endpoints.

package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/zksllabs/zksealevel-anchor/pkg/apierr"
	"github.com/zksllabs/zksealevel-anchor/pkg/artifact"
)

// IdempotencyKeyHeader gates the artifact creation endpoints.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type createArtifactRequest struct {
	StartSlot       uint64 `json:"start_slot"`
	EndSlot         uint64 `json:"end_slot"`
	StateRootBefore string `json:"state_root_before"`
	StateRootAfter  string `json:"state_root_after"`
}

type createArtifactResponse struct {
	ArtifactID string `json:"artifact_id"`
	ProofHash  string `json:"proof_hash"`
}

// handleCreateArtifact handles POST /prove and POST /artifact.
// Repeated calls with the same Idempotency-Key within 24 hours return
// the byte-identical response; exactly one file is written to disk.
func (s *Server) handleCreateArtifact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	idempKey := r.Header.Get(IdempotencyKeyHeader)
	if idempKey == "" {
		s.writeAPIError(w, apierr.New(apierr.MissingIdempotencyKey, IdempotencyKeyHeader+" header is required"))
		return
	}

	if cached, ok := s.idemp.Get(idempKey); ok {
		idempotentReplays.Inc()
		s.replay(w, cached)
		return
	}

	var req createArtifactRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.BadRequest, "malformed request body", err))
		return
	}

	art, err := artifact.New(req.StartSlot, req.EndSlot, req.StateRootBefore, req.StateRootAfter)
	if err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.BadRequest, err.Error(), err))
		return
	}

	canon, err := art.Canonical()
	if err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.BadRequest, "canonicalize artifact", err))
		return
	}
	proofHash, err := art.ProofHash()
	if err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.BadRequest, "hash artifact", err))
		return
	}
	id := artifact.IDFromProofHash(proofHash)

	if err := s.store.Write(id, canon); err != nil {
		if errors.Is(err, artifact.ErrPathNotAllowed) {
			s.writeAPIError(w, apierr.Wrap(apierr.PathNotAllowed, "artifact path rejected", err))
			return
		}
		s.writeAPIError(w, apierr.Wrap(apierr.AnchorSubmitFailed, "persist artifact", err))
		return
	}

	body, err := json.Marshal(createArtifactResponse{
		ArtifactID: id.String(),
		ProofHash:  hex.EncodeToString(proofHash[:]),
	})
	if err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.AnchorSubmitFailed, "encode response", err))
		return
	}

	s.idemp.Put(idempKey, http.StatusOK, body)
	s.writeRaw(w, http.StatusOK, body)
}

type anchorRequest struct {
	ArtifactID string `json:"artifact_id"`
}

type anchorResponse struct {
	AggregatorSignature string `json:"aggregator_signature"`
	DsHash              string `json:"ds_hash"`
	TransactionID       string `json:"transaction_id"`
}

// handleAnchor handles POST /anchor: signs and submits the commitment
// for a previously created artifact.
func (s *Server) handleAnchor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req anchorRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.BadRequest, "malformed request body", err))
		return
	}
	id, err := uuid.Parse(req.ArtifactID)
	if err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.BadRequest, "invalid artifact_id", err))
		return
	}

	canon, err := s.store.Read(id)
	if err != nil {
		s.writeAPIError(w, apierr.Newf(apierr.NotFound, "unknown artifact %s", id))
		return
	}

	var art artifact.Artifact
	if err := json.Unmarshal(canon, &art); err != nil {
		s.writeAPIError(w, apierr.Wrap(apierr.AnchorSubmitFailed, "stored artifact unreadable", err))
		return
	}

	res, err := s.submitter.Anchor(r.Context(), &art, uint32(len(canon)))
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	anchorsSubmitted.Inc()

	s.writeJSON(w, http.StatusOK, anchorResponse{
		AggregatorSignature: hex.EncodeToString(res.AggregatorSignature),
		DsHash:              hex.EncodeToString(res.DsHash[:]),
		TransactionID:       res.TransactionID,
	})
}

// ============================================================================
// BODY / REPLAY HELPERS
// ============================================================================

func decodeBody(r *http.Request, out interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (s *Server) replay(w http.ResponseWriter, cached CachedResponse) {
	s.writeRaw(w, cached.Status, cached.Body)
}

func (s *Server) writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Printf("Error writing response: %v", err)
	}
}
