// Copyright 2025 zkSL Labs
//
// API Error Taxonomy - every failure surfaced by the submitter maps to
// one of these kinds. Handlers render them through the standard
// {"error":{"code","message"}} envelope.

package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies an error class with a fixed HTTP status.
type Kind string

const (
	BadRequest            Kind = "BadRequest"
	MissingIdempotencyKey Kind = "MissingIdempotencyKey"
	NotFound              Kind = "NotFound"
	ChainIDMismatch       Kind = "ChainIdMismatch"
	AggregatorKeyMismatch Kind = "AggregatorKeyMismatch"
	ConfigNotFound        Kind = "ConfigNotFound"
	FetchLastSeqFailed    Kind = "FetchLastSeqFailed"
	RateLimitExceeded     Kind = "RateLimitExceeded"
	AuthRequired          Kind = "AuthRequired"
	Forbidden             Kind = "Forbidden"
	AnchorSubmitFailed    Kind = "AnchorSubmitFailed"
	PathNotAllowed        Kind = "PathNotAllowed"

	// Verifier-mapped kinds (on-chain program rejections).
	BadEd25519Order     Kind = "BadEd25519Order"
	BadDomainSeparation Kind = "BadDomainSeparation"
	NonMonotonicSeq     Kind = "NonMonotonicSeq"
	RangeOverlap        Kind = "RangeOverlap"
	ClockSkew           Kind = "ClockSkew"
	AggregatorMismatch  Kind = "AggregatorMismatch"
	InvalidMint         Kind = "InvalidMint"
	Paused              Kind = "Paused"
)

var httpStatus = map[Kind]int{
	BadRequest:            http.StatusBadRequest,
	MissingIdempotencyKey: http.StatusBadRequest,
	NotFound:              http.StatusNotFound,
	ChainIDMismatch:       http.StatusBadRequest,
	AggregatorKeyMismatch: http.StatusBadRequest,
	ConfigNotFound:        http.StatusBadRequest,
	FetchLastSeqFailed:    http.StatusInternalServerError,
	RateLimitExceeded:     http.StatusTooManyRequests,
	AuthRequired:          http.StatusUnauthorized,
	Forbidden:             http.StatusForbidden,
	AnchorSubmitFailed:    http.StatusInternalServerError,
	PathNotAllowed:        http.StatusInternalServerError,
	BadEd25519Order:       http.StatusBadRequest,
	BadDomainSeparation:   http.StatusBadRequest,
	NonMonotonicSeq:       http.StatusBadRequest,
	RangeOverlap:          http.StatusBadRequest,
	ClockSkew:             http.StatusBadRequest,
	AggregatorMismatch:    http.StatusBadRequest,
	InvalidMint:           http.StatusBadRequest,
	Paused:                http.StatusForbidden,
}

// HTTPStatus returns the status code for a kind, 500 for unknown kinds.
func (k Kind) HTTPStatus() int {
	if s, ok := httpStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error carries a kind plus a human-readable message and optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, returning fallback when err carries
// no *Error.
func KindOf(err error, fallback Kind) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return fallback
}
