// Copyright 2025 zkSL Labs
//
// Verifier Error Mapping - translates on-chain program rejections
// (custom error names or numeric codes surfaced through RPC error text)
// into the API error taxonomy.

package anchorprog

import (
	"fmt"
	"strings"

	"github.com/zksllabs/zksealevel-anchor/pkg/apierr"
)

type verifierError struct {
	name string
	code uint32
	kind apierr.Kind
}

// Canonical verifier error set. Anything that matches neither a name
// nor a "custom program error" code falls through to AnchorSubmitFailed.
var verifierErrors = []verifierError{
	{"InvalidMint", 6000, apierr.InvalidMint},
	{"AggregatorMismatch", 6006, apierr.AggregatorMismatch},
	{"Paused", 6010, apierr.Paused},
	{"NonMonotonicSeq", 6012, apierr.NonMonotonicSeq},
	{"RangeOverlap", 6013, apierr.RangeOverlap},
	{"ClockSkew", 6014, apierr.ClockSkew},
	{"BadEd25519Order", 6015, apierr.BadEd25519Order},
	{"BadDomainSeparation", 6016, apierr.BadDomainSeparation},
}

// MapSubmitError classifies a transaction submission failure.
func MapSubmitError(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	text := err.Error()
	for _, ve := range verifierErrors {
		if strings.Contains(text, ve.name) {
			return apierr.Wrap(ve.kind, "verifier rejected anchor", err)
		}
		// RPC surfaces program errors as "custom program error: 0x177c"
		// or as the bare decimal code.
		if strings.Contains(text, fmt.Sprintf("0x%x", ve.code)) ||
			strings.Contains(text, fmt.Sprintf("custom program error: %d", ve.code)) {
			return apierr.Wrap(ve.kind, "verifier rejected anchor", err)
		}
	}
	return apierr.Wrap(apierr.AnchorSubmitFailed, "anchor submission failed", err)
}
