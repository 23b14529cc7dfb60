// Copyright 2025 zkSL Labs
//
// Repository aggregate - one handle for all repositories sharing a
// client.

package database

// Repositories bundles the per-table repositories.
type Repositories struct {
	Proofs       *ProofRepository
	Validators   *ValidatorRepository
	IndexerState *IndexerStateRepository
}

// NewRepositories wires all repositories to one client.
func NewRepositories(client *Client) *Repositories {
	return &Repositories{
		Proofs:       NewProofRepository(client),
		Validators:   NewValidatorRepository(client),
		IndexerState: NewIndexerStateRepository(client),
	}
}
