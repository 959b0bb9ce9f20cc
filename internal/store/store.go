package store

import (
	"context"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

// ProfileFilter specifies criteria for listing credibility profiles.
type ProfileFilter struct {
	Guild  string                `json:"guild,omitempty"`
	Tier   model.ReliabilityTier `json:"tier,omitempty"`
	Limit  int                   `json:"limit,omitempty"`
	Offset int                   `json:"offset,omitempty"`
}

// ReconciliationFilter specifies criteria for listing reconciliation records.
type ReconciliationFilter struct {
	ContributorID string `json:"contributor_id,omitempty"`
	ReportID      string `json:"report_id,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the reconciliation engine.
// GetProfile returns (nil, nil) when no profile exists for the key yet.
type Store interface {
	// Reconciliations
	SaveReconciliation(ctx context.Context, rec *model.ReconciliationRecord) error
	GetReconciliation(ctx context.Context, id string) (*model.ReconciliationRecord, error)
	ListReconciliations(ctx context.Context, filter ReconciliationFilter) ([]model.ReconciliationRecord, error)

	// Credibility profiles, keyed by (contributor_id, guild); guild "" is
	// the global scope.
	GetProfile(ctx context.Context, contributorID, guild string) (*model.CredibilityProfile, error)
	UpsertProfile(ctx context.Context, profile *model.CredibilityProfile) error
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.CredibilityProfile, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
