// Package ports defines the interfaces (ports) for the doctorate bounded context.
package ports

import (
	"context"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
)

// DoctorateRepository persists doctorates.
// Get returns a KindNotFound error when the doctorate does not exist.
// Save fails with KindConcurrentModification when the stored version moved
// past the version the doctorate was loaded with.
type DoctorateRepository interface {
	Get(ctx context.Context, id domain.DoctorateID) (*domain.Doctorate, error)
	Save(ctx context.Context, d *domain.Doctorate) error
	Delete(ctx context.Context, id domain.DoctorateID) error
}

// SupervisionGroupRepository persists supervision groups.
type SupervisionGroupRepository interface {
	Get(ctx context.Context, id domain.SupervisionGroupID) (*domain.SupervisionGroup, error)
	Save(ctx context.Context, g *domain.SupervisionGroup) error
	Delete(ctx context.Context, id domain.SupervisionGroupID) error
}

// JuryRepository persists juries.
type JuryRepository interface {
	Get(ctx context.Context, id domain.JuryID) (*domain.Jury, error)
	Save(ctx context.Context, j *domain.Jury) error
	Delete(ctx context.Context, id domain.JuryID) error
}

// ConfirmationPaperRepository persists confirmation papers.
type ConfirmationPaperRepository interface {
	Get(ctx context.Context, id domain.ConfirmationPaperID) (*domain.ConfirmationPaper, error)
	// ListByDoctorate returns every paper of a doctorate, oldest first.
	ListByDoctorate(ctx context.Context, id domain.DoctorateID) ([]*domain.ConfirmationPaper, error)
	Save(ctx context.Context, p *domain.ConfirmationPaper) error
	Delete(ctx context.Context, id domain.ConfirmationPaperID) error
}

// AdmissibilityRepository persists admissibility reviews.
type AdmissibilityRepository interface {
	Get(ctx context.Context, id domain.AdmissibilityID) (*domain.Admissibility, error)
	// ListByDoctorate returns every admissibility of a doctorate, oldest first.
	ListByDoctorate(ctx context.Context, id domain.DoctorateID) ([]*domain.Admissibility, error)
	Save(ctx context.Context, a *domain.Admissibility) error
	Delete(ctx context.Context, id domain.AdmissibilityID) error
}

// PrivateDefenseRepository persists private defenses.
type PrivateDefenseRepository interface {
	Get(ctx context.Context, id domain.PrivateDefenseID) (*domain.PrivateDefense, error)
	// ListByDoctorate returns every private defense of a doctorate, oldest first.
	ListByDoctorate(ctx context.Context, id domain.DoctorateID) ([]*domain.PrivateDefense, error)
	Save(ctx context.Context, p *domain.PrivateDefense) error
	Delete(ctx context.Context, id domain.PrivateDefenseID) error
}

// AuthorizationRepository persists thesis-distribution authorizations.
type AuthorizationRepository interface {
	Get(ctx context.Context, id domain.AuthorizationID) (*domain.ThesisDistributionAuthorization, error)
	Save(ctx context.Context, a *domain.ThesisDistributionAuthorization) error
	Delete(ctx context.Context, id domain.AuthorizationID) error
}

// SearchIndex is the denormalised listing projection, updated in the same
// transaction as the aggregates it describes.
type SearchIndex interface {
	Upsert(ctx context.Context, row listing.Row) error
	// Rows returns the whole projection.
	Rows(ctx context.Context) ([]listing.Row, error)
}
