package license

import (
	"context"

	"license-sync/pkg/db/option"
	"license-sync/pkg/db/pagination"
	"license-sync/pkg/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository wraps the shared store with the upsert the reconciler needs.
type Repository struct {
	db   *gorm.DB
	repo repository.Repository[License]
}

type RepositoryParams struct {
	DB *gorm.DB
}

func NewRepository(p RepositoryParams) *Repository {
	return &Repository{
		db:   p.DB,
		repo: repository.ProvideStore[License](p.DB),
	}
}

// Upsert writes lic as the authoritative row for lic.Email in a single
// conditional insert-or-update statement, so concurrent reconciliations for
// the same identity cannot interleave partial writes. assign lists the
// columns overwritten when the row already exists; id and created_at are
// never among them.
func (r *Repository) Upsert(ctx context.Context, lic *License, assign ...string) (*License, error) {
	assign = append(assign, "updated_at")

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns(assign),
	}).Create(lic).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller sees the surviving id/created_at, not the
	// candidate row's.
	return r.FindByEmail(ctx, lic.Email)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*License, error) {
	return r.repo.FindOne(ctx, &License{Email: email})
}

func (r *Repository) List(ctx context.Context, p pagination.Pagination) ([]*License, error) {
	return r.repo.Find(ctx, &License{}, option.ApplyPagination(p))
}
