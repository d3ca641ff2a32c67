package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

// InstitutionRepository manages persistence for college workday profiles.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs an InstitutionRepository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindByID fetches an institution profile by ID.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.InstitutionProfile, error) {
	const query = `SELECT id, name, start_time, end_time, lunch_start, lunch_end, created_at, updated_at FROM institutions WHERE id = $1`
	var profile models.InstitutionProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns all institution profiles ordered by name.
func (r *InstitutionRepository) List(ctx context.Context) ([]models.InstitutionProfile, error) {
	const query = `SELECT id, name, start_time, end_time, lunch_start, lunch_end, created_at, updated_at FROM institutions ORDER BY name`
	var profiles []models.InstitutionProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return profiles, nil
}

// Upsert inserts or updates an institution profile.
func (r *InstitutionRepository) Upsert(ctx context.Context, profile *models.InstitutionProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO institutions (id, name, start_time, end_time, lunch_start, lunch_end, created_at, updated_at)
		VALUES (:id, :name, :start_time, :end_time, :lunch_start, :lunch_end, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, start_time = EXCLUDED.start_time,
		end_time = EXCLUDED.end_time, lunch_start = EXCLUDED.lunch_start, lunch_end = EXCLUDED.lunch_end,
		updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert institution: %w", err)
	}
	return nil
}
