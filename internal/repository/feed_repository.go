package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

// FeedRepository manages persistence for global assignment records, the
// cross-college booking feed every validation runs against.
type FeedRepository struct {
	db *sqlx.DB
}

// NewFeedRepository constructs a FeedRepository.
func NewFeedRepository(db *sqlx.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// ListAll returns the complete feed ordered by trainer and date.
func (r *FeedRepository) ListAll(ctx context.Context) ([]models.GlobalAssignmentRecord, error) {
	const query = `SELECT id, trainer_id, trainer_name, booked_date, start_date, end_date, day_duration,
		source_training_id, domain, college_name, batch_code, created_at
		FROM global_assignments ORDER BY trainer_id, booked_date`
	var records []models.GlobalAssignmentRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list global assignments: %w", err)
	}
	return records, nil
}

// ListByTrainer returns a single trainer's feed entries.
func (r *FeedRepository) ListByTrainer(ctx context.Context, trainerID string) ([]models.GlobalAssignmentRecord, error) {
	const query = `SELECT id, trainer_id, trainer_name, booked_date, start_date, end_date, day_duration,
		source_training_id, domain, college_name, batch_code, created_at
		FROM global_assignments WHERE trainer_id = $1 ORDER BY booked_date`
	var records []models.GlobalAssignmentRecord
	if err := r.db.SelectContext(ctx, &records, query, trainerID); err != nil {
		return nil, fmt.Errorf("list global assignments for trainer: %w", err)
	}
	return records, nil
}

// ReplaceForTraining atomically swaps one training's feed contribution:
// earlier records from the same training are removed so a resubmission
// does not double-book its own trainers.
func (r *FeedRepository) ReplaceForTraining(ctx context.Context, trainingID string, records []models.GlobalAssignmentRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin feed replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM global_assignments WHERE source_training_id = $1`, trainingID); err != nil {
		return fmt.Errorf("clear previous feed records: %w", err)
	}

	const insert = `INSERT INTO global_assignments (id, trainer_id, trainer_name, booked_date, start_date, end_date,
		day_duration, source_training_id, domain, college_name, batch_code, created_at)
		VALUES (:id, :trainer_id, :trainer_name, :booked_date, :start_date, :end_date,
		:day_duration, :source_training_id, :domain, :college_name, :batch_code, :created_at)`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insert, records[i]); err != nil {
			return fmt.Errorf("insert feed record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feed replace: %w", err)
	}
	return nil
}
