package models

import "time"

// GlobalAssignmentRecord is one trainer commitment from the
// cross-training, cross-college feed. The allocation core only reads
// these; the host writes them after a submission passes validation.
//
// Records usually carry a single date (one row per trainer per day,
// keyed as {training}-{trainer}-{date}), but imported legacy rows may
// carry a range instead, which consumers expand before comparison.
type GlobalAssignmentRecord struct {
	ID               string      `db:"id" json:"id"`
	TrainerID        string      `db:"trainer_id" json:"trainer_id"`
	TrainerName      string      `db:"trainer_name" json:"trainer_name"`
	Date             string      `db:"booked_date" json:"date,omitempty"`
	StartDate        string      `db:"start_date" json:"start_date,omitempty"`
	EndDate          string      `db:"end_date" json:"end_date,omitempty"`
	DayDuration      DayDuration `db:"day_duration" json:"day_duration"`
	SourceTrainingID string      `db:"source_training_id" json:"source_training_id"`
	Domain           string      `db:"domain" json:"domain"`
	CollegeName      string      `db:"college_name" json:"college_name"`
	BatchCode        string      `db:"batch_code" json:"batch_code"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
}

// FeedSnapshot is a wholesale copy of the global feed plus the version
// it was taken at. Validation reports are only meaningful against the
// snapshot version they were computed with.
type FeedSnapshot struct {
	Records []GlobalAssignmentRecord `json:"records"`
	Version uint64                   `json:"version"`
	TakenAt time.Time                `json:"taken_at"`
}
