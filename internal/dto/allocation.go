package dto

import (
	"github.com/noah-isme/tms-allocation-api/internal/models"
)

// OpenSessionRequest starts an allocation editing session for one
// training initiation at one college.
type OpenSessionRequest struct {
	TrainingID    string `json:"trainingId" validate:"required"`
	CollegeID     string `json:"collegeId" validate:"required"`
	ExclusionRule string `json:"exclusionRule" validate:"omitempty,oneof=None Saturday Sunday Both"`
}

// CourseSeed describes one specialization auto-populated when a domain
// is selected.
type CourseSeed struct {
	Specialization string  `json:"specialization" validate:"required"`
	StudentCount   int     `json:"studentCount" validate:"gte=0"`
	TotalHours     float64 `json:"totalHours" validate:"gte=0"`
}

// SelectDomainRequest adds a domain's courses to the session table.
type SelectDomainRequest struct {
	Domain  string       `json:"domain" validate:"required"`
	Courses []CourseSeed `json:"courses" validate:"dive"`
}

// DeselectDomainRequest parks a domain's rows for later re-selection.
type DeselectDomainRequest struct {
	Domain string `json:"domain" validate:"required"`
}

// BatchRequest addresses a batch inside the session table.
type BatchRequest struct {
	Row   int `json:"row" validate:"gte=0"`
	Batch int `json:"batch" validate:"gte=0"`
}

// RowRequest addresses a specialization row.
type RowRequest struct {
	Row int `json:"row" validate:"gte=0"`
}

// SetStudentsRequest updates a batch's assigned student count.
type SetStudentsRequest struct {
	Row   int `json:"row" validate:"gte=0"`
	Batch int `json:"batch" validate:"gte=0"`
	Value int `json:"value" validate:"gte=0"`
}

// SetHoursBudgetRequest updates a batch's hour budget.
type SetHoursBudgetRequest struct {
	Row   int     `json:"row" validate:"gte=0"`
	Batch int     `json:"batch" validate:"gte=0"`
	Value float64 `json:"value" validate:"gte=0"`
}

// TrainerFieldRequest edits a single assignment field.
type TrainerFieldRequest struct {
	Row     int    `json:"row" validate:"gte=0"`
	Batch   int    `json:"batch" validate:"gte=0"`
	Trainer int    `json:"trainer" validate:"gte=0"`
	Field   string `json:"field" validate:"required,oneof=trainerId dayDuration startDate endDate"`
	Value   string `json:"value"`
}

// TrainerKeyRequest addresses one trainer assignment.
type TrainerKeyRequest struct {
	Row     int `json:"row" validate:"gte=0"`
	Batch   int `json:"batch" validate:"gte=0"`
	Trainer int `json:"trainer" validate:"gte=0"`
}

// Key converts the request triple into a model key.
func (r TrainerKeyRequest) Key() models.AssignmentKey {
	return models.AssignmentKey{Row: r.Row, Batch: r.Batch, Trainer: r.Trainer}
}

// SetTotalHoursRequest redistributes a trainer's total hours.
type SetTotalHoursRequest struct {
	Row     int     `json:"row" validate:"gte=0"`
	Batch   int     `json:"batch" validate:"gte=0"`
	Trainer int     `json:"trainer" validate:"gte=0"`
	Value   float64 `json:"value" validate:"gte=0"`
}

// SetDailyHoursRequest edits one day's hours for a trainer.
type SetDailyHoursRequest struct {
	Row      int     `json:"row" validate:"gte=0"`
	Batch    int     `json:"batch" validate:"gte=0"`
	Trainer  int     `json:"trainer" validate:"gte=0"`
	DayIndex int     `json:"dayIndex" validate:"gte=0"`
	Value    float64 `json:"value" validate:"gte=0"`
}

// MergeRequest collapses two specialization rows into one.
type MergeRequest struct {
	SourceIndex int `json:"sourceIndex" validate:"gte=0"`
	TargetIndex int `json:"targetIndex" validate:"gte=0"`
}

// UndoMergeRequest reverses the last merge on a row.
type UndoMergeRequest struct {
	Row int `json:"row" validate:"gte=0"`
}

// SwapRequest exchanges trainers across two assignments.
type SwapRequest struct {
	Source TrainerKeyRequest `json:"source"`
	Target TrainerKeyRequest `json:"target"`
}

// SessionView is the serialized state of an allocation session.
type SessionView struct {
	ID            string                   `json:"id"`
	TrainingID    string                   `json:"trainingId"`
	CollegeID     string                   `json:"collegeId"`
	CollegeName   string                   `json:"collegeName"`
	ExclusionRule string                   `json:"exclusionRule"`
	Table         models.AllocationTable   `json:"table"`
	Report        *models.ValidationReport `json:"report,omitempty"`
}

// SubmitRequest finalizes a session into the shared feed.
type SubmitRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// SubmitResponse reports how many feed records a submission produced.
type SubmitResponse struct {
	SessionID   string `json:"sessionId"`
	Records     int    `json:"records"`
	FeedVersion uint64 `json:"feedVersion"`
}
